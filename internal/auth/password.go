package auth

import (
	"context"
	"fmt"
	"runtime"

	"golang.org/x/crypto/bcrypt"
	"golang.org/x/sync/semaphore"

	"github.com/odyssey-erp/odyssey-todo/internal/shared"
)

// MaxPasswordBytes is the bcrypt input limit.
const MaxPasswordBytes = 72

// Hasher hashes and verifies passwords.
type Hasher interface {
	Hash(ctx context.Context, password string) (string, error)
	Verify(ctx context.Context, password, hash string) bool
}

// BcryptHasher implements Hasher with bcrypt. At most `concurrency` hash or
// verify computations run at once; callers beyond that wait or give up when
// their context ends.
type BcryptHasher struct {
	cost int
	sem  *semaphore.Weighted
}

// NewBcryptHasher builds a BcryptHasher. Out-of-range cost falls back to
// bcrypt.DefaultCost and a non-positive concurrency to GOMAXPROCS.
func NewBcryptHasher(cost, concurrency int) *BcryptHasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	if concurrency <= 0 {
		concurrency = runtime.GOMAXPROCS(0)
	}
	return &BcryptHasher{cost: cost, sem: semaphore.NewWeighted(int64(concurrency))}
}

// Hash returns a salted bcrypt hash of password.
func (h *BcryptHasher) Hash(ctx context.Context, password string) (string, error) {
	if err := ValidatePassword(password); err != nil {
		return "", err
	}
	if err := h.sem.Acquire(ctx, 1); err != nil {
		return "", fmt.Errorf("auth: wait for hasher: %w", err)
	}
	defer h.sem.Release(1)

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	if err != nil {
		return "", fmt.Errorf("auth: hash password: %w", err)
	}
	return string(hashed), nil
}

// Verify reports whether password matches hash. Any failure, including a
// cancelled context, is a mismatch.
func (h *BcryptHasher) Verify(ctx context.Context, password, hash string) bool {
	if err := h.sem.Acquire(ctx, 1); err != nil {
		return false
	}
	defer h.sem.Release(1)
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// ValidatePassword enforces the non-empty and bcrypt length rules.
func ValidatePassword(password string) error {
	if password == "" {
		return shared.Errorf(shared.ErrValidation, "Password is required")
	}
	if len(password) > MaxPasswordBytes {
		return shared.Errorf(shared.ErrValidation, "Password must not exceed %d bytes due to bcrypt limitations", MaxPasswordBytes)
	}
	return nil
}
