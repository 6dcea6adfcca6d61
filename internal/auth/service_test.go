package auth_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/sync/errgroup"

	"github.com/odyssey-erp/odyssey-todo/internal/auth"
	"github.com/odyssey-erp/odyssey-todo/internal/shared"
	_ "github.com/odyssey-erp/odyssey-todo/testing"
)

// memRepo mimics the users table, including its unique email constraint.
type memRepo struct {
	mu      sync.Mutex
	byEmail map[string]*auth.User
	findErr error
	// gate, when set, holds FindByEmail until released so concurrent signups
	// all pass the pre-check and race on Create.
	gate chan struct{}
}

func newMemRepo() *memRepo {
	return &memRepo{byEmail: make(map[string]*auth.User)}
}

func (m *memRepo) FindByEmail(ctx context.Context, email string) (*auth.User, error) {
	if m.gate != nil {
		<-m.gate
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.findErr != nil {
		return nil, m.findErr
	}
	u, ok := m.byEmail[email]
	if !ok {
		return nil, shared.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (m *memRepo) Create(ctx context.Context, email, passwordHash string) (*auth.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byEmail[email]; ok {
		return nil, auth.ErrEmailTaken
	}
	now := time.Now().UTC()
	u := &auth.User{ID: uuid.New(), Email: email, PasswordHash: passwordHash, CreatedAt: now, UpdatedAt: now}
	m.byEmail[email] = u
	cp := *u
	return &cp, nil
}

func (m *memRepo) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.byEmail)
}

type countingHasher struct {
	auth.Hasher
	verifies atomic.Int32
	lastHash atomic.Pointer[string]
}

func (c *countingHasher) Verify(ctx context.Context, password, hash string) bool {
	c.verifies.Add(1)
	c.lastHash.Store(&hash)
	return c.Hasher.Verify(ctx, password, hash)
}

func (c *countingHasher) lastCost(t *testing.T) int {
	t.Helper()
	hash := c.lastHash.Load()
	require.NotNil(t, hash)
	cost, err := bcrypt.Cost([]byte(*hash))
	require.NoError(t, err)
	return cost
}

type fixture struct {
	repo    *memRepo
	hasher  *countingHasher
	tokens  *auth.TokenIssuer
	service *auth.Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	repo := newMemRepo()
	hasher := &countingHasher{Hasher: auth.NewBcryptHasher(bcrypt.MinCost, 4)}
	tokens, err := auth.NewTokenIssuer("service-test-secret")
	require.NoError(t, err)
	svc := auth.NewService(repo, hasher, tokens, auth.ServiceConfig{TokenTTL: time.Minute}, nil)
	return &fixture{repo: repo, hasher: hasher, tokens: tokens, service: svc}
}

func TestSignupSigninScenario(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	signup, err := f.service.Signup(ctx, auth.Credentials{Email: "a@x.com", Password: "secret1"})
	require.NoError(t, err)
	require.NotEmpty(t, signup.Token)
	assert.Equal(t, "a@x.com", signup.User.Email)
	assert.NotEqual(t, "secret1", signup.User.PasswordHash)

	id, ok := f.tokens.Verify(signup.Token)
	require.True(t, ok)
	assert.Equal(t, signup.User.ID, id.UserID)
	assert.Equal(t, "a@x.com", id.Email)

	_, err = f.service.Signin(ctx, auth.Credentials{Email: "a@x.com", Password: "wrong"})
	assert.ErrorIs(t, err, shared.ErrInvalidCredentials)

	signin, err := f.service.Signin(ctx, auth.Credentials{Email: "a@x.com", Password: "secret1"})
	require.NoError(t, err)
	assert.Equal(t, signup.User.ID, signin.User.ID)
	assert.NotEmpty(t, signin.Token)
}

func TestSigninUnknownEmailIsIndistinguishable(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.service.Signup(ctx, auth.Credentials{Email: "a@x.com", Password: "secret1"})
	require.NoError(t, err)

	f.hasher.verifies.Store(0)
	_, unknownErr := f.service.Signin(ctx, auth.Credentials{Email: "nobody@x.com", Password: "secret1"})
	_, wrongErr := f.service.Signin(ctx, auth.Credentials{Email: "a@x.com", Password: "nope"})

	require.Error(t, unknownErr)
	require.Error(t, wrongErr)
	assert.Equal(t, wrongErr.Error(), unknownErr.Error())
	assert.ErrorIs(t, unknownErr, shared.ErrInvalidCredentials)
	assert.EqualValues(t, 2, f.hasher.verifies.Load(), "unknown email still runs a hash comparison")
}

func TestSigninUnknownEmailUsesConfiguredCost(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.service.Signup(ctx, auth.Credentials{Email: "a@x.com", Password: "secret1"})
	require.NoError(t, err)

	_, err = f.service.Signin(ctx, auth.Credentials{Email: "a@x.com", Password: "nope"})
	require.ErrorIs(t, err, shared.ErrInvalidCredentials)
	wrongPasswordCost := f.hasher.lastCost(t)

	_, err = f.service.Signin(ctx, auth.Credentials{Email: "nobody@x.com", Password: "secret1"})
	require.ErrorIs(t, err, shared.ErrInvalidCredentials)
	assert.Equal(t, bcrypt.MinCost, f.hasher.lastCost(t))
	assert.Equal(t, wrongPasswordCost, f.hasher.lastCost(t))
}

func TestSigninEmailIsCaseSensitive(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.service.Signup(ctx, auth.Credentials{Email: "a@x.com", Password: "secret1"})
	require.NoError(t, err)

	_, err = f.service.Signin(ctx, auth.Credentials{Email: "A@X.com", Password: "secret1"})
	assert.ErrorIs(t, err, shared.ErrInvalidCredentials)
}

func TestSigninStorageFailureIsNotReportedAsBadCredentials(t *testing.T) {
	f := newFixture(t)
	f.repo.findErr = errors.New("connection refused")

	_, err := f.service.Signin(context.Background(), auth.Credentials{Email: "a@x.com", Password: "secret1"})
	require.Error(t, err)
	assert.NotErrorIs(t, err, shared.ErrInvalidCredentials)
}

func TestSignupDuplicateEmail(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.service.Signup(ctx, auth.Credentials{Email: "a@x.com", Password: "secret1"})
	require.NoError(t, err)

	_, err = f.service.Signup(ctx, auth.Credentials{Email: "a@x.com", Password: "another"})
	assert.ErrorIs(t, err, shared.ErrConflict)
	assert.Equal(t, "Email already registered", shared.UserSafeMessage(err))
}

func TestSignupValidatesBeforeUniqueness(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.service.Signup(ctx, auth.Credentials{Email: "a@x.com", Password: "secret1"})
	require.NoError(t, err)

	// Taken email with an over-long password reports the validation problem.
	_, err = f.service.Signup(ctx, auth.Credentials{Email: "a@x.com", Password: strings.Repeat("p", 73)})
	assert.ErrorIs(t, err, shared.ErrValidation)
	assert.NotErrorIs(t, err, shared.ErrConflict)
}

func TestSignupValidation(t *testing.T) {
	f := newFixture(t)
	cases := map[string]auth.Credentials{
		"missing email":     {Password: "secret1"},
		"invalid email":     {Email: "not-an-email", Password: "secret1"},
		"missing password":  {Email: "a@x.com"},
		"password too long": {Email: "a@x.com", Password: strings.Repeat("p", auth.MaxPasswordBytes+1)},
	}
	for name, in := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := f.service.Signup(context.Background(), in)
			assert.ErrorIs(t, err, shared.ErrValidation)
		})
	}
	assert.Zero(t, f.repo.count())
}

func TestConcurrentSignupsProduceOneAccount(t *testing.T) {
	f := newFixture(t)
	f.repo.gate = make(chan struct{})

	const attempts = 8
	var successes, conflicts atomic.Int32
	var g errgroup.Group
	for i := 0; i < attempts; i++ {
		g.Go(func() error {
			_, err := f.service.Signup(context.Background(), auth.Credentials{Email: "race@x.com", Password: "secret1"})
			switch {
			case err == nil:
				successes.Add(1)
			case errors.Is(err, shared.ErrConflict):
				conflicts.Add(1)
			default:
				return err
			}
			return nil
		})
	}
	close(f.repo.gate)
	require.NoError(t, g.Wait())

	assert.EqualValues(t, 1, successes.Load())
	assert.EqualValues(t, attempts-1, conflicts.Load())
	assert.Equal(t, 1, f.repo.count())
}

func TestSignoutAlwaysSucceeds(t *testing.T) {
	f := newFixture(t)
	assert.NoError(t, f.service.Signout(context.Background()))
}
