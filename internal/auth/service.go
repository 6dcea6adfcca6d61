package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/odyssey-erp/odyssey-todo/internal/shared"
)

// ErrEmailTaken is returned when signup hits an existing account.
var ErrEmailTaken = shared.Errorf(shared.ErrConflict, "Email already registered")

// TokenSigner issues access tokens for an identity.
type TokenSigner interface {
	Issue(id shared.Identity, ttl time.Duration) (string, error)
}

// ServiceConfig tunes the auth service.
type ServiceConfig struct {
	TokenTTL time.Duration
}

// Service wraps authentication business rules.
type Service struct {
	repo     Repository
	hasher   Hasher
	tokens   TokenSigner
	cfg      ServiceConfig
	validate *validator.Validate
	logger   *slog.Logger

	// dummyHash is compared against when signin names an unknown email so
	// both outcomes spend a hash computation at the configured cost.
	dummyHash func() string
}

// NewService constructs a new Service.
func NewService(repo Repository, hasher Hasher, tokens TokenSigner, cfg ServiceConfig, logger *slog.Logger) *Service {
	if cfg.TokenTTL <= 0 {
		cfg.TokenTTL = DefaultTokenTTL
	}
	if logger == nil {
		logger = slog.Default()
	}
	s := &Service{
		repo:     repo,
		hasher:   hasher,
		tokens:   tokens,
		cfg:      cfg,
		validate: validator.New(),
		logger:   logger,
	}
	s.dummyHash = sync.OnceValue(func() string {
		h, err := hasher.Hash(context.Background(), "odyssey-todo-dummy")
		if err != nil {
			logger.Warn("build dummy password hash", slog.Any("error", err))
			return ""
		}
		return h
	})
	return s
}

// Signup registers a new account and returns it with a fresh token.
func (s *Service) Signup(ctx context.Context, in Credentials) (Session, error) {
	if err := s.validateCredentials(in); err != nil {
		return Session{}, err
	}

	_, err := s.repo.FindByEmail(ctx, in.Email)
	switch {
	case err == nil:
		return Session{}, ErrEmailTaken
	case !errors.Is(err, shared.ErrNotFound):
		return Session{}, err
	}

	hash, err := s.hasher.Hash(ctx, in.Password)
	if err != nil {
		return Session{}, err
	}
	// A concurrent signup can still win between the lookup and the insert;
	// the unique constraint turns that into ErrEmailTaken.
	user, err := s.repo.Create(ctx, in.Email, hash)
	if err != nil {
		return Session{}, err
	}
	s.logger.Info("user registered", slog.String("user_id", user.ID.String()))
	return s.session(user)
}

// Signin verifies credentials. Unknown email and wrong password are
// indistinguishable to the caller.
func (s *Service) Signin(ctx context.Context, in Credentials) (Session, error) {
	if strings.TrimSpace(in.Email) == "" || in.Password == "" {
		return Session{}, shared.ErrInvalidCredentials
	}
	user, err := s.repo.FindByEmail(ctx, in.Email)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			s.hasher.Verify(ctx, in.Password, s.dummyHash())
			return Session{}, shared.ErrInvalidCredentials
		}
		return Session{}, err
	}
	if !s.hasher.Verify(ctx, in.Password, user.PasswordHash) {
		return Session{}, shared.ErrInvalidCredentials
	}
	return s.session(user)
}

// Signout is stateless: tokens stay valid until they expire.
func (s *Service) Signout(context.Context) error {
	return nil
}

func (s *Service) session(user *User) (Session, error) {
	token, err := s.tokens.Issue(shared.Identity{UserID: user.ID, Email: user.Email}, s.cfg.TokenTTL)
	if err != nil {
		return Session{}, fmt.Errorf("auth: issue token: %w", err)
	}
	return Session{User: *user, Token: token}, nil
}

type credentialRules struct {
	Email    string `validate:"required,email,max=255"`
	Password string `validate:"required"`
}

func (s *Service) validateCredentials(in Credentials) error {
	err := s.validate.Struct(credentialRules{Email: in.Email, Password: in.Password})
	if err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
			return shared.Errorf(shared.ErrValidation, "%s", describeField(fieldErrs[0]))
		}
		return shared.Errorf(shared.ErrValidation, "invalid credentials payload")
	}
	return ValidatePassword(in.Password)
}

func describeField(fe validator.FieldError) string {
	switch fe.Field() {
	case "Email":
		if fe.Tag() == "required" {
			return "Email is required"
		}
		if fe.Tag() == "max" {
			return "Email must not exceed 255 characters"
		}
		return "Email is not a valid address"
	case "Password":
		return "Password is required"
	}
	return fmt.Sprintf("%s is invalid", fe.Field())
}
