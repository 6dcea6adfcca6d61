package shared

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound indicates a missing resource or one owned by someone else.
	ErrNotFound = errors.New("not found")
	// ErrInvalidCredentials indicates signin failure.
	ErrInvalidCredentials = errors.New("invalid email or password")
	// ErrUnauthenticated indicates a missing, malformed or rejected bearer token.
	ErrUnauthenticated = errors.New("could not validate credentials")
	// ErrConflict indicates a uniqueness violation.
	ErrConflict = errors.New("conflict")
	// ErrValidation indicates malformed input.
	ErrValidation = errors.New("validation failed")
)

// Error carries a client-safe message while matching its sentinel kind via errors.Is.
type Error struct {
	Kind    error
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Kind
}

// Errorf builds an *Error of the given kind.
func Errorf(kind error, format string, args ...any) error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// UserSafeMessage returns the text that may be shown to a client for err.
// Unclassified errors collapse to a generic message.
func UserSafeMessage(err error) string {
	var domainErr *Error
	if errors.As(err, &domainErr) {
		return domainErr.Message
	}
	for _, kind := range []error{ErrNotFound, ErrInvalidCredentials, ErrUnauthenticated, ErrConflict, ErrValidation} {
		if errors.Is(err, kind) {
			return kind.Error()
		}
	}
	return "An unexpected error occurred"
}
