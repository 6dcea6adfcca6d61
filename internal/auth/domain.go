package auth

import (
	"time"

	"github.com/google/uuid"
)

// User represents a registered account.
type User struct {
	ID           uuid.UUID
	Email        string
	PasswordHash string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Credentials is the signup/signin input.
type Credentials struct {
	Email    string
	Password string
}

// Session is returned by signup and signin: the user summary plus a fresh token.
type Session struct {
	User  User
	Token string
}
