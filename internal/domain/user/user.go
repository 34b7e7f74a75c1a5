package user

import (
	"errors"
	"strings"
	"time"
)

// MaxPasswordBytes is bcrypt's input limit. The validator's max counts runes, so the
// byte length is checked separately.
const MaxPasswordBytes = 72

var (
	ErrNotFound           = errors.New("user not found")
	ErrEmailTaken         = errors.New("user already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrEmailRequired      = errors.New("email is required")
	ErrPasswordTooLong    = errors.New("password must be at most 72 bytes")
)

type User struct {
	ID           int64     `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"` // never expose hash in JSON
	CreatedAt    time.Time `json:"createdAt"`
}

type CredentialsRequest struct {
	Email    string `json:"email" binding:"required,max=255"`
	Password string `json:"password" binding:"required,max=72"`
}

// Normalize trims the email, the single form both stores key users by, and rejects
// passwords bcrypt cannot hash.
func (r CredentialsRequest) Normalize() (CredentialsRequest, error) {
	r.Email = strings.TrimSpace(r.Email)
	if r.Email == "" {
		return r, ErrEmailRequired
	}
	if len(r.Password) > MaxPasswordBytes {
		return r, ErrPasswordTooLong
	}
	return r, nil
}
