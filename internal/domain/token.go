package domain

import "time"

// TokenKind distinguishes the single-use tokens sent by email.
type TokenKind string

const (
	TokenEmailVerification TokenKind = "email_verification"
	TokenPasswordReset     TokenKind = "password_reset"
)

// EphemeralToken is a single-use token record kept in the shared store.
type EphemeralToken struct {
	Token     string    `json:"token"`
	Kind      TokenKind `json:"kind"`
	UserID    int64     `json:"user_id"`
	Email     string    `json:"email"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Expired reports whether the token is past its expiry at now.
func (t EphemeralToken) Expired(now time.Time) bool {
	return !now.Before(t.ExpiresAt)
}
