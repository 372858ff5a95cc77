package model

import (
	"time"
)

// Token is a single-use secret mailed to an address. Purpose scopes the
// namespace; at most one live token exists per (email, purpose).
type Token struct {
	ID        string    `db:"id"`
	Purpose   string    `db:"purpose"` // "email_verify" or "password_reset"
	Email     string    `db:"email"`
	Token     string    `db:"token"`
	ExpiresAt time.Time `db:"expires_at"`
	CreatedAt time.Time `db:"created_at"`
}

const (
	TokenPurposeEmailVerify   = "email_verify"
	TokenPurposePasswordReset = "password_reset"
)

func (t *Token) IsExpired() bool {
	return time.Now().After(t.ExpiresAt)
}
