package model

import (
	"time"
)

// Session is a server-side login bound to a browser via an opaque cookie value.
// ExpiresAt is NULL when the session manager is configured without a TTL.
type Session struct {
	ID        string     `db:"id"`
	UserID    string     `db:"user_id"`
	CreatedAt time.Time  `db:"created_at"`
	ExpiresAt *time.Time `db:"expires_at"`

	// Fresh signals the caller that the cookie must be (re)issued.
	// Set on creation and when validation rolls the expiry forward.
	Fresh bool `db:"-"`
}

func (s *Session) IsExpired() bool {
	return s.ExpiresAt != nil && time.Now().After(*s.ExpiresAt)
}
