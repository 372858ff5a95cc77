package model

import (
	"time"
)

type User struct {
	ID              string     `db:"id" json:"id"`
	Email           string     `db:"email" json:"email"`
	PasswordHash    *string    `db:"password_hash" json:"-"` // Nullable for OAuth-only users
	Name            *string    `db:"name" json:"name,omitempty"`
	Avatar          *string    `db:"avatar" json:"avatar,omitempty"`
	EmailVerifiedAt *time.Time `db:"email_verified_at" json:"emailVerified,omitempty"`
	CreatedAt       time.Time  `db:"created_at" json:"createdAt"`
	UpdatedAt       time.Time  `db:"updated_at" json:"updatedAt"`
}

func (u *User) HasPassword() bool {
	return u.PasswordHash != nil && *u.PasswordHash != ""
}

func (u *User) IsVerified() bool {
	return u.EmailVerifiedAt != nil
}
