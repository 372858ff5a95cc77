package validation

import (
	"errors"
)

// ValidatePassword enforces the signup/reset password shape.
// Argon2id has no input length ceiling like bcrypt, but unbounded input is
// still a denial-of-service vector, so a generous cap applies.
func ValidatePassword(password string) error {
	if len(password) < 8 {
		return errors.New("password must be at least 8 characters")
	}

	if len(password) > 128 {
		return errors.New("password must not exceed 128 characters")
	}

	return nil
}
