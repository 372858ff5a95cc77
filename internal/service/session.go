package service

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/chatqpt/chatqpt/internal/model"
	"github.com/chatqpt/chatqpt/internal/repository"
)

// SessionService creates, validates, rotates and revokes server-side sessions
// and owns the session cookie contract.
//
// A session returned with Fresh=true obliges the caller to (re)issue the
// cookie: fresh sessions are either newly created or had their expiry rolled
// forward during validation.
type SessionService struct {
	sessionRepository repository.SessionRepository
	userRepository    repository.UserRepository
	cookieName        string
	ttl               time.Duration // 0 = sessions never expire
	isProduction      bool
}

func NewSessionService(
	sessionRepository repository.SessionRepository,
	userRepository repository.UserRepository,
	cookieName string,
	ttl time.Duration,
	isProduction bool,
) *SessionService {
	return &SessionService{
		sessionRepository: sessionRepository,
		userRepository:    userRepository,
		cookieName:        cookieName,
		ttl:               ttl,
		isProduction:      isProduction,
	}
}

// Create starts a session for the user. The returned session is Fresh.
func (s *SessionService) Create(userID string) (*model.Session, error) {
	id, err := generateSessionID()
	if err != nil {
		return nil, err
	}

	session := &model.Session{
		ID:        id,
		UserID:    userID,
		CreatedAt: time.Now(),
		Fresh:     true,
	}
	if s.ttl > 0 {
		expiresAt := session.CreatedAt.Add(s.ttl)
		session.ExpiresAt = &expiresAt
	}

	err = s.sessionRepository.Create(session)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	return session, nil
}

// Validate resolves a session id to its session and user. It fails open:
// absent, unknown or expired ids yield (nil, nil) and store faults are logged
// rather than surfaced. When less than half the TTL remains the expiry is
// pushed forward and the session comes back Fresh (rolling expiry).
func (s *SessionService) Validate(sessionID string) (*model.Session, *model.User) {
	if sessionID == "" {
		return nil, nil
	}

	session, err := s.sessionRepository.ByID(sessionID)
	if err != nil {
		if !errors.Is(err, repository.ErrSessionNotFound) {
			slog.Warn("session lookup failed", "error", err)
		}
		return nil, nil
	}

	if session.IsExpired() {
		err = s.sessionRepository.Delete(session.ID)
		if err != nil {
			slog.Warn("failed to delete expired session", "error", err, "session_id", session.ID)
		}
		return nil, nil
	}

	user, err := s.userRepository.ByID(session.UserID)
	if err != nil {
		if !errors.Is(err, repository.ErrUserNotFound) {
			slog.Warn("session user lookup failed", "error", err, "session_id", session.ID)
		}
		return nil, nil
	}

	if s.ttl > 0 && session.ExpiresAt != nil && time.Until(*session.ExpiresAt) < s.ttl/2 {
		expiresAt := time.Now().Add(s.ttl)
		err = s.sessionRepository.UpdateExpiry(session.ID, expiresAt)
		if err != nil {
			slog.Warn("failed to roll session expiry", "error", err, "session_id", session.ID)
		} else {
			session.ExpiresAt = &expiresAt
			session.Fresh = true
		}
	}

	return session, user
}

// Delete revokes a session. Deleting the row is the sole revocation
// mechanism; a missing row is not an error (logout is idempotent).
func (s *SessionService) Delete(sessionID string) error {
	return s.sessionRepository.Delete(sessionID)
}

// DeleteByUser revokes every session of a user, e.g. after a password reset.
func (s *SessionService) DeleteByUser(userID string) error {
	return s.sessionRepository.DeleteByUser(userID)
}

func (s *SessionService) CookieName() string {
	return s.cookieName
}

// Cookie builds the session cookie for a session. Without a TTL the cookie
// carries no expiry, matching the template's non-expiring sessions.
func (s *SessionService) Cookie(session *model.Session) *http.Cookie {
	cookie := &http.Cookie{
		Name:     s.cookieName,
		Value:    session.ID,
		Path:     "/",
		HttpOnly: true,
		Secure:   s.isProduction,
		SameSite: http.SameSiteLaxMode,
	}
	if session.ExpiresAt != nil {
		cookie.Expires = *session.ExpiresAt
	}
	return cookie
}

// BlankCookie returns a clearing directive for logout.
func (s *SessionService) BlankCookie() *http.Cookie {
	return &http.Cookie{
		Name:     s.cookieName,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   s.isProduction,
		SameSite: http.SameSiteLaxMode,
	}
}

// generateSessionID returns 256 bits from crypto/rand, base64url encoded.
func generateSessionID() (string, error) {
	b := make([]byte, 32)
	_, err := rand.Read(b)
	if err != nil {
		return "", fmt.Errorf("failed to generate session id: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
