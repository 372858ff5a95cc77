package service

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/chatqpt/chatqpt/internal/model"
	"github.com/chatqpt/chatqpt/internal/repository"
	"github.com/google/uuid"
)

// ErrTokenProcessing hides store faults from end users; detail goes to the log.
var ErrTokenProcessing = errors.New("failed to process token")

// TokenService issues and looks up single-use email tokens. Token strings are
// v4 UUIDs (crypto-random, 122 bits). Issuing deletes any prior token for the
// address first, so exactly one is live per (email, purpose).
type TokenService struct {
	tokenRepository repository.TokenRepository
	verifyExpiry    time.Duration
	resetExpiry     time.Duration
}

func NewTokenService(tokenRepository repository.TokenRepository, verifyExpiry, resetExpiry time.Duration) *TokenService {
	return &TokenService{
		tokenRepository: tokenRepository,
		verifyExpiry:    verifyExpiry,
		resetExpiry:     resetExpiry,
	}
}

func (s *TokenService) IssueVerificationToken(email string) (*model.Token, error) {
	return s.issue(email, model.TokenPurposeEmailVerify, s.verifyExpiry)
}

func (s *TokenService) IssuePasswordResetToken(email string) (*model.Token, error) {
	return s.issue(email, model.TokenPurposePasswordReset, s.resetExpiry)
}

func (s *TokenService) issue(email, purpose string, expiry time.Duration) (*model.Token, error) {
	err := s.tokenRepository.DeleteByEmailAndPurpose(email, purpose)
	if err != nil {
		slog.Error("failed to delete previous token", "error", err, "email", email, "purpose", purpose)
		return nil, ErrTokenProcessing
	}

	token := &model.Token{
		Purpose:   purpose,
		Email:     email,
		Token:     uuid.New().String(),
		ExpiresAt: time.Now().Add(expiry),
	}
	err = s.tokenRepository.Create(token)
	if err != nil {
		slog.Error("failed to create token", "error", err, "email", email, "purpose", purpose)
		return nil, ErrTokenProcessing
	}

	return token, nil
}

// ConsumeVerificationToken looks up a verification token by its string. The
// caller checks expiry and deletes the row after a successful verification.
func (s *TokenService) ConsumeVerificationToken(token string) (*model.Token, error) {
	return s.lookup(token, model.TokenPurposeEmailVerify)
}

func (s *TokenService) ConsumePasswordResetToken(token string) (*model.Token, error) {
	return s.lookup(token, model.TokenPurposePasswordReset)
}

func (s *TokenService) lookup(token, purpose string) (*model.Token, error) {
	t, err := s.tokenRepository.ByToken(token, purpose)
	if err != nil {
		if errors.Is(err, repository.ErrTokenNotFound) {
			return nil, repository.ErrTokenNotFound
		}
		slog.Error("failed to fetch token", "error", err, "purpose", purpose)
		return nil, ErrTokenProcessing
	}
	return t, nil
}

// Delete removes a token row after it has been consumed (single-use).
func (s *TokenService) Delete(id string) error {
	err := s.tokenRepository.Delete(id)
	if err != nil {
		return fmt.Errorf("failed to delete token: %w", err)
	}
	return nil
}
