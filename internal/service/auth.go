package service

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/chatqpt/chatqpt/internal/model"
	"github.com/chatqpt/chatqpt/internal/password"
	"github.com/chatqpt/chatqpt/internal/repository"
	"github.com/chatqpt/chatqpt/internal/validation"
	"github.com/google/uuid"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrEmailInUse         = errors.New("email already in use")
	ErrInvalidEmail       = errors.New("invalid email address")
	ErrWeakPassword       = errors.New("password must be at least 8 characters")
	ErrPasswordMismatch   = errors.New("passwords do not match")
	ErrInvalidToken       = errors.New("invalid token")
	ErrTokenExpired       = errors.New("token expired")
	ErrUserNotFound       = errors.New("user not found")
)

// EmailSender is the outbound-mail port the orchestrator depends on.
type EmailSender interface {
	SendVerificationEmail(email, token string) error
	SendPasswordResetEmail(email, token string) error
}

// AuthService is the use-case layer composing the hasher, token store,
// session manager and email port. Domain errors are returned as values;
// nothing unexpected escapes past the handler boundary unlogged.
type AuthService struct {
	userRepository  repository.UserRepository
	tokenService    *TokenService
	sessionService  *SessionService
	emailSender     EmailSender
	defaultRedirect string
}

func NewAuthService(
	userRepository repository.UserRepository,
	tokenService *TokenService,
	sessionService *SessionService,
	emailSender EmailSender,
	defaultRedirect string,
) *AuthService {
	return &AuthService{
		userRepository:  userRepository,
		tokenService:    tokenService,
		sessionService:  sessionService,
		emailSender:     emailSender,
		defaultRedirect: defaultRedirect,
	}
}

// Signup registers an unverified account and mails a verification link.
// No session is created until the address is verified.
func (s *AuthService) Signup(email, pass, passConfirmation string) error {
	email = strings.TrimSpace(strings.ToLower(email))

	err := validation.ValidateEmail(email)
	if err != nil {
		return ErrInvalidEmail
	}
	err = validation.ValidatePassword(pass)
	if err != nil {
		return ErrWeakPassword
	}
	if pass != passConfirmation {
		return ErrPasswordMismatch
	}

	_, err = s.userRepository.ByEmail(email)
	if err == nil {
		return ErrEmailInUse
	}
	if !errors.Is(err, repository.ErrUserNotFound) {
		return fmt.Errorf("failed to check email: %w", err)
	}

	hashed, err := password.Hash(pass)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	user := &model.User{
		ID:           uuid.New().String(),
		Email:        email,
		PasswordHash: &hashed,
	}
	err = s.userRepository.Create(user)
	if err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			return ErrEmailInUse
		}
		return fmt.Errorf("failed to create user: %w", err)
	}

	token, err := s.tokenService.IssueVerificationToken(user.Email)
	if err != nil {
		return err
	}

	err = s.emailSender.SendVerificationEmail(user.Email, token.Token)
	if err != nil {
		return fmt.Errorf("failed to send verification email: %w", err)
	}

	slog.Info("user signed up", "user_id", user.ID, "email", user.Email)
	return nil
}

// LoginResult is the uniform outcome of a credential login.
type LoginResult struct {
	User    *model.User
	Session *model.Session
	// Redirect is a validated same-origin path the client should follow.
	Redirect string
	// ConfirmationSent is set when the account exists but the address is
	// unverified: a fresh verification email went out and no session exists.
	ConfirmationSent bool
}

// Login verifies credentials. A missing user, an OAuth-only account and a
// wrong password are indistinguishable to the caller (anti-enumeration).
func (s *AuthService) Login(email, pass, callbackURL string) (*LoginResult, error) {
	email = strings.TrimSpace(strings.ToLower(email))

	user, err := s.userRepository.ByEmail(email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	if !user.HasPassword() {
		return nil, ErrInvalidCredentials
	}
	if !password.Verify(*user.PasswordHash, pass) {
		return nil, ErrInvalidCredentials
	}

	if !user.IsVerified() {
		token, err := s.tokenService.IssueVerificationToken(user.Email)
		if err != nil {
			return nil, err
		}
		err = s.emailSender.SendVerificationEmail(user.Email, token.Token)
		if err != nil {
			return nil, fmt.Errorf("failed to send verification email: %w", err)
		}
		return &LoginResult{User: user, ConfirmationSent: true}, nil
	}

	session, err := s.sessionService.Create(user.ID)
	if err != nil {
		return nil, err
	}

	slog.Info("user logged in", "user_id", user.ID, "email", user.Email)
	return &LoginResult{
		User:     user,
		Session:  session,
		Redirect: s.safeRedirect(callbackURL),
	}, nil
}

// VerifyEmail consumes a verification token and marks the account verified.
func (s *AuthService) VerifyEmail(tokenStr string) error {
	token, err := s.tokenService.ConsumeVerificationToken(tokenStr)
	if err != nil {
		if errors.Is(err, repository.ErrTokenNotFound) {
			return ErrInvalidToken
		}
		return err
	}

	user, err := s.userRepository.ByEmail(token.Email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("failed to get user: %w", err)
	}

	if token.IsExpired() {
		return ErrTokenExpired
	}

	now := time.Now()
	user.EmailVerifiedAt = &now
	err = s.userRepository.Update(user)
	if err != nil {
		return fmt.Errorf("failed to update user: %w", err)
	}

	err = s.tokenService.Delete(token.ID)
	if err != nil {
		return err
	}

	slog.Info("email verified", "user_id", user.ID, "email", user.Email)
	return nil
}

// ForgotPassword mails a reset link. An unknown address yields ErrUserNotFound;
// unlike login this flow acknowledges account existence.
func (s *AuthService) ForgotPassword(email string) error {
	email = strings.TrimSpace(strings.ToLower(email))

	user, err := s.userRepository.ByEmail(email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("failed to get user: %w", err)
	}

	token, err := s.tokenService.IssuePasswordResetToken(user.Email)
	if err != nil {
		return err
	}

	err = s.emailSender.SendPasswordResetEmail(user.Email, token.Token)
	if err != nil {
		return fmt.Errorf("failed to send password reset email: %w", err)
	}

	slog.Info("password reset link sent", "email", user.Email)
	return nil
}

// ResetPassword consumes a reset token, replaces the password hash and
// revokes every live session of the user.
func (s *AuthService) ResetPassword(pass, passConfirmation, tokenStr string) error {
	err := validation.ValidatePassword(pass)
	if err != nil {
		return ErrWeakPassword
	}
	if pass != passConfirmation {
		return ErrPasswordMismatch
	}
	if tokenStr == "" {
		return ErrInvalidToken
	}

	token, err := s.tokenService.ConsumePasswordResetToken(tokenStr)
	if err != nil {
		if errors.Is(err, repository.ErrTokenNotFound) {
			return ErrInvalidToken
		}
		return err
	}

	user, err := s.userRepository.ByEmail(token.Email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("failed to get user: %w", err)
	}

	if token.IsExpired() {
		return ErrTokenExpired
	}

	hashed, err := password.Hash(pass)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	user.PasswordHash = &hashed
	err = s.userRepository.Update(user)
	if err != nil {
		return fmt.Errorf("failed to update user: %w", err)
	}

	err = s.tokenService.Delete(token.ID)
	if err != nil {
		return err
	}

	err = s.sessionService.DeleteByUser(user.ID)
	if err != nil {
		slog.Warn("failed to revoke sessions after password reset", "error", err, "user_id", user.ID)
	}

	slog.Info("password reset", "user_id", user.ID, "email", user.Email)
	return nil
}

// LoginWithGoogle links a provider identity to a local account and starts a
// session. Linking is idempotent: an existing user with the same email is
// reused, otherwise one is created already verified (the provider vouches
// for the address).
func (s *AuthService) LoginWithGoogle(profile *GoogleProfile) (*model.User, *model.Session, error) {
	email := strings.TrimSpace(strings.ToLower(profile.Email))
	err := validation.ValidateEmail(email)
	if err != nil {
		return nil, nil, ErrInvalidEmail
	}

	user, err := s.userRepository.ByEmail(email)
	if err != nil {
		if !errors.Is(err, repository.ErrUserNotFound) {
			return nil, nil, fmt.Errorf("failed to lookup user: %w", err)
		}

		now := time.Now()
		user = &model.User{
			ID:              uuid.New().String(),
			Email:           email,
			EmailVerifiedAt: &now,
		}
		if profile.Name != "" {
			user.Name = &profile.Name
		}
		if profile.Picture != "" {
			user.Avatar = &profile.Picture
		}

		err = s.userRepository.Create(user)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create user: %w", err)
		}
		slog.Info("new oauth user created", "user_id", user.ID, "email", user.Email)
	}

	session, err := s.sessionService.Create(user.ID)
	if err != nil {
		return nil, nil, err
	}

	slog.Info("user logged in with google oauth", "user_id", user.ID, "email", user.Email)
	return user, session, nil
}

// safeRedirect accepts only same-origin relative paths; everything else
// falls back to the default post-login target (open-redirect protection).
func (s *AuthService) safeRedirect(callbackURL string) string {
	if callbackURL == "" {
		return s.defaultRedirect
	}
	if !strings.HasPrefix(callbackURL, "/") {
		return s.defaultRedirect
	}
	if strings.HasPrefix(callbackURL, "//") || strings.HasPrefix(callbackURL, "/\\") {
		return s.defaultRedirect
	}
	return callbackURL
}
