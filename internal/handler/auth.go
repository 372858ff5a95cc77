package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/chatqpt/chatqpt/internal/config"
	"github.com/chatqpt/chatqpt/internal/service"
)

const (
	oauthStateCookie    = "oauth_state"
	oauthVerifierCookie = "oauth_code_verifier"
	oauthCookieTTL      = 10 * time.Minute
)

// Messages for domain errors, matching the client-facing contract.
var domainMessages = map[error]string{
	service.ErrInvalidCredentials: "Invalid Credentials!",
	service.ErrEmailInUse:         "Email already in use.",
	service.ErrInvalidEmail:       "Invalid email address",
	service.ErrWeakPassword:       "Password must be at least 8 characters",
	service.ErrPasswordMismatch:   "Passwords do not match!",
	service.ErrInvalidToken:       "Invalid token!",
	service.ErrTokenExpired:       "Token expired",
	service.ErrUserNotFound:       "User not found",
}

// OAuthProvider is the slice of the OAuth2 adapter the handlers consume.
type OAuthProvider interface {
	AuthorizationURL() (url, state, verifier string, err error)
	Exchange(ctx context.Context, code, verifier string) (*service.GoogleProfile, error)
}

type authHandler struct {
	authService    *service.AuthService
	sessionService *service.SessionService
	oauthService   OAuthProvider
	cfg            *config.Config
}

func NewAuthHandler(
	authService *service.AuthService,
	sessionService *service.SessionService,
	oauthService OAuthProvider,
	cfg *config.Config,
) *authHandler {
	return &authHandler{
		authService:    authService,
		sessionService: sessionService,
		oauthService:   oauthService,
		cfg:            cfg,
	}
}

// writeDomainError maps a known domain error to its client message, or logs
// the fault and downgrades it to the opaque generic message.
func (h *authHandler) writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	for domainErr, message := range domainMessages {
		if errors.Is(err, domainErr) {
			writeJSON(w, http.StatusOK, map[string]string{"error": message})
			return
		}
	}
	slog.Error("auth flow failed", "error", err, "path", r.URL.Path)
	writeError(w, http.StatusInternalServerError, genericErrorMessage)
}

func (h *authHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email                string `json:"email"`
		Password             string `json:"password"`
		PasswordConfirmation string `json:"passwordConfirmation"`
	}
	err := json.NewDecoder(r.Body).Decode(&req)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	err = h.authService.Signup(req.Email, req.Password, req.PasswordConfirmation)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}

	writeSuccess(w, "Confirmation email sent!")
}

func (h *authHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	err := json.NewDecoder(r.Body).Decode(&req)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	result, err := h.authService.Login(req.Email, req.Password, r.URL.Query().Get("callbackUrl"))
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}

	if result.ConfirmationSent {
		writeSuccess(w, "Confirmation email sent!")
		return
	}

	http.SetCookie(w, h.sessionService.Cookie(result.Session))
	writeJSON(w, http.StatusOK, map[string]string{
		"success":  "Logged in!",
		"redirect": result.Redirect,
	})
}

// Logout is idempotent: it clears the cookie whether or not a valid session
// was presented, and best-effort deletes the session row.
func (h *authHandler) Logout(w http.ResponseWriter, r *http.Request) {
	cookie, err := r.Cookie(h.sessionService.CookieName())
	if err == nil && cookie.Value != "" {
		err = h.sessionService.Delete(cookie.Value)
		if err != nil {
			slog.Warn("failed to delete session on logout", "error", err)
		}
	}

	http.SetCookie(w, h.sessionService.BlankCookie())
	writeSuccess(w, "Logged out")
}

func (h *authHandler) VerifyEmail(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Token string `json:"token"`
	}
	err := json.NewDecoder(r.Body).Decode(&req)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	err = h.authService.VerifyEmail(req.Token)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}

	writeSuccess(w, "Email verified!")
}

func (h *authHandler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
	}
	err := json.NewDecoder(r.Body).Decode(&req)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	err = h.authService.ForgotPassword(req.Email)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}

	writeSuccess(w, "Password reset email sent!")
}

func (h *authHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Password             string `json:"password"`
		PasswordConfirmation string `json:"passwordConfirmation"`
	}
	err := json.NewDecoder(r.Body).Decode(&req)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	err = h.authService.ResetPassword(req.Password, req.PasswordConfirmation, r.URL.Query().Get("token"))
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}

	writeSuccess(w, "Password updated!")
}

// GoogleAuth hands the client the provider consent URL. State and PKCE
// verifier go into short-lived browser cookies so the callback can check
// them; they belong to the browser, not to any app session.
func (h *authHandler) GoogleAuth(w http.ResponseWriter, r *http.Request) {
	url, state, verifier, err := h.oauthService.AuthorizationURL()
	if err != nil {
		slog.Error("failed to build authorization url", "error", err)
		writeError(w, http.StatusInternalServerError, genericErrorMessage)
		return
	}

	h.setOAuthCookie(w, oauthStateCookie, state)
	h.setOAuthCookie(w, oauthVerifierCookie, verifier)

	writeJSON(w, http.StatusOK, map[string]string{
		"success": "Successfully created Google OAuth URL",
		"url":     url,
	})
}

// GoogleCallback validates state before anything else touches the provider:
// on mismatch the token exchange is never attempted. The ephemeral cookies
// are cleared unconditionally once the check ran, pass or fail.
func (h *authHandler) GoogleCallback(w http.ResponseWriter, r *http.Request) {
	code := r.URL.Query().Get("code")
	state := r.URL.Query().Get("state")
	if code == "" || state == "" {
		slog.Warn("oauth callback missing code or state")
		http.Error(w, "Invalid Request", http.StatusBadRequest)
		return
	}

	savedState := cookieValue(r, oauthStateCookie)
	verifier := cookieValue(r, oauthVerifierCookie)
	if savedState == "" || verifier == "" {
		slog.Warn("oauth callback missing state or verifier cookie")
		http.Error(w, "Invalid Request", http.StatusBadRequest)
		return
	}

	stateMatches := state == savedState
	h.clearOAuthCookie(w, oauthStateCookie)
	h.clearOAuthCookie(w, oauthVerifierCookie)

	if !stateMatches {
		slog.Warn("oauth state mismatch")
		http.Error(w, "Invalid Request", http.StatusBadRequest)
		return
	}

	profile, err := h.oauthService.Exchange(r.Context(), code, verifier)
	if err != nil {
		slog.Error("oauth code exchange failed", "error", err)
		http.Error(w, genericErrorMessage, http.StatusInternalServerError)
		return
	}

	_, session, err := h.authService.LoginWithGoogle(profile)
	if err != nil {
		slog.Error("oauth login failed", "error", err, "email", profile.Email)
		http.Error(w, genericErrorMessage, http.StatusInternalServerError)
		return
	}

	http.SetCookie(w, h.sessionService.Cookie(session))
	http.Redirect(w, r, h.cfg.DefaultLoginRedirect, http.StatusSeeOther)
}

// VerifySession reports cookie validity; always 200 so the middleware
// consumer only branches on the body.
func (h *authHandler) VerifySession(w http.ResponseWriter, r *http.Request) {
	valid := false
	cookie, err := r.Cookie(h.sessionService.CookieName())
	if err == nil {
		session, _ := h.sessionService.Validate(cookie.Value)
		valid = session != nil
	}

	writeJSON(w, http.StatusOK, map[string]bool{"valid": valid})
}

// GetUser returns the authenticated user, reissuing the cookie when the
// session came back fresh and clearing it when the session is gone.
func (h *authHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	cookie, err := r.Cookie(h.sessionService.CookieName())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	session, user := h.sessionService.Validate(cookie.Value)
	if session == nil {
		http.SetCookie(w, h.sessionService.BlankCookie())
		writeError(w, http.StatusUnauthorized, "Authentication required")
		return
	}
	if session.Fresh {
		http.SetCookie(w, h.sessionService.Cookie(session))
	}

	writeJSON(w, http.StatusOK, map[string]any{"user": user})
}

func (h *authHandler) setOAuthCookie(w http.ResponseWriter, name, value string) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		HttpOnly: true,
		Secure:   h.cfg.IsProduction(),
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(oauthCookieTTL.Seconds()),
	})
}

func (h *authHandler) clearOAuthCookie(w http.ResponseWriter, name string) {
	http.SetCookie(w, &http.Cookie{
		Name:   name,
		Value:  "",
		Path:   "/",
		MaxAge: -1,
	})
}

func cookieValue(r *http.Request, name string) string {
	cookie, err := r.Cookie(name)
	if err != nil {
		return ""
	}
	return cookie.Value
}
