package service

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log/slog"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

const googleUserInfoURL = "https://www.googleapis.com/oauth2/v1/userinfo"

// GoogleProfile is the normalized identity returned by the provider.
type GoogleProfile struct {
	ID      string `json:"id"`
	Email   string `json:"email"`
	Name    string `json:"name"`
	Picture string `json:"picture"`
}

// GoogleOAuthService drives the authorization-code + PKCE flow against Google.
// State and verifier live in short-lived browser cookies between the two legs
// of the flow; the handlers own that storage.
type GoogleOAuthService struct {
	config      *oauth2.Config
	userInfoURL string
}

func NewGoogleOAuthService(clientID, clientSecret, baseURL string) *GoogleOAuthService {
	return &GoogleOAuthService{
		config: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  baseURL + "/api/auth/google/callback",
			Scopes: []string{
				"https://www.googleapis.com/auth/userinfo.email",
				"https://www.googleapis.com/auth/userinfo.profile",
			},
			Endpoint: google.Endpoint,
		},
		userInfoURL: googleUserInfoURL,
	}
}

// AuthorizationURL builds the consent URL with a fresh CSRF state and PKCE
// verifier. The caller must persist both and present them at callback time.
func (s *GoogleOAuthService) AuthorizationURL() (url, state, verifier string, err error) {
	state, err = generateOAuthState()
	if err != nil {
		return "", "", "", err
	}
	verifier = oauth2.GenerateVerifier()

	url = s.config.AuthCodeURL(state, oauth2.S256ChallengeOption(verifier))
	return url, state, verifier, nil
}

// Exchange trades the authorization code for an access token, proving
// possession of the PKCE verifier, and fetches the user's profile.
func (s *GoogleOAuthService) Exchange(ctx context.Context, code, verifier string) (*GoogleProfile, error) {
	token, err := s.config.Exchange(ctx, code, oauth2.VerifierOption(verifier))
	if err != nil {
		return nil, fmt.Errorf("token exchange failed: %w", err)
	}

	client := s.config.Client(ctx, token)
	resp, err := client.Get(s.userInfoURL)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch user info: %w", err)
	}
	defer func() {
		closeErr := resp.Body.Close()
		if closeErr != nil {
			slog.Error("failed to close response body", "error", closeErr)
		}
	}()

	if resp.StatusCode != 200 {
		return nil, fmt.Errorf("user info request returned status %d", resp.StatusCode)
	}

	var profile GoogleProfile
	err = json.NewDecoder(resp.Body).Decode(&profile)
	if err != nil {
		return nil, fmt.Errorf("failed to decode user info: %w", err)
	}

	return &profile, nil
}

// generateOAuthState creates a cryptographically secure random state token
// for OAuth CSRF protection.
func generateOAuthState() (string, error) {
	bytes := make([]byte, 32)
	_, err := rand.Read(bytes)
	if err != nil {
		return "", fmt.Errorf("failed to generate oauth state: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(bytes), nil
}
