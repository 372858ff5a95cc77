package config

import (
	"log/slog"
	"os"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	// Application
	AppName string
	AppEnv  string
	BaseURL string
	Port    string

	// Database (optional driver switch via ENV, default: sqlite)
	DBDriver     string
	DBConnection string

	// Sessions
	SessionCookieName string
	SessionTTL        time.Duration // 0 = non-expiring sessions

	// Tokens
	TokenEmailVerifyExpiry   time.Duration
	TokenPasswordResetExpiry time.Duration

	// OAuth
	GoogleClientID     string
	GoogleClientSecret string

	// Email
	EmailFrom    string
	ResendAPIKey string

	// Observability (optional)
	SentryDSN string

	// Routing
	DefaultLoginRedirect  string
	DefaultLogoutRedirect string
	PublicRoutes          []string
	AuthRoutes            []string
	APIAuthPrefix         []string
}

func Load() *Config {
	// Load .env file if it exists
	err := godotenv.Load()
	if err != nil {
		slog.Info("no .env file found, using environment variables")
	}

	appName := envString("APP_NAME", "chat-qpt")

	cfg := &Config{
		// Application
		AppName: appName,
		AppEnv:  envRequired("APP_ENV"), // Required: 'development' or 'production'
		BaseURL: envRequired("BASE_URL"), // Required: base URL for email links and OAuth redirects
		Port:    envString("PORT", "8090"),

		// Database
		DBDriver:     envString("DB_DRIVER", "sqlite"),
		DBConnection: envString("DB_CONNECTION", "./data/chatqpt.db?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)"),

		// Sessions
		SessionCookieName: appName + "-auth-cookie",
		SessionTTL:        envDuration("SESSION_TTL", 0), // ships non-expiring

		// Tokens
		TokenEmailVerifyExpiry:   envDuration("TOKEN_EMAIL_VERIFY_EXPIRY", 24*time.Hour),
		TokenPasswordResetExpiry: envDuration("TOKEN_PASSWORD_RESET_EXPIRY", 1*time.Hour),

		// OAuth
		GoogleClientID:     envRequired("GOOGLE_CLIENT_ID"),
		GoogleClientSecret: envRequired("GOOGLE_CLIENT_SECRET"),

		// Email (RESEND_API_KEY optional in development, required in production)
		EmailFrom:    envString("EMAIL_FROM", "noreply@example.com"),
		ResendAPIKey: envString("RESEND_API_KEY", ""),

		// Observability
		SentryDSN: envString("SENTRY_DSN", ""),

		// Routing
		DefaultLoginRedirect:  "/chat",
		DefaultLogoutRedirect: "/auth/login",
		PublicRoutes:          []string{"/$", "/auth/verify-email$", "/terms", "/privacy"},
		AuthRoutes:            []string{"/auth/login", "/auth/forgot-password", "/auth/reset-password"},
		APIAuthPrefix:         []string{"/api/auth(.*)"},
	}

	// Production: validate required services
	if cfg.IsProduction() {
		validateProduction(cfg)
	}

	return cfg
}

// validateProduction ensures all required services are configured for production
// deployments. Development allows email to fall back to log mode.
func validateProduction(cfg *Config) {
	if cfg.ResendAPIKey == "" {
		slog.Error("production deployment requires RESEND_API_KEY",
			"hint", "set APP_ENV=development for local testing with email log mode")
		os.Exit(1)
	}
}

func envString(key, def string) string {
	value := os.Getenv(key)
	if value == "" {
		value = def
	}
	return value
}

func envDuration(key string, def time.Duration) time.Duration {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		slog.Warn("config invalid duration, using default", "key", key, "value", v, "default", def)
		return def
	}
	return d
}

func envRequired(key string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	slog.Error("config required env var missing", "key", key)
	os.Exit(1)
	return ""
}

func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}

func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

// Sanitized returns a copy of the config with only public/safe fields.
// Secrets and credentials are excluded; safe to expose in request contexts.
func (c *Config) Sanitized() *Config {
	return &Config{
		AppName: c.AppName,
		AppEnv:  c.AppEnv,
		BaseURL: c.BaseURL,
		Port:    c.Port,

		SessionCookieName: c.SessionCookieName,

		EmailFrom: c.EmailFrom,

		GoogleClientID: c.GoogleClientID,

		DefaultLoginRedirect:  c.DefaultLoginRedirect,
		DefaultLogoutRedirect: c.DefaultLogoutRedirect,
	}
}
