package app

import (
	"fmt"

	"github.com/chatqpt/chatqpt/internal/config"
	"github.com/chatqpt/chatqpt/internal/db"
	"github.com/chatqpt/chatqpt/internal/repository"
	"github.com/chatqpt/chatqpt/internal/service"
	"github.com/jmoiron/sqlx"
)

type App struct {
	Cfg            *config.Config
	DB             *sqlx.DB
	AuthService    *service.AuthService
	SessionService *service.SessionService
	TokenService   *service.TokenService
	EmailService   *service.EmailService
	OAuthService   *service.GoogleOAuthService
}

func New(cfg *config.Config) (*App, error) {
	// Initialize database
	database, err := db.Init(cfg.DBDriver, cfg.DBConnection)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %v", err)
	}

	// Run database migrations
	err = db.RunMigrations(database.DB, cfg.DBDriver)
	if err != nil {
		return nil, fmt.Errorf("failed to run migrations: %v", err)
	}

	// Repositories
	userRepository := repository.NewUserRepository(database)
	sessionRepository := repository.NewSessionRepository(database)
	tokenRepository := repository.NewTokenRepository(database)

	// Services
	emailService := service.NewEmailService(
		cfg.ResendAPIKey,
		cfg.EmailFrom,
		cfg.BaseURL,
		cfg.AppName,
		cfg.IsDevelopment(),
	)
	tokenService := service.NewTokenService(
		tokenRepository,
		cfg.TokenEmailVerifyExpiry,
		cfg.TokenPasswordResetExpiry,
	)
	sessionService := service.NewSessionService(
		sessionRepository,
		userRepository,
		cfg.SessionCookieName,
		cfg.SessionTTL,
		cfg.IsProduction(),
	)
	oauthService := service.NewGoogleOAuthService(
		cfg.GoogleClientID,
		cfg.GoogleClientSecret,
		cfg.BaseURL,
	)
	authService := service.NewAuthService(
		userRepository,
		tokenService,
		sessionService,
		emailService,
		cfg.DefaultLoginRedirect,
	)

	return &App{
		Cfg:            cfg,
		DB:             database,
		AuthService:    authService,
		SessionService: sessionService,
		TokenService:   tokenService,
		EmailService:   emailService,
		OAuthService:   oauthService,
	}, nil
}

func (a *App) Close() error {
	if a.DB != nil {
		return a.DB.Close()
	}
	return nil
}
