package routes

import (
	"net/http"

	"github.com/chatqpt/chatqpt/internal/app"
	"github.com/chatqpt/chatqpt/internal/handler"
	"github.com/chatqpt/chatqpt/internal/middleware"
)

func SetupRoutes(a *app.App) (http.Handler, error) {
	auth := handler.NewAuthHandler(a.AuthService, a.SessionService, a.OAuthService, a.Cfg)
	pages := handler.NewPagesHandler(a.Cfg.AppName)

	mux := http.NewServeMux()

	// Auth API
	mux.HandleFunc("POST /api/auth/signup", auth.Signup)
	mux.HandleFunc("POST /api/auth/login", auth.Login)
	mux.HandleFunc("POST /api/auth/logout", auth.Logout)
	mux.HandleFunc("POST /api/auth/verify-email", auth.VerifyEmail)
	mux.HandleFunc("POST /api/auth/forgot-password", auth.ForgotPassword)
	mux.HandleFunc("POST /api/auth/reset-password", auth.ResetPassword)
	mux.HandleFunc("GET /api/auth/google", auth.GoogleAuth)
	mux.HandleFunc("GET /api/auth/google/callback", auth.GoogleCallback)
	mux.HandleFunc("GET /api/auth/verify-session", auth.VerifySession)
	mux.HandleFunc("GET /api/auth/get-user", auth.GetUser)

	// Pages
	mux.HandleFunc("GET /{$}", pages.Home)
	mux.HandleFunc("GET /chat", pages.Chat)
	mux.HandleFunc("GET /auth/login", pages.Login)
	mux.HandleFunc("GET /auth/forgot-password", pages.ForgotPassword)
	mux.HandleFunc("GET /auth/reset-password", pages.ResetPassword)
	mux.HandleFunc("GET /auth/verify-email", pages.VerifyEmail)
	mux.HandleFunc("GET /terms", pages.Terms)
	mux.HandleFunc("GET /privacy", pages.Privacy)

	classifier, err := middleware.NewRouteClassifier(a.Cfg.PublicRoutes, a.Cfg.AuthRoutes, a.Cfg.APIAuthPrefix)
	if err != nil {
		return nil, err
	}

	// Global middleware - executed in order (top to bottom)
	h := middleware.Chain(
		mux,
		middleware.Config(a.Cfg),
		middleware.RequestLogging,
		middleware.Gatekeeper(a.Cfg, classifier, a.SessionService),
		middleware.WithURLPath,
	)

	return h, nil
}
