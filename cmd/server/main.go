package main

import (
	"log/slog"
	"net/http"

	"github.com/chatqpt/chatqpt/internal/app"
	"github.com/chatqpt/chatqpt/internal/config"
	"github.com/chatqpt/chatqpt/internal/logger"
	"github.com/chatqpt/chatqpt/internal/routes"
)

func main() {
	cfg := config.Load()

	logger.Init(cfg.IsDevelopment(), cfg.SentryDSN)

	app, err := app.New(cfg)
	if err != nil {
		slog.Error("failed to initialize app", "error", err)
		panic(err)
	}
	defer func() {
		closeErr := app.Close()
		if closeErr != nil {
			slog.Error("failed to close app", "error", closeErr)
		}
	}()

	handler, err := routes.SetupRoutes(app)
	if err != nil {
		slog.Error("failed to set up routes", "error", err)
		panic(err)
	}
	slog.Info("server starting", "port", cfg.Port, "env", cfg.AppEnv, "url", "http://localhost:"+cfg.Port)

	err = http.ListenAndServe(":"+cfg.Port, handler)
	if err != nil {
		slog.Error("server failed", "error", err)
		panic(err)
	}
}
