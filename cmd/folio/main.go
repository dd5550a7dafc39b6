// Command folio serves the portfolio admin API.
//
// Configuration comes from the environment; a .env file in the working
// directory is loaded first when present.
package main

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/getsentry/sentry-go"
	"github.com/joho/godotenv"

	"github.com/dmitrymomot/folio"
	"github.com/dmitrymomot/folio/middlewares"
	"github.com/dmitrymomot/folio/pkg/logger"
)

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		slog.Error("failed to load .env", slog.Any("error", err))
		os.Exit(1)
	}

	var cfg folio.Config
	if err := env.Parse(&cfg); err != nil {
		slog.Error("invalid configuration", slog.Any("error", err))
		os.Exit(1)
	}

	log := logger.New(cfg.Logger, middlewares.RequestIDExtractor()).With("app", "folio")
	defer sentry.Flush(2 * time.Second)

	app, err := folio.New(context.Background(), cfg, folio.WithLogger(log))
	if err != nil {
		log.Error("failed to start", slog.Any("error", err))
		os.Exit(1)
	}

	if err := app.Run(); err != nil {
		log.Error("server error", slog.Any("error", err))
		sentry.Flush(2 * time.Second)
		os.Exit(1)
	}
}
