package folio

import (
	"context"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/dmitrymomot/folio/internal/blob"
	"github.com/dmitrymomot/folio/internal/notify"
	"github.com/dmitrymomot/folio/internal/sheet"
)

// Option configures the application.
type Option func(*App)

// WithContext sets a custom base context for signal handling.
// Useful for testing or when integrating with existing context hierarchies.
// Defaults to context.Background() if not set.
func WithContext(ctx context.Context) Option {
	return func(a *App) {
		if ctx != nil {
			a.baseCtx = ctx
		}
	}
}

// WithLogger sets the application logger.
// If nil, logging is disabled.
func WithLogger(l *slog.Logger) Option {
	return func(a *App) {
		if l != nil {
			a.logger = l
		}
	}
}

// WithBackend uses b instead of the backend named by the store config.
// The App takes ownership and closes it on shutdown.
func WithBackend(b sheet.Backend) Option {
	return func(a *App) { a.backend = b }
}

// WithBlobStore uses b for uploads instead of the configured S3 bucket.
func WithBlobStore(b blob.Store) Option {
	return func(a *App) { a.blobs = b }
}

// WithNotifier uses n for new-message notifications instead of Resend.
func WithNotifier(n notify.Notifier) Option {
	return func(a *App) { a.notifier = n }
}

// WithRegistry registers metrics with reg instead of a private registry
// carrying the Go and process collectors.
func WithRegistry(reg *prometheus.Registry) Option {
	return func(a *App) { a.registry = reg }
}
