package middlewares

import (
	"log/slog"
	"net/http"
	"runtime"
)

// DefaultStackSize is the default maximum stack trace size in bytes.
const DefaultStackSize = 4096

// PanicHandler writes the response for a recovered panic.
type PanicHandler func(w http.ResponseWriter, r *http.Request, pe *PanicError)

// RecoverConfig configures the recover middleware.
type RecoverConfig struct {
	OnPanic           PanicHandler
	StackSize         int  // Max stack trace size (default: 4096)
	DisablePrintStack bool // Disable stack trace in logs
}

// RecoverOption configures RecoverConfig.
type RecoverOption func(*RecoverConfig)

// WithRecoverStackSize sets the maximum stack trace size.
func WithRecoverStackSize(size int) RecoverOption {
	return func(cfg *RecoverConfig) {
		cfg.StackSize = size
	}
}

// WithRecoverDisablePrintStack disables including stack trace in logs.
func WithRecoverDisablePrintStack() RecoverOption {
	return func(cfg *RecoverConfig) {
		cfg.DisablePrintStack = true
	}
}

// WithPanicHandler sets the response written after a panic.
// Default: 500 Internal Server Error
func WithPanicHandler(h PanicHandler) RecoverOption {
	return func(cfg *RecoverConfig) {
		cfg.OnPanic = h
	}
}

// Recover returns middleware that recovers from panics, logs them with the
// request context and answers through the configured PanicHandler.
// http.ErrAbortHandler is re-raised so the server can drop the connection.
func Recover(log *slog.Logger, opts ...RecoverOption) func(http.Handler) http.Handler {
	cfg := &RecoverConfig{
		StackSize: DefaultStackSize,
		OnPanic: func(w http.ResponseWriter, _ *http.Request, _ *PanicError) {
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		},
	}

	for _, opt := range opts {
		opt(cfg)
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if rec == http.ErrAbortHandler {
					panic(rec)
				}

				pe := &PanicError{Value: rec, RequestID: GetRequestID(r.Context()), Path: r.URL.Path}
				// allocate only when stack traces are enabled
				if !cfg.DisablePrintStack {
					stack := make([]byte, cfg.StackSize)
					pe.Stack = stack[:runtime.Stack(stack, false)]
				}

				if log != nil {
					attrs := []any{slog.Any("panic", rec), slog.String("path", pe.Path)}
					if pe.Stack != nil {
						attrs = append(attrs, slog.String("stack", string(pe.Stack)))
					}
					log.ErrorContext(r.Context(), "panic recovered", attrs...)
				}
				cfg.OnPanic(w, r, pe)
			}()

			next.ServeHTTP(w, r)
		})
	}
}
