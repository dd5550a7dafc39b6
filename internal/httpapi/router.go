// Package httpapi exposes the admin API over HTTP.
//
// Both GET and POST on "/" (and "/api") carry one API request. POST takes the
// JSON envelope as its body; GET takes action, auth, id and data (JSON text)
// as query parameters. Every API answer is HTTP 200 with the result in the
// JSON envelope, including failures.
package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/dmitrymomot/folio/internal/api"
	"github.com/dmitrymomot/folio/middlewares"
	"github.com/dmitrymomot/folio/pkg/health"
	"github.com/dmitrymomot/folio/pkg/logger"
)

type config struct {
	log       *slog.Logger
	checks    health.Checks
	metrics   http.Handler
	origins   []string
	bodyLimit int64
}

// Option configures the router.
type Option func(*config)

// WithLogger sets the logger used for panics and failed writes.
func WithLogger(l *slog.Logger) Option {
	return func(c *config) {
		if l != nil {
			c.log = l
		}
	}
}

// WithHealthChecks sets the checks behind /health/ready.
func WithHealthChecks(checks health.Checks) Option {
	return func(c *config) { c.checks = checks }
}

// WithMetrics mounts h at /metrics.
func WithMetrics(h http.Handler) Option {
	return func(c *config) { c.metrics = h }
}

// WithAllowedOrigins restricts CORS to origins. Default: any origin.
func WithAllowedOrigins(origins ...string) Option {
	return func(c *config) {
		if len(origins) > 0 {
			c.origins = origins
		}
	}
}

// WithBodyLimit caps request bodies. Default: middlewares.DefaultBodyLimit
func WithBodyLimit(n int64) Option {
	return func(c *config) { c.bodyLimit = n }
}

// NewRouter returns the HTTP handler serving svc.
func NewRouter(svc *api.Service, opts ...Option) http.Handler {
	cfg := &config{log: logger.NewNope(), origins: []string{"*"}}
	for _, opt := range opts {
		opt(cfg)
	}

	h := &handler{svc: svc, log: cfg.log}

	r := chi.NewRouter()
	r.Use(
		middlewares.CORS(middlewares.WithAllowOrigins(cfg.origins...)),
		middlewares.RequestID(),
		middlewares.Recover(cfg.log, middlewares.WithPanicHandler(h.panicked)),
		middlewares.BodyLimit(cfg.bodyLimit),
	)

	for _, path := range []string{"/", "/api"} {
		r.Get(path, h.query)
		r.Post(path, h.body)
	}

	r.Get("/health/live", health.LivenessHandler())
	r.Get("/health/ready", health.ReadinessHandler(cfg.checks, health.WithLogger(cfg.log)))
	if cfg.metrics != nil {
		r.Handle("/metrics", cfg.metrics)
	}
	return r
}

type handler struct {
	svc *api.Service
	log *slog.Logger
}

// body serves POST requests. The envelope is read regardless of the declared
// content type; browser clients often send text/plain to skip preflight.
func (h *handler) body(w http.ResponseWriter, r *http.Request) {
	data, err := io.ReadAll(r.Body)
	if err != nil {
		h.write(w, r, h.svc.Fail(r.Context(), err))
		return
	}
	req, err := api.ParseRequest(data)
	if err != nil {
		h.write(w, r, h.svc.Fail(r.Context(), err))
		return
	}
	h.write(w, r, h.svc.Handle(r.Context(), req))
}

// query serves GET requests.
func (h *handler) query(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	req := api.Request{
		Action: strings.TrimSpace(q.Get("action")),
		Auth:   q.Get("auth"),
		ID:     q.Get("id"),
	}
	if req.Action == "" {
		h.write(w, r, h.svc.Fail(r.Context(), api.ErrMalformedRequest))
		return
	}
	if data := q.Get("data"); data != "" {
		if !json.Valid([]byte(data)) {
			h.write(w, r, h.svc.Fail(r.Context(), errors.New("data is not valid JSON")))
			return
		}
		req.Data = json.RawMessage(data)
	}
	h.write(w, r, h.svc.Handle(r.Context(), req))
}

func (h *handler) panicked(w http.ResponseWriter, r *http.Request, _ *middlewares.PanicError) {
	h.write(w, r, api.Failure(api.ErrInternal))
}

func (h *handler) write(w http.ResponseWriter, r *http.Request, resp api.Response) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		h.log.ErrorContext(r.Context(), "failed to write response", slog.Any("error", err))
	}
}
