// Package api dispatches admin API actions.
//
// Every call follows the same path: the action is looked up, protected
// actions check the session token, mutating actions run inside the mutation
// gate, and the result is wrapped in a Response. Handle always answers; a
// panic in an action becomes a generic failure.
package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dmitrymomot/folio/internal/auth"
	"github.com/dmitrymomot/folio/internal/blob"
	"github.com/dmitrymomot/folio/internal/gate"
	"github.com/dmitrymomot/folio/internal/notify"
	"github.com/dmitrymomot/folio/internal/records"
	"github.com/dmitrymomot/folio/internal/schema"
	"github.com/dmitrymomot/folio/pkg/logger"
)

type handlerFunc func(ctx context.Context, req Request) (any, error)

type action struct {
	run       handlerFunc
	protected bool
	mutates   bool
}

// Service routes requests to actions.
type Service struct {
	catalog    *schema.Catalog
	store      *records.Store
	singletons *records.Singleton
	auth       *auth.Authenticator
	gate       *gate.Gate
	blobs      blob.Store
	limits     blob.Limits
	notifier   notify.Notifier
	metrics    *Metrics
	log        *slog.Logger
	now        func() time.Time
	actions    map[string]action
}

// Option configures a Service.
type Option func(*Service)

// WithGate sets the mutation gate. Default: gate.New()
func WithGate(g *gate.Gate) Option {
	return func(s *Service) {
		if g != nil {
			s.gate = g
		}
	}
}

// WithBlobStore sets where uploads go. Default: uploads are rejected.
func WithBlobStore(b blob.Store, l blob.Limits) Option {
	return func(s *Service) {
		if b != nil {
			s.blobs = b
		}
		s.limits = l
	}
}

// WithNotifier is told about every submitted message.
func WithNotifier(n notify.Notifier) Option {
	return func(s *Service) {
		if n != nil {
			s.notifier = n
		}
	}
}

// WithMetrics records calls in m.
func WithMetrics(m *Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.log = l
		}
	}
}

// WithClock replaces time.Now for message dates.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// New builds the service and its action table from catalog.
func New(
	catalog *schema.Catalog,
	store *records.Store,
	singletons *records.Singleton,
	authn *auth.Authenticator,
	opts ...Option,
) *Service {
	s := &Service{
		catalog:    catalog,
		store:      store,
		singletons: singletons,
		auth:       authn,
		gate:       gate.New(),
		blobs:      blob.Disabled{},
		limits:     blob.DefaultLimits(),
		notifier:   notify.Nope{},
		log:        logger.NewNope(),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.actions = s.buildActions()
	return s
}

// Actions lists the names of every registered action.
func (s *Service) Actions() []string {
	names := make([]string, 0, len(s.actions))
	for name := range s.actions {
		names = append(names, name)
	}
	return names
}

// Handle runs one request.
func (s *Service) Handle(ctx context.Context, req Request) (resp Response) {
	start := time.Now()
	a, known := s.actions[req.Action]
	label := req.Action
	if !known {
		label = "unknown"
	}

	var err error
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: panic in %s: %v", ErrInternal, req.Action, r)
			resp = Failure(err)
		}
		if err != nil {
			s.logFailure(ctx, req.Action, err)
		}
		s.metrics.observe(label, outcome(err), time.Since(start))
	}()

	var data any
	data, err = s.dispatch(ctx, a, known, req)
	if err != nil {
		return Failure(err)
	}
	return Success(data)
}

func (s *Service) dispatch(ctx context.Context, a action, known bool, req Request) (any, error) {
	if !known {
		return nil, fmt.Errorf("%w: %q", ErrUnknownAction, req.Action)
	}
	if a.protected && !s.auth.IsAuthenticated(ctx, req.Auth) {
		return nil, ErrUnauthorized
	}
	if !a.mutates {
		return a.run(ctx, req)
	}
	return gate.Run(ctx, s.gate, func(ctx context.Context) (any, error) {
		return a.run(ctx, req)
	})
}

func (s *Service) logFailure(ctx context.Context, name string, err error) {
	attrs := []any{slog.String("action", name), slog.Any("error", err)}
	switch outcome(err) {
	case "error", "panic":
		s.log.ErrorContext(ctx, "action failed", attrs...)
	case "busy", "unauthorized":
		s.log.WarnContext(ctx, "action rejected", attrs...)
	default:
		s.log.DebugContext(ctx, "action rejected", attrs...)
	}
}

// Fail answers a request that could not be parsed.
func (s *Service) Fail(ctx context.Context, err error) Response {
	if !errors.Is(err, ErrMalformedRequest) {
		err = errors.Join(ErrMalformedRequest, err)
	}
	s.logFailure(ctx, "", err)
	s.metrics.observe("unknown", outcome(err), 0)
	return Failure(err)
}
