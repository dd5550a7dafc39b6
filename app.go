package folio

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"slices"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/dmitrymomot/folio/internal/api"
	"github.com/dmitrymomot/folio/internal/auth"
	"github.com/dmitrymomot/folio/internal/blob"
	"github.com/dmitrymomot/folio/internal/gate"
	"github.com/dmitrymomot/folio/internal/httpapi"
	"github.com/dmitrymomot/folio/internal/notify"
	"github.com/dmitrymomot/folio/internal/records"
	"github.com/dmitrymomot/folio/internal/schema"
	"github.com/dmitrymomot/folio/internal/session"
	"github.com/dmitrymomot/folio/internal/sheet"
	"github.com/dmitrymomot/folio/pkg/health"
	"github.com/dmitrymomot/folio/pkg/logger"
	redisx "github.com/dmitrymomot/folio/pkg/redis"
)

// Default server timeouts (hardcoded, opinionated).
const (
	defaultReadTimeout       = 15 * time.Second
	defaultWriteTimeout      = 30 * time.Second
	defaultIdleTimeout       = 120 * time.Second
	defaultReadHeaderTimeout = 5 * time.Second
	defaultMaxHeaderBytes    = 1 << 20 // 1MB
	defaultShutdownTimeout   = 30 * time.Second
)

// ShutdownHook releases a resource during shutdown.
type ShutdownHook func(ctx context.Context) error

// App is the assembled service: storage, sessions, credentials, the mutation
// gate and the HTTP transport. Build it with New and start it with Run.
type App struct {
	baseCtx         context.Context
	logger          *slog.Logger
	backend         sheet.Backend
	notifier        notify.Notifier
	blobs           blob.Store
	registry        *prometheus.Registry
	service         *api.Service
	server          *http.Server
	done            chan struct{}
	addr            string
	shutdownHooks   []ShutdownHook
	checks          health.Checks
	shutdownTimeout time.Duration
	mu              sync.Mutex
	stopOnce        sync.Once
}

// New opens every configured collaborator and assembles the service.
// On failure, anything already opened is closed again.
func New(ctx context.Context, cfg Config, opts ...Option) (*App, error) {
	a := &App{
		baseCtx:         context.Background(),
		checks:          health.Checks{},
		done:            make(chan struct{}),
		shutdownTimeout: defaultShutdownTimeout,
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.logger == nil {
		a.logger = logger.NewNope()
	}
	if cfg.ShutdownTimeout > 0 {
		a.shutdownTimeout = cfg.ShutdownTimeout
	}

	if err := a.build(ctx, cfg); err != nil {
		closeCtx, cancel := context.WithTimeout(context.Background(), a.shutdownTimeout)
		defer cancel()
		return nil, errors.Join(err, a.runHooks(closeCtx))
	}
	return a, nil
}

func (a *App) build(ctx context.Context, cfg Config) error {
	catalog := schema.DefaultCatalog()
	if cfg.SchemaFile != "" {
		c, err := schema.LoadCatalog(cfg.SchemaFile)
		if err != nil {
			return errors.Join(ErrSchemaLoad, err)
		}
		catalog = c
	}

	var client redis.UniversalClient
	if cfg.needsRedis() {
		c, err := redisx.Open(ctx, cfg.Redis)
		if err != nil {
			return errors.Join(ErrRedisConnect, err)
		}
		client = c
		a.onShutdown(func(context.Context) error { return c.Close() })
		a.checks["redis"] = redisx.Healthcheck(c)
	}

	if a.backend == nil {
		b, err := sheet.Open(ctx, cfg.Store, a.logger)
		if err != nil {
			return errors.Join(ErrStoreOpen, err)
		}
		a.backend = b
	}
	a.onShutdown(func(context.Context) error { return a.backend.Close() })
	a.checks["store"] = sheet.Healthcheck(a.backend)

	sessions, err := session.Open(cfg.Session, client)
	if err != nil {
		return errors.Join(ErrSessionOpen, err)
	}
	a.onShutdown(func(context.Context) error { return sessions.Close() })

	creds, err := auth.OpenCredentials(ctx, cfg.Auth, client)
	if err != nil {
		return errors.Join(ErrCredentials, err)
	}
	authn := auth.New(creds, sessions, auth.WithTTL(cfg.Session.TTL), auth.WithLogger(a.logger))

	if a.registry == nil {
		a.registry = prometheus.NewRegistry()
		a.registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}
	metrics := api.NewMetrics(a.registry)
	g := gate.New(gate.WithMaxWait(cfg.GateWait), gate.WithObserver(metrics.GateObserver()))

	if a.blobs == nil {
		b, err := blob.Open(cfg.Blob)
		if err != nil {
			return errors.Join(ErrBlobOpen, err)
		}
		a.blobs = b
	}
	if cfg.Blob.Enabled() {
		a.checks["blob"] = a.blobs.Ping
	}
	limits := blob.Limits{MaxSize: cfg.Blob.MaxSize, AllowedTypes: cfg.UploadTypes}
	if len(limits.AllowedTypes) == 0 {
		limits.AllowedTypes = blob.DefaultAllowedTypes
	}

	if a.notifier == nil {
		n, err := notify.Open(cfg.Notify)
		if err != nil {
			return errors.Join(ErrNotifierOpen, err)
		}
		a.notifier = n
	}
	async := notify.NewAsync(a.notifier, a.logger, cfg.NotifyTimeout)
	a.onShutdown(func(ctx context.Context) error { return waitAsync(ctx, async) })

	recOpts := []records.Option{records.WithSchemas(catalog.Registry()), records.WithLogger(a.logger)}
	a.service = api.New(
		catalog,
		records.New(a.backend, recOpts...),
		records.NewSingleton(a.backend, recOpts...),
		authn,
		api.WithGate(g),
		api.WithBlobStore(a.blobs, limits),
		api.WithNotifier(async),
		api.WithMetrics(metrics),
		api.WithLogger(a.logger),
	)

	a.server = &http.Server{
		Addr: cfg.Addr,
		Handler: httpapi.NewRouter(a.service,
			httpapi.WithLogger(a.logger),
			httpapi.WithHealthChecks(a.checks),
			httpapi.WithMetrics(promhttp.HandlerFor(a.registry, promhttp.HandlerOpts{})),
			httpapi.WithAllowedOrigins(cfg.AllowedOrigins...),
			httpapi.WithBodyLimit(cfg.BodyLimit),
		),
		ReadTimeout:       defaultReadTimeout,
		WriteTimeout:      defaultWriteTimeout,
		IdleTimeout:       defaultIdleTimeout,
		ReadHeaderTimeout: defaultReadHeaderTimeout,
		MaxHeaderBytes:    defaultMaxHeaderBytes,
		BaseContext:       func(net.Listener) context.Context { return a.baseCtx },
	}
	return nil
}

// Handler returns the HTTP handler, for embedding or httptest.
func (a *App) Handler() http.Handler { return a.server.Handler }

// Service returns the request dispatcher.
func (a *App) Service() *api.Service { return a.service }

// Addr returns the address the server listens on, or "" before Run.
func (a *App) Addr() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.addr
}

// Close runs the shutdown hooks without starting the server.
// Use it when the App was built but Run was never called.
func (a *App) Close(ctx context.Context) error {
	return a.runHooks(ctx)
}

func (a *App) onShutdown(h ShutdownHook) {
	a.shutdownHooks = append(a.shutdownHooks, h)
}

// runHooks runs the shutdown hooks once, last registered first, so a
// resource closes before the ones it depends on.
func (a *App) runHooks(ctx context.Context) error {
	a.mu.Lock()
	hooks := a.shutdownHooks
	a.shutdownHooks = nil
	a.mu.Unlock()

	var errs []error
	for _, hook := range slices.Backward(hooks) {
		if err := hook(ctx); err != nil {
			errs = append(errs, err)
			a.logger.Error("shutdown hook failed", slog.Any("error", err))
		}
	}
	return errors.Join(errs...)
}

// waitAsync waits for pending notifications or until ctx is done.
func waitAsync(ctx context.Context, n *notify.Async) error {
	done := make(chan struct{})
	go func() {
		n.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return errors.Join(ErrNotificationsPending, ctx.Err())
	}
}
