package folio

import (
	"time"

	"github.com/dmitrymomot/folio/internal/auth"
	"github.com/dmitrymomot/folio/internal/blob"
	"github.com/dmitrymomot/folio/internal/notify"
	"github.com/dmitrymomot/folio/internal/session"
	"github.com/dmitrymomot/folio/internal/sheet"
	"github.com/dmitrymomot/folio/pkg/logger"
	redisx "github.com/dmitrymomot/folio/pkg/redis"
)

// Config is the full service configuration, parsed from the environment
// with caarlos0/env. Nested configs are read without a prefix.
type Config struct {
	Addr            string        `env:"ADDR" envDefault:":8080"`
	SchemaFile      string        `env:"SCHEMA_FILE"`
	AllowedOrigins  []string      `env:"CORS_ALLOWED_ORIGINS" envDefault:"*" envSeparator:","`
	UploadTypes     []string      `env:"UPLOAD_ALLOWED_TYPES" envDefault:"image/*,application/pdf" envSeparator:","`
	BodyLimit       int64         `env:"BODY_LIMIT" envDefault:"16777216"`
	GateWait        time.Duration `env:"GATE_MAX_WAIT" envDefault:"10s"`
	NotifyTimeout   time.Duration `env:"NOTIFY_TIMEOUT" envDefault:"10s"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"30s"`

	Logger  logger.Config
	Store   sheet.Config
	Session session.Config
	Auth    auth.Config
	Blob    blob.Config
	Notify  notify.Config
	Redis   redisx.Config
}

// needsRedis reports whether any component is configured to use Redis.
func (c Config) needsRedis() bool {
	return c.Session.Driver == "redis" || c.Auth.Driver == "redis" || c.Redis.URL != ""
}
