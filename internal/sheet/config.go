package sheet

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/dmitrymomot/folio/pkg/db"
	"github.com/dmitrymomot/folio/pkg/logger"
)

// Storage drivers accepted by Open.
const (
	DriverMemory   = "memory"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Config selects and configures the storage backend.
type Config struct {
	Driver     string `env:"STORE_DRIVER" envDefault:"sqlite"`
	SQLitePath string `env:"STORE_SQLITE_PATH" envDefault:"folio.db"`
	Database   db.Config
}

// Open builds the backend named by cfg.Driver.
func Open(ctx context.Context, cfg Config, log *slog.Logger) (Backend, error) {
	if log == nil {
		log = logger.NewNope()
	}
	switch strings.ToLower(cfg.Driver) {
	case DriverMemory:
		return NewMemory(), nil
	case DriverSQLite, "":
		return OpenSQLite(ctx, cfg.SQLitePath)
	case DriverPostgres:
		return OpenPostgres(ctx, cfg.Database, log)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, cfg.Driver)
	}
}
