package records

import (
	"log/slog"

	"github.com/dmitrymomot/folio/internal/record"
	"github.com/dmitrymomot/folio/internal/schema"
	"github.com/dmitrymomot/folio/pkg/id"
	"github.com/dmitrymomot/folio/pkg/logger"
)

type options struct {
	schemas *schema.Registry
	newID   id.Generator
	log     *slog.Logger
}

// Option configures a Store or a Singleton.
type Option func(*options)

// WithSchemas validates payloads against r. Without it every payload is accepted.
func WithSchemas(r *schema.Registry) Option {
	return func(o *options) { o.schemas = r }
}

// WithIDGenerator replaces the ULID generator used for new records.
func WithIDGenerator(g id.Generator) Option {
	return func(o *options) {
		if g != nil {
			o.newID = g
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.log = l
		}
	}
}

func newOptions(opts []Option) options {
	o := options{newID: id.NewULID, log: logger.NewNope()}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

func (o options) validate(collection string, payload *record.Record, isUpdate bool) error {
	if o.schemas == nil {
		return nil
	}
	return o.schemas.Validate(collection, payload, isUpdate)
}
