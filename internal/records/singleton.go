package records

import (
	"context"
	"errors"
	"log/slog"

	"github.com/dmitrymomot/folio/internal/record"
	"github.com/dmitrymomot/folio/internal/sheet"
)

// Singleton keeps collections of at most one row and no identity, such as
// site settings.
type Singleton struct {
	backend sheet.Backend
	opts    options
}

// NewSingleton returns a singleton store over backend.
func NewSingleton(backend sheet.Backend, opts ...Option) *Singleton {
	return &Singleton{backend: backend, opts: newOptions(opts)}
}

// Write replaces the stored row of name with payload. The header row is
// created from the payload keys on first write and extended afterwards.
// Headers the payload does not carry are written empty.
func (s *Singleton) Write(ctx context.Context, name string, payload *record.Record) error {
	if name == "" {
		return ErrEmptyName
	}
	p := sanitize(payload)
	if err := s.opts.validate(name, p, true); err != nil {
		return err
	}

	headers, err := heal(ctx, s.backend, name, p, false)
	if err != nil {
		return err
	}
	rows, err := s.backend.ListRows(ctx, name)
	if err != nil {
		return errors.Join(ErrBackendFailure, err)
	}

	row := project(headers, p, nil)
	if len(rows) > 0 {
		err = s.backend.WriteRow(ctx, name, 0, row)
	} else {
		err = s.backend.AppendRow(ctx, name, row)
	}
	if err != nil {
		return errors.Join(ErrBackendFailure, err)
	}

	s.opts.log.DebugContext(ctx, "singleton written", slog.String("name", name))
	return nil
}

// Get returns the stored record of name, or an empty record when nothing
// was written yet.
func (s *Singleton) Get(ctx context.Context, name string) (*record.Record, error) {
	headers, rows, err := load(ctx, s.backend, name)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return record.New(0), nil
	}
	return toRecord(headers, rows[0]), nil
}
