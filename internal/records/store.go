// Package records maps ordered key/value records onto the tabular storage
// port. A collection is one table whose first header is "id"; its header
// row only ever grows, extended by whatever new field names writes carry.
//
// Store and Singleton do not serialize their own multi-step writes. Callers
// run every mutation inside the mutation gate.
package records

import (
	"context"
	"errors"
	"log/slog"
	"slices"

	"github.com/dmitrymomot/folio/internal/record"
	"github.com/dmitrymomot/folio/internal/sheet"
	"github.com/dmitrymomot/folio/pkg/sanitizer"
)

// IDField is the identity column of every collection.
const IDField = "id"

// Store keeps identity-bearing collections.
type Store struct {
	backend sheet.Backend
	opts    options
}

// New returns a store over backend.
func New(backend sheet.Backend, opts ...Option) *Store {
	return &Store{backend: backend, opts: newOptions(opts)}
}

// Create validates, sanitizes and appends payload to collection and returns
// the id of the new record. A non-empty payload id is kept; otherwise a new
// one is generated.
func (s *Store) Create(ctx context.Context, collection string, payload *record.Record) (string, error) {
	if collection == "" {
		return "", ErrEmptyName
	}
	p := sanitize(payload)
	p.Delete(IDField)
	if err := s.opts.validate(collection, p, false); err != nil {
		return "", err
	}

	newID := payload.Value(IDField).String()
	supplied := newID != ""
	if !supplied {
		newID = s.opts.newID()
	}
	p.Set(IDField, record.String(newID))

	headers, err := heal(ctx, s.backend, collection, p, true)
	if err != nil {
		return "", err
	}

	if supplied {
		rows, err := s.backend.ListRows(ctx, collection)
		if err != nil {
			return "", errors.Join(ErrBackendFailure, err)
		}
		if findRow(headers, rows, newID) >= 0 {
			return "", ErrDuplicateID
		}
	}

	if err := s.backend.AppendRow(ctx, collection, project(headers, p, nil)); err != nil {
		return "", errors.Join(ErrBackendFailure, err)
	}

	s.opts.log.DebugContext(ctx, "record created",
		slog.String("collection", collection),
		slog.String("id", newID))
	return newID, nil
}

// Update replaces the supplied fields of the record with id. Fields absent
// from payload keep their stored values; a payload id is ignored.
// It returns ErrNotFound when no record has that id.
func (s *Store) Update(ctx context.Context, collection, id string, payload *record.Record) error {
	if collection == "" {
		return ErrEmptyName
	}
	if id == "" {
		return ErrMissingID
	}
	p := sanitize(payload)
	p.Delete(IDField)
	if err := s.opts.validate(collection, p, true); err != nil {
		return err
	}

	headers, err := heal(ctx, s.backend, collection, p, true)
	if err != nil {
		return err
	}

	rows, err := s.backend.ListRows(ctx, collection)
	if err != nil {
		return errors.Join(ErrBackendFailure, err)
	}
	idx := findRow(headers, rows, id)
	if idx < 0 {
		return ErrNotFound
	}

	if err := s.backend.WriteRow(ctx, collection, idx, project(headers, p, rows[idx])); err != nil {
		if errors.Is(err, sheet.ErrRowOutOfRange) {
			return ErrNotFound
		}
		return errors.Join(ErrBackendFailure, err)
	}

	s.opts.log.DebugContext(ctx, "record updated",
		slog.String("collection", collection),
		slog.String("id", id),
		slog.Any("fields", p.Keys()))
	return nil
}

// Delete removes the record with id. Headers are left untouched.
// It returns ErrNotFound when no record has that id.
func (s *Store) Delete(ctx context.Context, collection, id string) error {
	if collection == "" {
		return ErrEmptyName
	}
	if id == "" {
		return ErrMissingID
	}

	headers, err := s.backend.ReadHeaders(ctx, collection)
	if err != nil {
		return errors.Join(ErrBackendFailure, err)
	}
	rows, err := s.backend.ListRows(ctx, collection)
	if err != nil {
		return errors.Join(ErrBackendFailure, err)
	}
	idx := findRow(headers, rows, id)
	if idx < 0 {
		return ErrNotFound
	}

	if err := s.backend.DeleteRow(ctx, collection, idx); err != nil {
		if errors.Is(err, sheet.ErrRowOutOfRange) {
			return ErrNotFound
		}
		return errors.Join(ErrBackendFailure, err)
	}

	s.opts.log.DebugContext(ctx, "record deleted",
		slog.String("collection", collection),
		slog.String("id", id))
	return nil
}

// List returns every record of collection in storage order. Each record
// carries every header; cells a row predates read as empty. The result is
// never nil.
func (s *Store) List(ctx context.Context, collection string) ([]*record.Record, error) {
	headers, rows, err := load(ctx, s.backend, collection)
	if err != nil {
		return nil, err
	}
	out := make([]*record.Record, 0, len(rows))
	for _, row := range rows {
		out = append(out, toRecord(headers, row))
	}
	return out, nil
}

// Get returns the first record with id.
func (s *Store) Get(ctx context.Context, collection, id string) (*record.Record, error) {
	if id == "" {
		return nil, ErrMissingID
	}
	headers, rows, err := load(ctx, s.backend, collection)
	if err != nil {
		return nil, err
	}
	idx := findRow(headers, rows, id)
	if idx < 0 {
		return nil, ErrNotFound
	}
	return toRecord(headers, rows[idx]), nil
}

// Collections lists the names of every stored table in creation order.
func (s *Store) Collections(ctx context.Context) ([]string, error) {
	names, err := s.backend.Tables(ctx)
	if err != nil {
		return nil, errors.Join(ErrBackendFailure, err)
	}
	return names, nil
}

func load(ctx context.Context, b sheet.Backend, collection string) ([]string, []sheet.Row, error) {
	if collection == "" {
		return nil, nil, ErrEmptyName
	}
	headers, err := b.ReadHeaders(ctx, collection)
	if err != nil {
		return nil, nil, errors.Join(ErrBackendFailure, err)
	}
	rows, err := b.ListRows(ctx, collection)
	if err != nil {
		return nil, nil, errors.Join(ErrBackendFailure, err)
	}
	return headers, rows, nil
}

// sanitize returns a copy of payload with markup stripped from every string
// value. Keys with an empty name are dropped.
func sanitize(payload *record.Record) *record.Record {
	out := record.New(payload.Len())
	for _, k := range payload.Keys() {
		if k == "" {
			continue
		}
		v := payload.Value(k)
		if s, ok := v.Text(); ok {
			v = record.String(sanitizer.StripHTML(s))
		}
		out.Set(k, v)
	}
	return out
}

// heal appends the payload field names missing from the header row of
// collection and returns the resulting headers. With withID, a fresh header
// row starts with IDField.
func heal(ctx context.Context, b sheet.Backend, collection string, p *record.Record, withID bool) ([]string, error) {
	headers, err := b.ReadHeaders(ctx, collection)
	if err != nil {
		return nil, errors.Join(ErrBackendFailure, err)
	}

	var missing []string
	if withID && len(headers) == 0 {
		missing = append(missing, IDField)
	}
	for _, k := range p.Keys() {
		if !slices.Contains(headers, k) && !slices.Contains(missing, k) {
			missing = append(missing, k)
		}
	}
	if withID && !slices.Contains(headers, IDField) && !slices.Contains(missing, IDField) {
		missing = append(missing, IDField)
	}

	for _, name := range missing {
		if err := b.AppendHeader(ctx, collection, name); err != nil {
			return nil, errors.Join(ErrBackendFailure, err)
		}
		headers = append(headers, name)
	}
	return headers, nil
}

// project lays p out along headers. Fields p does not carry take the value
// of prev at the same position, or Empty.
func project(headers []string, p *record.Record, prev sheet.Row) sheet.Row {
	row := make(sheet.Row, len(headers))
	for i, h := range headers {
		if v, ok := p.Get(h); ok {
			row[i] = v
			continue
		}
		if i < len(prev) {
			row[i] = prev[i]
		}
	}
	return row
}

// findRow returns the index of the first row whose id cell equals id, or -1.
func findRow(headers []string, rows []sheet.Row, id string) int {
	col := slices.Index(headers, IDField)
	if col < 0 {
		return -1
	}
	for i, row := range rows {
		if col < len(row) && row[col].String() == id {
			return i
		}
	}
	return -1
}

func toRecord(headers []string, row sheet.Row) *record.Record {
	r := record.New(len(headers))
	for i, h := range headers {
		var v record.Value
		if i < len(row) {
			v = record.DecodeCell(row[i])
		}
		r.Set(h, v)
	}
	return r
}
