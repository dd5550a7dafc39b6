// Package sheet is the tabular storage port behind the record store.
//
// A backend holds named tables. Each table has an ordered header row of
// field names and an ordered list of data rows. Rows are addressed by their
// 0-based position in storage order, and a row may be shorter than the
// header when it predates later columns. Cells hold scalar values only;
// structured values are written as JSON text.
//
// Three backends are provided: Memory for tests, SQLite as the durable
// single-file default, and Postgres.
package sheet

import (
	"context"

	"github.com/dmitrymomot/folio/internal/record"
)

// Row is one data row. Position i holds the cell under header i.
type Row []record.Value

// Clone returns a copy of r.
func (r Row) Clone() Row {
	if r == nil {
		return nil
	}
	out := make(Row, len(r))
	copy(out, r)
	return out
}

// Backend stores tables of rows. Implementations must be safe for
// concurrent use; each method call is atomic on its own.
type Backend interface {
	// Tables lists table names in creation order.
	Tables(ctx context.Context) ([]string, error)
	// ReadHeaders returns the header row, empty for an unknown table.
	ReadHeaders(ctx context.Context, table string) ([]string, error)
	// AppendHeader adds a column name at the end of the header row,
	// creating the table if needed. An existing name is left in place.
	AppendHeader(ctx context.Context, table, name string) error
	// ListRows returns every data row in storage order.
	ListRows(ctx context.Context, table string) ([]Row, error)
	// AppendRow adds a row at the end, creating the table if needed.
	AppendRow(ctx context.Context, table string, row Row) error
	// WriteRow replaces the row at index.
	WriteRow(ctx context.Context, table string, index int, row Row) error
	// DeleteRow removes the row at index; later rows shift up.
	DeleteRow(ctx context.Context, table string, index int) error
	// Ping reports whether the backend is reachable.
	Ping(ctx context.Context) error
	Close() error
}

// Healthcheck adapts a backend to the readiness endpoint.
func Healthcheck(b Backend) func(context.Context) error {
	return b.Ping
}

func encodeRow(row Row) Row {
	out := make(Row, len(row))
	for i, v := range row {
		out[i] = record.EncodeCell(v)
	}
	return out
}
