package sheet

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

//go:embed schema.sql
var sqliteSchema string

// SQLite stores tables in a single SQLite file. Header cells live one per
// row in sheet_headers; data rows are JSON arrays in sheet_rows, ordered by
// their autoincrement id.
type SQLite struct {
	db *sql.DB
}

// OpenSQLite creates or opens the database at path and applies the schema.
// Use ":memory:" for a private in-memory database.
func OpenSQLite(ctx context.Context, path string) (*SQLite, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, errors.Join(ErrOpenFailed, err)
	}

	// One connection: SQLite allows a single writer, and ":memory:" databases
	// exist per connection.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, errors.Join(ErrOpenFailed, err)
	}

	for _, pragma := range []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
	} {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			_ = db.Close()
			return nil, errors.Join(ErrOpenFailed, fmt.Errorf("%s: %w", pragma, err))
		}
	}

	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		_ = db.Close()
		return nil, errors.Join(ErrMigrationFailed, err)
	}

	return &SQLite{db: db}, nil
}

func (s *SQLite) Tables(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT name FROM sheets ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list tables: %w", err)
	}
	defer rows.Close()

	names := []string{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan table: %w", err)
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

func (s *SQLite) ReadHeaders(ctx context.Context, table string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT name FROM sheet_headers WHERE sheet = ? ORDER BY position`, table)
	if err != nil {
		return nil, fmt.Errorf("read headers %s: %w", table, err)
	}
	defer rows.Close()

	headers := []string{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan header: %w", err)
		}
		headers = append(headers, name)
	}
	return headers, rows.Err()
}

func (s *SQLite) AppendHeader(ctx context.Context, table, name string) error {
	if table == "" {
		return ErrEmptyTableName
	}
	if name == "" {
		return ErrEmptyHeaderName
	}
	return s.withTx(ctx, func(tx *sql.Tx) error {
		if err := ensureSQLiteTable(ctx, tx, table); err != nil {
			return err
		}
		// UNIQUE (sheet, name) turns a repeated name into a no-op.
		_, err := tx.ExecContext(ctx, `
			INSERT OR IGNORE INTO sheet_headers (sheet, position, name)
			SELECT ?, COALESCE(MAX(position) + 1, 0), ? FROM sheet_headers WHERE sheet = ?`,
			table, name, table)
		if err != nil {
			return fmt.Errorf("append header %s.%s: %w", table, name, err)
		}
		return nil
	})
}

func (s *SQLite) ListRows(ctx context.Context, table string) ([]Row, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT cells FROM sheet_rows WHERE sheet = ? ORDER BY id`, table)
	if err != nil {
		return nil, fmt.Errorf("list rows %s: %w", table, err)
	}
	defer rows.Close()

	out := []Row{}
	for rows.Next() {
		var cells string
		if err := rows.Scan(&cells); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		row, err := unmarshalRow(cells)
		if err != nil {
			return nil, fmt.Errorf("table %s: %w", table, err)
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

func (s *SQLite) AppendRow(ctx context.Context, table string, row Row) error {
	if table == "" {
		return ErrEmptyTableName
	}
	cells, err := marshalRow(row)
	if err != nil {
		return fmt.Errorf("encode row: %w", err)
	}
	return s.withTx(ctx, func(tx *sql.Tx) error {
		if err := ensureSQLiteTable(ctx, tx, table); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO sheet_rows (sheet, cells) VALUES (?, ?)`, table, cells); err != nil {
			return fmt.Errorf("append row %s: %w", table, err)
		}
		return nil
	})
}

func (s *SQLite) WriteRow(ctx context.Context, table string, index int, row Row) error {
	if index < 0 {
		return ErrRowOutOfRange
	}
	cells, err := marshalRow(row)
	if err != nil {
		return fmt.Errorf("encode row: %w", err)
	}
	res, err := s.db.ExecContext(ctx, `
		UPDATE sheet_rows SET cells = ?
		WHERE id = (SELECT id FROM sheet_rows WHERE sheet = ? ORDER BY id LIMIT 1 OFFSET ?)`,
		cells, table, index)
	if err != nil {
		return fmt.Errorf("write row %s[%d]: %w", table, index, err)
	}
	return expectOneRow(res)
}

func (s *SQLite) DeleteRow(ctx context.Context, table string, index int) error {
	if index < 0 {
		return ErrRowOutOfRange
	}
	res, err := s.db.ExecContext(ctx, `
		DELETE FROM sheet_rows
		WHERE id = (SELECT id FROM sheet_rows WHERE sheet = ? ORDER BY id LIMIT 1 OFFSET ?)`,
		table, index)
	if err != nil {
		return fmt.Errorf("delete row %s[%d]: %w", table, index, err)
	}
	return expectOneRow(res)
}

func (s *SQLite) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *SQLite) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *SQLite) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

func ensureSQLiteTable(ctx context.Context, tx *sql.Tx, table string) error {
	if _, err := tx.ExecContext(ctx, `INSERT OR IGNORE INTO sheets (name) VALUES (?)`, table); err != nil {
		return fmt.Errorf("create table %s: %w", table, err)
	}
	return nil
}

func expectOneRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrRowOutOfRange
	}
	return nil
}
