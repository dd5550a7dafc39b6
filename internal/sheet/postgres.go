package sheet

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dmitrymomot/folio/pkg/db"
)

//go:embed migrations/*.sql
var postgresMigrations embed.FS

// Migrations returns the goose migrations of the Postgres backend.
func Migrations() fs.FS {
	sub, err := fs.Sub(postgresMigrations, "migrations")
	if err != nil {
		panic(err)
	}
	return sub
}

// Postgres stores tables in PostgreSQL with one JSONB array per data row.
type Postgres struct {
	pool  *pgxpool.Pool
	owned bool
}

// NewPostgres wraps an existing pool. The pool is not closed by Close.
func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool}
}

// OpenPostgres connects with cfg and applies the migrations.
func OpenPostgres(ctx context.Context, cfg db.Config, log *slog.Logger) (*Postgres, error) {
	pool, err := db.Connect(ctx, cfg)
	if err != nil {
		return nil, errors.Join(ErrOpenFailed, err)
	}
	if err := db.Migrate(ctx, pool, Migrations(), cfg.MigrationsTable, log); err != nil {
		pool.Close()
		return nil, errors.Join(ErrMigrationFailed, err)
	}
	return &Postgres{pool: pool, owned: true}, nil
}

func (p *Postgres) Tables(ctx context.Context) ([]string, error) {
	return p.strings(ctx, `SELECT name FROM sheets ORDER BY id`)
}

func (p *Postgres) ReadHeaders(ctx context.Context, table string) ([]string, error) {
	return p.strings(ctx, `SELECT name FROM sheet_headers WHERE sheet = $1 ORDER BY position`, table)
}

func (p *Postgres) AppendHeader(ctx context.Context, table, name string) error {
	if table == "" {
		return ErrEmptyTableName
	}
	if name == "" {
		return ErrEmptyHeaderName
	}
	return db.WithTx(ctx, p.pool, func(tx pgx.Tx) error {
		if err := ensurePostgresTable(ctx, tx, table); err != nil {
			return err
		}
		_, err := tx.Exec(ctx, `
			INSERT INTO sheet_headers (sheet, position, name)
			SELECT $1::text, COALESCE(MAX(position) + 1, 0), $2::text FROM sheet_headers WHERE sheet = $1::text
			ON CONFLICT DO NOTHING`, table, name)
		if err != nil {
			return fmt.Errorf("append header %s.%s: %w", table, name, err)
		}
		return nil
	})
}

func (p *Postgres) ListRows(ctx context.Context, table string) ([]Row, error) {
	rows, err := p.pool.Query(ctx, `SELECT cells::text FROM sheet_rows WHERE sheet = $1 ORDER BY id`, table)
	if err != nil {
		return nil, fmt.Errorf("list rows %s: %w", table, err)
	}
	cells, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("list rows %s: %w", table, err)
	}

	out := make([]Row, 0, len(cells))
	for _, c := range cells {
		row, err := unmarshalRow(c)
		if err != nil {
			return nil, fmt.Errorf("table %s: %w", table, err)
		}
		out = append(out, row)
	}
	return out, nil
}

func (p *Postgres) AppendRow(ctx context.Context, table string, row Row) error {
	if table == "" {
		return ErrEmptyTableName
	}
	cells, err := marshalRow(row)
	if err != nil {
		return fmt.Errorf("encode row: %w", err)
	}
	return db.WithTx(ctx, p.pool, func(tx pgx.Tx) error {
		if err := ensurePostgresTable(ctx, tx, table); err != nil {
			return err
		}
		if _, err := tx.Exec(ctx,
			`INSERT INTO sheet_rows (sheet, cells) VALUES ($1, $2::jsonb)`, table, cells); err != nil {
			return fmt.Errorf("append row %s: %w", table, err)
		}
		return nil
	})
}

func (p *Postgres) WriteRow(ctx context.Context, table string, index int, row Row) error {
	if index < 0 {
		return ErrRowOutOfRange
	}
	cells, err := marshalRow(row)
	if err != nil {
		return fmt.Errorf("encode row: %w", err)
	}
	tag, err := p.pool.Exec(ctx, `
		UPDATE sheet_rows SET cells = $1::jsonb
		WHERE id = (SELECT id FROM sheet_rows WHERE sheet = $2 ORDER BY id LIMIT 1 OFFSET $3)`,
		cells, table, index)
	if err != nil {
		return fmt.Errorf("write row %s[%d]: %w", table, index, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrRowOutOfRange
	}
	return nil
}

func (p *Postgres) DeleteRow(ctx context.Context, table string, index int) error {
	if index < 0 {
		return ErrRowOutOfRange
	}
	tag, err := p.pool.Exec(ctx, `
		DELETE FROM sheet_rows
		WHERE id = (SELECT id FROM sheet_rows WHERE sheet = $1 ORDER BY id LIMIT 1 OFFSET $2)`,
		table, index)
	if err != nil {
		return fmt.Errorf("delete row %s[%d]: %w", table, index, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrRowOutOfRange
	}
	return nil
}

func (p *Postgres) Ping(ctx context.Context) error {
	return db.Healthcheck(p.pool)(ctx)
}

func (p *Postgres) Close() error {
	if p.owned {
		p.pool.Close()
	}
	return nil
}

func (p *Postgres) strings(ctx context.Context, query string, args ...any) ([]string, error) {
	rows, err := p.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	out, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("collect: %w", err)
	}
	if out == nil {
		out = []string{}
	}
	return out, nil
}

func ensurePostgresTable(ctx context.Context, tx pgx.Tx, table string) error {
	if _, err := tx.Exec(ctx, `INSERT INTO sheets (name) VALUES ($1) ON CONFLICT (name) DO NOTHING`, table); err != nil {
		return fmt.Errorf("create table %s: %w", table, err)
	}
	return nil
}
