// Package db connects to PostgreSQL through pgxpool and applies goose
// migrations.
//
//	pool, err := db.Connect(ctx, cfg)
//	if err != nil {
//		return err
//	}
//	if err := db.Migrate(ctx, pool, migrations, cfg.MigrationsTable, log); err != nil {
//		return err
//	}
//
// WithTx runs a function inside a transaction and rolls back on error or
// panic. Errors are wrapped with errors.Join around the sentinels in
// errors.go, so callers match them with errors.Is.
package db
