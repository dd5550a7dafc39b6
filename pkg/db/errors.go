package db

import "errors"

var (
	ErrNoDSN       = errors.New("db: DATABASE_URL is not set")
	ErrInvalidDSN  = errors.New("db: invalid connection string")
	ErrUnreachable = errors.New("db: database unreachable")
	ErrPingFailed  = errors.New("db: ping failed")
	ErrMigrate     = errors.New("db: migration failed")
)
