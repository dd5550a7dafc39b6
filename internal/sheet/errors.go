package sheet

import "errors"

var (
	ErrRowOutOfRange   = errors.New("sheet: row index out of range")
	ErrEmptyTableName  = errors.New("sheet: empty table name")
	ErrEmptyHeaderName = errors.New("sheet: empty header name")
	ErrUnknownDriver   = errors.New("sheet: unknown storage driver")
	ErrClosed          = errors.New("sheet: backend is closed")
	ErrCorruptRow      = errors.New("sheet: stored row cannot be decoded")
	ErrOpenFailed      = errors.New("sheet: failed to open backend")
	ErrMigrationFailed = errors.New("sheet: failed to apply schema")
)
