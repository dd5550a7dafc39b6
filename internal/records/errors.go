package records

import "errors"

var (
	ErrNotFound       = errors.New("records: record not found")
	ErrDuplicateID    = errors.New("records: a record with this id already exists")
	ErrMissingID      = errors.New("records: id is required")
	ErrEmptyName      = errors.New("records: collection name is required")
	ErrBackendFailure = errors.New("records: storage backend failure")
)
