package record

import "errors"

var (
	ErrInvalidValue  = errors.New("record: invalid value")
	ErrInvalidRecord = errors.New("record: payload must be a JSON object")
)
