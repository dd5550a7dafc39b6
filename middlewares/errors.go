package middlewares

import (
	"errors"
	"fmt"
)

// PanicError is a panic recovered while serving a request.
type PanicError struct {
	Value     any
	RequestID string
	Path      string
	Stack     []byte // nil when stack capture is disabled
}

func (e *PanicError) Error() string {
	if e.RequestID == "" {
		return fmt.Sprintf("panic serving %s: %v", e.Path, e.Value)
	}
	return fmt.Sprintf("panic serving %s (request %s): %v", e.Path, e.RequestID, e.Value)
}

// AsPanicError extracts the PanicError from err if present.
func AsPanicError(err error) (*PanicError, bool) {
	var pe *PanicError
	if errors.As(err, &pe) {
		return pe, true
	}
	return nil, false
}
