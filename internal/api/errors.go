package api

import "errors"

var (
	ErrUnauthorized     = errors.New("api: unauthorized")
	ErrUnknownAction    = errors.New("api: unknown action")
	ErrMalformedRequest = errors.New("api: malformed request")
	ErrInvalidPayload   = errors.New("api: data must be a JSON object")
	ErrMissingID        = errors.New("api: id is required")
	ErrInternal         = errors.New("api: internal error")
)
