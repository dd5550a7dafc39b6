package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"

	"github.com/dmitrymomot/folio/internal/auth"
	"github.com/dmitrymomot/folio/internal/blob"
	"github.com/dmitrymomot/folio/internal/gate"
	"github.com/dmitrymomot/folio/internal/record"
	"github.com/dmitrymomot/folio/internal/records"
	"github.com/dmitrymomot/folio/pkg/validator"
)

// Request is one call to the admin API.
type Request struct {
	Action string          `json:"action"`
	Auth   string          `json:"auth,omitempty"`
	ID     string          `json:"id,omitempty"`
	Data   json.RawMessage `json:"data,omitempty"`
}

// Response is the envelope every call answers with. Code is set only for
// authentication failures.
type Response struct {
	Data    any    `json:"data,omitempty"`
	Message string `json:"message,omitempty"`
	Code    int    `json:"code,omitempty"`
	Success bool   `json:"success"`
}

// ParseRequest decodes a JSON request body.
func ParseRequest(body []byte) (Request, error) {
	var req Request
	if len(bytes.TrimSpace(body)) == 0 {
		return req, ErrMalformedRequest
	}
	if err := json.Unmarshal(body, &req); err != nil {
		return req, errors.Join(ErrMalformedRequest, err)
	}
	req.Action = strings.TrimSpace(req.Action)
	if req.Action == "" {
		return req, ErrMalformedRequest
	}
	return req, nil
}

// payload returns req.Data as a record. The "auth" key is never stored.
func (r Request) payload() (*record.Record, error) {
	p, err := record.Parse(r.Data)
	if err != nil {
		return nil, errors.Join(ErrInvalidPayload, err)
	}
	p.Delete("auth")
	return p, nil
}

// decode unmarshals req.Data into v. Missing data leaves v untouched.
func (r Request) decode(v any) error {
	data := bytes.TrimSpace(r.Data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}
	if err := json.Unmarshal(data, v); err != nil {
		return errors.Join(ErrInvalidPayload, err)
	}
	return nil
}

// targetID finds the record id of an update or delete: the top-level id,
// then data.id, then data itself when it is a bare string.
func (r Request) targetID() string {
	if r.ID != "" {
		return r.ID
	}
	var s string
	if err := json.Unmarshal(r.Data, &s); err == nil {
		return s
	}
	var obj struct {
		ID any `json:"id"`
	}
	if err := json.Unmarshal(r.Data, &obj); err == nil && obj.ID != nil {
		return record.ValueOf(obj.ID).String()
	}
	return ""
}

// Success wraps data in a successful response.
func Success(data any) Response {
	return Response{Success: true, Data: data}
}

// Failure converts err into the response a caller sees.
func Failure(err error) Response {
	resp := Response{Message: Message(err)}
	if errors.Is(err, ErrUnauthorized) {
		resp.Code = 401
	}
	if ve := validator.ExtractValidationErrors(err); ve != nil {
		resp.Data = validationDetails{Errors: ve}
	}
	return resp
}

// validationDetails lists every failed field so clients can highlight inputs
// and localize messages by key.
type validationDetails struct {
	Errors validator.ValidationErrors `json:"errors"`
}

// Message returns the caller-facing text for err. Authentication failures
// are uniform; unexpected failures do not leak details.
func Message(err error) string {
	if ve := validator.ExtractValidationErrors(err); ve != nil {
		return "Validation failed: " + ve.Error()
	}
	switch {
	case errors.Is(err, ErrUnauthorized):
		return "Unauthorized"
	case errors.Is(err, gate.ErrBusy):
		return "Server busy, please retry"
	case errors.Is(err, records.ErrNotFound):
		return "Record not found"
	case errors.Is(err, records.ErrDuplicateID):
		return "A record with this id already exists"
	case errors.Is(err, ErrMissingID), errors.Is(err, records.ErrMissingID):
		return "Record id is required"
	case errors.Is(err, ErrUnknownAction):
		return "Unknown action"
	case errors.Is(err, ErrMalformedRequest):
		return "Malformed request"
	case errors.Is(err, ErrInvalidPayload):
		return "Invalid request data"
	case errors.Is(err, auth.ErrInvalidCredentials):
		return "Invalid password"
	case errors.Is(err, blob.ErrNotConfigured):
		return "File storage is not configured"
	case errors.Is(err, blob.ErrBadEncoding):
		return "File data is not valid base64"
	default:
		return "Internal error"
	}
}

// outcome is the metrics label for err.
func outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case validator.IsValidationError(err):
		return "validation"
	case errors.Is(err, ErrUnauthorized):
		return "unauthorized"
	case errors.Is(err, gate.ErrBusy):
		return "busy"
	case errors.Is(err, records.ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrUnknownAction):
		return "unknown_action"
	case errors.Is(err, ErrMalformedRequest), errors.Is(err, ErrInvalidPayload):
		return "malformed"
	case errors.Is(err, ErrInternal):
		return "panic"
	default:
		return "error"
	}
}
