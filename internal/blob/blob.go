// Package blob stores uploaded files and returns the URL they are served from.
//
// Uploads arrive base64 encoded, optionally as a data URL. Decode turns them
// into an Upload, Validate applies the size and type limits, and a Store
// persists the bytes. S3 is the production store; Memory serves tests and
// local runs without a bucket.
package blob

import (
	"context"
	"encoding/base64"
	"net/http"
	"strings"

	"github.com/dmitrymomot/folio/pkg/validator"
)

// Defaults for upload limits.
const (
	DefaultMaxSize = 10 << 20
	octetStream    = "application/octet-stream"
)

// DefaultAllowedTypes are the accepted content types. A trailing "/*" matches
// any subtype except the scriptable ones in explicitOnly.
var DefaultAllowedTypes = []string{"image/*", "application/pdf"}

// explicitOnly types can carry script and would run from the public bucket
// URL, so a wildcard never admits them; they must be listed by full name.
var explicitOnly = map[string]bool{
	"image/svg+xml": true,
}

// Upload is a decoded file ready to be stored.
type Upload struct {
	Name        string
	ContentType string
	Data        []byte
}

// Object describes a stored file.
type Object struct {
	Key         string `json:"key"`
	URL         string `json:"url"`
	ContentType string `json:"contentType"`
	Size        int64  `json:"size"`
}

// Store persists uploads.
type Store interface {
	Put(ctx context.Context, u Upload) (Object, error)
	Ping(ctx context.Context) error
}

// Limits bound what Validate accepts.
type Limits struct {
	AllowedTypes []string
	MaxSize      int64
}

// DefaultLimits returns the 10 MiB image and PDF limits.
func DefaultLimits() Limits {
	return Limits{MaxSize: DefaultMaxSize, AllowedTypes: DefaultAllowedTypes}
}

// Decode builds an Upload from base64 text. A data URL prefix such as
// "data:image/png;base64," is stripped and its type is used when contentType
// is empty. When no type is known it is sniffed from the bytes.
func Decode(name, contentType, encoded string) (Upload, error) {
	encoded = strings.TrimSpace(encoded)
	if rest, ok := strings.CutPrefix(encoded, "data:"); ok {
		meta, payload, found := strings.Cut(rest, ",")
		if !found {
			return Upload{}, ErrBadEncoding
		}
		if contentType == "" {
			contentType, _, _ = strings.Cut(meta, ";")
		}
		encoded = payload
	}

	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		data, err = base64.RawStdEncoding.DecodeString(encoded)
		if err != nil {
			return Upload{}, ErrBadEncoding
		}
	}

	contentType = normalizeMIME(contentType)
	if contentType == "" {
		contentType = normalizeMIME(http.DetectContentType(data))
	}
	return Upload{Name: name, ContentType: contentType, Data: data}, nil
}

// Validate checks u against l. Violations are returned as
// validator.ValidationErrors on the "file" field.
func Validate(u Upload, l Limits) error {
	maxSize := l.MaxSize
	if maxSize <= 0 {
		maxSize = DefaultMaxSize
	}
	allowed := l.AllowedTypes
	if len(allowed) == 0 {
		allowed = DefaultAllowedTypes
	}
	return validator.Apply(
		validator.Custom("file", len(u.Data) > 0, "is empty", "validation.file_empty"),
		validator.Custom("file", int64(len(u.Data)) <= maxSize, "exceeds the size limit", "validation.file_too_large"),
		validator.Custom("file", matchesMIME(u.ContentType, allowed),
			"type "+u.ContentType+" is not allowed", "validation.file_type"),
	)
}

// normalizeMIME drops parameters such as charset and lowercases the type.
func normalizeMIME(mimeType string) string {
	mimeType, _, _ = strings.Cut(mimeType, ";")
	return strings.TrimSpace(strings.ToLower(mimeType))
}

func matchesMIME(mimeType string, allowed []string) bool {
	mimeType = normalizeMIME(mimeType)
	for _, pattern := range allowed {
		pattern = strings.TrimSpace(strings.ToLower(pattern))
		if mimeType == pattern {
			return true
		}
		if explicitOnly[mimeType] {
			continue
		}
		if prefix, ok := strings.CutSuffix(pattern, "*"); ok && strings.HasSuffix(prefix, "/") && strings.HasPrefix(mimeType, prefix) {
			return true
		}
	}
	return false
}

var mimeExtensions = map[string]string{
	"image/jpeg":      ".jpg",
	"image/png":       ".png",
	"image/gif":       ".gif",
	"image/webp":      ".webp",
	"image/svg+xml":   ".svg",
	"image/bmp":       ".bmp",
	"image/x-icon":    ".ico",
	"image/avif":      ".avif",
	"application/pdf": ".pdf",
}

func extFromMIME(mimeType string) string {
	if ext, ok := mimeExtensions[normalizeMIME(mimeType)]; ok {
		return ext
	}
	return ".bin"
}
