package blob

import (
	"net/url"
	"path"
	"regexp"
	"strings"

	"github.com/dmitrymomot/folio/pkg/id"
)

var unsafeSegment = regexp.MustCompile(`[^a-zA-Z0-9\-_.]`)

// sanitizeSegment turns s into a single safe key segment.
func sanitizeSegment(s string) string {
	s = strings.Trim(s, " /\\")
	s = strings.ReplaceAll(s, "..", "")
	s = unsafeSegment.ReplaceAllString(s, "_")
	return url.PathEscape(s)
}

// buildKey returns "{prefix}/{ulid}-{name}{ext}". The original file name is
// kept only as a readable hint; the ULID makes the key unique.
func buildKey(prefix string, u Upload) string {
	base := strings.TrimSuffix(path.Base(strings.ReplaceAll(u.Name, "\\", "/")), path.Ext(u.Name))
	base = sanitizeSegment(base)
	if base == "." || base == "" {
		base = ""
	} else {
		base = "-" + base
	}

	name := strings.ToLower(id.NewULID()) + base + extFromMIME(u.ContentType)
	if prefix = sanitizeSegment(prefix); prefix != "" {
		return prefix + "/" + name
	}
	return name
}
