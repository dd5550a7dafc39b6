// Package sanitizer removes markup from user supplied text before it is stored.
package sanitizer

import (
	"html"
	"sync"

	"github.com/microcosm-cc/bluemonday"
)

var (
	strictPolicy *bluemonday.Policy
	initOnce     sync.Once
)

func initPolicies() {
	initOnce.Do(func() {
		// StrictPolicy drops script and style blocks together with their
		// content and keeps only the text of every other element.
		strictPolicy = bluemonday.StrictPolicy()
	})
}

// StripHTML removes every HTML tag from s and returns plain text.
// Script and style elements are removed with their content, all other
// elements are replaced by their inner text. Matching is case-insensitive.
// The result is unescaped text ("R&D", not "R&amp;D"), so callers rendering
// it as HTML must escape it themselves.
//
// StripHTML is idempotent: StripHTML(StripHTML(s)) == StripHTML(s).
func StripHTML(s string) string {
	if s == "" {
		return s
	}
	initPolicies()

	// Unescaping can expose markup hidden behind entities ("&lt;b&gt;"), so
	// strip again until nothing changes. Every changing pass shortens the
	// text, which bounds the loop by its length.
	for range len(s) + 1 {
		out := html.UnescapeString(strictPolicy.Sanitize(s))
		if out == s {
			break
		}
		s = out
	}
	return s
}
