package middlewares

import (
	"net/http"
	"slices"
	"strconv"
	"strings"
	"time"
)

// DefaultCORSMaxAge is the default preflight cache duration.
const DefaultCORSMaxAge = 12 * time.Hour

// The action API is called with GET and POST only, and the session token
// travels in the body, so credentials are never allowed.
const (
	corsMethods = "GET, POST, OPTIONS"
	corsHeaders = "Origin, Content-Type, Accept, X-Request-ID"
)

type corsConfig struct {
	origins []string
	maxAge  time.Duration
}

// CORSOption configures the CORS middleware.
type CORSOption func(*corsConfig)

// WithAllowOrigins sets the allowed origins. "*" allows any origin and an
// entry like "https://*.example.com" allows every subdomain.
// Default: "*"
func WithAllowOrigins(origins ...string) CORSOption {
	return func(cfg *corsConfig) {
		cfg.origins = origins
	}
}

// WithMaxAge sets the preflight cache duration. Default: DefaultCORSMaxAge
func WithMaxAge(d time.Duration) CORSOption {
	return func(cfg *corsConfig) {
		cfg.maxAge = d
	}
}

// CORS answers preflight requests and adds CORS headers to responses for
// allowed origins. Requests from other origins pass through without CORS
// headers; the browser enforces the block.
func CORS(opts ...CORSOption) func(http.Handler) http.Handler {
	cfg := &corsConfig{origins: []string{"*"}, maxAge: DefaultCORSMaxAge}
	for _, opt := range opts {
		opt(cfg)
	}
	anyOrigin := slices.Contains(cfg.origins, "*")
	maxAge := strconv.Itoa(int(cfg.maxAge.Seconds()))

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			if origin == "" || (!anyOrigin && !originAllowed(origin, cfg.origins)) {
				next.ServeHTTP(w, r)
				return
			}

			h := w.Header()
			h.Add("Vary", "Origin")
			if anyOrigin {
				h.Set("Access-Control-Allow-Origin", "*")
			} else {
				h.Set("Access-Control-Allow-Origin", origin)
			}

			if r.Method == http.MethodOptions && r.Header.Get("Access-Control-Request-Method") != "" {
				h.Add("Vary", "Access-Control-Request-Method")
				h.Add("Vary", "Access-Control-Request-Headers")
				h.Set("Access-Control-Allow-Methods", corsMethods)
				h.Set("Access-Control-Allow-Headers", corsHeaders)
				if cfg.maxAge > 0 {
					h.Set("Access-Control-Max-Age", maxAge)
				}
				w.WriteHeader(http.StatusNoContent)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func originAllowed(origin string, allowed []string) bool {
	for _, pattern := range allowed {
		if pattern == origin {
			return true
		}
		scheme, host, ok := strings.Cut(pattern, "://*.")
		if !ok {
			continue
		}
		// "https://*.example.com" matches "https://a.example.com", not "https://example.com"
		if rest, found := strings.CutPrefix(origin, scheme+"://"); found && strings.HasSuffix(rest, "."+host) {
			return true
		}
	}
	return false
}
