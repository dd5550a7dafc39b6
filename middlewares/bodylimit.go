package middlewares

import "net/http"

// DefaultBodyLimit covers a base64 encoded 10 MiB upload plus envelope.
const DefaultBodyLimit = 16 << 20

// BodyLimit caps the request body at n bytes. Reads past the limit fail with
// *http.MaxBytesError. Non-positive n uses DefaultBodyLimit.
func BodyLimit(n int64) func(http.Handler) http.Handler {
	if n <= 0 {
		n = DefaultBodyLimit
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Body != nil {
				r.Body = http.MaxBytesReader(w, r.Body, n)
			}
			next.ServeHTTP(w, r)
		})
	}
}
