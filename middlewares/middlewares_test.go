package middlewares_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/folio/middlewares"
	"github.com/dmitrymomot/folio/pkg/logger"
)

var ok = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
})

func TestRequestID(t *testing.T) {
	t.Parallel()

	t.Run("generates new request ID when not present", func(t *testing.T) {
		t.Parallel()

		var captured string
		h := middlewares.RequestID()(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
			captured = middlewares.GetRequestID(r.Context())
		}))

		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

		require.NotEmpty(t, captured)
		assert.Equal(t, captured, rec.Header().Get("X-Request-ID"))
	})

	t.Run("uses existing request ID from header", func(t *testing.T) {
		t.Parallel()

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("X-Correlation-ID", "upstream-123")
		rec := httptest.NewRecorder()
		middlewares.RequestID()(ok).ServeHTTP(rec, req)

		assert.Equal(t, "upstream-123", rec.Header().Get("X-Request-ID"))
	})

	t.Run("ignores oversized IDs", func(t *testing.T) {
		t.Parallel()

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("X-Request-ID", strings.Repeat("a", 500))
		rec := httptest.NewRecorder()
		middlewares.RequestID(middlewares.WithRequestIDGenerator(func() string { return "gen" }))(ok).ServeHTTP(rec, req)

		assert.Equal(t, "gen", rec.Header().Get("X-Request-ID"))
	})

	t.Run("extractor adds request_id to logs", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		log := logger.NewWithWriter(&buf, logger.Config{Level: "info"}, middlewares.RequestIDExtractor())
		log.InfoContext(middlewares.WithRequestID(context.Background(), "req-1"), "hello")

		assert.Contains(t, buf.String(), `"request_id":"req-1"`)
	})
}

func TestRecover(t *testing.T) {
	t.Parallel()

	boom := http.HandlerFunc(func(http.ResponseWriter, *http.Request) { panic("boom") })

	t.Run("default response is 500", func(t *testing.T) {
		t.Parallel()

		rec := httptest.NewRecorder()
		middlewares.Recover(slog.New(slog.DiscardHandler))(boom).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
	})

	t.Run("custom handler receives the panic", func(t *testing.T) {
		t.Parallel()

		var got *middlewares.PanicError
		mw := middlewares.Recover(nil, middlewares.WithPanicHandler(func(w http.ResponseWriter, _ *http.Request, pe *middlewares.PanicError) {
			got = pe
			w.WriteHeader(http.StatusTeapot)
		}))

		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/api", nil)
		mw(boom).ServeHTTP(rec, req.WithContext(middlewares.WithRequestID(req.Context(), "req-1")))

		assert.Equal(t, http.StatusTeapot, rec.Code)
		require.NotNil(t, got)
		assert.Equal(t, "boom", got.Value)
		assert.Equal(t, "req-1", got.RequestID)
		assert.NotEmpty(t, got.Stack)
		assert.Equal(t, "panic serving /api (request req-1): boom", got.Error())

		pe, found := middlewares.AsPanicError(errors.Join(errors.New("ctx"), got))
		require.True(t, found)
		assert.Same(t, got, pe)
	})

	t.Run("stack can be disabled", func(t *testing.T) {
		t.Parallel()

		var got *middlewares.PanicError
		mw := middlewares.Recover(nil,
			middlewares.WithRecoverDisablePrintStack(),
			middlewares.WithPanicHandler(func(_ http.ResponseWriter, _ *http.Request, pe *middlewares.PanicError) { got = pe }),
		)
		mw(boom).ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

		require.NotNil(t, got)
		assert.Nil(t, got.Stack)
	})

	t.Run("abort handler is re-raised", func(t *testing.T) {
		t.Parallel()

		abort := http.HandlerFunc(func(http.ResponseWriter, *http.Request) { panic(http.ErrAbortHandler) })
		assert.PanicsWithValue(t, http.ErrAbortHandler, func() {
			middlewares.Recover(nil)(abort).ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
		})
	})
}

func TestCORS(t *testing.T) {
	t.Parallel()

	t.Run("non-CORS request passes untouched", func(t *testing.T) {
		t.Parallel()

		rec := httptest.NewRecorder()
		middlewares.CORS()(ok).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("wildcard origin", func(t *testing.T) {
		t.Parallel()

		req := httptest.NewRequest(http.MethodPost, "/", nil)
		req.Header.Set("Origin", "https://site.example.com")
		rec := httptest.NewRecorder()
		middlewares.CORS()(ok).ServeHTTP(rec, req)

		assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("preflight", func(t *testing.T) {
		t.Parallel()

		req := httptest.NewRequest(http.MethodOptions, "/", nil)
		req.Header.Set("Origin", "https://site.example.com")
		req.Header.Set("Access-Control-Request-Method", http.MethodPost)
		rec := httptest.NewRecorder()
		middlewares.CORS(middlewares.WithAllowOrigins("https://site.example.com"))(ok).ServeHTTP(rec, req)

		assert.Equal(t, http.StatusNoContent, rec.Code)
		assert.Equal(t, "https://site.example.com", rec.Header().Get("Access-Control-Allow-Origin"))
		assert.Contains(t, rec.Header().Get("Access-Control-Allow-Methods"), http.MethodPost)
		assert.Equal(t, "43200", rec.Header().Get("Access-Control-Max-Age"))
	})

	t.Run("disallowed origin gets no headers", func(t *testing.T) {
		t.Parallel()

		req := httptest.NewRequest(http.MethodPost, "/", nil)
		req.Header.Set("Origin", "https://evil.example.com")
		rec := httptest.NewRecorder()
		middlewares.CORS(middlewares.WithAllowOrigins("https://site.example.com"))(ok).ServeHTTP(rec, req)

		assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("subdomain pattern", func(t *testing.T) {
		t.Parallel()

		mw := middlewares.CORS(middlewares.WithAllowOrigins("https://*.example.com"))
		for origin, allowed := range map[string]bool{
			"https://admin.example.com": true,
			"https://a.b.example.com":   true,
			"https://example.com":       false,
			"http://admin.example.com":  false,
			"https://badexample.com":    false,
		} {
			req := httptest.NewRequest(http.MethodPost, "/", nil)
			req.Header.Set("Origin", origin)
			rec := httptest.NewRecorder()
			mw(ok).ServeHTTP(rec, req)

			if allowed {
				assert.Equal(t, origin, rec.Header().Get("Access-Control-Allow-Origin"), origin)
			} else {
				assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"), origin)
			}
		}
	})
}

func TestBodyLimit(t *testing.T) {
	t.Parallel()

	var readErr error
	h := middlewares.BodyLimit(4)(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		_, readErr = io.ReadAll(r.Body)
	}))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/", strings.NewReader("123456")))
	var maxErr *http.MaxBytesError
	assert.ErrorAs(t, readErr, &maxErr)

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/", strings.NewReader("1234")))
	assert.NoError(t, readErr)
}
