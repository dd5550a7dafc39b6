package httpapi_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/dmitrymomot/folio/internal/api"
	"github.com/dmitrymomot/folio/internal/auth"
	"github.com/dmitrymomot/folio/internal/httpapi"
	"github.com/dmitrymomot/folio/internal/records"
	"github.com/dmitrymomot/folio/internal/schema"
	"github.com/dmitrymomot/folio/internal/session"
	"github.com/dmitrymomot/folio/internal/sheet"
	"github.com/dmitrymomot/folio/pkg/health"
)

type envelope struct {
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message"`
	Code    int             `json:"code"`
	Success bool            `json:"success"`
}

func newServer(t *testing.T, opts ...httpapi.Option) *httptest.Server {
	t.Helper()

	catalog := schema.DefaultCatalog()
	backend := sheet.NewMemory()
	registry := catalog.Registry()

	creds, err := auth.NewMemoryCredentials("secret password", bcrypt.MinCost)
	require.NoError(t, err)
	sessions := session.NewMemory(session.WithCleanupInterval(0))
	t.Cleanup(func() { _ = sessions.Close() })

	reg := prometheus.NewRegistry()
	svc := api.New(catalog,
		records.New(backend, records.WithSchemas(registry)),
		records.NewSingleton(backend, records.WithSchemas(registry)),
		auth.New(creds, sessions),
		api.WithMetrics(api.NewMetrics(reg)),
	)

	base := []httpapi.Option{
		httpapi.WithMetrics(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})),
		httpapi.WithHealthChecks(health.Checks{"store": backend.Ping}),
	}
	srv := httptest.NewServer(httpapi.NewRouter(svc, append(base, opts...)...))
	t.Cleanup(srv.Close)
	return srv
}

func post(t *testing.T, srv *httptest.Server, contentType, body string) envelope {
	t.Helper()
	resp, err := http.Post(srv.URL+"/", contentType, strings.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var env envelope
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&env))
	return env
}

func get(t *testing.T, srv *httptest.Server, q url.Values) envelope {
	t.Helper()
	resp, err := http.Get(srv.URL + "/api?" + q.Encode())
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var env envelope
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&env))
	return env
}

func TestRouter_LoginThenWrite(t *testing.T) {
	t.Parallel()
	srv := newServer(t)

	env := post(t, srv, "application/json", `{"action":"LOGIN","data":{"password":"secret password"}}`)
	require.True(t, env.Success, env.Message)
	var login struct {
		Token     string `json:"token"`
		ExpiresIn int    `json:"expiresIn"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &login))
	require.NotEmpty(t, login.Token)

	env = post(t, srv, "text/plain;charset=utf-8",
		`{"action":"addSkill","auth":"`+login.Token+`","data":{"name":"Go","level":95}}`)
	require.True(t, env.Success, env.Message)

	env = post(t, srv, "application/json", `{"action":"addSkill","data":{"name":"Go"}}`)
	assert.False(t, env.Success)
	assert.Equal(t, 401, env.Code)
	assert.Equal(t, "Unauthorized", env.Message)

	env = get(t, srv, url.Values{"action": {"getData"}})
	require.True(t, env.Success)
	var data map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(env.Data, &data))
	assert.JSONEq(t, `[{"id":`+idOf(t, data["Skills"])+`,"name":"Go","level":95}]`, string(data["Skills"]))
	assert.NotContains(t, data, "Messages")

	env = get(t, srv, url.Values{"action": {"getData"}, "auth": {login.Token}})
	require.NoError(t, json.Unmarshal(env.Data, &data))
	assert.Contains(t, data, "Messages")
}

func idOf(t *testing.T, raw json.RawMessage) string {
	t.Helper()
	var list []map[string]any
	require.NoError(t, json.Unmarshal(raw, &list))
	require.NotEmpty(t, list)
	b, err := json.Marshal(list[0]["id"])
	require.NoError(t, err)
	return string(b)
}

func TestRouter_Failures(t *testing.T) {
	t.Parallel()
	srv := newServer(t)

	tests := []struct {
		name    string
		body    string
		message string
	}{
		{name: "malformed body", body: `{"action":`, message: "Malformed request"},
		{name: "empty body", body: ``, message: "Malformed request"},
		{name: "missing action", body: `{"data":{}}`, message: "Malformed request"},
		{name: "unknown action", body: `{"action":"nope"}`, message: "Unknown action"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			env := post(t, srv, "application/json", tt.body)
			assert.False(t, env.Success)
			assert.Equal(t, tt.message, env.Message)
			assert.Zero(t, env.Code)
		})
	}

	env := get(t, srv, url.Values{"action": {"getData"}, "data": {"{broken"}})
	assert.Equal(t, "Malformed request", env.Message)

	env = get(t, srv, url.Values{})
	assert.Equal(t, "Malformed request", env.Message)
}

func TestRouter_BodyLimit(t *testing.T) {
	t.Parallel()
	srv := newServer(t, httpapi.WithBodyLimit(64))

	env := post(t, srv, "application/json", `{"action":"getData","data":{"pad":"`+strings.Repeat("x", 100)+`"}}`)
	assert.False(t, env.Success)
	assert.Equal(t, "Malformed request", env.Message)
}

func TestRouter_Infrastructure(t *testing.T) {
	t.Parallel()
	srv := newServer(t)

	for _, path := range []string{"/health/live", "/health/ready"} {
		resp, err := http.Get(srv.URL + path)
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusOK, resp.StatusCode, path)
	}

	post(t, srv, "application/json", `{"action":"getData"}`)
	resp, err := http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	body := new(strings.Builder)
	_, _ = io.Copy(body, resp.Body)
	assert.Contains(t, body.String(), `folio_actions_total{action="getData",outcome="ok"} 1`)

	req, err := http.NewRequest(http.MethodOptions, srv.URL+"/", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "https://portfolio.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	pre, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	pre.Body.Close()
	assert.Equal(t, http.StatusNoContent, pre.StatusCode)
	assert.Equal(t, "*", pre.Header.Get("Access-Control-Allow-Origin"))

	withID, err := http.Post(srv.URL+"/", "application/json", strings.NewReader(`{"action":"getData"}`))
	require.NoError(t, err)
	withID.Body.Close()
	assert.NotEmpty(t, withID.Header.Get("X-Request-ID"))
}

func TestRouter_ReadinessFails(t *testing.T) {
	t.Parallel()
	srv := newServer(t, httpapi.WithHealthChecks(health.Checks{
		"store": func(context.Context) error { return errors.New("down") },
	}))

	resp, err := http.Get(srv.URL + "/health/ready")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}
