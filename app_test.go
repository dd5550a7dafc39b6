package folio_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/folio"
	"github.com/dmitrymomot/folio/internal/notify"
	"github.com/dmitrymomot/folio/internal/sheet"
)

const password = "correct-horse"

type recordingNotifier struct {
	mu   sync.Mutex
	sent []notify.Message
}

func (r *recordingNotifier) MessageReceived(_ context.Context, m notify.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, m)
	return nil
}

func (r *recordingNotifier) messages() []notify.Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]notify.Message(nil), r.sent...)
}

func testConfig() folio.Config {
	var cfg folio.Config
	cfg.Addr = "127.0.0.1:0"
	cfg.Store.Driver = sheet.DriverMemory
	cfg.Auth.Password = password
	cfg.Auth.BcryptCost = 4
	return cfg
}

func newApp(t *testing.T, cfg folio.Config, opts ...folio.Option) *folio.App {
	t.Helper()
	app, err := folio.New(context.Background(), cfg, opts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = app.Close(context.Background()) })
	return app
}

type envelope struct {
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message"`
	Code    int             `json:"code"`
	Success bool            `json:"success"`
}

func call(t *testing.T, url, body string) envelope {
	t.Helper()
	resp, err := http.Post(url, "application/json", strings.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out envelope
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func login(t *testing.T, url string) string {
	t.Helper()
	resp := call(t, url, `{"action":"LOGIN","data":{"password":"`+password+`"}}`)
	require.True(t, resp.Success, resp.Message)
	var tok struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(resp.Data, &tok))
	return tok.Token
}

func TestConfig_Defaults(t *testing.T) {
	t.Parallel()

	var cfg folio.Config
	require.NoError(t, env.ParseWithOptions(&cfg, env.Options{
		Environment: map[string]string{
			"ADMIN_PASSWORD":       password,
			"CORS_ALLOWED_ORIGINS": "https://a.example,https://b.example",
		},
	}))

	assert.Equal(t, ":8080", cfg.Addr)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.AllowedOrigins)
	assert.Equal(t, []string{"image/*", "application/pdf"}, cfg.UploadTypes)
	assert.Equal(t, 10*time.Second, cfg.GateWait)
	assert.Equal(t, "sqlite", cfg.Store.Driver)
	assert.Equal(t, "folio.db", cfg.Store.SQLitePath)
	assert.Equal(t, "memory", cfg.Session.Driver)
	assert.Equal(t, 6*time.Hour, cfg.Session.TTL)
	assert.Equal(t, password, cfg.Auth.Password)
	assert.Equal(t, "info", cfg.Logger.Level)
	assert.Equal(t, int64(10<<20), cfg.Blob.MaxSize)
	assert.False(t, cfg.Blob.Enabled())
	assert.Equal(t, "Folio", cfg.Notify.SenderName)
}

func TestNew_Errors(t *testing.T) {
	t.Parallel()

	t.Run("unknown store driver", func(t *testing.T) {
		t.Parallel()
		cfg := testConfig()
		cfg.Store.Driver = "spreadsheet"
		_, err := folio.New(context.Background(), cfg)
		assert.ErrorIs(t, err, folio.ErrStoreOpen)
	})

	t.Run("missing admin password closes the opened store", func(t *testing.T) {
		t.Parallel()
		cfg := testConfig()
		cfg.Auth.Password = ""
		backend := sheet.NewMemory()
		_, err := folio.New(context.Background(), cfg, folio.WithBackend(backend))
		assert.ErrorIs(t, err, folio.ErrCredentials)
		assert.ErrorIs(t, backend.Ping(context.Background()), sheet.ErrClosed)
	})

	t.Run("schema file not found", func(t *testing.T) {
		t.Parallel()
		cfg := testConfig()
		cfg.SchemaFile = filepath.Join(t.TempDir(), "missing.yaml")
		_, err := folio.New(context.Background(), cfg)
		assert.ErrorIs(t, err, folio.ErrSchemaLoad)
	})
}

func TestApp_Handler(t *testing.T) {
	t.Parallel()

	notifier := &recordingNotifier{}
	app := newApp(t, testConfig(), folio.WithNotifier(notifier))
	srv := httptest.NewServer(app.Handler())
	t.Cleanup(srv.Close)

	token := login(t, srv.URL)

	resp := call(t, srv.URL+"/api", `{"action":"addProject","auth":"`+token+`","data":{"title":"Folio","tags":["go"]}}`)
	require.True(t, resp.Success, resp.Message)

	resp = call(t, srv.URL, `{"action":"sub_msg","data":{"name":"Ann","email":"ann@example.com","message":"Hello"}}`)
	require.True(t, resp.Success, resp.Message)

	resp = call(t, srv.URL, `{"action":"getData"}`)
	require.True(t, resp.Success)
	var data map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(resp.Data, &data))
	assert.Contains(t, string(data["Projects"]), `"tags":["go"]`)
	assert.NotContains(t, data, "Messages")

	t.Run("health", func(t *testing.T) {
		res, err := http.Get(srv.URL + "/health/ready")
		require.NoError(t, err)
		defer res.Body.Close()
		assert.Equal(t, http.StatusOK, res.StatusCode)
	})

	t.Run("metrics", func(t *testing.T) {
		res, err := http.Get(srv.URL + "/metrics")
		require.NoError(t, err)
		defer res.Body.Close()
		body, err := io.ReadAll(res.Body)
		require.NoError(t, err)
		assert.Contains(t, string(body), `folio_actions_total{action="addProject",outcome="ok"} 1`)
		assert.Contains(t, string(body), "go_goroutines")
	})

	require.NoError(t, app.Close(context.Background()))
	msgs := notifier.messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, "ann@example.com", msgs[0].Email)
}

func TestApp_SchemaFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "catalog.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
entities:
  - name: Talk
    collection: Talks
    fields:
      title: {type: text, required: true, max: 100}
singletons:
  - name: Hero
    fields:
      title: {type: text}
`), 0o600))

	cfg := testConfig()
	cfg.SchemaFile = path
	app := newApp(t, cfg)

	assert.Contains(t, app.Service().Actions(), "addTalk")
	assert.Contains(t, app.Service().Actions(), "updateHero")
	assert.NotContains(t, app.Service().Actions(), "addProject")
	assert.NotContains(t, app.Service().Actions(), "sub_msg")
}

func TestApp_RunAndStop(t *testing.T) {
	t.Parallel()

	app, err := folio.New(context.Background(), testConfig())
	require.NoError(t, err)

	errCh := make(chan error, 1)
	go func() { errCh <- app.Run() }()

	require.Eventually(t, func() bool { return app.Addr() != "" }, 5*time.Second, 10*time.Millisecond)

	res, err := http.Get("http://" + app.Addr() + "/health/live")
	require.NoError(t, err)
	_ = res.Body.Close()
	assert.Equal(t, http.StatusOK, res.StatusCode)

	app.Stop()
	app.Stop()

	select {
	case err := <-errCh:
		assert.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("Run did not return after Stop")
	}
}

func TestApp_RunStopsWithContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	app, err := folio.New(context.Background(), testConfig(), folio.WithContext(ctx))
	require.NoError(t, err)

	errCh := make(chan error, 1)
	go func() { errCh <- app.Run() }()
	require.Eventually(t, func() bool { return app.Addr() != "" }, 5*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-errCh:
		assert.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("Run did not return after context cancel")
	}
}
