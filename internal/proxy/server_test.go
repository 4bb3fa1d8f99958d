package proxy

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/storykeeper/internal/logging"
)

func testLogger() logging.Logger {
	return logging.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

// newTestServer wires a proxy in front of a fake app origin and a fake API
// origin.
func newTestServer(t *testing.T, app, api http.Handler) *Server {
	t.Helper()

	appSrv := httptest.NewServer(app)
	t.Cleanup(appSrv.Close)
	apiSrv := httptest.NewServer(api)
	t.Cleanup(apiSrv.Close)

	cfg := &Config{}
	cfg.LoadDefaults()
	cfg.AppOrigin = appSrv.URL
	cfg.APIOrigin = apiSrv.URL
	cfg.APITimeout = 2 * time.Second

	return NewServer(cfg, testLogger())
}

func appShellHandler(hits *atomic.Int64) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits != nil {
			hits.Add(1)
		}
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte("<html>shell " + r.URL.Path + "</html>"))
	})
}

func TestAppShell_CacheFirst(t *testing.T) {
	var hits atomic.Int64
	s := newTestServer(t, appShellHandler(&hits), http.NotFoundHandler())
	h := s.Handler()

	for i := 0; i < 3; i++ {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/index.html", nil))
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "shell /index.html")
	}

	assert.Equal(t, int64(1), hits.Load(), "after the first fetch the shell is served from cache")
}

func TestAppShell_FallsBackToCachedRoot(t *testing.T) {
	app := httptest.NewServer(appShellHandler(nil))
	cfg := &Config{}
	cfg.LoadDefaults()
	cfg.AppOrigin = app.URL
	cfg.APIOrigin = app.URL
	s := NewServer(cfg, testLogger())
	h := s.Handler()

	// Warm the root document, then kill the origin.
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	app.Close()

	// A never-cached shell document now falls back to the cached root.
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/app.css", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "shell /")
	assert.Equal(t, "cache", rec.Header().Get(servedFromHeader))
}

func TestAPI_NetworkFirstWithCacheFallback(t *testing.T) {
	api := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"error":false,"listStory":[{"id":"s1"}]}`))
	})
	apiSrv := httptest.NewServer(api)

	cfg := &Config{}
	cfg.LoadDefaults()
	cfg.AppOrigin = apiSrv.URL
	cfg.APIOrigin = apiSrv.URL
	cfg.APITimeout = time.Second
	s := NewServer(cfg, testLogger())
	h := s.Handler()

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/stories?page=1", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "network", rec.Header().Get(servedFromHeader))

	apiSrv.Close()

	// Same URL, dead upstream: the cached copy is served.
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/stories?page=1", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "cache", rec.Header().Get(servedFromHeader))
	assert.Contains(t, rec.Body.String(), `"s1"`)

	// A URL never fetched gets the synthesized offline response.
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/stories?page=2", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	var body struct {
		Error   bool   `json:"error"`
		Message string `json:"message"`
		Offline bool   `json:"offline"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.True(t, body.Error)
	assert.True(t, body.Offline)
	assert.NotEmpty(t, body.Message)
}

func TestAPI_NonGETNeverCached(t *testing.T) {
	var posts atomic.Int64
	api := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			posts.Add(1)
		}
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"error":false}`))
	})
	s := newTestServer(t, http.NotFoundHandler(), api)
	h := s.Handler()

	for i := 0; i < 2; i++ {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/stories", strings.NewReader("data")))
		require.Equal(t, http.StatusCreated, rec.Code)
	}
	assert.Equal(t, int64(2), posts.Load(), "every POST reaches upstream")
	assert.Zero(t, s.api().Size(), "mutations are never cached")
}

func TestImage_PlaceholderOnTotalFailure(t *testing.T) {
	app := httptest.NewServer(http.NotFoundHandler())
	app.Close() // origin is down from the start

	cfg := &Config{}
	cfg.LoadDefaults()
	cfg.AppOrigin = app.URL
	cfg.APIOrigin = app.URL
	s := NewServer(cfg, testLogger())
	h := s.Handler()

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/photos/story.jpg", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/svg+xml", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Body.String(), "<svg")
}

func TestControl_ClearCache(t *testing.T) {
	s := newTestServer(t, appShellHandler(nil), http.NotFoundHandler())
	h := s.Handler()

	// Warm the shell cache.
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/index.html", nil))
	require.Equal(t, 1, s.shell().Size())

	body, _ := json.Marshal(controlMessage{Type: "CLEAR_CACHE", CacheNames: []string{s.shellCacheName()}})
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/control", bytes.NewReader(body)))
	require.Equal(t, http.StatusOK, rec.Code)

	assert.Zero(t, s.shell().Size())
}

func TestControl_UnknownTypeRejected(t *testing.T) {
	s := newTestServer(t, http.NotFoundHandler(), http.NotFoundHandler())
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/control", strings.NewReader(`{"type":"NOPE"}`)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestInstallAndActivate(t *testing.T) {
	s := newTestServer(t, appShellHandler(nil), http.NotFoundHandler())

	// Leave a previous generation behind.
	s.store.Open("storykeeper-shell-v0")

	s.Install(context.Background())
	assert.Equal(t, len(s.cfg.ShellPaths), s.shell().Size(), "every shell path is precached")

	s.Activate(context.Background())
	names := s.store.Names()
	assert.NotContains(t, names, "storykeeper-shell-v0", "stale generations are dropped")
	assert.Contains(t, names, s.shellCacheName())
}

func TestHealthzAndStats(t *testing.T) {
	s := newTestServer(t, appShellHandler(nil), http.NotFoundHandler())
	h := s.Handler()

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	// One miss+fetch, one hit.
	for i := 0; i < 2; i++ {
		r := httptest.NewRecorder()
		h.ServeHTTP(r, httptest.NewRequest(http.MethodGet, "/index.html", nil))
	}

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/stats", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var stats struct {
		UpstreamReachable bool                       `json:"upstreamReachable"`
		Caches            map[string]json.RawMessage `json:"caches"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &stats))
	assert.Contains(t, stats.Caches, s.shellCacheName())
}

func TestEvents_SyncRequestedOnReconnect(t *testing.T) {
	// Reachability is transport-level, so simulate an outage by closing
	// the API listener and later reopening one on the same address.
	down := httptest.NewServer(http.NotFoundHandler())
	addr := strings.TrimPrefix(down.URL, "http://")
	down.Close()

	cfg := &Config{}
	cfg.LoadDefaults()
	cfg.AppOrigin = down.URL
	cfg.APIOrigin = down.URL
	s := NewServer(cfg, testLogger())

	events := s.hub.subscribe()
	defer s.hub.unsubscribe(events)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go s.StartProbe(ctx, 5*time.Millisecond)

	// Give the probe time to observe the down state.
	time.Sleep(30 * time.Millisecond)
	assert.False(t, s.upstreamOK.Load())

	l, err := net.Listen("tcp", addr)
	require.NoError(t, err)
	up := &http.Server{Handler: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})}
	go func() { _ = up.Serve(l) }()
	defer up.Close()

	var got []string
	deadline := time.After(2 * time.Second)
	for len(got) < 2 {
		select {
		case ev := <-events:
			got = append(got, ev)
		case <-deadline:
			t.Fatalf("timed out waiting for events, got %v", got)
		}
	}
	assert.Equal(t, []string{EventConnectivityRestored, EventSyncRequested}, got)
}
