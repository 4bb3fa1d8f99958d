// Package proxy implements the network cache proxy: an HTTP server the
// application points its traffic at. Requests are classified by URL shape
// and answered through per-class caching strategies, so the application
// keeps working, on cached or synthesized responses, when the network is
// gone. Every path ends in a response; interception never leaks an error.
package proxy

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/gorilla/mux"

	"github.com/dmitrijs2005/storykeeper/internal/proxy/cache"
	"github.com/dmitrijs2005/storykeeper/internal/logging"
)

// Server is the cache proxy.
type Server struct {
	cfg   *Config
	log   logging.Logger
	store *cache.Store
	cls   *classifier
	httpc *http.Client
	hub   *hub

	// upstreamOK tracks the last probe result; an unreachable→reachable
	// transition is what fires connectivity-restored.
	upstreamOK atomic.Bool
}

// NewServer builds a proxy server from cfg.
func NewServer(cfg *Config, log logging.Logger) *Server {
	return &Server{
		cfg:   cfg,
		log:   log,
		store: cache.NewStore(cfg.MaxCacheEntries),
		cls:   newClassifier(cfg),
		httpc: &http.Client{Timeout: 30 * time.Second},
		hub:   newHub(),
	}
}

// shellCacheName and apiCacheName carry the configured generation number;
// bumping CacheVersion retires the old generation on Activate.
func (s *Server) shellCacheName() string {
	return fmt.Sprintf("storykeeper-shell-v%d", s.cfg.CacheVersion)
}

func (s *Server) apiCacheName() string {
	return fmt.Sprintf("storykeeper-api-v%d", s.cfg.CacheVersion)
}

func (s *Server) shell() *cache.Cache { return s.store.Open(s.shellCacheName()) }
func (s *Server) api() *cache.Cache   { return s.store.Open(s.apiCacheName()) }

// Handler returns the proxy's HTTP handler: the control surface plus the
// catch-all interception route.
func (s *Server) Handler() http.Handler {
	r := mux.NewRouter()
	r.HandleFunc("/healthz", s.handleHealthz).Methods(http.MethodGet)
	r.HandleFunc("/stats", s.handleStats).Methods(http.MethodGet)
	r.HandleFunc("/control", s.handleControl).Methods(http.MethodPost)
	r.Handle("/events", s.hub).Methods(http.MethodGet)
	r.PathPrefix("/").HandlerFunc(s.handleProxy)
	return r
}

// Install precaches the app shell. Per-URL failures are logged and
// skipped: a partially warmed shell is better than no proxy at all.
func (s *Server) Install(ctx context.Context) {
	c := s.shell()
	for _, p := range s.cfg.ShellPaths {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.cfg.AppOrigin+p, nil)
		if err != nil {
			s.log.Warn(ctx, "precache request failed", "path", p, "error", err)
			continue
		}
		entry, err := s.fetchUpstream(ctx, req, s.cfg.AppOrigin+p)
		if err != nil || entry.StatusCode != http.StatusOK {
			s.log.Warn(ctx, "precache fetch failed", "path", p, "error", err)
			continue
		}
		c.Set(p, entry)
	}
	s.log.Info(ctx, "install complete", "cache", s.shellCacheName(), "cached", c.Size())
	s.hub.Publish(EventInstalled)
}

// Activate drops every cache generation outside the current whitelist.
func (s *Server) Activate(ctx context.Context) {
	whitelist := []string{s.shellCacheName(), s.apiCacheName()}
	dropped := s.store.Activate(whitelist)
	if len(dropped) > 0 {
		s.log.Info(ctx, "dropped stale caches", "names", strings.Join(dropped, ","))
	}
	s.hub.Publish(EventActivated)
}

// StartProbe checks upstream API reachability on a timer. When the API
// comes back after being unreachable the proxy announces it and asks the
// client to sync; the proxy itself never replays anything, it holds no
// credentials.
func (s *Server) StartProbe(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			reachable := s.probeOnce(ctx)
			if reachable && !s.upstreamOK.Swap(true) {
				s.log.Info(ctx, "upstream reachable again")
				s.hub.Publish(EventConnectivityRestored)
				s.hub.Publish(EventSyncRequested)
			} else if !reachable {
				s.upstreamOK.Store(false)
			}
		case <-ctx.Done():
			return
		}
	}
}

func (s *Server) probeOnce(ctx context.Context) bool {
	pctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(pctx, http.MethodHead, s.cfg.APIOrigin, nil)
	if err != nil {
		return false
	}
	resp, err := s.httpc.Do(req)
	if err != nil {
		return false
	}
	_ = resp.Body.Close()
	// Any response at all proves the network path works.
	return true
}

func (s *Server) handleProxy(w http.ResponseWriter, r *http.Request) {
	class := s.cls.Classify(r.URL.Path)
	s.log.Debug(r.Context(), "intercepted", "method", r.Method, "path", r.URL.Path, "class", class.String())

	switch class {
	case ClassAppShell:
		s.cacheFirst(w, r, s.shell(), s.cfg.AppOrigin+r.URL.RequestURI(), s.shellFallback)
	case ClassAPI:
		s.networkFirst(w, r, s.cfg.APIOrigin+r.URL.RequestURI())
	case ClassImageFont:
		onFailure := writeOffline
		if isImage(r.URL.Path) {
			onFailure = writeImagePlaceholder
		}
		s.cacheFirst(w, r, s.shell(), s.cfg.AppOrigin+r.URL.RequestURI(), onFailure)
	case ClassThirdPartyStatic:
		target := s.cfg.CDNOrigin + strings.TrimPrefix(r.URL.RequestURI(), strings.TrimSuffix(s.cfg.CDNPrefix, "/"))
		s.staleWhileRevalidate(w, r, target)
	default:
		s.passthrough(w, r, s.cfg.AppOrigin+r.URL.RequestURI())
	}
}

// controlMessage is the /control request body.
type controlMessage struct {
	Type       string   `json:"type"`
	CacheNames []string `json:"cacheNames,omitempty"`
}

func (s *Server) handleControl(w http.ResponseWriter, r *http.Request) {
	var msg controlMessage
	if err := json.NewDecoder(r.Body).Decode(&msg); err != nil {
		http.Error(w, "bad control message", http.StatusBadRequest)
		return
	}

	switch msg.Type {
	case "CLEAR_CACHE":
		names := msg.CacheNames
		if len(names) == 0 {
			names = s.store.Names()
		}
		cleared := make([]string, 0, len(names))
		for _, name := range names {
			if s.store.DeleteCache(name) {
				cleared = append(cleared, name)
			}
		}
		s.log.Info(r.Context(), "caches cleared", "names", strings.Join(cleared, ","))
		writeJSON(w, map[string]any{"ok": true, "cleared": cleared})

	case "SKIP_WAITING":
		s.Activate(r.Context())
		writeJSON(w, map[string]any{"ok": true})

	default:
		http.Error(w, "unknown control type", http.StatusBadRequest)
	}
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]any{"status": "ok"})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	stats := make(map[string]cache.Stats)
	for _, name := range s.store.Names() {
		stats[name] = s.store.Open(name).Stats()
	}
	writeJSON(w, map[string]any{
		"upstreamReachable": s.upstreamOK.Load(),
		"caches":            stats,
	})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
