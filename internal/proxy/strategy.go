package proxy

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"time"

	"github.com/dmitrijs2005/storykeeper/internal/proxy/cache"
)

// offlineBody is the synthesized API response when neither the network nor
// the cache can answer.
const offlineBody = `{"error":true,"message":"You appear to be offline and no cached data is available.","offline":true}`

// imagePlaceholder is served when an image can be had neither from cache
// nor from the network.
const imagePlaceholder = `<svg xmlns="http://www.w3.org/2000/svg" width="200" height="150" viewBox="0 0 200 150"><rect width="200" height="150" fill="#e5e7eb"/><path d="M70 95l25-30 20 24 12-14 18 20H70z" fill="#9ca3af"/><circle cx="85" cy="55" r="10" fill="#9ca3af"/></svg>`

// servedFromHeader tells the client where a response came from.
const servedFromHeader = "X-Served-From"

// hopHeaders are stripped before forwarding; they describe the connection,
// not the payload.
var hopHeaders = []string{
	"Connection", "Keep-Alive", "Proxy-Authenticate", "Proxy-Authorization",
	"Te", "Trailer", "Transfer-Encoding", "Upgrade",
}

// fetchUpstream forwards the incoming request to target and buffers the
// response into a cacheable entry.
func (s *Server) fetchUpstream(ctx context.Context, r *http.Request, target string) (*cache.Entry, error) {
	var body io.Reader
	if r.Body != nil {
		body = r.Body
	}
	req, err := http.NewRequestWithContext(ctx, r.Method, target, body)
	if err != nil {
		return nil, err
	}
	req.Header = r.Header.Clone()
	for _, h := range hopHeaders {
		req.Header.Del(h)
	}

	resp, err := s.httpc.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	header := resp.Header.Clone()
	for _, h := range hopHeaders {
		header.Del(h)
	}

	return &cache.Entry{
		Body:       respBody,
		StatusCode: resp.StatusCode,
		Header:     header,
		CachedAt:   time.Now(),
	}, nil
}

func writeEntry(w http.ResponseWriter, e *cache.Entry, servedFrom string) {
	for k, vv := range e.Header {
		for _, v := range vv {
			w.Header().Add(k, v)
		}
	}
	if servedFrom != "" {
		w.Header().Set(servedFromHeader, servedFrom)
	}
	w.WriteHeader(e.StatusCode)
	_, _ = w.Write(e.Body)
}

func writeOffline(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set(servedFromHeader, "synthesized")
	w.WriteHeader(http.StatusServiceUnavailable)
	_, _ = io.Copy(w, bytes.NewReader([]byte(offlineBody)))
}

func writeImagePlaceholder(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "image/svg+xml")
	w.Header().Set(servedFromHeader, "synthesized")
	w.WriteHeader(http.StatusOK)
	_, _ = io.Copy(w, bytes.NewReader([]byte(imagePlaceholder)))
}

// cacheFirst serves from c, fetching and populating on a miss. onFailure
// is the last resort when both cache and network fail.
func (s *Server) cacheFirst(w http.ResponseWriter, r *http.Request, c *cache.Cache, target string, onFailure func(http.ResponseWriter)) {
	key := r.URL.RequestURI()
	if entry, ok := c.Get(key); ok {
		writeEntry(w, entry, "cache")
		return
	}

	entry, err := s.fetchUpstream(r.Context(), r, target)
	if err != nil {
		s.log.Warn(r.Context(), "upstream fetch failed", "path", key, "error", err)
		onFailure(w)
		return
	}
	if entry.StatusCode == http.StatusOK {
		c.Set(key, entry)
	}
	writeEntry(w, entry, "network")
}

// shellFallback answers a navigation when both cache and network failed:
// the cached root document still lets the application boot.
func (s *Server) shellFallback(w http.ResponseWriter) {
	if entry, ok := s.shell().Get("/"); ok {
		writeEntry(w, entry, "cache")
		return
	}
	writeOffline(w)
}

// networkFirst is the API strategy: try upstream within the configured
// timeout, cache successful GETs, and fall back to the freshest cached
// copy, then to a synthesized offline response. Non-GET requests are
// always forwarded and never cached: replaying a mutation from a cache
// would be a lie.
func (s *Server) networkFirst(w http.ResponseWriter, r *http.Request, target string) {
	ctx, cancel := context.WithTimeout(r.Context(), s.cfg.APITimeout)
	defer cancel()

	if r.Method != http.MethodGet {
		entry, err := s.fetchUpstream(ctx, r, target)
		if err != nil {
			s.log.Warn(r.Context(), "api forward failed", "method", r.Method, "path", r.URL.Path, "error", err)
			writeOffline(w)
			return
		}
		writeEntry(w, entry, "network")
		return
	}

	key := r.URL.RequestURI()
	entry, err := s.fetchUpstream(ctx, r, target)
	if err == nil {
		if entry.StatusCode == http.StatusOK {
			cached := *entry
			cached.TTL = s.cfg.APICacheTTL
			s.api().Set(key, &cached)
		}
		writeEntry(w, entry, "network")
		return
	}

	s.log.Warn(r.Context(), "api fetch failed, trying cache", "path", key, "error", err)
	if cached, ok := s.api().Get(key); ok {
		writeEntry(w, cached, "cache")
		return
	}
	writeOffline(w)
}

// staleWhileRevalidate serves the cached copy immediately and refreshes it
// in the background.
func (s *Server) staleWhileRevalidate(w http.ResponseWriter, r *http.Request, target string) {
	key := r.URL.RequestURI()
	c := s.shell()

	if entry, ok := c.Get(key); ok {
		writeEntry(w, entry, "cache")

		refresh := r.Clone(context.Background())
		refresh.Body = nil
		go func() {
			rctx, cancel := context.WithTimeout(context.Background(), s.cfg.APITimeout)
			defer cancel()
			fresh, err := s.fetchUpstream(rctx, refresh, target)
			if err != nil {
				s.log.Debug(rctx, "background revalidation failed", "path", key, "error", err)
				return
			}
			if fresh.StatusCode == http.StatusOK {
				c.Set(key, fresh)
			}
		}()
		return
	}

	entry, err := s.fetchUpstream(r.Context(), r, target)
	if err != nil {
		s.log.Warn(r.Context(), "static fetch failed", "path", key, "error", err)
		writeOffline(w)
		return
	}
	if entry.StatusCode == http.StatusOK {
		c.Set(key, entry)
	}
	writeEntry(w, entry, "network")
}

// passthrough forwards without touching any cache.
func (s *Server) passthrough(w http.ResponseWriter, r *http.Request, target string) {
	entry, err := s.fetchUpstream(r.Context(), r, target)
	if err != nil {
		s.log.Warn(r.Context(), "passthrough failed", "path", r.URL.Path, "error", err)
		http.Error(w, "Bad Gateway", http.StatusBadGateway)
		return
	}
	writeEntry(w, entry, "network")
}
