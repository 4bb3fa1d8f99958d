package proxy

import (
	"fmt"
	"net/http"
	"sync"
)

// Lifecycle and connectivity event names pushed over /events.
const (
	EventInstalled            = "installed"
	EventActivated            = "activated"
	EventConnectivityRestored = "connectivity-restored"
	EventSyncRequested        = "sync-requested"
)

// hub fans out server-sent events to connected subscribers. The proxy
// itself never acts on these: the foreground client listens and decides
// what to do (typically: drain its draft queue on sync-requested).
type hub struct {
	mu   sync.Mutex
	subs map[chan string]struct{}
}

func newHub() *hub {
	return &hub{subs: make(map[chan string]struct{})}
}

// Publish sends an event to every subscriber. A slow subscriber drops the
// event instead of blocking the publisher.
func (h *hub) Publish(event string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.subs {
		select {
		case ch <- event:
		default:
		}
	}
}

func (h *hub) subscribe() chan string {
	ch := make(chan string, 8)
	h.mu.Lock()
	h.subs[ch] = struct{}{}
	h.mu.Unlock()
	return ch
}

func (h *hub) unsubscribe(ch chan string) {
	h.mu.Lock()
	delete(h.subs, ch)
	h.mu.Unlock()
}

// ServeHTTP streams events in text/event-stream format until the client
// disconnects.
func (h *hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	ch := h.subscribe()
	defer h.unsubscribe(ch)

	for {
		select {
		case event := <-ch:
			fmt.Fprintf(w, "event: %s\ndata: {}\n\n", event)
			flusher.Flush()
		case <-r.Context().Done():
			return
		}
	}
}
