// Package cache provides the named response caches behind the proxy.
// Each named cache is a thread-safe in-memory store of HTTP responses;
// the set of names is versioned so that a deploy with a new cache version
// can drop every stale generation in one sweep (see Store.Activate).
package cache

import (
	"net/http"
	"sort"
	"sync"
	"sync/atomic"
	"time"
)

// Entry represents a cached response.
type Entry struct {
	Body       []byte
	StatusCode int
	Header     http.Header
	CachedAt   time.Time
	TTL        time.Duration
}

// IsExpired checks if the cache entry has expired. A zero TTL never
// expires; shell assets live until their cache generation is dropped.
func (e *Entry) IsExpired() bool {
	if e.TTL == 0 {
		return false
	}
	return time.Now().After(e.CachedAt.Add(e.TTL))
}

// Stats holds per-cache statistics.
type Stats struct {
	Hits   int64 `json:"hits"`
	Misses int64 `json:"misses"`
	Size   int   `json:"size"`
}

// Cache is a thread-safe in-memory cache for HTTP responses keyed by
// request URL.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]*Entry
	order   []string // for FIFO eviction
	maxSize int
	hits    int64
	misses  int64
}

// New creates a cache with the given maximum size.
func New(maxSize int) *Cache {
	return &Cache{
		entries: make(map[string]*Entry),
		order:   make([]string, 0),
		maxSize: maxSize,
	}
}

// Get retrieves a cache entry by key.
// Returns the entry and true if found and not expired, nil and false
// otherwise. An expired entry is evicted on the way out.
func (c *Cache) Get(key string) (*Entry, bool) {
	c.mu.RLock()
	entry, found := c.entries[key]
	c.mu.RUnlock()

	if !found {
		atomic.AddInt64(&c.misses, 1)
		return nil, false
	}

	if entry.IsExpired() {
		c.Delete(key)
		atomic.AddInt64(&c.misses, 1)
		return nil, false
	}

	atomic.AddInt64(&c.hits, 1)
	return entry, true
}

// Set stores a cache entry. If the cache is at capacity, the oldest entry
// is evicted.
func (c *Cache) Set(key string, entry *Entry) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.entries[key]; exists {
		c.entries[key] = entry
		return
	}

	for len(c.entries) >= c.maxSize && len(c.order) > 0 {
		oldestKey := c.order[0]
		c.order = c.order[1:]
		delete(c.entries, oldestKey)
	}

	c.entries[key] = entry
	c.order = append(c.order, key)
}

// Delete removes a cache entry by key.
func (c *Cache) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.entries, key)

	for i, k := range c.order {
		if k == key {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
}

// Clear removes all entries from the cache.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = make(map[string]*Entry)
	c.order = make([]string, 0)
}

// Size returns the current number of entries in the cache.
func (c *Cache) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Stats returns cache statistics.
func (c *Cache) Stats() Stats {
	return Stats{
		Hits:   atomic.LoadInt64(&c.hits),
		Misses: atomic.LoadInt64(&c.misses),
		Size:   c.Size(),
	}
}

// Store is the registry of named caches.
type Store struct {
	mu      sync.Mutex
	caches  map[string]*Cache
	maxSize int
}

// NewStore creates a registry whose caches hold at most maxSize entries
// each.
func NewStore(maxSize int) *Store {
	return &Store{
		caches:  make(map[string]*Cache),
		maxSize: maxSize,
	}
}

// Open returns the cache with the given name, creating it if needed.
func (s *Store) Open(name string) *Cache {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.caches[name]
	if !ok {
		c = New(s.maxSize)
		s.caches[name] = c
	}
	return c
}

// Names lists the existing cache names, sorted.
func (s *Store) Names() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	names := make([]string, 0, len(s.caches))
	for name := range s.caches {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// DeleteCache drops a whole named cache. Returns whether it existed.
func (s *Store) DeleteCache(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.caches[name]
	delete(s.caches, name)
	return ok
}

// Activate drops every cache whose name is not in the whitelist and
// returns the dropped names. This is how a new cache generation retires
// the previous one.
func (s *Store) Activate(whitelist []string) []string {
	keep := make(map[string]struct{}, len(whitelist))
	for _, name := range whitelist {
		keep[name] = struct{}{}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var dropped []string
	for name := range s.caches {
		if _, ok := keep[name]; !ok {
			delete(s.caches, name)
			dropped = append(dropped, name)
		}
	}
	sort.Strings(dropped)
	return dropped
}
