package models

import "time"

// CacheEntry is a generic expiring key/value wrapper for cached API
// responses. Value is an opaque JSON document. Reads must treat an entry
// with Expiry in the past as absent (evict-on-read).
type CacheEntry struct {
	Key      string
	Value    []byte
	Expiry   time.Time
	CachedAt time.Time
}

// Expired reports whether the entry is stale at the given instant.
func (e *CacheEntry) Expired(now time.Time) bool {
	return now.After(e.Expiry)
}
