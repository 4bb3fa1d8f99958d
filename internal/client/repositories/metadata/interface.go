// Package metadata is a small key/value collection for client bookkeeping:
// remembered username, last successful sync time, and similar scalars.
package metadata

import (
	"context"
)

// Well-known keys.
const (
	KeyUsername   = "username"
	KeyLastSyncAt = "last_sync_at"
)

type Repository interface {
	// Get returns the value for key, or nil when the key is absent.
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	Clear(ctx context.Context) error
}
