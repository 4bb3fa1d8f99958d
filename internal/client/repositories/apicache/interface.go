// Package apicache persists expiring cached API responses.
package apicache

import (
	"context"
	"time"

	"github.com/dmitrijs2005/storykeeper/internal/client/models"
)

// Repository stores expiring key/value cache entries.
//
// Contract:
//   - SetWithTTL: upsert an entry with an absolute expiry of now+ttl.
//   - GetIfNotExpired: return a live entry, or common.ErrNotFound. An
//     expired entry is evicted during the read — expiry never depends on
//     a background sweep.
//   - DeleteExpired: space-reclamation sweep; returns rows removed.
//   - Clear: drop everything.
type Repository interface {
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
	GetIfNotExpired(ctx context.Context, key string) (*models.CacheEntry, error)
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
	Count(ctx context.Context) (int, error)
	Clear(ctx context.Context) error
}
