package apicache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/storykeeper/internal/common"
	"github.com/dmitrijs2005/storykeeper/internal/dbx"

	"github.com/dmitrijs2005/storykeeper/internal/client/models"
)

// SQLiteRepository implements Repository over a SQLite database.
type SQLiteRepository struct {
	db dbx.DBTX

	// nowFn is a test seam; defaults to time.Now.
	nowFn func() time.Time
}

func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db, nowFn: time.Now}
}

func (r *SQLiteRepository) SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	now := r.nowFn()
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO api_cache (key, value, expiry, cached_at) VALUES (?, ?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, expiry = excluded.expiry, cached_at = excluded.cached_at`,
		key, value, dbx.FormatTime(now.Add(ttl)), dbx.FormatTime(now))
	if err != nil {
		return fmt.Errorf("failed to set cache entry: %w", err)
	}
	return nil
}

// GetIfNotExpired returns the entry for key if it is still live. A stale
// entry is deleted on the spot and reported as common.ErrNotFound.
func (r *SQLiteRepository) GetIfNotExpired(ctx context.Context, key string) (*models.CacheEntry, error) {
	var e models.CacheEntry
	var expiry, cachedAt string

	err := r.db.QueryRowContext(ctx,
		`SELECT key, value, expiry, cached_at FROM api_cache WHERE key = ?`, key).
		Scan(&e.Key, &e.Value, &expiry, &cachedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get cache entry: %w", err)
	}
	if e.Expiry, err = dbx.ParseTime(expiry); err != nil {
		return nil, fmt.Errorf("bad expiry: %w", err)
	}
	if e.CachedAt, err = dbx.ParseTime(cachedAt); err != nil {
		return nil, fmt.Errorf("bad cached_at: %w", err)
	}

	if e.Expired(r.nowFn()) {
		if _, err := r.db.ExecContext(ctx, `DELETE FROM api_cache WHERE key = ?`, key); err != nil {
			return nil, fmt.Errorf("failed to evict expired entry: %w", err)
		}
		return nil, common.ErrNotFound
	}
	return &e, nil
}

func (r *SQLiteRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM api_cache WHERE expiry < ?`, dbx.FormatTime(now))
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired entries: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	return n, nil
}

func (r *SQLiteRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM api_cache`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count cache entries: %w", err)
	}
	return n, nil
}

func (r *SQLiteRepository) Clear(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM api_cache`); err != nil {
		return fmt.Errorf("failed to clear cache: %w", err)
	}
	return nil
}
