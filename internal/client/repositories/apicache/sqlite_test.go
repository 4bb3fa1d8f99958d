package apicache

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/storykeeper/internal/common"

	_ "modernc.org/sqlite"
)

func setupDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })

	_, err = db.Exec(`
CREATE TABLE api_cache (
  key TEXT PRIMARY KEY,
  value BLOB NOT NULL,
  expiry TEXT NOT NULL,
  cached_at TEXT NOT NULL
);
`)
	require.NoError(t, err)
	return db
}

func TestSetAndGet(t *testing.T) {
	db := setupDB(t)
	r := NewSQLiteRepository(db)
	ctx := context.Background()

	require.NoError(t, r.SetWithTTL(ctx, "stories_list", []byte(`[{"id":"1"}]`), time.Hour))

	e, err := r.GetIfNotExpired(ctx, "stories_list")
	require.NoError(t, err)
	assert.Equal(t, []byte(`[{"id":"1"}]`), e.Value)
	assert.True(t, e.Expiry.After(time.Now()))
}

func TestGet_Missing(t *testing.T) {
	db := setupDB(t)
	r := NewSQLiteRepository(db)

	_, err := r.GetIfNotExpired(context.Background(), "nope")
	require.ErrorIs(t, err, common.ErrNotFound)
}

func TestGet_ExpiredEntryEvictedOnRead(t *testing.T) {
	db := setupDB(t)
	r := NewSQLiteRepository(db)
	ctx := context.Background()

	require.NoError(t, r.SetWithTTL(ctx, "k", []byte("v"), time.Hour))

	// jump the clock past the expiry
	r.nowFn = func() time.Time { return time.Now().Add(2 * time.Hour) }

	_, err := r.GetIfNotExpired(ctx, "k")
	require.ErrorIs(t, err, common.ErrNotFound)

	// the row is gone, not just filtered
	var n int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM api_cache`).Scan(&n))
	assert.Equal(t, 0, n)
}

func TestSetWithTTL_Overwrites(t *testing.T) {
	db := setupDB(t)
	r := NewSQLiteRepository(db)
	ctx := context.Background()

	require.NoError(t, r.SetWithTTL(ctx, "k", []byte("v1"), time.Hour))
	require.NoError(t, r.SetWithTTL(ctx, "k", []byte("v2"), time.Hour))

	e, err := r.GetIfNotExpired(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("v2"), e.Value)
}

func TestCount(t *testing.T) {
	db := setupDB(t)
	r := NewSQLiteRepository(db)
	ctx := context.Background()

	n, err := r.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	require.NoError(t, r.SetWithTTL(ctx, "a", []byte("v"), time.Hour))
	require.NoError(t, r.SetWithTTL(ctx, "b", []byte("v"), time.Hour))

	n, err = r.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestDeleteExpired_SweepsOnlyStaleRows(t *testing.T) {
	db := setupDB(t)
	r := NewSQLiteRepository(db)
	ctx := context.Background()

	require.NoError(t, r.SetWithTTL(ctx, "stale", []byte("v"), time.Minute))
	require.NoError(t, r.SetWithTTL(ctx, "live", []byte("v"), time.Hour))

	n, err := r.DeleteExpired(ctx, time.Now().Add(30*time.Minute))
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	_, err = r.GetIfNotExpired(ctx, "live")
	require.NoError(t, err)
}
