package metadata

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	_ "modernc.org/sqlite"
)

func setupDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })

	_, err = db.Exec(`
CREATE TABLE metadata (
  key   TEXT PRIMARY KEY,
  value BLOB NOT NULL
);
`)
	require.NoError(t, err)
	return db
}

func TestSetGetDelete(t *testing.T) {
	db := setupDB(t)
	r := NewSQLiteRepository(db)
	ctx := context.Background()

	got, err := r.Get(ctx, KeyUsername)
	require.NoError(t, err)
	assert.Nil(t, got, "absent key reads as nil")

	require.NoError(t, r.Set(ctx, KeyUsername, []byte("dina")))
	got, err = r.Get(ctx, KeyUsername)
	require.NoError(t, err)
	assert.Equal(t, []byte("dina"), got)

	// overwrite
	require.NoError(t, r.Set(ctx, KeyUsername, []byte("budi")))
	got, err = r.Get(ctx, KeyUsername)
	require.NoError(t, err)
	assert.Equal(t, []byte("budi"), got)

	require.NoError(t, r.Delete(ctx, KeyUsername))
	got, err = r.Get(ctx, KeyUsername)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestClear(t *testing.T) {
	db := setupDB(t)
	r := NewSQLiteRepository(db)
	ctx := context.Background()

	require.NoError(t, r.Set(ctx, KeyUsername, []byte("dina")))
	require.NoError(t, r.Set(ctx, KeyLastSyncAt, []byte("2026-01-01T00:00:00Z")))
	require.NoError(t, r.Clear(ctx))

	got, err := r.Get(ctx, KeyLastSyncAt)
	require.NoError(t, err)
	assert.Nil(t, got)
}
