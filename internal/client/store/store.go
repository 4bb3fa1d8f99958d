// Package store opens the local SQLite database, runs schema migrations,
// and hands out the collection repositories. It is the single owner of the
// on-disk state; everything above it holds only transient memory.
package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"

	"github.com/dmitrijs2005/storykeeper/internal/client/repositories/apicache"
	"github.com/dmitrijs2005/storykeeper/internal/client/repositories/drafts"
	"github.com/dmitrijs2005/storykeeper/internal/client/repositories/favorites"
	"github.com/dmitrijs2005/storykeeper/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/storykeeper/internal/client/repositories/stories"
	"github.com/dmitrijs2005/storykeeper/internal/client/store/migrations"
	"github.com/dmitrijs2005/storykeeper/internal/common"
)

// Repositories bundles the four collections plus the bookkeeping KV.
type Repositories struct {
	Stories   stories.Repository
	Drafts    drafts.Repository
	Favorites favorites.Repository
	APICache  apicache.Repository
	Metadata  metadata.Repository
}

// Store is an open local database with its repositories.
type Store struct {
	db    *sql.DB
	Repos *Repositories
}

// Open opens (or creates) the database at dsn and applies pending
// migrations. Any failure is wrapped as common.ErrStorageUnavailable so
// callers can switch to degraded, online-only operation instead of dying.
func Open(ctx context.Context, dsn string) (*Store, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %v", common.ErrStorageUnavailable, dsn, err)
	}

	// SQLite allows one writer; serializing through a single connection
	// keeps "database is locked" errors out of overlapping tasks.
	db.SetMaxOpenConns(1)

	if err := runMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%w: migrate: %v", common.ErrStorageUnavailable, err)
	}

	return &Store{
		db: db,
		Repos: &Repositories{
			Stories:   stories.NewSQLiteRepository(db),
			Drafts:    drafts.NewSQLiteRepository(db),
			Favorites: favorites.NewSQLiteRepository(db),
			APICache:  apicache.NewSQLiteRepository(db),
			Metadata:  metadata.NewSQLiteRepository(db),
		},
	}, nil
}

func runMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)
	goose.SetLogger(goose.NopLogger())

	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("set goose dialect: %w", err)
	}
	return goose.UpContext(ctx, db, ".")
}

// SchemaVersion reports the current migration version.
func (s *Store) SchemaVersion(ctx context.Context) (int64, error) {
	return goose.GetDBVersionContext(ctx, s.db)
}

// DB exposes the raw handle for callers that need ad-hoc queries (tests,
// status reporting).
func (s *Store) DB() *sql.DB {
	return s.db
}

func (s *Store) Close() error {
	return s.db.Close()
}
