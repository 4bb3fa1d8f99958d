package stories

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

// SQLiteRepository implements Repository using a DBTX (either *sql.DB or *sql.Tx).
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository returns a new SQLiteRepository bound to the given DB.
func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

// ReplaceAll clears the collection and inserts records in a single
// transaction, so readers never observe a half-written cache.
func (r *SQLiteRepository) ReplaceAll(ctx context.Context, records []models.Story) error {
	return dbx.WithTx(ctx, r.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM stories`); err != nil {
			return fmt.Errorf("failed to clear stories: %w", err)
		}
		now := time.Now()
		for i := range records {
			if err := upsert(ctx, tx, &records[i], now); err != nil {
				return err
			}
		}
		return nil
	})
}

// Save upserts a single record by id. CachedAt is stamped on write.
func (r *SQLiteRepository) Save(ctx context.Context, record *models.Story) error {
	return upsert(ctx, r.db, record, time.Now())
}

func upsert(ctx context.Context, db dbx.DBTX, record *models.Story, now time.Time) error {
	cachedAt := now
	record.CachedAt = &cachedAt

	var lat, lon sql.NullFloat64
	if record.Latitude != nil {
		lat = sql.NullFloat64{Float64: *record.Latitude, Valid: true}
	}
	if record.Longitude != nil {
		lon = sql.NullFloat64{Float64: *record.Longitude, Valid: true}
	}

	query := `INSERT INTO stories (id, author_name, description, photo_url, lat, lon, has_location, created_at, cached_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET author_name = excluded.author_name,
				description = excluded.description,
				photo_url = excluded.photo_url,
				lat = excluded.lat,
				lon = excluded.lon,
				has_location = excluded.has_location,
				created_at = excluded.created_at,
				cached_at = excluded.cached_at
	`
	_, err := db.ExecContext(ctx, query,
		record.ID, record.AuthorName, record.Description, record.PhotoURL,
		lat, lon, record.HasLocation(),
		dbx.FormatTime(record.CreatedAt), dbx.FormatTime(cachedAt))
	if err != nil {
		return fmt.Errorf("failed to upsert story: %w", err)
	}
	return nil
}

// GetByID returns a single cached record or common.ErrNotFound.
func (r *SQLiteRepository) GetByID(ctx context.Context, id string) (*models.Story, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, author_name, description, photo_url, lat, lon, created_at, cached_at FROM stories WHERE id = ?`, id)

	record, err := scan(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get story: %w", err)
	}
	return record, nil
}

// GetAll lists every cached record, oldest first.
func (r *SQLiteRepository) GetAll(ctx context.Context) ([]models.Story, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, author_name, description, photo_url, lat, lon, created_at, cached_at FROM stories ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("failed to select stories: %w", err)
	}
	defer rows.Close()

	var result []models.Story
	for rows.Next() {
		record, err := scan(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *record)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *SQLiteRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM stories`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count stories: %w", err)
	}
	return n, nil
}

func (r *SQLiteRepository) Clear(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM stories`); err != nil {
		return fmt.Errorf("failed to clear stories: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scan(row rowScanner) (*models.Story, error) {
	var s models.Story
	var lat, lon sql.NullFloat64
	var createdAt, cachedAt string

	err := row.Scan(&s.ID, &s.AuthorName, &s.Description, &s.PhotoURL, &lat, &lon, &createdAt, &cachedAt)
	if err != nil {
		return nil, err
	}

	if lat.Valid {
		s.Latitude = &lat.Float64
	}
	if lon.Valid {
		s.Longitude = &lon.Float64
	}
	if s.CreatedAt, err = dbx.ParseTime(createdAt); err != nil {
		return nil, fmt.Errorf("bad created_at: %w", err)
	}
	t, err := dbx.ParseTime(cachedAt)
	if err != nil {
		return nil, fmt.Errorf("bad cached_at: %w", err)
	}
	s.CachedAt = &t
	return &s, nil
}
