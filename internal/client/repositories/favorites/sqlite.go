package favorites

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/dmitrijs2005/storykeeper/internal/dbx"

	"github.com/dmitrijs2005/storykeeper/internal/client/models"
)

// SQLiteRepository implements Repository over a SQLite database. The story
// snapshot is stored as a JSON document; this collection is read rarely
// and whole, so no per-field columns are needed.
type SQLiteRepository struct {
	db dbx.DBTX
}

func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func (r *SQLiteRepository) Put(ctx context.Context, fav *models.Favorite) error {
	if fav.AddedAt.IsZero() {
		fav.AddedAt = time.Now()
	}
	snapshot, err := json.Marshal(fav.Story)
	if err != nil {
		return fmt.Errorf("failed to encode favorite snapshot: %w", err)
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO favorites (story_id, story, added_at) VALUES (?, ?, ?)
		ON CONFLICT(story_id) DO UPDATE SET story = excluded.story, added_at = excluded.added_at`,
		fav.StoryID, snapshot, dbx.FormatTime(fav.AddedAt))
	if err != nil {
		return fmt.Errorf("failed to upsert favorite: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) Delete(ctx context.Context, storyID string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM favorites WHERE story_id = ?`, storyID); err != nil {
		return fmt.Errorf("failed to delete favorite: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) GetAll(ctx context.Context) ([]models.Favorite, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT story_id, story, added_at FROM favorites ORDER BY added_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to select favorites: %w", err)
	}
	defer rows.Close()

	var result []models.Favorite
	for rows.Next() {
		var fav models.Favorite
		var snapshot []byte
		var addedAt string
		if err := rows.Scan(&fav.StoryID, &snapshot, &addedAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(snapshot, &fav.Story); err != nil {
			return nil, fmt.Errorf("failed to decode favorite snapshot: %w", err)
		}
		if fav.AddedAt, err = dbx.ParseTime(addedAt); err != nil {
			return nil, fmt.Errorf("bad added_at: %w", err)
		}
		result = append(result, fav)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *SQLiteRepository) Exists(ctx context.Context, storyID string) (bool, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM favorites WHERE story_id = ?`, storyID).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("failed to check favorite: %w", err)
	}
	return n > 0, nil
}

func (r *SQLiteRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM favorites`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count favorites: %w", err)
	}
	return n, nil
}
