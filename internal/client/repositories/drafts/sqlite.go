package drafts

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
}

func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

const draftColumns = `local_id, request_id, description, photo, photo_name, lat, lon, status, attempts, created_at, updated_at, uploaded_at`

// Save inserts a new draft and returns its assigned local id. Status
// defaults to pending; created_at/updated_at are stamped here.
func (r *SQLiteRepository) Save(ctx context.Context, d *models.Draft) (int64, error) {
	now := time.Now()
	d.CreatedAt = now
	d.UpdatedAt = now
	if d.Status == "" {
		d.Status = models.DraftStatusPending
	}

	var lat, lon sql.NullFloat64
	if d.Latitude != nil {
		lat = sql.NullFloat64{Float64: *d.Latitude, Valid: true}
	}
	if d.Longitude != nil {
		lon = sql.NullFloat64{Float64: *d.Longitude, Valid: true}
	}

	res, err := r.db.ExecContext(ctx, `
		INSERT INTO drafts (request_id, description, photo, photo_name, lat, lon, status, attempts, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, 0, ?, ?)`,
		d.RequestID, d.Description, d.Photo, d.PhotoName, lat, lon, string(d.Status),
		dbx.FormatTime(now), dbx.FormatTime(now))
	if err != nil {
		return 0, fmt.Errorf("failed to insert draft: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to read draft id: %w", err)
	}
	d.LocalID = id
	return id, nil
}

func (r *SQLiteRepository) GetByID(ctx context.Context, localID int64) (*models.Draft, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+draftColumns+` FROM drafts WHERE local_id = ?`, localID)
	d, err := scan(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get draft: %w", err)
	}
	return d, nil
}

func (r *SQLiteRepository) GetAll(ctx context.Context) ([]models.Draft, error) {
	return r.list(ctx, `SELECT `+draftColumns+` FROM drafts ORDER BY local_id`)
}

func (r *SQLiteRepository) ListByStatus(ctx context.Context, status models.DraftStatus) ([]models.Draft, error) {
	return r.list(ctx, `SELECT `+draftColumns+` FROM drafts WHERE status = ? ORDER BY local_id`, string(status))
}

func (r *SQLiteRepository) list(ctx context.Context, query string, args ...any) ([]models.Draft, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to select drafts: %w", err)
	}
	defer rows.Close()

	var result []models.Draft
	for rows.Next() {
		d, err := scan(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// MarkUploaded transitions a pending draft to uploaded. The WHERE clause
// makes the transition one-way and idempotent: an already-uploaded draft is
// not touched again, and uploaded never reverts to pending.
func (r *SQLiteRepository) MarkUploaded(ctx context.Context, localID int64) error {
	now := dbx.FormatTime(time.Now())
	res, err := r.db.ExecContext(ctx, `
		UPDATE drafts SET status = ?, uploaded_at = ?, updated_at = ?
		WHERE local_id = ? AND status = ?`,
		string(models.DraftStatusUploaded), now, now, localID, string(models.DraftStatusPending))
	if err != nil {
		return fmt.Errorf("failed to mark draft uploaded: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		// either missing or already uploaded; distinguish for the caller
		if _, err := r.GetByID(ctx, localID); err != nil {
			return err
		}
	}
	return nil
}

// RecordAttempt increments the attempt counter and parks the draft as
// failed once it reaches maxAttempts (maxAttempts <= 0 disables parking).
func (r *SQLiteRepository) RecordAttempt(ctx context.Context, localID int64, maxAttempts int) error {
	now := dbx.FormatTime(time.Now())
	_, err := r.db.ExecContext(ctx, `
		UPDATE drafts SET attempts = attempts + 1, updated_at = ?,
			status = CASE WHEN ? > 0 AND attempts + 1 >= ? AND status = ? THEN ? ELSE status END
		WHERE local_id = ?`,
		now, maxAttempts, maxAttempts,
		string(models.DraftStatusPending), string(models.DraftStatusFailed), localID)
	if err != nil {
		return fmt.Errorf("failed to record draft attempt: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) Delete(ctx context.Context, localID int64) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM drafts WHERE local_id = ?`, localID); err != nil {
		return fmt.Errorf("failed to delete draft: %w", err)
	}
	return nil
}

// DeleteUploadedBefore purges uploaded drafts whose upload happened before
// cutoff. Returns the number of purged rows.
func (r *SQLiteRepository) DeleteUploadedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM drafts WHERE status = ? AND uploaded_at IS NOT NULL AND uploaded_at < ?`,
		string(models.DraftStatusUploaded), dbx.FormatTime(cutoff))
	if err != nil {
		return 0, fmt.Errorf("failed to purge uploaded drafts: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	return n, nil
}

func (r *SQLiteRepository) CountByStatus(ctx context.Context, status models.DraftStatus) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM drafts WHERE status = ?`, string(status)).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count drafts: %w", err)
	}
	return n, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scan(row rowScanner) (*models.Draft, error) {
	var d models.Draft
	var lat, lon sql.NullFloat64
	var status, createdAt, updatedAt string
	var uploadedAt sql.NullString

	err := row.Scan(&d.LocalID, &d.RequestID, &d.Description, &d.Photo, &d.PhotoName,
		&lat, &lon, &status, &d.Attempts, &createdAt, &updatedAt, &uploadedAt)
	if err != nil {
		return nil, err
	}

	d.Status = models.DraftStatus(status)
	if lat.Valid {
		d.Latitude = &lat.Float64
	}
	if lon.Valid {
		d.Longitude = &lon.Float64
	}
	if d.CreatedAt, err = dbx.ParseTime(createdAt); err != nil {
		return nil, fmt.Errorf("bad created_at: %w", err)
	}
	if d.UpdatedAt, err = dbx.ParseTime(updatedAt); err != nil {
		return nil, fmt.Errorf("bad updated_at: %w", err)
	}
	if uploadedAt.Valid {
		t, err := dbx.ParseTime(uploadedAt.String)
		if err != nil {
			return nil, fmt.Errorf("bad uploaded_at: %w", err)
		}
		d.UploadedAt = &t
	}
	return &d, nil
}
