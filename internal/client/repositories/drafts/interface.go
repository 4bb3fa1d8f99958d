// Package drafts persists offline story drafts awaiting replay.
package drafts

import (
	"context"
	"time"

	"github.com/dmitrijs2005/storykeeper/internal/client/models"
)

// Repository stores drafts. LocalID is assigned on Save and is monotonic:
// ListByStatus returns drafts in creation (FIFO) order, which is what the
// sync drain relies on to preserve the user's visible chronology.
//
// Contract:
//   - Save: insert a new draft, returning its local id.
//   - GetByID: fetch one draft; common.ErrNotFound when absent.
//   - GetAll: all drafts, FIFO order.
//   - ListByStatus: drafts filtered by status, FIFO order.
//   - MarkUploaded: pending → uploaded, exactly once; stamps uploaded_at.
//     A draft already uploaded is left untouched (uploaded → pending never
//     happens).
//   - RecordAttempt: bump the replay attempt counter; when the counter
//     reaches maxAttempts the draft is parked as failed.
//   - Delete: remove a draft by id.
//   - DeleteUploadedBefore: retention purge for uploaded drafts.
//   - CountByStatus: dashboard counters.
type Repository interface {
	Save(ctx context.Context, d *models.Draft) (int64, error)
	GetByID(ctx context.Context, localID int64) (*models.Draft, error)
	GetAll(ctx context.Context) ([]models.Draft, error)
	ListByStatus(ctx context.Context, status models.DraftStatus) ([]models.Draft, error)
	MarkUploaded(ctx context.Context, localID int64) error
	RecordAttempt(ctx context.Context, localID int64, maxAttempts int) error
	Delete(ctx context.Context, localID int64) error
	DeleteUploadedBefore(ctx context.Context, cutoff time.Time) (int64, error)
	CountByStatus(ctx context.Context, status models.DraftStatus) (int, error)
}
