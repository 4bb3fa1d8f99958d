// Package stories persists the write-through cache of published stories.
package stories

import (
	"context"

	"github.com/dmitrijs2005/storykeeper/internal/client/models"
)

// Repository stores cached story records.
//
// Contract:
//   - ReplaceAll: atomically swap the whole cached set for a fresh fetch.
//   - Save: upsert a single record by id.
//   - GetByID: fetch one record; common.ErrNotFound when absent.
//   - GetAll: all cached records, oldest first by creation time.
//   - Count: number of cached records.
//   - Clear: drop every cached record.
//
// Records are validated before they reach the repository; the location
// invariant (both coordinates or neither) is assumed to hold.
type Repository interface {
	ReplaceAll(ctx context.Context, records []models.Story) error
	Save(ctx context.Context, record *models.Story) error
	GetByID(ctx context.Context, id string) (*models.Story, error)
	GetAll(ctx context.Context) ([]models.Story, error)
	Count(ctx context.Context) (int, error)
	Clear(ctx context.Context) error
}
