// Package favorites persists the user's pinned stories. Favorites are a
// purely local concept: they behave identically online and offline and
// have no remote counterpart.
package favorites

import (
	"context"

	"github.com/dmitrijs2005/storykeeper/internal/client/models"
)

// Repository stores favorite entries keyed by story id.
//
// Contract:
//   - Put: upsert; re-adding a story refreshes the snapshot and AddedAt
//     rather than erroring.
//   - Delete: remove by story id; deleting a missing entry is a no-op.
//   - GetAll: all favorites, most recently added first.
//   - Exists: membership check.
//   - Count: number of entries.
type Repository interface {
	Put(ctx context.Context, fav *models.Favorite) error
	Delete(ctx context.Context, storyID string) error
	GetAll(ctx context.Context) ([]models.Favorite, error)
	Exists(ctx context.Context, storyID string) (bool, error)
	Count(ctx context.Context) (int, error)
}
