package models

import "time"

// Favorite wraps a denormalized snapshot of a story the user pinned.
// At most one entry exists per story id; re-adding refreshes both the
// snapshot and AddedAt.
type Favorite struct {
	StoryID string
	Story   Story
	AddedAt time.Time
}
