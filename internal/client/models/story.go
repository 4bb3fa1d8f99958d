// Package models defines the record types held in the local store: cached
// stories, offline drafts, favorites, and expiring cache entries.
package models

import (
	"errors"
	"strings"
	"time"
)

// MaxDescriptionLen is the longest description the remote API accepts.
const MaxDescriptionLen = 500

var (
	ErrEmptyDescription   = errors.New("description must not be empty")
	ErrDescriptionTooLong = errors.New("description exceeds 500 characters")
	ErrMissingPhoto       = errors.New("photo is required")
	ErrPartialLocation    = errors.New("latitude and longitude must be set together")
)

// Story is one published story, either fresh from the API or served from
// the local cache. Photo content lives behind PhotoURL once published;
// unsynced drafts carry raw bytes instead (see Draft).
type Story struct {
	ID          string     `json:"id"`
	AuthorName  string     `json:"name"`
	Description string     `json:"description"`
	PhotoURL    string     `json:"photoUrl"`
	Latitude    *float64   `json:"lat,omitempty"`
	Longitude   *float64   `json:"lon,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
	CachedAt    *time.Time `json:"cachedAt,omitempty"`
}

// HasLocation reports whether the story carries a coordinate pair. It is
// derived, never stored independently of the lat/lon fields.
func (s *Story) HasLocation() bool {
	return s.Latitude != nil && s.Longitude != nil
}

// Validate checks the location invariant: both coordinates or neither.
func (s *Story) Validate() error {
	if (s.Latitude == nil) != (s.Longitude == nil) {
		return ErrPartialLocation
	}
	return nil
}

// StoryPayload is the user-supplied content of a new story, before the
// server has assigned it an id.
type StoryPayload struct {
	Description string
	Photo       []byte
	PhotoName   string
	Latitude    *float64
	Longitude   *float64
}

// Validate applies the create-story rules. Validation happens before any
// persistence: an invalid payload never becomes a draft.
func (p *StoryPayload) Validate() error {
	desc := strings.TrimSpace(p.Description)
	if desc == "" {
		return ErrEmptyDescription
	}
	if len([]rune(desc)) > MaxDescriptionLen {
		return ErrDescriptionTooLong
	}
	if len(p.Photo) == 0 {
		return ErrMissingPhoto
	}
	if (p.Latitude == nil) != (p.Longitude == nil) {
		return ErrPartialLocation
	}
	return nil
}
