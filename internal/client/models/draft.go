package models

import "time"

// DraftStatus is the lifecycle state of an offline draft.
type DraftStatus string

const (
	// DraftStatusPending — saved locally, not yet accepted by the API.
	DraftStatusPending DraftStatus = "pending"
	// DraftStatusUploaded — accepted by the API; kept for a retention
	// window, then purged by cleanup.
	DraftStatusUploaded DraftStatus = "uploaded"
	// DraftStatusFailed — replay failed too many times; parked so it no
	// longer blocks or pads every drain. Surfaced to the user instead.
	DraftStatusFailed DraftStatus = "failed"
)

// Draft is a locally created story waiting to be replayed against the API.
// LocalID is assigned by the store and is monotonic, which gives drains
// their FIFO order. RequestID is minted once at save time and sent with
// every replay attempt so the server can deduplicate resubmissions.
type Draft struct {
	LocalID     int64
	RequestID   string
	Description string
	Photo       []byte
	PhotoName   string
	Latitude    *float64
	Longitude   *float64
	Status      DraftStatus
	Attempts    int
	CreatedAt   time.Time
	UpdatedAt   time.Time
	UploadedAt  *time.Time
}

// Payload rebuilds the upload payload from the stored draft.
func (d *Draft) Payload() StoryPayload {
	return StoryPayload{
		Description: d.Description,
		Photo:       d.Photo,
		PhotoName:   d.PhotoName,
		Latitude:    d.Latitude,
		Longitude:   d.Longitude,
	}
}
