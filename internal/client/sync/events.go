package sync

// Event is a notification published by the Controller. The set is closed:
// observers switch on the concrete types below.
type Event interface {
	isEvent()
}

// StoriesUpdated fires after the local story cache changes, either from a
// fresh fetch or a completed drain.
type StoriesUpdated struct {
	Count     int
	FromCache bool
}

// StoryQueued fires when a story could not be submitted and was saved as a
// pending draft instead.
type StoryQueued struct {
	LocalID int64
}

// SyncCompleted fires at the end of a drain with the per-draft outcome
// counts.
type SyncCompleted struct {
	Synced int
	Failed int
}

// ConnectivityChanged fires on every Online/Offline transition.
type ConnectivityChanged struct {
	IsOnline bool
}

func (StoriesUpdated) isEvent()      {}
func (StoryQueued) isEvent()         {}
func (SyncCompleted) isEvent()       {}
func (ConnectivityChanged) isEvent() {}
