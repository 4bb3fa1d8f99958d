// Package sync coordinates the offline-first story workflow: creating
// stories with a draft fallback, draining queued drafts when connectivity
// returns, serving story lists write-through from the local cache, and
// tracking the online/offline state.
package sync

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	stdsync "sync"
	"sync/atomic"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"

	"github.com/dmitrijs2005/storykeeper/internal/client/gateway"
	"github.com/dmitrijs2005/storykeeper/internal/client/models"
	"github.com/dmitrijs2005/storykeeper/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/storykeeper/internal/client/store"
	"github.com/dmitrijs2005/storykeeper/internal/common"
	"github.com/dmitrijs2005/storykeeper/internal/logging"
)

const (
	// cacheKeyStoriesList is the api_cache key for the serialized story
	// list response.
	cacheKeyStoriesList = "stories_list"

	defaultSyncTimeout      = 10 * time.Second
	defaultProbeTimeout     = 3 * time.Second
	defaultCacheTTL         = time.Hour
	defaultMaxDraftAttempts = 10
	defaultDraftRetention   = 7 * 24 * time.Hour
	defaultPageSize         = 30
)

// Options tune the controller. Zero values take the defaults above.
type Options struct {
	// SyncTimeout bounds each draft replay during a drain so a single
	// dead request cannot stall the whole queue.
	SyncTimeout time.Duration

	// ProbeTimeout bounds the watcher's reachability ping.
	ProbeTimeout time.Duration

	// CacheTTL is the freshness window of the cached story list.
	CacheTTL time.Duration

	// MaxDraftAttempts parks a draft as failed after this many rejected
	// replays. Zero means the default; negative disables parking.
	MaxDraftAttempts int

	// DraftRetention is how long uploaded drafts are kept before Cleanup
	// purges them.
	DraftRetention time.Duration

	// PageSize is how many stories a refresh requests.
	PageSize int

	// TokenSource supplies the current auth token for drains triggered
	// by connectivity changes. May be nil; then only explicit drains run.
	TokenSource func() string
}

func (o *Options) normalize() {
	if o.SyncTimeout <= 0 {
		o.SyncTimeout = defaultSyncTimeout
	}
	if o.ProbeTimeout <= 0 {
		o.ProbeTimeout = defaultProbeTimeout
	}
	if o.CacheTTL <= 0 {
		o.CacheTTL = defaultCacheTTL
	}
	if o.MaxDraftAttempts == 0 {
		o.MaxDraftAttempts = defaultMaxDraftAttempts
	} else if o.MaxDraftAttempts < 0 {
		o.MaxDraftAttempts = 0
	}
	if o.DraftRetention <= 0 {
		o.DraftRetention = defaultDraftRetention
	}
	if o.PageSize <= 0 {
		o.PageSize = defaultPageSize
	}
}

// CreateOutcome reports what happened to a submitted story: published
// remotely (StoryID set) or queued locally (Queued, LocalID set).
type CreateOutcome struct {
	Queued  bool
	LocalID int64
	StoryID string
	Message string
}

// StoriesResult is a story list ready for display. FromCache marks data
// served from the local store; Reason explains an empty result that is not
// an error.
type StoriesResult struct {
	Stories   []models.Story
	FromCache bool
	Reason    string
}

// DrainResult counts the per-draft outcomes of one drain pass.
type DrainResult struct {
	Synced int
	Failed int
}

// Controller owns the sync workflow. Repos may be nil: the controller then
// runs degraded, serving online reads only. All state beyond the store is
// transient and rebuilt on startup.
type Controller struct {
	repos *store.Repositories
	gw    gateway.Client
	log   logging.Logger
	opts  Options

	isOnline atomic.Bool

	// mu guards syncing, the only mutual exclusion in the controller:
	// at most one drain runs at a time.
	mu      stdsync.Mutex
	syncing bool

	subMu stdsync.Mutex
	subs  []func(Event)

	nowFn func() time.Time
}

// New builds a controller. repos may be nil for degraded operation.
func New(repos *store.Repositories, gw gateway.Client, log logging.Logger, opts Options) *Controller {
	opts.normalize()
	return &Controller{
		repos: repos,
		gw:    gw,
		log:   log,
		opts:  opts,
		nowFn: time.Now,
	}
}

// Subscribe registers an observer. Events are delivered synchronously in
// the goroutine that caused them.
func (c *Controller) Subscribe(fn func(Event)) {
	c.subMu.Lock()
	defer c.subMu.Unlock()
	c.subs = append(c.subs, fn)
}

func (c *Controller) publish(ev Event) {
	c.subMu.Lock()
	subs := make([]func(Event), len(c.subs))
	copy(subs, c.subs)
	c.subMu.Unlock()
	for _, fn := range subs {
		fn(ev)
	}
}

// IsOnline reports the current connectivity assumption.
func (c *Controller) IsOnline() bool {
	return c.isOnline.Load()
}

// SetOnline records a connectivity transition. Entering Online triggers a
// drain when a token source is configured; entering Offline only notifies.
func (c *Controller) SetOnline(online bool) {
	if c.isOnline.Swap(online) == online {
		return
	}
	c.log.Info(context.Background(), "connectivity changed", "online", online)
	c.publish(ConnectivityChanged{IsOnline: online})

	if online && c.opts.TokenSource != nil {
		if token := c.opts.TokenSource(); token != "" {
			if _, err := c.DrainPendingDrafts(context.Background(), token); err != nil && !errors.Is(err, common.ErrAlreadySyncing) {
				c.log.Warn(context.Background(), "drain after reconnect failed", "error", err)
			}
		}
	}
}

// CreateStory validates and submits a new story. When the network is
// unreachable, or the controller believes it is offline, the story is
// saved as a pending draft instead. Validation failures never produce a
// draft; auth, validation and server rejections surface to the caller.
func (c *Controller) CreateStory(ctx context.Context, payload models.StoryPayload, token string) (*CreateOutcome, error) {
	if err := payload.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrValidation, err)
	}

	// Minted once, reused for every replay of the same story so the
	// server can deduplicate resubmissions.
	requestID := uuid.NewString()

	if c.IsOnline() {
		res, err := c.gw.CreateStory(ctx, payload, requestID, token)
		if err == nil {
			c.log.Info(ctx, "story published", "story_id", res.StoryID)
			return &CreateOutcome{StoryID: res.StoryID, Message: res.Message}, nil
		}
		if !errors.Is(err, common.ErrNetworkUnreachable) {
			return nil, err
		}
		c.SetOnline(false)
	}

	return c.queueDraft(ctx, payload, requestID)
}

func (c *Controller) queueDraft(ctx context.Context, payload models.StoryPayload, requestID string) (*CreateOutcome, error) {
	if c.repos == nil {
		return nil, fmt.Errorf("%w: cannot queue draft", common.ErrStorageUnavailable)
	}

	draft := &models.Draft{
		RequestID:   requestID,
		Description: payload.Description,
		Photo:       payload.Photo,
		PhotoName:   payload.PhotoName,
		Latitude:    payload.Latitude,
		Longitude:   payload.Longitude,
		Status:      models.DraftStatusPending,
		CreatedAt:   c.nowFn(),
	}
	localID, err := c.repos.Drafts.Save(ctx, draft)
	if err != nil {
		return nil, err
	}

	c.log.Info(ctx, "story queued for sync", "local_id", localID)
	c.publish(StoryQueued{LocalID: localID})
	return &CreateOutcome{
		Queued:  true,
		LocalID: localID,
		Message: "saved offline, will sync when connection returns",
	}, nil
}

// DrainPendingDrafts replays pending drafts against the API in creation
// order. At most one drain runs at a time; a concurrent call gets
// ErrAlreadySyncing. A successfully replayed draft is marked uploaded,
// never deleted here. A rejected draft stays pending (its attempt counter
// is bumped) and the drain moves on; an auth failure or a dead network
// stops the pass since the remaining drafts would fail the same way.
func (c *Controller) DrainPendingDrafts(ctx context.Context, token string) (*DrainResult, error) {
	c.mu.Lock()
	if c.syncing {
		c.mu.Unlock()
		return nil, common.ErrAlreadySyncing
	}
	c.syncing = true
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		c.syncing = false
		c.mu.Unlock()
	}()

	if c.repos == nil {
		return nil, fmt.Errorf("%w: no draft queue", common.ErrStorageUnavailable)
	}

	pending, err := c.repos.Drafts.ListByStatus(ctx, models.DraftStatusPending)
	if err != nil {
		return nil, err
	}
	if len(pending) == 0 {
		return &DrainResult{}, nil
	}

	c.log.Info(ctx, "draining drafts", "pending", len(pending))

	res := &DrainResult{}
	for i := range pending {
		draft := &pending[i]
		if ctx.Err() != nil {
			return res, ctx.Err()
		}

		rctx, cancel := context.WithTimeout(ctx, c.opts.SyncTimeout)
		_, err := c.gw.CreateStory(rctx, draft.Payload(), draft.RequestID, token)
		cancel()

		switch {
		case err == nil:
			if err := c.repos.Drafts.MarkUploaded(ctx, draft.LocalID); err != nil {
				c.log.Error(ctx, "mark uploaded failed", "local_id", draft.LocalID, "error", err)
			}
			res.Synced++

		case errors.Is(err, common.ErrNetworkUnreachable):
			// The network dropped mid-drain; the rest would fail too.
			// The draft keeps its attempt count: nothing rejected it.
			c.SetOnline(false)
			c.finishDrain(ctx, res)
			return res, nil

		case errors.Is(err, common.ErrUnauthorized):
			c.finishDrain(ctx, res)
			return res, err

		default:
			c.log.Warn(ctx, "draft replay rejected", "local_id", draft.LocalID, "error", err)
			if err := c.repos.Drafts.RecordAttempt(ctx, draft.LocalID, c.opts.MaxDraftAttempts); err != nil {
				c.log.Error(ctx, "record attempt failed", "local_id", draft.LocalID, "error", err)
			}
			res.Failed++
		}
	}

	c.finishDrain(ctx, res)
	return res, nil
}

func (c *Controller) finishDrain(ctx context.Context, res *DrainResult) {
	if res.Synced > 0 {
		stamp := []byte(c.nowFn().UTC().Format(time.RFC3339Nano))
		if err := c.repos.Metadata.Set(ctx, metadata.KeyLastSyncAt, stamp); err != nil {
			c.log.Warn(ctx, "recording last sync time failed", "error", err)
		}
	}
	c.log.Info(ctx, "drain finished", "synced", res.Synced, "failed", res.Failed)
	c.publish(SyncCompleted{Synced: res.Synced, Failed: res.Failed})
}

// GetStoriesForDisplay returns the story list, network-first. A fresh
// fetch is written through to the local cache before it is returned, so a
// later offline session sees exactly what was last displayed. When the
// fetch fails or the controller is offline, cached stories are served
// marked FromCache. No cache and no network is an empty result with
// Reason set, not an error. Auth failures surface: stale data must not
// mask an expired session.
func (c *Controller) GetStoriesForDisplay(ctx context.Context, token string) (*StoriesResult, error) {
	if c.IsOnline() {
		fresh, err := c.gw.ListStories(ctx, 1, c.opts.PageSize, true, token)
		if err == nil {
			c.writeThrough(ctx, fresh)
			c.publish(StoriesUpdated{Count: len(fresh)})
			return &StoriesResult{Stories: fresh}, nil
		}
		if errors.Is(err, common.ErrUnauthorized) {
			return nil, err
		}
		if errors.Is(err, common.ErrNetworkUnreachable) {
			c.SetOnline(false)
		}
		c.log.Warn(ctx, "story fetch failed, falling back to cache", "error", err)
	}

	return c.storiesFromCache(ctx)
}

func (c *Controller) writeThrough(ctx context.Context, fresh []models.Story) {
	if c.repos == nil {
		return
	}
	if err := c.repos.Stories.ReplaceAll(ctx, fresh); err != nil {
		c.log.Warn(ctx, "caching stories failed", "error", err)
	}
	if body, err := json.Marshal(fresh); err == nil {
		if err := c.repos.APICache.SetWithTTL(ctx, cacheKeyStoriesList, body, c.opts.CacheTTL); err != nil {
			c.log.Warn(ctx, "caching story list response failed", "error", err)
		}
	}
}

func (c *Controller) storiesFromCache(ctx context.Context) (*StoriesResult, error) {
	if c.repos == nil {
		return &StoriesResult{FromCache: true, Reason: "local storage unavailable"}, nil
	}
	cached, err := c.repos.Stories.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	if len(cached) == 0 {
		// The stories table can lag behind the raw cached response (a
		// partial write-through); fall back to it before giving up.
		if entry, err := c.repos.APICache.GetIfNotExpired(ctx, cacheKeyStoriesList); err == nil {
			if jsonErr := json.Unmarshal(entry.Value, &cached); jsonErr != nil {
				c.log.Warn(ctx, "cached story list unreadable", "error", jsonErr)
			}
		}
	}
	res := &StoriesResult{Stories: cached, FromCache: true}
	if len(cached) == 0 {
		res.Reason = "offline and no cached stories"
	}
	return res, nil
}

// AddFavorite pins a story. Favorites are purely local: the operation is
// identical online and offline. Re-adding refreshes the stored snapshot.
func (c *Controller) AddFavorite(ctx context.Context, story models.Story) error {
	if c.repos == nil {
		return common.ErrStorageUnavailable
	}
	return c.repos.Favorites.Put(ctx, &models.Favorite{
		StoryID: story.ID,
		Story:   story,
		AddedAt: c.nowFn(),
	})
}

// RemoveFavorite unpins a story. Removing a story that is not pinned is a
// no-op.
func (c *Controller) RemoveFavorite(ctx context.Context, storyID string) error {
	if c.repos == nil {
		return common.ErrStorageUnavailable
	}
	return c.repos.Favorites.Delete(ctx, storyID)
}

// ListFavorites returns pinned stories, most recently added first.
func (c *Controller) ListFavorites(ctx context.Context) ([]models.Favorite, error) {
	if c.repos == nil {
		return nil, common.ErrStorageUnavailable
	}
	return c.repos.Favorites.GetAll(ctx)
}

// IsFavorite reports whether a story is pinned.
func (c *Controller) IsFavorite(ctx context.Context, storyID string) (bool, error) {
	if c.repos == nil {
		return false, common.ErrStorageUnavailable
	}
	return c.repos.Favorites.Exists(ctx, storyID)
}

// PendingCount is the number of drafts waiting for replay.
func (c *Controller) PendingCount(ctx context.Context) (int, error) {
	if c.repos == nil {
		return 0, common.ErrStorageUnavailable
	}
	return c.repos.Drafts.CountByStatus(ctx, models.DraftStatusPending)
}

// ListFailedDrafts returns drafts parked after too many rejected replays,
// so the user can be told about them instead of losing the stories
// silently.
func (c *Controller) ListFailedDrafts(ctx context.Context) ([]models.Draft, error) {
	if c.repos == nil {
		return nil, common.ErrStorageUnavailable
	}
	return c.repos.Drafts.ListByStatus(ctx, models.DraftStatusFailed)
}

// Cleanup purges uploaded drafts past the retention window and sweeps
// expired cache rows. Best effort: failures are logged, never fatal.
func (c *Controller) Cleanup(ctx context.Context, now time.Time) {
	if c.repos == nil {
		return
	}
	if n, err := c.repos.Drafts.DeleteUploadedBefore(ctx, now.Add(-c.opts.DraftRetention)); err != nil {
		c.log.Warn(ctx, "draft retention purge failed", "error", err)
	} else if n > 0 {
		c.log.Info(ctx, "purged uploaded drafts", "count", n)
	}
	if n, err := c.repos.APICache.DeleteExpired(ctx, now); err != nil {
		c.log.Warn(ctx, "cache sweep failed", "error", err)
	} else if n > 0 {
		c.log.Debug(ctx, "swept expired cache rows", "count", n)
	}
}

// StartWatcher probes API reachability on a timer and feeds SetOnline.
// While the API stays unreachable the probe interval backs off
// exponentially; the first success resets it. Blocks until ctx is done.
func (c *Controller) StartWatcher(ctx context.Context, interval time.Duration) {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = interval
	bo.MaxInterval = 8 * interval
	bo.MaxElapsedTime = 0
	bo.Reset()

	timer := time.NewTimer(interval)
	defer timer.Stop()

	for {
		select {
		case <-timer.C:
			pctx, cancel := context.WithTimeout(ctx, c.opts.ProbeTimeout)
			err := c.gw.Ping(pctx)
			cancel()

			if err != nil {
				c.SetOnline(false)
				timer.Reset(bo.NextBackOff())
			} else {
				bo.Reset()
				c.SetOnline(true)
				timer.Reset(interval)
			}

		case <-ctx.Done():
			return
		}
	}
}
