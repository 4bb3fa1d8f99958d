package cli

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/storykeeper/internal/client/gateway"
	"github.com/dmitrijs2005/storykeeper/internal/client/models"
	"github.com/dmitrijs2005/storykeeper/internal/client/store"
	"github.com/dmitrijs2005/storykeeper/internal/client/sync"
	"github.com/dmitrijs2005/storykeeper/internal/logging"
)

type stubGateway struct{}

func (stubGateway) ListStories(ctx context.Context, page, size int, withLocation bool, token string) ([]models.Story, error) {
	return nil, nil
}

func (stubGateway) CreateStory(ctx context.Context, payload models.StoryPayload, requestID, token string) (*gateway.CreateResult, error) {
	return &gateway.CreateResult{StoryID: "remote-1"}, nil
}

func (stubGateway) Login(ctx context.Context, email, password string) (*gateway.Session, error) {
	return &gateway.Session{Token: "token"}, nil
}

func (stubGateway) Register(ctx context.Context, name, email, password string) error { return nil }

func (stubGateway) Ping(ctx context.Context) error { return nil }

func (stubGateway) Close() error { return nil }

// newStatusApp builds an App over a fresh store, bypassing NewApp so the
// test controls the data directory and output writer.
func newStatusApp(t *testing.T) (*App, *bytes.Buffer, *store.Repositories) {
	t.Helper()
	ctx := context.Background()

	s, err := store.Open(ctx, filepath.Join(t.TempDir(), "stories.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	log := logging.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
	out := &bytes.Buffer{}
	a := &App{
		log:   log,
		store: s,
		gw:    stubGateway{},
		out:   out,
	}
	a.controller = sync.New(s.Repos, a.gw, log, sync.Options{TokenSource: a.currentToken})
	return a, out, s.Repos
}

func TestStatus_ReportsRowCounts(t *testing.T) {
	ctx := context.Background()
	a, out, repos := newStatusApp(t)

	require.NoError(t, repos.Stories.Save(ctx, &models.Story{ID: "s1", AuthorName: "ann", Description: "one", CreatedAt: time.Now()}))
	require.NoError(t, repos.Stories.Save(ctx, &models.Story{ID: "s2", AuthorName: "bob", Description: "two", CreatedAt: time.Now()}))

	_, err := repos.Drafts.Save(ctx, &models.Draft{
		RequestID:   "req-1",
		Description: "queued while offline",
		Photo:       []byte{0xFF, 0xD8},
		PhotoName:   "p.jpg",
		Status:      models.DraftStatusPending,
	})
	require.NoError(t, err)

	require.NoError(t, repos.Favorites.Put(ctx, &models.Favorite{
		StoryID: "s1",
		Story:   models.Story{ID: "s1", AuthorName: "ann", Description: "one"},
		AddedAt: time.Now(),
	}))

	require.NoError(t, repos.APICache.SetWithTTL(ctx, "stories_list", []byte("[]"), time.Hour))

	a.status(ctx)

	got := out.String()
	assert.Contains(t, got, "stories:          2")
	assert.Contains(t, got, "drafts:           1")
	assert.Contains(t, got, "favorites:        1")
	assert.Contains(t, got, "cached responses: 1")
	assert.Contains(t, got, "Pending drafts: 1")
}

func TestStatus_DegradedStoreReportsOnlineOnly(t *testing.T) {
	log := logging.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
	out := &bytes.Buffer{}
	a := &App{log: log, gw: stubGateway{}, out: out}
	a.controller = sync.New(nil, a.gw, log, sync.Options{})

	a.status(context.Background())

	assert.Contains(t, out.String(), "Local store: unavailable (online-only)")
}
