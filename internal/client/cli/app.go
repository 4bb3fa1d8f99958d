package cli

import (
	"bufio"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	stdsync "sync"
	"time"

	"github.com/dmitrijs2005/storykeeper/internal/client/config"
	"github.com/dmitrijs2005/storykeeper/internal/client/gateway"
	"github.com/dmitrijs2005/storykeeper/internal/client/store"
	"github.com/dmitrijs2005/storykeeper/internal/client/sync"
	"github.com/dmitrijs2005/storykeeper/internal/common"
	"github.com/dmitrijs2005/storykeeper/internal/filex"
	"github.com/dmitrijs2005/storykeeper/internal/logging"
)

// dataSubDir is where the local database lives when no data directory is
// configured.
const dataSubDir = ".storykeeper"

// cleanupInterval is how often retention cleanup runs in the background.
const cleanupInterval = 24 * time.Hour

type Mode string

const (
	ModeOffline Mode = "offline"
	ModeOnline  Mode = "online"
)

// App wires the store, gateway and sync controller behind an interactive
// REPL. When the local store cannot be opened the app keeps running in
// degraded, online-only mode.
type App struct {
	config     *config.Config
	log        logging.Logger
	store      *store.Store
	gw         gateway.Client
	controller *sync.Controller

	mu       stdsync.Mutex
	token    string
	userName string

	reader *bufio.Reader
	out    io.Writer
}

func NewApp(cfg *config.Config, log logging.Logger) (*App, error) {
	ctx := context.Background()

	a := &App{
		config: cfg,
		log:    log,
		reader: bufio.NewReader(os.Stdin),
		out:    os.Stdout,
	}

	dataDir := cfg.DataDir
	if dataDir == "" {
		dir, err := filex.EnsureSubDir(dataSubDir)
		if err != nil {
			return nil, err
		}
		dataDir = dir
	}

	var repos *store.Repositories
	s, err := store.Open(ctx, filepath.Join(dataDir, "stories.db"))
	if err != nil {
		if !errors.Is(err, common.ErrStorageUnavailable) {
			return nil, err
		}
		// Degraded: no drafts, no offline reads, but the app still works.
		log.Warn(ctx, "local store unavailable, running online-only", "error", err)
	} else {
		a.store = s
		repos = s.Repos
	}

	a.gw = gateway.NewHTTPClient(cfg.APIBaseURL)

	a.controller = sync.New(repos, a.gw, log, sync.Options{
		SyncTimeout:      cfg.SyncTimeout,
		CacheTTL:         cfg.CacheTTL,
		MaxDraftAttempts: cfg.MaxDraftAttempts,
		PageSize:         cfg.PageSize,
		TokenSource:      a.currentToken,
	})

	return a, nil
}

func (a *App) currentToken() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.token
}

func (a *App) setSession(token, userName string) {
	a.mu.Lock()
	a.token = token
	a.userName = userName
	a.mu.Unlock()
}

func (a *App) isLoggedIn() bool {
	return a.currentToken() != ""
}

func (a *App) mode() Mode {
	if a.controller.IsOnline() {
		return ModeOnline
	}
	return ModeOffline
}

// Run starts the connectivity watcher, the retention cleanup loop and,
// when a proxy events URL is configured, the proxy event subscription,
// then blocks in the REPL until the user exits or ctx is cancelled.
func (a *App) Run(ctx context.Context) {
	defer a.Close()

	go a.controller.StartWatcher(ctx, a.config.OnlineCheckInterval)
	go a.cleanupLoop(ctx)
	if a.config.ProxyEventsURL != "" {
		go a.controller.ListenProxyEvents(ctx, a.config.ProxyEventsURL)
	}

	a.Root(ctx)
}

func (a *App) cleanupLoop(ctx context.Context) {
	a.controller.Cleanup(ctx, time.Now())

	ticker := time.NewTicker(cleanupInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			a.controller.Cleanup(ctx, time.Now())
		case <-ctx.Done():
			return
		}
	}
}

func (a *App) Close() {
	if a.store != nil {
		_ = a.store.Close()
	}
	if a.gw != nil {
		_ = a.gw.Close()
	}
}
