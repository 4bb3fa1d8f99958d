package sync

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/dmitrijs2005/storykeeper/internal/common"
)

// Event names the cache proxy emits on its /events stream. The strings
// are part of the proxy wire protocol and must stay in step with the
// proxy's own constants.
const (
	proxyEventConnectivityRestored = "connectivity-restored"
	proxyEventSyncRequested        = "sync-requested"
)

// ListenProxyEvents subscribes to the cache proxy's server-sent event
// stream at eventsURL and blocks until ctx is cancelled. A
// connectivity-restored event flips the controller online; a
// sync-requested event additionally drains the pending draft queue.
// Dropped connections are retried with exponential backoff.
func (c *Controller) ListenProxyEvents(ctx context.Context, eventsURL string) {
	bo := backoff.NewExponentialBackOff()
	bo.MaxElapsedTime = 0
	bo.Reset()

	for {
		connected, err := c.consumeEvents(ctx, eventsURL)
		if ctx.Err() != nil {
			return
		}
		if err != nil {
			c.log.Debug(ctx, "proxy event stream interrupted", "url", eventsURL, "error", err)
		}
		if connected {
			bo.Reset()
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(bo.NextBackOff()):
		}
	}
}

// consumeEvents holds one connection to the event stream open and
// dispatches each named event as it arrives. It returns whether the
// stream was reached at all, so the caller can reset its backoff.
func (c *Controller) consumeEvents(ctx context.Context, eventsURL string) (bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, eventsURL, nil)
	if err != nil {
		return false, err
	}
	req.Header.Set("Accept", "text/event-stream")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return false, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return false, fmt.Errorf("event stream: unexpected status %d", resp.StatusCode)
	}

	sc := bufio.NewScanner(resp.Body)
	for sc.Scan() {
		name, ok := strings.CutPrefix(sc.Text(), "event: ")
		if !ok {
			continue
		}
		c.handleProxyEvent(ctx, name)
	}
	return true, sc.Err()
}

func (c *Controller) handleProxyEvent(ctx context.Context, name string) {
	switch name {
	case proxyEventConnectivityRestored:
		c.SetOnline(true)

	case proxyEventSyncRequested:
		// The proxy only requests a sync once the upstream is reachable
		// again, so the transition itself may already have drained.
		c.SetOnline(true)

		var token string
		if c.opts.TokenSource != nil {
			token = c.opts.TokenSource()
		}
		if token == "" {
			return
		}
		if _, err := c.DrainPendingDrafts(ctx, token); err != nil && !errors.Is(err, common.ErrAlreadySyncing) {
			c.log.Warn(ctx, "sync requested by proxy failed", "error", err)
		}
	}
}
