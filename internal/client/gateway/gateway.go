// Package gateway wraps the remote story API behind a narrow interface
// with uniform error classification. The sync layer never sees HTTP: it
// sees records and the sentinel error classes from internal/common.
package gateway

import (
	"context"

	"github.com/dmitrijs2005/storykeeper/internal/client/models"
)

// Client is the outbound API surface used by the sync controller.
//
// Error classification (match with errors.Is):
//   - common.ErrNetworkUnreachable — transport failure or timeout; the
//     only class the caller may treat as transient.
//   - common.ErrUnauthorized — 401/403, or a bearer token that is already
//     expired (detected locally, without a round trip).
//   - common.ErrValidation — 4xx rejection of the payload.
//   - common.ErrServerError — any 5xx.
type Client interface {
	ListStories(ctx context.Context, page, size int, withLocation bool, token string) ([]models.Story, error)
	CreateStory(ctx context.Context, payload models.StoryPayload, requestID, token string) (*CreateResult, error)
	Login(ctx context.Context, email, password string) (*Session, error)
	Register(ctx context.Context, name, email, password string) error
	Ping(ctx context.Context) error
	Close() error
}

// CreateResult is the server's acknowledgment of an accepted story.
type CreateResult struct {
	StoryID string
	Message string
}

// Session is the authenticated identity returned by Login. The token is a
// bearer JWT; it lives in process memory only and is never persisted.
type Session struct {
	UserID string
	Name   string
	Token  string
}
