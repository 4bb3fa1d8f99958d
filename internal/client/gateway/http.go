package gateway

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-resty/resty/v2"

	"github.com/dmitrijs2005/storykeeper/internal/client/models"
	"github.com/dmitrijs2005/storykeeper/internal/common"
)

// requestIDHeader carries the draft's idempotency key on replayed creates
// so the server can deduplicate at-least-once submissions.
const requestIDHeader = "X-Request-Id"

// HTTPClient is the resty-backed implementation of Client.
type HTTPClient struct {
	http *resty.Client
}

// apiEnvelope is the common wrapper of every API response body.
type apiEnvelope struct {
	Error   bool   `json:"error"`
	Message string `json:"message"`
}

type listStoriesResponse struct {
	apiEnvelope
	ListStory []models.Story `json:"listStory"`
}

type createStoryResponse struct {
	apiEnvelope
	StoryID string `json:"storyId"`
}

type loginResponse struct {
	apiEnvelope
	LoginResult struct {
		UserID string `json:"userId"`
		Name   string `json:"name"`
		Token  string `json:"token"`
	} `json:"loginResult"`
}

// NewHTTPClient builds a client for the API at baseURL.
func NewHTTPClient(baseURL string) *HTTPClient {
	c := resty.New().
		SetBaseURL(baseURL).
		SetHeader("Accept", "application/json")
	return &HTTPClient{http: c}
}

func (c *HTTPClient) ListStories(ctx context.Context, page, size int, withLocation bool, token string) ([]models.Story, error) {
	if err := checkTokenNotExpired(token); err != nil {
		return nil, err
	}

	location := "0"
	if withLocation {
		location = "1"
	}

	var out listStoriesResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"page":     strconv.Itoa(page),
			"size":     strconv.Itoa(size),
			"location": location,
		}).
		SetAuthToken(token).
		SetResult(&out).
		SetError(&out.apiEnvelope).
		Get("/stories")
	if err != nil {
		return nil, fmt.Errorf("%w: list stories: %v", common.ErrNetworkUnreachable, err)
	}
	if err := classifyStatus(resp.StatusCode(), out.Message); err != nil {
		return nil, err
	}
	return out.ListStory, nil
}

func (c *HTTPClient) CreateStory(ctx context.Context, payload models.StoryPayload, requestID, token string) (*CreateResult, error) {
	if err := checkTokenNotExpired(token); err != nil {
		return nil, err
	}

	photoName := payload.PhotoName
	if photoName == "" {
		photoName = "story.jpg"
	}

	req := c.http.R().
		SetContext(ctx).
		SetAuthToken(token).
		SetFileReader("photo", photoName, bytes.NewReader(payload.Photo)).
		SetFormData(map[string]string{"description": payload.Description})
	if requestID != "" {
		req.SetHeader(requestIDHeader, requestID)
	}
	if payload.Latitude != nil && payload.Longitude != nil {
		req.SetFormData(map[string]string{
			"lat": strconv.FormatFloat(*payload.Latitude, 'f', -1, 64),
			"lon": strconv.FormatFloat(*payload.Longitude, 'f', -1, 64),
		})
	}

	var out createStoryResponse
	resp, err := req.SetResult(&out).SetError(&out.apiEnvelope).Post("/stories")
	if err != nil {
		return nil, fmt.Errorf("%w: create story: %v", common.ErrNetworkUnreachable, err)
	}
	if err := classifyStatus(resp.StatusCode(), out.Message); err != nil {
		return nil, err
	}
	return &CreateResult{StoryID: out.StoryID, Message: out.Message}, nil
}

func (c *HTTPClient) Login(ctx context.Context, email, password string) (*Session, error) {
	var out loginResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(map[string]string{"email": email, "password": password}).
		SetResult(&out).
		SetError(&out.apiEnvelope).
		Post("/login")
	if err != nil {
		return nil, fmt.Errorf("%w: login: %v", common.ErrNetworkUnreachable, err)
	}
	// a wrong password comes back as 401; report it as such, not as a
	// validation problem
	if resp.StatusCode() == http.StatusBadRequest || resp.StatusCode() == http.StatusUnauthorized {
		return nil, fmt.Errorf("%w: %s", common.ErrUnauthorized, out.Message)
	}
	if err := classifyStatus(resp.StatusCode(), out.Message); err != nil {
		return nil, err
	}
	return &Session{
		UserID: out.LoginResult.UserID,
		Name:   out.LoginResult.Name,
		Token:  out.LoginResult.Token,
	}, nil
}

func (c *HTTPClient) Register(ctx context.Context, name, email, password string) error {
	var out apiEnvelope
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(map[string]string{"name": name, "email": email, "password": password}).
		SetResult(&out).
		SetError(&out).
		Post("/register")
	if err != nil {
		return fmt.Errorf("%w: register: %v", common.ErrNetworkUnreachable, err)
	}
	return classifyStatus(resp.StatusCode(), out.Message)
}

// Ping probes API reachability. Any HTTP response at all, including an
// error status, proves the network path works; only transport failures
// count as unreachable.
func (c *HTTPClient) Ping(ctx context.Context) error {
	_, err := c.http.R().SetContext(ctx).Get("/health")
	if err != nil {
		return fmt.Errorf("%w: ping: %v", common.ErrNetworkUnreachable, err)
	}
	return nil
}

func (c *HTTPClient) Close() error {
	c.http.GetClient().CloseIdleConnections()
	return nil
}

// classifyStatus maps a non-2xx status to the sentinel error taxonomy.
func classifyStatus(status int, message string) error {
	switch {
	case status >= 200 && status < 300:
		return nil
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return fmt.Errorf("%w: %s", common.ErrUnauthorized, message)
	case status >= 400 && status < 500:
		return fmt.Errorf("%w: %s", common.ErrValidation, message)
	default:
		return fmt.Errorf("%w: http %d: %s", common.ErrServerError, status, message)
	}
}
