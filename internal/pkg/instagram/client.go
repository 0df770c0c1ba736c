package instagram

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/chatico/mapper/internal/pkg/config"
)

// MediaOwner is the slice of media metadata the webhook pipeline needs.
type MediaOwner struct {
	AccountID string
	Username  string
}

// Client looks up the owning account for a media item. The access token
// handling behind it belongs to the OAuth collaborator, not this service.
type Client interface {
	GetMediaOwner(ctx context.Context, mediaID string) (*MediaOwner, error)
}

// APIError carries the upstream status and message when the Graph API
// rejects a lookup.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("instagram api error (status %d): %s", e.StatusCode, e.Message)
}

// graphClient implements Client against the Instagram Graph API.
type graphClient struct {
	baseURL     string
	accessToken string
	httpClient  *http.Client
}

// NewGraphClient builds the production Graph API client.
func NewGraphClient(cfg config.InstagramConfig) Client {
	return &graphClient{
		baseURL:     strings.TrimRight(cfg.BaseURL, "/"),
		accessToken: cfg.AccessToken,
		httpClient:  &http.Client{Timeout: cfg.Timeout},
	}
}

// mediaResponse mirrors the Graph API media object. "owner" is usually an
// object with an id, but some API versions return a bare string.
type mediaResponse struct {
	ID       string          `json:"id"`
	Owner    json.RawMessage `json:"owner"`
	Username string          `json:"username"`
}

type errorResponse struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
		Code    int    `json:"code"`
	} `json:"error"`
}

// GetMediaOwner fetches owner and username for a media item. Only those two
// fields are requested to keep the slow path as fast as possible.
func (c *graphClient) GetMediaOwner(ctx context.Context, mediaID string) (*MediaOwner, error) {
	params := url.Values{
		"access_token": {c.accessToken},
		"fields":       {"owner,username"},
	}
	endpoint := fmt.Sprintf("%s/%s?%s", c.baseURL, url.PathEscape(mediaID), params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build media request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("instagram api request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var envelope errorResponse
		message := "Unknown error"
		if decodeErr := json.NewDecoder(resp.Body).Decode(&envelope); decodeErr == nil && envelope.Error.Message != "" {
			message = envelope.Error.Message
		}
		return nil, &APIError{StatusCode: resp.StatusCode, Message: message}
	}

	var media mediaResponse
	if err := json.NewDecoder(resp.Body).Decode(&media); err != nil {
		return nil, fmt.Errorf("decode media response: %w", err)
	}

	accountID, err := ownerID(media.Owner)
	if err != nil {
		return nil, err
	}

	return &MediaOwner{AccountID: accountID, Username: media.Username}, nil
}

var errNoOwner = errors.New("no owner id in api response")

func ownerID(raw json.RawMessage) (string, error) {
	if len(raw) == 0 {
		return "", errNoOwner
	}
	var obj struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(raw, &obj); err == nil && obj.ID != "" {
		return obj.ID, nil
	}
	var plain string
	if err := json.Unmarshal(raw, &plain); err == nil && plain != "" {
		return plain, nil
	}
	return "", errNoOwner
}
