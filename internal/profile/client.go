package profile

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

// Errors
var (
	ErrNotFound = errors.New("profile: user not found")
)

// Client fetches profile media state from the backend.
type Client struct {
	baseURL    string
	authToken  string
	httpClient *http.Client
	log        zerolog.Logger
}

type Option func(*Client)

// WithAuthToken attaches a bearer token to profile requests.
func WithAuthToken(token string) Option {
	return func(c *Client) {
		c.authToken = token
	}
}

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

func NewClient(baseURL string, log zerolog.Logger, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{},
		log:        log.With().Str("component", "profile-client").Logger(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Raw wire shape of GET /userinfo/{uid}. String fields may arrive with an
// extra JSON encoding layer, so they are decoded defensively.
type userInfoResponse struct {
	UserUID   json.RawMessage `json:"user_uid"`
	Email     json.RawMessage `json:"user_email_id"`
	PhotoURLs json.RawMessage `json:"user_img_urls"`
	VideoURL  json.RawMessage `json:"user_video_url"`
}

// Get returns the server-confirmed media state for pre-populating the form.
func (c *Client) Get(ctx context.Context, uid string) (*UserInfo, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/userinfo/"+uid, nil)
	if err != nil {
		return nil, errors.Wrap(err, "build userinfo request")
	}
	req.Header.Set("Accept", "application/json")
	if c.authToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.authToken)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "fetch userinfo")
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, ErrNotFound
	case resp.StatusCode != http.StatusOK:
		return nil, errors.Errorf("fetch userinfo: unexpected status %d", resp.StatusCode)
	}

	var raw userInfoResponse
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, errors.Wrap(err, "decode userinfo")
	}

	info := &UserInfo{
		UserUID:   decodeString(raw.UserUID),
		Email:     decodeString(raw.Email),
		PhotoURLs: decodeStringSlice(raw.PhotoURLs),
		VideoURL:  decodeString(raw.VideoURL),
	}
	return info, nil
}
