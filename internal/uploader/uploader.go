// Package uploader implements the direct-to-storage video upload: one
// credential request against the backend followed by a single PUT of the file
// bytes to the presigned URL. Every attempt starts from scratch; there is no
// retry, no backoff and no resume.
package uploader

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

// Errors
var (
	// ErrNoCredential reports that the backend did not hand out a write URL.
	// The direct PUT is never attempted in that case.
	ErrNoCredential = errors.New("uploader: credential request failed")

	// ErrTransferFailed reports that the PUT to storage did not complete with
	// a 2xx status within the allowed time.
	ErrTransferFailed = errors.New("uploader: transfer failed")
)

// DefaultPutTimeout bounds the direct PUT to object storage.
const DefaultPutTimeout = 120 * time.Second

// Declared content types by extension
var videoContentTypes = map[string]string{
	".mp4": "video/mp4",
	".mov": "video/quicktime",
	".avi": "video/x-msvideo",
}

// ContentTypeFor maps a video path to the content type declared on upload.
// Unknown extensions fall back to video/mp4.
func ContentTypeFor(path string) string {
	if ct, ok := videoContentTypes[strings.ToLower(filepath.Ext(path))]; ok {
		return ct
	}
	return "video/mp4"
}

// Credential is the short-lived write capability issued by the backend. It is
// used for exactly one PUT and discarded afterwards, never persisted.
type Credential struct {
	PutURL    string `json:"url"`
	PublicURL string `json:"videoUrl"`
	Key       string `json:"key,omitempty"`
}

type credentialRequest struct {
	UserUID  string `json:"user_uid"`
	FileType string `json:"user_video_filetype"`
}

// State tracks where an upload attempt is in its lifecycle.
type State int

const (
	StateIdle State = iota
	StateRequestingCredential
	StateUploading
	StateSucceeded
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRequestingCredential:
		return "requesting_credential"
	case StateUploading:
		return "uploading"
	case StateSucceeded:
		return "succeeded"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Result is the outcome of one upload attempt. VideoURL is set only when the
// attempt succeeded; the caller attaches it to the outgoing submission.
type Result struct {
	State    State
	VideoURL string
}

// Uploader talks to the backend's credential endpoint and to object storage.
type Uploader struct {
	baseURL    string
	authToken  string
	httpClient *http.Client
	putTimeout time.Duration
	log        zerolog.Logger
}

type Option func(*Uploader)

// WithPutTimeout overrides the 120-second bound on the direct PUT.
func WithPutTimeout(d time.Duration) Option {
	return func(u *Uploader) {
		u.putTimeout = d
	}
}

// WithAuthToken attaches a bearer token to credential requests.
func WithAuthToken(token string) Option {
	return func(u *Uploader) {
		u.authToken = token
	}
}

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(u *Uploader) {
		u.httpClient = c
	}
}

func New(baseURL string, log zerolog.Logger, opts ...Option) *Uploader {
	u := &Uploader{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{},
		putTimeout: DefaultPutTimeout,
		log:        log.With().Str("component", "uploader").Logger(),
	}
	for _, opt := range opts {
		opt(u)
	}
	return u
}

// RequestCredential asks the backend for a one-time write URL for the user's
// video. A transport error or a response without a usable URL both count as
// credential failure.
func (u *Uploader) RequestCredential(ctx context.Context, userUID, contentType string) (*Credential, error) {
	body, err := json.Marshal(credentialRequest{
		UserUID:  userUID,
		FileType: contentType,
	})
	if err != nil {
		return nil, errors.Wrap(err, "marshal credential request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.baseURL+"/s3Link", bytes.NewReader(body))
	if err != nil {
		return nil, errors.Wrap(err, "build credential request")
	}
	req.Header.Set("Content-Type", "application/json")
	if u.authToken != "" {
		req.Header.Set("Authorization", "Bearer "+u.authToken)
	}

	resp, err := u.httpClient.Do(req)
	if err != nil {
		return nil, errors.Wrapf(ErrNoCredential, "request write url: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, errors.Wrapf(ErrNoCredential, "unexpected status %d", resp.StatusCode)
	}

	var cred Credential
	if err := json.NewDecoder(resp.Body).Decode(&cred); err != nil {
		return nil, errors.Wrapf(ErrNoCredential, "decode response: %v", err)
	}
	if cred.PutURL == "" {
		return nil, errors.Wrap(ErrNoCredential, "response carries no write url")
	}

	return &cred, nil
}

// DirectPut sends the file bytes to the presigned URL with a matching
// Content-Type, bounded by the PUT timeout. Any 2xx status is success.
func (u *Uploader) DirectPut(ctx context.Context, cred *Credential, path, contentType string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return errors.Wrap(err, "read video file")
	}

	ctx, cancel := context.WithTimeout(ctx, u.putTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, cred.PutURL, bytes.NewReader(data))
	if err != nil {
		return errors.Wrap(err, "build storage request")
	}
	req.Header.Set("Content-Type", contentType)

	resp, err := u.httpClient.Do(req)
	if err != nil {
		return errors.Wrapf(ErrTransferFailed, "put to storage: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return errors.Wrapf(ErrTransferFailed, "unexpected status %d", resp.StatusCode)
	}

	return nil
}

// Upload runs one full attempt: credential request, then direct PUT. On
// failure the caller omits the video from the submission; raw bytes are never
// embedded as a fallback.
func (u *Uploader) Upload(ctx context.Context, userUID, path string) (*Result, error) {
	contentType := ContentTypeFor(path)

	u.log.Debug().Str("state", StateRequestingCredential.String()).Str("content_type", contentType).Msg("upload attempt started")
	cred, err := u.RequestCredential(ctx, userUID, contentType)
	if err != nil {
		u.log.Warn().Err(err).Str("state", StateFailed.String()).Msg("credential request failed")
		return &Result{State: StateFailed}, err
	}

	u.log.Debug().Str("state", StateUploading.String()).Msg("credential obtained, uploading")
	if err := u.DirectPut(ctx, cred, path, contentType); err != nil {
		u.log.Warn().Err(err).Str("state", StateFailed.String()).Msg("direct put failed")
		return &Result{State: StateFailed}, err
	}

	u.log.Info().Str("state", StateSucceeded.String()).Msg("video uploaded")
	return &Result{State: StateSucceeded, VideoURL: cred.PublicURL}, nil
}
