// Package submission assembles the multipart profile update and performs the
// final PUT against the backend. The payload is built immediately before the
// call and discarded after it.
package submission

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/bulatminnakhmetov/svidanka-media/internal/profile"
)

// Errors, one per user-facing failure message: server rejection and timeout
// both prompt to retry with smaller media, network errors prompt to check
// connectivity. None of them triggers an automatic retry.
var (
	ErrServer  = errors.New("submission: server rejected the update")
	ErrTimeout = errors.New("submission: request timed out")
	ErrNetwork = errors.New("submission: network failure")

	ErrTooManyPhotos = errors.New("submission: more photos than slots")
)

// DefaultTimeout bounds the profile update call. The body size is not capped.
const DefaultTimeout = 120 * time.Second

// Payload is the transient submission state: identifiers, the populated photo
// slots, and the video URL when this session's upload succeeded. An empty
// VideoURL means the field is omitted entirely.
type Payload struct {
	UserUID   string
	UserEmail string
	Photos    []profile.PhotoSlot
	VideoURL  string
}

// Builder performs the profile update call.
type Builder struct {
	baseURL    string
	authToken  string
	httpClient *http.Client
	timeout    time.Duration
	log        zerolog.Logger
}

type Option func(*Builder)

// WithTimeout overrides the 120-second bound on the profile update.
func WithTimeout(d time.Duration) Option {
	return func(b *Builder) {
		b.timeout = d
	}
}

// WithAuthToken attaches a bearer token to the update request.
func WithAuthToken(token string) Option {
	return func(b *Builder) {
		b.authToken = token
	}
}

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(b *Builder) {
		b.httpClient = c
	}
}

func New(baseURL string, log zerolog.Logger, opts ...Option) *Builder {
	b := &Builder{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{},
		timeout:    DefaultTimeout,
		log:        log.With().Str("component", "submission").Logger(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Build writes the multipart body: user_uid, user_email_id, one img_<slot>
// file field per populated local photo slot (synthetic filenames), and
// user_video_url only when set. Remote photo URIs are already on the server
// and are not re-sent.
func (b *Builder) Build(p Payload) (*bytes.Buffer, string, error) {
	if len(p.Photos) > profile.PhotoSlotCount {
		return nil, "", ErrTooManyPhotos
	}

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	if err := writer.WriteField("user_uid", p.UserUID); err != nil {
		return nil, "", errors.Wrap(err, "write user_uid")
	}
	if err := writer.WriteField("user_email_id", p.UserEmail); err != nil {
		return nil, "", errors.Wrap(err, "write user_email_id")
	}

	for i, slot := range p.Photos {
		if slot.Empty() || strings.HasPrefix(slot.URI, "http://") || strings.HasPrefix(slot.URI, "https://") {
			continue
		}

		filename := fmt.Sprintf("img_%d_%s%s", i, uuid.New().String()[:8], filepath.Ext(slot.URI))
		part, err := writer.CreateFormFile(fmt.Sprintf("img_%d", i), filename)
		if err != nil {
			return nil, "", errors.Wrapf(err, "create img_%d field", i)
		}

		file, err := os.Open(slot.URI)
		if err != nil {
			return nil, "", errors.Wrapf(err, "open photo %d", i)
		}
		if _, err := io.Copy(part, file); err != nil {
			file.Close()
			return nil, "", errors.Wrapf(err, "copy photo %d", i)
		}
		file.Close()
	}

	if p.VideoURL != "" {
		if err := writer.WriteField("user_video_url", p.VideoURL); err != nil {
			return nil, "", errors.Wrap(err, "write user_video_url")
		}
	}

	if err := writer.Close(); err != nil {
		return nil, "", errors.Wrap(err, "finalize multipart body")
	}

	return body, writer.FormDataContentType(), nil
}

// Submit builds the payload and performs the profile update. Failures map to
// ErrServer, ErrTimeout or ErrNetwork so the caller can show the matching
// message; re-initiation is always manual.
func (b *Builder) Submit(ctx context.Context, p Payload) error {
	body, contentType, err := b.Build(p)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, b.baseURL+"/userinfo", body)
	if err != nil {
		return errors.Wrap(err, "build update request")
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/json")
	if b.authToken != "" {
		req.Header.Set("Authorization", "Bearer "+b.authToken)
	}

	b.log.Debug().Int("body_bytes", body.Len()).Msg("submitting profile update")

	resp, err := b.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return errors.Wrapf(ErrTimeout, "%v", err)
		}
		return errors.Wrapf(ErrNetwork, "%v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return errors.Wrapf(ErrServer, "unexpected status %d", resp.StatusCode)
	}

	b.log.Info().Msg("profile update accepted")
	return nil
}
