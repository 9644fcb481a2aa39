package picker

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/bulatminnakhmetov/svidanka-media/internal/prompt"
	"github.com/bulatminnakhmetov/svidanka-media/internal/sizecheck"
)

// Errors
var (
	// ErrCanceled reports that the user backed out of the selection. It is a
	// distinct value, not a failure: callers use it to offer a fallback such
	// as a bundled test clip.
	ErrCanceled = errors.New("picker: selection canceled")

	ErrInvalidFileType = errors.New("picker: invalid file type")
)

// Allowed image extensions
var imageExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".webp": true,
}

// Allowed video extensions
var videoExtensions = map[string]bool{
	".mp4": true,
	".mov": true,
	".avi": true,
}

// Asset is a selected local media file. SizeMB is nil when the size is
// unknown, which happens for remote (already-uploaded) URIs.
type Asset struct {
	URI    string
	SizeMB *float64
}

// Picker selects media from the device library or camera. Cancellation is
// reported as ErrCanceled so callers can tell it apart from real failures.
type Picker interface {
	PickImage(ctx context.Context) (*Asset, error)
	PickVideo(ctx context.Context) (*Asset, error)
	RecordVideo(ctx context.Context) (*Asset, error)
}

// SizeOf returns the file size in megabytes rounded to two decimals. Remote
// URIs are not sizeable and resolve to nil.
func SizeOf(uri string) (*float64, error) {
	if IsRemote(uri) {
		return nil, nil
	}
	info, err := os.Stat(uri)
	if err != nil {
		return nil, errors.Wrap(err, "stat media file")
	}
	mb := sizecheck.Round(float64(info.Size()) / (1 << 20))
	return &mb, nil
}

// IsRemote reports whether the URI points at an already-uploaded asset
// rather than a local file.
func IsRemote(uri string) bool {
	return strings.HasPrefix(uri, "http://") || strings.HasPrefix(uri, "https://")
}

// FSPicker is the CLI stand-in for the platform media picker: it prompts for
// a path on the local filesystem. An empty answer means the user canceled.
type FSPicker struct {
	term *prompt.Terminal
	log  zerolog.Logger
}

func NewFSPicker(in io.Reader, out io.Writer, log zerolog.Logger) *FSPicker {
	return &FSPicker{
		term: prompt.NewTerminal(in, out),
		log:  log.With().Str("component", "picker").Logger(),
	}
}

func (p *FSPicker) PickImage(ctx context.Context) (*Asset, error) {
	return p.pick("Path to a photo (empty to cancel):", imageExtensions, "image/")
}

func (p *FSPicker) PickVideo(ctx context.Context) (*Asset, error) {
	return p.pick("Path to a video (empty to cancel):", videoExtensions, "video/")
}

// RecordVideo has no camera to drive on a terminal; it behaves like PickVideo
// with a different prompt so the recorded-clip flow stays exercisable.
func (p *FSPicker) RecordVideo(ctx context.Context) (*Asset, error) {
	return p.pick("Path to a recorded clip (empty to cancel):", videoExtensions, "video/")
}

func (p *FSPicker) pick(question string, allowed map[string]bool, mimePrefix string) (*Asset, error) {
	path, err := p.term.Ask(question)
	if err != nil {
		return nil, errors.Wrap(err, "read selection")
	}
	if path == "" {
		return nil, ErrCanceled
	}

	ext := strings.ToLower(filepath.Ext(path))
	if !allowed[ext] {
		return nil, ErrInvalidFileType
	}

	size, err := SizeOf(path)
	if err != nil {
		return nil, err
	}

	// The extension decides the declared type; sniffing only guards against a
	// mislabeled file slipping into the upload.
	if mt, err := mimetype.DetectFile(path); err == nil && !strings.HasPrefix(mt.String(), mimePrefix) {
		p.log.Warn().Str("path", path).Str("detected", mt.String()).Msg("file content does not match its extension")
	}

	return &Asset{URI: path, SizeMB: size}, nil
}
