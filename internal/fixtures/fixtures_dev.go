//go:build dev

package fixtures

import (
	"os"
	"path/filepath"

	"github.com/pkg/errors"

	"github.com/bulatminnakhmetov/svidanka-media/internal/sizecheck"
)

// Minimal valid MP4 container header, enough for the pipeline to treat the
// file as a video.
var mp4Header = []byte{
	0x00, 0x00, 0x00, 0x18, 'f', 't', 'y', 'p',
	'm', 'p', '4', '2', 0x00, 0x00, 0x00, 0x00,
	'm', 'p', '4', '2', 'i', 's', 'o', 'm',
	0x00, 0x00, 0x00, 0x08, 'f', 'r', 'e', 'e',
}

// Bundled clips by name, with a payload size so they register on the size
// accountant.
var clips = []struct {
	name    string
	padding int
}{
	{name: "sample_clip_small.mp4", padding: 256 * 1024},
	{name: "sample_clip_large.mp4", padding: 3 * 1024 * 1024},
}

// Load materialises the bundled clips into a temp directory and returns them.
func Load() ([]Fixture, error) {
	dir, err := os.MkdirTemp("", "svidanka-fixtures-")
	if err != nil {
		return nil, errors.Wrap(err, "create fixture dir")
	}

	fixtures := make([]Fixture, 0, len(clips))
	for _, clip := range clips {
		data := make([]byte, len(mp4Header)+clip.padding)
		copy(data, mp4Header)

		path := filepath.Join(dir, clip.name)
		if err := os.WriteFile(path, data, 0644); err != nil {
			return nil, errors.Wrapf(err, "write fixture %s", clip.name)
		}

		fixtures = append(fixtures, Fixture{
			Name:   clip.name,
			URI:    path,
			SizeMB: sizecheck.Round(float64(len(data)) / (1 << 20)),
		})
	}
	return fixtures, nil
}
