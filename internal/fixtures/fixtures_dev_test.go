//go:build dev

package fixtures

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	fixtures, err := Load()
	require.NoError(t, err)
	require.NotEmpty(t, fixtures)

	for _, f := range fixtures {
		assert.NotEmpty(t, f.Name)
		assert.Greater(t, f.SizeMB, 0.0)

		info, err := os.Stat(f.URI)
		require.NoError(t, err)
		assert.Greater(t, info.Size(), int64(0))

		// starts with a valid MP4 box
		data := make([]byte, 8)
		file, err := os.Open(f.URI)
		require.NoError(t, err)
		_, err = file.Read(data)
		file.Close()
		require.NoError(t, err)
		assert.Equal(t, "ftyp", string(data[4:8]))

		os.Remove(f.URI)
	}
}
