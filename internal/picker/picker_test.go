package picker

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTempFile(t *testing.T, name string, size int) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, bytes.Repeat([]byte{0x42}, size), 0644))
	return path
}

func TestSizeOf(t *testing.T) {
	t.Run("local file", func(t *testing.T) {
		path := writeTempFile(t, "clip.mp4", 2*1024*1024)
		size, err := SizeOf(path)
		require.NoError(t, err)
		require.NotNil(t, size)
		assert.Equal(t, 2.0, *size)
	})

	t.Run("remote uri is not sizeable", func(t *testing.T) {
		size, err := SizeOf("https://cdn.example.com/videos/abc.mp4")
		require.NoError(t, err)
		assert.Nil(t, size)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := SizeOf(filepath.Join(t.TempDir(), "nope.mp4"))
		assert.Error(t, err)
	})
}

func TestFSPickerPickImage(t *testing.T) {
	path := writeTempFile(t, "photo.jpg", 1536*1024) // 1.5 MB

	picker := NewFSPicker(strings.NewReader(path+"\n"), &bytes.Buffer{}, zerolog.Nop())
	asset, err := picker.PickImage(context.Background())
	require.NoError(t, err)
	assert.Equal(t, path, asset.URI)
	require.NotNil(t, asset.SizeMB)
	assert.Equal(t, 1.5, *asset.SizeMB)
}

func TestFSPickerCancel(t *testing.T) {
	picker := NewFSPicker(strings.NewReader("\n"), &bytes.Buffer{}, zerolog.Nop())

	_, err := picker.PickVideo(context.Background())
	assert.True(t, errors.Is(err, ErrCanceled))

	picker = NewFSPicker(strings.NewReader("\n"), &bytes.Buffer{}, zerolog.Nop())
	_, err = picker.RecordVideo(context.Background())
	assert.True(t, errors.Is(err, ErrCanceled))
}

func TestFSPickerInvalidType(t *testing.T) {
	path := writeTempFile(t, "notes.txt", 100)

	picker := NewFSPicker(strings.NewReader(path+"\n"), &bytes.Buffer{}, zerolog.Nop())
	_, err := picker.PickVideo(context.Background())
	assert.True(t, errors.Is(err, ErrInvalidFileType))
}

func TestFSPickerPickVideo(t *testing.T) {
	path := writeTempFile(t, "clip.mov", 3*1024*1024)

	picker := NewFSPicker(strings.NewReader(path+"\n"), &bytes.Buffer{}, zerolog.Nop())
	asset, err := picker.PickVideo(context.Background())
	require.NoError(t, err)
	require.NotNil(t, asset.SizeMB)
	assert.Equal(t, 3.0, *asset.SizeMB)
}
