package uploader

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTestVideo(t *testing.T, name string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte("fake video bytes"), 0644))
	return path
}

func TestContentTypeFor(t *testing.T) {
	assert.Equal(t, "video/mp4", ContentTypeFor("/tmp/clip.mp4"))
	assert.Equal(t, "video/quicktime", ContentTypeFor("/tmp/clip.MOV"))
	assert.Equal(t, "video/x-msvideo", ContentTypeFor("/tmp/clip.avi"))
	assert.Equal(t, "video/mp4", ContentTypeFor("/tmp/clip.mkv"))
}

func TestUploadSuccess(t *testing.T) {
	var storagePuts int32
	var gotContentType string

	storage := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&storagePuts, 1)
		gotContentType = r.Header.Get("Content-Type")
		body, _ := io.ReadAll(r.Body)
		assert.Equal(t, "fake video bytes", string(body))
		w.WriteHeader(http.StatusOK)
	}))
	defer storage.Close()

	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/s3Link", r.URL.Path)
		require.Equal(t, http.MethodPost, r.Method)

		var req map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "user-42", req["user_uid"])
		assert.Equal(t, "video/mp4", req["user_video_filetype"])

		json.NewEncoder(w).Encode(Credential{
			PutURL:    storage.URL + "/videos/user-42/clip.mp4",
			PublicURL: "https://cdn.example.com/videos/user-42/clip.mp4",
		})
	}))
	defer backend.Close()

	u := New(backend.URL, zerolog.Nop())
	res, err := u.Upload(context.Background(), "user-42", writeTestVideo(t, "clip.mp4"))
	require.NoError(t, err)
	assert.Equal(t, StateSucceeded, res.State)
	assert.Equal(t, "https://cdn.example.com/videos/user-42/clip.mp4", res.VideoURL)
	assert.EqualValues(t, 1, storagePuts)
	assert.Equal(t, "video/mp4", gotContentType)
}

func TestUploadCredentialFailureSkipsPut(t *testing.T) {
	var storagePuts int32

	storage := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&storagePuts, 1)
	}))
	defer storage.Close()

	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer backend.Close()

	u := New(backend.URL, zerolog.Nop())
	res, err := u.Upload(context.Background(), "user-42", writeTestVideo(t, "clip.mp4"))
	assert.True(t, errors.Is(err, ErrNoCredential))
	assert.Equal(t, StateFailed, res.State)
	assert.Empty(t, res.VideoURL)
	assert.EqualValues(t, 0, storagePuts, "direct put must not be attempted without a credential")
}

func TestUploadMissingURLInCredential(t *testing.T) {
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// 200 but no usable write url
		json.NewEncoder(w).Encode(map[string]string{"videoUrl": "https://cdn.example.com/v.mp4"})
	}))
	defer backend.Close()

	u := New(backend.URL, zerolog.Nop())
	_, err := u.Upload(context.Background(), "user-42", writeTestVideo(t, "clip.mp4"))
	assert.True(t, errors.Is(err, ErrNoCredential))
}

func TestUploadTransferFailure(t *testing.T) {
	storage := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "denied", http.StatusForbidden)
	}))
	defer storage.Close()

	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(Credential{
			PutURL:    storage.URL + "/videos/clip.mp4",
			PublicURL: "https://cdn.example.com/videos/clip.mp4",
		})
	}))
	defer backend.Close()

	u := New(backend.URL, zerolog.Nop())
	res, err := u.Upload(context.Background(), "user-42", writeTestVideo(t, "clip.mp4"))
	assert.True(t, errors.Is(err, ErrTransferFailed))
	assert.Equal(t, StateFailed, res.State)
}

func TestUploadTransferTimeout(t *testing.T) {
	storage := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(500 * time.Millisecond)
		w.WriteHeader(http.StatusOK)
	}))
	defer storage.Close()

	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(Credential{
			PutURL:    storage.URL + "/videos/clip.mp4",
			PublicURL: "https://cdn.example.com/videos/clip.mp4",
		})
	}))
	defer backend.Close()

	u := New(backend.URL, zerolog.Nop(), WithPutTimeout(50*time.Millisecond))
	res, err := u.Upload(context.Background(), "user-42", writeTestVideo(t, "clip.mp4"))
	assert.True(t, errors.Is(err, ErrTransferFailed))
	assert.Equal(t, StateFailed, res.State)
}

func TestRequestCredentialSendsAuthToken(t *testing.T) {
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer token-123", r.Header.Get("Authorization"))
		json.NewEncoder(w).Encode(Credential{PutURL: "https://storage.example.com/put", PublicURL: "https://cdn.example.com/v"})
	}))
	defer backend.Close()

	u := New(backend.URL, zerolog.Nop(), WithAuthToken("token-123"))
	cred, err := u.RequestCredential(context.Background(), "user-42", "video/mp4")
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.com/v", cred.PublicURL)
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "idle", StateIdle.String())
	assert.Equal(t, "requesting_credential", StateRequestingCredential.String())
	assert.Equal(t, "uploading", StateUploading.String())
	assert.Equal(t, "succeeded", StateSucceeded.String())
	assert.Equal(t, "failed", StateFailed.String())
	assert.Equal(t, "unknown", State(99).String())
}
