package devstub

import (
	"bytes"
	"context"
	"io"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/pkg/errors"
)

// presignTTL bounds the write capability handed out by /s3Link.
const presignTTL = 15 * time.Minute

// StorageProvider issues one-time write URLs and stores uploaded objects.
type StorageProvider interface {
	// PresignPut returns a short-lived URL authorizing a single PUT of key.
	PresignPut(ctx context.Context, key string) (string, error)

	// Upload stores an object directly and returns its public URL.
	Upload(ctx context.Context, key string, r io.Reader, size int64, contentType string) (string, error)

	// PublicURL returns the permanent read location for key.
	PublicURL(key string) string
}

// MinioStorage backs the stub with a real S3-compatible server, so presigned
// URLs behave like production ones.
type MinioStorage struct {
	client *minio.Client
	bucket string
}

func NewMinioStorage(endpoint, accessKey, secretKey, bucket string, useSSL bool) (*MinioStorage, error) {
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
	})
	if err != nil {
		return nil, errors.Wrap(err, "create minio client")
	}
	return &MinioStorage{client: client, bucket: bucket}, nil
}

// EnsureBucket creates the bucket if it does not exist yet.
func (s *MinioStorage) EnsureBucket(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return errors.Wrap(err, "check bucket")
	}
	if exists {
		return nil
	}
	if err := s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{}); err != nil {
		return errors.Wrap(err, "create bucket")
	}
	return nil
}

func (s *MinioStorage) PresignPut(ctx context.Context, key string) (string, error) {
	u, err := s.client.PresignedPutObject(ctx, s.bucket, key, presignTTL)
	if err != nil {
		return "", errors.Wrap(err, "presign put")
	}
	return u.String(), nil
}

func (s *MinioStorage) Upload(ctx context.Context, key string, r io.Reader, size int64, contentType string) (string, error) {
	_, err := s.client.PutObject(ctx, s.bucket, key, r, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", errors.Wrap(err, "put object")
	}
	return s.PublicURL(key), nil
}

func (s *MinioStorage) PublicURL(key string) string {
	u := url.URL{
		Scheme: "http",
		Host:   s.client.EndpointURL().Host,
		Path:   "/" + s.bucket + "/" + key,
	}
	if s.client.EndpointURL().Scheme == "https" {
		u.Scheme = "https"
	}
	return u.String()
}

// LocalStorage keeps objects in memory and serves them from the stub's own
// /storage routes. The "presigned" URL is just that route; good enough to
// exercise the client's direct PUT.
type LocalStorage struct {
	mu      sync.RWMutex
	objects map[string][]byte
	baseURL string
}

func NewLocalStorage() *LocalStorage {
	return &LocalStorage{objects: make(map[string][]byte)}
}

// SetBaseURL points the generated URLs at the stub's external address.
func (s *LocalStorage) SetBaseURL(baseURL string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.baseURL = strings.TrimRight(baseURL, "/")
}

func (s *LocalStorage) PresignPut(ctx context.Context, key string) (string, error) {
	return s.PublicURL(key), nil
}

func (s *LocalStorage) Upload(ctx context.Context, key string, r io.Reader, size int64, contentType string) (string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return "", errors.Wrap(err, "read object")
	}
	s.Put(key, data)
	return s.PublicURL(key), nil
}

func (s *LocalStorage) PublicURL(key string) string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.baseURL + "/storage/" + key
}

func (s *LocalStorage) Put(key string, data []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[key] = bytes.Clone(data)
}

func (s *LocalStorage) Get(key string) ([]byte, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	data, ok := s.objects[key]
	return data, ok
}
