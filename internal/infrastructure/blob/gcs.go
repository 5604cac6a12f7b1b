package blob

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"cloud.google.com/go/storage"
)

// GCSStore stores objects in a Google Cloud Storage bucket (the Firebase
// Storage bucket in production).
type GCSStore struct {
	client  *storage.Client
	bucket  string
	baseURL string
}

// NewGCSStore creates a GCSStore. An empty baseURL yields
// https://storage.googleapis.com/<bucket>/<path> URLs.
func NewGCSStore(client *storage.Client, bucket, baseURL string) *GCSStore {
	if baseURL == "" {
		baseURL = "https://storage.googleapis.com/" + bucket
	}
	return &GCSStore{client: client, bucket: bucket, baseURL: strings.TrimRight(baseURL, "/")}
}

func (s *GCSStore) Upload(ctx context.Context, path, contentType string, r io.Reader, size int64) (string, error) {
	w := s.client.Bucket(s.bucket).Object(path).NewWriter(ctx)
	w.ContentType = contentType
	w.CacheControl = "public, max-age=3600"

	if _, err := io.Copy(w, r); err != nil {
		_ = w.Close()
		return "", fmt.Errorf("gcs: write %s: %w", path, err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("gcs: close %s: %w", path, err)
	}
	return s.baseURL + "/" + path, nil
}

func (s *GCSStore) Delete(ctx context.Context, path string) error {
	err := s.client.Bucket(s.bucket).Object(path).Delete(ctx)
	if err == nil || errors.Is(err, storage.ErrObjectNotExist) {
		return nil
	}
	return fmt.Errorf("gcs: delete %s: %w", path, err)
}
