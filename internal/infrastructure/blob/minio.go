package blob

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/jimlawless/whereami"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/urbanfrill/storefront/internal/config"
	"github.com/urbanfrill/storefront/pkg/e"
)

// MinIOStore stores objects in an S3-compatible MinIO bucket.
type MinIOStore struct {
	mc      *minio.Client
	bucket  string
	baseURL string
}

func NewMinIOClient(cfg config.MinIOConfig) (*minio.Client, error) {
	mc, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}
	return mc, nil
}

func EnsureBucket(ctx context.Context, client *minio.Client, bucketName string) error {
	exists, err := client.BucketExists(ctx, bucketName)
	if err != nil {
		return err
	}

	if !exists {
		return client.MakeBucket(ctx, bucketName, minio.MakeBucketOptions{})
	}

	return nil
}

// NewMinIOStore creates a MinIOStore. An empty baseURL is derived from the
// client endpoint.
func NewMinIOStore(mc *minio.Client, bucket, baseURL string) *MinIOStore {
	if baseURL == "" {
		baseURL = fmt.Sprintf("%s/%s", strings.TrimRight(mc.EndpointURL().String(), "/"), bucket)
	}
	return &MinIOStore{mc: mc, bucket: bucket, baseURL: strings.TrimRight(baseURL, "/")}
}

func (s *MinIOStore) Upload(ctx context.Context, path, contentType string, r io.Reader, size int64) (string, error) {
	info, err := s.mc.PutObject(ctx, s.bucket, path, r, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", e.Wrap(whereami.WhereAmI(), err)
	}
	return s.baseURL + "/" + info.Key, nil
}

func (s *MinIOStore) Delete(ctx context.Context, path string) error {
	if err := s.mc.RemoveObject(ctx, s.bucket, path, minio.RemoveObjectOptions{}); err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}
	return nil
}
