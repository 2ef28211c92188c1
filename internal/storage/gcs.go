package storage

import (
	"context"
	"errors"
	"fmt"
	"io"

	gcs "cloud.google.com/go/storage"
	"go.uber.org/zap"
	"google.golang.org/api/option"
)

// GCSStorage implements Storage on a Google Cloud Storage bucket.
// Firebase Storage buckets are GCS buckets and work unchanged.
type GCSStorage struct {
	client *gcs.Client
	bucket *gcs.BucketHandle
	logger *zap.Logger
}

// NewGCSStorage connects with the credentials file, or with application
// default credentials when credentialsFile is empty
func NewGCSStorage(ctx context.Context, bucket, credentialsFile string, logger *zap.Logger) (*GCSStorage, error) {
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}
	client, err := gcs.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create gcs client: %w", err)
	}

	logger.Info("Google Cloud Storage initialized", zap.String("bucket", bucket))
	return &GCSStorage{client: client, bucket: client.Bucket(bucket), logger: logger}, nil
}

func (s *GCSStorage) Upload(ctx context.Context, prefix, filename, contentType string, data io.Reader) (string, int64, error) {
	key := objectKey(prefix, filename)

	w := s.bucket.Object(key).NewWriter(ctx)
	w.ContentType = contentType
	size, err := io.Copy(w, data)
	if err != nil {
		_ = w.Close()
		return "", 0, fmt.Errorf("failed to upload object: %w", err)
	}
	if err := w.Close(); err != nil {
		return "", 0, fmt.Errorf("failed to finalize object: %w", err)
	}

	s.logger.Info("File uploaded to Google Cloud Storage",
		zap.String("object", key),
		zap.String("contentType", contentType),
		zap.Int64("size", size),
	)
	return key, size, nil
}

func (s *GCSStorage) Download(ctx context.Context, key string) (io.ReadCloser, error) {
	r, err := s.bucket.Object(key).NewReader(ctx)
	if err != nil {
		if errors.Is(err, gcs.ErrObjectNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, key)
		}
		return nil, fmt.Errorf("failed to download object: %w", err)
	}
	return r, nil
}

func (s *GCSStorage) Delete(ctx context.Context, key string) error {
	if err := s.bucket.Object(key).Delete(ctx); err != nil {
		if errors.Is(err, gcs.ErrObjectNotExist) {
			return nil
		}
		return fmt.Errorf("failed to delete object: %w", err)
	}
	return nil
}

// Close releases the client
func (s *GCSStorage) Close() error {
	return s.client.Close()
}
