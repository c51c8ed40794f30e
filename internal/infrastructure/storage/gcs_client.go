package storage

import (
	"context"
	"fmt"
	"io"

	"cloud.google.com/go/storage"

	"gigmarket/internal/domain/entity"
	"gigmarket/internal/domain/service"
	"gigmarket/pkg/logger"
)

// GCSStorage stores uploads as public-read objects in a Cloud Storage bucket.
type GCSStorage struct {
	bucket     *storage.BucketHandle
	bucketName string
}

func NewGCSStorage(bucket *storage.BucketHandle, bucketName string) *GCSStorage {
	return &GCSStorage{
		bucket:     bucket,
		bucketName: bucketName,
	}
}

var _ service.FileStorage = (*GCSStorage)(nil)

// EnsureCORS installs a CORS rule for the allowed origins if the bucket has none.
func (s *GCSStorage) EnsureCORS(ctx context.Context, origins []string) error {
	attrs, err := s.bucket.Attrs(ctx)
	if err != nil {
		return fmt.Errorf("failed to get bucket attributes: %w", err)
	}
	if len(attrs.CORS) > 0 {
		return nil
	}

	_, err = s.bucket.Update(ctx, storage.BucketAttrsToUpdate{
		CORS: []storage.CORS{{
			MaxAge:          3600,
			Methods:         []string{"GET", "HEAD"},
			Origins:         origins,
			ResponseHeaders: []string{"Content-Type"},
		}},
	})
	if err != nil {
		return fmt.Errorf("failed to update bucket CORS: %w", err)
	}
	logger.Info("Configured CORS on bucket %s", s.bucketName)
	return nil
}

func (s *GCSStorage) Upload(ctx context.Context, file io.Reader, objectName, contentType string) (string, error) {
	obj := s.bucket.Object(objectName)
	wc := obj.NewWriter(ctx)
	wc.ContentType = contentType
	wc.CacheControl = "public, max-age=86400"

	if _, err := io.Copy(wc, file); err != nil {
		wc.Close()
		return "", fmt.Errorf("failed to copy file to GCS: %w", err)
	}
	if err := wc.Close(); err != nil {
		return "", fmt.Errorf("failed to close writer: %w", err)
	}

	if err := obj.ACL().Set(ctx, storage.AllUsers, storage.RoleReader); err != nil {
		return "", fmt.Errorf("failed to set ACL: %w", err)
	}

	return fmt.Sprintf("https://storage.googleapis.com/%s/%s", s.bucketName, objectName), nil
}

func (s *GCSStorage) Delete(ctx context.Context, objectName string) error {
	if err := s.bucket.Object(objectName).Delete(ctx); err != nil && err != storage.ErrObjectNotExist {
		return fmt.Errorf("failed to delete file: %w", err)
	}
	return nil
}

func (s *GCSStorage) Backend() string {
	return entity.StorageBackendGCS
}
