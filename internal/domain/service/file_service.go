package service

import (
	"context"
	"io"
)

// FileStorage persists uploaded objects. objectName is a slash-separated
// key such as "gigs/<uuid>.png"; Upload returns the public URL.
type FileStorage interface {
	Upload(ctx context.Context, file io.Reader, objectName, contentType string) (string, error)
	Delete(ctx context.Context, objectName string) error
	Backend() string
}
