package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gigmarket/internal/domain/entity"
	"gigmarket/internal/domain/service"
)

// LocalStorage writes uploads under a directory served at /uploads.
type LocalStorage struct {
	dir     string
	baseURL string
}

func NewLocalStorage(dir, publicBaseURL string) (*LocalStorage, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create upload dir: %w", err)
	}
	return &LocalStorage{
		dir:     dir,
		baseURL: strings.TrimRight(publicBaseURL, "/"),
	}, nil
}

var _ service.FileStorage = (*LocalStorage)(nil)

func (s *LocalStorage) path(objectName string) (string, error) {
	clean := filepath.Clean("/" + objectName)
	if clean == "/" {
		return "", fmt.Errorf("invalid object name %q", objectName)
	}
	return filepath.Join(s.dir, filepath.FromSlash(clean)), nil
}

func (s *LocalStorage) Upload(ctx context.Context, file io.Reader, objectName, contentType string) (string, error) {
	path, err := s.path(objectName)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("failed to create upload dir: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create file: %w", err)
	}
	if _, err := io.Copy(f, file); err != nil {
		f.Close()
		os.Remove(path)
		return "", fmt.Errorf("failed to write file: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("failed to close file: %w", err)
	}

	return s.baseURL + "/uploads/" + strings.TrimPrefix(objectName, "/"), nil
}

func (s *LocalStorage) Delete(ctx context.Context, objectName string) error {
	path, err := s.path(objectName)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete file: %w", err)
	}
	return nil
}

func (s *LocalStorage) Backend() string {
	return entity.StorageBackendLocal
}
