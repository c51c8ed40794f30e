package usecase

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"

	"gigmarket/internal/domain/entity"
	"gigmarket/internal/domain/repository"
	"gigmarket/internal/domain/service"
	"gigmarket/pkg/errors"
	"gigmarket/pkg/logger"
)

const (
	MaxUploadFiles = 10
	MaxUploadSize  = 5 << 20

	PurposeAttachment = "attachment"
	PurposeGigImage   = "gig_image"
	PurposeDelivery   = "delivery"
	PurposeAvatar     = "avatar"

	sniffLength = 3072
)

// allowedTypes maps a lower-case extension to the only content type it may carry.
var allowedTypes = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".gif":  "image/gif",
	".webp": "image/webp",
	".pdf":  "application/pdf",
	".zip":  "application/zip",
	".txt":  "text/plain",
}

type UploadFile struct {
	Filename string
	Size     int64
	Content  io.Reader
}

type FileUseCase struct {
	storage      service.FileStorage
	metadataRepo repository.FileMetadataRepository
	now          func() time.Time
}

func NewFileUseCase(storage service.FileStorage, metadataRepo repository.FileMetadataRepository) *FileUseCase {
	return &FileUseCase{
		storage:      storage,
		metadataRepo: metadataRepo,
		now:          time.Now,
	}
}

func validPurpose(purpose string) bool {
	switch purpose {
	case PurposeAttachment, PurposeGigImage, PurposeDelivery, PurposeAvatar:
		return true
	}
	return false
}

func imageOnly(purpose string) bool {
	return purpose == PurposeGigImage || purpose == PurposeAvatar
}

// declaredType validates name, size and extension without reading content.
func declaredType(file UploadFile, purpose string) (string, error) {
	if file.Size > MaxUploadSize {
		return "", errors.BadRequest(fmt.Sprintf("%s exceeds the 5MB limit", file.Filename), nil)
	}
	ext := strings.ToLower(filepath.Ext(file.Filename))
	contentType, ok := allowedTypes[ext]
	if !ok {
		return "", errors.BadRequest(fmt.Sprintf("%s has an unsupported file type", file.Filename), nil)
	}
	if imageOnly(purpose) && !strings.HasPrefix(contentType, "image/") {
		return "", errors.BadRequest(fmt.Sprintf("%s must be an image", file.Filename), nil)
	}
	return contentType, nil
}

// sniff reads the head of the content and checks it against the declared type.
// The returned reader replays the consumed bytes.
func sniff(file UploadFile, expected string) (io.Reader, error) {
	head := make([]byte, sniffLength)
	n, err := io.ReadFull(file.Content, head)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return nil, errors.BadRequest(fmt.Sprintf("Failed to read %s", file.Filename), err)
	}
	head = head[:n]

	matched := false
	for mt := mimetype.Detect(head); mt != nil; mt = mt.Parent() {
		if mt.Is(expected) {
			matched = true
			break
		}
	}
	if !matched {
		return nil, errors.BadRequest(fmt.Sprintf("%s content does not match its extension", file.Filename), nil)
	}
	return io.MultiReader(bytes.NewReader(head), file.Content), nil
}

// Upload validates every file before storing any, and removes what it stored
// if a later file fails.
func (uc *FileUseCase) Upload(ctx context.Context, uploaderID, purpose string, files []UploadFile) ([]*entity.FileMetadata, error) {
	if !validPurpose(purpose) {
		return nil, errors.BadRequest("Invalid upload purpose", nil)
	}
	if len(files) == 0 {
		return nil, errors.BadRequest("No files uploaded", nil)
	}
	if len(files) > MaxUploadFiles {
		return nil, errors.BadRequest(fmt.Sprintf("At most %d files per upload", MaxUploadFiles), nil)
	}

	types := make([]string, len(files))
	for i, file := range files {
		contentType, err := declaredType(file, purpose)
		if err != nil {
			return nil, err
		}
		types[i] = contentType
	}

	stored := make([]*entity.FileMetadata, 0, len(files))
	for i, file := range files {
		meta, err := uc.store(ctx, uploaderID, purpose, file, types[i])
		if err != nil {
			uc.rollback(ctx, stored)
			return nil, err
		}
		stored = append(stored, meta)
	}
	return stored, nil
}

func (uc *FileUseCase) store(ctx context.Context, uploaderID, purpose string, file UploadFile, contentType string) (*entity.FileMetadata, error) {
	content, err := sniff(file, contentType)
	if err != nil {
		return nil, err
	}

	id := uuid.New().String()
	ext := strings.ToLower(filepath.Ext(file.Filename))
	objectName := fmt.Sprintf("%s/%s%s", purpose, id, ext)

	counter := &countingReader{r: io.LimitReader(content, MaxUploadSize+1)}
	url, err := uc.storage.Upload(ctx, counter, objectName, contentType)
	if err != nil {
		return nil, errors.Internal("Failed to store file", err)
	}
	if counter.n > MaxUploadSize {
		uc.deleteObject(ctx, objectName)
		return nil, errors.BadRequest(fmt.Sprintf("%s exceeds the 5MB limit", file.Filename), nil)
	}

	meta := &entity.FileMetadata{
		ID:          id,
		URL:         url,
		ObjectName:  objectName,
		Backend:     uc.storage.Backend(),
		Purpose:     purpose,
		UploadedBy:  uploaderID,
		Filename:    filepath.Base(file.Filename),
		ContentType: contentType,
		Size:        counter.n,
		CreatedAt:   uc.now(),
	}
	if err := uc.metadataRepo.Create(ctx, meta); err != nil {
		uc.deleteObject(ctx, objectName)
		return nil, err
	}
	return meta, nil
}

func (uc *FileUseCase) rollback(ctx context.Context, stored []*entity.FileMetadata) {
	for _, meta := range stored {
		uc.deleteObject(ctx, meta.ObjectName)
		if err := uc.metadataRepo.Delete(ctx, meta.ID); err != nil {
			logger.Warn("Failed to remove metadata %s during rollback: %v", meta.ID, err)
		}
	}
}

func (uc *FileUseCase) deleteObject(ctx context.Context, objectName string) {
	if err := uc.storage.Delete(ctx, objectName); err != nil {
		logger.Warn("Failed to delete stored object %s: %v", objectName, err)
	}
}

// DeleteByURL removes a stored file. Unknown URLs are ignored.
func (uc *FileUseCase) DeleteByURL(ctx context.Context, url string) error {
	meta, err := uc.metadataRepo.GetByURL(ctx, url)
	if err != nil {
		if errors.Is(err, errors.CodeNotFound) {
			return nil
		}
		return err
	}
	if err := uc.storage.Delete(ctx, meta.ObjectName); err != nil {
		return errors.Internal("Failed to delete file", err)
	}
	return uc.metadataRepo.Delete(ctx, meta.ID)
}

type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}
