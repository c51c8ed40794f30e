package repository

import (
	"context"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"gigmarket/internal/domain/entity"
	"gigmarket/internal/domain/repository"
	"gigmarket/pkg/errors"
)

const fileMetadataCollection = "file_metadata"

type firestoreFileMetadataRepository struct {
	client *firestore.Client
}

func NewFirestoreFileMetadataRepository(client *firestore.Client) repository.FileMetadataRepository {
	return &firestoreFileMetadataRepository{
		client: client,
	}
}

func (r *firestoreFileMetadataRepository) Create(ctx context.Context, metadata *entity.FileMetadata) error {
	if _, err := r.client.Collection(fileMetadataCollection).Doc(metadata.ID).Set(ctx, metadata); err != nil {
		return errors.Internal("Failed to create file metadata", err)
	}
	return nil
}

func (r *firestoreFileMetadataRepository) GetByID(ctx context.Context, id string) (*entity.FileMetadata, error) {
	doc, err := r.client.Collection(fileMetadataCollection).Doc(id).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, errors.NotFound("File metadata", err)
		}
		return nil, errors.Internal("Failed to get file metadata", err)
	}

	var metadata entity.FileMetadata
	if err := doc.DataTo(&metadata); err != nil {
		return nil, errors.Internal("Failed to parse file metadata", err)
	}
	return &metadata, nil
}

func (r *firestoreFileMetadataRepository) GetByURL(ctx context.Context, url string) (*entity.FileMetadata, error) {
	iter := r.client.Collection(fileMetadataCollection).Where("url", "==", url).Limit(1).Documents(ctx)
	defer iter.Stop()

	doc, err := iter.Next()
	if err != nil {
		if err == iterator.Done {
			return nil, errors.NotFound("File metadata", nil)
		}
		return nil, errors.Internal("Failed to query file metadata", err)
	}

	var metadata entity.FileMetadata
	if err := doc.DataTo(&metadata); err != nil {
		return nil, errors.Internal("Failed to parse file metadata", err)
	}
	return &metadata, nil
}

func (r *firestoreFileMetadataRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.client.Collection(fileMetadataCollection).Doc(id).Delete(ctx); err != nil {
		return errors.Internal("Failed to delete file metadata", err)
	}
	return nil
}
