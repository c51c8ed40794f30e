package repository

import (
	"context"
	"time"

	"gigmarket/internal/domain/entity"
)

type ReviewFilter struct {
	GigID      string
	RevieweeID string
	ReviewerID string
	Status     string
	Reported   *bool
}

type ReviewRepository interface {
	// CreateUnique stores the review unless one already exists for its order (CONFLICT).
	CreateUnique(ctx context.Context, review *entity.Review) error
	GetByID(ctx context.Context, id string) (*entity.Review, error)
	GetByOrderID(ctx context.Context, orderID string) (*entity.Review, error)
	Update(ctx context.Context, review *entity.Review) error
	// MarkReported writes only the report fields, leaving moderation state untouched.
	MarkReported(ctx context.Context, id, reporterID, reason string, at time.Time) (*entity.Review, error)
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, filter ReviewFilter, limit, offset int) ([]*entity.Review, int64, error)
	ListAll(ctx context.Context, filter ReviewFilter) ([]*entity.Review, error)
}
