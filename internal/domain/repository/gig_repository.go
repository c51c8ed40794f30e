package repository

import (
	"context"

	"gigmarket/internal/domain/entity"
)

type GigFilter struct {
	SellerID    string
	Status      string
	Category    string
	Subcategory string
	MinPrice    float64
	MaxPrice    float64
	Query       string
}

// GigFunc edits a freshly read gig inside a transaction. Returning an error aborts it.
type GigFunc func(gig *entity.Gig) error

type GigRepository interface {
	Create(ctx context.Context, gig *entity.Gig) error
	GetByID(ctx context.Context, id string) (*entity.Gig, error)
	// Mutate re-reads the gig, applies fn and writes it back atomically.
	Mutate(ctx context.Context, id string, fn GigFunc) (*entity.Gig, error)
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, filter GigFilter, limit, offset int) ([]*entity.Gig, int64, error)
	CountByField(ctx context.Context, field string, value interface{}) (int64, error)
	CountByCategory(ctx context.Context) (map[string]int64, error)
	UpdateRating(ctx context.Context, gigID string, summary entity.RatingSummary) error
	// HasLiveGigs reports whether the seller owns a gig that is not draft or rejected.
	HasLiveGigs(ctx context.Context, sellerID string) (bool, error)
}
