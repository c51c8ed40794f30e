package repository

import (
	"context"
	"strings"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"gigmarket/internal/domain/entity"
	"gigmarket/internal/domain/repository"
	"gigmarket/pkg/errors"
)

const gigsCollection = "gigs"

type firestoreGigRepository struct {
	client *firestore.Client
}

func NewFirestoreGigRepository(client *firestore.Client) repository.GigRepository {
	return &firestoreGigRepository{
		client: client,
	}
}

func (r *firestoreGigRepository) Create(ctx context.Context, gig *entity.Gig) error {
	if _, err := r.client.Collection(gigsCollection).Doc(gig.ID).Set(ctx, gig); err != nil {
		return errors.Internal("Failed to create gig", err)
	}
	return nil
}

func (r *firestoreGigRepository) GetByID(ctx context.Context, id string) (*entity.Gig, error) {
	doc, err := r.client.Collection(gigsCollection).Doc(id).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, errors.NotFound("Gig", err)
		}
		return nil, errors.Internal("Failed to get gig", err)
	}

	var gig entity.Gig
	if err := doc.DataTo(&gig); err != nil {
		return nil, errors.Internal("Failed to parse gig data", err)
	}
	return &gig, nil
}

func (r *firestoreGigRepository) Mutate(ctx context.Context, id string, fn repository.GigFunc) (*entity.Gig, error) {
	gigRef := r.client.Collection(gigsCollection).Doc(id)
	var result *entity.Gig

	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		doc, err := tx.Get(gigRef)
		if err != nil {
			if status.Code(err) == codes.NotFound {
				return errors.NotFound("Gig", err)
			}
			return err
		}
		var gig entity.Gig
		if err := doc.DataTo(&gig); err != nil {
			return err
		}

		if err := fn(&gig); err != nil {
			return err
		}

		gig.UpdatedAt = time.Now()
		if err := tx.Set(gigRef, &gig); err != nil {
			return err
		}
		result = &gig
		return nil
	})
	if err != nil {
		var appErr *errors.AppError
		if errors.As(err, &appErr) {
			return nil, appErr
		}
		return nil, errors.Internal("Failed to update gig", err)
	}
	return result, nil
}

func (r *firestoreGigRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.client.Collection(gigsCollection).Doc(id).Delete(ctx); err != nil {
		return errors.Internal("Failed to delete gig", err)
	}
	return nil
}

func (r *firestoreGigRepository) List(ctx context.Context, filter repository.GigFilter, limit, offset int) ([]*entity.Gig, int64, error) {
	q := r.client.Collection(gigsCollection).Query
	if filter.SellerID != "" {
		q = q.Where("sellerId", "==", filter.SellerID)
	}
	if filter.Status != "" {
		q = q.Where("status", "==", filter.Status)
	}
	if filter.Category != "" {
		q = q.Where("category", "==", filter.Category)
	}
	if filter.Subcategory != "" {
		q = q.Where("subcategory", "==", filter.Subcategory)
	}

	ranged := filter.MinPrice > 0 || filter.MaxPrice > 0
	if filter.MinPrice > 0 {
		q = q.Where("price", ">=", filter.MinPrice)
	}
	if filter.MaxPrice > 0 {
		q = q.Where("price", "<=", filter.MaxPrice)
	}
	if ranged {
		// Range filters require the first ordering on the same field.
		q = q.OrderBy("price", firestore.Asc)
	}
	q = q.OrderBy("createdAt", firestore.Desc)

	// Free-text search has no index, so it filters in memory.
	if filter.Query != "" {
		all, err := decodeAll[entity.Gig](q.Documents(ctx))
		if err != nil {
			return nil, 0, errors.Internal("Failed to search gigs", err)
		}
		matched := make([]*entity.Gig, 0, len(all))
		needle := strings.ToLower(filter.Query)
		for _, gig := range all {
			if gigMatches(gig, needle) {
				matched = append(matched, gig)
			}
		}
		return pageSlice(matched, limit, offset), int64(len(matched)), nil
	}

	total, err := countQuery(ctx, q)
	if err != nil {
		return nil, 0, errors.Internal("Failed to count gigs", err)
	}
	gigs, err := decodeAll[entity.Gig](paginate(q, limit, offset).Documents(ctx))
	if err != nil {
		return nil, 0, errors.Internal("Failed to list gigs", err)
	}
	return gigs, total, nil
}

func gigMatches(gig *entity.Gig, needle string) bool {
	if strings.Contains(strings.ToLower(gig.Title), needle) ||
		strings.Contains(strings.ToLower(gig.Description), needle) {
		return true
	}
	for _, tag := range gig.Tags {
		if strings.Contains(strings.ToLower(tag), needle) {
			return true
		}
	}
	return false
}

func (r *firestoreGigRepository) CountByField(ctx context.Context, field string, value interface{}) (int64, error) {
	total, err := countQuery(ctx, r.client.Collection(gigsCollection).Where(field, "==", value))
	if err != nil {
		return 0, errors.Internal("Failed to count gigs", err)
	}
	return total, nil
}

func (r *firestoreGigRepository) CountByCategory(ctx context.Context) (map[string]int64, error) {
	iter := r.client.Collection(gigsCollection).Select("category").Documents(ctx)
	gigs, err := decodeAll[entity.Gig](iter)
	if err != nil {
		return nil, errors.Internal("Failed to count gigs by category", err)
	}

	counts := make(map[string]int64)
	for _, gig := range gigs {
		counts[gig.Category]++
	}
	return counts, nil
}

func (r *firestoreGigRepository) UpdateRating(ctx context.Context, gigID string, summary entity.RatingSummary) error {
	_, err := r.client.Collection(gigsCollection).Doc(gigID).Update(ctx, []firestore.Update{
		{Path: "rating", Value: summary.Average},
		{Path: "totalReviews", Value: summary.Count},
		{Path: "updatedAt", Value: time.Now()},
	})
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return errors.NotFound("Gig", err)
		}
		return errors.Internal("Failed to update gig rating", err)
	}
	return nil
}

func (r *firestoreGigRepository) HasLiveGigs(ctx context.Context, sellerID string) (bool, error) {
	q := r.client.Collection(gigsCollection).
		Where("sellerId", "==", sellerID).
		Where("status", "in", []string{entity.GigStatusPending, entity.GigStatusActive, entity.GigStatusPaused})

	total, err := countQuery(ctx, q.Limit(1))
	if err != nil {
		return false, errors.Internal("Failed to check seller gigs", err)
	}
	return total > 0, nil
}
