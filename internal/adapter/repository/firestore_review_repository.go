package repository

import (
	"context"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"gigmarket/internal/domain/entity"
	"gigmarket/internal/domain/repository"
	"gigmarket/pkg/errors"
)

const reviewsCollection = "reviews"

type firestoreReviewRepository struct {
	client *firestore.Client
}

func NewFirestoreReviewRepository(client *firestore.Client) repository.ReviewRepository {
	return &firestoreReviewRepository{
		client: client,
	}
}

func (r *firestoreReviewRepository) CreateUnique(ctx context.Context, review *entity.Review) error {
	reviews := r.client.Collection(reviewsCollection)
	existing := reviews.Where("orderId", "==", review.OrderID).Limit(1)

	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		iter := tx.Documents(existing)
		defer iter.Stop()

		if _, err := iter.Next(); err == nil {
			return errors.Conflict("Order has already been reviewed")
		} else if err != iterator.Done {
			return err
		}
		return tx.Create(reviews.Doc(review.ID), review)
	})
	if err != nil {
		if errors.Is(err, errors.CodeConflict) {
			return err
		}
		return errors.Internal("Failed to create review", err)
	}
	return nil
}

func (r *firestoreReviewRepository) GetByID(ctx context.Context, id string) (*entity.Review, error) {
	doc, err := r.client.Collection(reviewsCollection).Doc(id).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, errors.NotFound("Review", err)
		}
		return nil, errors.Internal("Failed to get review", err)
	}

	var review entity.Review
	if err := doc.DataTo(&review); err != nil {
		return nil, errors.Internal("Failed to parse review data", err)
	}
	return &review, nil
}

func (r *firestoreReviewRepository) GetByOrderID(ctx context.Context, orderID string) (*entity.Review, error) {
	iter := r.client.Collection(reviewsCollection).Where("orderId", "==", orderID).Limit(1).Documents(ctx)
	defer iter.Stop()

	doc, err := iter.Next()
	if err != nil {
		if err == iterator.Done {
			return nil, errors.NotFound("Review for order", nil)
		}
		return nil, errors.Internal("Failed to query review", err)
	}

	var review entity.Review
	if err := doc.DataTo(&review); err != nil {
		return nil, errors.Internal("Failed to parse review data", err)
	}
	return &review, nil
}

// Update writes the reviewer's content and the moderation state. Report
// fields are owned by MarkReported.
func (r *firestoreReviewRepository) Update(ctx context.Context, review *entity.Review) error {
	review.UpdatedAt = time.Now()
	_, err := r.client.Collection(reviewsCollection).Doc(review.ID).Update(ctx, []firestore.Update{
		{Path: "rating", Value: review.Rating},
		{Path: "comment", Value: review.Comment},
		{Path: "status", Value: review.Status},
		{Path: "rejectionReason", Value: stringOrDelete(review.RejectionReason)},
		{Path: "moderatedBy", Value: stringOrDelete(review.ModeratedBy)},
		{Path: "moderatedAt", Value: timeOrDelete(review.ModeratedAt)},
		{Path: "updatedAt", Value: review.UpdatedAt},
	})
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return errors.NotFound("Review", err)
		}
		return errors.Internal("Failed to update review", err)
	}
	return nil
}

func (r *firestoreReviewRepository) MarkReported(ctx context.Context, id, reporterID, reason string, at time.Time) (*entity.Review, error) {
	reviewRef := r.client.Collection(reviewsCollection).Doc(id)
	var result *entity.Review

	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		doc, err := tx.Get(reviewRef)
		if err != nil {
			if status.Code(err) == codes.NotFound {
				return errors.NotFound("Review", err)
			}
			return err
		}
		var review entity.Review
		if err := doc.DataTo(&review); err != nil {
			return err
		}
		if review.ReviewerID == reporterID {
			return errors.Forbidden("You cannot report your own review", nil)
		}

		review.Reported = true
		review.ReportReason = reason
		review.ReportedBy = reporterID
		review.ReportedAt = &at
		if err := tx.Update(reviewRef, []firestore.Update{
			{Path: "reported", Value: true},
			{Path: "reportReason", Value: reason},
			{Path: "reportedBy", Value: reporterID},
			{Path: "reportedAt", Value: at},
		}); err != nil {
			return err
		}
		result = &review
		return nil
	})
	if err != nil {
		var appErr *errors.AppError
		if errors.As(err, &appErr) {
			return nil, appErr
		}
		return nil, errors.Internal("Failed to report review", err)
	}
	return result, nil
}

func (r *firestoreReviewRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.client.Collection(reviewsCollection).Doc(id).Delete(ctx); err != nil {
		return errors.Internal("Failed to delete review", err)
	}
	return nil
}

func (r *firestoreReviewRepository) filterQuery(filter repository.ReviewFilter) firestore.Query {
	q := r.client.Collection(reviewsCollection).Query
	if filter.GigID != "" {
		q = q.Where("gigId", "==", filter.GigID)
	}
	if filter.RevieweeID != "" {
		q = q.Where("revieweeId", "==", filter.RevieweeID)
	}
	if filter.ReviewerID != "" {
		q = q.Where("reviewerId", "==", filter.ReviewerID)
	}
	if filter.Status != "" {
		q = q.Where("status", "==", filter.Status)
	}
	if filter.Reported != nil {
		q = q.Where("reported", "==", *filter.Reported)
	}
	return q
}

func (r *firestoreReviewRepository) List(ctx context.Context, filter repository.ReviewFilter, limit, offset int) ([]*entity.Review, int64, error) {
	q := r.filterQuery(filter)

	total, err := countQuery(ctx, q)
	if err != nil {
		return nil, 0, errors.Internal("Failed to count reviews", err)
	}

	reviews, err := decodeAll[entity.Review](paginate(q.OrderBy("createdAt", firestore.Desc), limit, offset).Documents(ctx))
	if err != nil {
		return nil, 0, errors.Internal("Failed to list reviews", err)
	}
	return reviews, total, nil
}

func (r *firestoreReviewRepository) ListAll(ctx context.Context, filter repository.ReviewFilter) ([]*entity.Review, error) {
	reviews, err := decodeAll[entity.Review](r.filterQuery(filter).Documents(ctx))
	if err != nil {
		return nil, errors.Internal("Failed to list reviews", err)
	}
	return reviews, nil
}
