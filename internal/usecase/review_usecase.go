package usecase

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"gigmarket/internal/domain/entity"
	"gigmarket/internal/domain/repository"
	"gigmarket/pkg/errors"
	"gigmarket/pkg/logger"
)

type ReviewUseCase struct {
	reviewRepo repository.ReviewRepository
	orderRepo  repository.OrderRepository
	gigRepo    repository.GigRepository
	userRepo   repository.UserRepository
	now        func() time.Time
}

func NewReviewUseCase(
	reviewRepo repository.ReviewRepository,
	orderRepo repository.OrderRepository,
	gigRepo repository.GigRepository,
	userRepo repository.UserRepository,
) *ReviewUseCase {
	return &ReviewUseCase{
		reviewRepo: reviewRepo,
		orderRepo:  orderRepo,
		gigRepo:    gigRepo,
		userRepo:   userRepo,
		now:        time.Now,
	}
}

type CreateReviewInput struct {
	OrderID string
	Rating  int
	Comment string
}

type UpdateReviewInput struct {
	Rating  *int
	Comment *string
}

func validRating(rating int) error {
	if rating < 1 || rating > 5 {
		return errors.BadRequest("Rating must be between 1 and 5", nil)
	}
	return nil
}

func (uc *ReviewUseCase) CreateReview(ctx context.Context, user *entity.User, input CreateReviewInput) (*entity.Review, error) {
	if err := validRating(input.Rating); err != nil {
		return nil, err
	}

	order, err := uc.orderRepo.GetByID(ctx, input.OrderID)
	if err != nil {
		return nil, err
	}
	if order.BuyerID != user.ID {
		return nil, errors.Forbidden("Only the buyer can review this order", nil)
	}
	if order.Status != entity.OrderStatusCompleted {
		return nil, errors.Conflict("Orders can only be reviewed once completed")
	}

	now := uc.now()
	review := &entity.Review{
		ID:         uuid.New().String(),
		OrderID:    order.ID,
		GigID:      order.GigID,
		ReviewerID: user.ID,
		RevieweeID: order.SellerID,
		Rating:     input.Rating,
		Comment:    strings.TrimSpace(input.Comment),
		Status:     entity.ReviewStatusPending,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := uc.reviewRepo.CreateUnique(ctx, review); err != nil {
		return nil, err
	}
	return review, nil
}

func (uc *ReviewUseCase) GetReview(ctx context.Context, id string) (*entity.Review, error) {
	return uc.reviewRepo.GetByID(ctx, id)
}

func (uc *ReviewUseCase) loadOwned(ctx context.Context, user *entity.User, id string) (*entity.Review, error) {
	review, err := uc.reviewRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if review.ReviewerID != user.ID && !user.IsAdmin() {
		return nil, errors.Forbidden("You can only change your own reviews", nil)
	}
	return review, nil
}

// UpdateReview sends the edited review back through moderation.
func (uc *ReviewUseCase) UpdateReview(ctx context.Context, user *entity.User, id string, input UpdateReviewInput) (*entity.Review, error) {
	review, err := uc.loadOwned(ctx, user, id)
	if err != nil {
		return nil, err
	}

	if input.Rating != nil {
		if err := validRating(*input.Rating); err != nil {
			return nil, err
		}
		review.Rating = *input.Rating
	}
	if input.Comment != nil {
		review.Comment = strings.TrimSpace(*input.Comment)
	}

	wasApproved := review.Status == entity.ReviewStatusApproved
	review.Status = entity.ReviewStatusPending
	review.RejectionReason = ""
	review.ModeratedBy = ""
	review.ModeratedAt = nil

	if err := uc.reviewRepo.Update(ctx, review); err != nil {
		return nil, err
	}
	if wasApproved {
		if err := uc.refreshRatings(ctx, review); err != nil {
			return nil, err
		}
	}
	return review, nil
}

func (uc *ReviewUseCase) DeleteReview(ctx context.Context, user *entity.User, id string) error {
	review, err := uc.loadOwned(ctx, user, id)
	if err != nil {
		return err
	}
	if err := uc.reviewRepo.Delete(ctx, id); err != nil {
		return err
	}
	if review.Status == entity.ReviewStatusApproved {
		return uc.refreshRatings(ctx, review)
	}
	return nil
}

// ReportReview flags a review for moderators. It never changes the status.
func (uc *ReviewUseCase) ReportReview(ctx context.Context, user *entity.User, id, reason string) (*entity.Review, error) {
	if strings.TrimSpace(reason) == "" {
		return nil, errors.BadRequest("A report reason is required", nil)
	}
	return uc.reviewRepo.MarkReported(ctx, id, user.ID, reason, uc.now())
}

func (uc *ReviewUseCase) ListGigReviews(ctx context.Context, gigID string, page, limit int) ([]*entity.Review, int64, error) {
	filter := repository.ReviewFilter{GigID: gigID, Status: entity.ReviewStatusApproved}
	return uc.reviewRepo.List(ctx, filter, limit, offset(page, limit))
}

func (uc *ReviewUseCase) ListForModeration(ctx context.Context, status string, reported *bool, page, limit int) ([]*entity.Review, int64, error) {
	switch status {
	case "", entity.ReviewStatusPending, entity.ReviewStatusApproved, entity.ReviewStatusRejected:
	default:
		return nil, 0, errors.BadRequest("Invalid status filter", nil)
	}
	filter := repository.ReviewFilter{Status: status, Reported: reported}
	return uc.reviewRepo.List(ctx, filter, limit, offset(page, limit))
}

func (uc *ReviewUseCase) Moderate(ctx context.Context, admin *entity.User, id, action, reason string) (*entity.Review, error) {
	review, err := uc.reviewRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	switch action {
	case "approve":
		review.Status = entity.ReviewStatusApproved
		review.RejectionReason = ""
	case "reject":
		if strings.TrimSpace(reason) == "" {
			return nil, errors.BadRequest("A rejection reason is required", nil)
		}
		review.Status = entity.ReviewStatusRejected
		review.RejectionReason = reason
	default:
		return nil, errors.BadRequest("Action must be approve or reject", nil)
	}

	now := uc.now()
	review.ModeratedBy = admin.ID
	review.ModeratedAt = &now

	if err := uc.reviewRepo.Update(ctx, review); err != nil {
		return nil, err
	}
	if err := uc.refreshRatings(ctx, review); err != nil {
		return nil, err
	}
	return review, nil
}

// refreshRatings re-derives gig and seller ratings from their full approved sets.
// It is idempotent.
func (uc *ReviewUseCase) refreshRatings(ctx context.Context, review *entity.Review) error {
	gigReviews, err := uc.reviewRepo.ListAll(ctx, repository.ReviewFilter{GigID: review.GigID, Status: entity.ReviewStatusApproved})
	if err != nil {
		return err
	}
	if err := uc.gigRepo.UpdateRating(ctx, review.GigID, entity.SummarizeApproved(gigReviews)); err != nil {
		if !errors.Is(err, errors.CodeNotFound) {
			return err
		}
		logger.Debug("Gig %s no longer exists; skipping rating update", review.GigID)
	}

	sellerReviews, err := uc.reviewRepo.ListAll(ctx, repository.ReviewFilter{RevieweeID: review.RevieweeID, Status: entity.ReviewStatusApproved})
	if err != nil {
		return err
	}
	if err := uc.userRepo.UpdateRating(ctx, review.RevieweeID, entity.SummarizeApproved(sellerReviews)); err != nil {
		if !errors.Is(err, errors.CodeNotFound) {
			return err
		}
		logger.Debug("Seller %s no longer exists; skipping rating update", review.RevieweeID)
	}
	return nil
}
