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

type GigUseCase struct {
	gigRepo   repository.GigRepository
	orderRepo repository.OrderRepository
	files     *FileUseCase
	now       func() time.Time
}

func NewGigUseCase(gigRepo repository.GigRepository, orderRepo repository.OrderRepository, files *FileUseCase) *GigUseCase {
	return &GigUseCase{
		gigRepo:   gigRepo,
		orderRepo: orderRepo,
		files:     files,
		now:       time.Now,
	}
}

type CreateGigInput struct {
	Title        string
	Description  string
	Category     string
	Subcategory  string
	Tags         []string
	Price        float64
	DeliveryTime int
	Revisions    int
}

type UpdateGigInput struct {
	Title        *string
	Description  *string
	Category     *string
	Subcategory  *string
	Tags         []string
	Price        *float64
	DeliveryTime *int
	Revisions    *int
}

func validateGigTerms(price float64, deliveryTime, revisions int) error {
	if price < entity.MinGigPrice {
		return errors.BadRequest("Price must be at least 5", nil)
	}
	if deliveryTime < 1 {
		return errors.BadRequest("Delivery time must be at least one day", nil)
	}
	if revisions < 0 {
		return errors.BadRequest("Revisions cannot be negative", nil)
	}
	return nil
}

func canManageGig(user *entity.User, gig *entity.Gig) bool {
	return user.IsAdmin() || gig.SellerID == user.ID
}

func (uc *GigUseCase) CreateGig(ctx context.Context, seller *entity.User, input CreateGigInput) (*entity.Gig, error) {
	if err := validateGigTerms(input.Price, input.DeliveryTime, input.Revisions); err != nil {
		return nil, err
	}

	now := uc.now()
	gig := &entity.Gig{
		ID:           uuid.New().String(),
		SellerID:     seller.ID,
		Title:        strings.TrimSpace(input.Title),
		Description:  input.Description,
		Category:     input.Category,
		Subcategory:  input.Subcategory,
		Tags:         input.Tags,
		Price:        input.Price,
		DeliveryTime: input.DeliveryTime,
		Revisions:    input.Revisions,
		Images:       []entity.GigImage{},
		Status:       entity.GigStatusDraft,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := uc.gigRepo.Create(ctx, gig); err != nil {
		return nil, err
	}
	return gig, nil
}

// GetGig hides non-active gigs from everyone but the owner and admins.
// viewer may be nil for anonymous callers.
func (uc *GigUseCase) GetGig(ctx context.Context, viewer *entity.User, id string) (*entity.Gig, error) {
	gig, err := uc.gigRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if gig.Status == entity.GigStatusActive {
		return gig, nil
	}
	if viewer != nil && canManageGig(viewer, gig) {
		return gig, nil
	}
	return nil, errors.NotFound("Gig", nil)
}

func (uc *GigUseCase) ListPublic(ctx context.Context, filter repository.GigFilter, page, limit int) ([]*entity.Gig, int64, error) {
	if filter.MinPrice > 0 && filter.MaxPrice > 0 && filter.MinPrice > filter.MaxPrice {
		return nil, 0, errors.BadRequest("minPrice cannot exceed maxPrice", nil)
	}
	filter.Status = entity.GigStatusActive
	return uc.gigRepo.List(ctx, filter, limit, offset(page, limit))
}

func (uc *GigUseCase) ListBySeller(ctx context.Context, sellerID, status string, page, limit int) ([]*entity.Gig, int64, error) {
	if status != "" && !entity.IsValidGigStatus(status) {
		return nil, 0, errors.BadRequest("Invalid status filter", nil)
	}
	filter := repository.GigFilter{SellerID: sellerID, Status: status}
	return uc.gigRepo.List(ctx, filter, limit, offset(page, limit))
}

func (uc *GigUseCase) ListForAdmin(ctx context.Context, status string, page, limit int) ([]*entity.Gig, int64, error) {
	if status != "" && !entity.IsValidGigStatus(status) {
		return nil, 0, errors.BadRequest("Invalid status filter", nil)
	}
	return uc.gigRepo.List(ctx, repository.GigFilter{Status: status}, limit, offset(page, limit))
}

func (uc *GigUseCase) loadManaged(ctx context.Context, user *entity.User, id string) (*entity.Gig, error) {
	gig, err := uc.gigRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !canManageGig(user, gig) {
		return nil, errors.Forbidden("You do not own this gig", nil)
	}
	return gig, nil
}

// mutateManaged applies fn to the freshest copy of a gig the user may manage.
func (uc *GigUseCase) mutateManaged(ctx context.Context, user *entity.User, id string, fn repository.GigFunc) (*entity.Gig, error) {
	return uc.gigRepo.Mutate(ctx, id, func(gig *entity.Gig) error {
		if !canManageGig(user, gig) {
			return errors.Forbidden("You do not own this gig", nil)
		}
		return fn(gig)
	})
}

func (uc *GigUseCase) UpdateGig(ctx context.Context, user *entity.User, id string, input UpdateGigInput) (*entity.Gig, error) {
	return uc.mutateManaged(ctx, user, id, func(gig *entity.Gig) error {
		if input.Title != nil {
			gig.Title = strings.TrimSpace(*input.Title)
		}
		if input.Description != nil {
			gig.Description = *input.Description
		}
		if input.Category != nil {
			gig.Category = *input.Category
		}
		if input.Subcategory != nil {
			gig.Subcategory = *input.Subcategory
		}
		if input.Tags != nil {
			gig.Tags = input.Tags
		}
		if input.Price != nil {
			gig.Price = *input.Price
		}
		if input.DeliveryTime != nil {
			gig.DeliveryTime = *input.DeliveryTime
		}
		if input.Revisions != nil {
			gig.Revisions = *input.Revisions
		}
		return validateGigTerms(gig.Price, gig.DeliveryTime, gig.Revisions)
	})
}

// DeleteGig refuses while any order on the gig is still open, so completion
// can always credit it.
func (uc *GigUseCase) DeleteGig(ctx context.Context, user *entity.User, id string) error {
	gig, err := uc.loadManaged(ctx, user, id)
	if err != nil {
		return err
	}

	open, err := uc.orderRepo.HasOpenOrdersForGig(ctx, id)
	if err != nil {
		return err
	}
	if open {
		return errors.Conflict("Gig has orders in progress")
	}

	if err := uc.gigRepo.Delete(ctx, id); err != nil {
		return err
	}
	for _, img := range gig.Images {
		if err := uc.files.DeleteByURL(ctx, img.URL); err != nil {
			logger.Warn("Failed to delete image %s of gig %s: %v", img.ID, gig.ID, err)
		}
	}
	return nil
}

// ownerStatusMoves lists the status changes a seller may make on their own gig.
var ownerStatusMoves = map[string][]string{
	entity.GigStatusDraft:    {entity.GigStatusPending},
	entity.GigStatusRejected: {entity.GigStatusPending},
	entity.GigStatusActive:   {entity.GigStatusPaused},
	entity.GigStatusPaused:   {entity.GigStatusActive},
}

func (uc *GigUseCase) ChangeStatus(ctx context.Context, user *entity.User, id, status string) (*entity.Gig, error) {
	if !entity.IsValidGigStatus(status) {
		return nil, errors.BadRequest("Invalid gig status", nil)
	}

	return uc.mutateManaged(ctx, user, id, func(gig *entity.Gig) error {
		allowed := false
		for _, next := range ownerStatusMoves[gig.Status] {
			if next == status {
				allowed = true
				break
			}
		}
		if !allowed {
			return errors.Conflict("Cannot move gig from " + gig.Status + " to " + status)
		}
		if status == entity.GigStatusPending {
			gig.RejectionReason = ""
		}
		gig.Status = status
		return nil
	})
}

// Moderate approves or rejects a gig awaiting review.
func (uc *GigUseCase) Moderate(ctx context.Context, adminID, id, action, reason string) (*entity.Gig, error) {
	switch action {
	case "approve":
	case "reject":
		if strings.TrimSpace(reason) == "" {
			return nil, errors.BadRequest("A rejection reason is required", nil)
		}
	default:
		return nil, errors.BadRequest("Action must be approve or reject", nil)
	}

	gig, err := uc.gigRepo.Mutate(ctx, id, func(gig *entity.Gig) error {
		if gig.Status != entity.GigStatusPending {
			return errors.Conflict("Only pending gigs can be moderated")
		}
		if action == "approve" {
			gig.Status = entity.GigStatusActive
			gig.RejectionReason = ""
		} else {
			gig.Status = entity.GigStatusRejected
			gig.RejectionReason = reason
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	logger.Info("Admin %s moderated gig %s: %s", adminID, id, action)
	return gig, nil
}

// AddImages uploads first and attaches under a transaction, so a slow upload
// never holds a stale copy of the gig.
func (uc *GigUseCase) AddImages(ctx context.Context, user *entity.User, id string, files []UploadFile) (*entity.Gig, error) {
	gig, err := uc.loadManaged(ctx, user, id)
	if err != nil {
		return nil, err
	}
	if len(gig.Images)+len(files) > entity.MaxGigImages {
		return nil, errors.BadRequest("A gig can hold at most 10 images", nil)
	}

	uploaded, err := uc.files.Upload(ctx, user.ID, PurposeGigImage, files)
	if err != nil {
		return nil, err
	}

	updated, err := uc.mutateManaged(ctx, user, id, func(gig *entity.Gig) error {
		for _, meta := range uploaded {
			if err := gig.AddImage(entity.GigImage{ID: meta.ID, URL: meta.URL}); err != nil {
				return errors.BadRequest(err.Error(), err)
			}
		}
		return nil
	})
	if err != nil {
		uc.files.rollback(ctx, uploaded)
		return nil, err
	}
	return updated, nil
}

func (uc *GigUseCase) RemoveImage(ctx context.Context, user *entity.User, id, imageID string) (*entity.Gig, error) {
	var removed entity.GigImage
	gig, err := uc.mutateManaged(ctx, user, id, func(gig *entity.Gig) error {
		img, err := gig.RemoveImage(imageID)
		if err != nil {
			return errors.NotFound("Image", err)
		}
		removed = img
		return nil
	})
	if err != nil {
		return nil, err
	}
	if err := uc.files.DeleteByURL(ctx, removed.URL); err != nil {
		logger.Warn("Failed to delete image file %s: %v", removed.URL, err)
	}
	return gig, nil
}

func (uc *GigUseCase) SetPrimaryImage(ctx context.Context, user *entity.User, id, imageID string) (*entity.Gig, error) {
	return uc.mutateManaged(ctx, user, id, func(gig *entity.Gig) error {
		if err := gig.SetPrimaryImage(imageID); err != nil {
			return errors.NotFound("Image", err)
		}
		return nil
	})
}
