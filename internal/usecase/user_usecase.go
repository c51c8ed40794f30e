package usecase

import (
	"context"
	"strings"

	"gigmarket/internal/domain/entity"
	"gigmarket/internal/domain/repository"
	"gigmarket/pkg/errors"
	"gigmarket/pkg/logger"
)

type UserUseCase struct {
	userRepo  repository.UserRepository
	gigRepo   repository.GigRepository
	orderRepo repository.OrderRepository
}

func NewUserUseCase(userRepo repository.UserRepository, gigRepo repository.GigRepository, orderRepo repository.OrderRepository) *UserUseCase {
	return &UserUseCase{
		userRepo:  userRepo,
		gigRepo:   gigRepo,
		orderRepo: orderRepo,
	}
}

type UpdateProfileInput struct {
	Name   *string
	Bio    *string
	Avatar *string
	Skills []string
}

func (uc *UserUseCase) GetPublicProfile(ctx context.Context, id string) (*entity.User, error) {
	user, err := uc.userRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !user.IsActive {
		return nil, errors.NotFound("User", nil)
	}
	return user.PublicProfile(), nil
}

func (uc *UserUseCase) UpdateProfile(ctx context.Context, userID string, input UpdateProfileInput) (*entity.User, error) {
	var name string
	if input.Name != nil {
		name = strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, errors.BadRequest("Name cannot be empty", nil)
		}
	}

	return uc.userRepo.Mutate(ctx, userID, func(user *entity.User) error {
		if input.Name != nil {
			user.Name = name
		}
		if input.Bio != nil {
			user.Bio = *input.Bio
		}
		if input.Avatar != nil {
			user.Avatar = *input.Avatar
		}
		if input.Skills != nil {
			user.Skills = input.Skills
		}
		return nil
	})
}

func (uc *UserUseCase) ListUsers(ctx context.Context, filter repository.UserFilter, page, limit int) ([]*entity.User, int64, error) {
	if filter.Role != "" && !entity.IsValidRole(filter.Role) {
		return nil, 0, errors.BadRequest("Invalid role filter", nil)
	}
	switch filter.State {
	case "", "active", "suspended", "inactive":
	default:
		return nil, 0, errors.BadRequest("Invalid state filter", nil)
	}
	return uc.userRepo.List(ctx, filter, limit, offset(page, limit))
}

func (uc *UserUseCase) otherUser(ctx context.Context, adminID, userID string) (*entity.User, error) {
	if adminID == userID {
		return nil, errors.BadRequest("Admins cannot moderate their own account", nil)
	}
	return uc.userRepo.GetByID(ctx, userID)
}

// moderateUser applies fn to another user's account on behalf of an admin.
func (uc *UserUseCase) moderateUser(ctx context.Context, adminID, userID string, fn repository.UserFunc) (*entity.User, error) {
	if adminID == userID {
		return nil, errors.BadRequest("Admins cannot moderate their own account", nil)
	}
	return uc.userRepo.Mutate(ctx, userID, fn)
}

func (uc *UserUseCase) SetSuspended(ctx context.Context, adminID, userID string, suspended bool, reason string) (*entity.User, error) {
	if suspended && strings.TrimSpace(reason) == "" {
		return nil, errors.BadRequest("A suspension reason is required", nil)
	}

	user, err := uc.moderateUser(ctx, adminID, userID, func(user *entity.User) error {
		user.IsSuspended = suspended
		user.SuspensionReason = ""
		if suspended {
			user.SuspensionReason = reason
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	logger.Info("Admin %s set suspended=%t on user %s", adminID, suspended, userID)
	return user, nil
}

func (uc *UserUseCase) SetActive(ctx context.Context, adminID, userID string, active bool) (*entity.User, error) {
	user, err := uc.moderateUser(ctx, adminID, userID, func(user *entity.User) error {
		user.IsActive = active
		return nil
	})
	if err != nil {
		return nil, err
	}
	logger.Info("Admin %s set active=%t on user %s", adminID, active, userID)
	return user, nil
}

func (uc *UserUseCase) ChangeRole(ctx context.Context, adminID, userID, role string) (*entity.User, error) {
	if !entity.IsValidRole(role) {
		return nil, errors.BadRequest("Invalid role", nil)
	}
	user, err := uc.moderateUser(ctx, adminID, userID, func(user *entity.User) error {
		user.Role = role
		return nil
	})
	if err != nil {
		return nil, err
	}
	logger.Info("Admin %s changed role of %s to %s", adminID, userID, role)
	return user, nil
}

// DeleteUser refuses while the user owns a live gig or is party to an open order.
func (uc *UserUseCase) DeleteUser(ctx context.Context, adminID, userID string) error {
	if _, err := uc.otherUser(ctx, adminID, userID); err != nil {
		return err
	}

	hasGigs, err := uc.gigRepo.HasLiveGigs(ctx, userID)
	if err != nil {
		return err
	}
	if hasGigs {
		return errors.Conflict("User still owns active gigs")
	}

	hasOrders, err := uc.orderRepo.HasOpenOrders(ctx, userID)
	if err != nil {
		return err
	}
	if hasOrders {
		return errors.Conflict("User has orders in progress")
	}

	if err := uc.userRepo.Delete(ctx, userID); err != nil {
		return err
	}
	logger.Info("Admin %s deleted user %s", adminID, userID)
	return nil
}
