package usecase

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"gigmarket/internal/domain/entity"
	"gigmarket/internal/domain/repository"
	"gigmarket/pkg/errors"
	"gigmarket/pkg/logger"
)

const invalidCredentials = "Invalid email or password"

type AuthUseCase struct {
	userRepo repository.UserRepository
	tokens   TokenIssuer
	hasher   PasswordHasher
	now      func() time.Time

	// dummyHash is compared against when the email is unknown so both
	// failure paths cost one hash comparison.
	dummyOnce sync.Once
	dummyHash string
}

func NewAuthUseCase(userRepo repository.UserRepository, tokens TokenIssuer, hasher PasswordHasher) *AuthUseCase {
	return &AuthUseCase{
		userRepo: userRepo,
		tokens:   tokens,
		hasher:   hasher,
		now:      time.Now,
	}
}

type RegisterInput struct {
	Name     string
	Email    string
	Password string
	Role     string
}

type AuthResult struct {
	User  *entity.User `json:"user"`
	Token string       `json:"token"`
}

func (uc *AuthUseCase) Register(ctx context.Context, input RegisterInput) (*AuthResult, error) {
	if input.Role != entity.RoleClient && input.Role != entity.RoleFreelancer {
		return nil, errors.BadRequest("Role must be client or freelancer", nil)
	}

	hash, err := uc.hasher.Hash(input.Password)
	if err != nil {
		return nil, errors.Internal("Failed to hash password", err)
	}

	now := uc.now()
	user := &entity.User{
		ID:           uuid.New().String(),
		Name:         strings.TrimSpace(input.Name),
		Email:        strings.ToLower(strings.TrimSpace(input.Email)),
		PasswordHash: hash,
		Role:         input.Role,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := uc.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}

	token, err := uc.tokens.Issue(user.ID, user.Role)
	if err != nil {
		return nil, errors.Internal("Failed to issue token", err)
	}

	logger.Info("Registered user %s as %s", user.ID, user.Role)
	return &AuthResult{User: user, Token: token}, nil
}

func (uc *AuthUseCase) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	user, err := uc.userRepo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, errors.CodeNotFound) {
			uc.hasher.Compare(uc.unknownUserHash(), password)
			return nil, errors.Unauthorized(invalidCredentials, nil)
		}
		return nil, err
	}

	if !uc.hasher.Compare(user.PasswordHash, password) {
		return nil, errors.Unauthorized(invalidCredentials, nil)
	}

	if user.IsSuspended {
		return nil, errors.Unauthorized("Account is suspended", nil)
	}
	if !user.IsActive {
		return nil, errors.Unauthorized("Account is deactivated", nil)
	}

	now := uc.now()
	user.LastLoginAt = &now
	if err := uc.userRepo.RecordLogin(ctx, user.ID, now); err != nil {
		logger.Warn("Failed to stamp last login for %s: %v", user.ID, err)
	}

	token, err := uc.tokens.Issue(user.ID, user.Role)
	if err != nil {
		return nil, errors.Internal("Failed to issue token", err)
	}
	return &AuthResult{User: user, Token: token}, nil
}

func (uc *AuthUseCase) GetUserByID(ctx context.Context, id string) (*entity.User, error) {
	return uc.userRepo.GetByID(ctx, id)
}

func (uc *AuthUseCase) ChangePassword(ctx context.Context, userID, currentPassword, newPassword string) error {
	user, err := uc.userRepo.GetByID(ctx, userID)
	if err != nil {
		return err
	}

	if !uc.hasher.Compare(user.PasswordHash, currentPassword) {
		return errors.BadRequest("Current password is incorrect", nil)
	}
	if currentPassword == newPassword {
		return errors.BadRequest("New password must differ from the current one", nil)
	}

	hash, err := uc.hasher.Hash(newPassword)
	if err != nil {
		return errors.Internal("Failed to hash password", err)
	}

	verified := user.PasswordHash
	_, err = uc.userRepo.Mutate(ctx, userID, func(u *entity.User) error {
		if u.PasswordHash != verified {
			return errors.Conflict("Password was changed concurrently, try again")
		}
		u.PasswordHash = hash
		return nil
	})
	return err
}

func (uc *AuthUseCase) unknownUserHash() string {
	uc.dummyOnce.Do(func() {
		hash, err := uc.hasher.Hash(uuid.New().String())
		if err != nil {
			logger.Warn("Failed to prepare placeholder password hash: %v", err)
			return
		}
		uc.dummyHash = hash
	})
	return uc.dummyHash
}
