package repository

import (
	"context"
	"time"

	"gigmarket/internal/domain/entity"
)

// UserFilter narrows admin user listings. Empty fields match everything.
type UserFilter struct {
	Role  string
	State string // active, suspended, inactive
}

// UserFunc edits a freshly read user inside a transaction. Returning an error aborts it.
type UserFunc func(user *entity.User) error

type UserRepository interface {
	// Create stores the user and claims its email. A taken email is a CONFLICT.
	Create(ctx context.Context, user *entity.User) error
	GetByID(ctx context.Context, id string) (*entity.User, error)
	GetByEmail(ctx context.Context, email string) (*entity.User, error)
	// Mutate re-reads the user, applies fn and writes it back atomically.
	Mutate(ctx context.Context, id string, fn UserFunc) (*entity.User, error)
	// RecordLogin stamps lastLoginAt without touching other fields.
	RecordLogin(ctx context.Context, userID string, at time.Time) error
	// Delete removes the user and releases the email claim.
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, filter UserFilter, limit, offset int) ([]*entity.User, int64, error)
	CountByField(ctx context.Context, field string, value interface{}) (int64, error)
	ListCreatedBetween(ctx context.Context, from, to time.Time) ([]*entity.User, error)
	UpdateRating(ctx context.Context, userID string, summary entity.RatingSummary) error
}
