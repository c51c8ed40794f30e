package repository

import (
	"context"
	"strings"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"gigmarket/internal/domain/entity"
	"gigmarket/internal/domain/repository"
	"gigmarket/pkg/errors"
)

const (
	usersCollection      = "users"
	userEmailsCollection = "user_emails"
)

type firestoreUserRepository struct {
	client *firestore.Client
}

func NewFirestoreUserRepository(client *firestore.Client) repository.UserRepository {
	return &firestoreUserRepository{
		client: client,
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (r *firestoreUserRepository) Create(ctx context.Context, user *entity.User) error {
	user.Email = normalizeEmail(user.Email)
	userRef := r.client.Collection(usersCollection).Doc(user.ID)
	guardRef := r.client.Collection(userEmailsCollection).Doc(user.Email)

	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		if _, err := tx.Get(guardRef); err == nil {
			return errors.Conflict("Email is already registered")
		} else if status.Code(err) != codes.NotFound {
			return err
		}

		if err := tx.Create(guardRef, map[string]interface{}{
			"userId":    user.ID,
			"createdAt": user.CreatedAt,
		}); err != nil {
			return err
		}
		return tx.Create(userRef, user)
	})
	if err != nil {
		if errors.Is(err, errors.CodeConflict) {
			return err
		}
		if status.Code(err) == codes.AlreadyExists {
			return errors.Conflict("Email is already registered")
		}
		return errors.Internal("Failed to create user", err)
	}
	return nil
}

func (r *firestoreUserRepository) GetByID(ctx context.Context, id string) (*entity.User, error) {
	doc, err := r.client.Collection(usersCollection).Doc(id).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, errors.NotFound("User", err)
		}
		return nil, errors.Internal("Failed to get user", err)
	}

	var user entity.User
	if err := doc.DataTo(&user); err != nil {
		return nil, errors.Internal("Failed to parse user data", err)
	}
	return &user, nil
}

func (r *firestoreUserRepository) GetByEmail(ctx context.Context, email string) (*entity.User, error) {
	iter := r.client.Collection(usersCollection).Where("email", "==", normalizeEmail(email)).Limit(1).Documents(ctx)
	defer iter.Stop()

	doc, err := iter.Next()
	if err != nil {
		if err == iterator.Done {
			return nil, errors.NotFound("User", nil)
		}
		return nil, errors.Internal("Failed to query user", err)
	}

	var user entity.User
	if err := doc.DataTo(&user); err != nil {
		return nil, errors.Internal("Failed to parse user data", err)
	}
	return &user, nil
}

func (r *firestoreUserRepository) Mutate(ctx context.Context, id string, fn repository.UserFunc) (*entity.User, error) {
	userRef := r.client.Collection(usersCollection).Doc(id)
	var result *entity.User

	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		doc, err := tx.Get(userRef)
		if err != nil {
			if status.Code(err) == codes.NotFound {
				return errors.NotFound("User", err)
			}
			return err
		}
		var user entity.User
		if err := doc.DataTo(&user); err != nil {
			return err
		}

		if err := fn(&user); err != nil {
			return err
		}

		user.UpdatedAt = time.Now()
		if err := tx.Set(userRef, &user); err != nil {
			return err
		}
		result = &user
		return nil
	})
	if err != nil {
		var appErr *errors.AppError
		if errors.As(err, &appErr) {
			return nil, appErr
		}
		return nil, errors.Internal("Failed to update user", err)
	}
	return result, nil
}

func (r *firestoreUserRepository) RecordLogin(ctx context.Context, userID string, at time.Time) error {
	_, err := r.client.Collection(usersCollection).Doc(userID).Update(ctx, []firestore.Update{
		{Path: "lastLoginAt", Value: at},
	})
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return errors.NotFound("User", err)
		}
		return errors.Internal("Failed to record login", err)
	}
	return nil
}

func (r *firestoreUserRepository) Delete(ctx context.Context, id string) error {
	userRef := r.client.Collection(usersCollection).Doc(id)

	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		doc, err := tx.Get(userRef)
		if err != nil {
			return err
		}
		var user entity.User
		if err := doc.DataTo(&user); err != nil {
			return err
		}
		if err := tx.Delete(r.client.Collection(userEmailsCollection).Doc(user.Email)); err != nil {
			return err
		}
		return tx.Delete(userRef)
	})
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return errors.NotFound("User", err)
		}
		return errors.Internal("Failed to delete user", err)
	}
	return nil
}

func (r *firestoreUserRepository) filterQuery(filter repository.UserFilter) firestore.Query {
	q := r.client.Collection(usersCollection).Query
	if filter.Role != "" {
		q = q.Where("role", "==", filter.Role)
	}
	switch filter.State {
	case "active":
		q = q.Where("isActive", "==", true).Where("isSuspended", "==", false)
	case "suspended":
		q = q.Where("isSuspended", "==", true)
	case "inactive":
		q = q.Where("isActive", "==", false)
	}
	return q
}

func (r *firestoreUserRepository) List(ctx context.Context, filter repository.UserFilter, limit, offset int) ([]*entity.User, int64, error) {
	q := r.filterQuery(filter)

	total, err := countQuery(ctx, q)
	if err != nil {
		return nil, 0, errors.Internal("Failed to count users", err)
	}

	users, err := decodeAll[entity.User](paginate(q.OrderBy("createdAt", firestore.Desc), limit, offset).Documents(ctx))
	if err != nil {
		return nil, 0, errors.Internal("Failed to list users", err)
	}
	return users, total, nil
}

func (r *firestoreUserRepository) CountByField(ctx context.Context, field string, value interface{}) (int64, error) {
	total, err := countQuery(ctx, r.client.Collection(usersCollection).Where(field, "==", value))
	if err != nil {
		return 0, errors.Internal("Failed to count users", err)
	}
	return total, nil
}

func (r *firestoreUserRepository) ListCreatedBetween(ctx context.Context, from, to time.Time) ([]*entity.User, error) {
	q := r.client.Collection(usersCollection).
		Where("createdAt", ">=", from).
		Where("createdAt", "<", to)

	users, err := decodeAll[entity.User](q.Documents(ctx))
	if err != nil {
		return nil, errors.Internal("Failed to list users", err)
	}
	return users, nil
}

func (r *firestoreUserRepository) UpdateRating(ctx context.Context, userID string, summary entity.RatingSummary) error {
	_, err := r.client.Collection(usersCollection).Doc(userID).Update(ctx, []firestore.Update{
		{Path: "stats.rating", Value: summary.Average},
		{Path: "stats.totalReviews", Value: summary.Count},
		{Path: "updatedAt", Value: time.Now()},
	})
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return errors.NotFound("User", err)
		}
		return errors.Internal("Failed to update user rating", err)
	}
	return nil
}
