package usecase

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gigmarket/internal/domain/entity"
	"gigmarket/internal/domain/repository"
	"gigmarket/pkg/errors"
)

func newUserFixture(gigs []*entity.Gig, orders []*entity.Order) (*UserUseCase, *fakeUserRepo) {
	users := newFakeUserRepo(buyer, seller, admin, other)
	gigRepo := newFakeGigRepo(gigs...)
	uc := NewUserUseCase(users, gigRepo, newFakeOrderRepo(users, gigRepo, orders...))
	return uc, users
}

func TestSuspendAndReinstate(t *testing.T) {
	uc, users := newUserFixture(nil, nil)
	ctx := context.Background()

	_, err := uc.SetSuspended(ctx, admin.ID, buyer.ID, true, "")
	assert.True(t, errors.Is(err, errors.CodeBadRequest))

	_, err = uc.SetSuspended(ctx, admin.ID, admin.ID, true, "oops")
	assert.True(t, errors.Is(err, errors.CodeBadRequest), "admins cannot suspend themselves")

	u, err := uc.SetSuspended(ctx, admin.ID, buyer.ID, true, "chargebacks")
	require.NoError(t, err)
	assert.False(t, u.CanAuthenticate())
	assert.Equal(t, "chargebacks", users.get(buyer.ID).SuspensionReason)

	u, err = uc.SetSuspended(ctx, admin.ID, buyer.ID, false, "")
	require.NoError(t, err)
	assert.True(t, u.CanAuthenticate())
	assert.Empty(t, users.get(buyer.ID).SuspensionReason)
}

func TestDeleteUserGuards(t *testing.T) {
	live := &entity.Gig{ID: "g1", SellerID: seller.ID, Status: entity.GigStatusPaused}
	open := &entity.Order{ID: "o1", BuyerID: buyer.ID, SellerID: "someone", Status: entity.OrderStatusAccepted}
	uc, users := newUserFixture([]*entity.Gig{live}, []*entity.Order{open})
	ctx := context.Background()

	err := uc.DeleteUser(ctx, admin.ID, seller.ID)
	assert.True(t, errors.Is(err, errors.CodeConflict), "seller has a live gig")

	err = uc.DeleteUser(ctx, admin.ID, buyer.ID)
	assert.True(t, errors.Is(err, errors.CodeConflict), "buyer has an open order")

	require.NoError(t, uc.DeleteUser(ctx, admin.ID, other.ID))
	assert.Nil(t, users.get(other.ID))
}

func TestPublicProfileHidesPrivateFields(t *testing.T) {
	u := &entity.User{
		ID: "p", Name: "Pat", Email: "pat@example.com", PasswordHash: "h", IsActive: true, Role: entity.RoleFreelancer,
		Stats: entity.UserStats{TotalOrders: 2, OrdersPlaced: 5, TotalSpent: 120},
	}
	users := newFakeUserRepo(u)
	uc := NewUserUseCase(users, newFakeGigRepo(), newFakeOrderRepo(users, newFakeGigRepo()))

	profile, err := uc.GetPublicProfile(context.Background(), "p")
	require.NoError(t, err)
	assert.Empty(t, profile.Email)
	assert.Empty(t, profile.PasswordHash)
	assert.Equal(t, "Pat", profile.Name)
	assert.Equal(t, 2, profile.Stats.TotalOrders)
	assert.Zero(t, profile.Stats.OrdersPlaced)
	assert.Zero(t, profile.Stats.TotalSpent)
}

func TestAdminEditsKeepCompletionStats(t *testing.T) {
	uc, users := newUserFixture(nil, nil)
	ctx := context.Background()
	stale := users.get(seller.ID)

	credited := users.get(seller.ID)
	credited.Stats.TotalOrders = 1
	credited.Stats.TotalEarnings = 49.99
	users.set(credited)

	_, err := uc.ChangeRole(ctx, admin.ID, stale.ID, entity.RoleClient)
	require.NoError(t, err)
	_, err = uc.SetActive(ctx, admin.ID, stale.ID, false)
	require.NoError(t, err)

	stored := users.get(seller.ID)
	assert.Equal(t, entity.RoleClient, stored.Role)
	assert.False(t, stored.IsActive)
	assert.Equal(t, 1, stored.Stats.TotalOrders)
	assert.Equal(t, 49.99, stored.Stats.TotalEarnings)
}

func TestUpdateProfile(t *testing.T) {
	uc, users := newUserFixture(nil, nil)
	ctx := context.Background()
	empty := " "
	bio := "I draw logos"

	_, err := uc.UpdateProfile(ctx, seller.ID, UpdateProfileInput{Name: &empty})
	assert.True(t, errors.Is(err, errors.CodeBadRequest))

	_, err = uc.UpdateProfile(ctx, seller.ID, UpdateProfileInput{Bio: &bio, Skills: []string{"logo"}})
	require.NoError(t, err)
	stored := users.get(seller.ID)
	assert.Equal(t, bio, stored.Bio)
	assert.Equal(t, []string{"logo"}, stored.Skills)
}

func TestListUsersFilters(t *testing.T) {
	uc, _ := newUserFixture(nil, nil)
	ctx := context.Background()

	clients, total, err := uc.ListUsers(ctx, repository.UserFilter{Role: entity.RoleClient}, 1, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	assert.Len(t, clients, 2)

	_, _, err = uc.ListUsers(ctx, repository.UserFilter{State: "banned"}, 1, 10)
	assert.True(t, errors.Is(err, errors.CodeBadRequest))
}
