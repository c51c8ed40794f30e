package repository

import (
	"context"
	"time"

	"gigmarket/internal/domain/entity"
)

type OrderFilter struct {
	BuyerID       string
	SellerID      string
	ParticipantID string
	Status        string
	PaymentStatus string
}

// OrderFunc mutates the order inside a transaction. Returning an error aborts it.
type OrderFunc func(order *entity.Order) error

// PartiesFunc mutates the order and its buyer, seller and gig inside one transaction.
// Returning an error aborts the transaction without writing.
type PartiesFunc func(parties *entity.OrderParties) error

type OrderRepository interface {
	// Create stores the order together with its conversation. Neither is written on failure.
	Create(ctx context.Context, order *entity.Order, conversation *entity.Conversation) error
	GetByID(ctx context.Context, id string) (*entity.Order, error)
	Update(ctx context.Context, order *entity.Order) error
	List(ctx context.Context, filter OrderFilter, limit, offset int) ([]*entity.Order, int64, error)
	CountByField(ctx context.Context, field string, value interface{}) (int64, error)
	ListCreatedBetween(ctx context.Context, from, to time.Time) ([]*entity.Order, error)
	ListCompletedBetween(ctx context.Context, from, to time.Time) ([]*entity.Order, error)
	ListDeliveredBefore(ctx context.Context, before time.Time, limit int) ([]*entity.Order, error)
	// HasOpenOrders reports whether the user is buyer or seller on a non-terminal order.
	HasOpenOrders(ctx context.Context, userID string) (bool, error)
	// HasOpenOrdersForGig reports whether any non-terminal order references the gig.
	HasOpenOrdersForGig(ctx context.Context, gigID string) (bool, error)
	// Mutate re-reads the order, applies fn and writes it back atomically.
	Mutate(ctx context.Context, orderID string, fn OrderFunc) (*entity.Order, error)
	// UpdateWithParties reads the order with its buyer, seller and gig, applies fn
	// and writes them all atomically. A deleted gig is passed as nil.
	UpdateWithParties(ctx context.Context, orderID string, fn PartiesFunc) (*entity.Order, error)
}
