package entity

import (
	"time"
)

const (
	OrderStatusPending    = "pending"
	OrderStatusAccepted   = "accepted"
	OrderStatusInProgress = "in_progress"
	OrderStatusDelivered  = "delivered"
	OrderStatusCompleted  = "completed"
	OrderStatusCancelled  = "cancelled"
	OrderStatusDisputed   = "disputed"

	PaymentStatusPending  = "pending"
	PaymentStatusPaid     = "paid"
	PaymentStatusRefunded = "refunded"

	RevisionStatusPending   = "pending"
	RevisionStatusCompleted = "completed"

	// Actor roles relative to a single order.
	ActorBuyer  = "buyer"
	ActorSeller = "seller"
	ActorAdmin  = "admin"

	MinOrderAmount = 5.0
)

type Delivery struct {
	Message     string    `json:"message" firestore:"message"`
	Files       []string  `json:"files,omitempty" firestore:"files,omitempty"`
	DeliveredAt time.Time `json:"deliveredAt" firestore:"deliveredAt"`
}

type Revision struct {
	ID          string     `json:"id" firestore:"id"`
	Message     string     `json:"message" firestore:"message"`
	Status      string     `json:"status" firestore:"status"`
	RequestedAt time.Time  `json:"requestedAt" firestore:"requestedAt"`
	CompletedAt *time.Time `json:"completedAt,omitempty" firestore:"completedAt,omitempty"`
}

type Order struct {
	ID             string  `json:"id" firestore:"id"`
	GigID          string  `json:"gigId" firestore:"gigId"`
	GigTitle       string  `json:"gigTitle" firestore:"gigTitle"`
	BuyerID        string  `json:"buyerId" firestore:"buyerId"`
	SellerID       string  `json:"sellerId" firestore:"sellerId"`
	Amount         float64 `json:"amount" firestore:"amount"`
	Status         string  `json:"status" firestore:"status"`
	PaymentStatus  string  `json:"paymentStatus" firestore:"paymentStatus"`
	Requirements   string  `json:"requirements,omitempty" firestore:"requirements,omitempty"`
	ConversationID string  `json:"conversationId" firestore:"conversationId"`

	// Participants mirrors buyer and seller for array-contains queries.
	Participants []string `json:"-" firestore:"participants"`

	Delivery     *Delivery  `json:"delivery,omitempty" firestore:"delivery,omitempty"`
	Revisions    []Revision `json:"revisions" firestore:"revisions"`
	MaxRevisions int        `json:"maxRevisions" firestore:"maxRevisions"`

	DueDate            time.Time  `json:"dueDate" firestore:"dueDate"`
	CompletedAt        *time.Time `json:"completedAt,omitempty" firestore:"completedAt,omitempty"`
	CancelledAt        *time.Time `json:"cancelledAt,omitempty" firestore:"cancelledAt,omitempty"`
	CancelledBy        string     `json:"cancelledBy,omitempty" firestore:"cancelledBy,omitempty"`
	CancellationReason string     `json:"cancellationReason,omitempty" firestore:"cancellationReason,omitempty"`
	DisputeReason      string     `json:"disputeReason,omitempty" firestore:"disputeReason,omitempty"`

	CreatedAt time.Time `json:"createdAt" firestore:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt" firestore:"updatedAt"`
}

// IsParty reports whether userID is the buyer or seller.
func (o *Order) IsParty(userID string) bool {
	return o.BuyerID == userID || o.SellerID == userID
}

func (o *Order) IsTerminal() bool {
	return o.Status == OrderStatusCompleted || o.Status == OrderStatusCancelled
}

// ActorFor resolves the caller's role on this order. Empty means no access.
func (o *Order) ActorFor(user *User) string {
	switch {
	case user.IsAdmin():
		return ActorAdmin
	case o.BuyerID == user.ID:
		return ActorBuyer
	case o.SellerID == user.ID:
		return ActorSeller
	}
	return ""
}

func (o *Order) RevisionByID(id string) *Revision {
	for i := range o.Revisions {
		if o.Revisions[i].ID == id {
			return &o.Revisions[i]
		}
	}
	return nil
}

func IsValidOrderStatus(status string) bool {
	switch status {
	case OrderStatusPending, OrderStatusAccepted, OrderStatusInProgress, OrderStatusDelivered,
		OrderStatusCompleted, OrderStatusCancelled, OrderStatusDisputed:
		return true
	}
	return false
}

// OrderParties is the set of documents touched atomically on completion.
// Gig is nil once the gig has been deleted.
type OrderParties struct {
	Order  *Order
	Buyer  *User
	Seller *User
	Gig    *Gig
}
