package usecase

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"gigmarket/internal/domain/entity"
	"gigmarket/internal/domain/repository"
	"gigmarket/pkg/errors"
	"gigmarket/pkg/logger"
)

const autoCompleteBatch = 100

type OrderUseCase struct {
	orderRepo repository.OrderRepository
	gigRepo   repository.GigRepository
	userRepo  repository.UserRepository
	now       func() time.Time
}

func NewOrderUseCase(
	orderRepo repository.OrderRepository,
	gigRepo repository.GigRepository,
	userRepo repository.UserRepository,
) *OrderUseCase {
	return &OrderUseCase{
		orderRepo: orderRepo,
		gigRepo:   gigRepo,
		userRepo:  userRepo,
		now:       time.Now,
	}
}

type CreateOrderInput struct {
	GigID        string
	Requirements string
}

type ListOrdersInput struct {
	Role   string // buyer, seller or empty for both
	Status string
	Page   int
	Limit  int
}

// addMoney sums two currency amounts without float drift.
func addMoney(a, b float64) float64 {
	return decimal.NewFromFloat(a).Add(decimal.NewFromFloat(b)).Round(2).InexactFloat64()
}

func (uc *OrderUseCase) CreateOrder(ctx context.Context, buyer *entity.User, input CreateOrderInput) (*entity.Order, error) {
	gig, err := uc.gigRepo.GetByID(ctx, input.GigID)
	if err != nil {
		return nil, err
	}
	if gig.SellerID == buyer.ID {
		return nil, errors.BadRequest("You cannot order your own gig", nil)
	}
	if gig.Status != entity.GigStatusActive {
		return nil, errors.Conflict("Gig is not available for purchase")
	}
	if gig.Price < entity.MinOrderAmount {
		return nil, errors.Conflict("Gig price is below the minimum order amount")
	}

	seller, err := uc.userRepo.GetByID(ctx, gig.SellerID)
	if err != nil {
		return nil, err
	}
	if !seller.CanAuthenticate() {
		return nil, errors.Conflict("Seller is not accepting orders")
	}

	now := uc.now()
	orderID := uuid.New().String()

	conversation := &entity.Conversation{
		ID:           uuid.New().String(),
		Participants: []string{buyer.ID, gig.SellerID},
		OrderID:      orderID,
		GigID:        gig.ID,
		UnreadCount:  map[string]int{buyer.ID: 0, gig.SellerID: 0},
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	order := &entity.Order{
		ID:             orderID,
		GigID:          gig.ID,
		GigTitle:       gig.Title,
		BuyerID:        buyer.ID,
		SellerID:       gig.SellerID,
		Amount:         gig.Price,
		Status:         entity.OrderStatusPending,
		PaymentStatus:  entity.PaymentStatusPending,
		Requirements:   input.Requirements,
		ConversationID: conversation.ID,
		Revisions:      []entity.Revision{},
		MaxRevisions:   gig.Revisions,
		DueDate:        now.AddDate(0, 0, gig.DeliveryTime),
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := uc.orderRepo.Create(ctx, order, conversation); err != nil {
		return nil, err
	}

	logger.Info("Order %s created by %s for gig %s", order.ID, buyer.ID, gig.ID)
	return order, nil
}

func actorOrForbidden(order *entity.Order, user *entity.User) (string, error) {
	actor := order.ActorFor(user)
	if actor == "" {
		return "", errors.Forbidden("You are not a party to this order", nil)
	}
	return actor, nil
}

func (uc *OrderUseCase) GetOrder(ctx context.Context, user *entity.User, id string) (*entity.Order, error) {
	order, err := uc.orderRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if _, err := actorOrForbidden(order, user); err != nil {
		return nil, err
	}
	return order, nil
}

func (uc *OrderUseCase) ListOrders(ctx context.Context, user *entity.User, input ListOrdersInput) ([]*entity.Order, int64, error) {
	if input.Status != "" && !entity.IsValidOrderStatus(input.Status) {
		return nil, 0, errors.BadRequest("Invalid status filter", nil)
	}

	filter := repository.OrderFilter{Status: input.Status}
	switch input.Role {
	case entity.ActorBuyer:
		filter.BuyerID = user.ID
	case entity.ActorSeller:
		filter.SellerID = user.ID
	case "":
		filter.ParticipantID = user.ID
	default:
		return nil, 0, errors.BadRequest("Role must be buyer or seller", nil)
	}
	return uc.orderRepo.List(ctx, filter, input.Limit, offset(input.Page, input.Limit))
}

func (uc *OrderUseCase) ListAll(ctx context.Context, status, paymentStatus string, page, limit int) ([]*entity.Order, int64, error) {
	if status != "" && !entity.IsValidOrderStatus(status) {
		return nil, 0, errors.BadRequest("Invalid status filter", nil)
	}
	filter := repository.OrderFilter{Status: status, PaymentStatus: paymentStatus}
	return uc.orderRepo.List(ctx, filter, limit, offset(page, limit))
}

// UpdateStatus is the generic status endpoint. Completion, delivery and
// revision requests have their own operations and cannot be bypassed here.
func (uc *OrderUseCase) UpdateStatus(ctx context.Context, user *entity.User, id, status, reason string) (*entity.Order, error) {
	if !entity.IsValidOrderStatus(status) {
		return nil, errors.BadRequest("Invalid order status", nil)
	}
	switch status {
	case entity.OrderStatusCompleted:
		return uc.Complete(ctx, user, id)
	case entity.OrderStatusDelivered:
		return nil, errors.BadRequest("Use the delivery endpoint to deliver an order", nil)
	case entity.OrderStatusDisputed:
		if strings.TrimSpace(reason) == "" {
			return nil, errors.BadRequest("A reason is required to open a dispute", nil)
		}
	}

	return uc.orderRepo.Mutate(ctx, id, func(order *entity.Order) error {
		actor, err := actorOrForbidden(order, user)
		if err != nil {
			return err
		}
		if order.Status == entity.OrderStatusDelivered && status == entity.OrderStatusInProgress {
			return errors.BadRequest("Request a revision to reopen a delivered order", nil)
		}
		if err := checkTransition(order, status, actor); err != nil {
			return err
		}

		now := uc.now()
		switch status {
		case entity.OrderStatusCancelled:
			order.CancelledAt = &now
			order.CancelledBy = actor
			order.CancellationReason = reason
			if order.PaymentStatus == entity.PaymentStatusPaid {
				order.PaymentStatus = entity.PaymentStatusRefunded
			}
		case entity.OrderStatusDisputed:
			order.DisputeReason = reason
		}
		order.Status = status
		return nil
	})
}

func (uc *OrderUseCase) Deliver(ctx context.Context, user *entity.User, id, message string, files []string) (*entity.Order, error) {
	if strings.TrimSpace(message) == "" {
		return nil, errors.BadRequest("A delivery message is required", nil)
	}

	return uc.orderRepo.Mutate(ctx, id, func(order *entity.Order) error {
		actor, err := actorOrForbidden(order, user)
		if err != nil {
			return err
		}
		if err := checkTransition(order, entity.OrderStatusDelivered, actor); err != nil {
			return err
		}

		order.Delivery = &entity.Delivery{
			Message:     message,
			Files:       files,
			DeliveredAt: uc.now(),
		}
		order.Status = entity.OrderStatusDelivered
		return nil
	})
}

func (uc *OrderUseCase) RequestRevision(ctx context.Context, user *entity.User, id, message string) (*entity.Order, error) {
	if strings.TrimSpace(message) == "" {
		return nil, errors.BadRequest("Describe the requested changes", nil)
	}

	return uc.orderRepo.Mutate(ctx, id, func(order *entity.Order) error {
		actor, err := actorOrForbidden(order, user)
		if err != nil {
			return err
		}
		if err := checkTransition(order, entity.OrderStatusInProgress, actor); err != nil {
			return err
		}
		if order.MaxRevisions > 0 && len(order.Revisions) >= order.MaxRevisions {
			return errors.Conflict("Revision limit reached for this order")
		}

		order.Revisions = append(order.Revisions, entity.Revision{
			ID:          uuid.New().String(),
			Message:     message,
			Status:      entity.RevisionStatusPending,
			RequestedAt: uc.now(),
		})
		order.Status = entity.OrderStatusInProgress
		return nil
	})
}

// CompleteRevision marks a revision done. It does not change the order status.
func (uc *OrderUseCase) CompleteRevision(ctx context.Context, user *entity.User, id, revisionID string) (*entity.Order, error) {
	return uc.orderRepo.Mutate(ctx, id, func(order *entity.Order) error {
		actor, err := actorOrForbidden(order, user)
		if err != nil {
			return err
		}
		if actor == entity.ActorBuyer {
			return errors.Forbidden("Only the seller can complete a revision", nil)
		}

		revision := order.RevisionByID(revisionID)
		if revision == nil {
			return errors.NotFound("Revision", nil)
		}
		if revision.Status == entity.RevisionStatusCompleted {
			return errors.Conflict("Revision is already completed")
		}

		now := uc.now()
		revision.Status = entity.RevisionStatusCompleted
		revision.CompletedAt = &now
		return nil
	})
}

func (uc *OrderUseCase) Pay(ctx context.Context, user *entity.User, id string) (*entity.Order, error) {
	return uc.orderRepo.Mutate(ctx, id, func(order *entity.Order) error {
		if order.BuyerID != user.ID {
			return errors.Forbidden("Only the buyer can pay for this order", nil)
		}
		if order.Status == entity.OrderStatusCancelled {
			return errors.Conflict("Order is cancelled")
		}
		if order.PaymentStatus != entity.PaymentStatusPending {
			return errors.Conflict("Order payment is already " + order.PaymentStatus)
		}
		order.PaymentStatus = entity.PaymentStatusPaid
		return nil
	})
}

// Complete closes a delivered order and credits the buyer, seller and gig in one transaction.
func (uc *OrderUseCase) Complete(ctx context.Context, user *entity.User, id string) (*entity.Order, error) {
	order, err := uc.orderRepo.UpdateWithParties(ctx, id, func(p *entity.OrderParties) error {
		actor, err := actorOrForbidden(p.Order, user)
		if err != nil {
			return err
		}
		return uc.applyCompletion(p, actor)
	})
	if err != nil {
		return nil, err
	}
	logger.Info("Order %s completed by %s", order.ID, user.ID)
	return order, nil
}

func (uc *OrderUseCase) applyCompletion(p *entity.OrderParties, actor string) error {
	if err := checkTransition(p.Order, entity.OrderStatusCompleted, actor); err != nil {
		return err
	}

	now := uc.now()
	p.Order.Status = entity.OrderStatusCompleted
	p.Order.CompletedAt = &now

	p.Seller.Stats.TotalOrders++
	p.Seller.Stats.TotalEarnings = addMoney(p.Seller.Stats.TotalEarnings, p.Order.Amount)

	p.Buyer.Stats.OrdersPlaced++
	p.Buyer.Stats.TotalSpent = addMoney(p.Buyer.Stats.TotalSpent, p.Order.Amount)

	if p.Gig == nil {
		logger.Debug("Gig %s no longer exists; completing order %s without gig stats", p.Order.GigID, p.Order.ID)
		return nil
	}
	p.Gig.TotalOrders++
	p.Gig.TotalEarnings = addMoney(p.Gig.TotalEarnings, p.Order.Amount)
	return nil
}

// AutoCompleteDelivered completes orders delivered before the cutoff, acting as admin.
func (uc *OrderUseCase) AutoCompleteDelivered(ctx context.Context, deliveredBefore time.Time) (int, error) {
	orders, err := uc.orderRepo.ListDeliveredBefore(ctx, deliveredBefore, autoCompleteBatch)
	if err != nil {
		return 0, err
	}

	completed := 0
	for _, candidate := range orders {
		_, err := uc.orderRepo.UpdateWithParties(ctx, candidate.ID, func(p *entity.OrderParties) error {
			return uc.applyCompletion(p, entity.ActorAdmin)
		})
		if err != nil {
			logger.Warn("Auto-complete skipped order %s: %v", candidate.ID, err)
			continue
		}
		completed++
	}
	return completed, nil
}
