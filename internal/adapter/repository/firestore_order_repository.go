package repository

import (
	"context"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"gigmarket/internal/domain/entity"
	"gigmarket/internal/domain/repository"
	"gigmarket/pkg/errors"
)

const ordersCollection = "orders"

var openOrderStatuses = []string{
	entity.OrderStatusPending,
	entity.OrderStatusAccepted,
	entity.OrderStatusInProgress,
	entity.OrderStatusDelivered,
	entity.OrderStatusDisputed,
}

type firestoreOrderRepository struct {
	client *firestore.Client
}

func NewFirestoreOrderRepository(client *firestore.Client) repository.OrderRepository {
	return &firestoreOrderRepository{
		client: client,
	}
}

func (r *firestoreOrderRepository) Create(ctx context.Context, order *entity.Order, conversation *entity.Conversation) error {
	order.Participants = []string{order.BuyerID, order.SellerID}
	conversation.ParticipantsKey = entity.ParticipantsKey(conversation.Participants)

	orderRef := r.client.Collection(ordersCollection).Doc(order.ID)
	convRef := r.client.Collection(conversationsCollection).Doc(conversation.ID)

	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		if err := tx.Create(convRef, conversation); err != nil {
			return err
		}
		return tx.Create(orderRef, order)
	})
	if err != nil {
		return errors.Internal("Failed to create order", err)
	}
	return nil
}

func (r *firestoreOrderRepository) GetByID(ctx context.Context, id string) (*entity.Order, error) {
	doc, err := r.client.Collection(ordersCollection).Doc(id).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, errors.NotFound("Order", err)
		}
		return nil, errors.Internal("Failed to get order", err)
	}

	var order entity.Order
	if err := doc.DataTo(&order); err != nil {
		return nil, errors.Internal("Failed to parse order data", err)
	}
	return &order, nil
}

func (r *firestoreOrderRepository) Update(ctx context.Context, order *entity.Order) error {
	order.UpdatedAt = time.Now()
	order.Participants = []string{order.BuyerID, order.SellerID}
	if _, err := r.client.Collection(ordersCollection).Doc(order.ID).Set(ctx, order); err != nil {
		return errors.Internal("Failed to update order", err)
	}
	return nil
}

func (r *firestoreOrderRepository) List(ctx context.Context, filter repository.OrderFilter, limit, offset int) ([]*entity.Order, int64, error) {
	q := r.client.Collection(ordersCollection).Query
	if filter.BuyerID != "" {
		q = q.Where("buyerId", "==", filter.BuyerID)
	}
	if filter.SellerID != "" {
		q = q.Where("sellerId", "==", filter.SellerID)
	}
	if filter.ParticipantID != "" {
		q = q.Where("participants", "array-contains", filter.ParticipantID)
	}
	if filter.Status != "" {
		q = q.Where("status", "==", filter.Status)
	}
	if filter.PaymentStatus != "" {
		q = q.Where("paymentStatus", "==", filter.PaymentStatus)
	}

	total, err := countQuery(ctx, q)
	if err != nil {
		return nil, 0, errors.Internal("Failed to count orders", err)
	}

	orders, err := decodeAll[entity.Order](paginate(q.OrderBy("createdAt", firestore.Desc), limit, offset).Documents(ctx))
	if err != nil {
		return nil, 0, errors.Internal("Failed to list orders", err)
	}
	return orders, total, nil
}

func (r *firestoreOrderRepository) CountByField(ctx context.Context, field string, value interface{}) (int64, error) {
	total, err := countQuery(ctx, r.client.Collection(ordersCollection).Where(field, "==", value))
	if err != nil {
		return 0, errors.Internal("Failed to count orders", err)
	}
	return total, nil
}

func (r *firestoreOrderRepository) ListCreatedBetween(ctx context.Context, from, to time.Time) ([]*entity.Order, error) {
	q := r.client.Collection(ordersCollection).
		Where("createdAt", ">=", from).
		Where("createdAt", "<", to)

	orders, err := decodeAll[entity.Order](q.Documents(ctx))
	if err != nil {
		return nil, errors.Internal("Failed to list orders", err)
	}
	return orders, nil
}

func (r *firestoreOrderRepository) ListCompletedBetween(ctx context.Context, from, to time.Time) ([]*entity.Order, error) {
	q := r.client.Collection(ordersCollection).
		Where("status", "==", entity.OrderStatusCompleted).
		Where("completedAt", ">=", from).
		Where("completedAt", "<", to)

	orders, err := decodeAll[entity.Order](q.Documents(ctx))
	if err != nil {
		return nil, errors.Internal("Failed to list completed orders", err)
	}
	return orders, nil
}

func (r *firestoreOrderRepository) ListDeliveredBefore(ctx context.Context, before time.Time, limit int) ([]*entity.Order, error) {
	q := r.client.Collection(ordersCollection).
		Where("status", "==", entity.OrderStatusDelivered).
		Where("delivery.deliveredAt", "<", before).
		OrderBy("delivery.deliveredAt", firestore.Asc)
	if limit > 0 {
		q = q.Limit(limit)
	}

	orders, err := decodeAll[entity.Order](q.Documents(ctx))
	if err != nil {
		return nil, errors.Internal("Failed to list delivered orders", err)
	}
	return orders, nil
}

func (r *firestoreOrderRepository) HasOpenOrders(ctx context.Context, userID string) (bool, error) {
	q := r.client.Collection(ordersCollection).
		Where("participants", "array-contains", userID).
		Where("status", "in", openOrderStatuses).
		Limit(1)

	total, err := countQuery(ctx, q)
	if err != nil {
		return false, errors.Internal("Failed to check open orders", err)
	}
	return total > 0, nil
}

func (r *firestoreOrderRepository) HasOpenOrdersForGig(ctx context.Context, gigID string) (bool, error) {
	q := r.client.Collection(ordersCollection).
		Where("gigId", "==", gigID).
		Where("status", "in", openOrderStatuses).
		Limit(1)

	total, err := countQuery(ctx, q)
	if err != nil {
		return false, errors.Internal("Failed to check gig orders", err)
	}
	return total > 0, nil
}

func (r *firestoreOrderRepository) Mutate(ctx context.Context, orderID string, fn repository.OrderFunc) (*entity.Order, error) {
	orderRef := r.client.Collection(ordersCollection).Doc(orderID)
	var result *entity.Order

	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		doc, err := tx.Get(orderRef)
		if err != nil {
			if status.Code(err) == codes.NotFound {
				return errors.NotFound("Order", err)
			}
			return err
		}
		var order entity.Order
		if err := doc.DataTo(&order); err != nil {
			return err
		}

		if err := fn(&order); err != nil {
			return err
		}

		order.UpdatedAt = time.Now()
		order.Participants = []string{order.BuyerID, order.SellerID}
		if err := tx.Set(orderRef, &order); err != nil {
			return err
		}
		result = &order
		return nil
	})
	if err != nil {
		var appErr *errors.AppError
		if errors.As(err, &appErr) {
			return nil, appErr
		}
		return nil, errors.Internal("Failed to update order", err)
	}
	return result, nil
}

func (r *firestoreOrderRepository) UpdateWithParties(ctx context.Context, orderID string, fn repository.PartiesFunc) (*entity.Order, error) {
	orderRef := r.client.Collection(ordersCollection).Doc(orderID)
	var result *entity.Order

	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		orderDoc, err := tx.Get(orderRef)
		if err != nil {
			if status.Code(err) == codes.NotFound {
				return errors.NotFound("Order", err)
			}
			return err
		}
		var order entity.Order
		if err := orderDoc.DataTo(&order); err != nil {
			return err
		}

		buyerRef := r.client.Collection(usersCollection).Doc(order.BuyerID)
		sellerRef := r.client.Collection(usersCollection).Doc(order.SellerID)
		gigRef := r.client.Collection(gigsCollection).Doc(order.GigID)

		buyer, err := getUserTx(tx, buyerRef, "Buyer")
		if err != nil {
			return err
		}
		seller, err := getUserTx(tx, sellerRef, "Seller")
		if err != nil {
			return err
		}

		var gig *entity.Gig
		gigDoc, err := tx.Get(gigRef)
		switch {
		case err == nil:
			gig = &entity.Gig{}
			if err := gigDoc.DataTo(gig); err != nil {
				return err
			}
		case status.Code(err) != codes.NotFound:
			return err
		}

		parties := &entity.OrderParties{Order: &order, Buyer: buyer, Seller: seller, Gig: gig}
		if err := fn(parties); err != nil {
			return err
		}

		now := time.Now()
		order.UpdatedAt = now
		buyer.UpdatedAt = now
		seller.UpdatedAt = now

		if err := tx.Set(orderRef, &order); err != nil {
			return err
		}
		if err := tx.Set(buyerRef, buyer); err != nil {
			return err
		}
		if err := tx.Set(sellerRef, seller); err != nil {
			return err
		}
		if gig != nil {
			gig.UpdatedAt = now
			if err := tx.Set(gigRef, gig); err != nil {
				return err
			}
		}
		result = &order
		return nil
	})
	if err != nil {
		var appErr *errors.AppError
		if errors.As(err, &appErr) {
			return nil, appErr
		}
		return nil, errors.Internal("Failed to update order", err)
	}
	return result, nil
}

func getUserTx(tx *firestore.Transaction, ref *firestore.DocumentRef, resource string) (*entity.User, error) {
	doc, err := tx.Get(ref)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, errors.NotFound(resource, err)
		}
		return nil, err
	}
	var user entity.User
	if err := doc.DataTo(&user); err != nil {
		return nil, err
	}
	return &user, nil
}
