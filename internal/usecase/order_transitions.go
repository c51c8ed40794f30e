package usecase

import (
	"gigmarket/internal/domain/entity"
	"gigmarket/pkg/errors"
)

type actorMoves map[string][]string

// orderTransitions is the complete order state machine: from -> actor -> allowed targets.
// Completed and cancelled are terminal and have no entries.
var orderTransitions = map[string]actorMoves{
	entity.OrderStatusPending: {
		entity.ActorBuyer:  {entity.OrderStatusCancelled},
		entity.ActorSeller: {entity.OrderStatusAccepted, entity.OrderStatusCancelled},
		entity.ActorAdmin:  {entity.OrderStatusAccepted, entity.OrderStatusCancelled},
	},
	entity.OrderStatusAccepted: {
		entity.ActorBuyer:  {entity.OrderStatusCancelled, entity.OrderStatusDisputed},
		entity.ActorSeller: {entity.OrderStatusInProgress, entity.OrderStatusCancelled, entity.OrderStatusDisputed},
		entity.ActorAdmin:  {entity.OrderStatusInProgress, entity.OrderStatusCancelled, entity.OrderStatusDisputed},
	},
	entity.OrderStatusInProgress: {
		entity.ActorBuyer:  {entity.OrderStatusDisputed},
		entity.ActorSeller: {entity.OrderStatusDelivered, entity.OrderStatusCancelled, entity.OrderStatusDisputed},
		entity.ActorAdmin:  {entity.OrderStatusDelivered, entity.OrderStatusCancelled, entity.OrderStatusDisputed},
	},
	entity.OrderStatusDelivered: {
		entity.ActorBuyer:  {entity.OrderStatusCompleted, entity.OrderStatusInProgress, entity.OrderStatusDisputed},
		entity.ActorSeller: {entity.OrderStatusDisputed},
		entity.ActorAdmin:  {entity.OrderStatusCompleted, entity.OrderStatusInProgress, entity.OrderStatusCancelled, entity.OrderStatusDisputed},
	},
	entity.OrderStatusDisputed: {
		entity.ActorAdmin: {entity.OrderStatusDelivered, entity.OrderStatusInProgress, entity.OrderStatusCancelled},
	},
}

// CanTransition reports whether actor may move an order from one status to another.
func CanTransition(from, to, actor string) bool {
	for _, next := range orderTransitions[from][actor] {
		if next == to {
			return true
		}
	}
	return false
}

func checkTransition(order *entity.Order, to, actor string) error {
	if !CanTransition(order.Status, to, actor) {
		return errors.InvalidTransition(order.Status, to, actor)
	}
	return nil
}
