package repository

import (
	"context"
	"time"

	"gigmarket/internal/domain/entity"
)

type ConversationRepository interface {
	Create(ctx context.Context, conversation *entity.Conversation) error
	GetByID(ctx context.Context, id string) (*entity.Conversation, error)
	// FindDirect returns the non-order conversation with exactly these participants.
	FindDirect(ctx context.Context, participantsKey string) (*entity.Conversation, error)
	ListByParticipant(ctx context.Context, userID string, limit, offset int) ([]*entity.Conversation, int64, error)
	ListMessages(ctx context.Context, conversationID string, limit, offset int) ([]*entity.Message, int64, error)
	// AppendMessage stores msg and bumps the other participants' unread counters atomically.
	AppendMessage(ctx context.Context, conversationID string, msg *entity.Message) (*entity.Conversation, error)
	// MarkRead zeroes the reader's counter and stamps unread messages from others. Returns the ids marked.
	MarkRead(ctx context.Context, conversationID, userID string, at time.Time) ([]string, error)
}
