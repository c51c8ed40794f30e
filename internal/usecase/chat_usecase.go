package usecase

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"gigmarket/internal/domain/entity"
	"gigmarket/internal/domain/repository"
	"gigmarket/pkg/errors"
	"gigmarket/pkg/logger"
)

// Realtime event names shared with the websocket layer.
const (
	EventNewMessage   = "newMessage"
	EventMessagesRead = "messagesRead"
)

const maxAttachments = 10

type ChatUseCase struct {
	convRepo  repository.ConversationRepository
	orderRepo repository.OrderRepository
	userRepo  repository.UserRepository
	limiter   Limiter
	notifier  Notifier
	now       func() time.Time
}

func NewChatUseCase(
	convRepo repository.ConversationRepository,
	orderRepo repository.OrderRepository,
	userRepo repository.UserRepository,
	limiter Limiter,
	notifier Notifier,
) *ChatUseCase {
	if notifier == nil {
		notifier = noopNotifier{}
	}
	return &ChatUseCase{
		convRepo:  convRepo,
		orderRepo: orderRepo,
		userRepo:  userRepo,
		limiter:   limiter,
		notifier:  notifier,
		now:       time.Now,
	}
}

// SetNotifier swaps the realtime sink once the websocket manager exists.
func (uc *ChatUseCase) SetNotifier(notifier Notifier) {
	uc.notifier = notifier
}

type ReadReceipt struct {
	ConversationID string    `json:"conversationId"`
	ReaderID       string    `json:"readerId"`
	MessageIDs     []string  `json:"messageIds"`
	ReadAt         time.Time `json:"readAt"`
}

type UnreadSummary struct {
	Total          int            `json:"total"`
	ByConversation map[string]int `json:"byConversation"`
}

func (uc *ChatUseCase) CreateConversation(ctx context.Context, user *entity.User, participantIDs []string, gigID string) (*entity.Conversation, bool, error) {
	seen := map[string]bool{user.ID: true}
	participants := []string{user.ID}
	for _, id := range participantIDs {
		id = strings.TrimSpace(id)
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		participants = append(participants, id)
	}
	if len(participants) < 2 {
		return nil, false, errors.BadRequest("A conversation needs at least one other participant", nil)
	}

	for _, id := range participants[1:] {
		other, err := uc.userRepo.GetByID(ctx, id)
		if err != nil {
			return nil, false, err
		}
		if !other.IsActive {
			return nil, false, errors.BadRequest("Participant "+id+" is not available", nil)
		}
	}

	existing, err := uc.convRepo.FindDirect(ctx, entity.ParticipantsKey(participants))
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, errors.CodeNotFound) {
		return nil, false, err
	}

	now := uc.now()
	unread := make(map[string]int, len(participants))
	for _, id := range participants {
		unread[id] = 0
	}
	conversation := &entity.Conversation{
		ID:           uuid.New().String(),
		Participants: participants,
		GigID:        gigID,
		UnreadCount:  unread,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := uc.convRepo.Create(ctx, conversation); err != nil {
		return nil, false, err
	}
	return conversation, true, nil
}

func (uc *ChatUseCase) ListConversations(ctx context.Context, user *entity.User, page, limit int) ([]*entity.Conversation, int64, error) {
	return uc.convRepo.ListByParticipant(ctx, user.ID, limit, offset(page, limit))
}

// readable loads a conversation the user may read: participants and admins.
func (uc *ChatUseCase) readable(ctx context.Context, user *entity.User, id string) (*entity.Conversation, error) {
	conversation, err := uc.convRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !conversation.HasParticipant(user.ID) && !user.IsAdmin() {
		return nil, errors.Forbidden("You are not a participant in this conversation", nil)
	}
	return conversation, nil
}

func (uc *ChatUseCase) GetConversation(ctx context.Context, user *entity.User, id string) (*entity.Conversation, error) {
	return uc.readable(ctx, user, id)
}

func (uc *ChatUseCase) ListMessages(ctx context.Context, user *entity.User, conversationID string, page, limit int) ([]*entity.Message, int64, error) {
	if _, err := uc.readable(ctx, user, conversationID); err != nil {
		return nil, 0, err
	}
	return uc.convRepo.ListMessages(ctx, conversationID, limit, offset(page, limit))
}

func (uc *ChatUseCase) SendMessage(ctx context.Context, user *entity.User, conversationID, content string, attachments []string) (*entity.Message, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, errors.BadRequest("Message content is required", nil)
	}
	if utf8.RuneCountInString(content) > entity.MaxMessageLength {
		return nil, errors.BadRequest("Message is too long", nil)
	}
	if len(attachments) > maxAttachments {
		return nil, errors.BadRequest("At most 10 attachments per message", nil)
	}

	conversation, err := uc.readable(ctx, user, conversationID)
	if err != nil {
		return nil, err
	}

	if uc.limiter != nil {
		allowed, retryAfter, err := uc.limiter.Allow(ctx, "send_message:"+user.ID)
		if err != nil {
			logger.Warn("Message rate limiter unavailable: %v", err)
		} else if !allowed {
			return nil, errors.TooManyRequests("You are sending messages too quickly", retryAfter)
		}
	}

	msg := &entity.Message{
		ID:             uuid.New().String(),
		ConversationID: conversation.ID,
		SenderID:       user.ID,
		Content:        content,
		Attachments:    attachments,
		ReadBy:         []string{user.ID},
		CreatedAt:      uc.now(),
	}

	updated, err := uc.convRepo.AppendMessage(ctx, conversation.ID, msg)
	if err != nil {
		return nil, err
	}

	recipients := make([]string, 0, len(updated.Participants))
	for _, p := range updated.Participants {
		if p != user.ID {
			recipients = append(recipients, p)
		}
	}
	if err := uc.notifier.EmitToUsers(ctx, recipients, EventNewMessage, msg); err != nil {
		logger.Warn("Failed to push message %s: %v", msg.ID, err)
	}
	return msg, nil
}

func (uc *ChatUseCase) MarkRead(ctx context.Context, user *entity.User, conversationID string) (*ReadReceipt, error) {
	conversation, err := uc.convRepo.GetByID(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	if !conversation.HasParticipant(user.ID) {
		return nil, errors.Forbidden("You are not a participant in this conversation", nil)
	}

	at := uc.now()
	ids, err := uc.convRepo.MarkRead(ctx, conversationID, user.ID, at)
	if err != nil {
		return nil, err
	}

	receipt := &ReadReceipt{
		ConversationID: conversationID,
		ReaderID:       user.ID,
		MessageIDs:     ids,
		ReadAt:         at,
	}
	if len(ids) > 0 {
		others := make([]string, 0, len(conversation.Participants))
		for _, p := range conversation.Participants {
			if p != user.ID {
				others = append(others, p)
			}
		}
		if err := uc.notifier.EmitToUsers(ctx, others, EventMessagesRead, receipt); err != nil {
			logger.Warn("Failed to push read receipt for %s: %v", conversationID, err)
		}
	}
	return receipt, nil
}

func (uc *ChatUseCase) UnreadSummary(ctx context.Context, user *entity.User) (*UnreadSummary, error) {
	conversations, _, err := uc.convRepo.ListByParticipant(ctx, user.ID, 0, 0)
	if err != nil {
		return nil, err
	}

	summary := &UnreadSummary{ByConversation: make(map[string]int)}
	for _, c := range conversations {
		if n := c.UnreadCount[user.ID]; n > 0 {
			summary.ByConversation[c.ID] = n
			summary.Total += n
		}
	}
	return summary, nil
}

// OrderConversationID resolves the message thread linked to an order the user may see.
func (uc *ChatUseCase) OrderConversationID(ctx context.Context, user *entity.User, orderID string) (string, error) {
	order, err := uc.orderRepo.GetByID(ctx, orderID)
	if err != nil {
		return "", err
	}
	if order.ActorFor(user) == "" {
		return "", errors.Forbidden("You are not a party to this order", nil)
	}
	if order.ConversationID == "" {
		return "", errors.NotFound("Order conversation", nil)
	}
	return order.ConversationID, nil
}

// AuthorizeConversation lets the websocket layer check room membership.
func (uc *ChatUseCase) AuthorizeConversation(ctx context.Context, userID, conversationID string) error {
	user, err := uc.userRepo.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	_, err = uc.readable(ctx, user, conversationID)
	return err
}

func (uc *ChatUseCase) ConversationForOrder(ctx context.Context, userID, orderID string) (string, error) {
	user, err := uc.userRepo.GetByID(ctx, userID)
	if err != nil {
		return "", err
	}
	return uc.OrderConversationID(ctx, user, orderID)
}
