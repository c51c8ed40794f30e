package repository

import (
	"context"
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
	conversationsCollection = "conversations"
	messagesCollection      = "messages"
)

type firestoreConversationRepository struct {
	client *firestore.Client
}

func NewFirestoreConversationRepository(client *firestore.Client) repository.ConversationRepository {
	return &firestoreConversationRepository{
		client: client,
	}
}

func (r *firestoreConversationRepository) messages(conversationID string) *firestore.CollectionRef {
	return r.client.Collection(conversationsCollection).Doc(conversationID).Collection(messagesCollection)
}

func (r *firestoreConversationRepository) Create(ctx context.Context, conversation *entity.Conversation) error {
	conversation.ParticipantsKey = entity.ParticipantsKey(conversation.Participants)
	if _, err := r.client.Collection(conversationsCollection).Doc(conversation.ID).Set(ctx, conversation); err != nil {
		return errors.Internal("Failed to create conversation", err)
	}
	return nil
}

func (r *firestoreConversationRepository) GetByID(ctx context.Context, id string) (*entity.Conversation, error) {
	doc, err := r.client.Collection(conversationsCollection).Doc(id).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, errors.NotFound("Conversation", err)
		}
		return nil, errors.Internal("Failed to get conversation", err)
	}

	var conversation entity.Conversation
	if err := doc.DataTo(&conversation); err != nil {
		return nil, errors.Internal("Failed to parse conversation data", err)
	}
	return &conversation, nil
}

func (r *firestoreConversationRepository) FindDirect(ctx context.Context, participantsKey string) (*entity.Conversation, error) {
	iter := r.client.Collection(conversationsCollection).
		Where("participantsKey", "==", participantsKey).
		Documents(ctx)

	conversations, err := decodeAll[entity.Conversation](iter)
	if err != nil {
		return nil, errors.Internal("Failed to query conversations", err)
	}
	for _, conversation := range conversations {
		if conversation.OrderID == "" {
			return conversation, nil
		}
	}
	return nil, errors.NotFound("Conversation", nil)
}

func (r *firestoreConversationRepository) ListByParticipant(ctx context.Context, userID string, limit, offset int) ([]*entity.Conversation, int64, error) {
	q := r.client.Collection(conversationsCollection).Where("participants", "array-contains", userID)

	total, err := countQuery(ctx, q)
	if err != nil {
		return nil, 0, errors.Internal("Failed to count conversations", err)
	}

	conversations, err := decodeAll[entity.Conversation](paginate(q.OrderBy("updatedAt", firestore.Desc), limit, offset).Documents(ctx))
	if err != nil {
		return nil, 0, errors.Internal("Failed to list conversations", err)
	}
	return conversations, total, nil
}

func (r *firestoreConversationRepository) ListMessages(ctx context.Context, conversationID string, limit, offset int) ([]*entity.Message, int64, error) {
	q := r.messages(conversationID).Query

	total, err := countQuery(ctx, q)
	if err != nil {
		return nil, 0, errors.Internal("Failed to count messages", err)
	}

	messages, err := decodeAll[entity.Message](paginate(q.OrderBy("createdAt", firestore.Desc), limit, offset).Documents(ctx))
	if err != nil {
		return nil, 0, errors.Internal("Failed to list messages", err)
	}
	return messages, total, nil
}

func (r *firestoreConversationRepository) AppendMessage(ctx context.Context, conversationID string, msg *entity.Message) (*entity.Conversation, error) {
	convRef := r.client.Collection(conversationsCollection).Doc(conversationID)
	msgRef := r.messages(conversationID).Doc(msg.ID)
	var result *entity.Conversation

	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		doc, err := tx.Get(convRef)
		if err != nil {
			if status.Code(err) == codes.NotFound {
				return errors.NotFound("Conversation", err)
			}
			return err
		}
		var conversation entity.Conversation
		if err := doc.DataTo(&conversation); err != nil {
			return err
		}

		conversation.RecordMessage(msg)

		if err := tx.Create(msgRef, msg); err != nil {
			return err
		}
		if err := tx.Set(convRef, &conversation); err != nil {
			return err
		}
		result = &conversation
		return nil
	})
	if err != nil {
		var appErr *errors.AppError
		if errors.As(err, &appErr) {
			return nil, appErr
		}
		return nil, errors.Internal("Failed to send message", err)
	}
	return result, nil
}

func (r *firestoreConversationRepository) MarkRead(ctx context.Context, conversationID, userID string, at time.Time) ([]string, error) {
	convRef := r.client.Collection(conversationsCollection).Doc(conversationID)
	var marked []string

	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		marked = make([]string, 0)

		doc, err := tx.Get(convRef)
		if err != nil {
			if status.Code(err) == codes.NotFound {
				return errors.NotFound("Conversation", err)
			}
			return err
		}
		var conversation entity.Conversation
		if err := doc.DataTo(&conversation); err != nil {
			return err
		}

		// Messages up to the reader's mark were settled by an earlier call.
		unread := r.messages(conversationID).Where("seq", ">", conversation.ReadThrough(userID))
		iter := tx.Documents(unread)
		defer iter.Stop()

		var pending []*firestore.DocumentSnapshot
		var updated []*entity.Message
		for {
			msgDoc, err := iter.Next()
			if err == iterator.Done {
				break
			}
			if err != nil {
				return err
			}
			var msg entity.Message
			if err := msgDoc.DataTo(&msg); err != nil {
				return err
			}
			if msg.MarkReadBy(userID, at) {
				pending = append(pending, msgDoc)
				updated = append(updated, &msg)
			}
		}

		conversation.MarkRead(userID)
		if err := tx.Set(convRef, &conversation); err != nil {
			return err
		}
		for i, msgDoc := range pending {
			if err := tx.Set(msgDoc.Ref, updated[i]); err != nil {
				return err
			}
			marked = append(marked, updated[i].ID)
		}
		return nil
	})
	if err != nil {
		var appErr *errors.AppError
		if errors.As(err, &appErr) {
			return nil, appErr
		}
		return nil, errors.Internal("Failed to mark conversation as read", err)
	}
	return marked, nil
}
