package websocket

import (
	"context"
	"encoding/json"
	"time"

	"gigmarket/pkg/errors"
	"gigmarket/pkg/logger"
)

// Client -> server events.
const (
	EventJoinOrder         = "joinOrder"
	EventJoinConversation  = "joinConversation"
	EventLeaveConversation = "leaveConversation"
	EventPing              = "ping"
)

// Server -> client events. EventUserTyping flows both ways.
const (
	EventNewMessage   = "newMessage"
	EventMessagesRead = "messagesRead"
	EventUserTyping   = "userTyping"
	EventPong         = "pong"
	EventError        = "error"
)

type WSMessage struct {
	Type      string      `json:"type"`
	Data      interface{} `json:"data,omitempty"`
	Timestamp string      `json:"timestamp"`
}

type inboundMessage struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

type JoinOrderData struct {
	OrderID string `json:"orderId"`
}

type ConversationData struct {
	ConversationID string `json:"conversationId"`
}

type TypingData struct {
	ConversationID string `json:"conversationId,omitempty"`
	OrderID        string `json:"orderId,omitempty"`
	UserID         string `json:"userId"`
	IsTyping       bool   `json:"isTyping"`
}

func newWSMessage(event string, data interface{}) WSMessage {
	return WSMessage{
		Type:      event,
		Data:      data,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
}

// HandleClientMessage dispatches one inbound frame.
func (m *Manager) HandleClientMessage(ctx context.Context, client *Client, payload []byte) {
	var msg inboundMessage
	if err := json.Unmarshal(payload, &msg); err != nil {
		m.sendError(client, "Invalid message format")
		return
	}

	switch msg.Type {
	case EventPing:
		m.sendToClient(client, newWSMessage(EventPong, map[string]string{"status": "alive"}))
	case EventJoinOrder:
		m.handleJoinOrder(ctx, client, msg.Data)
	case EventJoinConversation:
		m.handleJoinConversation(ctx, client, msg.Data)
	case EventLeaveConversation:
		m.handleLeaveConversation(client, msg.Data)
	case EventUserTyping:
		m.handleTyping(ctx, client, msg.Data)
	default:
		m.sendError(client, "Unknown message type")
	}
}

func (m *Manager) handleJoinOrder(ctx context.Context, client *Client, raw json.RawMessage) {
	var data JoinOrderData
	if err := json.Unmarshal(raw, &data); err != nil || data.OrderID == "" {
		m.sendError(client, "orderId is required")
		return
	}
	if m.authorizer == nil {
		m.sendError(client, "Rooms are unavailable")
		return
	}

	conversationID, err := m.authorizer.ConversationForOrder(ctx, client.UserID, data.OrderID)
	if err != nil {
		m.sendAppError(client, err)
		return
	}

	m.join(client, conversationID)
	m.mutex.Lock()
	client.orderRooms[data.OrderID] = conversationID
	m.mutex.Unlock()
	logger.Debug("WebSocket: %s joined order %s (conversation %s)", client.UserID, data.OrderID, conversationID)
}

func (m *Manager) handleJoinConversation(ctx context.Context, client *Client, raw json.RawMessage) {
	var data ConversationData
	if err := json.Unmarshal(raw, &data); err != nil || data.ConversationID == "" {
		m.sendError(client, "conversationId is required")
		return
	}
	if m.authorizer == nil {
		m.sendError(client, "Rooms are unavailable")
		return
	}

	if err := m.authorizer.AuthorizeConversation(ctx, client.UserID, data.ConversationID); err != nil {
		m.sendAppError(client, err)
		return
	}

	m.join(client, data.ConversationID)
	logger.Debug("WebSocket: %s joined conversation %s", client.UserID, data.ConversationID)
}

func (m *Manager) handleLeaveConversation(client *Client, raw json.RawMessage) {
	var data ConversationData
	if err := json.Unmarshal(raw, &data); err != nil || data.ConversationID == "" {
		m.sendError(client, "conversationId is required")
		return
	}
	m.leave(client, data.ConversationID)
}

func (m *Manager) handleTyping(ctx context.Context, client *Client, raw json.RawMessage) {
	var data TypingData
	if err := json.Unmarshal(raw, &data); err != nil {
		m.sendError(client, "Invalid typing format")
		return
	}

	room := data.ConversationID
	if room == "" && data.OrderID != "" {
		m.mutex.RLock()
		room = client.orderRooms[data.OrderID]
		m.mutex.RUnlock()
	}
	if room == "" || !m.inRoom(client, room) {
		m.sendError(client, "Join the conversation before sending typing events")
		return
	}

	if m.typingLimiter != nil {
		allowed, _, err := m.typingLimiter.Allow(ctx, "typing:"+client.UserID)
		if err != nil {
			logger.Warn("WebSocket: typing limiter failed: %v", err)
		} else if !allowed {
			return
		}
	}

	data.ConversationID = room
	data.UserID = client.UserID
	if err := m.EmitToRoom(ctx, room, client.UserID, EventUserTyping, data); err != nil {
		logger.Warn("WebSocket: failed to publish typing event: %v", err)
	}
}

func (m *Manager) sendError(client *Client, message string) {
	m.sendToClient(client, newWSMessage(EventError, map[string]string{"message": message}))
}

func (m *Manager) sendAppError(client *Client, err error) {
	var appErr *errors.AppError
	if errors.As(err, &appErr) && appErr.Status < 500 {
		m.sendToClient(client, newWSMessage(EventError, map[string]string{
			"code":    appErr.Code,
			"message": appErr.Message,
		}))
		return
	}
	logger.Error("WebSocket: room authorization failed for %s: %v", client.UserID, err)
	m.sendError(client, "Something went wrong")
}
