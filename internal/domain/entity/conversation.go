package entity

import (
	"sort"
	"strings"
	"time"
)

const MaxMessageLength = 2000

type Conversation struct {
	ID              string         `json:"id" firestore:"id"`
	Participants    []string       `json:"participants" firestore:"participants"`
	ParticipantsKey string         `json:"-" firestore:"participantsKey"`
	OrderID         string         `json:"orderId,omitempty" firestore:"orderId,omitempty"`
	GigID           string         `json:"gigId,omitempty" firestore:"gigId,omitempty"`
	LastMessage     string         `json:"lastMessage,omitempty" firestore:"lastMessage,omitempty"`
	LastMessageAt   *time.Time     `json:"lastMessageAt,omitempty" firestore:"lastMessageAt,omitempty"`
	UnreadCount     map[string]int `json:"unreadCount" firestore:"unreadCount"` // userID -> unread messages
	MessageCount    int            `json:"messageCount" firestore:"messageCount"`
	ReadSeq         map[string]int `json:"-" firestore:"readSeq"` // userID -> last seq marked read
	CreatedAt       time.Time      `json:"createdAt" firestore:"createdAt"`
	UpdatedAt       time.Time      `json:"updatedAt" firestore:"updatedAt"`
}

type Message struct {
	ID             string               `json:"id" firestore:"id"`
	ConversationID string               `json:"conversationId" firestore:"conversationId"`
	Seq            int                  `json:"seq" firestore:"seq"`
	SenderID       string               `json:"senderId" firestore:"senderId"`
	Content        string               `json:"content" firestore:"content"`
	Attachments    []string             `json:"attachments,omitempty" firestore:"attachments,omitempty"`
	ReadBy         []string             `json:"readBy" firestore:"readBy"`
	ReadAt         map[string]time.Time `json:"readAt,omitempty" firestore:"readAt,omitempty"`
	CreatedAt      time.Time            `json:"createdAt" firestore:"createdAt"`
}

func (c *Conversation) HasParticipant(userID string) bool {
	for _, p := range c.Participants {
		if p == userID {
			return true
		}
	}
	return false
}

// RecordMessage applies the unread bookkeeping for a new message:
// every participant except the sender gains exactly one unread.
// It also assigns the message its sequence number in the thread.
func (c *Conversation) RecordMessage(msg *Message) {
	c.MessageCount++
	msg.Seq = c.MessageCount
	if c.UnreadCount == nil {
		c.UnreadCount = make(map[string]int, len(c.Participants))
	}
	for _, p := range c.Participants {
		if p == msg.SenderID {
			continue
		}
		c.UnreadCount[p]++
	}
	c.LastMessage = preview(msg.Content)
	at := msg.CreatedAt
	c.LastMessageAt = &at
	c.UpdatedAt = msg.CreatedAt
}

// MarkRead zeroes userID's unread counter and moves their read mark to the
// latest message.
func (c *Conversation) MarkRead(userID string) {
	if c.UnreadCount == nil {
		c.UnreadCount = make(map[string]int)
	}
	c.UnreadCount[userID] = 0
	if c.ReadSeq == nil {
		c.ReadSeq = make(map[string]int)
	}
	c.ReadSeq[userID] = c.MessageCount
}

// ReadThrough is the sequence number of the last message userID marked read.
// Only messages after it can still be unread.
func (c *Conversation) ReadThrough(userID string) int {
	return c.ReadSeq[userID]
}

// MarkReadBy records that userID has read the message. It returns false if
// the message is the reader's own or was already read.
func (m *Message) MarkReadBy(userID string, at time.Time) bool {
	if m.SenderID == userID {
		return false
	}
	for _, r := range m.ReadBy {
		if r == userID {
			return false
		}
	}
	m.ReadBy = append(m.ReadBy, userID)
	if m.ReadAt == nil {
		m.ReadAt = make(map[string]time.Time)
	}
	m.ReadAt[userID] = at
	return true
}

// ParticipantsKey is an order-independent key for a participant set.
func ParticipantsKey(participants []string) string {
	sorted := append([]string(nil), participants...)
	sort.Strings(sorted)
	return strings.Join(sorted, "|")
}

func preview(content string) string {
	const max = 120
	r := []rune(content)
	if len(r) <= max {
		return content
	}
	return string(r[:max]) + "…"
}
