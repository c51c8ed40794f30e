package websocket

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"gigmarket/internal/infrastructure/ratelimit"
	"gigmarket/pkg/logger"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 8 * 1024
	sendBuffer     = 256
)

// Client is one websocket connection. A user may hold several.
type Client struct {
	UserID string
	Conn   *websocket.Conn
	Send   chan []byte

	rooms      map[string]struct{}
	orderRooms map[string]string // orderID -> conversationID
}

func NewClient(userID string, conn *websocket.Conn) *Client {
	return &Client{
		UserID:     userID,
		Conn:       conn,
		Send:       make(chan []byte, sendBuffer),
		rooms:      make(map[string]struct{}),
		orderRooms: make(map[string]string),
	}
}

// RoomAuthorizer decides which conversation rooms a user may join.
type RoomAuthorizer interface {
	AuthorizeConversation(ctx context.Context, userID, conversationID string) error
	ConversationForOrder(ctx context.Context, userID, orderID string) (string, error)
}

// Manager tracks local connections and room membership. Cross-instance
// delivery goes through the Fanout; every instance delivers to its own clients.
type Manager struct {
	clients map[string]map[*Client]struct{}
	rooms   map[string]map[*Client]struct{}
	mutex   sync.RWMutex

	Register   chan *Client
	Unregister chan *Client
	done       chan struct{}

	presence      Presence
	fanout        Fanout
	authorizer    RoomAuthorizer
	typingLimiter ratelimit.Limiter
}

func NewManager(presence Presence, fanout Fanout) *Manager {
	return &Manager{
		clients:    make(map[string]map[*Client]struct{}),
		rooms:      make(map[string]map[*Client]struct{}),
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
		done:       make(chan struct{}),
		presence:   presence,
		fanout:     fanout,
	}
}

func (m *Manager) SetAuthorizer(authorizer RoomAuthorizer) {
	m.authorizer = authorizer
}

func (m *Manager) SetTypingLimiter(limiter ratelimit.Limiter) {
	m.typingLimiter = limiter
}

// Start runs the registration loop and the fan-out subscription until ctx is done.
func (m *Manager) Start(ctx context.Context) {
	go func() {
		if err := m.fanout.Subscribe(ctx, m.deliver); err != nil && ctx.Err() == nil {
			logger.Error("WebSocket fan-out subscription ended: %v", err)
		}
	}()

	go func() {
		for {
			select {
			case client := <-m.Register:
				m.addClient(client)
				if err := m.presence.SetOnline(ctx, client.UserID); err != nil {
					logger.Warn("WebSocket: failed to record presence for %s: %v", client.UserID, err)
				}
				logger.Debug("WebSocket client registered: %s", client.UserID)

			case client := <-m.Unregister:
				if m.removeClient(client) {
					if err := m.presence.SetOffline(ctx, client.UserID); err != nil {
						logger.Warn("WebSocket: failed to clear presence for %s: %v", client.UserID, err)
					}
				}
				logger.Debug("WebSocket client unregistered: %s", client.UserID)

			case <-ctx.Done():
				m.closeAll()
				close(m.done)
				return
			}
		}
	}()
}

func (m *Manager) addClient(client *Client) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	conns, ok := m.clients[client.UserID]
	if !ok {
		conns = make(map[*Client]struct{})
		m.clients[client.UserID] = conns
	}
	conns[client] = struct{}{}
}

// removeClient detaches the client from every room. It reports false if the
// client was already gone.
func (m *Manager) removeClient(client *Client) bool {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	conns, ok := m.clients[client.UserID]
	if !ok {
		return false
	}
	if _, ok := conns[client]; !ok {
		return false
	}
	delete(conns, client)
	if len(conns) == 0 {
		delete(m.clients, client.UserID)
	}
	for room := range client.rooms {
		m.leaveLocked(client, room)
	}
	close(client.Send)
	return true
}

func (m *Manager) closeAll() {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	for userID, conns := range m.clients {
		for client := range conns {
			close(client.Send)
		}
		delete(m.clients, userID)
	}
	m.rooms = make(map[string]map[*Client]struct{})
}

func (m *Manager) join(client *Client, room string) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	members, ok := m.rooms[room]
	if !ok {
		members = make(map[*Client]struct{})
		m.rooms[room] = members
	}
	members[client] = struct{}{}
	client.rooms[room] = struct{}{}
}

func (m *Manager) leave(client *Client, room string) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.leaveLocked(client, room)
}

func (m *Manager) leaveLocked(client *Client, room string) {
	delete(client.rooms, room)
	if members, ok := m.rooms[room]; ok {
		delete(members, client)
		if len(members) == 0 {
			delete(m.rooms, room)
		}
	}
}

func (m *Manager) inRoom(client *Client, room string) bool {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	_, ok := client.rooms[room]
	return ok
}

// IsOnline reports whether the user has a connection on any instance.
func (m *Manager) IsOnline(ctx context.Context, userID string) (bool, error) {
	return m.presence.IsOnline(ctx, userID)
}

// EmitToUsers pushes an event to every connection of the given users.
func (m *Manager) EmitToUsers(ctx context.Context, userIDs []string, event string, data interface{}) error {
	if len(userIDs) == 0 {
		return nil
	}
	return m.fanout.Publish(ctx, Envelope{
		UserIDs: userIDs,
		Message: newWSMessage(event, data),
	})
}

// EmitToRoom pushes an event to every connection in the room except the given user's.
func (m *Manager) EmitToRoom(ctx context.Context, room, exceptUserID, event string, data interface{}) error {
	return m.fanout.Publish(ctx, Envelope{
		Room:         room,
		ExceptUserID: exceptUserID,
		Message:      newWSMessage(event, data),
	})
}

// deliver writes an envelope to the matching local connections.
func (m *Manager) deliver(env Envelope) {
	payload, err := json.Marshal(env.Message)
	if err != nil {
		logger.Error("WebSocket: failed to marshal %s event: %v", env.Message.Type, err)
		return
	}

	var targets []*Client
	m.mutex.RLock()
	for _, userID := range env.UserIDs {
		for client := range m.clients[userID] {
			targets = append(targets, client)
		}
	}
	if env.Room != "" {
		for client := range m.rooms[env.Room] {
			if client.UserID != env.ExceptUserID {
				targets = append(targets, client)
			}
		}
	}
	m.mutex.RUnlock()

	for _, client := range targets {
		m.enqueue(client, payload)
	}
}

// enqueue never blocks; a client that cannot keep up is disconnected.
func (m *Manager) enqueue(client *Client, payload []byte) {
	m.mutex.RLock()
	_, alive := m.clients[client.UserID][client]
	if alive {
		select {
		case client.Send <- payload:
			m.mutex.RUnlock()
			return
		default:
		}
	}
	m.mutex.RUnlock()

	if alive {
		logger.Warn("WebSocket: client %s send buffer full, disconnecting", client.UserID)
		go m.unregister(client)
	}
}

func (m *Manager) unregister(client *Client) {
	select {
	case m.Unregister <- client:
	case <-m.done:
	}
}

func (m *Manager) sendToClient(client *Client, message WSMessage) {
	payload, err := json.Marshal(message)
	if err != nil {
		logger.Error("WebSocket: failed to marshal message for %s: %v", client.UserID, err)
		return
	}
	m.enqueue(client, payload)
}

// ReadPump reads client events until the connection closes.
func (c *Client) ReadPump(ctx context.Context, m *Manager) {
	defer func() {
		m.unregister(c)
		c.Conn.Close()
	}()

	c.Conn.SetReadLimit(maxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		return c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, message, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logger.Warn("WebSocket read error for %s: %v", c.UserID, err)
			}
			return
		}
		m.HandleClientMessage(ctx, c, message)
	}
}

// WritePump drains the send channel and keeps the connection alive with pings.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				logger.Warn("WebSocket write error for %s: %v", c.UserID, err)
				return
			}

		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
