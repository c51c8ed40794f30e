package handler

import (
	"context"
	"net/http"

	gorillaws "github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"gigmarket/internal/adapter/api/middleware"
	ws "gigmarket/internal/infrastructure/websocket"
	"gigmarket/pkg/errors"
	"gigmarket/pkg/logger"
)

type WebSocketHandler struct {
	wsManager *ws.Manager
	upgrader  gorillaws.Upgrader
}

var webSocketHandler *WebSocketHandler

func NewWebSocketHandler(wsManager *ws.Manager, allowedOrigins []string) *WebSocketHandler {
	return &WebSocketHandler{
		wsManager: wsManager,
		upgrader: gorillaws.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     originChecker(allowedOrigins),
		},
	}
}

func SetupWebSocketHandler(wsManager *ws.Manager, allowedOrigins []string) {
	webSocketHandler = NewWebSocketHandler(wsManager, allowedOrigins)
}

func GetWebSocketHandler() *WebSocketHandler {
	return webSocketHandler
}

// originChecker admits requests without an Origin header (non-browser clients).
func originChecker(allowed []string) func(r *http.Request) bool {
	set := make(map[string]struct{}, len(allowed))
	for _, origin := range allowed {
		if origin == "*" {
			return func(*http.Request) bool { return true }
		}
		set[origin] = struct{}{}
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		_, ok := set[origin]
		return ok
	}
}

func (h *WebSocketHandler) HandleWebSocket(c echo.Context) error {
	user := middleware.CurrentUser(c)
	if user == nil {
		return errors.Unauthorized("Authentication required", nil)
	}

	conn, err := h.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		// The upgrader has already written the HTTP error.
		logger.Warn("WebSocket upgrade failed for %s: %v", user.ID, err)
		return nil
	}

	client := ws.NewClient(user.ID, conn)
	select {
	case h.wsManager.Register <- client:
	case <-c.Request().Context().Done():
		conn.Close()
		return nil
	}

	// The connection outlives the request handler.
	ctx := context.WithoutCancel(c.Request().Context())
	go client.ReadPump(ctx, h.wsManager)
	go client.WritePump()

	return nil
}
