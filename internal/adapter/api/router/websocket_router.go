package router

import (
	"github.com/labstack/echo/v4"

	"gigmarket/internal/adapter/api/handler"
)

// SetupWebSocketRouter accepts the session token from the cookie, the
// Authorization header or the token query parameter.
func SetupWebSocketRouter(e *echo.Echo, guards Guards) {
	wsHandler := handler.GetWebSocketHandler()
	e.GET("/ws", wsHandler.HandleWebSocket, guards.Auth.AuthenticateSocket)
}
