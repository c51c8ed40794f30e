package router

import (
	"github.com/labstack/echo/v4"

	"gigmarket/internal/adapter/api/handler"
)

func SetupChatRouter(v1 *echo.Group, guards Guards) {
	chatHandler := handler.GetChatHandler()

	messages := v1.Group("/messages", guards.protected()...)
	messages.GET("/unread", chatHandler.Unread)
	messages.POST("/conversations", chatHandler.CreateConversation)
	messages.GET("/conversations", chatHandler.ListConversations)
	messages.GET("/conversations/:id", chatHandler.GetConversation)
	messages.GET("/conversations/:id/messages", chatHandler.ListMessages)
	messages.POST("/conversations/:id/messages", chatHandler.SendMessage)
	messages.POST("/conversations/:id/read", chatHandler.MarkRead)
}
