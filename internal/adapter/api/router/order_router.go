package router

import (
	"github.com/labstack/echo/v4"

	"gigmarket/internal/adapter/api/handler"
)

func SetupOrderRouter(v1 *echo.Group, guards Guards) {
	orderHandler := handler.GetOrderHandler()

	orders := v1.Group("/orders", guards.protected()...)
	orders.POST("", orderHandler.CreateOrder)
	orders.GET("", orderHandler.ListOrders)
	orders.GET("/:id", orderHandler.GetOrder)
	orders.PATCH("/:id/status", orderHandler.UpdateStatus)

	// Lifecycle actions
	orders.POST("/:id/delivery", orderHandler.Deliver)
	orders.POST("/:id/revisions", orderHandler.RequestRevision)
	orders.PATCH("/:id/revisions/:revisionId", orderHandler.CompleteRevision)
	orders.POST("/:id/pay", orderHandler.Pay)
	orders.POST("/:id/complete", orderHandler.Complete)

	// Order thread
	orders.GET("/:id/messages", orderHandler.ListMessages)
	orders.POST("/:id/messages", orderHandler.SendMessage)
}
