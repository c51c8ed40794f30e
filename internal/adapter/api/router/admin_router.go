package router

import (
	"github.com/labstack/echo/v4"

	"gigmarket/internal/adapter/api/handler"
)

func SetupAdminRouter(v1 *echo.Group, guards Guards) {
	adminHandler := handler.GetAdminHandler()

	admin := v1.Group("/admin", guards.admin()...)

	// Analytics
	admin.GET("/analytics/overview", adminHandler.Overview)
	admin.GET("/analytics/trends", adminHandler.Trends)

	// User moderation
	admin.GET("/users", adminHandler.ListUsers)
	admin.PATCH("/users/:id/suspend", adminHandler.SuspendUser)
	admin.PATCH("/users/:id/active", adminHandler.SetUserActive)
	admin.PATCH("/users/:id/role", adminHandler.ChangeUserRole)
	admin.DELETE("/users/:id", adminHandler.DeleteUser)

	// Catalog and orders
	admin.GET("/gigs", adminHandler.ListGigs)
	admin.PATCH("/gigs/:id/moderate", adminHandler.ModerateGig)
	admin.GET("/orders", adminHandler.ListOrders)

	// Review moderation
	admin.GET("/reviews", adminHandler.ListReviews)
	admin.PATCH("/reviews/:id/moderate", adminHandler.ModerateReview)
}
