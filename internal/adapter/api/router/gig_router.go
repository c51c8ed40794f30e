package router

import (
	"github.com/labstack/echo/v4"

	"gigmarket/internal/adapter/api/handler"
	"gigmarket/internal/adapter/api/middleware"
	"gigmarket/internal/domain/entity"
)

func SetupGigRouter(v1 *echo.Group, guards Guards) {
	gigHandler := handler.GetGigHandler()

	gigs := v1.Group("/gigs")

	// Public catalog
	gigs.GET("", gigHandler.ListGigs, guards.public()...)
	gigs.GET("/:id", gigHandler.GetGig, guards.public()...)
	gigs.GET("/:id/reviews", gigHandler.ListReviews, guards.public()...)

	// Seller management
	protected := gigs.Group("", guards.protected()...)
	protected.GET("/mine", gigHandler.ListMyGigs)
	protected.POST("", gigHandler.CreateGig, middleware.RequireRoles(entity.RoleFreelancer, entity.RoleAdmin))
	protected.PUT("/:id", gigHandler.UpdateGig)
	protected.DELETE("/:id", gigHandler.DeleteGig)
	protected.PATCH("/:id/status", gigHandler.ChangeStatus)
	protected.POST("/:id/images", gigHandler.AddImages)
	protected.DELETE("/:id/images/:imageId", gigHandler.RemoveImage)
	protected.PATCH("/:id/images/:imageId/primary", gigHandler.SetPrimaryImage)
}
