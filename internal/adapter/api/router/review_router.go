package router

import (
	"github.com/labstack/echo/v4"

	"gigmarket/internal/adapter/api/handler"
)

func SetupReviewRouter(v1 *echo.Group, guards Guards) {
	reviewHandler := handler.GetReviewHandler()

	reviews := v1.Group("/reviews", guards.protected()...)
	reviews.POST("", reviewHandler.CreateReview)
	reviews.PUT("/:id", reviewHandler.UpdateReview)
	reviews.DELETE("/:id", reviewHandler.DeleteReview)
	reviews.POST("/:id/report", reviewHandler.ReportReview)
}
