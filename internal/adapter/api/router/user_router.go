package router

import (
	"github.com/labstack/echo/v4"

	"gigmarket/internal/adapter/api/handler"
)

func SetupUserRouter(v1 *echo.Group, guards Guards) {
	userHandler := handler.GetUserHandler()

	users := v1.Group("/users")
	users.PUT("/me", userHandler.UpdateMe, guards.protected()...)
	users.GET("/:id", userHandler.GetProfile, guards.public()...)
}
