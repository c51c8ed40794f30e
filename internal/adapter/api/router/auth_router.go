package router

import (
	"github.com/labstack/echo/v4"

	"gigmarket/internal/adapter/api/handler"
	"gigmarket/internal/adapter/api/middleware"
)

func SetupAuthRouter(v1 *echo.Group, guards Guards) {
	authHandler := handler.GetAuthHandler()

	// Credential endpoints share a stricter per-IP budget.
	credentials := middleware.RateLimit(guards.AuthLimiter, middleware.KeyByIP)
	v1.POST("/auth/register", authHandler.Register, credentials)
	v1.POST("/auth/login", authHandler.Login, credentials)
	v1.POST("/auth/logout", authHandler.Logout)

	protected := v1.Group("/auth", guards.protected()...)
	protected.GET("/me", authHandler.Me)
	protected.PUT("/password", authHandler.ChangePassword, credentials)
}
