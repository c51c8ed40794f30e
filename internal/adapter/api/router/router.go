package router

import (
	"github.com/labstack/echo/v4"

	"gigmarket/internal/adapter/api/middleware"
	"gigmarket/internal/domain/entity"
	"gigmarket/internal/infrastructure/ratelimit"
)

// Guards bundles the middleware shared by the route groups.
type Guards struct {
	Auth        *middleware.AuthMiddleware
	APILimiter  ratelimit.Limiter
	AuthLimiter ratelimit.Limiter
}

// protected authenticates first so the limiter keys on the user.
func (g Guards) protected() []echo.MiddlewareFunc {
	return []echo.MiddlewareFunc{
		g.Auth.Authenticate,
		middleware.RateLimit(g.APILimiter, middleware.KeyByUser),
	}
}

func (g Guards) public() []echo.MiddlewareFunc {
	return []echo.MiddlewareFunc{
		g.Auth.OptionalAuth,
		middleware.RateLimit(g.APILimiter, middleware.KeyByUser),
	}
}

func (g Guards) admin() []echo.MiddlewareFunc {
	return append(g.protected(), middleware.RequireRoles(entity.RoleAdmin))
}

func Setup(e *echo.Echo, guards Guards) {
	v1 := e.Group("/v1")

	SetupAuthRouter(v1, guards)
	SetupUserRouter(v1, guards)
	SetupGigRouter(v1, guards)
	SetupOrderRouter(v1, guards)
	SetupChatRouter(v1, guards)
	SetupReviewRouter(v1, guards)
	SetupFileRouter(v1, guards)
	SetupAdminRouter(v1, guards)
	SetupWebSocketRouter(e, guards)
	SetupHealthRouter(e)
}
