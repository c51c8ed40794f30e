package middleware

import (
	"github.com/labstack/echo/v4"

	"gigmarket/internal/infrastructure/ratelimit"
	"gigmarket/pkg/errors"
	"gigmarket/pkg/logger"
)

// KeyFunc derives the rate limit key for a request.
type KeyFunc func(c echo.Context) string

// KeyByIP limits per client address.
func KeyByIP(c echo.Context) string {
	return "ip:" + c.RealIP()
}

// KeyByUser limits per authenticated user, falling back to the client address.
func KeyByUser(c echo.Context) string {
	if uid, ok := c.Get(ContextUID).(string); ok && uid != "" {
		return "user:" + uid
	}
	return KeyByIP(c)
}

// RateLimit rejects requests over the limiter's budget with 429 and Retry-After.
// A failing limiter store lets traffic through.
func RateLimit(limiter ratelimit.Limiter, key KeyFunc) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			allowed, retryAfter, err := limiter.Allow(c.Request().Context(), key(c))
			if err != nil {
				logger.Warn("Rate limiter unavailable: %v", err)
				return next(c)
			}
			if !allowed {
				return errors.TooManyRequests("Too many requests, please slow down", retryAfter)
			}
			return next(c)
		}
	}
}
