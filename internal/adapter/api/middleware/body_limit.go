package middleware

import (
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
)

// BodyLimit applies uploadLimit to the named upload routes and defaultLimit
// everywhere else. Routes are matched by their registered path.
func BodyLimit(defaultLimit, uploadLimit string, uploadRoutes ...string) echo.MiddlewareFunc {
	small := echomw.BodyLimit(defaultLimit)
	large := echomw.BodyLimit(uploadLimit)

	uploads := make(map[string]struct{}, len(uploadRoutes))
	for _, route := range uploadRoutes {
		uploads[route] = struct{}{}
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		smallNext := small(next)
		largeNext := large(next)
		return func(c echo.Context) error {
			if _, ok := uploads[c.Path()]; ok {
				return largeNext(c)
			}
			return smallNext(c)
		}
	}
}
