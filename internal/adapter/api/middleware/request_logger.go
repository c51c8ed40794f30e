package middleware

import (
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	apperrors "gigmarket/pkg/errors"
	"gigmarket/pkg/logger"
)

// RequestLogger writes one structured entry per request.
func RequestLogger() echo.MiddlewareFunc {
	return echomw.RequestLoggerWithConfig(echomw.RequestLoggerConfig{
		LogURI:       true,
		LogStatus:    true,
		LogMethod:    true,
		LogLatency:   true,
		LogRemoteIP:  true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v echomw.RequestLoggerValues) error {
			fields := map[string]interface{}{
				"request_id": v.RequestID,
				"method":     v.Method,
				"uri":        v.URI,
				"status":     v.Status,
				"latency_ms": v.Latency.Round(time.Microsecond).Seconds() * 1000,
				"remote_ip":  v.RemoteIP,
			}
			if uid, ok := c.Get(ContextUID).(string); ok {
				fields["user_id"] = uid
			}

			entry := logger.WithFields(fields)
			switch {
			case v.Status >= 500:
				entry.Error("request")
			case v.Status >= 400:
				entry.Warn("request")
			default:
				entry.Info("request")
			}
			return nil
		},
	})
}

func statusFromError(err error, fallback int) int {
	var httpErr *echo.HTTPError
	if apperrors.As(err, &httpErr) {
		return httpErr.Code
	}
	var appErr *apperrors.AppError
	if apperrors.As(err, &appErr) {
		return appErr.Status
	}
	if fallback < 400 {
		return 500
	}
	return fallback
}
