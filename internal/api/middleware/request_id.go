package middleware

import (
	"github.com/labstack/echo/v4"

	"malt-scraper/internal/logging"
	"malt-scraper/pkg/utils"
)

// RequestIDKey is the echo context key holding the request ID
const RequestIDKey = "request_id"

// RequestID tags each request with an ID, reusing an incoming X-Request-ID,
// and stores it on the request context for loggers.
func RequestID() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			requestID := c.Request().Header.Get(echo.HeaderXRequestID)
			if requestID == "" {
				requestID = utils.GenerateRequestID()
			}

			c.Set(RequestIDKey, requestID)
			c.Response().Header().Set(echo.HeaderXRequestID, requestID)
			c.SetRequest(c.Request().WithContext(logging.ContextWithRequestID(c.Request().Context(), requestID)))

			return next(c)
		}
	}
}
