package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"malt-scraper/internal/api/middleware"
	"malt-scraper/internal/logging"
	"malt-scraper/pkg/models"
	"malt-scraper/pkg/utils"
)

func requestID(c echo.Context) string {
	if id, ok := c.Get(middleware.RequestIDKey).(string); ok {
		return id
	}
	return c.Response().Header().Get(echo.HeaderXRequestID)
}

// errorResponse answers with the status and kind carried by err
func errorResponse(c echo.Context, err error) error {
	return c.JSON(utils.HTTPStatus(err), models.ErrorResponse{
		Status:    false,
		Message:   utils.ErrorMessage(err),
		Error:     err.Error(),
		Kind:      utils.ErrorKind(err),
		RequestID: requestID(c),
		Timestamp: time.Now(),
	})
}

// ErrorHandler renders framework errors (unknown routes, rate limiting, panics)
// in the same envelope as handler errors.
func ErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	status := http.StatusInternalServerError
	message := http.StatusText(status)
	kind := utils.KindInternal

	var he *echo.HTTPError
	if errors.As(err, &he) {
		status = he.Code
		if m, ok := he.Message.(string); ok {
			message = m
		} else {
			message = http.StatusText(status)
		}
		switch status {
		case http.StatusNotFound:
			kind = utils.KindNotFound
		case http.StatusTooManyRequests:
			kind = utils.KindRateLimited
		case http.StatusServiceUnavailable:
			kind = utils.KindTimeout
		default:
			if status < http.StatusInternalServerError {
				kind = utils.KindBadRequest
			}
		}
	}

	if status >= http.StatusInternalServerError {
		logging.GetGlobalLogger().WithContext(c.Request().Context()).Error("Unhandled request error", map[string]interface{}{
			"error": err.Error(),
			"path":  c.Path(),
		})
	}

	if c.Request().Method == http.MethodHead {
		c.NoContent(status)
		return
	}
	c.JSON(status, models.ErrorResponse{
		Status:    false,
		Message:   message,
		Error:     err.Error(),
		Kind:      kind,
		RequestID: requestID(c),
		Timestamp: time.Now(),
	})
}
