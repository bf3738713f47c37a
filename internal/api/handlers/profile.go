package handlers

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"malt-scraper/internal/logging"
	"malt-scraper/internal/profiles"
	"malt-scraper/pkg/models"
	"malt-scraper/pkg/utils"
)

// ProfileService is the part of profiles.Service the handlers use
type ProfileService interface {
	ProcessProfile(ctx context.Context, url string) (*profiles.Result, error)
	GetProfile(ctx context.Context, profileID string) (*models.Profile, error)
	ListProfiles(ctx context.Context, status models.ProfileStatus, limit int) ([]*models.Profile, error)
}

const defaultListLimit = 50

// ProcessProfileHandler handles GET /api/v1/profil?url=
func ProcessProfileHandler(service ProfileService) echo.HandlerFunc {
	return func(c echo.Context) error {
		startTime := time.Now()
		ctx := c.Request().Context()
		logger := logging.GetGlobalLogger().WithContext(ctx)

		var req models.ProfileRequest
		if err := c.Bind(&req); err != nil {
			return errorResponse(c, utils.NewBadRequestError("Invalid request format"))
		}
		if err := c.Validate(&req); err != nil {
			logger.Warn("Profile request rejected", map[string]interface{}{
				"url":   req.URL,
				"error": err.Error(),
			})
			return errorResponse(c, utils.NewInvalidURLError(req.URL, err.Error()))
		}

		result, err := service.ProcessProfile(ctx, req.URL)
		if err != nil {
			logger.Error("Profile request failed", map[string]interface{}{
				"url":             req.URL,
				"error":           err.Error(),
				"kind":            utils.ErrorKind(err),
				"processing_time": utils.FormatDuration(time.Since(startTime)),
			})
			return errorResponse(c, err)
		}

		logger.Info("Profile request completed", map[string]interface{}{
			"url":             req.URL,
			"cached":          result.Cached,
			"processing_time": utils.FormatDuration(time.Since(startTime)),
		})

		return c.JSON(http.StatusOK, models.APIResponse{
			Status:  true,
			Message: result.Message,
			Data:    result.Record,
		})
	}
}

// GetProfileHandler handles GET /api/v1/profiles/:id
func GetProfileHandler(service ProfileService) echo.HandlerFunc {
	return func(c echo.Context) error {
		profile, err := service.GetProfile(c.Request().Context(), c.Param("id"))
		if err != nil {
			return errorResponse(c, err)
		}

		return c.JSON(http.StatusOK, models.APIResponse{
			Status:  true,
			Message: "Profile found",
			Data:    profile,
		})
	}
}

// ListProfilesHandler handles GET /api/v1/profiles?status=&limit=
func ListProfilesHandler(service ProfileService) echo.HandlerFunc {
	return func(c echo.Context) error {
		var req models.ProfileListRequest
		if err := c.Bind(&req); err != nil {
			return errorResponse(c, utils.NewBadRequestError("Invalid request format"))
		}
		if err := c.Validate(&req); err != nil {
			return errorResponse(c, utils.NewValidationError(err.Error()))
		}
		if req.Limit == 0 {
			req.Limit = defaultListLimit
		}

		list, err := service.ListProfiles(c.Request().Context(), models.ProfileStatus(req.Status), req.Limit)
		if err != nil {
			return errorResponse(c, err)
		}

		return c.JSON(http.StatusOK, models.APIResponse{
			Status:  true,
			Message: fmt.Sprintf("%d profiles", len(list)),
			Data:    list,
		})
	}
}
