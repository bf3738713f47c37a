package handlers

import (
	"context"
	"net/http"
	"runtime"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/mem"

	"malt-scraper/internal/logging"
	"malt-scraper/pkg/models"
	"malt-scraper/pkg/utils"
)

// Version is reported by the health and welcome endpoints
var Version = "dev"

var startTime = time.Now()

// HealthCheck reports the state of one dependency; nil means healthy
type HealthCheck func(ctx context.Context) error

// SessionStatsSource exposes browser session counters
type SessionStatsSource interface {
	Stats() models.SessionStats
}

// RPCStatsSource exposes per-method gRPC counters
type RPCStatsSource interface {
	Metrics() map[string]models.MethodStats
}

// WelcomeHandler handles GET /api/v1
func WelcomeHandler(c echo.Context) error {
	return c.JSON(http.StatusOK, models.APIResponse{
		Status:  true,
		Message: "Malt profile scraper",
		Data: map[string]string{
			"version": Version,
			"usage":   "GET /api/v1/profil?url=https://www.malt.fr/profile/<id>",
		},
	})
}

// HealthHandler runs checks and answers 503 when any of them fails.
// Logging adapters are always checked.
func HealthHandler(checks map[string]HealthCheck) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		logger := logging.GetGlobalLogger().WithContext(ctx)
		logger.Debug("Health check requested")

		response := models.HealthResponse{
			Status:    "healthy",
			Timestamp: time.Now(),
			Version:   Version,
			Uptime:    utils.FormatDuration(time.Since(startTime)),
			Checks:    map[string]string{"api": "ok"},
		}

		for name, err := range logging.GlobalAdapterHealth() {
			if err != nil {
				response.Checks["logging."+name] = err.Error()
				continue
			}
			response.Checks["logging."+name] = "ok"
		}

		status := http.StatusOK
		for name, check := range checks {
			if err := check(ctx); err != nil {
				response.Checks[name] = err.Error()
				response.Status = "unhealthy"
				status = http.StatusServiceUnavailable
				continue
			}
			response.Checks[name] = "ok"
		}

		return c.JSON(status, response)
	}
}

// StatusHandler reports live browser sessions and host load. rpc may be nil.
func StatusHandler(sessions SessionStatsSource, rpc RPCStatsSource) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		logger := logging.GetGlobalLogger().WithContext(ctx)

		response := models.StatusResponse{
			Sessions:   sessions.Stats(),
			Goroutines: runtime.NumGoroutine(),
		}
		if rpc != nil {
			response.RPC = rpc.Metrics()
		}

		if percents, err := cpu.PercentWithContext(ctx, 0, false); err != nil {
			logger.Warn("CPU usage unavailable", map[string]interface{}{"error": err.Error()})
		} else if len(percents) > 0 {
			response.CPUPercent = percents[0]
		}

		if vm, err := mem.VirtualMemoryWithContext(ctx); err != nil {
			logger.Warn("Memory usage unavailable", map[string]interface{}{"error": err.Error()})
		} else {
			response.MemoryPercent = vm.UsedPercent
		}

		return c.JSON(http.StatusOK, models.APIResponse{
			Status:  true,
			Message: "Service status",
			Data:    response,
		})
	}
}
