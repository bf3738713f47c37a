package routes

import (
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"

	"malt-scraper/internal/api/handlers"
	"malt-scraper/internal/api/middleware"
	"malt-scraper/internal/api/validation"
	"malt-scraper/internal/config"
)

// Dependencies are the services the routes are bound to
type Dependencies struct {
	Profiles handlers.ProfileService
	Sessions handlers.SessionStatsSource
	RPC      handlers.RPCStatsSource
	Checks   map[string]handlers.HealthCheck
}

// SetupRoutes configures all API routes
func SetupRoutes(e *echo.Echo, cfg *config.Config, deps Dependencies) {
	e.Validator = validation.New()
	e.HTTPErrorHandler = handlers.ErrorHandler

	// Global middleware
	e.Use(echomiddleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(middleware.CORSConfig())

	v1 := e.Group("/api/v1")
	{
		v1.GET("", handlers.WelcomeHandler)
		v1.GET("/health", handlers.HealthHandler(deps.Checks))
		v1.GET("/status", handlers.StatusHandler(deps.Sessions, deps.RPC))

		// browser-backed routes are rate limited and bounded per request
		scraping := v1.Group("", middleware.RateLimit(cfg.Server.RateLimit, cfg.Server.RateBurst), middleware.TimeoutConfig(cfg.Server.RequestTimeout))
		{
			scraping.GET("/profil", handlers.ProcessProfileHandler(deps.Profiles))
			scraping.GET("/profiles", handlers.ListProfilesHandler(deps.Profiles))
			scraping.GET("/profiles/:id", handlers.GetProfileHandler(deps.Profiles))
		}
	}
}
