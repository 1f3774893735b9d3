package router

import (
	"github.com/gofiber/fiber/v2"

	"github.com/noah-isme/respondent-registry-api/internal/config"
	"github.com/noah-isme/respondent-registry-api/internal/handler"
	"github.com/noah-isme/respondent-registry-api/internal/middleware"
	"github.com/noah-isme/respondent-registry-api/internal/observability"
)

// Dependencies groups router dependencies for registration.
type Dependencies struct {
	RespondentHandler       *handler.RespondentHandler
	RespondentEventsHandler *handler.RespondentEventsHandler
}

// Register wires the HTTP routes into the fiber application.
func Register(app *fiber.App, cfg config.Config, deps Dependencies) {
	observability.MountMetrics(app, observability.DefaultMetricsPath)

	api := app.Group("/api/v1", func(c *fiber.Ctx) error {
		c.Set("X-Application", cfg.AppName)
		return c.Next()
	})
	api.Get("/health", handler.HealthCheck(cfg))

	respondents := api.Group("/respondents")

	// The event stream must precede the "/:id" routes.
	if deps.RespondentEventsHandler != nil {
		deps.RespondentEventsHandler.Register(respondents)
	}

	if deps.RespondentHandler != nil {
		writeLimit := middleware.RateLimit("respondent-writes", cfg.WriteRateLimit, cfg.WriteRateLimitEvery)
		deps.RespondentHandler.Register(respondents, writeLimit)
	}
}
