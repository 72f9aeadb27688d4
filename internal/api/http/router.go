package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/support-bot/internal/api/http/handlers"
	"github.com/spec-kit/support-bot/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health      *handlers.HealthHandler
	Webhook     *handlers.WebhookHandler
	WebhookAuth *auth.WebhookAuth
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	app.Post("/gateway/updates", cfg.WebhookAuth.Handle, cfg.Webhook.Receive)
}
