package router

import (
	"github.com/gofiber/fiber/v2"

	"github.com/noah-isme/classroom-api/internal/config"
	"github.com/noah-isme/classroom-api/internal/handler"
	"github.com/noah-isme/classroom-api/internal/observability"
)

// Dependencies groups router dependencies for registration.
type Dependencies struct {
	AuthHandler      *handler.AuthHandler
	StudentHandler   *handler.StudentHandler
	AnalyticsHandler *handler.AnalyticsHandler
	Database         handler.Pinger
	// Authenticate verifies access tokens on protected routes.
	Authenticate fiber.Handler
	// LoginGuard runs ahead of POST /auth/login; nil disables it.
	LoginGuard fiber.Handler
}

// Register wires the HTTP routes at the root and again under /api.
func Register(app *fiber.App, cfg config.Config, deps Dependencies) {
	app.Get("/metrics", observability.MetricsHandler())

	authenticate := deps.Authenticate
	if authenticate == nil {
		authenticate = func(c *fiber.Ctx) error { return c.Next() }
	}

	for _, prefix := range []string{"", "/api"} {
		group := app.Group(prefix, func(c *fiber.Ctx) error {
			c.Set("X-Application", cfg.AppName)
			return c.Next()
		})
		mount(group, cfg, deps, authenticate)
	}
}

func mount(api fiber.Router, cfg config.Config, deps Dependencies, authenticate fiber.Handler) {
	api.Get("/health", handler.HealthCheck(cfg))
	if deps.Database != nil {
		api.Get("/health/ready", handler.ReadinessCheck(cfg, deps.Database))
	}

	if deps.AuthHandler != nil {
		deps.AuthHandler.Register(api.Group("/auth"), deps.LoginGuard, authenticate)
	}

	if deps.StudentHandler != nil {
		deps.StudentHandler.Register(api.Group("/students", authenticate))
	}

	if deps.AnalyticsHandler != nil {
		deps.AnalyticsHandler.Register(api.Group("/analytics", authenticate))
	}
}
