package handler

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/noah-isme/classroom-api/internal/config"
	"github.com/noah-isme/classroom-api/internal/utils"
)

// Pinger reports whether a backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthResponse represents the payload returned by the health endpoints.
type HealthResponse struct {
	Status      string    `json:"status"`
	Timestamp   time.Time `json:"timestamp"`
	Service     string    `json:"service"`
	Environment string    `json:"environment"`
	Database    string    `json:"database,omitempty"`
}

// HealthCheck returns a handler that reports application liveness.
func HealthCheck(cfg config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		payload := HealthResponse{
			Status:      "ok",
			Timestamp:   time.Now().UTC(),
			Service:     cfg.AppName,
			Environment: cfg.AppEnv,
		}

		return utils.SendSuccess(c, "service healthy", payload)
	}
}

// ReadinessCheck reports ready only when the database answers a ping.
func ReadinessCheck(cfg config.Config, db Pinger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
		defer cancel()

		payload := HealthResponse{
			Status:      "ok",
			Timestamp:   time.Now().UTC(),
			Service:     cfg.AppName,
			Environment: cfg.AppEnv,
			Database:    "up",
		}

		if err := db.Ping(ctx); err != nil {
			payload.Status = "degraded"
			payload.Database = "down"
			return c.Status(fiber.StatusServiceUnavailable).JSON(utils.APIResponse{
				Success:   false,
				Data:      payload,
				Error:     "database unavailable",
				Timestamp: payload.Timestamp,
			})
		}

		return utils.SendSuccess(c, "service ready", payload)
	}
}
