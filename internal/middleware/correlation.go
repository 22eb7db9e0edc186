package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/noah-isme/classroom-api/internal/correlation"
)

const correlationLocal = "correlation_id"

// CorrelationID tags every request with an identifier, reusing X-Correlation-ID
// or X-Request-ID when the caller supplies one. The id is echoed in the
// response header and placed on the user context for downstream logs.
func CorrelationID() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := strings.TrimSpace(c.Get("X-Correlation-ID"))
		if id == "" {
			id = strings.TrimSpace(c.Get("X-Request-ID"))
		}
		if id == "" {
			id = uuid.NewString()
		}

		c.Locals(correlationLocal, id)
		c.Set("X-Correlation-ID", id)
		c.SetUserContext(correlation.WithID(c.UserContext(), id))

		return c.Next()
	}
}

// GetCorrelationID returns the correlation identifier bound to the active request.
func GetCorrelationID(c *fiber.Ctx) string {
	if c == nil {
		return ""
	}
	if id, ok := c.Locals(correlationLocal).(string); ok && id != "" {
		return id
	}
	return correlation.ID(c.UserContext())
}
