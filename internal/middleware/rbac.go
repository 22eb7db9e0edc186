package middleware

import (
	"github.com/gofiber/fiber/v2"

	"github.com/noah-isme/classroom-api/internal/auth"
	"github.com/noah-isme/classroom-api/internal/utils"
)

// RequireRole ensures that the authenticated identity holds one of the allowed roles.
func RequireRole(roles ...auth.Role) fiber.Handler {
	allowed := make(map[auth.Role]struct{}, len(roles))
	for _, role := range roles {
		allowed[role] = struct{}{}
	}

	return func(c *fiber.Ctx) error {
		identity, ok := IdentityFromContext(c)
		if !ok {
			return utils.SendError(c, fiber.StatusUnauthorized, "Authentication required")
		}
		if _, ok := allowed[identity.Role]; !ok {
			return utils.SendError(c, fiber.StatusForbidden, "Insufficient permissions")
		}
		return c.Next()
	}
}
