package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/noah-isme/classroom-api/internal/auth"
	"github.com/noah-isme/classroom-api/internal/utils"
)

const identityLocal = "identity"

// Authenticate verifies the access token carried by the Authorization bearer
// header or, failing that, the session cookie.
func Authenticate(tokens *auth.TokenManager, cookieName string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		tokenString := bearerToken(c.Get(fiber.HeaderAuthorization))
		if tokenString == "" && cookieName != "" {
			tokenString = strings.TrimSpace(c.Cookies(cookieName))
		}
		if tokenString == "" {
			return utils.SendError(c, fiber.StatusUnauthorized, "Access token required")
		}

		identity, err := tokens.Parse(tokenString)
		if err != nil {
			return utils.SendError(c, fiber.StatusForbidden, "Invalid or expired token")
		}

		c.Locals(identityLocal, identity)
		c.Locals("user_id", identity.ID)
		c.Locals("user_role", string(identity.Role))

		return c.Next()
	}
}

// IdentityFromContext returns the identity stored by Authenticate.
func IdentityFromContext(c *fiber.Ctx) (auth.Identity, bool) {
	identity, ok := c.Locals(identityLocal).(auth.Identity)
	if !ok || identity.ID <= 0 {
		return auth.Identity{}, false
	}
	return identity, true
}

func bearerToken(header string) string {
	const bearer = "bearer "
	header = strings.TrimSpace(header)
	if len(header) <= len(bearer) || !strings.EqualFold(header[:len(bearer)], bearer) {
		return ""
	}
	return strings.TrimSpace(header[len(bearer):])
}
