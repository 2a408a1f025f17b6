package auth

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/agentdesk/backend/pkg/logger"
)

const ActorLocal = "actor"

// Middleware guards admin routes with bearer-token introspection. When
// auth is disabled (local development) requests pass through with a
// fixed actor name.
func Middleware(client *Client, enabled bool) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !enabled {
			c.Locals(ActorLocal, "dev")
			return c.Next()
		}

		header := c.Get("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Missing bearer token",
			})
		}

		token := strings.TrimPrefix(header, "Bearer ")
		identity, err := client.Introspect(c.Context(), token)
		if err != nil {
			logger.Error("Token introspection failed", zap.Error(err), zap.String("ip", c.IP()))
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
				"error": "Authorization service unavailable",
			})
		}

		if !identity.Active {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Invalid or expired token",
			})
		}

		c.Locals(ActorLocal, identity.Subject)
		return c.Next()
	}
}

// Actor returns the authenticated subject set by the middleware.
func Actor(c *fiber.Ctx) string {
	if actor, ok := c.Locals(ActorLocal).(string); ok {
		return actor
	}
	return ""
}
