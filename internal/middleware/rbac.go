package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/noah-isme/classroom-api/internal/utils"
)

// RequireRole lets a request through only when JWTProtected authenticated it
// with one of the given roles. Role names compare case-insensitively.
func RequireRole(roles ...string) fiber.Handler {
	allowed := make(map[string]struct{}, len(roles))
	for _, role := range roles {
		if key := normalizeRole(role); key != "" {
			allowed[key] = struct{}{}
		}
	}

	return func(c *fiber.Ctx) error {
		if _, ok := UserID(c); !ok {
			return utils.SendError(c, fiber.StatusUnauthorized, "authentication required")
		}

		if _, ok := allowed[UserRole(c)]; !ok {
			return utils.SendError(c, fiber.StatusForbidden, "insufficient permissions")
		}
		return c.Next()
	}
}

// UserRole returns the role attached by JWTProtected, if any.
func UserRole(c *fiber.Ctx) string {
	role, _ := c.Locals(localUserRole).(string)
	return normalizeRole(role)
}

func normalizeRole(role string) string {
	return strings.ToLower(strings.TrimSpace(role))
}
