package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/noah-isme/classroom-api/internal/utils"
	"github.com/noah-isme/classroom-api/pkg/token"
)

const (
	localUserID   = "user_id"
	localUserRole = "user_role"
)

// TokenParser verifies bearer tokens.
type TokenParser interface {
	Parse(tokenString string) (token.Claims, error)
}

// JWTProtected returns a middleware that validates JWT bearer tokens and
// stores the subject id and role in the request locals.
func JWTProtected(parser TokenParser) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authorization := c.Get(fiber.HeaderAuthorization)
		if authorization == "" {
			return utils.SendError(c, fiber.StatusUnauthorized, "authorization header missing")
		}

		const bearer = "bearer "
		if len(authorization) < len(bearer) || !strings.EqualFold(authorization[:len(bearer)], bearer) {
			return utils.SendError(c, fiber.StatusUnauthorized, "invalid authorization header")
		}

		tokenString := strings.TrimSpace(authorization[len(bearer):])
		if tokenString == "" {
			return utils.SendError(c, fiber.StatusUnauthorized, "invalid token")
		}

		claims, err := parser.Parse(tokenString)
		if err != nil {
			return utils.SendError(c, fiber.StatusUnauthorized, "invalid token")
		}

		userID, err := claims.SubjectID()
		if err != nil {
			return utils.SendError(c, fiber.StatusUnauthorized, "invalid token claims")
		}

		c.Locals(localUserID, userID)
		c.Locals(localUserRole, claims.Role)

		return c.Next()
	}
}

// UserID returns the authenticated subject id, if any.
func UserID(c *fiber.Ctx) (uint, bool) {
	id, ok := c.Locals(localUserID).(uint)
	return id, ok && id > 0
}
