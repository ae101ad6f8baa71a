package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"
)

const (
	localSubjectID = "subject_id"
	localRole      = "role"
)

type TokenParser interface {
	ParseToken(token string) (int64, string, error)
}

// JWTAuth accepts a Bearer token carrying the given role and stores its
// subject id in the request locals.
func JWTAuth(parser TokenParser, role string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		header := c.Get(fiber.HeaderAuthorization)
		if header == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "authorization header required"})
		}

		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "invalid authorization header format"})
		}

		id, tokenRole, err := parser.ParseToken(parts[1])
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "invalid or expired token"})
		}
		if tokenRole != role {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"message": "insufficient permissions"})
		}

		c.Locals(localSubjectID, id)
		c.Locals(localRole, tokenRole)
		return c.Next()
	}
}

// SubjectID returns the authenticated user or admin id, or 0.
func SubjectID(c *fiber.Ctx) int64 {
	id, _ := c.Locals(localSubjectID).(int64)
	return id
}
