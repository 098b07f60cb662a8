package middleware

import (
	"foodhub/internal/models"

	"github.com/gofiber/fiber/v2"
)

// RequireRoles only lets callers with one of roles through. It must run after AuthRequired.
func RequireRoles(roles ...models.Role) fiber.Handler {
	allowed := make(map[models.Role]bool, len(roles))
	for _, role := range roles {
		allowed[role] = true
	}
	return func(c *fiber.Ctx) error {
		if !allowed[IdentityFrom(c).Role] {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"message": "You do not have permission to perform this action",
			})
		}
		return c.Next()
	}
}
