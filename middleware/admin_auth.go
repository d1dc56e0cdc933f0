package middleware

import (
	"crypto/subtle"

	"github.com/gofiber/fiber/v2"
)

// AdminHeader carries the shared operator secret.
const AdminHeader = "x-admin-token"

// AdminOnly guards operator endpoints with a shared-secret header. With no
// token configured the check is skipped, matching the previous backend's
// dev behavior.
func AdminOnly(token string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if token != "" && subtle.ConstantTimeCompare([]byte(c.Get(AdminHeader)), []byte(token)) != 1 {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"ok": false})
		}
		return c.Next()
	}
}
