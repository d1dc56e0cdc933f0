package utils

import (
	"github.com/gofiber/fiber/v2"
)

// ErrorResponse creates a standardized error response
func ErrorResponse(c *fiber.Ctx, status int, code string, details interface{}) error {
	response := fiber.Map{
		"ok":    false,
		"error": code,
	}
	if details != nil {
		response["details"] = details
	}
	return c.Status(status).JSON(response)
}

// ClampInt bounds n to the inclusive range [min, max].
func ClampInt(n, min, max int) int {
	if n < min {
		return min
	}
	if n > max {
		return max
	}
	return n
}

// ClientIP returns the best-effort client address, honoring proxy headers
// the same way the previous deployment did (pm2 behind nginx).
func ClientIP(c *fiber.Ctx) string {
	if ips := c.IPs(); len(ips) > 0 {
		return ips[0]
	}
	return c.IP()
}

// Pointer returns a pointer to the given value
func Pointer[T any](v T) *T {
	return &v
}
