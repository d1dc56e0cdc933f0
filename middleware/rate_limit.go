package middleware

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"

	"turboservis/utils"
)

// APIRateLimiter caps the public API surface at 30 requests per 60-second
// window per client address. The limiter keeps its counters in memory;
// the form runs as a single process so no shared storage is needed.
func APIRateLimiter() fiber.Handler {
	return limiter.New(limiter.Config{
		Max:        30,
		Expiration: 60 * time.Second,
		KeyGenerator: func(c *fiber.Ctx) string {
			return utils.ClientIP(c)
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"ok":    false,
				"error": "RATE_LIMITED",
			})
		},
	})
}
