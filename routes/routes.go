package routes

import (
	"github.com/gofiber/fiber/v2"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/sirupsen/logrus"

	"turboservis/config"
	controller "turboservis/controllers"
	"turboservis/middleware"
	"turboservis/notify"
	"turboservis/storage"
)

// SetupRoutes wires the public API group: rate-limited lead intake plus
// the token-guarded operator listing.
func SetupRoutes(app *fiber.App, cfg *config.Config, store *storage.Store, notifier *notify.Notifier, logger *logrus.Logger) {
	leadController := controller.NewLeadController(store, notifier, logger)

	api := app.Group("/api", middleware.APIRateLimiter(), fiberlogger.New(fiberlogger.Config{
		Format: "[${time}] ${status} - ${latency} ${method} ${path}\n",
	}))

	api.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"ok": true})
	})

	api.Post("/leads", leadController.CreateLead)
	api.Get("/leads", middleware.AdminOnly(cfg.AdminToken), leadController.ListLeads)

	logger.Info("API routes initialized successfully")
}
