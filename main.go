package main

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"

	"turboservis/config"
	"turboservis/middleware"
	"turboservis/notify"
	"turboservis/routes"
	"turboservis/storage"
	"turboservis/worker"
)

func main() {
	// Initialize logger
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Fatalf("Failed to load configuration: %v", err)
	}

	store := storage.NewStore(cfg.DataDir, cfg.Timezone, logger)
	formatter := notify.NewFormatter(cfg.Timezone, cfg.IncludeLeadID, cfg.IncludeIP)
	notifier := notify.NewNotifier(cfg.Telegram, formatter, logger)

	// Create Fiber app
	app := fiber.New(fiber.Config{
		AppName:   "turboservis",
		BodyLimit: 64 * 1024,
	})

	// Add CORS middleware
	app.Use(middleware.CORS(corsConfig(cfg)))

	// Initialize and start the daily report worker
	reportWorker := worker.NewReportWorker(store, notifier, cfg, logger)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go reportWorker.Start(ctx)

	// Setup routes
	routes.SetupRoutes(app, cfg, store, notifier, logger)

	// Production: serve frontend build if present (SPA fallback)
	serveFrontend(app, cfg, logger)

	// Start server
	logger.Printf("🚀 Server starting on port %s", cfg.ServerPort)
	if err := app.Listen(":" + cfg.ServerPort); err != nil {
		logger.Fatalf("Failed to start server: %v", err)
	}
}

func corsConfig(cfg *config.Config) middleware.CORSConfig {
	corsCfg := middleware.DefaultCORSConfig()
	if cfg.Environment == "production" {
		corsCfg.AllowedOrigins = []string{cfg.FrontendOrigin}
	}
	return corsCfg
}

// serveFrontend mounts the built SPA when the dist directory exists.
// Cache policy: index.html never cached so updates show immediately,
// hashed assets cached forever, other static files for 7 days.
func serveFrontend(app *fiber.App, cfg *config.Config, logger *logrus.Logger) {
	if _, err := os.Stat(cfg.StaticDir); err != nil {
		logger.Infof("no frontend build at %s, serving API only", cfg.StaticDir)
		return
	}

	app.Use(func(c *fiber.Ctx) error {
		err := c.Next()
		if strings.HasPrefix(c.Path(), "/assets/") {
			c.Set(fiber.HeaderCacheControl, "public, max-age=31536000, immutable")
		}
		return err
	})
	app.Static("/", cfg.StaticDir, fiber.Static{
		MaxAge: 604800,
	})
	app.Get("/*", func(c *fiber.Ctx) error {
		c.Set(fiber.HeaderCacheControl, "no-cache")
		return c.SendFile(filepath.Join(cfg.StaticDir, "index.html"))
	})

	logger.Infof("serving frontend from %s", cfg.StaticDir)
}
