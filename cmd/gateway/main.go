package main

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"designmate/internal/common/config"
	"designmate/internal/common/logging"
	"designmate/internal/common/middleware"
	"designmate/internal/gateway/handlers"
	"designmate/internal/gateway/proxy"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/recover"
)

// ============================================================
// API Gateway
// ============================================================

func main() {
	cfg := config.Load("3000")
	logOut := logging.Setup("gateway", cfg.LogLevel, cfg.LogFile)

	app := fiber.New(fiber.Config{
		ReadTimeout:  time.Duration(cfg.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.WriteTimeout) * time.Second,
		BodyLimit:    cfg.MaxUploadMB * 1024 * 1024,
		AppName:      "API Gateway",
		ErrorHandler: middleware.ErrorHandler,
	})

	// ============================================================
	// Global Middleware
	// ============================================================

	app.Use(recover.New())
	app.Use(middleware.Logger(logOut))
	app.Use(middleware.CORS(cfg.AllowOrigins))

	// ============================================================
	// Health Check Routes
	// ============================================================

	app.Get("/health/live", handlers.LivenessProbe)
	app.Get("/health/ready", handlers.ReadinessProbe(map[string]string{
		"auth":    cfg.AuthURL,
		"designs": cfg.DesignsURL,
	}))
	app.Get("/health/startup", handlers.StartupProbe)

	// ============================================================
	// Docs
	// ============================================================

	app.Get("/docs/openapi.yaml", handlers.SwaggerSpec(getEnv("OPENAPI_PATH", "docs/designmate.openapi.yaml")))
	app.Get("/docs", handlers.SwaggerUI)

	// ============================================================
	// Service Routes (Proxy)
	// ============================================================

	p := proxy.New(time.Duration(cfg.WriteTimeout) * time.Second)

	// Auth Service
	app.All("/api/auth/*", p.To(cfg.AuthURL))

	// Designs Service
	toDesigns := p.To(cfg.DesignsURL)
	app.All("/api/designs/*", toDesigns)
	app.Get("/api/catalog", toDesigns)
	app.Get("/uploads/:name", toDesigns)

	// ============================================================
	// Server Start
	// ============================================================

	addr := fmt.Sprintf(":%s", cfg.Port)
	slog.Info("starting API gateway", "addr", addr, "env", cfg.Environment, "auth", cfg.AuthURL, "designs", cfg.DesignsURL)

	if err := app.Listen(addr); err != nil {
		slog.Error("failed to start server", "error", err)
		os.Exit(1)
	}
}

func getEnv(key, defaultVal string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultVal
}
