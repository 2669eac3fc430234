package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"designmate/internal/auth/handlers"
	"designmate/internal/auth/repository"
	"designmate/internal/auth/service"
	"designmate/internal/common/config"
	"designmate/internal/common/database"
	"designmate/internal/common/logging"
	"designmate/internal/common/middleware"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/recover"
)

// ============================================================
// Auth Service
// ============================================================

func main() {
	cfg := config.Load("3002")
	logOut := logging.Setup("auth", cfg.LogLevel, cfg.LogFile)

	if cfg.IsProduction() && cfg.JWTSecret == config.DefaultJWTSecret {
		slog.Error("JWT_SECRET must be set in production")
		os.Exit(1)
	}

	db, err := database.Open(cfg.DBDriver, cfg.DSN("data/db/auth.db"))
	if err != nil {
		slog.Error("open db", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	repo := repository.New(db)
	if err := repo.Init(ctx, cfg.AdminEmail, cfg.AdminPassword); err != nil {
		slog.Error("init db", "error", err)
		os.Exit(1)
	}

	sessions := service.NewSessionManager(cfg.JWTSecret, cfg.TokenTTL)
	limiter := middleware.NewIPRateLimit(cfg.LoginPerMin, cfg.LoginBurst)
	authHandler := handlers.NewAuthHandler(repo, sessions)

	app := fiber.New(fiber.Config{
		ReadTimeout:  time.Duration(cfg.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.WriteTimeout) * time.Second,
		AppName:      "Auth Service",
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

	app.Get("/health/live", func(c fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "alive"})
	})

	app.Get("/health/ready", func(c fiber.Ctx) error {
		if err := db.PingContext(c.Context()); err != nil {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"status": "db unavailable"})
		}
		return c.JSON(fiber.Map{"status": "ready"})
	})

	// ============================================================
	// Auth Routes
	// ============================================================

	authHandler.Routes(app, limiter)

	go janitor(ctx, sessions, limiter)

	// ============================================================
	// Server Start
	// ============================================================

	go func() {
		<-ctx.Done()
		_ = app.ShutdownWithTimeout(5 * time.Second)
	}()

	addr := fmt.Sprintf(":%s", cfg.Port)
	slog.Info("starting auth service", "addr", addr, "env", cfg.Environment, "db", cfg.DBDriver)

	if err := app.Listen(addr); err != nil {
		slog.Error("failed to start server", "error", err)
		os.Exit(1)
	}
}

// janitor периодически чистит отозванные токены и простаивающие лимитеры.
func janitor(ctx context.Context, sessions *service.SessionManager, limiter *middleware.IPRateLimit) {
	ticker := time.NewTicker(10 * time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			tokens := sessions.Cleanup()
			ips := limiter.Cleanup(30 * time.Minute)
			slog.Debug("janitor", "revoked_tokens", tokens, "limiters", ips)
		}
	}
}
