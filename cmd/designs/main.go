package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"designmate/internal/common/config"
	"designmate/internal/common/database"
	"designmate/internal/common/logging"
	"designmate/internal/common/middleware"
	"designmate/internal/designs/handlers"
	"designmate/internal/designs/repository"
	"designmate/internal/designs/service"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/recover"
)

// ============================================================
// Designs Service
// ============================================================

func main() {
	cfg := config.Load("3003")
	logOut := logging.Setup("designs", cfg.LogLevel, cfg.LogFile)

	db, err := database.Open(cfg.DBDriver, cfg.DSN("data/db/designs.db"))
	if err != nil {
		slog.Error("open db", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	repo := repository.New(db)
	if err := repo.Init(ctx); err != nil {
		slog.Error("init db", "error", err)
		os.Exit(1)
	}

	storage := service.NewFileStorage(cfg.UploadDir)
	if err := storage.EnsureDir(); err != nil {
		slog.Error("init uploads", "error", err)
		os.Exit(1)
	}

	verifier := service.NewRemoteVerifier(cfg.AuthURL)
	designHandler := handlers.NewDesignHandler(repo, storage)

	app := fiber.New(fiber.Config{
		ReadTimeout:  time.Duration(cfg.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.WriteTimeout) * time.Second,
		BodyLimit:    cfg.MaxUploadMB * 1024 * 1024,
		AppName:      "Designs Service",
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
	// Design Routes
	// ============================================================

	designHandler.Routes(app, verifier)

	// ============================================================
	// Server Start
	// ============================================================

	go func() {
		<-ctx.Done()
		_ = app.ShutdownWithTimeout(5 * time.Second)
	}()

	addr := fmt.Sprintf(":%s", cfg.Port)
	slog.Info("starting designs service", "addr", addr, "env", cfg.Environment, "db", cfg.DBDriver, "uploads", cfg.UploadDir, "auth", cfg.AuthURL)

	if err := app.Listen(addr); err != nil {
		slog.Error("failed to start server", "error", err)
		os.Exit(1)
	}
}
