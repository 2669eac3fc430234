package handlers

import (
	"github.com/gofiber/fiber/v3"

	"designmate/internal/common/middleware"
)

// Routes вешает маршруты auth сервиса на app.
func (h *AuthHandler) Routes(app fiber.Router, limiter *middleware.IPRateLimit) {
	requireAuth := middleware.RequireAuth(h.sessions)

	api := app.Group("/api/auth")
	api.Post("/register", limiter.Handler(), h.Register)
	api.Post("/login", limiter.Handler(), h.Login)
	api.Get("/me", requireAuth, h.Me)
	api.Post("/logout", requireAuth, h.Logout)

	// Internal routes (для межсервисного общения)
	app.Get("/internal/session", requireAuth, h.Session)
}
