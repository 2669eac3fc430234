package handlers

import (
	"github.com/gofiber/fiber/v3"

	"designmate/internal/common/middleware"
)

// Routes вешает маршруты designs сервиса на app.
func (h *DesignHandler) Routes(app fiber.Router, v middleware.Verifier) {
	requireAuth := middleware.RequireAuth(v)

	api := app.Group("/api/designs")
	api.Post("/save", requireAuth, h.Save)
	api.Get("/explore/private", requireAuth, h.ListPrivate)
	api.Get("/explore/all", h.ListPublic)
	api.Get("/:id", middleware.OptionalAuth(v), h.Get)
	api.Put("/:id/visibility", requireAuth, h.ToggleVisibility)
	api.Delete("/:id", requireAuth, h.Delete)

	app.Get("/api/catalog", h.Catalog)
	app.Get("/uploads/:name", h.Upload)
}
