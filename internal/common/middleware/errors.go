package middleware

import (
	"errors"
	"log/slog"

	"github.com/gofiber/fiber/v3"
)

// ErrorHandler отдаёт ошибки в едином формате {"error": "..."}.
func ErrorHandler(c fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	msg := "internal server error"

	var fe *fiber.Error
	if errors.As(err, &fe) {
		code = fe.Code
		msg = fe.Message
	} else {
		slog.Error("unhandled error", "method", c.Method(), "path", c.Path(), "error", err)
	}

	return c.Status(code).JSON(fiber.Map{"error": msg})
}
