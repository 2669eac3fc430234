package middleware

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/gofiber/fiber/v3"
)

// ============================================================
// Bearer Auth
// ============================================================

const userIDKey = "userID"

// ErrUnauthenticated оборачивают ошибки Verifier для отклонённых токенов.
// Остальные ошибки считаются недоступностью проверки (503).
var ErrUnauthenticated = errors.New("unauthenticated")

// Verifier разрешает bearer токен в ID пользователя.
type Verifier interface {
	Verify(ctx context.Context, token string) (string, error)
}

// BearerToken достаёт токен из заголовка Authorization.
func BearerToken(c fiber.Ctx) (string, bool) {
	auth := c.Get("Authorization")
	if !strings.HasPrefix(auth, "Bearer ") {
		return "", false
	}
	token := strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))
	return token, token != ""
}

// RequireAuth отклоняет запросы без валидного токена.
func RequireAuth(v Verifier) fiber.Handler {
	return func(c fiber.Ctx) error {
		token, ok := BearerToken(c)
		if !ok {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized"})
		}
		userID, err := v.Verify(c.Context(), token)
		if err != nil {
			return verifyFailed(c, err)
		}
		c.Locals(userIDKey, userID)
		return c.Next()
	}
}

// OptionalAuth запоминает пользователя, если токен валиден, и всегда пропускает запрос.
func OptionalAuth(v Verifier) fiber.Handler {
	return func(c fiber.Ctx) error {
		if token, ok := BearerToken(c); ok {
			userID, err := v.Verify(c.Context(), token)
			switch {
			case err == nil:
				c.Locals(userIDKey, userID)
			case !errors.Is(err, ErrUnauthenticated):
				return verifyFailed(c, err)
			}
		}
		return c.Next()
	}
}

func verifyFailed(c fiber.Ctx, err error) error {
	if errors.Is(err, ErrUnauthenticated) {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized"})
	}
	slog.Warn("token verification failed", "path", c.Path(), "error", err)
	return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": "authentication unavailable"})
}

// UserID возвращает ID пользователя, установленный RequireAuth/OptionalAuth.
func UserID(c fiber.Ctx) (string, bool) {
	id, ok := c.Locals(userIDKey).(string)
	return id, ok && id != ""
}
