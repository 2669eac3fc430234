package handlers

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gofiber/fiber/v3"
)

// ============================================================
// Health Check Handlers
// ============================================================

// LivenessProbe проверяет, что приложение работает
func LivenessProbe(c fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status": "alive",
	})
}

// ReadinessProbe проверяет, что все сервисы за шлюзом отвечают на /health/live.
func ReadinessProbe(upstreams map[string]string) fiber.Handler {
	client := &http.Client{Timeout: 2 * time.Second}
	return func(c fiber.Ctx) error {
		services := make(fiber.Map, len(upstreams))
		ready := true
		for name, base := range upstreams {
			ok := ping(c.Context(), client, strings.TrimRight(base, "/")+"/health/live")
			services[name] = ok
			ready = ready && ok
		}
		if !ready {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"status": "degraded", "services": services})
		}
		return c.JSON(fiber.Map{"status": "ready", "services": services})
	}
}

// StartupProbe проверяет, что приложение успешно запустилось
func StartupProbe(c fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status": "started",
	})
}

func ping(ctx context.Context, client *http.Client, url string) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return false
	}
	resp, err := client.Do(req)
	if err != nil {
		return false
	}
	resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}
