package proxy

import (
	"bytes"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gofiber/fiber/v3"
)

// ============================================================
// Proxy Handler
// ============================================================

var forwardedRequestHeaders = []string{"Authorization", "Content-Type", "Accept"}

var skippedResponseHeaders = map[string]bool{
	"Connection":        true,
	"Content-Length":    true,
	"Keep-Alive":        true,
	"Transfer-Encoding": true,
}

// Proxy пересылает запросы шлюза в сервисы.
type Proxy struct {
	client *http.Client
}

func New(timeout time.Duration) *Proxy {
	return &Proxy{client: &http.Client{Timeout: timeout}}
}

// To пересылает запрос в сервис baseURL с тем же путём и query.
func (p *Proxy) To(baseURL string) fiber.Handler {
	baseURL = strings.TrimRight(baseURL, "/")
	return func(c fiber.Ctx) error {
		return p.Forward(c, baseURL+c.OriginalURL())
	}
}

// Forward проксирует запрос по переданному URL (для динамических путей).
// Тело (в том числе multipart) передаётся как есть.
func (p *Proxy) Forward(c fiber.Ctx, targetURL string) error {
	slog.Debug("proxy request", "method", c.Method(), "path", c.Path(), "target", targetURL, "bytes", len(c.Body()))

	req, err := http.NewRequestWithContext(c.Context(), c.Method(), targetURL, bytes.NewReader(c.Body()))
	if err != nil {
		slog.Error("proxy build request", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "proxy failed"})
	}
	for _, h := range forwardedRequestHeaders {
		if v := c.Get(h); v != "" {
			req.Header.Set(h, v)
		}
	}
	req.Header.Set("X-Forwarded-For", c.IP())

	resp, err := p.client.Do(req)
	if err != nil {
		slog.Warn("proxy upstream unreachable", "target", targetURL, "error", err)
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{"error": "failed to reach upstream service"})
	}
	defer resp.Body.Close()

	return copyResponse(c, resp)
}

func copyResponse(c fiber.Ctx, resp *http.Response) error {
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		slog.Warn("proxy read response", "error", err)
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{"error": "invalid upstream response"})
	}

	for key, values := range resp.Header {
		if len(values) > 0 && !skippedResponseHeaders[key] {
			c.Set(key, values[0])
		}
	}

	c.Status(resp.StatusCode)
	return c.Send(data)
}
