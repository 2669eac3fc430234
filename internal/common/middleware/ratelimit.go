package middleware

import (
	"sync"
	"time"

	"github.com/gofiber/fiber/v3"
	"golang.org/x/time/rate"
)

// ============================================================
// IP Rate Limiting
// ============================================================

// IPRateLimit хранит по одному token bucket на IP.
type IPRateLimit struct {
	mu       sync.Mutex
	limiters map[string]*ipLimiter
	every    time.Duration
	burst    int
}

type ipLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewIPRateLimit разрешает perMinute запросов в минуту с пиком burst.
func NewIPRateLimit(perMinute, burst int) *IPRateLimit {
	if perMinute <= 0 {
		perMinute = 1
	}
	if burst <= 0 {
		burst = 1
	}
	return &IPRateLimit{
		limiters: make(map[string]*ipLimiter),
		every:    time.Minute / time.Duration(perMinute),
		burst:    burst,
	}
}

// Allow проверяет, можно ли пропустить очередной запрос с ip.
func (l *IPRateLimit) Allow(ip string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	entry, ok := l.limiters[ip]
	if !ok {
		entry = &ipLimiter{limiter: rate.NewLimiter(rate.Every(l.every), l.burst)}
		l.limiters[ip] = entry
	}
	entry.lastSeen = time.Now()
	return entry.limiter.Allow()
}

// Cleanup удаляет лимитеры, не использованные дольше maxIdle.
func (l *IPRateLimit) Cleanup(maxIdle time.Duration) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	removed := 0
	for ip, entry := range l.limiters {
		if time.Since(entry.lastSeen) > maxIdle {
			delete(l.limiters, ip)
			removed++
		}
	}
	return removed
}

// Handler возвращает fiber middleware, отвечающий 429 при превышении лимита.
func (l *IPRateLimit) Handler() fiber.Handler {
	return func(c fiber.Ctx) error {
		if !l.Allow(c.IP()) {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{"error": "too many requests"})
		}
		return c.Next()
	}
}
