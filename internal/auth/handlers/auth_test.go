package handlers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"designmate/internal/auth/repository"
	"designmate/internal/auth/service"
	"designmate/internal/common/database"
	"designmate/internal/common/middleware"
)

func newTestApp(t *testing.T, limiter *middleware.IPRateLimit) *fiber.App {
	t.Helper()
	db, err := database.Open(database.DriverSQLite, filepath.Join(t.TempDir(), "auth.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	repo := repository.New(db).WithHashCost(bcrypt.MinCost)
	require.NoError(t, repo.Init(context.Background(), "", ""))

	if limiter == nil {
		limiter = middleware.NewIPRateLimit(1000, 1000)
	}
	app := fiber.New(fiber.Config{ErrorHandler: middleware.ErrorHandler})
	NewAuthHandler(repo, service.NewSessionManager("test-secret", time.Hour)).Routes(app, limiter)
	return app
}

func do(t *testing.T, app *fiber.App, method, path, body, token string) (int, map[string]any) {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := app.Test(req, fiber.TestConfig{Timeout: 5 * time.Second})
	require.NoError(t, err)
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var m map[string]any
	if len(data) > 0 {
		require.NoError(t, json.Unmarshal(data, &m), string(data))
	}
	return resp.StatusCode, m
}

func TestRegisterLoginMe(t *testing.T) {
	app := newTestApp(t, nil)

	status, body := do(t, app, http.MethodPost, "/api/auth/register", `{"email":"ann@example.com","password":"secret1"}`, "")
	require.Equal(t, http.StatusCreated, status)
	assert.Equal(t, "ann@example.com", body["email"])
	assert.Equal(t, "user", body["role"])
	assert.NotContains(t, body, "passwordHash")

	status, body = do(t, app, http.MethodPost, "/api/auth/register", `{"email":"ann@example.com","password":"secret1"}`, "")
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "email already registered", body["error"])

	status, body = do(t, app, http.MethodPost, "/api/auth/login", `{"email":"ann@example.com","password":"secret1"}`, "")
	require.Equal(t, http.StatusOK, status)
	token, _ := body["token"].(string)
	require.NotEmpty(t, token)

	status, body = do(t, app, http.MethodGet, "/api/auth/me", "", token)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "ann@example.com", body["email"])

	status, body = do(t, app, http.MethodGet, "/internal/session", "", token)
	require.Equal(t, http.StatusOK, status)
	assert.NotEmpty(t, body["userId"])
}

func TestRegisterValidation(t *testing.T) {
	app := newTestApp(t, nil)

	cases := []struct {
		name string
		body string
		want string
	}{
		{"empty", "", "empty body"},
		{"bad json", "{", "invalid json"},
		{"missing email", `{"password":"secret1"}`, "'Email' is required"},
		{"bad email", `{"email":"nope","password":"secret1"}`, "'Email' must be a valid email"},
		{"short password", `{"email":"a@b.co","password":"123"}`, "'Password' value out of allowed range"},
		{"admin role", `{"email":"a@b.co","password":"secret1","role":"admin"}`, "'Role' must be one of: user"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			status, body := do(t, app, http.MethodPost, "/api/auth/register", tc.body, "")
			assert.Equal(t, http.StatusBadRequest, status)
			assert.Equal(t, tc.want, body["error"])
		})
	}
}

func TestLoginInvalid(t *testing.T) {
	app := newTestApp(t, nil)
	status, body := do(t, app, http.MethodPost, "/api/auth/login", `{"email":"ghost@example.com","password":"x"}`, "")
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "invalid credentials", body["error"])
}

func TestLogoutRevokes(t *testing.T) {
	app := newTestApp(t, nil)
	do(t, app, http.MethodPost, "/api/auth/register", `{"email":"bob@example.com","password":"secret1"}`, "")
	_, body := do(t, app, http.MethodPost, "/api/auth/login", `{"email":"bob@example.com","password":"secret1"}`, "")
	token := body["token"].(string)

	status, _ := do(t, app, http.MethodPost, "/api/auth/logout", "", token)
	assert.Equal(t, http.StatusNoContent, status)

	status, _ = do(t, app, http.MethodGet, "/api/auth/me", "", token)
	assert.Equal(t, http.StatusUnauthorized, status)
	status, _ = do(t, app, http.MethodGet, "/internal/session", "", token)
	assert.Equal(t, http.StatusUnauthorized, status)
}

func TestLoginRateLimited(t *testing.T) {
	app := newTestApp(t, middleware.NewIPRateLimit(1, 2))
	body := `{"email":"ghost@example.com","password":"x"}`

	status, _ := do(t, app, http.MethodPost, "/api/auth/login", body, "")
	assert.Equal(t, http.StatusUnauthorized, status)
	status, _ = do(t, app, http.MethodPost, "/api/auth/login", body, "")
	assert.Equal(t, http.StatusUnauthorized, status)
	status, resp := do(t, app, http.MethodPost, "/api/auth/login", body, "")
	assert.Equal(t, http.StatusTooManyRequests, status)
	assert.Equal(t, "too many requests", resp["error"])
}
