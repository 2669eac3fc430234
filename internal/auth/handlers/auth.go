package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gofiber/fiber/v3"

	"designmate/internal/auth/models"
	"designmate/internal/auth/repository"
	"designmate/internal/auth/service"
	"designmate/internal/common/middleware"
	"designmate/internal/common/validation"
)

// ============================================================
// Auth Handler
// ============================================================

type AuthHandler struct {
	repo      *repository.Repository
	sessions  *service.SessionManager
	validator *validation.Validator
}

func NewAuthHandler(repo *repository.Repository, sessions *service.SessionManager) *AuthHandler {
	return &AuthHandler{
		repo:      repo,
		sessions:  sessions,
		validator: validation.New(),
	}
}

type registerRequest struct {
	Email    string `json:"email" validate:"required,email,max=254"`
	Password string `json:"password" validate:"required,min=6,max=72"`
	Role     string `json:"role" validate:"omitempty,oneof=user"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type loginResponse struct {
	Token string       `json:"token"`
	User  *models.User `json:"user"`
}

// Register создаёт пользователя с ролью user.
func (h *AuthHandler) Register(c fiber.Ctx) error {
	var req registerRequest
	if err := h.decode(c, &req); err != nil {
		return err
	}

	user, err := h.repo.Create(c.Context(), req.Email, req.Password, models.RoleUser)
	if errors.Is(err, repository.ErrEmailTaken) {
		return c.Status(http.StatusConflict).JSON(fiber.Map{"error": err.Error()})
	}
	if err != nil {
		return err
	}

	slog.Info("user registered", "user_id", user.ID)
	return c.Status(http.StatusCreated).JSON(user)
}

// Login выдаёт токен по паре email/password.
func (h *AuthHandler) Login(c fiber.Ctx) error {
	var req loginRequest
	if err := h.decode(c, &req); err != nil {
		return err
	}

	user, err := h.repo.Authenticate(c.Context(), req.Email, req.Password)
	if errors.Is(err, repository.ErrInvalidCredentials) {
		slog.Warn("login failed", "ip", c.IP())
		return c.Status(http.StatusUnauthorized).JSON(fiber.Map{"error": "invalid credentials"})
	}
	if err != nil {
		return err
	}

	token, err := h.sessions.Issue(user.ID)
	if err != nil {
		return err
	}

	return c.JSON(loginResponse{Token: token, User: user})
}

// Me возвращает текущего пользователя. Маршрут закрыт RequireAuth.
func (h *AuthHandler) Me(c fiber.Ctx) error {
	userID, _ := middleware.UserID(c)
	user, err := h.repo.GetByID(c.Context(), userID)
	if errors.Is(err, repository.ErrNotFound) {
		return c.Status(http.StatusNotFound).JSON(fiber.Map{"error": "user not found"})
	}
	if err != nil {
		return err
	}
	return c.JSON(user)
}

// Logout отзывает токен запроса.
func (h *AuthHandler) Logout(c fiber.Ctx) error {
	token, _ := middleware.BearerToken(c)
	if err := h.sessions.Revoke(token); err != nil {
		return c.Status(http.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized"})
	}
	return c.SendStatus(http.StatusNoContent)
}

// Session резолвит токен для других сервисов.
func (h *AuthHandler) Session(c fiber.Ctx) error {
	userID, ok := middleware.UserID(c)
	if !ok {
		return c.Status(http.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized"})
	}
	return c.JSON(fiber.Map{"userId": userID})
}

func (h *AuthHandler) decode(c fiber.Ctx, dst any) error {
	if len(c.Body()) == 0 {
		return fiber.NewError(http.StatusBadRequest, "empty body")
	}
	if err := json.Unmarshal(c.Body(), dst); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid json")
	}
	if err := h.validator.Struct(dst); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	return nil
}
