package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"path"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/gofiber/fiber/v3"

	"designmate/internal/catalog"
	"designmate/internal/common/middleware"
	"designmate/internal/common/validation"
	"designmate/internal/designs/models"
	"designmate/internal/designs/repository"
	"designmate/internal/designs/service"
	"designmate/internal/scene"
)

// ============================================================
// Designs Handler
// ============================================================

const uploadsPrefix = "/uploads/"

type DesignHandler struct {
	repo      *repository.Repository
	storage   *service.FileStorage
	validator *validation.Validator
}

func NewDesignHandler(repo *repository.Repository, storage *service.FileStorage) *DesignHandler {
	return &DesignHandler{
		repo:      repo,
		storage:   storage,
		validator: validation.New(),
	}
}

type saveRequest struct {
	Name string     `validate:"required,max=120"`
	Type scene.Mode `validate:"required,oneof=2D 3D"`
}

// Save принимает multipart форму редактора и создаёт новую запись.
func (h *DesignHandler) Save(c fiber.Ctx) error {
	userID, _ := middleware.UserID(c)

	req := saveRequest{
		Name: strings.TrimSpace(h.validator.Sanitize(c.FormValue("name"))),
		Type: scene.Mode(c.FormValue("type")),
	}
	if err := h.validator.Struct(req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	isPublic, _ := strconv.ParseBool(c.FormValue("isPublic"))

	objects := json.RawMessage(c.FormValue("objects"))
	if err := checkObjects(objects); err != nil {
		return err
	}

	var meta scene.RoomMeta
	if raw := c.FormValue("designMeta"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &meta); err != nil {
			return fiber.NewError(http.StatusBadRequest, "invalid designMeta")
		}
	}
	if err := meta.Check(req.Type); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}

	d := &models.Design{
		UserID:   userID,
		Name:     req.Name,
		Type:     req.Type,
		IsPublic: isPublic,
		DesignData: models.DesignData{
			Objects:  objects,
			RoomMeta: meta,
		},
	}

	bg, err := h.saveBackground(c)
	if err != nil {
		return err
	}
	if bg != "" {
		d.DesignData.Background = uploadsPrefix + bg
	}

	if err := h.repo.Create(c.Context(), d); err != nil {
		if bg != "" {
			_ = h.storage.Remove(bg)
		}
		return err
	}

	slog.Info("design saved", "design_id", d.ID, "user_id", userID, "type", d.Type, "objects_bytes", humanize.Bytes(uint64(len(objects))))
	return c.Status(http.StatusCreated).JSON(fiber.Map{"design": d})
}

func (h *DesignHandler) saveBackground(c fiber.Ctx) (string, error) {
	fh, err := c.FormFile("bgImage")
	if err != nil {
		return "", nil
	}
	f, err := fh.Open()
	if err != nil {
		return "", fiber.NewError(http.StatusBadRequest, "invalid bgImage")
	}
	defer f.Close()

	name, err := h.storage.Save(fh.Filename, f)
	if errors.Is(err, service.ErrUnsupportedImage) {
		return "", fiber.NewError(http.StatusBadRequest, err.Error())
	}
	if err != nil {
		return "", err
	}
	slog.Info("background stored", "file", name, "size", humanize.Bytes(uint64(fh.Size)))
	return name, nil
}

// checkObjects требует непустой JSON массив; содержимое экземпляров не разбирается.
func checkObjects(raw json.RawMessage) error {
	if len(raw) == 0 {
		return fiber.NewError(http.StatusBadRequest, "'objects' is required")
	}
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid objects")
	}
	if len(items) == 0 {
		return fiber.NewError(http.StatusBadRequest, "at least one object is required")
	}
	return nil
}

// Get отдаёт дизайн; чужой приватный дизайн выглядит как отсутствующий.
func (h *DesignHandler) Get(c fiber.Ctx) error {
	userID, _ := middleware.UserID(c)
	d, err := h.repo.GetByID(c.Context(), c.Params("id"))
	if errors.Is(err, repository.ErrNotFound) || (err == nil && !d.VisibleTo(userID)) {
		return c.Status(http.StatusNotFound).JSON(fiber.Map{"error": "design not found"})
	}
	if err != nil {
		return err
	}
	return c.JSON(d)
}

func (h *DesignHandler) ListPrivate(c fiber.Ctx) error {
	userID, _ := middleware.UserID(c)
	designs, err := h.repo.ListByOwner(c.Context(), userID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"designs": designs})
}

func (h *DesignHandler) ListPublic(c fiber.Ctx) error {
	designs, err := h.repo.ListPublic(c.Context())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"designs": designs})
}

func (h *DesignHandler) ToggleVisibility(c fiber.Ctx) error {
	userID, _ := middleware.UserID(c)
	isPublic, err := h.repo.ToggleVisibility(c.Context(), c.Params("id"), userID)
	if err != nil {
		return repoError(c, err)
	}
	return c.JSON(fiber.Map{"isPublic": isPublic})
}

func (h *DesignHandler) Delete(c fiber.Ctx) error {
	userID, _ := middleware.UserID(c)
	id := c.Params("id")
	bg, err := h.repo.Delete(c.Context(), id, userID)
	if err != nil {
		return repoError(c, err)
	}
	if bg != "" {
		if err := h.storage.Remove(path.Base(bg)); err != nil {
			slog.Warn("remove background", "design_id", id, "error", err)
		}
	}
	slog.Info("design deleted", "design_id", id, "user_id", userID)
	return c.SendStatus(http.StatusNoContent)
}

// Upload отдаёт сохранённое фоновое изображение.
func (h *DesignHandler) Upload(c fiber.Ctx) error {
	p, err := h.storage.Path(c.Params("name"))
	if err != nil {
		return c.Status(http.StatusNotFound).JSON(fiber.Map{"error": "file not found"})
	}
	if _, err := os.Stat(p); err != nil {
		return c.Status(http.StatusNotFound).JSON(fiber.Map{"error": "file not found"})
	}
	return c.SendFile(p)
}

// Catalog отдаёт каталог спрайтов и моделей.
func (h *DesignHandler) Catalog(c fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"sprites": catalog.Sprites(),
		"models":  catalog.Models(),
	})
}

func repoError(c fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return c.Status(http.StatusNotFound).JSON(fiber.Map{"error": "design not found"})
	case errors.Is(err, repository.ErrForbidden):
		return c.Status(http.StatusForbidden).JSON(fiber.Map{"error": "forbidden"})
	default:
		return err
	}
}
