package repository

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"designmate/internal/common/database"
	"designmate/internal/designs/models"
	"designmate/internal/scene"
)

// ============================================================
// Designs Repository
// ============================================================

var (
	ErrNotFound  = errors.New("design not found")
	ErrForbidden = errors.New("not the owner of this design")
)

//go:embed migrations/001_designs.sql
var migration string

// timeLayout сортируется лексикографически.
const timeLayout = "2006-01-02T15:04:05.000000Z"

const selectColumns = `SELECT id, user_id, name, type, is_public, objects, meta, background, created_at FROM designs`

type Repository struct {
	db  *database.DB
	now func() time.Time
}

func New(db *database.DB) *Repository {
	return &Repository{db: db, now: time.Now}
}

func (r *Repository) Init(ctx context.Context) error {
	if err := r.db.Migrate(ctx, migration); err != nil {
		return fmt.Errorf("migrations: %w", err)
	}
	return nil
}

// Create присваивает ID и время создания и сохраняет дизайн.
func (r *Repository) Create(ctx context.Context, d *models.Design) error {
	meta, err := json.Marshal(d.DesignData.RoomMeta)
	if err != nil {
		return fmt.Errorf("encode meta: %w", err)
	}
	d.ID = uuid.NewString()
	d.CreatedAt = r.now().UTC().Format(timeLayout)

	_, err = r.db.ExecContext(ctx, r.db.Rebind(`
        INSERT INTO designs (id, user_id, name, type, is_public, objects, meta, background, created_at)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
    `), d.ID, d.UserID, d.Name, string(d.Type), boolToInt(d.IsPublic),
		string(d.DesignData.Objects), string(meta), d.DesignData.Background, d.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert design: %w", err)
	}
	return nil
}

func (r *Repository) GetByID(ctx context.Context, id string) (*models.Design, error) {
	row := r.db.QueryRowContext(ctx, r.db.Rebind(selectColumns+` WHERE id = ?`), id)
	d, err := scanDesign(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return d, err
}

// ListByOwner возвращает все дизайны пользователя, новые первыми.
func (r *Repository) ListByOwner(ctx context.Context, userID string) ([]*models.Design, error) {
	return r.list(ctx, selectColumns+` WHERE user_id = ? ORDER BY created_at DESC`, userID)
}

// ListPublic возвращает публичные дизайны всех пользователей, новые первыми.
func (r *Repository) ListPublic(ctx context.Context) ([]*models.Design, error) {
	return r.list(ctx, selectColumns+` WHERE is_public = 1 ORDER BY created_at DESC`)
}

// ToggleVisibility инвертирует флаг публичности и возвращает новое значение.
func (r *Repository) ToggleVisibility(ctx context.Context, id, userID string) (bool, error) {
	if err := r.checkOwner(ctx, id, userID); err != nil {
		return false, err
	}
	if _, err := r.db.ExecContext(ctx, r.db.Rebind(`UPDATE designs SET is_public = 1 - is_public WHERE id = ?`), id); err != nil {
		return false, fmt.Errorf("toggle visibility: %w", err)
	}
	d, err := r.GetByID(ctx, id)
	if err != nil {
		return false, err
	}
	return d.IsPublic, nil
}

// Delete удаляет дизайн и возвращает имя его фонового файла (может быть пустым).
func (r *Repository) Delete(ctx context.Context, id, userID string) (string, error) {
	d, err := r.GetByID(ctx, id)
	if err != nil {
		return "", err
	}
	if d.UserID != userID {
		return "", ErrForbidden
	}
	if _, err := r.db.ExecContext(ctx, r.db.Rebind(`DELETE FROM designs WHERE id = ?`), id); err != nil {
		return "", fmt.Errorf("delete design: %w", err)
	}
	return d.DesignData.Background, nil
}

func (r *Repository) checkOwner(ctx context.Context, id, userID string) error {
	var owner string
	err := r.db.QueryRowContext(ctx, r.db.Rebind(`SELECT user_id FROM designs WHERE id = ?`), id).Scan(&owner)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}
	if owner != userID {
		return ErrForbidden
	}
	return nil
}

func (r *Repository) list(ctx context.Context, query string, args ...any) ([]*models.Design, error) {
	rows, err := r.db.QueryContext(ctx, r.db.Rebind(query), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]*models.Design, 0)
	for rows.Next() {
		d, err := scanDesign(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanDesign(s scanner) (*models.Design, error) {
	var (
		d        models.Design
		typ      string
		isPublic int
		objects  string
		meta     string
	)
	if err := s.Scan(&d.ID, &d.UserID, &d.Name, &typ, &isPublic, &objects, &meta, &d.DesignData.Background, &d.CreatedAt); err != nil {
		return nil, err
	}
	d.Type = scene.Mode(typ)
	d.IsPublic = isPublic != 0
	d.DesignData.Objects = json.RawMessage(objects)
	if meta != "" {
		var m scene.RoomMeta
		if err := json.Unmarshal([]byte(meta), &m); err != nil {
			return nil, fmt.Errorf("decode meta of %s: %w", d.ID, err)
		}
		d.DesignData.RoomMeta = m
	}
	return &d, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
