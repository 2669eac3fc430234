package repository

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"designmate/internal/auth/models"
	"designmate/internal/common/database"
)

// ============================================================
// Users Repository
// ============================================================

var (
	ErrNotFound           = errors.New("user not found")
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

//go:embed migrations/001_users.sql
var migration string

type Repository struct {
	db   *database.DB
	cost int
}

func New(db *database.DB) *Repository {
	return &Repository{db: db, cost: bcrypt.DefaultCost}
}

// WithHashCost меняет стоимость bcrypt (в тестах используется bcrypt.MinCost).
func (r *Repository) WithHashCost(cost int) *Repository {
	r.cost = cost
	return r
}

// Init запускает миграции и, если заданы учётные данные, создаёт admin.
func (r *Repository) Init(ctx context.Context, adminEmail, adminPassword string) error {
	if err := r.db.Migrate(ctx, migration); err != nil {
		return fmt.Errorf("migrations: %w", err)
	}
	if adminEmail == "" || adminPassword == "" {
		return nil
	}
	return r.ensureAdmin(ctx, adminEmail, adminPassword)
}

// Create регистрирует пользователя. Email приводится к нижнему регистру.
func (r *Repository) Create(ctx context.Context, email, password, role string) (*models.User, error) {
	email = normalizeEmail(email)
	if _, err := r.GetByEmail(ctx, email); err == nil {
		return nil, ErrEmailTaken
	} else if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), r.cost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	if role == "" {
		role = models.RoleUser
	}

	u := &models.User{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: string(hash),
		Role:         role,
		CreatedAt:    time.Now().UTC().Format(time.RFC3339),
	}
	_, err = r.db.ExecContext(ctx, r.db.Rebind(`
        INSERT INTO users (id, email, password_hash, role, created_at)
        VALUES (?, ?, ?, ?, ?)
    `), u.ID, u.Email, u.PasswordHash, u.Role, u.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("insert user: %w", err)
	}
	return u, nil
}

// Authenticate проверяет пару email/password.
func (r *Repository) Authenticate(ctx context.Context, email, password string) (*models.User, error) {
	u, err := r.GetByEmail(ctx, email)
	if errors.Is(err, ErrNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return u, nil
}

func (r *Repository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	row := r.db.QueryRowContext(ctx, r.db.Rebind(`
        SELECT id, email, password_hash, role, created_at
        FROM users
        WHERE email = ?
    `), normalizeEmail(email))
	return scanUser(row)
}

func (r *Repository) GetByID(ctx context.Context, id string) (*models.User, error) {
	row := r.db.QueryRowContext(ctx, r.db.Rebind(`
        SELECT id, email, password_hash, role, created_at
        FROM users
        WHERE id = ?
    `), id)
	return scanUser(row)
}

func scanUser(row *sql.Row) (*models.User, error) {
	var u models.User
	if err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.Role, &u.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}

// ============================================================
// Seeding
// ============================================================

func (r *Repository) ensureAdmin(ctx context.Context, email, password string) error {
	_, err := r.Create(ctx, email, password, models.RoleAdmin)
	switch {
	case err == nil:
		slog.Info("admin user created", "email", normalizeEmail(email))
		return nil
	case errors.Is(err, ErrEmailTaken):
		return nil
	default:
		return fmt.Errorf("seed admin: %w", err)
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
