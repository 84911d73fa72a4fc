package repository

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/minniexp/expense-backend/internal/database"
	"github.com/minniexp/expense-backend/internal/models"
)

type UserRepository struct {
	db *database.DB
}

func NewUserRepository(db *database.DB) *UserRepository {
	return &UserRepository{db: db}
}

const userColumns = `id, email, name, COALESCE(google_id, ''), is_approved, access_level,
	 last_login, created_at, updated_at`

func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	if user.AccessLevel == "" {
		user.AccessLevel = models.AccessSimple
	}
	user.Email = strings.ToLower(strings.TrimSpace(user.Email))
	return r.db.Pool.QueryRow(ctx,
		`INSERT INTO users (id, email, name, google_id, is_approved, access_level)
		 VALUES ($1, $2, $3, NULLIF($4, ''), $5, $6)
		 RETURNING created_at, updated_at`,
		user.ID, user.Email, user.Name, user.GoogleID, user.IsApproved, string(user.AccessLevel),
	).Scan(&user.CreatedAt, &user.UpdatedAt)
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	row := r.db.Pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	return scanUser(row)
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	row := r.db.Pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = $1`,
		strings.ToLower(strings.TrimSpace(email)))
	return scanUser(row)
}

func (r *UserRepository) UpdateLastLogin(ctx context.Context, id string, at time.Time) error {
	_, err := r.db.Pool.Exec(ctx,
		`UPDATE users SET last_login = $1, updated_at = NOW() WHERE id = $2`, at, id)
	return err
}

func scanUser(row pgx.Row) (*models.User, error) {
	user := &models.User{}
	var accessLevel string
	err := row.Scan(&user.ID, &user.Email, &user.Name, &user.GoogleID, &user.IsApproved,
		&accessLevel, &user.LastLogin, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrNotFound
		}
		return nil, err
	}
	user.AccessLevel = models.AccessLevel(accessLevel)
	return user, nil
}
