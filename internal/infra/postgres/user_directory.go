package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"bookofh-service/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v4/pgxpool"
)

const uniqueViolation = "23505"

// UserDirectory reads and creates rows of the users table.
type UserDirectory struct {
	pool *pgxpool.Pool
}

func NewUserDirectory(pool *pgxpool.Pool) *UserDirectory {
	return &UserDirectory{pool: pool}
}

func (d *UserDirectory) Exists(ctx context.Context, userID string) (bool, error) {
	var ok bool
	if err := d.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM users WHERE id=$1)`, userID).Scan(&ok); err != nil {
		return false, fmt.Errorf("lookup user: %w", err)
	}
	return ok, nil
}

// Create registers a user with a generated id. Emails are unique, compared
// in lower case.
func (d *UserDirectory) Create(ctx context.Context, email string) (domain.User, error) {
	u := domain.User{
		ID:        uuid.NewString(),
		Email:     strings.ToLower(strings.TrimSpace(email)),
		CreatedAt: time.Now().UTC(),
	}
	_, err := d.pool.Exec(ctx, `INSERT INTO users (id, email, created_at) VALUES ($1, $2, $3)`, u.ID, u.Email, u.CreatedAt)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return domain.User{}, domain.ErrUserExists
	}
	if err != nil {
		return domain.User{}, fmt.Errorf("create user: %w", err)
	}
	return u, nil
}

// Seed inserts users that are not present yet; existing rows are untouched.
func (d *UserDirectory) Seed(ctx context.Context, users ...domain.User) error {
	for _, u := range users {
		createdAt := u.CreatedAt
		if createdAt.IsZero() {
			createdAt = time.Now().UTC()
		}
		if _, err := d.pool.Exec(ctx,
			`INSERT INTO users (id, email, created_at) VALUES ($1, $2, $3) ON CONFLICT DO NOTHING`,
			u.ID, strings.ToLower(u.Email), createdAt,
		); err != nil {
			return fmt.Errorf("seed user %s: %w", u.ID, err)
		}
	}
	return nil
}
