package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/ovaphlow/pitchfork/service-auth-go/internal/user/entity"
)

var (
	// ErrNotFound is returned when no user row matches.
	ErrNotFound = errors.New("user not found")
	// ErrEmailTaken is returned when the unique email index rejects an insert.
	ErrEmailTaken = errors.New("email already registered")
)

const userColumns = `id, name, email, email_verified, password_hash, role, status, is_deleted, image, created_at, updated_at`

// UserRepo provides data access for users table using sqlx.
// db is either a *sqlx.DB or a *sqlx.Tx.
type UserRepo struct {
	db sqlx.ExtContext
}

func NewUserRepo(db sqlx.ExtContext) *UserRepo { return &UserRepo{db: db} }

// Create inserts a new user row. CreatedAt/UpdatedAt are filled from the database.
func (r *UserRepo) Create(ctx context.Context, u *entity.User) error {
	const q = `INSERT INTO users (id, name, email, email_verified, password_hash, role, status, is_deleted, image)
		VALUES (:id, :name, :email, :email_verified, :password_hash, :role, :status, :is_deleted, :image)
		RETURNING created_at, updated_at`
	rows, err := sqlx.NamedQueryContext(ctx, r.db, q, u)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrEmailTaken
		}
		return fmt.Errorf("insert user: %w", err)
	}
	defer rows.Close()
	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return fmt.Errorf("insert user: %w", err)
		}
		return errors.New("insert user: no row returned")
	}
	return rows.Scan(&u.CreatedAt, &u.UpdatedAt)
}

// GetByEmail returns a user matched by email (case-insensitive due to citext).
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*entity.User, error) {
	q := `SELECT ` + userColumns + ` FROM users WHERE email=$1`
	var u entity.User
	if err := sqlx.GetContext(ctx, r.db, &u, q, strings.TrimSpace(email)); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get user by email: %w", err)
	}
	return &u, nil
}

// GetByID fetches a full user row.
func (r *UserRepo) GetByID(ctx context.Context, id string) (*entity.User, error) {
	q := `SELECT ` + userColumns + ` FROM users WHERE id=$1`
	var u entity.User
	if err := sqlx.GetContext(ctx, r.db, &u, q, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get user by id: %w", err)
	}
	return &u, nil
}

// GetProfile returns only the publicly visible columns.
func (r *UserRepo) GetProfile(ctx context.Context, id string) (*entity.Profile, error) {
	const q = `SELECT id, name, email, role, status, email_verified, image, created_at, updated_at FROM users WHERE id=$1`
	var p entity.Profile
	if err := sqlx.GetContext(ctx, r.db, &p, q, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get user profile: %w", err)
	}
	return &p, nil
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}
