package user

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"checkoutcore/internal/dbx"
)

// Store is the data access abstraction for the user domain.
type Store interface {
	Create(ctx context.Context, u *User) (*User, error)
	GetByID(ctx context.Context, id int64) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	Update(ctx context.Context, u *User) error
	Delete(ctx context.Context, id int64) error
	MakeAdmin(ctx context.Context, id int64) error
}

type Repository struct {
	db dbx.Querier
}

func NewRepository(q dbx.Querier) *Repository {
	return &Repository{db: q}
}

const QueryTimeout = 5 * time.Second

func (r *Repository) Create(ctx context.Context, u *User) (*User, error) {
	ctx, cancel := context.WithTimeout(ctx, QueryTimeout)
	defer cancel()

	query := `
		INSERT INTO users (email, name, phone, password_hash, role, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, true, now(), now())
		RETURNING id, created_at, updated_at`

	err := r.db.QueryRow(ctx, query, strings.ToLower(u.Email), u.Name, u.Phone, u.Password.Hash(), u.Role).
		Scan(&u.ID, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, ErrDuplicateEmail
		}
		return nil, fmt.Errorf("insert user: %w", err)
	}
	u.IsActive = true
	return u, nil
}

func (r *Repository) scanRow(row pgx.Row) (*User, error) {
	var u User
	var hash []byte
	if err := row.Scan(&u.ID, &u.Email, &u.Name, &u.Phone, &hash, &u.Role, &u.IsActive, &u.CreatedAt, &u.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("scan user: %w", err)
	}
	u.Password.SetHash(hash)
	return &u, nil
}

func (r *Repository) GetByID(ctx context.Context, id int64) (*User, error) {
	ctx, cancel := context.WithTimeout(ctx, QueryTimeout)
	defer cancel()

	query := `SELECT id, email, name, phone, password_hash, role, is_active, created_at, updated_at
		FROM users WHERE id = $1`
	return r.scanRow(r.db.QueryRow(ctx, query, id))
}

func (r *Repository) GetByEmail(ctx context.Context, email string) (*User, error) {
	ctx, cancel := context.WithTimeout(ctx, QueryTimeout)
	defer cancel()

	query := `SELECT id, email, name, phone, password_hash, role, is_active, created_at, updated_at
		FROM users WHERE email = $1`
	return r.scanRow(r.db.QueryRow(ctx, query, strings.ToLower(email)))
}

func (r *Repository) Update(ctx context.Context, u *User) error {
	ctx, cancel := context.WithTimeout(ctx, QueryTimeout)
	defer cancel()

	query := `UPDATE users SET name = $1, phone = $2, is_active = $3, updated_at = now()
		WHERE id = $4 RETURNING updated_at`
	err := r.db.QueryRow(ctx, query, u.Name, u.Phone, u.IsActive, u.ID).Scan(&u.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	return err
}

func (r *Repository) Delete(ctx context.Context, id int64) error {
	ctx, cancel := context.WithTimeout(ctx, QueryTimeout)
	defer cancel()

	tag, err := r.db.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *Repository) MakeAdmin(ctx context.Context, id int64) error {
	ctx, cancel := context.WithTimeout(ctx, QueryTimeout)
	defer cancel()

	tag, err := r.db.Exec(ctx, `UPDATE users SET role = $1, updated_at = now() WHERE id = $2 AND role <> $1`, RoleAdmin, id)
	if err != nil {
		return fmt.Errorf("promote user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrAlreadyAdminOrMissing
	}
	return nil
}

var ErrAlreadyAdminOrMissing = errors.New("user is already admin or does not exist")
