package deliveryaddress

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"checkoutcore/internal/dbx"
)

type Store interface {
	Create(ctx context.Context, a *DeliveryAddress) (*DeliveryAddress, error)
	GetByID(ctx context.Context, id int64) (*DeliveryAddress, error)
	ListByUser(ctx context.Context, userID int64) ([]*DeliveryAddress, error)
	Update(ctx context.Context, a *DeliveryAddress) error
	Delete(ctx context.Context, id int64) error
}

type Repository struct {
	db dbx.Querier
}

func NewRepository(q dbx.Querier) *Repository {
	return &Repository{db: q}
}

const queryTimeout = 5 * time.Second

func (r *Repository) Create(ctx context.Context, a *DeliveryAddress) (*DeliveryAddress, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	query := `
		INSERT INTO delivery_addresses (user_id, street, city, postal_code, country, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, now(), now())
		RETURNING id, created_at, updated_at`
	err := r.db.QueryRow(ctx, query, a.UserID, a.Street, a.City, a.PostalCode, a.Country).
		Scan(&a.ID, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("insert delivery address: %w", err)
	}
	return a, nil
}

func (r *Repository) scan(row pgx.Row) (*DeliveryAddress, error) {
	var a DeliveryAddress
	if err := row.Scan(&a.ID, &a.UserID, &a.Street, &a.City, &a.PostalCode, &a.Country, &a.CreatedAt, &a.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("scan delivery address: %w", err)
	}
	return &a, nil
}

func (r *Repository) GetByID(ctx context.Context, id int64) (*DeliveryAddress, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	query := `SELECT id, user_id, street, city, postal_code, country, created_at, updated_at
		FROM delivery_addresses WHERE id = $1`
	return r.scan(r.db.QueryRow(ctx, query, id))
}

func (r *Repository) ListByUser(ctx context.Context, userID int64) ([]*DeliveryAddress, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	query := `SELECT id, user_id, street, city, postal_code, country, created_at, updated_at
		FROM delivery_addresses WHERE user_id = $1 ORDER BY id`
	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("list delivery addresses: %w", err)
	}
	defer rows.Close()

	var out []*DeliveryAddress
	for rows.Next() {
		a, err := r.scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (r *Repository) Update(ctx context.Context, a *DeliveryAddress) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	query := `UPDATE delivery_addresses SET street = $1, city = $2, postal_code = $3, country = $4, updated_at = now()
		WHERE id = $5 RETURNING updated_at`
	err := r.db.QueryRow(ctx, query, a.Street, a.City, a.PostalCode, a.Country, a.ID).Scan(&a.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	return err
}

func (r *Repository) Delete(ctx context.Context, id int64) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	tag, err := r.db.Exec(ctx, `DELETE FROM delivery_addresses WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete delivery address: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
