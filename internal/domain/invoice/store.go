package invoice

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"checkoutcore/internal/dbx"
)

type Store interface {
	Create(ctx context.Context, inv *Invoice) (*Invoice, error)
	GetByID(ctx context.Context, id int64) (*Invoice, error)
	Update(ctx context.Context, inv *Invoice) error
	Delete(ctx context.Context, id int64) error
}

type Repository struct {
	db dbx.Querier
}

func NewRepository(q dbx.Querier) *Repository {
	return &Repository{db: q}
}

const queryTimeout = 5 * time.Second

func (r *Repository) Create(ctx context.Context, inv *Invoice) (*Invoice, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	query := `INSERT INTO invoices (sale_id, delivery_address_id, issued_at, created_at, updated_at)
		VALUES ($1, $2, now(), now(), now())
		RETURNING id, issued_at, created_at, updated_at`
	err := r.db.QueryRow(ctx, query, inv.SaleID, inv.DeliveryAddressID).
		Scan(&inv.ID, &inv.IssuedAt, &inv.CreatedAt, &inv.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("insert invoice: %w", err)
	}
	return inv, nil
}

func (r *Repository) GetByID(ctx context.Context, id int64) (*Invoice, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var inv Invoice
	query := `SELECT id, sale_id, delivery_address_id, issued_at, created_at, updated_at FROM invoices WHERE id = $1`
	err := r.db.QueryRow(ctx, query, id).Scan(&inv.ID, &inv.SaleID, &inv.DeliveryAddressID, &inv.IssuedAt, &inv.CreatedAt, &inv.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan invoice: %w", err)
	}
	return &inv, nil
}

func (r *Repository) Update(ctx context.Context, inv *Invoice) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	query := `UPDATE invoices SET delivery_address_id = $1, updated_at = now() WHERE id = $2 RETURNING updated_at`
	err := r.db.QueryRow(ctx, query, inv.DeliveryAddressID, inv.ID).Scan(&inv.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	return err
}

func (r *Repository) Delete(ctx context.Context, id int64) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	tag, err := r.db.Exec(ctx, `DELETE FROM invoices WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete invoice: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
