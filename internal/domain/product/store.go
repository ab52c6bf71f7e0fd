package product

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"checkoutcore/internal/dbx"
)

// Store is the persistence contract for products.
type Store interface {
	Create(ctx context.Context, p *Product) (*Product, error)
	GetByID(ctx context.Context, id int64) (*Product, error)
	// GetByIDForUpdate locks the product row for the duration of the
	// caller's transaction, used by checkout's stock debit.
	GetByIDForUpdate(ctx context.Context, id int64) (*Product, error)
	GetAll(ctx context.Context) ([]*Product, error)
	ExistsByName(ctx context.Context, name string) (bool, error)
	Update(ctx context.Context, p *Product) (*Product, error)
	DecrementStock(ctx context.Context, id int64, qty int) error
	Delete(ctx context.Context, id int64) error
}

type Repository struct {
	db dbx.Querier
}

func NewRepository(q dbx.Querier) *Repository {
	return &Repository{db: q}
}

const queryTimeout = 5 * time.Second

func (r *Repository) Create(ctx context.Context, p *Product) (*Product, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	query := `
		INSERT INTO products (name, description, price, stock, created_at, updated_at)
		VALUES ($1, $2, $3, $4, now(), now())
		RETURNING id, created_at, updated_at`
	err := r.db.QueryRow(ctx, query, p.Name, p.Description, p.Price, p.Stock).
		Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, ErrNameInUse
		}
		return nil, fmt.Errorf("insert product: %w", err)
	}
	return p, nil
}

func (r *Repository) scan(row pgx.Row) (*Product, error) {
	var p Product
	if err := row.Scan(&p.ID, &p.Name, &p.Description, &p.Price, &p.Stock, &p.CreatedAt, &p.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("scan product: %w", err)
	}
	return &p, nil
}

func (r *Repository) GetByID(ctx context.Context, id int64) (*Product, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	query := `SELECT id, name, description, price, stock, created_at, updated_at FROM products WHERE id = $1`
	return r.scan(r.db.QueryRow(ctx, query, id))
}

// GetByIDForUpdate is only meaningful inside a transaction; callers outside
// one still get a correct read, just without the row lock.
func (r *Repository) GetByIDForUpdate(ctx context.Context, id int64) (*Product, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	query := `SELECT id, name, description, price, stock, created_at, updated_at
		FROM products WHERE id = $1 FOR UPDATE`
	return r.scan(r.db.QueryRow(ctx, query, id))
}

func (r *Repository) GetAll(ctx context.Context) ([]*Product, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	query := `SELECT id, name, description, price, stock, created_at, updated_at FROM products ORDER BY id`
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()

	var out []*Product
	for rows.Next() {
		p, err := r.scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *Repository) ExistsByName(ctx context.Context, name string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var exists bool
	err := r.db.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM products WHERE name = $1)`, name).Scan(&exists)
	return exists, err
}

func (r *Repository) Update(ctx context.Context, p *Product) (*Product, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	query := `UPDATE products SET name = $1, description = $2, price = $3, stock = $4, updated_at = now()
		WHERE id = $5 RETURNING updated_at`
	err := r.db.QueryRow(ctx, query, p.Name, p.Description, p.Price, p.Stock, p.ID).Scan(&p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, ErrNameInUse
		}
		return nil, fmt.Errorf("update product: %w", err)
	}
	return p, nil
}

// DecrementStock leaves stock untouched and returns ErrInsufficientStock
// when no row was updated, which covers both a qty exceeding current stock
// and a missing row — the guard that makes the "no two checkouts oversell
// the last unit" property hold even without an explicit prior read.
func (r *Repository) DecrementStock(ctx context.Context, id int64, qty int) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	tag, err := r.db.Exec(ctx, `UPDATE products SET stock = stock - $1, updated_at = now()
		WHERE id = $2 AND stock >= $1`, qty, id)
	if err != nil {
		return fmt.Errorf("decrement stock: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrInsufficientStock
	}
	return nil
}

var ErrInsufficientStock = errors.New("insufficient stock")

func (r *Repository) Delete(ctx context.Context, id int64) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	tag, err := r.db.Exec(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete product: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
