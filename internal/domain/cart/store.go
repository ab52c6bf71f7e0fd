package cart

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"checkoutcore/internal/dbx"
)

// Store is the persistence contract for carts and their lines.
type Store interface {
	GetActiveByUser(ctx context.Context, userID int64) (*Cart, error)
	GetOrCreateActive(ctx context.Context, userID int64) (*Cart, error)
	GetByID(ctx context.Context, id int64) (*Cart, error)
	GetLine(ctx context.Context, cartID, productID int64) (*Line, error)
	UpsertLine(ctx context.Context, cartID, productID int64, qty int) error
	RemoveLine(ctx context.Context, cartID, productID int64) error
	ListLines(ctx context.Context, cartID int64) ([]*Line, error)
	Clear(ctx context.Context, cartID int64) error
	SetStatus(ctx context.Context, cartID int64, status Status) error
}

type Repository struct {
	db dbx.Querier
}

func NewRepository(q dbx.Querier) *Repository {
	return &Repository{db: q}
}

const queryTimeout = 5 * time.Second

func (r *Repository) scanCart(row pgx.Row) (*Cart, error) {
	var c Cart
	if err := row.Scan(&c.ID, &c.UserID, &c.Status, &c.CreatedAt, &c.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("scan cart: %w", err)
	}
	return &c, nil
}

func (r *Repository) GetActiveByUser(ctx context.Context, userID int64) (*Cart, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	query := `SELECT id, user_id, status, created_at, updated_at
		FROM carts WHERE user_id = $1 AND status = $2`
	return r.scanCart(r.db.QueryRow(ctx, query, userID, StatusActive))
}

// GetOrCreateActive tries the read first, and on a racing insert falls
// back to re-reading rather than failing: the unique partial index
// (user_id WHERE status='active') is what actually enforces the "at most
// one active cart" invariant.
func (r *Repository) GetOrCreateActive(ctx context.Context, userID int64) (*Cart, error) {
	c, err := r.GetActiveByUser(ctx, userID)
	if err == nil {
		return c, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	ctx2, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	query := `INSERT INTO carts (user_id, status, created_at, updated_at)
		VALUES ($1, $2, now(), now())
		ON CONFLICT (user_id) WHERE status = 'active' DO NOTHING
		RETURNING id, user_id, status, created_at, updated_at`
	created, insertErr := r.scanCart(r.db.QueryRow(ctx2, query, userID, StatusActive))
	if insertErr == nil {
		return created, nil
	}
	if errors.Is(insertErr, ErrNotFound) {
		return r.GetActiveByUser(ctx, userID)
	}
	return nil, insertErr
}

func (r *Repository) GetByID(ctx context.Context, id int64) (*Cart, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	query := `SELECT id, user_id, status, created_at, updated_at FROM carts WHERE id = $1`
	return r.scanCart(r.db.QueryRow(ctx, query, id))
}

func (r *Repository) GetLine(ctx context.Context, cartID, productID int64) (*Line, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var l Line
	query := `SELECT cart_id, product_id, quantity, updated_at FROM cart_lines
		WHERE cart_id = $1 AND product_id = $2`
	err := r.db.QueryRow(ctx, query, cartID, productID).Scan(&l.CartID, &l.ProductID, &l.Quantity, &l.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrLineNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan cart line: %w", err)
	}
	return &l, nil
}

func (r *Repository) UpsertLine(ctx context.Context, cartID, productID int64, qty int) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	query := `INSERT INTO cart_lines (cart_id, product_id, quantity, updated_at)
		VALUES ($1, $2, $3, now())
		ON CONFLICT (cart_id, product_id) DO UPDATE SET quantity = $3, updated_at = now()`
	_, err := r.db.Exec(ctx, query, cartID, productID, qty)
	if err != nil {
		return fmt.Errorf("upsert cart line: %w", err)
	}
	return nil
}

func (r *Repository) RemoveLine(ctx context.Context, cartID, productID int64) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	tag, err := r.db.Exec(ctx, `DELETE FROM cart_lines WHERE cart_id = $1 AND product_id = $2`, cartID, productID)
	if err != nil {
		return fmt.Errorf("remove cart line: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrLineNotFound
	}
	return nil
}

func (r *Repository) ListLines(ctx context.Context, cartID int64) ([]*Line, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	query := `SELECT cart_id, product_id, quantity, updated_at FROM cart_lines WHERE cart_id = $1 ORDER BY product_id`
	rows, err := r.db.Query(ctx, query, cartID)
	if err != nil {
		return nil, fmt.Errorf("list cart lines: %w", err)
	}
	defer rows.Close()

	var out []*Line
	for rows.Next() {
		var l Line
		if err := rows.Scan(&l.CartID, &l.ProductID, &l.Quantity, &l.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan cart line: %w", err)
		}
		out = append(out, &l)
	}
	return out, rows.Err()
}

func (r *Repository) Clear(ctx context.Context, cartID int64) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	_, err := r.db.Exec(ctx, `DELETE FROM cart_lines WHERE cart_id = $1`, cartID)
	if err != nil {
		return fmt.Errorf("clear cart: %w", err)
	}
	return nil
}

func (r *Repository) SetStatus(ctx context.Context, cartID int64, status Status) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	tag, err := r.db.Exec(ctx, `UPDATE carts SET status = $1, updated_at = now() WHERE id = $2`, status, cartID)
	if err != nil {
		return fmt.Errorf("set cart status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
