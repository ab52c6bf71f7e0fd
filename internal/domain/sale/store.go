package sale

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"checkoutcore/internal/dbx"
)

// Store is the persistence contract for sales. Insert and InsertLine are
// discrete steps so the checkout service can interleave them with
// per-line stock debits inside one transaction.
type Store interface {
	Insert(ctx context.Context, s *Sale) (*Sale, error)
	InsertLine(ctx context.Context, l Line) error
	GetByID(ctx context.Context, id int64) (*Sale, error)
	ListLines(ctx context.Context, saleID int64) ([]Line, error)
	ListByBuyer(ctx context.Context, buyerID int64) ([]*Sale, error)
	ListAll(ctx context.Context) ([]*Sale, error)
	UpdateTotal(ctx context.Context, id int64, total decimal.Decimal) error
}

type Repository struct {
	db dbx.Querier
}

func NewRepository(q dbx.Querier) *Repository {
	return &Repository{db: q}
}

const queryTimeout = 5 * time.Second

func (r *Repository) Insert(ctx context.Context, s *Sale) (*Sale, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	query := `INSERT INTO sales (buyer_id, total, sold_at, created_at, updated_at)
		VALUES ($1, $2, now(), now(), now())
		RETURNING id, sold_at, created_at, updated_at`
	err := r.db.QueryRow(ctx, query, s.BuyerID, s.Total).Scan(&s.ID, &s.SoldAt, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("insert sale: %w", err)
	}
	return s, nil
}

func (r *Repository) InsertLine(ctx context.Context, l Line) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	_, err := r.db.Exec(ctx, `INSERT INTO sale_lines (sale_id, product_id, quantity, price) VALUES ($1, $2, $3, $4)`,
		l.SaleID, l.ProductID, l.Quantity, l.Price)
	if err != nil {
		return fmt.Errorf("insert sale line: %w", err)
	}
	return nil
}

func (r *Repository) GetByID(ctx context.Context, id int64) (*Sale, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var s Sale
	query := `SELECT id, buyer_id, total, sold_at, created_at, updated_at FROM sales WHERE id = $1`
	err := r.db.QueryRow(ctx, query, id).Scan(&s.ID, &s.BuyerID, &s.Total, &s.SoldAt, &s.CreatedAt, &s.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan sale: %w", err)
	}
	return &s, nil
}

func (r *Repository) ListLines(ctx context.Context, saleID int64) ([]Line, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	rows, err := r.db.Query(ctx, `SELECT sale_id, product_id, quantity, price FROM sale_lines WHERE sale_id = $1 ORDER BY product_id`, saleID)
	if err != nil {
		return nil, fmt.Errorf("list sale lines: %w", err)
	}
	defer rows.Close()

	var out []Line
	for rows.Next() {
		var l Line
		if err := rows.Scan(&l.SaleID, &l.ProductID, &l.Quantity, &l.Price); err != nil {
			return nil, fmt.Errorf("scan sale line: %w", err)
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

func (r *Repository) ListAll(ctx context.Context) ([]*Sale, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	rows, err := r.db.Query(ctx, `SELECT id, buyer_id, total, sold_at, created_at, updated_at
		FROM sales ORDER BY id DESC`)
	if err != nil {
		return nil, fmt.Errorf("list all sales: %w", err)
	}
	defer rows.Close()

	var out []*Sale
	for rows.Next() {
		var s Sale
		if err := rows.Scan(&s.ID, &s.BuyerID, &s.Total, &s.SoldAt, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan sale: %w", err)
		}
		out = append(out, &s)
	}
	return out, rows.Err()
}

// UpdateTotal is the one permitted administrative mutation of an otherwise
// append-only sale.
func (r *Repository) UpdateTotal(ctx context.Context, id int64, total decimal.Decimal) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	tag, err := r.db.Exec(ctx, `UPDATE sales SET total = $1, updated_at = now() WHERE id = $2`, total, id)
	if err != nil {
		return fmt.Errorf("update sale total: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *Repository) ListByBuyer(ctx context.Context, buyerID int64) ([]*Sale, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	rows, err := r.db.Query(ctx, `SELECT id, buyer_id, total, sold_at, created_at, updated_at
		FROM sales WHERE buyer_id = $1 ORDER BY id DESC`, buyerID)
	if err != nil {
		return nil, fmt.Errorf("list sales: %w", err)
	}
	defer rows.Close()

	var out []*Sale
	for rows.Next() {
		var s Sale
		if err := rows.Scan(&s.ID, &s.BuyerID, &s.Total, &s.SoldAt, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan sale: %w", err)
		}
		out = append(out, &s)
	}
	return out, rows.Err()
}
