// Package storage aggregates every domain Store behind one Container and
// exposes the WithTransaction combinator the checkout path needs.
package storage

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"checkoutcore/internal/domain/cart"
	"checkoutcore/internal/domain/deliveryaddress"
	"checkoutcore/internal/domain/invoice"
	"checkoutcore/internal/domain/product"
	"checkoutcore/internal/domain/sale"
	"checkoutcore/internal/domain/user"
)

type Container struct {
	pool             *pgxpool.Pool
	Users            user.Store
	DeliveryAddrs    deliveryaddress.Store
	Products         product.Store
	Carts            cart.Store
	Sales            sale.Store
	Invoices         invoice.Store
}

func NewContainer(db *pgxpool.Pool) *Container {
	return &Container{
		pool:          db,
		Users:         user.NewRepository(db),
		DeliveryAddrs: deliveryaddress.NewRepository(db),
		Products:      product.NewRepository(db),
		Carts:         cart.NewRepository(db),
		Sales:         sale.NewRepository(db),
		Invoices:      invoice.NewRepository(db),
	}
}

// WithTransaction runs fn atomically: any error returned from fn rolls the
// transaction back, and nil commits it. The bundle type lives in the sale
// package (sale.CheckoutStores) since checkout is its only caller today;
// Container satisfies sale.TxRunner structurally, with no import back
// from sale to storage.
func (c *Container) WithTransaction(ctx context.Context, fn func(s *sale.CheckoutStores) error) error {
	if c.pool == nil {
		return fmt.Errorf("storage container pool is nil")
	}

	tx, err := c.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.Serializable})
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	s := &sale.CheckoutStores{
		Products: product.NewRepository(tx),
		Carts:    cart.NewRepository(tx),
		Sales:    sale.NewRepository(tx),
	}

	if err := fn(s); err != nil {
		return err
	}

	return tx.Commit(ctx)
}
