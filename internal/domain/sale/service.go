package sale

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/speps/go-hashids/v2"
	"go.uber.org/zap"

	"checkoutcore/internal/apperr"
	"checkoutcore/internal/cache"
	"checkoutcore/internal/domain/cart"
	"checkoutcore/internal/domain/deliveryaddress"
	"checkoutcore/internal/domain/product"
)

// CheckoutStores is the transaction-scoped repository bundle the checkout
// path needs. Defined here (not in storage) so sale never imports storage,
// keeping storage -> sale a one-way dependency.
type CheckoutStores struct {
	Products product.Store
	Carts    cart.Store
	Sales    Store
}

// TxRunner is satisfied structurally by *storage.Container.WithTransaction.
type TxRunner interface {
	WithTransaction(ctx context.Context, fn func(s *CheckoutStores) error) error
}

// Result is what CreateSaleFromCart returns on success: the sale, its
// lines, and an opaque reference code derived from the sale id so the
// sequential storage id never leaks into receipts.
type Result struct {
	Summary       Summary
	ReferenceCode string
}

// Service converts carts into sales. Preconditions are validated outside
// the transaction; the sale insert, line inserts, per-line stock debits,
// and cart transition all happen inside one transaction, with stock
// re-checked per line under row locks so a racing checkout cannot
// oversell.
type Service struct {
	tx        TxRunner
	sales     Store
	addresses deliveryaddress.Store
	carts     *cart.Service
	cache     *cache.Cache
	hash      *hashids.HashID
	log       *zap.SugaredLogger
}

func NewService(tx TxRunner, sales Store, addresses deliveryaddress.Store, carts *cart.Service, c *cache.Cache, hashSalt string, log *zap.SugaredLogger) (*Service, error) {
	hd := hashids.NewData()
	hd.Salt = hashSalt
	hd.MinLength = 8
	h, err := hashids.NewWithData(hd)
	if err != nil {
		return nil, fmt.Errorf("init sale reference hasher: %w", err)
	}
	return &Service{tx: tx, sales: sales, addresses: addresses, carts: carts, cache: c, hash: h, log: log}, nil
}

func (s *Service) referenceCode(saleID int64) string {
	code, err := s.hash.Encode([]int{int(saleID)})
	if err != nil {
		s.log.Warnw("failed to encode sale reference code", "sale_id", saleID, "error", err)
		return fmt.Sprintf("SALE-%d", saleID)
	}
	return strings.ToUpper(code)
}

// CreateSaleFromCart validates ownership, cart state, and the delivery
// address, then executes the checkout transaction and invalidates the
// affected caches after commit.
func (s *Service) CreateSaleFromCart(ctx context.Context, userID, cartID, deliveryAddressID int64) (*Result, error) {
	c, err := s.carts.CartByID(ctx, cartID)
	if err != nil {
		return nil, err
	}
	if c.UserID != userID {
		return nil, apperr.Forbidden("cart %d does not belong to this user", cartID)
	}
	if c.Status != cart.StatusActive {
		return nil, apperr.New(apperr.KindDomain, "cart is not active").WithCode(apperr.CodeCartNotActive)
	}

	addr, err := s.addresses.GetByID(ctx, deliveryAddressID)
	if err != nil {
		if err == deliveryaddress.ErrNotFound {
			return nil, apperr.NotFound("delivery address %d not found", deliveryAddressID)
		}
		return nil, apperr.Repo(err)
	}
	if addr.UserID != userID {
		return nil, apperr.Forbidden("delivery address %d does not belong to this user", deliveryAddressID)
	}

	report, err := s.carts.ValidateForCheckout(ctx, cartID)
	if err != nil {
		return nil, err
	}
	if !report.Valid {
		return nil, apperr.New(apperr.KindDomain, strings.Join(report.Errors, "; ")).WithCode(apperr.CodeSaleError)
	}

	var result Result

	err = s.tx.WithTransaction(ctx, func(tx *CheckoutStores) error {
		lines, err := tx.Carts.ListLines(ctx, cartID)
		if err != nil {
			return apperr.Repo(err)
		}
		if len(lines) == 0 {
			return apperr.New(apperr.KindDomain, "cart is empty").WithCode(apperr.CodeEmptyCart)
		}

		total := decimal.Zero
		type lineSnapshot struct {
			productID int64
			qty       int
			price     decimal.Decimal
		}
		var snaps []lineSnapshot

		for _, l := range lines {
			p, err := tx.Products.GetByIDForUpdate(ctx, l.ProductID)
			if err != nil {
				if err == product.ErrNotFound {
					return apperr.NotFound("product %d no longer exists", l.ProductID)
				}
				return apperr.Repo(err)
			}
			if p.Stock < l.Quantity {
				return apperr.New(apperr.KindDomain, fmt.Sprintf("insufficient stock for product %d", l.ProductID)).WithCode(apperr.CodeInsufficientStock)
			}
			total = total.Add(p.Price.Mul(decimal.NewFromInt(int64(l.Quantity))))
			snaps = append(snaps, lineSnapshot{productID: l.ProductID, qty: l.Quantity, price: p.Price})
		}

		createdSale, err := tx.Sales.Insert(ctx, &Sale{BuyerID: userID, Total: total})
		if err != nil {
			return apperr.Repo(err)
		}

		var saleLines []Line
		for _, pl := range snaps {
			saleLine := Line{SaleID: createdSale.ID, ProductID: pl.productID, Quantity: pl.qty, Price: pl.price}
			if err := tx.Sales.InsertLine(ctx, saleLine); err != nil {
				return apperr.Repo(err)
			}
			if err := tx.Products.DecrementStock(ctx, pl.productID, pl.qty); err != nil {
				if err == product.ErrInsufficientStock {
					return apperr.New(apperr.KindDomain, fmt.Sprintf("insufficient stock for product %d", pl.productID)).WithCode(apperr.CodeInsufficientStock)
				}
				return apperr.Repo(err)
			}
			saleLines = append(saleLines, saleLine)
		}

		if err := tx.Carts.SetStatus(ctx, cartID, cart.StatusConverted); err != nil {
			return apperr.Repo(err)
		}

		result = Result{Summary: Summary{Sale: *createdSale, Lines: saleLines}}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.invalidateAfterCheckout(ctx, userID, result.Summary.Lines)
	result.ReferenceCode = s.referenceCode(result.Summary.Sale.ID)
	return &result, nil
}

// GetForBuyer resolves a sale and its lines, ownership-checked unless the
// caller is an admin.
func (s *Service) GetForBuyer(ctx context.Context, saleID, requestingUserID int64, isAdmin bool) (*Summary, error) {
	sl, err := s.sales.GetByID(ctx, saleID)
	if err != nil {
		if err == ErrNotFound {
			return nil, apperr.NotFound("sale %d not found", saleID)
		}
		return nil, apperr.Repo(err)
	}
	if !isAdmin && sl.BuyerID != requestingUserID {
		return nil, apperr.Forbidden("sale %d does not belong to this user", saleID)
	}
	lines, err := s.sales.ListLines(ctx, saleID)
	if err != nil {
		return nil, apperr.Repo(err)
	}
	return &Summary{Sale: *sl, Lines: lines}, nil
}

func (s *Service) ListForBuyer(ctx context.Context, buyerID int64) ([]*Sale, error) {
	out, err := s.sales.ListByBuyer(ctx, buyerID)
	if err != nil {
		return nil, apperr.Repo(err)
	}
	return out, nil
}

func (s *Service) ListAll(ctx context.Context) ([]*Sale, error) {
	out, err := s.sales.ListAll(ctx)
	if err != nil {
		return nil, apperr.Repo(err)
	}
	return out, nil
}

// AdjustTotal is the administrative exception to sale immutability: an
// admin may correct a sale's total after the fact (e.g. a manual refund
// adjustment). Sale lines are never touched by this operation.
func (s *Service) AdjustTotal(ctx context.Context, saleID int64, newTotal decimal.Decimal) (*Sale, error) {
	if newTotal.IsNegative() {
		return nil, apperr.Validation("total must not be negative")
	}
	if err := s.sales.UpdateTotal(ctx, saleID, newTotal); err != nil {
		if err == ErrNotFound {
			return nil, apperr.NotFound("sale %d not found", saleID)
		}
		return nil, apperr.Repo(err)
	}
	s.cache.DeletePattern(ctx, "admin.sales:*")
	return s.sales.GetByID(ctx, saleID)
}

func (s *Service) invalidateAfterCheckout(ctx context.Context, userID int64, lines []Line) {
	for _, l := range lines {
		s.cache.Delete(ctx, fmt.Sprintf("products.get_by_id:%d", l.ProductID))
	}
	s.cache.Delete(ctx, "products.get_all")
	s.cache.Delete(ctx, fmt.Sprintf("cart.total:user:%d", userID))
	s.cache.DeletePattern(ctx, "admin.sales:*")
}
