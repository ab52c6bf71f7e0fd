package cart

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"checkoutcore/internal/apperr"
	"checkoutcore/internal/cache"
	"checkoutcore/internal/domain/product"
)

const totalsTTL = 2 * time.Minute

func totalsKey(userID int64) string { return fmt.Sprintf("cart.total:user:%d", userID) }

// Service owns the active-cart lifecycle, orchestrating the cart Store
// against the product Store for stock checks and price snapshots.
type Service struct {
	carts    Store
	products product.Store
	cache    *cache.Cache
}

func NewService(carts Store, products product.Store, c *cache.Cache) *Service {
	return &Service{carts: carts, products: products, cache: c}
}

// CartByID is used by the checkout service to resolve and ownership-check
// the cart named in a checkout request.
func (s *Service) CartByID(ctx context.Context, cartID int64) (*Cart, error) {
	c, err := s.carts.GetByID(ctx, cartID)
	if err != nil {
		if err == ErrNotFound {
			return nil, apperr.NotFound("cart %d not found", cartID)
		}
		return nil, apperr.Repo(err)
	}
	return c, nil
}

func (s *Service) GetOrCreateActiveCart(ctx context.Context, userID int64) (*Cart, error) {
	c, err := s.carts.GetOrCreateActive(ctx, userID)
	if err != nil {
		return nil, apperr.Repo(err)
	}
	return c, nil
}

func (s *Service) AddLine(ctx context.Context, userID, productID int64, qty int) (*Cart, error) {
	if qty < 1 || qty > 999 {
		return nil, apperr.Validation("quantity must be between 1 and 999")
	}

	c, err := s.carts.GetOrCreateActive(ctx, userID)
	if err != nil {
		return nil, apperr.Repo(err)
	}

	p, err := s.products.GetByID(ctx, productID)
	if err != nil {
		if err == product.ErrNotFound {
			return nil, apperr.NotFound("product %d not found", productID)
		}
		return nil, apperr.Repo(err)
	}

	existing, err := s.carts.GetLine(ctx, c.ID, productID)
	currentQty := 0
	if err == nil {
		currentQty = existing.Quantity
	} else if err != ErrLineNotFound {
		return nil, apperr.Repo(err)
	}

	newQty := currentQty + qty
	if newQty > 999 {
		return nil, apperr.Validation("quantity must be between 1 and 999")
	}
	if p.Stock < newQty {
		return nil, apperr.New(apperr.KindDomain, "insufficient stock").WithCode(apperr.CodeInsufficientStock)
	}

	if err := s.carts.UpsertLine(ctx, c.ID, productID, newQty); err != nil {
		return nil, apperr.Repo(err)
	}

	s.invalidateTotals(ctx, userID)
	return c, nil
}

func (s *Service) UpdateLineQty(ctx context.Context, userID, productID int64, qty int) (*Cart, error) {
	if qty < 0 || qty > 999 {
		return nil, apperr.Validation("quantity must be between 0 and 999")
	}

	c, err := s.carts.GetOrCreateActive(ctx, userID)
	if err != nil {
		return nil, apperr.Repo(err)
	}

	if qty == 0 {
		if err := s.carts.RemoveLine(ctx, c.ID, productID); err != nil && err != ErrLineNotFound {
			return nil, apperr.Repo(err)
		}
		s.invalidateTotals(ctx, userID)
		return c, nil
	}

	p, err := s.products.GetByID(ctx, productID)
	if err != nil {
		if err == product.ErrNotFound {
			return nil, apperr.NotFound("product %d not found", productID)
		}
		return nil, apperr.Repo(err)
	}
	if p.Stock < qty {
		return nil, apperr.New(apperr.KindDomain, "insufficient stock").WithCode(apperr.CodeInsufficientStock)
	}

	if err := s.carts.UpsertLine(ctx, c.ID, productID, qty); err != nil {
		return nil, apperr.Repo(err)
	}

	s.invalidateTotals(ctx, userID)
	return c, nil
}

func (s *Service) RemoveLine(ctx context.Context, userID, productID int64) error {
	c, err := s.carts.GetOrCreateActive(ctx, userID)
	if err != nil {
		return apperr.Repo(err)
	}

	if err := s.carts.RemoveLine(ctx, c.ID, productID); err != nil {
		if err == ErrLineNotFound {
			return apperr.NotFound("product %d is not in the cart", productID)
		}
		return apperr.Repo(err)
	}

	s.invalidateTotals(ctx, userID)
	return nil
}

func (s *Service) Clear(ctx context.Context, userID int64) error {
	c, err := s.carts.GetOrCreateActive(ctx, userID)
	if err != nil {
		return apperr.Repo(err)
	}
	if err := s.carts.Clear(ctx, c.ID); err != nil {
		return apperr.Repo(err)
	}
	s.invalidateTotals(ctx, userID)
	return nil
}

func (s *Service) ComputeTotal(ctx context.Context, userID int64) (*Totals, error) {
	key := totalsKey(userID)

	var cached Totals
	if err := s.cache.Get(ctx, key, &cached); err == nil {
		return &cached, nil
	}

	c, err := s.carts.GetOrCreateActive(ctx, userID)
	if err != nil {
		return nil, apperr.Repo(err)
	}

	totals, err := s.computeTotals(ctx, c.ID)
	if err != nil {
		return nil, err
	}

	s.cache.SetTTL(ctx, key, totals, totalsTTL)
	return totals, nil
}

func (s *Service) computeTotals(ctx context.Context, cartID int64) (*Totals, error) {
	lines, err := s.carts.ListLines(ctx, cartID)
	if err != nil {
		return nil, apperr.Repo(err)
	}

	totals := &Totals{Subtotal: decimal.Zero, DistinctProduct: len(lines)}
	for _, l := range lines {
		p, err := s.products.GetByID(ctx, l.ProductID)
		if err != nil {
			continue
		}
		lineTotal := p.Price.Mul(decimal.NewFromInt(int64(l.Quantity)))
		totals.Subtotal = totals.Subtotal.Add(lineTotal)
		totals.ItemCount += l.Quantity
		totals.Lines = append(totals.Lines, LineView{
			ProductID:   p.ID,
			ProductName: p.Name,
			Quantity:    l.Quantity,
			UnitPrice:   p.Price,
			LineTotal:   lineTotal,
		})
	}
	return totals, nil
}

func (s *Service) TransitionStatus(ctx context.Context, cartID, requestingUserID int64, newStatus Status) error {
	c, err := s.carts.GetByID(ctx, cartID)
	if err != nil {
		if err == ErrNotFound {
			return apperr.NotFound("cart %d not found", cartID)
		}
		return apperr.Repo(err)
	}
	if c.UserID != requestingUserID {
		return apperr.Forbidden("cart %d does not belong to this user", cartID)
	}
	if !CanTransition(c.Status, newStatus) {
		return apperr.Domain("cannot transition cart from %s to %s", c.Status, newStatus)
	}
	if err := s.carts.SetStatus(ctx, cartID, newStatus); err != nil {
		return apperr.Repo(err)
	}
	s.invalidateTotals(ctx, requestingUserID)
	return nil
}

// ValidateForCheckout builds an aggregated precondition report: valid iff
// the cart is active, non-empty, every product still exists, and every
// line's stock is sufficient. Warnings fire when stock is less than
// twice the requested quantity.
func (s *Service) ValidateForCheckout(ctx context.Context, cartID int64) (*ValidationReport, error) {
	c, err := s.carts.GetByID(ctx, cartID)
	if err != nil {
		if err == ErrNotFound {
			return nil, apperr.NotFound("cart %d not found", cartID)
		}
		return nil, apperr.Repo(err)
	}

	report := &ValidationReport{Valid: true, TotalAmount: decimal.Zero}

	if c.Status != StatusActive {
		report.Valid = false
		report.Errors = append(report.Errors, "cart is not active")
	}

	lines, err := s.carts.ListLines(ctx, cartID)
	if err != nil {
		return nil, apperr.Repo(err)
	}
	if len(lines) == 0 {
		report.Valid = false
		report.Errors = append(report.Errors, "cart is empty")
		return report, nil
	}

	for _, l := range lines {
		issue := LineIssue{ProductID: l.ProductID, Requested: l.Quantity, Valid: true}

		p, err := s.products.GetByID(ctx, l.ProductID)
		if err != nil {
			issue.Valid = false
			issue.Issues = append(issue.Issues, "product no longer exists")
			report.Valid = false
			report.Errors = append(report.Errors, fmt.Sprintf("product %d no longer exists", l.ProductID))
			report.PerLine = append(report.PerLine, issue)
			continue
		}

		issue.Available = p.Stock
		if p.Stock < l.Quantity {
			issue.Valid = false
			issue.Issues = append(issue.Issues, "insufficient stock")
			report.Valid = false
			report.Errors = append(report.Errors, fmt.Sprintf("product %d has insufficient stock", l.ProductID))
		} else if p.Stock < 2*l.Quantity {
			issue.Issues = append(issue.Issues, "low stock")
			report.Warnings = append(report.Warnings, fmt.Sprintf("product %d is low on stock", l.ProductID))
		}

		report.TotalAmount = report.TotalAmount.Add(p.Price.Mul(decimal.NewFromInt(int64(l.Quantity))))
		report.PerLine = append(report.PerLine, issue)
	}

	return report, nil
}

func (s *Service) invalidateTotals(ctx context.Context, userID int64) {
	s.cache.Delete(ctx, totalsKey(userID))
}
