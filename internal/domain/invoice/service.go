package invoice

import (
	"context"

	"checkoutcore/internal/apperr"
	"checkoutcore/internal/domain/deliveryaddress"
	"checkoutcore/internal/domain/sale"
)

// Service issues and maintains invoices. It depends on sale.Store and
// deliveryaddress.Store only for the ownership checks
// CreateInvoice/GetInvoice/UpdateInvoice require.
type Service struct {
	invoices  Store
	sales     sale.Store
	addresses deliveryaddress.Store
}

func NewService(invoices Store, sales sale.Store, addresses deliveryaddress.Store) *Service {
	return &Service{invoices: invoices, sales: sales, addresses: addresses}
}

func (s *Service) CreateInvoice(ctx context.Context, saleID, deliveryAddressID int64, requestingUserID int64, isAdmin bool) (*Invoice, error) {
	sl, err := s.sales.GetByID(ctx, saleID)
	if err != nil {
		if err == sale.ErrNotFound {
			return nil, apperr.NotFound("sale %d not found", saleID)
		}
		return nil, apperr.Repo(err)
	}
	if !isAdmin && sl.BuyerID != requestingUserID {
		return nil, apperr.Forbidden("sale %d does not belong to this user", saleID)
	}

	addr, err := s.addresses.GetByID(ctx, deliveryAddressID)
	if err != nil {
		if err == deliveryaddress.ErrNotFound {
			return nil, apperr.NotFound("delivery address %d not found", deliveryAddressID)
		}
		return nil, apperr.Repo(err)
	}
	if addr.UserID != sl.BuyerID {
		return nil, apperr.Validation("delivery address must belong to the sale's buyer")
	}

	inv, err := s.invoices.Create(ctx, &Invoice{SaleID: saleID, DeliveryAddressID: deliveryAddressID})
	if err != nil {
		return nil, apperr.Repo(err)
	}
	return inv, nil
}

func (s *Service) GetInvoice(ctx context.Context, id int64, requestingUserID int64, isAdmin bool) (*Invoice, error) {
	inv, err := s.invoices.GetByID(ctx, id)
	if err != nil {
		if err == ErrNotFound {
			return nil, apperr.NotFound("invoice %d not found", id)
		}
		return nil, apperr.Repo(err)
	}

	if !isAdmin {
		sl, err := s.sales.GetByID(ctx, inv.SaleID)
		if err != nil {
			return nil, apperr.Repo(err)
		}
		if sl.BuyerID != requestingUserID {
			return nil, apperr.Forbidden("invoice %d does not belong to this user", id)
		}
	}
	return inv, nil
}

func (s *Service) UpdateInvoice(ctx context.Context, id, newDeliveryAddressID int64, requestingUserID int64, isAdmin bool) (*Invoice, error) {
	inv, err := s.GetInvoice(ctx, id, requestingUserID, isAdmin)
	if err != nil {
		return nil, err
	}

	sl, err := s.sales.GetByID(ctx, inv.SaleID)
	if err != nil {
		return nil, apperr.Repo(err)
	}

	addr, err := s.addresses.GetByID(ctx, newDeliveryAddressID)
	if err != nil {
		if err == deliveryaddress.ErrNotFound {
			return nil, apperr.NotFound("delivery address %d not found", newDeliveryAddressID)
		}
		return nil, apperr.Repo(err)
	}
	if addr.UserID != sl.BuyerID {
		return nil, apperr.Validation("delivery address must belong to the sale's buyer")
	}

	inv.DeliveryAddressID = newDeliveryAddressID
	if err := s.invoices.Update(ctx, inv); err != nil {
		if err == ErrNotFound {
			return nil, apperr.NotFound("invoice %d not found", id)
		}
		return nil, apperr.Repo(err)
	}
	return inv, nil
}

func (s *Service) DeleteInvoice(ctx context.Context, id int64, requestingUserID int64, isAdmin bool) error {
	if _, err := s.GetInvoice(ctx, id, requestingUserID, isAdmin); err != nil {
		return err
	}
	if err := s.invoices.Delete(ctx, id); err != nil {
		if err == ErrNotFound {
			return apperr.NotFound("invoice %d not found", id)
		}
		return apperr.Repo(err)
	}
	return nil
}
