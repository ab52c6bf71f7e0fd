package invoice

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"checkoutcore/internal/apperr"
	"checkoutcore/internal/domain/deliveryaddress"
	"checkoutcore/internal/domain/sale"
)

type stubInvoiceStore struct {
	invoices map[int64]*Invoice
	nextID   int64
}

func (s *stubInvoiceStore) Create(ctx context.Context, inv *Invoice) (*Invoice, error) {
	s.nextID++
	inv.ID = s.nextID
	inv.IssuedAt = time.Now()
	s.invoices[inv.ID] = inv
	return inv, nil
}

func (s *stubInvoiceStore) GetByID(ctx context.Context, id int64) (*Invoice, error) {
	if inv, ok := s.invoices[id]; ok {
		return inv, nil
	}
	return nil, ErrNotFound
}

func (s *stubInvoiceStore) Update(ctx context.Context, inv *Invoice) error {
	if _, ok := s.invoices[inv.ID]; !ok {
		return ErrNotFound
	}
	s.invoices[inv.ID] = inv
	return nil
}

func (s *stubInvoiceStore) Delete(ctx context.Context, id int64) error {
	if _, ok := s.invoices[id]; !ok {
		return ErrNotFound
	}
	delete(s.invoices, id)
	return nil
}

type stubSaleStore struct {
	sales map[int64]*sale.Sale
}

func (s *stubSaleStore) Insert(ctx context.Context, sl *sale.Sale) (*sale.Sale, error) {
	s.sales[sl.ID] = sl
	return sl, nil
}

func (s *stubSaleStore) InsertLine(ctx context.Context, l sale.Line) error { return nil }

func (s *stubSaleStore) GetByID(ctx context.Context, id int64) (*sale.Sale, error) {
	if sl, ok := s.sales[id]; ok {
		return sl, nil
	}
	return nil, sale.ErrNotFound
}

func (s *stubSaleStore) ListLines(ctx context.Context, saleID int64) ([]sale.Line, error) {
	return nil, nil
}

func (s *stubSaleStore) ListByBuyer(ctx context.Context, buyerID int64) ([]*sale.Sale, error) {
	return nil, nil
}

func (s *stubSaleStore) ListAll(ctx context.Context) ([]*sale.Sale, error) { return nil, nil }

func (s *stubSaleStore) UpdateTotal(ctx context.Context, id int64, total decimal.Decimal) error {
	return nil
}

type stubAddressStore struct {
	addresses map[int64]*deliveryaddress.DeliveryAddress
}

func (s *stubAddressStore) Create(ctx context.Context, a *deliveryaddress.DeliveryAddress) (*deliveryaddress.DeliveryAddress, error) {
	s.addresses[a.ID] = a
	return a, nil
}

func (s *stubAddressStore) GetByID(ctx context.Context, id int64) (*deliveryaddress.DeliveryAddress, error) {
	if a, ok := s.addresses[id]; ok {
		return a, nil
	}
	return nil, deliveryaddress.ErrNotFound
}

func (s *stubAddressStore) ListByUser(ctx context.Context, userID int64) ([]*deliveryaddress.DeliveryAddress, error) {
	return nil, nil
}

func (s *stubAddressStore) Update(ctx context.Context, a *deliveryaddress.DeliveryAddress) error {
	return nil
}

func (s *stubAddressStore) Delete(ctx context.Context, id int64) error { return nil }

func newTestService() (*Service, *stubInvoiceStore, *stubSaleStore, *stubAddressStore) {
	invoices := &stubInvoiceStore{invoices: map[int64]*Invoice{}}
	sales := &stubSaleStore{sales: map[int64]*sale.Sale{}}
	addrs := &stubAddressStore{addresses: map[int64]*deliveryaddress.DeliveryAddress{}}
	return NewService(invoices, sales, addrs), invoices, sales, addrs
}

func seed(sales *stubSaleStore, addrs *stubAddressStore) {
	sales.sales[1] = &sale.Sale{ID: 1, BuyerID: 10, Total: decimal.New(2000, -2)}
	addrs.addresses[1] = &deliveryaddress.DeliveryAddress{ID: 1, UserID: 10}
	addrs.addresses[2] = &deliveryaddress.DeliveryAddress{ID: 2, UserID: 99}
}

func TestCreateInvoiceHappy(t *testing.T) {
	t.Parallel()

	svc, _, sales, addrs := newTestService()
	seed(sales, addrs)

	inv, err := svc.CreateInvoice(context.Background(), 1, 1, 10, false)
	if err != nil {
		t.Fatalf("create invoice: %v", err)
	}
	if inv.SaleID != 1 || inv.DeliveryAddressID != 1 {
		t.Fatalf("unexpected invoice: %+v", inv)
	}
	if inv.IssuedAt.IsZero() {
		t.Fatal("expected an issue timestamp")
	}
}

func TestCreateInvoiceSaleMissing(t *testing.T) {
	t.Parallel()

	svc, _, _, _ := newTestService()
	if _, err := svc.CreateInvoice(context.Background(), 9, 1, 10, false); apperr.KindOf(err) != apperr.KindNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestCreateInvoiceForeignSale(t *testing.T) {
	t.Parallel()

	svc, _, sales, addrs := newTestService()
	seed(sales, addrs)

	if _, err := svc.CreateInvoice(context.Background(), 1, 1, 99, false); apperr.KindOf(err) != apperr.KindForbidden {
		t.Fatalf("expected forbidden, got %v", err)
	}
	// An admin may invoice any sale, but the address must still belong
	// to the sale's buyer.
	if _, err := svc.CreateInvoice(context.Background(), 1, 1, 99, true); err != nil {
		t.Fatalf("admin create: %v", err)
	}
}

func TestCreateInvoiceAddressMustBelongToBuyer(t *testing.T) {
	t.Parallel()

	svc, _, sales, addrs := newTestService()
	seed(sales, addrs)

	if _, err := svc.CreateInvoice(context.Background(), 1, 2, 10, false); apperr.KindOf(err) != apperr.KindValidation {
		t.Fatalf("expected validation error for foreign address, got %v", err)
	}
	if _, err := svc.CreateInvoice(context.Background(), 1, 2, 0, true); apperr.KindOf(err) != apperr.KindValidation {
		t.Fatalf("admin must not bypass the buyer-address rule, got %v", err)
	}
}

func TestGetInvoiceOwnership(t *testing.T) {
	t.Parallel()

	svc, _, sales, addrs := newTestService()
	seed(sales, addrs)
	inv, err := svc.CreateInvoice(context.Background(), 1, 1, 10, false)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if _, err := svc.GetInvoice(context.Background(), inv.ID, 99, false); apperr.KindOf(err) != apperr.KindForbidden {
		t.Fatalf("expected forbidden, got %v", err)
	}
	if _, err := svc.GetInvoice(context.Background(), inv.ID, 99, true); err != nil {
		t.Fatalf("admin read: %v", err)
	}
	if _, err := svc.GetInvoice(context.Background(), inv.ID, 10, false); err != nil {
		t.Fatalf("owner read: %v", err)
	}
}

func TestUpdateInvoiceReassignsAddress(t *testing.T) {
	t.Parallel()

	svc, _, sales, addrs := newTestService()
	seed(sales, addrs)
	addrs.addresses[3] = &deliveryaddress.DeliveryAddress{ID: 3, UserID: 10}

	inv, err := svc.CreateInvoice(context.Background(), 1, 1, 10, false)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	updated, err := svc.UpdateInvoice(context.Background(), inv.ID, 3, 10, false)
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.DeliveryAddressID != 3 {
		t.Fatalf("address not reassigned: %+v", updated)
	}

	if _, err := svc.UpdateInvoice(context.Background(), inv.ID, 2, 10, false); apperr.KindOf(err) != apperr.KindValidation {
		t.Fatalf("expected validation error reassigning to a foreign address, got %v", err)
	}
}

func TestDeleteInvoice(t *testing.T) {
	t.Parallel()

	svc, invoices, sales, addrs := newTestService()
	seed(sales, addrs)
	inv, err := svc.CreateInvoice(context.Background(), 1, 1, 10, false)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if err := svc.DeleteInvoice(context.Background(), inv.ID, 99, false); apperr.KindOf(err) != apperr.KindForbidden {
		t.Fatalf("expected forbidden, got %v", err)
	}
	if err := svc.DeleteInvoice(context.Background(), inv.ID, 10, false); err != nil {
		t.Fatalf("owner delete: %v", err)
	}
	if _, ok := invoices.invoices[inv.ID]; ok {
		t.Fatal("invoice must be hard deleted")
	}
	if err := svc.DeleteInvoice(context.Background(), inv.ID, 10, false); apperr.KindOf(err) != apperr.KindNotFound {
		t.Fatalf("expected not found after delete, got %v", err)
	}
}

func TestInvoiceNumberFormatting(t *testing.T) {
	t.Parallel()

	inv := &Invoice{ID: 42}
	if got := inv.Number(); got != "INV-00000042" {
		t.Fatalf("unexpected invoice number %q", got)
	}
}
