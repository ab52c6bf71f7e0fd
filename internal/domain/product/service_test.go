package product

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"checkoutcore/internal/apperr"
	"checkoutcore/internal/cache"
)

func newTestCache() *cache.Cache {
	rdb := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", MaxRetries: -1})
	return cache.New(rdb, time.Minute, zap.NewNop().Sugar())
}

func price(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	if err != nil {
		t.Fatalf("parse price %q: %v", s, err)
	}
	return d
}

type stubStore struct {
	products map[int64]*Product
	nextID   int64
}

func newStubStore(products ...*Product) *stubStore {
	s := &stubStore{products: map[int64]*Product{}}
	for _, p := range products {
		s.products[p.ID] = p
		if p.ID > s.nextID {
			s.nextID = p.ID
		}
	}
	return s
}

func (s *stubStore) Create(ctx context.Context, p *Product) (*Product, error) {
	for _, existing := range s.products {
		if existing.Name == p.Name {
			return nil, ErrNameInUse
		}
	}
	s.nextID++
	p.ID = s.nextID
	p.CreatedAt = time.Now()
	p.UpdatedAt = p.CreatedAt
	s.products[p.ID] = p
	return p, nil
}

func (s *stubStore) GetByID(ctx context.Context, id int64) (*Product, error) {
	if p, ok := s.products[id]; ok {
		return p, nil
	}
	return nil, ErrNotFound
}

func (s *stubStore) GetByIDForUpdate(ctx context.Context, id int64) (*Product, error) {
	return s.GetByID(ctx, id)
}

func (s *stubStore) GetAll(ctx context.Context) ([]*Product, error) {
	var out []*Product
	for _, p := range s.products {
		out = append(out, p)
	}
	return out, nil
}

func (s *stubStore) ExistsByName(ctx context.Context, name string) (bool, error) {
	for _, p := range s.products {
		if p.Name == name {
			return true, nil
		}
	}
	return false, nil
}

func (s *stubStore) Update(ctx context.Context, p *Product) (*Product, error) {
	if _, ok := s.products[p.ID]; !ok {
		return nil, ErrNotFound
	}
	p.UpdatedAt = time.Now()
	s.products[p.ID] = p
	return p, nil
}

func (s *stubStore) DecrementStock(ctx context.Context, id int64, qty int) error {
	p, ok := s.products[id]
	if !ok || p.Stock < qty {
		return ErrInsufficientStock
	}
	p.Stock -= qty
	return nil
}

func (s *stubStore) Delete(ctx context.Context, id int64) error {
	if _, ok := s.products[id]; !ok {
		return ErrNotFound
	}
	delete(s.products, id)
	return nil
}

func TestCreateThenGetRoundTrip(t *testing.T) {
	t.Parallel()

	store := newStubStore()
	svc := NewService(store, newTestCache())

	created, err := svc.Create(context.Background(), &Product{Name: "Widget", Description: "a widget", Price: price(t, "10.00"), Stock: 5})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	got, err := svc.GetByID(context.Background(), created.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Name != created.Name || !got.Price.Equal(created.Price) || got.Stock != created.Stock || got.Description != created.Description {
		t.Fatalf("round trip mismatch: created %+v, got %+v", created, got)
	}
}

func TestCreateDuplicateName(t *testing.T) {
	t.Parallel()

	store := newStubStore(&Product{ID: 1, Name: "Widget", Price: decimal.Zero})
	svc := NewService(store, newTestCache())

	_, err := svc.Create(context.Background(), &Product{Name: "Widget", Price: price(t, "1.00")})
	if apperr.KindOf(err) != apperr.KindConflict {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func TestGetByIDNotFound(t *testing.T) {
	t.Parallel()

	svc := NewService(newStubStore(), newTestCache())
	if _, err := svc.GetByID(context.Background(), 42); apperr.KindOf(err) != apperr.KindNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestUpdateAppliesPatch(t *testing.T) {
	t.Parallel()

	store := newStubStore(&Product{ID: 1, Name: "Widget", Price: decimal.Zero, Stock: 5})
	svc := NewService(store, newTestCache())

	newName := "Widget Pro"
	newPrice := price(t, "11.00")
	updated, err := svc.Update(context.Background(), 1, Patch{Name: &newName, Price: &newPrice})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Name != "Widget Pro" || !updated.Price.Equal(newPrice) {
		t.Fatalf("patch not applied: %+v", updated)
	}
	if updated.Stock != 5 {
		t.Fatalf("unpatched field changed: stock %d", updated.Stock)
	}

	// A cold cache plus invalidation on write means the next read sees
	// the update immediately.
	got, err := svc.GetByID(context.Background(), 1)
	if err != nil {
		t.Fatalf("get after update: %v", err)
	}
	if !got.Price.Equal(newPrice) {
		t.Fatalf("stale read after update: %s", got.Price)
	}
}

func TestUpdateMissingProduct(t *testing.T) {
	t.Parallel()

	svc := NewService(newStubStore(), newTestCache())
	name := "x"
	if _, err := svc.Update(context.Background(), 9, Patch{Name: &name}); apperr.KindOf(err) != apperr.KindNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestDeleteMissingProduct(t *testing.T) {
	t.Parallel()

	svc := NewService(newStubStore(), newTestCache())
	if err := svc.Delete(context.Background(), 9); apperr.KindOf(err) != apperr.KindNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestGetAllWithUnavailableCache(t *testing.T) {
	t.Parallel()

	store := newStubStore(
		&Product{ID: 1, Name: "Widget", Price: decimal.Zero},
		&Product{ID: 2, Name: "Gadget", Price: decimal.Zero},
	)
	svc := NewService(store, newTestCache())

	all, err := svc.GetAll(context.Background())
	if err != nil {
		t.Fatalf("get all: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("expected 2 products straight from the store, got %d", len(all))
	}
}
