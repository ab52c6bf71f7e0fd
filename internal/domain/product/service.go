package product

import (
	"context"
	"fmt"
	"time"

	"checkoutcore/internal/apperr"
	"checkoutcore/internal/cache"
)

const (
	getByIDTTL = time.Hour
	getAllTTL  = 30 * time.Minute
)

func keyByID(id int64) string { return fmt.Sprintf("products.get_by_id:%d", id) }

const keyAll = "products.get_all"

// Service wraps Store with cache-through reads and invalidation on every
// write.
type Service struct {
	store Store
	cache *cache.Cache
}

func NewService(store Store, c *cache.Cache) *Service {
	return &Service{store: store, cache: c}
}

func (s *Service) Create(ctx context.Context, p *Product) (*Product, error) {
	exists, err := s.store.ExistsByName(ctx, p.Name)
	if err != nil {
		return nil, apperr.Repo(err)
	}
	if exists {
		return nil, apperr.Conflict("a product named %q already exists", p.Name)
	}

	created, err := s.store.Create(ctx, p)
	if err != nil {
		return nil, apperr.Repo(err)
	}

	s.cache.Delete(ctx, keyAll)
	return created, nil
}

func (s *Service) GetByID(ctx context.Context, id int64) (*Product, error) {
	key := keyByID(id)

	var cached Product
	if err := s.cache.Get(ctx, key, &cached); err == nil {
		return &cached, nil
	}

	p, err := s.store.GetByID(ctx, id)
	if err != nil {
		if err == ErrNotFound {
			return nil, apperr.NotFound("product %d not found", id)
		}
		return nil, apperr.Repo(err)
	}

	s.cache.SetTTL(ctx, key, p, getByIDTTL)
	return p, nil
}

func (s *Service) GetAll(ctx context.Context) ([]*Product, error) {
	var cached []*Product
	if err := s.cache.Get(ctx, keyAll, &cached); err == nil {
		return cached, nil
	}

	all, err := s.store.GetAll(ctx)
	if err != nil {
		return nil, apperr.Repo(err)
	}

	s.cache.SetTTL(ctx, keyAll, all, getAllTTL)
	return all, nil
}

func (s *Service) Update(ctx context.Context, id int64, patch Patch) (*Product, error) {
	p, err := s.store.GetByID(ctx, id)
	if err != nil {
		if err == ErrNotFound {
			return nil, apperr.NotFound("product %d not found", id)
		}
		return nil, apperr.Repo(err)
	}

	p.Apply(patch)

	updated, err := s.store.Update(ctx, p)
	if err != nil {
		if err == ErrNameInUse {
			return nil, apperr.Conflict("a product named %q already exists", p.Name)
		}
		if err == ErrNotFound {
			return nil, apperr.NotFound("product %d not found", id)
		}
		return nil, apperr.Repo(err)
	}

	s.invalidate(ctx, id)
	return updated, nil
}

func (s *Service) Delete(ctx context.Context, id int64) error {
	if err := s.store.Delete(ctx, id); err != nil {
		if err == ErrNotFound {
			return apperr.NotFound("product %d not found", id)
		}
		return apperr.Repo(err)
	}

	s.invalidate(ctx, id)
	return nil
}

func (s *Service) invalidate(ctx context.Context, id int64) {
	s.cache.Delete(ctx, keyByID(id))
	s.cache.Delete(ctx, keyAll)
}
