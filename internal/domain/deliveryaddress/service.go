package deliveryaddress

import (
	"context"
	"errors"

	"checkoutcore/internal/apperr"
)

// Patch carries the mutable subset of a DeliveryAddress for partial updates.
type Patch struct {
	Street     *string
	City       *string
	PostalCode *string
	Country    *string
}

func (a *DeliveryAddress) apply(p Patch) {
	if p.Street != nil {
		a.Street = *p.Street
	}
	if p.City != nil {
		a.City = *p.City
	}
	if p.PostalCode != nil {
		a.PostalCode = *p.PostalCode
	}
	if p.Country != nil {
		a.Country = *p.Country
	}
}

// Service is ownership-checked CRUD over a user's delivery addresses.
type Service struct {
	addresses Store
}

func NewService(addresses Store) *Service {
	return &Service{addresses: addresses}
}

func (s *Service) Create(ctx context.Context, ownerUserID int64, a *DeliveryAddress) (*DeliveryAddress, error) {
	a.UserID = ownerUserID
	created, err := s.addresses.Create(ctx, a)
	if err != nil {
		return nil, apperr.Repo(err)
	}
	return created, nil
}

func (s *Service) Get(ctx context.Context, id, requestingUserID int64, isAdmin bool) (*DeliveryAddress, error) {
	a, err := s.addresses.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, apperr.NotFound("delivery address %d not found", id)
		}
		return nil, apperr.Repo(err)
	}
	if !isAdmin && a.UserID != requestingUserID {
		return nil, apperr.Forbidden("delivery address %d does not belong to this user", id)
	}
	return a, nil
}

func (s *Service) ListForUser(ctx context.Context, ownerUserID int64) ([]*DeliveryAddress, error) {
	out, err := s.addresses.ListByUser(ctx, ownerUserID)
	if err != nil {
		return nil, apperr.Repo(err)
	}
	return out, nil
}

func (s *Service) Update(ctx context.Context, id int64, patch Patch, requestingUserID int64, isAdmin bool) (*DeliveryAddress, error) {
	a, err := s.Get(ctx, id, requestingUserID, isAdmin)
	if err != nil {
		return nil, err
	}
	a.apply(patch)
	if err := s.addresses.Update(ctx, a); err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, apperr.NotFound("delivery address %d not found", id)
		}
		return nil, apperr.Repo(err)
	}
	return a, nil
}

func (s *Service) Delete(ctx context.Context, id, requestingUserID int64, isAdmin bool) error {
	if _, err := s.Get(ctx, id, requestingUserID, isAdmin); err != nil {
		return err
	}
	if err := s.addresses.Delete(ctx, id); err != nil {
		if errors.Is(err, ErrNotFound) {
			return apperr.NotFound("delivery address %d not found", id)
		}
		return apperr.Repo(err)
	}
	return nil
}
