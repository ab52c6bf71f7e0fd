package product

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

var (
	ErrNotFound  = errors.New("product not found")
	ErrNameInUse = errors.New("a product with that name already exists")
)

type Product struct {
	ID          int64           `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Price       decimal.Decimal `json:"price"`
	Stock       int             `json:"stock"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// Patch carries the mutable subset of a Product for partial updates.
type Patch struct {
	Name        *string
	Description *string
	Price       *decimal.Decimal
	Stock       *int
}

func (p *Product) Apply(patch Patch) {
	if patch.Name != nil {
		p.Name = *patch.Name
	}
	if patch.Description != nil {
		p.Description = *patch.Description
	}
	if patch.Price != nil {
		p.Price = *patch.Price
	}
	if patch.Stock != nil {
		p.Stock = *patch.Stock
	}
}
