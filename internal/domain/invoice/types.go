package invoice

import (
	"errors"
	"fmt"
	"time"
)

var ErrNotFound = errors.New("invoice not found")

type Invoice struct {
	ID                int64     `json:"id"`
	SaleID            int64     `json:"sale_id"`
	DeliveryAddressID int64     `json:"delivery_address_id"`
	IssuedAt          time.Time `json:"issued_at"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// Number renders a zero-padded display reference; the canonical
// identifier remains the storage id.
func (i *Invoice) Number() string {
	return fmt.Sprintf("INV-%08d", i.ID)
}
