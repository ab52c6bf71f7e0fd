package sale

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

var ErrNotFound = errors.New("sale not found")

type Sale struct {
	ID        int64           `json:"id"`
	BuyerID   int64           `json:"buyer_id"`
	Total     decimal.Decimal `json:"total"`
	SoldAt    time.Time       `json:"sold_at"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

type Line struct {
	SaleID    int64           `json:"sale_id"`
	ProductID int64           `json:"product_id"`
	Quantity  int             `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
}

// Summary is the composed {sale, lines} view returned by checkout and
// by sale lookups.
type Summary struct {
	Sale  Sale   `json:"sale"`
	Lines []Line `json:"lines"`
}
