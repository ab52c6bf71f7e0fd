package cart

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

var (
	ErrNotFound     = errors.New("cart not found")
	ErrLineNotFound = errors.New("cart line not found")
)

type Status string

const (
	StatusActive    Status = "active"
	StatusAbandoned Status = "abandoned"
	StatusConverted Status = "converted"
	StatusExpired   Status = "expired"
)

type Cart struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id"`
	Status    Status    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type Line struct {
	CartID    int64     `json:"cart_id"`
	ProductID int64     `json:"product_id"`
	Quantity  int       `json:"quantity"`
	UpdatedAt time.Time `json:"updated_at"`
}

// LineView is a line snapshotted against the current product price, as
// returned by ComputeTotal.
type LineView struct {
	ProductID   int64           `json:"product_id"`
	ProductName string          `json:"product_name"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	LineTotal   decimal.Decimal `json:"line_total"`
}

type Totals struct {
	Subtotal        decimal.Decimal `json:"subtotal"`
	ItemCount       int             `json:"item_count"`
	DistinctProduct int             `json:"distinct_products"`
	Lines           []LineView      `json:"lines"`
}

type LineIssue struct {
	ProductID int64    `json:"product_id"`
	Requested int      `json:"requested"`
	Available int      `json:"available"`
	Valid     bool     `json:"valid"`
	Issues    []string `json:"issues,omitempty"`
}

type ValidationReport struct {
	Valid       bool            `json:"valid"`
	Errors      []string        `json:"errors,omitempty"`
	Warnings    []string        `json:"warnings,omitempty"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	PerLine     []LineIssue     `json:"per_line"`
}

// CanTransition allows any non-convergent move among active, abandoned,
// and expired, plus active to converted. Converted is terminal.
func CanTransition(from, to Status) bool {
	if from == StatusConverted {
		return false
	}
	if to == StatusConverted {
		return from == StatusActive
	}
	switch to {
	case StatusActive, StatusAbandoned, StatusExpired:
		return from != to
	default:
		return false
	}
}
