package deliveryaddress

import (
	"errors"
	"time"
)

var ErrNotFound = errors.New("delivery address not found")

type DeliveryAddress struct {
	ID         int64     `json:"id"`
	UserID     int64     `json:"user_id"`
	Street     string    `json:"street"`
	City       string    `json:"city"`
	PostalCode string    `json:"postal_code"`
	Country    string    `json:"country"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}
