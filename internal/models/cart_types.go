package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// CartLine defines the struct for the 'cart_lines' table.
// Name, image and price are frozen when the product is first added.
type CartLine struct {
	ID           int64           `json:"id" db:"id"`
	UserID       string          `json:"userId" db:"user_id"`
	ProductID    int64           `json:"productId" db:"product_id"`
	ProductName  string          `json:"productName" db:"product_name"`
	MainImageURL string          `json:"mainImageUrl" db:"main_image_url"`
	UnitPrice    decimal.Decimal `json:"unitPrice" db:"unit_price"`
	Quantity     int             `json:"quantity" db:"quantity"`
	CreatedAt    time.Time       `json:"createdAt" db:"created_at"`
	UpdatedAt    time.Time       `json:"updatedAt" db:"updated_at"`
}

// Subtotal is UnitPrice * Quantity.
func (l CartLine) Subtotal() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}
