package models

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	MinRating = 1
	MaxRating = 5
)

// Rating is the model for the 'ratings' table. A user has at most one
// rating per product; rating again replaces it.
type Rating struct {
	ID        int64     `json:"id" db:"id"`
	ProductID int64     `json:"productId" db:"product_id"`
	UserID    string    `json:"userId" db:"user_id"`
	Value     int       `json:"value" db:"value"`
	Comment   *string   `json:"comment,omitempty" db:"comment"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`
}

// RatingSummary is shown on the product page. Average is zero when Count is zero.
type RatingSummary struct {
	Average decimal.Decimal `json:"averageRating"`
	Count   int             `json:"ratingCount"`
}
