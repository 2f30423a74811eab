package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product is the model for the 'products' table.
type Product struct {
	ID            int64           `json:"id" db:"id"`
	Name          string          `json:"name" db:"name"`
	Slug          string          `json:"slug" db:"slug"`
	Brand         string          `json:"brand" db:"brand"`
	Category      string          `json:"category" db:"category"` // LED, OLED, QLED...
	Description   string          `json:"description" db:"description"`
	MainImageURL  string          `json:"mainImageUrl" db:"main_image_url"`
	Price         decimal.Decimal `json:"price" db:"price"`
	StockQuantity int             `json:"stock" db:"stock_quantity"`
	CreatedAt     time.Time       `json:"createdAt" db:"created_at"`
	UpdatedAt     time.Time       `json:"updatedAt" db:"updated_at"`
}

// SafeMainImageURL falls back to the placeholder when no image is set.
func (p Product) SafeMainImageURL() string {
	if p.MainImageURL == "" {
		return "/images/placeholder.jpg"
	}
	return p.MainImageURL
}

// ProductFilter narrows a catalog listing. Empty fields mean "no filter".
// Search matches the product name case-insensitively.
type ProductFilter struct {
	Search   string
	Brand    string
	Category string
	Limit    int
	Offset   int
}

// CatalogFacets are the distinct brands and categories, for filter menus.
type CatalogFacets struct {
	Brands     []string `json:"brands"`
	Categories []string `json:"categories"`
}
