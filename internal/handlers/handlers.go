package handlers

import (
	"context"

	"github.com/01moynul/tvshop-golang/internal/checkout"
	"github.com/01moynul/tvshop-golang/internal/config"
	"github.com/01moynul/tvshop-golang/internal/events"
	"github.com/01moynul/tvshop-golang/internal/models"
	"github.com/01moynul/tvshop-golang/internal/order"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

type CartService interface {
	Lines(ctx context.Context, userID string) ([]models.CartLine, error)
	Add(ctx context.Context, userID string, productID int64) error
	SetQuantity(ctx context.Context, userID string, productID int64, qty int) error
	Remove(ctx context.Context, userID string, productID int64) error
	Clear(ctx context.Context, userID string) error
	Count(ctx context.Context, userID string) (int, error)
	Replace(ctx context.Context, userID string, productID int64) error
}

type CheckoutService interface {
	Checkout(ctx context.Context, userID string, contact order.ContactInfo) (*checkout.Result, error)
	PlaceOrder(ctx context.Context, userID string, contact order.ContactInfo) (*checkout.Result, error)
	CompletePayment(ctx context.Context, userID string, orderID int64) (*checkout.Result, error)
}

type OrderStore interface {
	Order(ctx context.Context, id int64) (*models.Order, error)
	OrderForUser(ctx context.Context, id int64, userID string) (*models.Order, error)
	ListOrders(ctx context.Context, f models.OrderFilter) ([]models.Order, error)
	UpdateOrderStatus(ctx context.Context, orderID int64, next models.OrderStatus) error
	PaymentsForOrder(ctx context.Context, orderID int64) ([]models.PaymentRecord, error)
}

type CatalogStore interface {
	Product(ctx context.Context, id int64) (*models.Product, error)
	ListProducts(ctx context.Context, f models.ProductFilter) ([]models.Product, error)
	CatalogFacets(ctx context.Context) (models.CatalogFacets, error)
	CreateProduct(ctx context.Context, p *models.Product) error
	UpdateProductPrice(ctx context.Context, id int64, price decimal.Decimal) error
}

type RatingStore interface {
	UpsertRating(ctx context.Context, r *models.Rating) error
	Rating(ctx context.Context, id int64) (*models.Rating, error)
	DeleteRating(ctx context.Context, id int64) error
	ProductRatings(ctx context.Context, productID int64) ([]models.Rating, error)
	RatingSummary(ctx context.Context, productID int64) (models.RatingSummary, error)
}

type InvoiceService interface {
	EnsureInvoice(ctx context.Context, o *models.Order) (*models.Invoice, error)
}

// Handlers struct holds all dependencies for our handlers.
type Handlers struct {
	Cart         CartService
	Orchestrator CheckoutService
	Orders       OrderStore
	Catalog      CatalogStore
	Ratings      RatingStore
	Invoices     InvoiceService
	Events       events.Publisher
	Settings     config.StoreSettings
	Logger       zerolog.Logger
}
