package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderStatus is the lifecycle state of an order.
type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "Pending"
	OrderStatusProcessing OrderStatus = "Processing"
	OrderStatusShipped    OrderStatus = "Shipped"
	OrderStatusDelivered  OrderStatus = "Delivered"
	OrderStatusCancelled  OrderStatus = "Cancelled"
)

// PendingPaymentID is stored in Order.PaymentID until the payment resolves.
const PendingPaymentID = "PENDING"

var orderTransitions = map[OrderStatus][]OrderStatus{
	OrderStatusPending:    {OrderStatusProcessing, OrderStatusCancelled},
	OrderStatusProcessing: {OrderStatusShipped, OrderStatusCancelled},
	OrderStatusShipped:    {OrderStatusDelivered},
}

// Pending -> Processing is only reachable by settling a successful payment.
var adminTransitions = map[OrderStatus][]OrderStatus{
	OrderStatusPending:    {OrderStatusCancelled},
	OrderStatusProcessing: {OrderStatusShipped, OrderStatusCancelled},
	OrderStatusShipped:    {OrderStatusDelivered},
}

// Valid reports whether s is one of the known statuses.
func (s OrderStatus) Valid() bool {
	switch s {
	case OrderStatusPending, OrderStatusProcessing, OrderStatusShipped, OrderStatusDelivered, OrderStatusCancelled:
		return true
	}
	return false
}

func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	return allows(orderTransitions[s], next)
}

// AdminCanTransitionTo reports whether an administrator may move an order
// from s to next. It never marks an order as paid.
func (s OrderStatus) AdminCanTransitionTo(next OrderStatus) bool {
	return allows(adminTransitions[s], next)
}

func allows(targets []OrderStatus, next OrderStatus) bool {
	for _, allowed := range targets {
		if allowed == next {
			return true
		}
	}
	return false
}

// Invoiceable reports whether an invoice may be issued for an order in this status.
func (s OrderStatus) Invoiceable() bool {
	return s == OrderStatusProcessing || s == OrderStatusShipped || s == OrderStatusDelivered
}

func (s OrderStatus) String() string {
	return string(s)
}

// Order is the model for the 'orders' table.
// Only Status and PaymentID change after the order is created.
type Order struct {
	ID           int64           `json:"id" db:"id"`
	UserID       string          `json:"userId" db:"user_id"`
	Email        string          `json:"email" db:"email"`
	CustomerName string          `json:"customerName" db:"customer_name"`
	Address      string          `json:"address" db:"address"`
	PhoneNumber  *string         `json:"phoneNumber,omitempty" db:"phone_number"`
	Notes        *string         `json:"notes,omitempty" db:"notes"`
	TotalAmount  decimal.Decimal `json:"totalAmount" db:"total_amount"`
	OrderDate    time.Time       `json:"orderDate" db:"order_date"`
	PaymentID    string          `json:"paymentId" db:"payment_id"`
	Status       OrderStatus     `json:"status" db:"status"`
	UpdatedAt    time.Time       `json:"updatedAt" db:"updated_at"`

	// Owned by the order, loaded separately.
	Lines []OrderLine `json:"lines,omitempty" db:"-"`
}

// OrderLine is the model for the 'order_lines' table.
// It is a copy of the cart line at order time and never changes.
type OrderLine struct {
	ID           int64           `json:"id" db:"id"`
	OrderID      int64           `json:"orderId" db:"order_id"`
	ProductID    int64           `json:"productId" db:"product_id"`
	ProductName  string          `json:"productName" db:"product_name"`
	MainImageURL string          `json:"mainImageUrl" db:"main_image_url"`
	UnitPrice    decimal.Decimal `json:"unitPrice" db:"unit_price"` // Price at the time of purchase
	Quantity     int             `json:"quantity" db:"quantity"`
}

func (l OrderLine) Subtotal() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// OrderFilter narrows an order listing. Zero values mean "no filter".
type OrderFilter struct {
	UserID string
	Status OrderStatus
	Days   int
	Search string
}
