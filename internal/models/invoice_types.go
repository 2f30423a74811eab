package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Invoice is the model for the 'invoices' table. At most one exists per order.
type Invoice struct {
	ID            int64           `json:"id" db:"id"`
	OrderID       int64           `json:"orderId" db:"order_id"`
	UserID        string          `json:"userId" db:"user_id"`
	InvoiceDate   time.Time       `json:"invoiceDate" db:"invoice_date"`
	InvoiceNumber string          `json:"invoiceNumber" db:"invoice_number"`
	TotalAmount   decimal.Decimal `json:"totalAmount" db:"total_amount"`
}
