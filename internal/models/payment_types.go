package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type PaymentStatus string

const (
	PaymentStatusPending PaymentStatus = "Pending"
	PaymentStatusSuccess PaymentStatus = "Success"
	PaymentStatusFailed  PaymentStatus = "Failed"
)

// PaymentStage tags which variant a PaymentRecord is.
type PaymentStage string

const (
	// PaymentStagePending is issued when checkout starts; Status is always Pending.
	PaymentStagePending PaymentStage = "pending"
	// PaymentStageResolved carries the final Success or Failed status.
	PaymentStageResolved PaymentStage = "resolved"
)

// PaymentRecord is the model for the 'payments' table.
// Resolving a payment appends a Resolved record instead of mutating the Pending one,
// so all records for an order form its payment history.
type PaymentRecord struct {
	ID            int64           `json:"id" db:"id"`
	Stage         PaymentStage    `json:"stage" db:"stage"`
	UserID        string          `json:"userId" db:"user_id"`
	OrderID       int64           `json:"orderId" db:"order_id"`
	Amount        decimal.Decimal `json:"amount" db:"amount"`
	Status        PaymentStatus   `json:"status" db:"status"`
	TransactionID string          `json:"transactionId" db:"transaction_id"`
	PaymentDate   time.Time       `json:"paymentDate" db:"payment_date"`
}

func (p PaymentRecord) Succeeded() bool {
	return p.Stage == PaymentStageResolved && p.Status == PaymentStatusSuccess
}
