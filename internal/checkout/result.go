package checkout

import (
	"github.com/01moynul/tvshop-golang/internal/models"
	"github.com/01moynul/tvshop-golang/internal/order"
)

// State is a step of one checkout attempt.
type State int

const (
	StateStarted State = iota
	StateOrderCreated
	StatePaymentPending
	StatePaymentResolved
	StateFinalized
)

func (s State) String() string {
	switch s {
	case StateStarted:
		return "started"
	case StateOrderCreated:
		return "order_created"
	case StatePaymentPending:
		return "payment_pending"
	case StatePaymentResolved:
		return "payment_resolved"
	case StateFinalized:
		return "finalized"
	}
	return "unknown"
}

// Outcome is the business result of a checkout attempt. Outcomes are not
// errors: a declined payment or an empty cart is a normal answer.
type Outcome string

const (
	OutcomeOrderPlaced     Outcome = "order_placed"
	OutcomePaymentFailed   Outcome = "payment_failed"
	OutcomeEmptyCart       Outcome = "empty_cart"
	OutcomeValidationError Outcome = "validation_error"
	// OutcomeAwaitingPayment is returned by PlaceOrder: the order exists and
	// waits for CompletePayment.
	OutcomeAwaitingPayment Outcome = "awaiting_payment"
)

// Result describes how a checkout attempt ended.
type Result struct {
	Outcome Outcome
	// State is the last state the attempt reached.
	State   State
	OrderID int64
	Order   *models.Order
	Payment *models.PaymentRecord
	Invoice *models.Invoice
	Fields  []order.FieldError
}
