// Package checkout runs the order placement and payment settlement
// workflow: cart snapshot, order, payment, invoice, cart clear.
package checkout

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/01moynul/tvshop-golang/internal/apperr"
	"github.com/01moynul/tvshop-golang/internal/cart"
	"github.com/01moynul/tvshop-golang/internal/events"
	"github.com/01moynul/tvshop-golang/internal/models"
	"github.com/01moynul/tvshop-golang/internal/order"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

const sideEffectTimeout = 5 * time.Second

// Cart is the part of cart.Service the orchestrator needs.
type Cart interface {
	WithSnapshot(ctx context.Context, userID string, fn cart.SnapshotFunc) error
}

// Orders stores orders and records their payments. *store.Store implements it.
type Orders interface {
	CreateOrder(ctx context.Context, o *models.Order, pending *models.PaymentRecord) error
	SettlePayment(ctx context.Context, orderID int64, rec *models.PaymentRecord, next models.OrderStatus) error
	OrderForUser(ctx context.Context, id int64, userID string) (*models.Order, error)
}

// Payments issues and resolves charges. *payment.Simulator implements it.
type Payments interface {
	Initialize(userID string, amount decimal.Decimal) models.PaymentRecord
	Resolve(ctx context.Context, userID string, orderID int64, amount decimal.Decimal) (models.PaymentRecord, error)
}

// Invoices issues the invoice for a paid order.
type Invoices interface {
	EnsureInvoice(ctx context.Context, o *models.Order) (*models.Invoice, error)
}

// Notifier tells the customer how the checkout ended.
type Notifier interface {
	OrderConfirmed(ctx context.Context, o *models.Order, invoiceNumber string) error
	PaymentFailed(ctx context.Context, o *models.Order) error
}

// Deps are the collaborators handed to New. Events and Notifier are optional.
type Deps struct {
	Cart      Cart
	Orders    Orders
	Payments  Payments
	Invoices  Invoices
	Assembler *order.Assembler
	Events    events.Publisher
	Notifier  Notifier
	Logger    zerolog.Logger
	// PaymentTimeout bounds a single Resolve call on top of the caller's deadline.
	PaymentTimeout time.Duration
}

// Orchestrator runs checkouts. It is safe for concurrent use.
type Orchestrator struct {
	cart           Cart
	orders         Orders
	payments       Payments
	invoices       Invoices
	assembler      *order.Assembler
	events         events.Publisher
	notifier       Notifier
	logger         zerolog.Logger
	paymentTimeout time.Duration
}

// New builds an Orchestrator; a nil Events publisher drops events.
func New(d Deps) *Orchestrator {
	pub := d.Events
	if pub == nil {
		pub = events.NopPublisher{}
	}
	return &Orchestrator{
		cart:           d.Cart,
		orders:         d.Orders,
		payments:       d.Payments,
		invoices:       d.Invoices,
		assembler:      d.Assembler,
		events:         pub,
		notifier:       d.Notifier,
		logger:         d.Logger.With().Str("component", "checkout").Logger(),
		paymentTimeout: d.PaymentTimeout,
	}
}

// Checkout places and pays for an order from the user's whole cart in one call.
//
// The user's cart stays locked from the read until the cart is cleared, so a
// second submission waits and then sees an empty cart (after success) or the
// same cart (after a decline). A declined payment leaves a Cancelled order and
// the cart untouched. If payment does not resolve in time ErrTimeout is
// returned and the order stays Pending.
func (o *Orchestrator) Checkout(ctx context.Context, userID string, contact order.ContactInfo) (*Result, error) {
	if res, err := o.validate(contact); res != nil || err != nil {
		return res, err
	}

	log := o.logger.With().Str("user_id", userID).Str("flow", "checkout").Logger()
	var res *Result
	err := o.cart.WithSnapshot(ctx, userID, func(ctx context.Context, lines []models.CartLine) (bool, error) {
		ord, empty, err := o.createOrder(ctx, log, userID, lines, contact, nil)
		if err != nil {
			return false, err
		}
		if empty {
			res = &Result{Outcome: OutcomeEmptyCart, State: StateStarted}
			return false, nil
		}
		res, err = o.pay(ctx, log, ord)
		if err != nil {
			return false, err
		}
		return res.Outcome == OutcomeOrderPlaced, nil
	})
	if err := o.keepSettled(log, res, err); err != nil {
		return nil, err
	}
	o.afterSettle(ctx, log, res)
	return res, nil
}

// PlaceOrder is the first half of the two-step flow: it stores a Pending
// order together with its pending payment record and leaves the cart as is.
func (o *Orchestrator) PlaceOrder(ctx context.Context, userID string, contact order.ContactInfo) (*Result, error) {
	if res, err := o.validate(contact); res != nil || err != nil {
		return res, err
	}

	log := o.logger.With().Str("user_id", userID).Str("flow", "place_order").Logger()
	var res *Result
	err := o.cart.WithSnapshot(ctx, userID, func(ctx context.Context, lines []models.CartLine) (bool, error) {
		var pending models.PaymentRecord
		ord, empty, err := o.createOrder(ctx, log, userID, lines, contact, func(ord *models.Order) *models.PaymentRecord {
			pending = o.payments.Initialize(userID, ord.TotalAmount)
			ord.PaymentID = pending.TransactionID
			return &pending
		})
		if err != nil {
			return false, err
		}
		if empty {
			res = &Result{Outcome: OutcomeEmptyCart, State: StateStarted}
			return false, nil
		}
		o.transition(log, StatePaymentPending, ord.ID)
		res = &Result{
			Outcome: OutcomeAwaitingPayment,
			State:   StatePaymentPending,
			OrderID: ord.ID,
			Order:   ord,
			Payment: &pending,
		}
		return false, nil
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

// CompletePayment resolves the payment of a Pending order the user owns and
// settles it exactly like Checkout. The cart is cleared on success.
func (o *Orchestrator) CompletePayment(ctx context.Context, userID string, orderID int64) (*Result, error) {
	log := o.logger.With().Str("user_id", userID).Int64("order_id", orderID).Str("flow", "complete_payment").Logger()

	var res *Result
	err := o.cart.WithSnapshot(ctx, userID, func(ctx context.Context, _ []models.CartLine) (bool, error) {
		ord, err := o.orders.OrderForUser(ctx, orderID, userID)
		if err != nil {
			return false, err
		}
		if ord.Status != models.OrderStatusPending {
			return false, fmt.Errorf("order %d is %s: %w", orderID, ord.Status, apperr.ErrInvalidState)
		}
		res, err = o.pay(ctx, log, ord)
		if err != nil {
			return false, err
		}
		return res.Outcome == OutcomeOrderPlaced, nil
	})
	if err := o.keepSettled(log, res, err); err != nil {
		return nil, err
	}
	o.afterSettle(ctx, log, res)
	return res, nil
}

// keepSettled turns a failed cart clear after a placed order into a logged
// error. The order is paid, so reporting failure would invite a second charge.
func (o *Orchestrator) keepSettled(log zerolog.Logger, res *Result, err error) error {
	if err == nil {
		return nil
	}
	if res != nil && res.Outcome == OutcomeOrderPlaced && errors.Is(err, cart.ErrNotCleared) {
		log.Error().Err(err).Int64("order_id", res.OrderID).Msg("order placed but cart was not cleared")
		return nil
	}
	return err
}

func (o *Orchestrator) validate(contact order.ContactInfo) (*Result, error) {
	err := o.assembler.ValidateContact(contact)
	if err == nil {
		return nil, nil
	}
	var verr *order.ValidationError
	if errors.As(err, &verr) {
		return &Result{Outcome: OutcomeValidationError, State: StateStarted, Fields: verr.Fields}, nil
	}
	return nil, err
}

// createOrder assembles and stores the order from the snapshot. pending, if
// given, supplies a payment record written in the same transaction.
func (o *Orchestrator) createOrder(
	ctx context.Context,
	log zerolog.Logger,
	userID string,
	lines []models.CartLine,
	contact order.ContactInfo,
	pending func(*models.Order) *models.PaymentRecord,
) (*models.Order, bool, error) {
	o.transition(log, StateStarted, 0)
	if len(lines) == 0 {
		log.Info().Msg("checkout with empty cart")
		return nil, true, nil
	}

	ord, err := o.assembler.Assemble(userID, lines, contact)
	if err != nil {
		return nil, false, err
	}
	var rec *models.PaymentRecord
	if pending != nil {
		rec = pending(ord)
	}
	if err := o.orders.CreateOrder(ctx, ord, rec); err != nil {
		log.Error().Err(err).Msg("could not create order")
		return nil, false, err
	}
	o.transition(log, StateOrderCreated, ord.ID)
	return ord, false, nil
}

// pay resolves the payment and records the result against the order.
func (o *Orchestrator) pay(ctx context.Context, log zerolog.Logger, ord *models.Order) (*Result, error) {
	o.transition(log, StatePaymentPending, ord.ID)

	payCtx := ctx
	if o.paymentTimeout > 0 {
		var cancel context.CancelFunc
		payCtx, cancel = context.WithTimeout(ctx, o.paymentTimeout)
		defer cancel()
	}
	rec, err := o.payments.Resolve(payCtx, ord.UserID, ord.ID, ord.TotalAmount)
	if err != nil {
		log.Warn().Err(err).Int64("order_id", ord.ID).Msg("payment did not resolve, order left pending")
		return nil, err
	}

	next := models.OrderStatusCancelled
	if rec.Succeeded() {
		next = models.OrderStatusProcessing
	}
	// The charge has happened; record it even if the caller has gone away.
	settleCtx := context.WithoutCancel(ctx)
	if err := o.orders.SettlePayment(settleCtx, ord.ID, &rec, next); err != nil {
		log.Error().Err(err).
			Int64("order_id", ord.ID).
			Str("transaction_id", rec.TransactionID).
			Msg("could not record resolved payment")
		return nil, err
	}
	ord.Status = next
	ord.PaymentID = rec.TransactionID
	o.transition(log, StatePaymentResolved, ord.ID)

	res := &Result{
		State:   StatePaymentResolved,
		OrderID: ord.ID,
		Order:   ord,
		Payment: &rec,
	}
	if !rec.Succeeded() {
		res.Outcome = OutcomePaymentFailed
		return res, nil
	}

	res.Outcome = OutcomeOrderPlaced
	inv, err := o.invoices.EnsureInvoice(settleCtx, ord)
	if err != nil {
		// The order is paid. The invoice is created on first view instead.
		log.Error().Err(err).Int64("order_id", ord.ID).Msg("could not create invoice")
	} else {
		res.Invoice = inv
	}
	res.State = StateFinalized
	o.transition(log, StateFinalized, ord.ID)
	return res, nil
}

// afterSettle publishes the order event and emails the customer. Both are
// best effort: failures are logged and never change the result.
func (o *Orchestrator) afterSettle(ctx context.Context, log zerolog.Logger, res *Result) {
	var evType events.Type
	switch res.Outcome {
	case OutcomeOrderPlaced:
		evType = events.OrderPlaced
	case OutcomePaymentFailed:
		evType = events.OrderPaymentFailed
	default:
		return
	}

	sideCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), sideEffectTimeout)
	defer cancel()

	if err := o.events.Publish(sideCtx, events.NewOrderEvent(evType, res.Order)); err != nil {
		log.Warn().Err(err).Int64("order_id", res.OrderID).Msg("could not publish order event")
	}
	if o.notifier == nil {
		return
	}

	var err error
	if res.Outcome == OutcomeOrderPlaced {
		number := ""
		if res.Invoice != nil {
			number = res.Invoice.InvoiceNumber
		}
		err = o.notifier.OrderConfirmed(sideCtx, res.Order, number)
	} else {
		err = o.notifier.PaymentFailed(sideCtx, res.Order)
	}
	if err != nil {
		log.Warn().Err(err).Int64("order_id", res.OrderID).Msg("could not send order email")
	}
}

func (o *Orchestrator) transition(log zerolog.Logger, s State, orderID int64) {
	ev := log.Debug().Str("state", s.String())
	if orderID != 0 {
		ev = ev.Int64("order_id", orderID)
	}
	ev.Msg("checkout state")
}
