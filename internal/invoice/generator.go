// Package invoice issues at most one invoice per paid order.
package invoice

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/01moynul/tvshop-golang/internal/apperr"
	"github.com/01moynul/tvshop-golang/internal/models"
	"github.com/01moynul/tvshop-golang/internal/store"
	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"
)

type Repository interface {
	InvoiceByOrder(ctx context.Context, orderID int64) (*models.Invoice, error)
	// CreateInvoice returns store.ErrDuplicate when the order already has one.
	CreateInvoice(ctx context.Context, inv *models.Invoice) error
}

type Generator struct {
	repo   Repository
	logger zerolog.Logger
	sfg    singleflight.Group // collapses concurrent requests for the same order
	now    func() time.Time
}

func NewGenerator(repo Repository, logger zerolog.Logger) *Generator {
	return &Generator{
		repo:   repo,
		logger: logger.With().Str("component", "invoice").Logger(),
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// Number formats the human-readable invoice number, e.g. INV-20240131-42.
func Number(orderID int64, invoiceDate time.Time) string {
	return fmt.Sprintf("INV-%s-%d", invoiceDate.UTC().Format("20060102"), orderID)
}

// EnsureInvoice returns the order's invoice, creating it on first call.
// Only paid orders (Processing, Shipped, Delivered) can be invoiced.
func (g *Generator) EnsureInvoice(ctx context.Context, order *models.Order) (*models.Invoice, error) {
	if !order.Status.Invoiceable() {
		return nil, fmt.Errorf("invoice for order %d in status %s: %w", order.ID, order.Status, apperr.ErrInvalidState)
	}

	v, err, _ := g.sfg.Do(strconv.FormatInt(order.ID, 10), func() (interface{}, error) {
		// Shared by every waiter, so one caller going away must not fail the rest.
		return g.ensure(context.WithoutCancel(ctx), order)
	})
	if err != nil {
		return nil, err
	}
	inv := *v.(*models.Invoice)
	return &inv, nil
}

func (g *Generator) ensure(ctx context.Context, order *models.Order) (*models.Invoice, error) {
	inv, err := g.repo.InvoiceByOrder(ctx, order.ID)
	if err == nil {
		return inv, nil
	}
	if !errors.Is(err, apperr.ErrNotFound) {
		return nil, err
	}

	now := g.now()
	inv = &models.Invoice{
		OrderID:       order.ID,
		UserID:        order.UserID,
		InvoiceDate:   now,
		InvoiceNumber: Number(order.ID, now),
		TotalAmount:   order.TotalAmount,
	}
	err = g.repo.CreateInvoice(ctx, inv)
	if errors.Is(err, store.ErrDuplicate) {
		// Another instance won the race on UNIQUE(order_id).
		return g.repo.InvoiceByOrder(ctx, order.ID)
	}
	if err != nil {
		return nil, err
	}

	g.logger.Info().
		Int64("order_id", order.ID).
		Str("invoice_number", inv.InvoiceNumber).
		Msg("invoice created")
	return inv, nil
}
