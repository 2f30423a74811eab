package email

import (
	"context"
	"fmt"
	"strings"

	"github.com/01moynul/tvshop-golang/internal/config"
	"github.com/01moynul/tvshop-golang/internal/models"
)

// OrderNotifier emails customers about their orders when the store has
// order notifications switched on.
type OrderNotifier struct {
	mailer   Mailer
	settings config.StoreSettings
}

func NewOrderNotifier(mailer Mailer, settings config.StoreSettings) *OrderNotifier {
	return &OrderNotifier{mailer: mailer, settings: settings}
}

func (n *OrderNotifier) OrderConfirmed(ctx context.Context, o *models.Order, invoiceNumber string) error {
	if !n.settings.OrderEmailNotifications {
		return nil
	}
	subject := fmt.Sprintf("%s: order #%d confirmed", n.settings.Name, o.ID)

	var b strings.Builder
	fmt.Fprintf(&b, "Hi %s,\n\nThanks for shopping at %s. Your payment went through and your order is being processed.\n\n", o.CustomerName, n.settings.Name)
	fmt.Fprintf(&b, "Order #%d\n", o.ID)
	if invoiceNumber != "" {
		fmt.Fprintf(&b, "Invoice %s\n", invoiceNumber)
	}
	b.WriteString("\n")
	for _, l := range o.Lines {
		fmt.Fprintf(&b, "  %d x %s @ %s = %s\n", l.Quantity, l.ProductName, n.money(l.UnitPrice.StringFixed(2)), n.money(l.Subtotal().StringFixed(2)))
	}
	fmt.Fprintf(&b, "\nTotal: %s\n", n.money(o.TotalAmount.StringFixed(2)))
	fmt.Fprintf(&b, "Shipping to: %s\n", o.Address)

	return n.mailer.Send(ctx, o.Email, subject, b.String())
}

func (n *OrderNotifier) PaymentFailed(ctx context.Context, o *models.Order) error {
	if !n.settings.OrderEmailNotifications {
		return nil
	}
	subject := fmt.Sprintf("%s: payment for order #%d failed", n.settings.Name, o.ID)
	body := fmt.Sprintf(
		"Hi %s,\n\nWe could not take payment of %s for order #%d, so the order was cancelled.\nYour cart has been kept; you can check out again at any time.\n",
		o.CustomerName, n.money(o.TotalAmount.StringFixed(2)), o.ID,
	)
	return n.mailer.Send(ctx, o.Email, subject, body)
}

func (n *OrderNotifier) money(amount string) string {
	return n.settings.Currency + " " + amount
}
