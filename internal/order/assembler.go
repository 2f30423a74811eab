// Package order turns a cart snapshot into an order.
package order

import (
	"fmt"
	"time"

	"github.com/01moynul/tvshop-golang/internal/apperr"
	"github.com/01moynul/tvshop-golang/internal/models"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

type Assembler struct {
	validate *validator.Validate
	now      func() time.Time
}

func NewAssembler() *Assembler {
	return &Assembler{
		validate: newValidator(),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// ValidateContact returns a *ValidationError naming every bad field, or nil.
func (a *Assembler) ValidateContact(c ContactInfo) error {
	return validateContact(a.validate, c)
}

// Assemble builds a Pending order from the cart lines. Lines are copied, so
// later changes to the cart or the catalog never reach the order. The total
// is the exact sum of unit price times quantity.
func (a *Assembler) Assemble(userID string, lines []models.CartLine, contact ContactInfo) (*models.Order, error) {
	if userID == "" {
		return nil, fmt.Errorf("assemble order: empty user id: %w", apperr.ErrInvalidArgument)
	}
	if len(lines) == 0 {
		return nil, fmt.Errorf("assemble order: no cart lines: %w", apperr.ErrInvalidArgument)
	}
	if err := a.ValidateContact(contact); err != nil {
		return nil, err
	}

	total := decimal.Zero
	orderLines := make([]models.OrderLine, 0, len(lines))
	for _, l := range lines {
		if l.Quantity < 1 {
			return nil, fmt.Errorf("assemble order: product %d has quantity %d: %w", l.ProductID, l.Quantity, apperr.ErrInvalidArgument)
		}
		ol := models.OrderLine{
			ProductID:    l.ProductID,
			ProductName:  l.ProductName,
			MainImageURL: l.MainImageURL,
			UnitPrice:    l.UnitPrice,
			Quantity:     l.Quantity,
		}
		total = total.Add(ol.Subtotal())
		orderLines = append(orderLines, ol)
	}

	var phone *string
	if contact.PhoneNumber != "" {
		p := contact.PhoneNumber
		phone = &p
	}

	return &models.Order{
		UserID:       userID,
		Email:        contact.Email,
		CustomerName: contact.FullName,
		Address:      contact.Address,
		PhoneNumber:  phone,
		Notes:        contact.Notes,
		TotalAmount:  total,
		OrderDate:    a.now(),
		PaymentID:    models.PendingPaymentID,
		Status:       models.OrderStatusPending,
		Lines:        orderLines,
	}, nil
}
