package order

import (
	"errors"
	"testing"

	"github.com/01moynul/tvshop-golang/internal/apperr"
	"github.com/01moynul/tvshop-golang/internal/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validContact() ContactInfo {
	return ContactInfo{
		FullName:    "Jane Doe",
		Email:       "jane@example.com",
		Address:     "1 Main St, Springfield",
		PhoneNumber: "+1 555-123-4567",
	}
}

func line(productID int64, price string, qty int) models.CartLine {
	return models.CartLine{
		UserID:      "u1",
		ProductID:   productID,
		ProductName: "TV",
		UnitPrice:   decimal.RequireFromString(price),
		Quantity:    qty,
	}
}

func TestAssemble_TotalsAndLines(t *testing.T) {
	a := NewAssembler()
	o, err := a.Assemble("u1", []models.CartLine{line(1, "10.00", 2), line(2, "5.00", 1)}, validContact())
	require.NoError(t, err)

	assert.True(t, o.TotalAmount.Equal(decimal.RequireFromString("25.00")), "total %s", o.TotalAmount)
	assert.Equal(t, models.PendingPaymentID, o.PaymentID)
	assert.Equal(t, models.OrderStatusPending, o.Status)
	assert.Equal(t, "Jane Doe", o.CustomerName)
	require.NotNil(t, o.PhoneNumber)
	require.Len(t, o.Lines, 2)
	assert.Equal(t, int64(1), o.Lines[0].ProductID)
	assert.Equal(t, 2, o.Lines[0].Quantity)
	assert.False(t, o.OrderDate.IsZero())
}

func TestAssemble_ExactDecimalSum(t *testing.T) {
	a := NewAssembler()
	lines := make([]models.CartLine, 0, 10)
	for i := 0; i < 10; i++ {
		lines = append(lines, line(int64(i+1), "0.10", 3))
	}
	o, err := a.Assemble("u1", lines, validContact())
	require.NoError(t, err)
	assert.Equal(t, "3", o.TotalAmount.String())
}

func TestAssemble_EmptyCart(t *testing.T) {
	a := NewAssembler()
	_, err := a.Assemble("u1", nil, validContact())
	assert.ErrorIs(t, err, apperr.ErrInvalidArgument)
}

func TestAssemble_EmptyUser(t *testing.T) {
	a := NewAssembler()
	_, err := a.Assemble("", []models.CartLine{line(1, "1.00", 1)}, validContact())
	assert.ErrorIs(t, err, apperr.ErrInvalidArgument)
}

func TestAssemble_CopiesLines(t *testing.T) {
	a := NewAssembler()
	lines := []models.CartLine{line(1, "100.00", 1)}
	o, err := a.Assemble("u1", lines, validContact())
	require.NoError(t, err)

	lines[0].UnitPrice = decimal.RequireFromString("50.00")
	lines[0].Quantity = 9

	assert.True(t, o.Lines[0].UnitPrice.Equal(decimal.RequireFromString("100.00")))
	assert.Equal(t, 1, o.Lines[0].Quantity)
	assert.True(t, o.TotalAmount.Equal(decimal.RequireFromString("100.00")))
}

func TestAssemble_InvalidContact(t *testing.T) {
	a := NewAssembler()
	c := validContact()
	c.Email = "not-an-email"
	c.PhoneNumber = "call me"
	c.FullName = ""

	_, err := a.Assemble("u1", []models.CartLine{line(1, "1.00", 1)}, c)
	var verr *ValidationError
	require.True(t, errors.As(err, &verr), "got %v", err)

	fields := map[string]string{}
	for _, f := range verr.Fields {
		fields[f.Field] = f.Message
	}
	assert.Equal(t, "is required", fields["fullName"])
	assert.Equal(t, "must be a valid email address", fields["email"])
	assert.Equal(t, "must be a valid phone number", fields["phoneNumber"])
	assert.NotContains(t, fields, "address")
}

func TestValidateContact_Phone(t *testing.T) {
	a := NewAssembler()
	for phone, ok := range map[string]bool{
		"+44 20 7946 0958": true,
		"(555) 123-4567":   false,
		"5551234567":       true,
		"12":               false,
		"555-CALL-NOW":     false,
	} {
		c := validContact()
		c.PhoneNumber = phone
		err := a.ValidateContact(c)
		if ok {
			assert.NoError(t, err, phone)
		} else {
			assert.Error(t, err, phone)
		}
	}
}
