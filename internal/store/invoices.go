package store

import (
	"context"
	"database/sql"
	"errors"

	"github.com/01moynul/tvshop-golang/internal/models"
)

// InvoiceByOrder returns the invoice issued for an order, if any.
func (s *Store) InvoiceByOrder(ctx context.Context, orderID int64) (*models.Invoice, error) {
	var inv models.Invoice
	err := s.db.QueryRowContext(ctx, `
		SELECT id, order_id, user_id, invoice_date, invoice_number, total_amount
		FROM invoices WHERE order_id = ?`, orderID).
		Scan(&inv.ID, &inv.OrderID, &inv.UserID, &inv.InvoiceDate, &inv.InvoiceNumber, &inv.TotalAmount)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound("invoice for order", orderID)
	}
	if err != nil {
		return nil, persistence("get invoice", err)
	}
	return &inv, nil
}

// CreateInvoice inserts inv. ErrDuplicate means another writer got there first.
func (s *Store) CreateInvoice(ctx context.Context, inv *models.Invoice) error {
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO invoices (order_id, user_id, invoice_date, invoice_number, total_amount)
		VALUES (?, ?, ?, ?, ?)`,
		inv.OrderID, inv.UserID, inv.InvoiceDate, inv.InvoiceNumber, inv.TotalAmount)
	if err != nil {
		if isDuplicateKey(err) {
			return ErrDuplicate
		}
		return persistence("insert invoice", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return persistence("invoice id", err)
	}
	inv.ID = id
	return nil
}
