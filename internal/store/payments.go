package store

import (
	"context"

	"github.com/01moynul/tvshop-golang/internal/models"
)

func insertPayment(ctx context.Context, q Querier, p models.PaymentRecord) (int64, error) {
	res, err := q.ExecContext(ctx, `
		INSERT INTO payments (stage, user_id, order_id, amount, status, transaction_id, payment_date)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		p.Stage, p.UserID, p.OrderID, p.Amount, p.Status, p.TransactionID, p.PaymentDate)
	if err != nil {
		if isDuplicateKey(err) {
			return 0, ErrDuplicate
		}
		return 0, persistence("insert payment", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, persistence("payment id", err)
	}
	return id, nil
}

// PaymentsForOrder returns the payment history of an order, oldest first.
func (s *Store) PaymentsForOrder(ctx context.Context, orderID int64) ([]models.PaymentRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, stage, user_id, order_id, amount, status, transaction_id, payment_date
		FROM payments
		WHERE order_id = ?
		ORDER BY id`, orderID)
	if err != nil {
		return nil, persistence("query payments", err)
	}
	defer rows.Close()

	payments := []models.PaymentRecord{}
	for rows.Next() {
		var p models.PaymentRecord
		if err := rows.Scan(&p.ID, &p.Stage, &p.UserID, &p.OrderID, &p.Amount, &p.Status, &p.TransactionID, &p.PaymentDate); err != nil {
			return nil, persistence("scan payment", err)
		}
		payments = append(payments, p)
	}
	if err := rows.Err(); err != nil {
		return nil, persistence("iterate payments", err)
	}
	return payments, nil
}
