package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/01moynul/tvshop-golang/internal/apperr"
	"github.com/01moynul/tvshop-golang/internal/models"
)

const orderColumns = `id, user_id, email, customer_name, address, phone_number, notes, total_amount, order_date, payment_id, status, updated_at`

func scanOrder(row interface{ Scan(...any) error }) (*models.Order, error) {
	var o models.Order
	err := row.Scan(
		&o.ID, &o.UserID, &o.Email, &o.CustomerName, &o.Address, &o.PhoneNumber, &o.Notes,
		&o.TotalAmount, &o.OrderDate, &o.PaymentID, &o.Status, &o.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &o, nil
}

// CreateOrder writes the order header and all of its lines in one
// transaction. When pending is non-nil the pending payment record is written
// in the same transaction. IDs are filled in on success.
func (s *Store) CreateOrder(ctx context.Context, o *models.Order, pending *models.PaymentRecord) error {
	now := s.now()
	return s.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `
			INSERT INTO orders (user_id, email, customer_name, address, phone_number, notes, total_amount, order_date, payment_id, status, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			o.UserID, o.Email, o.CustomerName, o.Address, o.PhoneNumber, o.Notes,
			o.TotalAmount, o.OrderDate, o.PaymentID, o.Status, now)
		if err != nil {
			return persistence("insert order", err)
		}
		orderID, err := res.LastInsertId()
		if err != nil {
			return persistence("order id", err)
		}

		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO order_lines (order_id, product_id, product_name, main_image_url, unit_price, quantity)
			VALUES (?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return persistence("prepare order line insert", err)
		}
		defer stmt.Close()

		lineIDs := make([]int64, len(o.Lines))
		for i, l := range o.Lines {
			res, err := stmt.ExecContext(ctx, orderID, l.ProductID, l.ProductName, l.MainImageURL, l.UnitPrice, l.Quantity)
			if err != nil {
				return persistence("insert order line", err)
			}
			if lineIDs[i], err = res.LastInsertId(); err != nil {
				return persistence("order line id", err)
			}
		}

		var paymentID int64
		if pending != nil {
			rec := *pending
			rec.OrderID = orderID
			if paymentID, err = insertPayment(ctx, tx, rec); err != nil {
				return err
			}
		}

		// Only touch the caller's values once every write has succeeded.
		o.ID = orderID
		o.UpdatedAt = now
		for i := range o.Lines {
			o.Lines[i].ID = lineIDs[i]
			o.Lines[i].OrderID = orderID
		}
		if pending != nil {
			pending.ID = paymentID
			pending.OrderID = orderID
		}
		return nil
	})
}

// Order loads an order and its lines.
func (s *Store) Order(ctx context.Context, id int64) (*models.Order, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = ?`, id)
	o, err := scanOrder(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound("order", id)
	}
	if err != nil {
		return nil, persistence("get order", err)
	}
	if err := s.attachLines(ctx, []*models.Order{o}); err != nil {
		return nil, err
	}
	return o, nil
}

// OrderForUser is Order with an ownership check. Someone else's order is
// reported as not found.
func (s *Store) OrderForUser(ctx context.Context, id int64, userID string) (*models.Order, error) {
	o, err := s.Order(ctx, id)
	if err != nil {
		return nil, err
	}
	if o.UserID != userID {
		return nil, notFound("order", id)
	}
	return o, nil
}

// ListOrders returns matching orders newest first, lines included.
func (s *Store) ListOrders(ctx context.Context, f models.OrderFilter) ([]models.Order, error) {
	var (
		where []string
		args  []any
	)
	if f.UserID != "" {
		where = append(where, "o.user_id = ?")
		args = append(args, f.UserID)
	}
	if f.Status != "" {
		where = append(where, "o.status = ?")
		args = append(args, f.Status)
	}
	if f.Days > 0 {
		where = append(where, "o.order_date >= ?")
		args = append(args, s.now().AddDate(0, 0, -f.Days))
	}
	if term := strings.TrimSpace(f.Search); term != "" {
		like := "%" + term + "%"
		where = append(where, `(CAST(o.id AS CHAR) = ? OR o.email LIKE ? OR o.customer_name LIKE ?
			OR EXISTS (SELECT 1 FROM order_lines ol WHERE ol.order_id = o.id AND ol.product_name LIKE ?))`)
		args = append(args, term, like, like, like)
	}

	query := `SELECT ` + prefixColumns("o.", orderColumns) + ` FROM orders o`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY o.order_date DESC, o.id DESC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, persistence("list orders", err)
	}
	defer rows.Close()

	var ptrs []*models.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, persistence("scan order", err)
		}
		ptrs = append(ptrs, o)
	}
	if err := rows.Err(); err != nil {
		return nil, persistence("iterate orders", err)
	}
	if err := s.attachLines(ctx, ptrs); err != nil {
		return nil, err
	}

	orders := make([]models.Order, 0, len(ptrs))
	for _, o := range ptrs {
		orders = append(orders, *o)
	}
	return orders, nil
}

// attachLines loads the lines of all given orders with a single query.
func (s *Store) attachLines(ctx context.Context, orders []*models.Order) error {
	if len(orders) == 0 {
		return nil
	}
	byID := make(map[int64]*models.Order, len(orders))
	placeholders := make([]string, 0, len(orders))
	args := make([]any, 0, len(orders))
	for _, o := range orders {
		o.Lines = []models.OrderLine{}
		byID[o.ID] = o
		placeholders = append(placeholders, "?")
		args = append(args, o.ID)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, order_id, product_id, product_name, main_image_url, unit_price, quantity
		FROM order_lines
		WHERE order_id IN (`+strings.Join(placeholders, ",")+`)
		ORDER BY order_id, id`, args...)
	if err != nil {
		return persistence("query order lines", err)
	}
	defer rows.Close()

	for rows.Next() {
		var l models.OrderLine
		if err := rows.Scan(&l.ID, &l.OrderID, &l.ProductID, &l.ProductName, &l.MainImageURL, &l.UnitPrice, &l.Quantity); err != nil {
			return persistence("scan order line", err)
		}
		if o, ok := byID[l.OrderID]; ok {
			o.Lines = append(o.Lines, l)
		}
	}
	if err := rows.Err(); err != nil {
		return persistence("iterate order lines", err)
	}
	return nil
}

// SettlePayment records the resolved payment and moves the order to next,
// stamping the payment's transaction id on it. The order must still be
// Pending; a settled order is never settled twice.
func (s *Store) SettlePayment(ctx context.Context, orderID int64, rec *models.PaymentRecord, next models.OrderStatus) error {
	now := s.now()
	return s.withTx(ctx, func(tx *sql.Tx) error {
		current, err := lockOrderStatus(ctx, tx, orderID)
		if err != nil {
			return err
		}
		if current != models.OrderStatusPending {
			return fmt.Errorf("order %d is %s, expected %s: %w",
				orderID, current, models.OrderStatusPending, apperr.ErrInvalidState)
		}

		r := *rec
		r.OrderID = orderID
		id, err := insertPayment(ctx, tx, r)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx,
			`UPDATE orders SET status = ?, payment_id = ?, updated_at = ? WHERE id = ?`,
			next, rec.TransactionID, now, orderID); err != nil {
			return persistence("update order after payment", err)
		}
		rec.ID = id
		rec.OrderID = orderID
		return nil
	})
}

// UpdateOrderStatus applies an admin status change, enforcing the
// allowed transitions under a row lock.
func (s *Store) UpdateOrderStatus(ctx context.Context, orderID int64, next models.OrderStatus) error {
	now := s.now()
	return s.withTx(ctx, func(tx *sql.Tx) error {
		current, err := lockOrderStatus(ctx, tx, orderID)
		if err != nil {
			return err
		}
		if !current.AdminCanTransitionTo(next) {
			return fmt.Errorf("order %d cannot move from %s to %s: %w", orderID, current, next, apperr.ErrInvalidState)
		}
		if _, err := tx.ExecContext(ctx,
			`UPDATE orders SET status = ?, updated_at = ? WHERE id = ?`, next, now, orderID); err != nil {
			return persistence("update order status", err)
		}
		return nil
	})
}

// CancelStalePendingOrders cancels Pending orders placed before cutoff and
// returns how many were cancelled. Their payment is never retried.
func (s *Store) CancelStalePendingOrders(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE orders SET status = ?, updated_at = ? WHERE status = ? AND order_date < ?`,
		models.OrderStatusCancelled, s.now(), models.OrderStatusPending, cutoff)
	if err != nil {
		return 0, persistence("cancel stale orders", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, persistence("cancel stale orders", err)
	}
	return n, nil
}

func lockOrderStatus(ctx context.Context, tx *sql.Tx, orderID int64) (models.OrderStatus, error) {
	var status models.OrderStatus
	err := tx.QueryRowContext(ctx, `SELECT status FROM orders WHERE id = ? FOR UPDATE`, orderID).Scan(&status)
	if errors.Is(err, sql.ErrNoRows) {
		return "", notFound("order", orderID)
	}
	if err != nil {
		return "", persistence("lock order", err)
	}
	return status, nil
}

func prefixColumns(prefix, cols string) string {
	parts := strings.Split(cols, ",")
	for i, p := range parts {
		parts[i] = prefix + strings.TrimSpace(p)
	}
	return strings.Join(parts, ", ")
}
