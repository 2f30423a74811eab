package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/01moynul/tvshop-golang/internal/models"
)

// CartLines returns the user's cart in insertion order. A single SELECT is a
// consistent snapshot under InnoDB.
func (s *Store) CartLines(ctx context.Context, userID string) ([]models.CartLine, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, product_id, product_name, main_image_url, unit_price, quantity, created_at, updated_at
		FROM cart_lines
		WHERE user_id = ?
		ORDER BY id`, userID)
	if err != nil {
		return nil, persistence("query cart lines", err)
	}
	defer rows.Close()

	lines := []models.CartLine{}
	for rows.Next() {
		var l models.CartLine
		if err := rows.Scan(
			&l.ID, &l.UserID, &l.ProductID, &l.ProductName, &l.MainImageURL,
			&l.UnitPrice, &l.Quantity, &l.CreatedAt, &l.UpdatedAt,
		); err != nil {
			return nil, persistence("scan cart line", err)
		}
		lines = append(lines, l)
	}
	if err := rows.Err(); err != nil {
		return nil, persistence("iterate cart lines", err)
	}
	return lines, nil
}

// AddCartLine inserts the snapshot line, or bumps the quantity of the
// existing (user, product) line by line.Quantity. The stored snapshot is
// never overwritten.
func (s *Store) AddCartLine(ctx context.Context, line models.CartLine) error {
	return addCartLine(ctx, s.db, line, s.now())
}

func addCartLine(ctx context.Context, q Querier, line models.CartLine, now time.Time) error {
	_, err := q.ExecContext(ctx, `
		INSERT INTO cart_lines (user_id, product_id, product_name, main_image_url, unit_price, quantity, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON DUPLICATE KEY UPDATE
			quantity = quantity + VALUES(quantity),
			updated_at = VALUES(updated_at)`,
		line.UserID, line.ProductID, line.ProductName, line.MainImageURL, line.UnitPrice, line.Quantity, now, now)
	if err != nil {
		return persistence("upsert cart line", err)
	}
	return nil
}

// SetCartLineQuantity overwrites the quantity. It reports whether the line existed.
func (s *Store) SetCartLineQuantity(ctx context.Context, userID string, productID int64, qty int) (bool, error) {
	res, err := s.db.ExecContext(ctx, `
		UPDATE cart_lines SET quantity = ?, updated_at = ?
		WHERE user_id = ? AND product_id = ?`,
		qty, s.now(), userID, productID)
	if err != nil {
		return false, persistence("update cart line", err)
	}
	// MySQL reports 0 affected rows when the value is unchanged, so check existence separately.
	n, err := res.RowsAffected()
	if err != nil {
		return false, persistence("update cart line", err)
	}
	if n > 0 {
		return true, nil
	}
	var exists int
	err = s.db.QueryRowContext(ctx,
		`SELECT 1 FROM cart_lines WHERE user_id = ? AND product_id = ?`, userID, productID).Scan(&exists)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, persistence("find cart line", err)
	}
	return true, nil
}

func (s *Store) DeleteCartLine(ctx context.Context, userID string, productID int64) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM cart_lines WHERE user_id = ? AND product_id = ?`, userID, productID)
	if err != nil {
		return persistence("delete cart line", err)
	}
	return nil
}

func (s *Store) ClearCart(ctx context.Context, userID string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM cart_lines WHERE user_id = ?`, userID); err != nil {
		return persistence("clear cart", err)
	}
	return nil
}

// ReplaceCart empties the cart and inserts line, atomically.
func (s *Store) ReplaceCart(ctx context.Context, line models.CartLine) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM cart_lines WHERE user_id = ?`, line.UserID); err != nil {
			return persistence("clear cart", err)
		}
		return addCartLine(ctx, tx, line, s.now())
	})
}

// CartCount is the sum of quantities, 0 for an empty cart.
func (s *Store) CartCount(ctx context.Context, userID string) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(quantity), 0) FROM cart_lines WHERE user_id = ?`, userID).Scan(&count)
	if err != nil {
		return 0, persistence("count cart", err)
	}
	return count, nil
}
