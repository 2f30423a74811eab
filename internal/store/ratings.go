package store

import (
	"context"
	"database/sql"
	"errors"

	"github.com/01moynul/tvshop-golang/internal/models"
)

const ratingColumns = `id, product_id, user_id, value, comment, created_at, updated_at`

func scanRating(row interface{ Scan(...any) error }) (*models.Rating, error) {
	var (
		r       models.Rating
		comment sql.NullString
	)
	if err := row.Scan(&r.ID, &r.ProductID, &r.UserID, &r.Value, &comment, &r.CreatedAt, &r.UpdatedAt); err != nil {
		return nil, err
	}
	if comment.Valid {
		r.Comment = &comment.String
	}
	return &r, nil
}

// UpsertRating stores the user's rating of a product, replacing the value
// and comment of an earlier one. r is filled from the stored row.
func (s *Store) UpsertRating(ctx context.Context, r *models.Rating) error {
	now := s.now()
	// LAST_INSERT_ID(id) makes LastInsertId report the existing row on update.
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO ratings (product_id, user_id, value, comment, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON DUPLICATE KEY UPDATE
			id = LAST_INSERT_ID(id),
			value = VALUES(value),
			comment = VALUES(comment),
			updated_at = VALUES(updated_at)`,
		r.ProductID, r.UserID, r.Value, r.Comment, now, now)
	if err != nil {
		if isMissingReference(err) {
			return notFound("product", r.ProductID)
		}
		return persistence("upsert rating", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return persistence("rating id", err)
	}
	stored, err := s.Rating(ctx, id)
	if err != nil {
		return err
	}
	*r = *stored
	return nil
}

func (s *Store) Rating(ctx context.Context, id int64) (*models.Rating, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+ratingColumns+` FROM ratings WHERE id = ?`, id)
	r, err := scanRating(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound("rating", id)
	}
	if err != nil {
		return nil, persistence("get rating", err)
	}
	return r, nil
}

func (s *Store) DeleteRating(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM ratings WHERE id = ?`, id)
	if err != nil {
		return persistence("delete rating", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return persistence("delete rating", err)
	}
	if n == 0 {
		return notFound("rating", id)
	}
	return nil
}

// ProductRatings returns a product's ratings, newest first.
func (s *Store) ProductRatings(ctx context.Context, productID int64) ([]models.Rating, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+ratingColumns+` FROM ratings WHERE product_id = ? ORDER BY created_at DESC, id DESC`, productID)
	if err != nil {
		return nil, persistence("list ratings", err)
	}
	defer rows.Close()

	ratings := []models.Rating{}
	for rows.Next() {
		r, err := scanRating(rows)
		if err != nil {
			return nil, persistence("scan rating", err)
		}
		ratings = append(ratings, *r)
	}
	if err := rows.Err(); err != nil {
		return nil, persistence("iterate ratings", err)
	}
	return ratings, nil
}

// RatingSummary returns the average (two decimals) and count of a product's ratings.
func (s *Store) RatingSummary(ctx context.Context, productID int64) (models.RatingSummary, error) {
	var sum models.RatingSummary
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*), COALESCE(AVG(value), 0) FROM ratings WHERE product_id = ?`, productID).
		Scan(&sum.Count, &sum.Average)
	if err != nil {
		return sum, persistence("rating summary", err)
	}
	sum.Average = sum.Average.Round(2)
	return sum, nil
}
