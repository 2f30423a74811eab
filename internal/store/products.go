package store

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/01moynul/tvshop-golang/internal/models"
	"github.com/shopspring/decimal"
)

const productColumns = `id, name, slug, brand, category, description, main_image_url, price, stock_quantity, created_at, updated_at`

func scanProduct(row interface{ Scan(...any) error }) (*models.Product, error) {
	var p models.Product
	err := row.Scan(
		&p.ID, &p.Name, &p.Slug, &p.Brand, &p.Category, &p.Description, &p.MainImageURL,
		&p.Price, &p.StockQuantity, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// Product looks up a single catalog entry.
func (s *Store) Product(ctx context.Context, id int64) (*models.Product, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+productColumns+` FROM products WHERE id = ?`, id)
	p, err := scanProduct(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound("product", id)
	}
	if err != nil {
		return nil, persistence("get product", err)
	}
	return p, nil
}

// ListProducts returns the catalog newest first, narrowed by f.
func (s *Store) ListProducts(ctx context.Context, f models.ProductFilter) ([]models.Product, error) {
	var (
		where []string
		args  []any
	)
	if term := strings.TrimSpace(f.Search); term != "" {
		where = append(where, "LOWER(name) LIKE ?")
		args = append(args, "%"+strings.ToLower(term)+"%")
	}
	if f.Brand != "" {
		where = append(where, "brand = ?")
		args = append(args, f.Brand)
	}
	if f.Category != "" {
		where = append(where, "category = ?")
		args = append(args, f.Category)
	}

	query := `SELECT ` + productColumns + ` FROM products`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	query += ` ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?`
	args = append(args, f.Limit, f.Offset)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, persistence("list products", err)
	}
	defer rows.Close()

	products := []models.Product{}
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, persistence("scan product", err)
		}
		products = append(products, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, persistence("iterate products", err)
	}
	return products, nil
}

// CatalogFacets lists the distinct non-empty brands and categories, sorted.
func (s *Store) CatalogFacets(ctx context.Context) (models.CatalogFacets, error) {
	facets := models.CatalogFacets{Brands: []string{}, Categories: []string{}}
	for _, q := range []struct {
		column string
		dst    *[]string
	}{
		{"brand", &facets.Brands},
		{"category", &facets.Categories},
	} {
		rows, err := s.db.QueryContext(ctx,
			`SELECT DISTINCT `+q.column+` FROM products WHERE `+q.column+` <> '' ORDER BY `+q.column)
		if err != nil {
			return facets, persistence("list "+q.column, err)
		}
		for rows.Next() {
			var v string
			if err := rows.Scan(&v); err != nil {
				rows.Close()
				return facets, persistence("scan "+q.column, err)
			}
			*q.dst = append(*q.dst, v)
		}
		err = rows.Err()
		rows.Close()
		if err != nil {
			return facets, persistence("iterate "+q.column, err)
		}
	}
	return facets, nil
}

// CreateProduct inserts p and fills in its ID and timestamps.
func (s *Store) CreateProduct(ctx context.Context, p *models.Product) error {
	now := s.now()
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO products (name, slug, brand, category, description, main_image_url, price, stock_quantity, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.Name, p.Slug, p.Brand, p.Category, p.Description, p.MainImageURL, p.Price, p.StockQuantity, now, now)
	if err != nil {
		if isDuplicateKey(err) {
			return ErrDuplicate
		}
		return persistence("insert product", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return persistence("product id", err)
	}
	p.ID = id
	p.CreatedAt = now
	p.UpdatedAt = now
	return nil
}

// UpdateProductPrice changes the live price. Cart and order snapshots keep theirs.
func (s *Store) UpdateProductPrice(ctx context.Context, id int64, price decimal.Decimal) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE products SET price = ?, updated_at = ? WHERE id = ?`, price, s.now(), id)
	if err != nil {
		return persistence("update product price", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return persistence("update product price", err)
	}
	if n == 0 {
		return notFound("product", id)
	}
	return nil
}
