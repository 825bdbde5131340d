// ABOUTME: Product catalogue store methods backed by SQLite
// ABOUTME: CRUD plus the name, price, stock and stats queries used by the inventory API

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"
)

const productColumns = `id, name, description, price_cents, quantity, created_at, updated_at`

// CreateProduct inserts a product and fills in its ID and timestamps.
// Returns ErrDuplicateName if another product already uses the name (case-insensitive).
func (s *SQLiteStore) CreateProduct(ctx context.Context, p *Product) error {
	now := time.Now().UTC().Truncate(time.Second)
	p.CreatedAt = now
	p.UpdatedAt = now

	result, err := s.db.ExecContext(ctx, `
		INSERT INTO products (name, description, price_cents, quantity, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`,
		p.Name,
		p.Description,
		p.PriceCents,
		p.Quantity,
		now.Format(time.RFC3339),
		now.Format(time.RFC3339),
	)
	if err != nil {
		if isConstraintViolation(err) {
			return ErrDuplicateName
		}
		return fmt.Errorf("inserting product: %w", err)
	}

	p.ID, err = result.LastInsertId()
	if err != nil {
		return fmt.Errorf("reading product id: %w", err)
	}

	s.logger.Debug("created product", "id", p.ID, "name", p.Name)
	return nil
}

// GetProduct retrieves a product by ID.
// Returns ErrNotFound if the product doesn't exist.
func (s *SQLiteStore) GetProduct(ctx context.Context, id int64) (*Product, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+productColumns+` FROM products WHERE id = ?`, id)

	p, err := scanProduct(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}

// UpdateProduct overwrites the mutable fields of an existing product and
// bumps UpdatedAt. Returns ErrNotFound or ErrDuplicateName.
func (s *SQLiteStore) UpdateProduct(ctx context.Context, p *Product) error {
	now := time.Now().UTC().Truncate(time.Second)

	result, err := s.db.ExecContext(ctx, `
		UPDATE products
		SET name = ?, description = ?, price_cents = ?, quantity = ?, updated_at = ?
		WHERE id = ?
	`,
		p.Name,
		p.Description,
		p.PriceCents,
		p.Quantity,
		now.Format(time.RFC3339),
		p.ID,
	)
	if err != nil {
		if isConstraintViolation(err) {
			return ErrDuplicateName
		}
		return fmt.Errorf("updating product: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}

	p.UpdatedAt = now
	s.logger.Debug("updated product", "id", p.ID)
	return nil
}

// DeleteProduct removes a product by ID.
// Returns ErrNotFound if the product doesn't exist.
func (s *SQLiteStore) DeleteProduct(ctx context.Context, id int64) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM products WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting product: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}

	s.logger.Debug("deleted product", "id", id)
	return nil
}

// ListProducts returns all products ordered by ID.
func (s *SQLiteStore) ListProducts(ctx context.Context) ([]*Product, error) {
	return s.queryProducts(ctx, `SELECT `+productColumns+` FROM products ORDER BY id`)
}

// SearchProductsByName returns products whose name contains fragment,
// ignoring case. LIKE wildcards in fragment are matched literally.
func (s *SQLiteStore) SearchProductsByName(ctx context.Context, fragment string) ([]*Product, error) {
	pattern := "%" + escapeLike(fragment) + "%"
	return s.queryProducts(ctx,
		`SELECT `+productColumns+` FROM products WHERE name LIKE ? ESCAPE '\' ORDER BY id`,
		pattern,
	)
}

// ListProductsByPriceRange returns products priced within [minCents, maxCents].
func (s *SQLiteStore) ListProductsByPriceRange(ctx context.Context, minCents, maxCents int64) ([]*Product, error) {
	return s.queryProducts(ctx,
		`SELECT `+productColumns+` FROM products WHERE price_cents BETWEEN ? AND ? ORDER BY price_cents, id`,
		minCents, maxCents,
	)
}

// ListLowStockProducts returns products with quantity <= threshold.
func (s *SQLiteStore) ListLowStockProducts(ctx context.Context, threshold int) ([]*Product, error) {
	return s.queryProducts(ctx,
		`SELECT `+productColumns+` FROM products WHERE quantity <= ? ORDER BY quantity, id`,
		threshold,
	)
}

// ListInStockProducts returns products with quantity > 0.
func (s *SQLiteStore) ListInStockProducts(ctx context.Context) ([]*Product, error) {
	return s.queryProducts(ctx, `SELECT `+productColumns+` FROM products WHERE quantity > 0 ORDER BY id`)
}

// GetInventoryStats returns the product count and total stock value.
// The total is accumulated per row since price times quantity summed over
// the catalogue can exceed int64.
func (s *SQLiteStore) GetInventoryStats(ctx context.Context) (*InventoryStats, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT price_cents, quantity FROM products`)
	if err != nil {
		return nil, fmt.Errorf("querying inventory stats: %w", err)
	}
	defer rows.Close()

	stats := InventoryStats{TotalValueCents: new(big.Int)}
	var line big.Int
	for rows.Next() {
		var priceCents, quantity int64
		if err := rows.Scan(&priceCents, &quantity); err != nil {
			return nil, fmt.Errorf("scanning inventory stats: %w", err)
		}
		line.Mul(big.NewInt(priceCents), big.NewInt(quantity))
		stats.TotalValueCents.Add(stats.TotalValueCents, &line)
		stats.TotalProducts++
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating inventory stats: %w", err)
	}
	return &stats, nil
}

func (s *SQLiteStore) queryProducts(ctx context.Context, query string, args ...any) ([]*Product, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying products: %w", err)
	}
	defer rows.Close()

	products := []*Product{}
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		products = append(products, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating products: %w", err)
	}

	return products, nil
}

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanProduct(row rowScanner) (*Product, error) {
	var p Product
	var createdAtStr, updatedAtStr string

	err := row.Scan(
		&p.ID,
		&p.Name,
		&p.Description,
		&p.PriceCents,
		&p.Quantity,
		&createdAtStr,
		&updatedAtStr,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("scanning product: %w", err)
	}

	p.CreatedAt, err = time.Parse(time.RFC3339, createdAtStr)
	if err != nil {
		return nil, fmt.Errorf("parsing created_at: %w", err)
	}

	p.UpdatedAt, err = time.Parse(time.RFC3339, updatedAtStr)
	if err != nil {
		return nil, fmt.Errorf("parsing updated_at: %w", err)
	}

	return &p, nil
}

// escapeLike escapes LIKE metacharacters using backslash as the escape char.
func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
