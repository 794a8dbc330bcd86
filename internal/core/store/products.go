package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/tuan28064/Hono-demo/internal/core"
)

// Products is the read-only catalog backed by the products table.
type Products struct {
	store *Store
}

var _ core.ProductRepository = (*Products)(nil)

// Products returns the product repository of the store.
func (s *Store) Products() *Products {
	return &Products{store: s}
}

// List returns all products ordered by id.
func (p *Products) List(ctx context.Context) ([]core.Product, error) {
	if p == nil || p.store == nil || p.store.DB == nil {
		return nil, errors.New("store is not initialized")
	}

	rows, err := p.store.DB.QueryContext(ctx, `SELECT id, name, price FROM products ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close() // nolint:errcheck // best-effort cleanup on SQL rows

	products := []core.Product{}
	for rows.Next() {
		var prod core.Product
		if err := rows.Scan(&prod.ID, &prod.Name, &prod.Price); err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		products = append(products, prod)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("scan products: %w", err)
	}
	return products, nil
}

// Get returns a product by id.
func (p *Products) Get(ctx context.Context, id int64) (*core.Product, error) {
	if p == nil || p.store == nil || p.store.DB == nil {
		return nil, errors.New("store is not initialized")
	}

	var prod core.Product
	err := p.store.DB.QueryRowContext(ctx, `SELECT id, name, price FROM products WHERE id = ?`, id).
		Scan(&prod.ID, &prod.Name, &prod.Price)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, core.ErrNotFound
		}
		return nil, fmt.Errorf("fetch product: %w", err)
	}
	return &prod, nil
}
