package memory

import (
	"context"
	"sync"

	"github.com/tuan28064/Hono-demo/internal/core"
)

// Products is a read-only in-memory catalog.
type Products struct {
	mu       sync.RWMutex
	products []core.Product
}

var _ core.ProductRepository = (*Products)(nil)

// NewProducts returns a catalog holding a copy of the given products.
func NewProducts(seed []core.Product) *Products {
	products := make([]core.Product, len(seed))
	copy(products, seed)
	return &Products{products: products}
}

func (p *Products) List(ctx context.Context) ([]core.Product, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	out := make([]core.Product, len(p.products))
	copy(out, p.products)
	return out, nil
}

func (p *Products) Get(ctx context.Context, id int64) (*core.Product, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	for _, product := range p.products {
		if product.ID == id {
			found := product
			return &found, nil
		}
	}
	return nil, core.ErrNotFound
}
