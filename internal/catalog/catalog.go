// Package catalog supplies the product list that search and the assistant read from.
package catalog

import (
	"context"
	"sync"

	apperrors "storefront-workers/internal/common/errors"
	"storefront-workers/internal/common/logger"
	"storefront-workers/internal/models"
)

// Provider returns the current product list. Callers must not modify the result.
type Provider interface {
	Products(ctx context.Context) ([]models.Product, error)
}

// Static serves a fixed list.
type Static struct {
	products []models.Product
}

func NewStatic(products []models.Product) *Static {
	return &Static{products: products}
}

func (s *Static) Products(context.Context) ([]models.Product, error) {
	return s.products, nil
}

// Snapshot caches the last list fetched from a slower provider. Products never blocks
// on the source; Refresh replaces the cached list on success only.
type Snapshot struct {
	source Provider
	logger logger.Logger

	mu       sync.RWMutex
	products []models.Product
	loaded   bool
}

func NewSnapshot(source Provider, log logger.Logger) *Snapshot {
	return &Snapshot{
		source: source,
		logger: log.WithFields(map[string]interface{}{"component": "catalog-snapshot"}),
	}
}

func (s *Snapshot) Refresh(ctx context.Context) error {
	products, err := s.source.Products(ctx)
	if err != nil {
		s.mu.RLock()
		kept := len(s.products)
		s.mu.RUnlock()
		s.logger.Warn("Catalog refresh failed", map[string]interface{}{
			"error":        err.Error(),
			"keptProducts": kept,
		})
		return err
	}

	s.mu.Lock()
	s.products = products
	s.loaded = true
	s.mu.Unlock()

	s.logger.Info("Catalog refreshed", map[string]interface{}{"products": len(products)})
	return nil
}

// Products returns the cached list, or CATALOG_UNAVAILABLE before the first successful
// refresh.
func (s *Snapshot) Products(context.Context) ([]models.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.loaded {
		return nil, apperrors.NewCatalogUnavailableError("snapshot", nil)
	}
	return s.products, nil
}

// Loaded reports whether at least one refresh has succeeded.
func (s *Snapshot) Loaded() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loaded
}

// DemoProducts is the built-in catalog used by the static source.
func DemoProducts() []models.Product {
	return []models.Product{
		{ID: "p-001", Title: "Red Running Shoes", Category: "footwear", Brand: "Stride", Price: 89.99, Rating: 4.6},
		{ID: "p-002", Title: "Blue Canvas Sneakers", Category: "footwear", Brand: "Stride", Price: 54.50, Rating: 4.2},
		{ID: "p-003", Title: "Wireless Headphones", Category: "electronics", Brand: "Sonora", Price: 149.00, Rating: 4.8},
		{ID: "p-004", Title: "Bluetooth Speaker", Category: "electronics", Brand: "Sonora", Price: 79.00, Rating: 4.4},
		{ID: "p-005", Title: "Red Wool Hat", Category: "accessories", Brand: "Capline", Price: 24.00, Rating: 4.1},
		{ID: "p-006", Title: "Leather Wallet", Category: "accessories", Brand: "Hideworks", Price: 39.90, Rating: 4.5},
		{ID: "p-007", Title: "Smart Watch", Category: "electronics", Brand: "Pulse", Price: 199.00, Rating: 4.3},
		{ID: "p-008", Title: "Yoga Mat", Category: "fitness", Brand: "Flexa", Price: 29.99, Rating: 4.7},
		{ID: "p-009", Title: "Stainless Water Bottle", Category: "fitness", Brand: "Flexa", Price: 19.99, Rating: 4.6},
		{ID: "p-010", Title: "Denim Jacket", Category: "clothing", Brand: "Northline", Price: 95.00, Rating: 4.0},
		{ID: "p-011", Title: "Cotton T-Shirt", Category: "clothing", Brand: "Northline", Price: 18.00, Rating: 3.9},
		{ID: "p-012", Title: "Ceramic Coffee Mug", Category: "home", Brand: "Kilnhouse", Price: 12.50, Rating: 4.4},
	}
}
