package repositories

import (
	"context"
	"fmt"
	"sync"

	"jewelcatalog/internal/models"
)

// MockProductRepository is an in-memory implementation of ProductRepository.
// It preserves insertion order like the file-backed catalog.
type MockProductRepository struct {
	products []models.Product
	nextID   int
	mu       sync.RWMutex
}

// NewMockProductRepository creates a new instance of MockProductRepository.
func NewMockProductRepository(seed ...models.Product) *MockProductRepository {
	r := &MockProductRepository{nextID: 1}
	r.products = append(r.products, seed...)
	return r
}

// GetAll returns all products in insertion order.
func (r *MockProductRepository) GetAll(ctx context.Context) ([]models.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	productList := make([]models.Product, len(r.products))
	copy(productList, r.products)
	return productList, nil
}

// Create appends a new product.
func (r *MockProductRepository) Create(ctx context.Context, product *models.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if product.ID == "" {
		product.ID = fmt.Sprintf("mem-%d", r.nextID)
		r.nextID++
	}
	r.products = append(r.products, *product)
	return nil
}
