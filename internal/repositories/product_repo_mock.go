package repositories

import (
	"fmt"
	"strings"
	"sync"

	"farmmarket/internal/models"

	"github.com/google/uuid"
)

// MockProductRepository is an in-memory implementation of ProductRepository.
// Insertion order is preserved so lookup methods resolve deterministically,
// matching the created_at ordering of the GORM implementation.
type MockProductRepository struct {
	products map[string]models.Product
	order    []string // IDs in insertion order
	mu       sync.RWMutex
}

// NewMockProductRepository creates a new instance of MockProductRepository.
func NewMockProductRepository() *MockProductRepository {
	return &MockProductRepository{
		products: make(map[string]models.Product),
	}
}

// GetAll returns all products in insertion order.
func (r *MockProductRepository) GetAll() ([]models.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	productList := make([]models.Product, 0, len(r.products))
	for _, id := range r.order {
		productList = append(productList, r.products[id])
	}
	return productList, nil
}

// List returns products matching the filter, newest first.
func (r *MockProductRepository) List(filter ProductFilter) ([]models.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var productList []models.Product
	for i := len(r.order) - 1; i >= 0; i-- {
		p := r.products[r.order[i]]
		if filter.Category != "" && filter.Category != "all" && p.Category != filter.Category {
			continue
		}
		if filter.Search != "" {
			needle := strings.ToLower(filter.Search)
			if !strings.Contains(strings.ToLower(p.Name), needle) &&
				!strings.Contains(strings.ToLower(p.Description), needle) {
				continue
			}
		}
		if filter.InStock && p.Quantity <= 0 {
			continue
		}
		productList = append(productList, p)
		if filter.Limit > 0 && len(productList) >= filter.Limit {
			break
		}
	}
	return productList, nil
}

// GetByID returns a product by its ID.
func (r *MockProductRepository) GetByID(id string) (*models.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	product, ok := r.products[id]
	if !ok {
		return nil, fmt.Errorf("product with ID %s: %w", id, ErrNotFound)
	}
	return &product, nil
}

// GetByExactName returns the first product whose name matches exactly.
func (r *MockProductRepository) GetByExactName(name string) (*models.Product, error) {
	return r.firstMatch(name, func(p models.Product) bool {
		return p.Name == name
	})
}

// GetByNameFold returns the first product whose name matches ignoring case.
func (r *MockProductRepository) GetByNameFold(name string) (*models.Product, error) {
	return r.firstMatch(name, func(p models.Product) bool {
		return strings.EqualFold(p.Name, name)
	})
}

// GetByNameSubstring returns the first product whose name contains the
// fragment, ignoring case.
func (r *MockProductRepository) GetByNameSubstring(fragment string) (*models.Product, error) {
	needle := strings.ToLower(fragment)
	return r.firstMatch(fragment, func(p models.Product) bool {
		return strings.Contains(strings.ToLower(p.Name), needle)
	})
}

func (r *MockProductRepository) firstMatch(lookup string, match func(models.Product) bool) (*models.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, id := range r.order {
		p := r.products[id]
		if match(p) {
			return &p, nil
		}
	}
	return nil, fmt.Errorf("product lookup %q: %w", lookup, ErrNotFound)
}

// Create adds a new product.
func (r *MockProductRepository) Create(product *models.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if product.ID == "" {
		product.ID = uuid.New().String()
	}
	product.InStock = product.Quantity > 0
	if _, exists := r.products[product.ID]; !exists {
		r.order = append(r.order, product.ID)
	}
	r.products[product.ID] = *product
	return nil
}

// Update modifies an existing product.
func (r *MockProductRepository) Update(product *models.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, ok := r.products[product.ID]
	if !ok {
		return fmt.Errorf("product with ID %s not found for update: %w", product.ID, ErrNotFound)
	}
	product.InStock = product.Quantity > 0
	r.products[product.ID] = *product
	return nil
}

// Delete removes a product by its ID.
func (r *MockProductRepository) Delete(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, ok := r.products[id]
	if !ok {
		return fmt.Errorf("product with ID %s not found for deletion: %w", id, ErrNotFound)
	}
	delete(r.products, id)
	for i, existing := range r.order {
		if existing == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return nil
}

// DecrementQuantity subtracts amount under the write lock, so the stock check
// and the write are one atomic step like the SQL implementation's conditional
// UPDATE.
func (r *MockProductRepository) DecrementQuantity(id string, amount int) (*models.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	product, ok := r.products[id]
	if !ok {
		return nil, fmt.Errorf("product with ID %s: %w", id, ErrNotFound)
	}
	if product.Quantity < amount {
		return nil, fmt.Errorf("product %s: %w", id, ErrInsufficientStock)
	}
	product.Quantity -= amount
	product.InStock = product.Quantity > 0
	r.products[id] = product
	return &product, nil
}
