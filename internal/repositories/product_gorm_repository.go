package repositories

import (
	"errors"
	"fmt"
	"strings"

	"farmmarket/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GORMProductRepository is a GORM implementation of ProductRepository.
type GORMProductRepository struct {
	db *gorm.DB
}

// NewGORMProductRepository creates a new instance of GORMProductRepository.
func NewGORMProductRepository(db *gorm.DB) *GORMProductRepository {
	return &GORMProductRepository{
		db: db,
	}
}

// escapeLike makes a user-supplied fragment safe to embed in a LIKE pattern,
// so wildcards in product names sent by clients match literally.
func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

// GetAll retrieves all products from the database.
func (r *GORMProductRepository) GetAll() ([]models.Product, error) {
	var products []models.Product
	if err := r.db.Find(&products).Error; err != nil {
		return nil, fmt.Errorf("failed to get all products: %w", err)
	}
	return products, nil
}

// List retrieves products matching the filter, newest first.
func (r *GORMProductRepository) List(filter ProductFilter) ([]models.Product, error) {
	query := r.db.Model(&models.Product{}).Order("created_at DESC")
	if filter.Category != "" && filter.Category != "all" {
		query = query.Where("category = ?", filter.Category)
	}
	if filter.Search != "" {
		pattern := "%" + strings.ToLower(escapeLike(filter.Search)) + "%"
		query = query.Where("LOWER(name) LIKE ? ESCAPE '\\' OR LOWER(description) LIKE ? ESCAPE '\\'", pattern, pattern)
	}
	if filter.InStock {
		query = query.Where("quantity > 0")
	}
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}

	var products []models.Product
	if err := query.Find(&products).Error; err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	return products, nil
}

// GetByID retrieves a single product by its ID from the database.
func (r *GORMProductRepository) GetByID(id string) (*models.Product, error) {
	var product models.Product
	if err := r.db.First(&product, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("product with ID %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get product by ID %s: %w", id, err)
	}
	return &product, nil
}

// GetByExactName retrieves the oldest product whose name matches exactly.
func (r *GORMProductRepository) GetByExactName(name string) (*models.Product, error) {
	return r.firstBy("name = ?", name)
}

// GetByNameFold retrieves the oldest product whose name matches ignoring case.
func (r *GORMProductRepository) GetByNameFold(name string) (*models.Product, error) {
	return r.firstBy("LOWER(name) = ?", strings.ToLower(name))
}

// GetByNameSubstring retrieves the oldest product whose name contains the
// fragment, ignoring case. The fragment is matched literally.
func (r *GORMProductRepository) GetByNameSubstring(fragment string) (*models.Product, error) {
	pattern := "%" + strings.ToLower(escapeLike(fragment)) + "%"
	return r.firstBy("LOWER(name) LIKE ? ESCAPE '\\'", pattern)
}

func (r *GORMProductRepository) firstBy(condition string, value string) (*models.Product, error) {
	var product models.Product
	err := r.db.Where(condition, value).Order("created_at ASC").First(&product).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("product lookup %q: %w", value, ErrNotFound)
		}
		return nil, fmt.Errorf("failed product lookup %q: %w", value, err)
	}
	return &product, nil
}

// Create creates a new product in the database.
func (r *GORMProductRepository) Create(product *models.Product) error {
	if product.ID == "" {
		product.ID = uuid.New().String()
	}
	if err := r.db.Create(product).Error; err != nil {
		return fmt.Errorf("failed to create product: %w", err)
	}
	return nil
}

// Update updates an existing product in the database.
func (r *GORMProductRepository) Update(product *models.Product) error {
	res := r.db.Save(product) // Save updates all fields, including zero values
	if res.Error != nil {
		return fmt.Errorf("failed to update product: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("product with ID %s not found for update: %w", product.ID, ErrNotFound)
	}
	return nil
}

// Delete deletes a product by its ID from the database.
func (r *GORMProductRepository) Delete(id string) error {
	res := r.db.Delete(&models.Product{}, "id = ?", id)
	if res.Error != nil {
		return fmt.Errorf("failed to delete product: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("product with ID %s not found for deletion: %w", id, ErrNotFound)
	}
	return nil
}

// DecrementQuantity subtracts amount from the product's stock in a single
// conditional UPDATE. The quantity >= amount guard runs inside the store, so
// two concurrent decrements can never drive stock negative.
func (r *GORMProductRepository) DecrementQuantity(id string, amount int) (*models.Product, error) {
	res := r.db.Model(&models.Product{}).
		Where("id = ? AND quantity >= ?", id, amount).
		UpdateColumns(map[string]interface{}{
			"quantity": gorm.Expr("quantity - ?", amount),
			"in_stock": gorm.Expr("quantity - ? > 0", amount),
		})
	if res.Error != nil {
		return nil, fmt.Errorf("failed to decrement stock for product %s: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		// Distinguish a missing product from an understocked one.
		if _, err := r.GetByID(id); err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("product %s: %w", id, ErrInsufficientStock)
	}
	return r.GetByID(id)
}
