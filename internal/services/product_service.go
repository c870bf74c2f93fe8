package services

import (
	"fmt"

	"farmmarket/internal/models"
	"farmmarket/internal/repositories"
)

// ProductService handles business logic related to the catalog.
type ProductService struct {
	repo repositories.ProductRepository
}

// NewProductService creates a new ProductService.
func NewProductService(repo repositories.ProductRepository) *ProductService {
	return &ProductService{
		repo: repo,
	}
}

// ListProducts retrieves products matching the filter, newest first.
func (s *ProductService) ListProducts(filter repositories.ProductFilter) ([]models.Product, error) {
	return s.repo.List(filter)
}

// GetProductByID retrieves a single product by its ID.
func (s *ProductService) GetProductByID(id string) (*models.Product, error) {
	return s.repo.GetByID(id)
}

// CreateProduct creates a new product owned by the given farmer.
func (s *ProductService) CreateProduct(farmerID string, product *models.Product) error {
	product.FarmerID = farmerID
	if product.Price.IsNegative() || product.Price.IsZero() {
		return fmt.Errorf("price must be greater than zero")
	}
	if product.Quantity <= 0 {
		return fmt.Errorf("quantity must be greater than zero")
	}
	return s.repo.Create(product)
}

// UpdateProduct updates an existing product. Only the owning farmer may
// change it.
func (s *ProductService) UpdateProduct(farmerID string, product *models.Product) error {
	existing, err := s.repo.GetByID(product.ID)
	if err != nil {
		return err
	}
	if existing.FarmerID != farmerID {
		return fmt.Errorf("product %s does not belong to farmer %s", product.ID, farmerID)
	}
	if product.Price.IsNegative() {
		return fmt.Errorf("price cannot be negative")
	}
	if product.Quantity < 0 {
		return fmt.Errorf("quantity cannot be negative")
	}
	product.FarmerID = existing.FarmerID
	return s.repo.Update(product)
}

// DeleteProduct deletes a product. Only the owning farmer may remove it.
func (s *ProductService) DeleteProduct(farmerID, id string) error {
	existing, err := s.repo.GetByID(id)
	if err != nil {
		return err
	}
	if existing.FarmerID != farmerID {
		return fmt.Errorf("product %s does not belong to farmer %s", id, farmerID)
	}
	return s.repo.Delete(id)
}
