package repositories

import (
	"farmmarket/internal/models"
)

// OrderRepository defines the interface for order data access.
//
// Create enforces order-number uniqueness and returns
// ErrDuplicateOrderNumber on collision so the caller can regenerate.
type OrderRepository interface {
	Create(order *models.Order) error
	GetAll() ([]models.Order, error)
	GetByID(id string) (*models.Order, error)
	GetByCustomer(customerID string) ([]models.Order, error)
	GetByFarmer(farmerID string) ([]models.Order, error)
	UpdateStatus(id string, status string) error
	UpdatePaymentStatus(id string, status string) error
}
