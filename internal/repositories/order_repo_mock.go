package repositories

import (
	"fmt"
	"sync"
	"time"

	"farmmarket/internal/models"

	"github.com/google/uuid"
)

// MockOrderRepository is an in-memory implementation of OrderRepository.
type MockOrderRepository struct {
	orders       map[string]models.Order
	orderNumbers map[string]bool
	created      []string // IDs in creation order
	mu           sync.RWMutex
}

// NewMockOrderRepository creates a new instance of MockOrderRepository.
func NewMockOrderRepository() *MockOrderRepository {
	return &MockOrderRepository{
		orders:       make(map[string]models.Order),
		orderNumbers: make(map[string]bool),
	}
}

// Create adds a new order, rejecting duplicate order numbers like the
// database's unique index would.
func (r *MockOrderRepository) Create(order *models.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.orderNumbers[order.OrderNumber] {
		return fmt.Errorf("order number %s: %w", order.OrderNumber, ErrDuplicateOrderNumber)
	}
	if order.ID == "" {
		order.ID = uuid.New().String()
	}
	for i := range order.Items {
		order.Items[i].OrderID = order.ID
		order.Items[i].Position = i
	}
	order.CreatedAt = time.Now()
	order.UpdatedAt = time.Now()
	r.orders[order.ID] = *order
	r.orderNumbers[order.OrderNumber] = true
	r.created = append(r.created, order.ID)
	return nil
}

// GetAll returns all orders, newest first.
func (r *MockOrderRepository) GetAll() ([]models.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	orderList := make([]models.Order, 0, len(r.orders))
	for i := len(r.created) - 1; i >= 0; i-- {
		orderList = append(orderList, r.orders[r.created[i]])
	}
	return orderList, nil
}

// GetByID returns an order by its ID.
func (r *MockOrderRepository) GetByID(id string) (*models.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	order, ok := r.orders[id]
	if !ok {
		return nil, fmt.Errorf("order with ID %s: %w", id, ErrNotFound)
	}
	return &order, nil
}

// GetByCustomer returns a customer's orders, newest first.
func (r *MockOrderRepository) GetByCustomer(customerID string) ([]models.Order, error) {
	return r.filter(func(o models.Order) bool {
		return o.CustomerID == customerID
	})
}

// GetByFarmer returns orders containing at least one of the farmer's items,
// newest first.
func (r *MockOrderRepository) GetByFarmer(farmerID string) ([]models.Order, error) {
	return r.filter(func(o models.Order) bool {
		return o.HasFarmer(farmerID)
	})
}

func (r *MockOrderRepository) filter(keep func(models.Order) bool) ([]models.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var orderList []models.Order
	for i := len(r.created) - 1; i >= 0; i-- {
		if order := r.orders[r.created[i]]; keep(order) {
			orderList = append(orderList, order)
		}
	}
	return orderList, nil
}

// UpdateStatus updates the status of an order.
func (r *MockOrderRepository) UpdateStatus(id string, status string) error {
	return r.update(id, func(o *models.Order) {
		o.Status = status
	})
}

// UpdatePaymentStatus updates the payment status of an order.
func (r *MockOrderRepository) UpdatePaymentStatus(id string, status string) error {
	return r.update(id, func(o *models.Order) {
		o.PaymentStatus = status
	})
}

func (r *MockOrderRepository) update(id string, apply func(*models.Order)) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	order, ok := r.orders[id]
	if !ok {
		return fmt.Errorf("order with ID %s: %w", id, ErrNotFound)
	}
	apply(&order)
	order.UpdatedAt = time.Now()
	r.orders[id] = order
	return nil
}
