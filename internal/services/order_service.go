package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"math/rand"
	"time"

	"farmmarket/internal/models"
	"farmmarket/internal/repositories"

	"github.com/shopspring/decimal"
)

// orderNumberAttempts bounds regeneration when an order number collides with
// an existing one.
const orderNumberAttempts = 5

// MessagePublisher publishes domain events to the message broker. Satisfied
// by *rabbitmq.Client; nil disables publishing.
type MessagePublisher interface {
	Publish(exchange, routingKey string, body []byte) error
}

// RequestedItem is one line of a client cart. The client may reference the
// product by ID, by display name, or both; resolution prefers the ID.
type RequestedItem struct {
	ProductID   string `json:"product_id"`
	ProductName string `json:"product_name"`
	Quantity    int    `json:"quantity"`
}

// PlaceOrderRequest carries everything needed to place an order.
type PlaceOrderRequest struct {
	CustomerID      string                 `json:"-"`
	Items           []RequestedItem        `json:"items"`
	DeliveryAddress models.DeliveryAddress `json:"delivery_address"`
	Notes           string                 `json:"notes"`
	PaymentMethod   string                 `json:"payment_method"`
}

// OrderService handles business logic related to orders.
type OrderService struct {
	orderRepo   repositories.OrderRepository
	productRepo repositories.ProductRepository
	publisher   MessagePublisher
	deliveryFee decimal.Decimal
}

// NewOrderService creates a new OrderService.
func NewOrderService(orderRepo repositories.OrderRepository, productRepo repositories.ProductRepository, publisher MessagePublisher, deliveryFee decimal.Decimal) *OrderService {
	return &OrderService{
		orderRepo:   orderRepo,
		productRepo: productRepo,
		publisher:   publisher,
		deliveryFee: deliveryFee,
	}
}

// PlaceOrder validates the requested cart against the catalog, commits the
// order, and deducts stock.
//
// Every line is resolved and validated even after an earlier line fails, so a
// failed placement reports all problems at once via *ValidationError. The
// order is committed only when every line passed; stock is deducted after the
// commit, one product at a time, with a conditional decrement performed by
// the store. A decrement that fails after the commit is logged and does not
// roll back the order.
func (s *OrderService) PlaceOrder(req PlaceOrderRequest) (*models.Order, error) {
	if len(req.Items) == 0 {
		return nil, fmt.Errorf("order must contain at least one item")
	}

	var lineErrors []LineError
	resolved := make([]*models.Product, len(req.Items))

	for i, item := range req.Items {
		if item.Quantity <= 0 {
			lineErrors = append(lineErrors, LineError{
				Line:        i,
				Kind:        LineErrorProductNotFound,
				ProductID:   item.ProductID,
				ProductName: item.ProductName,
				Requested:   item.Quantity,
				Message:     fmt.Sprintf("item %d: quantity must be positive", i+1),
			})
			continue
		}

		product, lineErr := s.resolveLine(i, item)
		if lineErr != nil {
			lineErrors = append(lineErrors, *lineErr)
			continue
		}

		if product.Quantity < item.Quantity {
			lineErrors = append(lineErrors, LineError{
				Line:        i,
				Kind:        LineErrorInsufficientStock,
				ProductID:   product.ID,
				ProductName: product.Name,
				Available:   product.Quantity,
				Requested:   item.Quantity,
				Message: fmt.Sprintf("insufficient stock for %q: available %d, requested %d",
					product.Name, product.Quantity, item.Quantity),
			})
			continue
		}

		resolved[i] = product
	}

	if len(lineErrors) > 0 {
		return nil, &ValidationError{
			Lines:             lineErrors,
			AvailableProducts: s.catalogSnapshot(),
		}
	}

	// Every line passed; build the aggregate from server-resolved prices.
	// Client-submitted prices or totals are never consulted.
	totalAmount := decimal.Zero
	items := make([]models.OrderItem, len(req.Items))
	for i, item := range req.Items {
		product := resolved[i]
		items[i] = models.OrderItem{
			ProductID:   product.ID,
			ProductName: product.Name,
			Quantity:    item.Quantity,
			Price:       product.Price,
			Unit:        product.Unit,
			FarmerID:    product.FarmerID,
		}
		totalAmount = totalAmount.Add(product.Price.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}

	paymentMethod := req.PaymentMethod
	if paymentMethod == "" {
		paymentMethod = models.PaymentMethodCOD
	}

	order := &models.Order{
		CustomerID:      req.CustomerID,
		Items:           items,
		TotalAmount:     totalAmount,
		DeliveryFee:     s.deliveryFee,
		Status:          models.OrderStatusPending,
		PaymentStatus:   models.PaymentStatusPending,
		PaymentMethod:   paymentMethod,
		DeliveryAddress: req.DeliveryAddress,
		Notes:           req.Notes,
	}

	if err := s.commit(order); err != nil {
		return nil, err
	}
	log.Printf("order %s committed for customer %s (total %s)", order.OrderNumber, order.CustomerID, order.TotalAmount)

	// Stock adjustment runs after the durable order write and is not atomic
	// with it. A failed decrement leaves the order committed; the store's
	// conditional decrement keeps quantity from going negative when a
	// concurrent order won the stock between our validation and here.
	for _, item := range order.Items {
		if _, err := s.productRepo.DecrementQuantity(item.ProductID, item.Quantity); err != nil {
			log.Printf("stock adjustment failed for order %s, product %s (qty %d), order remains committed: %v",
				order.OrderNumber, item.ProductID, item.Quantity, err)
		}
	}

	s.publishOrderCreated(order)

	return order, nil
}

// resolveLine maps a requested line to a catalog product using the fallback
// chain: ID, exact name, case-insensitive name, case-insensitive substring.
func (s *OrderService) resolveLine(index int, item RequestedItem) (*models.Product, *LineError) {
	type lookup struct {
		tier string
		run  func() (*models.Product, error)
	}

	chain := []lookup{}
	if item.ProductID != "" {
		chain = append(chain, lookup{"id", func() (*models.Product, error) {
			return s.productRepo.GetByID(item.ProductID)
		}})
	}
	if item.ProductName != "" {
		chain = append(chain,
			lookup{"exact name", func() (*models.Product, error) {
				return s.productRepo.GetByExactName(item.ProductName)
			}},
			lookup{"case-insensitive name", func() (*models.Product, error) {
				return s.productRepo.GetByNameFold(item.ProductName)
			}},
			lookup{"name substring", func() (*models.Product, error) {
				return s.productRepo.GetByNameSubstring(item.ProductName)
			}},
		)
	}

	for _, l := range chain {
		product, err := l.run()
		if err == nil {
			log.Printf("order line %d resolved via %s: %q (ID: %s)", index+1, l.tier, product.Name, product.ID)
			return product, nil
		}
		if !errors.Is(err, repositories.ErrNotFound) {
			return nil, &LineError{
				Line:        index,
				Kind:        LineErrorProductNotFound,
				ProductID:   item.ProductID,
				ProductName: item.ProductName,
				Requested:   item.Quantity,
				Message:     fmt.Sprintf("catalog lookup failed for item %d: %v", index+1, err),
			}
		}
	}

	return nil, &LineError{
		Line:        index,
		Kind:        LineErrorProductNotFound,
		ProductID:   item.ProductID,
		ProductName: item.ProductName,
		Requested:   item.Quantity,
		Message:     fmt.Sprintf("product not found (id %q, name %q)", item.ProductID, item.ProductName),
	}
}

// commit persists the order, regenerating the order number on collision. The
// order number is assigned exactly once; a successfully stored order never
// has it rewritten.
func (s *OrderService) commit(order *models.Order) error {
	for attempt := 0; attempt < orderNumberAttempts; attempt++ {
		order.OrderNumber = generateOrderNumber()
		err := s.orderRepo.Create(order)
		if err == nil {
			return nil
		}
		if errors.Is(err, repositories.ErrDuplicateOrderNumber) {
			log.Printf("order number %s collided, regenerating", order.OrderNumber)
			continue
		}
		return fmt.Errorf("failed to create order: %w", err)
	}
	return fmt.Errorf("failed to create order: exhausted %d order number attempts", orderNumberAttempts)
}

// generateOrderNumber builds a human-readable order number from the current
// time in milliseconds plus a short random suffix. Uniqueness is enforced by
// the order store, not the generator.
func generateOrderNumber() string {
	return fmt.Sprintf("ORD%d%03d", time.Now().UnixMilli(), rand.Intn(1000))
}

// catalogSnapshot captures the catalog for a failed placement's error report.
func (s *OrderService) catalogSnapshot() []ProductSnapshot {
	products, err := s.productRepo.GetAll()
	if err != nil {
		log.Printf("failed to snapshot catalog for error report: %v", err)
		return nil
	}
	snapshot := make([]ProductSnapshot, len(products))
	for i, p := range products {
		snapshot[i] = ProductSnapshot{
			ID:       p.ID,
			Name:     p.Name,
			Stock:    p.Quantity,
			Price:    p.Price,
			Category: p.Category,
		}
	}
	return snapshot
}

// publishOrderCreated emits an order.created event for downstream consumers
// (behavior tracking, notifications). Publish failures never fail the order.
func (s *OrderService) publishOrderCreated(order *models.Order) {
	if s.publisher == nil {
		return
	}

	event := map[string]interface{}{
		"order_number": order.OrderNumber,
		"order_id":     order.ID,
		"customer_id":  order.CustomerID,
		"status":       order.Status,
		"total_amount": order.TotalAmount,
		"items":        order.Items,
	}
	body, err := json.Marshal(event)
	if err != nil {
		log.Printf("failed to marshal order created event: %v", err)
		return
	}
	if err := s.publisher.Publish("order", "order.created", body); err != nil {
		log.Printf("failed to publish order created event for order %s: %v", order.OrderNumber, err)
		return
	}
	log.Printf("published order created event for order %s", order.OrderNumber)
}

// GetAllOrders retrieves all orders.
func (s *OrderService) GetAllOrders() ([]models.Order, error) {
	return s.orderRepo.GetAll()
}

// GetOrderByID retrieves a single order by its ID.
func (s *OrderService) GetOrderByID(id string) (*models.Order, error) {
	return s.orderRepo.GetByID(id)
}

// GetCustomerOrders retrieves a customer's orders, newest first.
func (s *OrderService) GetCustomerOrders(customerID string) ([]models.Order, error) {
	return s.orderRepo.GetByCustomer(customerID)
}

// GetFarmerOrders retrieves orders containing the farmer's products, with
// each order's items narrowed to that farmer's lines.
func (s *OrderService) GetFarmerOrders(farmerID string) ([]models.Order, error) {
	orders, err := s.orderRepo.GetByFarmer(farmerID)
	if err != nil {
		return nil, err
	}
	for i := range orders {
		orders[i].Items = orders[i].FarmerItems(farmerID)
	}
	return orders, nil
}

// UpdateOrderStatus transitions an order to a new status. When farmerID is
// non-empty the order must contain that farmer's items.
func (s *OrderService) UpdateOrderStatus(id, farmerID, status string) error {
	order, err := s.orderRepo.GetByID(id)
	if err != nil {
		return err
	}
	if farmerID != "" && !order.HasFarmer(farmerID) {
		return fmt.Errorf("order %s contains no items for farmer %s", id, farmerID)
	}
	if err := order.Transition(status); err != nil {
		return err
	}
	if err := s.orderRepo.UpdateStatus(id, status); err != nil {
		return fmt.Errorf("failed to update order status for order %s: %w", id, err)
	}
	return nil
}

// UpdatePaymentStatus updates an order's payment status.
func (s *OrderService) UpdatePaymentStatus(id, status string) error {
	if !models.ValidPaymentStatus(status) {
		return fmt.Errorf("invalid payment status: %s", status)
	}
	if _, err := s.orderRepo.GetByID(id); err != nil {
		return err
	}
	if err := s.orderRepo.UpdatePaymentStatus(id, status); err != nil {
		return fmt.Errorf("failed to update payment status for order %s: %w", id, err)
	}
	return nil
}
