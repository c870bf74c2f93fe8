package handlers

import (
	"errors"
	"log"

	"farmmarket/internal/middleware"
	"farmmarket/internal/models"
	"farmmarket/internal/repositories"
	"farmmarket/internal/services"

	"github.com/gofiber/fiber/v2"
)

// OrderHandler handles HTTP requests for orders.
type OrderHandler struct {
	service *services.OrderService
}

// NewOrderHandler creates a new OrderHandler.
func NewOrderHandler(service *services.OrderService) *OrderHandler {
	return &OrderHandler{
		service: service,
	}
}

// RegisterRoutes registers the order routes, to be mounted behind auth
// middleware. Role checks are per route: customers place and list their
// orders, farmers see and advance orders containing their products.
func (h *OrderHandler) RegisterRoutes(router fiber.Router) {
	orderRoutes := router.Group("/orders")
	orderRoutes.Post("/", middleware.RoleRequired(models.RoleCustomer), h.HandlePlaceOrder)
	orderRoutes.Get("/", middleware.RoleRequired(models.RoleAdmin), h.HandleAllOrders)
	orderRoutes.Get("/my-orders", middleware.RoleRequired(models.RoleCustomer), h.HandleMyOrders)
	orderRoutes.Get("/farmer-orders", middleware.RoleRequired(models.RoleFarmer), h.HandleFarmerOrders)
	orderRoutes.Patch("/:id/status", middleware.RoleRequired(models.RoleFarmer), h.HandleUpdateOrderStatus)
	orderRoutes.Patch("/:id/payment", h.HandleUpdatePaymentStatus)
}

// HandlePlaceOrder places a new order for the authenticated customer.
func (h *OrderHandler) HandlePlaceOrder(c *fiber.Ctx) error {
	var req services.PlaceOrderRequest
	if err := c.BodyParser(&req); err != nil {
		log.Printf("Error parsing order request body: %v", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}
	req.CustomerID = middleware.UserID(c)

	if len(req.Items) == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "Order must contain at least one item",
		})
	}

	order, err := h.service.PlaceOrder(req)
	if err != nil {
		var validationErr *services.ValidationError
		if errors.As(err, &validationErr) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"success":            false,
				"message":            "Product validation failed",
				"errors":             validationErr.Lines,
				"available_products": validationErr.AvailableProducts,
			})
		}
		log.Printf("Error placing order: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "Could not place order",
			"error":   err.Error(),
		})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"message": "Order placed successfully",
		"order":   order,
	})
}

// HandleAllOrders lists every order on the marketplace.
func (h *OrderHandler) HandleAllOrders(c *fiber.Ctx) error {
	orders, err := h.service.GetAllOrders()
	if err != nil {
		log.Printf("Error fetching all orders: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not retrieve orders",
			"error":   err.Error(),
		})
	}
	return c.JSON(orders)
}

// HandleMyOrders lists the authenticated customer's orders.
func (h *OrderHandler) HandleMyOrders(c *fiber.Ctx) error {
	orders, err := h.service.GetCustomerOrders(middleware.UserID(c))
	if err != nil {
		log.Printf("Error fetching customer orders: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not retrieve orders",
			"error":   err.Error(),
		})
	}
	return c.JSON(orders)
}

// HandleFarmerOrders lists orders containing the authenticated farmer's
// products, with items narrowed to that farmer's lines.
func (h *OrderHandler) HandleFarmerOrders(c *fiber.Ctx) error {
	orders, err := h.service.GetFarmerOrders(middleware.UserID(c))
	if err != nil {
		log.Printf("Error fetching farmer orders: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not retrieve orders",
			"error":   err.Error(),
		})
	}
	return c.JSON(orders)
}

// HandleUpdateOrderStatus advances the status of an order containing the
// authenticated farmer's products.
func (h *OrderHandler) HandleUpdateOrderStatus(c *fiber.Ctx) error {
	orderID := c.Params("id")
	var updateData struct {
		Status string `json:"status"`
	}
	if err := c.BodyParser(&updateData); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body for status update",
			"error":   err.Error(),
		})
	}
	if updateData.Status == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Status is required for order status update.",
		})
	}

	err := h.service.UpdateOrderStatus(orderID, middleware.UserID(c), updateData.Status)
	if err != nil {
		log.Printf("Error updating status for order %s: %v", orderID, err)
		if errors.Is(err, repositories.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"message": "Order not found",
			})
		}
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Could not update order status",
			"error":   err.Error(),
		})
	}

	return c.JSON(fiber.Map{
		"message": "Order status updated successfully",
		"status":  updateData.Status,
	})
}

// HandleUpdatePaymentStatus updates an order's payment status.
func (h *OrderHandler) HandleUpdatePaymentStatus(c *fiber.Ctx) error {
	orderID := c.Params("id")
	var updateData struct {
		PaymentStatus string `json:"payment_status"`
	}
	if err := c.BodyParser(&updateData); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body for payment update",
			"error":   err.Error(),
		})
	}

	err := h.service.UpdatePaymentStatus(orderID, updateData.PaymentStatus)
	if err != nil {
		log.Printf("Error updating payment status for order %s: %v", orderID, err)
		if errors.Is(err, repositories.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"message": "Order not found",
			})
		}
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Could not update payment status",
			"error":   err.Error(),
		})
	}

	return c.JSON(fiber.Map{
		"message":        "Payment status updated successfully",
		"payment_status": updateData.PaymentStatus,
	})
}
