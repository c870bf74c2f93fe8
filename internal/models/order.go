package models

import (
	"fmt"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Order statuses. Cancelled is terminal and reachable from any non-terminal
// status; the rest advance one step at a time.
const (
	OrderStatusPending   = "pending"
	OrderStatusConfirmed = "confirmed"
	OrderStatusPreparing = "preparing"
	OrderStatusReady     = "ready"
	OrderStatusDelivered = "delivered"
	OrderStatusCancelled = "cancelled"
)

// Payment statuses and methods.
const (
	PaymentStatusPending = "pending"
	PaymentStatusPaid    = "paid"
	PaymentStatusFailed  = "failed"

	PaymentMethodCOD    = "cod"
	PaymentMethodOnline = "online"
)

// orderStatusNext maps each status to the statuses it may transition to.
var orderStatusNext = map[string][]string{
	OrderStatusPending:   {OrderStatusConfirmed, OrderStatusCancelled},
	OrderStatusConfirmed: {OrderStatusPreparing, OrderStatusCancelled},
	OrderStatusPreparing: {OrderStatusReady, OrderStatusCancelled},
	OrderStatusReady:     {OrderStatusDelivered, OrderStatusCancelled},
	OrderStatusDelivered: {},
	OrderStatusCancelled: {},
}

// ValidOrderStatus reports whether s is a known order status.
func ValidOrderStatus(s string) bool {
	_, ok := orderStatusNext[s]
	return ok
}

// ValidStatusTransition reports whether an order may move from one status to
// another.
func ValidStatusTransition(from, to string) bool {
	for _, next := range orderStatusNext[from] {
		if next == to {
			return true
		}
	}
	return false
}

// ValidPaymentStatus reports whether s is a known payment status.
func ValidPaymentStatus(s string) bool {
	return s == PaymentStatusPending || s == PaymentStatusPaid || s == PaymentStatusFailed
}

// OrderItem is a snapshot of a product line at order time. Name and price are
// copied from the catalog so later catalog edits never rewrite history.
type OrderItem struct {
	ID          uint            `json:"-" gorm:"primaryKey"`
	OrderID     string          `json:"-" gorm:"type:varchar(36);index"`
	Position    int             `json:"-"` // submission order within the cart
	ProductID   string          `json:"product_id" gorm:"type:varchar(36)"`
	ProductName string          `json:"product_name"`
	Quantity    int             `json:"quantity"`
	Price       decimal.Decimal `json:"price" gorm:"type:decimal(10,2)"`
	Unit        string          `json:"unit"`
	FarmerID    string          `json:"farmer_id" gorm:"type:varchar(36);index"`
}

// DeliveryAddress is where an order ships to.
type DeliveryAddress struct {
	Street  string `json:"street"`
	City    string `json:"city"`
	State   string `json:"state"`
	Pincode string `json:"pincode"`
	Phone   string `json:"phone"`
}

// Order represents a committed customer order.
type Order struct {
	ID              string          `json:"id" gorm:"primaryKey;type:varchar(36)"`
	OrderNumber     string          `json:"order_number" gorm:"uniqueIndex;type:varchar(32)"`
	CustomerID      string          `json:"customer_id" gorm:"type:varchar(36);index"`
	Items           []OrderItem     `json:"items" gorm:"foreignKey:OrderID"`
	TotalAmount     decimal.Decimal `json:"total_amount" gorm:"type:decimal(10,2)"`
	DeliveryFee     decimal.Decimal `json:"delivery_fee" gorm:"type:decimal(10,2)"`
	Status          string          `json:"status" gorm:"type:varchar(16)"`
	PaymentStatus   string          `json:"payment_status" gorm:"type:varchar(16)"`
	PaymentMethod   string          `json:"payment_method" gorm:"type:varchar(16)"`
	DeliveryAddress DeliveryAddress `json:"delivery_address" gorm:"embedded;embeddedPrefix:address_"`
	Notes           string          `json:"notes"`
	gorm.Model      `json:"-"`
}

// ItemsTotal sums the line subtotals using the snapshotted prices.
func (o *Order) ItemsTotal() decimal.Decimal {
	total := decimal.Zero
	for _, item := range o.Items {
		total = total.Add(item.Price.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}
	return total
}

// FarmerItems returns the subset of items owned by the given farmer.
func (o *Order) FarmerItems(farmerID string) []OrderItem {
	var items []OrderItem
	for _, item := range o.Items {
		if item.FarmerID == farmerID {
			items = append(items, item)
		}
	}
	return items
}

// HasFarmer reports whether any item in the order belongs to the farmer.
func (o *Order) HasFarmer(farmerID string) bool {
	return len(o.FarmerItems(farmerID)) > 0
}

// Transition moves the order to a new status, enforcing the lifecycle rules.
func (o *Order) Transition(to string) error {
	if !ValidOrderStatus(to) {
		return fmt.Errorf("invalid order status: %s", to)
	}
	if !ValidStatusTransition(o.Status, to) {
		return fmt.Errorf("cannot transition order from %s to %s", o.Status, to)
	}
	o.Status = to
	return nil
}
