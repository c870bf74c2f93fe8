package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// SearchRecord captures one catalog search a user made.
type SearchRecord struct {
	ID          uint      `json:"-" gorm:"primaryKey"`
	UserID      string    `json:"user_id" gorm:"type:varchar(36);index"`
	Query       string    `json:"query"`
	ResultCount int       `json:"result_count"`
	ResultIDs   string    `json:"result_ids"` // comma-joined product IDs, top results only
	CreatedAt   time.Time `json:"created_at"`
}

// ViewRecord captures one product-detail view.
type ViewRecord struct {
	ID        uint      `json:"-" gorm:"primaryKey"`
	UserID    string    `json:"user_id" gorm:"type:varchar(36);index"`
	ProductID string    `json:"product_id" gorm:"type:varchar(36)"`
	Category  string    `json:"category"`
	CreatedAt time.Time `json:"created_at"`
}

// PurchaseRecord captures one purchased line item, snapshotted like the order
// line it came from.
type PurchaseRecord struct {
	ID          uint            `json:"-" gorm:"primaryKey"`
	UserID      string          `json:"user_id" gorm:"type:varchar(36);index"`
	ProductID   string          `json:"product_id" gorm:"type:varchar(36)"`
	ProductName string          `json:"product_name"`
	Category    string          `json:"category"`
	Quantity    int             `json:"quantity"`
	Price       decimal.Decimal `json:"price" gorm:"type:decimal(10,2)"`
	CreatedAt   time.Time       `json:"created_at"`
}
