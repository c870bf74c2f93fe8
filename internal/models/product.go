package models

import (
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Product represents a catalog item offered by a farmer.
type Product struct {
	ID          string          `json:"id" gorm:"primaryKey;type:varchar(36)" validate:"omitempty,uuid"`
	Name        string          `json:"name" validate:"required,min=2,max=100"`
	Description string          `json:"description" validate:"required,max=500"`
	Price       decimal.Decimal `json:"price" gorm:"type:decimal(10,2)"`
	Quantity    int             `json:"quantity" validate:"gte=0"`
	Unit        string          `json:"unit" validate:"required,oneof=kg g pieces liters ml dozen"`
	Category    string          `json:"category" validate:"required,oneof=vegetables fruits grains dairy herbs spices others"`
	FarmerID    string          `json:"farmer_id" gorm:"type:varchar(36);index" validate:"required"`
	IsOrganic   bool            `json:"is_organic" gorm:"default:true"`
	InStock     bool            `json:"in_stock"`
	gorm.Model  `json:"-"`
}

// BeforeSave keeps the derived in-stock flag consistent with quantity.
func (p *Product) BeforeSave(tx *gorm.DB) error {
	p.InStock = p.Quantity > 0
	return nil
}
