package models

import (
	"time"

	"gorm.io/gorm"
)

// User roles.
const (
	RoleCustomer = "customer"
	RoleFarmer   = "farmer"
	RoleAdmin    = "admin"
)

// User represents an account on the marketplace.
type User struct {
	ID         string     `json:"id" gorm:"primaryKey;type:varchar(36)" validate:"omitempty,uuid"`
	Name       string     `json:"name" validate:"required,min=2,max=100"`
	Email      string     `json:"email" gorm:"uniqueIndex;type:varchar(255)" validate:"required,email"`
	Password   string     `json:"-" gorm:"type:varchar(255)" validate:"required,min=6"`
	Role       string     `json:"role" gorm:"type:varchar(16);default:customer" validate:"omitempty,oneof=customer farmer admin"`
	Phone      string     `json:"phone" validate:"omitempty,max=20"`
	Address    string     `json:"address" validate:"omitempty,max=255"`
	IsActive   bool       `json:"is_active" gorm:"default:true"`
	LastLogin  *time.Time `json:"last_login,omitempty"`
	gorm.Model `json:"-"`
}
