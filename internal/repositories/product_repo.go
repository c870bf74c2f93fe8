package repositories

import (
	"farmmarket/internal/models"
)

// ProductFilter narrows List results. Zero values mean "no constraint".
type ProductFilter struct {
	Category string // exact category, "" or "all" for any
	Search   string // case-insensitive fragment of name or description
	InStock  bool   // only products with quantity > 0
	Limit    int    // 0 for no limit
}

// ProductRepository defines the interface for catalog data access.
//
// The four lookup methods back the order engine's resolution chain; each
// returns ErrNotFound when nothing matches. Name fragments passed to
// GetByNameFold and GetByNameSubstring are treated as literal text, never as
// patterns.
type ProductRepository interface {
	GetAll() ([]models.Product, error)
	List(filter ProductFilter) ([]models.Product, error)
	GetByID(id string) (*models.Product, error)
	GetByExactName(name string) (*models.Product, error)
	GetByNameFold(name string) (*models.Product, error)
	GetByNameSubstring(fragment string) (*models.Product, error)
	Create(product *models.Product) error
	Update(product *models.Product) error
	Delete(id string) error

	// DecrementQuantity atomically subtracts amount from the product's
	// quantity, failing with ErrInsufficientStock if the remaining stock
	// would go negative. Returns the product as stored after the decrement.
	DecrementQuantity(id string, amount int) (*models.Product, error)
}
