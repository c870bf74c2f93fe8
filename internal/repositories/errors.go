package repositories

import "errors"

// Sentinel errors shared by all repository implementations. Callers match
// them with errors.Is so wrapped messages can stay descriptive.
var (
	// ErrNotFound is returned when a lookup matches no record.
	ErrNotFound = errors.New("record not found")

	// ErrInsufficientStock is returned by a conditional decrement when the
	// product exists but holds less stock than requested. The store performs
	// the check and the write in one operation, so quantity can never go
	// negative even under concurrent orders.
	ErrInsufficientStock = errors.New("insufficient stock")

	// ErrDuplicateOrderNumber is returned when an order insert collides with
	// an existing order number. The caller regenerates and retries.
	ErrDuplicateOrderNumber = errors.New("duplicate order number")
)
