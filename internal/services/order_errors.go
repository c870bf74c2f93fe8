package services

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// LineErrorKind classifies why a requested order line was rejected.
type LineErrorKind string

const (
	// LineErrorProductNotFound means the resolution chain exhausted every
	// lookup method without a match.
	LineErrorProductNotFound LineErrorKind = "product_not_found"
	// LineErrorInsufficientStock means the product resolved but holds less
	// stock than requested.
	LineErrorInsufficientStock LineErrorKind = "insufficient_stock"
)

// LineError describes one rejected order line.
type LineError struct {
	Line        int           `json:"line"` // zero-based index in the submitted cart
	Kind        LineErrorKind `json:"kind"`
	ProductID   string        `json:"product_id,omitempty"`
	ProductName string        `json:"product_name,omitempty"`
	Available   int           `json:"available,omitempty"`
	Requested   int           `json:"requested,omitempty"`
	Message     string        `json:"message"`
}

// ProductSnapshot is a slice of the catalog returned with a failed placement
// so the client can correct its cart.
type ProductSnapshot struct {
	ID       string          `json:"id"`
	Name     string          `json:"name"`
	Stock    int             `json:"stock"`
	Price    decimal.Decimal `json:"price"`
	Category string          `json:"category"`
}

// ValidationError is returned by PlaceOrder when one or more lines failed
// validation. Every failed line is reported; nothing was persisted and no
// stock was touched.
type ValidationError struct {
	Lines             []LineError       `json:"errors"`
	AvailableProducts []ProductSnapshot `json:"available_products"`
}

func (e *ValidationError) Error() string {
	messages := make([]string, len(e.Lines))
	for i, line := range e.Lines {
		messages[i] = line.Message
	}
	return fmt.Sprintf("order validation failed: %s", strings.Join(messages, "; "))
}
