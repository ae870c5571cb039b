package inventory

import (
	"errors"
	"fmt"
)

var (
	ErrProductNotFound = errors.New("product not found")
	ErrOrderNotFound   = errors.New("order not found")
	ErrDuplicateSKU    = errors.New("sku already exists")
	ErrEmptyOrder      = errors.New("order has no items")
	ErrInvalidQty      = errors.New("quantity must be at least 1")
	ErrVersionConflict = errors.New("product modified concurrently")
)

// InsufficientStockError reports the first line item that cannot be filled.
type InsufficientStockError struct {
	ProductName string
	Required    int
	Available   int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("not enough stock for product %s: required %d, available %d",
		e.ProductName, e.Required, e.Available)
}

type InvalidStatusError struct{ Value string }

func (e *InvalidStatusError) Error() string {
	return fmt.Sprintf("invalid order status: %q", e.Value)
}
