package domain

import "fmt"

// EmptyCartError is returned when order placement is attempted with no cart lines.
type EmptyCartError struct {
	CustomerID string
}

func (e *EmptyCartError) Error() string {
	return fmt.Sprintf("cart for customer %s is empty", e.CustomerID)
}

// CustomerNotFoundError is returned when a customer does not exist or is inactive.
type CustomerNotFoundError struct {
	CustomerID string
}

func (e *CustomerNotFoundError) Error() string {
	return fmt.Sprintf("customer %s not found or inactive", e.CustomerID)
}

// ProductNotFoundError names the offending product when a cart line cannot be resolved.
type ProductNotFoundError struct {
	ProductID string
}

func (e *ProductNotFoundError) Error() string {
	return fmt.Sprintf("product %s not found", e.ProductID)
}

// InsufficientStockError carries both the requested and available quantities so the
// caller can present an actionable message.
type InsufficientStockError struct {
	ProductID string
	Requested int
	Available int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for product %s (requested: %d, available: %d)", e.ProductID, e.Requested, e.Available)
}

// InvalidTransitionError is returned when a status change violates the order lifecycle.
type InvalidTransitionError struct {
	OrderID string
	From    OrderStatus
	To      OrderStatus
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid status transition for order %s: %s -> %s", e.OrderID, e.From, e.To)
}

// OrderNotFoundError is returned when an order id cannot be resolved.
type OrderNotFoundError struct {
	OrderID string
}

func (e *OrderNotFoundError) Error() string {
	return fmt.Sprintf("order with id %s not found", e.OrderID)
}
