package domain

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	StatusPending    OrderStatus = "Pending"
	StatusProcessing OrderStatus = "Processing"
	StatusShipped    OrderStatus = "Shipped"
	StatusDelivered  OrderStatus = "Delivered"
	StatusCancelled  OrderStatus = "Cancelled"
)

// statusTransitions is the order lifecycle. Delivered and Cancelled are
// terminal; in particular a delivered order cannot be cancelled.
var statusTransitions = map[OrderStatus][]OrderStatus{
	StatusPending:    {StatusProcessing, StatusShipped, StatusCancelled},
	StatusProcessing: {StatusShipped, StatusDelivered, StatusCancelled},
	StatusShipped:    {StatusDelivered, StatusCancelled},
	StatusDelivered:  {},
	StatusCancelled:  {},
}

func IsValidStatus(status OrderStatus) bool {
	_, ok := statusTransitions[status]
	return ok
}

func (s OrderStatus) IsTerminal() bool {
	return len(statusTransitions[s]) == 0 && IsValidStatus(s)
}

// CanTransition reports whether the lifecycle permits moving from s to target.
func (s OrderStatus) CanTransition(target OrderStatus) bool {
	for _, allowed := range statusTransitions[s] {
		if allowed == target {
			return true
		}
	}
	return false
}

type Order struct {
	ID              string          `json:"id"`
	CustomerID      string          `json:"customer_id"`
	OrderDate       time.Time       `json:"order_date"`
	TotalAmount     decimal.Decimal `json:"total_amount"`
	Status          OrderStatus     `json:"status"`
	ShippingAddress string          `json:"shipping_address"`
	CustomerNotes   string          `json:"customer_notes,omitempty"`
	ProcessedDate   *time.Time      `json:"processed_date,omitempty"`
	ProcessedBy     string          `json:"processed_by,omitempty"`
	LastModified    time.Time       `json:"last_modified"`
	Items           []OrderItem     `json:"items"`
}

// OrderItem captures product name and unit price at order time; later product
// changes never re-price a placed order.
type OrderItem struct {
	ID          string          `json:"id"`
	OrderID     string          `json:"order_id"`
	ProductID   string          `json:"product_id"`
	ProductName string          `json:"product_name"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	TotalPrice  decimal.Decimal `json:"total_price"`
}

type OrderRepository interface {
	// CreateOrder persists the order, its items, and the matching stock
	// decrements as one transaction. If any product's guarded decrement touches
	// zero rows the whole transaction rolls back and InsufficientStockError is
	// returned; no partial state is ever visible.
	CreateOrder(ctx context.Context, order *Order) (*Order, error)
	GetOrderByID(ctx context.Context, id string) (*Order, error)
	ListOrders(ctx context.Context, limit, offset int) ([]Order, error)
	ListOrdersByCustomer(ctx context.Context, customerID string, limit, offset int) ([]Order, error)
	// UpdateOrderStatus writes the new status only while the stored status still
	// equals expectedStatus. A concurrent change surfaces as
	// InvalidTransitionError instead of silently overwriting it.
	UpdateOrderStatus(ctx context.Context, id string, status, expectedStatus OrderStatus, processedBy string, processedDate *time.Time) (*Order, error)
	// CancelOrder commits the Cancelled status and, when restoreStock is set,
	// the matching stock increments as one transaction. The status write is
	// guarded on expectedStatus, so a concurrent transition rolls the whole
	// cancellation back and stock is never restored twice.
	CancelOrder(ctx context.Context, id string, expectedStatus OrderStatus, restoreStock bool) (*Order, error)
	// DeleteOrder removes the order and cascades to its items.
	DeleteOrder(ctx context.Context, id string) error
}

// PlaceOrderInput is everything order placement needs; actor identity is always
// passed explicitly, never read from ambient state.
type PlaceOrderInput struct {
	CustomerID      string
	Lines           []CartLine
	ShippingAddress string
	CustomerNotes   string
}

type OrderUseCase interface {
	PlaceOrder(ctx context.Context, input PlaceOrderInput) (*Order, error)
	GetOrderByID(ctx context.Context, id string) (*Order, error)
	ListOrders(ctx context.Context, limit, offset int) ([]Order, error)
	ListOrdersByCustomer(ctx context.Context, customerID string, limit, offset int) ([]Order, error)
	UpdateOrderStatus(ctx context.Context, orderID string, newStatus OrderStatus, actor string) (*Order, error)
	CancelOrder(ctx context.Context, orderID string, actor string) (*Order, error)
	DeleteOrder(ctx context.Context, orderID string) error
}
