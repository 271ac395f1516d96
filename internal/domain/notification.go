package domain

import (
	"time"

	"github.com/google/uuid"
)

const (
	MessageTypeOrderStatusUpdated = "OrderStatusUpdated"
	MessageTypeStockUpdated       = "StockUpdated"
)

// OrderStatusMessage is emitted after an order status change commits. EventID
// is unique per emission; delivery is at-least-once and consumers dedup on it.
type OrderStatusMessage struct {
	EventID        string      `json:"event_id"`
	Type           string      `json:"type"`
	OrderID        string      `json:"order_id"`
	PreviousStatus OrderStatus `json:"previous_status"`
	NewStatus      OrderStatus `json:"new_status"`
	UpdatedAtUtc   time.Time   `json:"updated_at_utc"`
	UpdatedBy      string      `json:"updated_by"`
	CustomerID     string      `json:"customer_id"`
}

func NewOrderStatusMessage(orderID string, previous, next OrderStatus, actor, customerID string, at time.Time) OrderStatusMessage {
	return OrderStatusMessage{
		EventID:        uuid.NewString(),
		Type:           MessageTypeOrderStatusUpdated,
		OrderID:        orderID,
		PreviousStatus: previous,
		NewStatus:      next,
		UpdatedAtUtc:   at,
		UpdatedBy:      actor,
		CustomerID:     customerID,
	}
}

// StockUpdateMessage is emitted whenever stock changes; QuantityChange is
// negative for a sale.
type StockUpdateMessage struct {
	EventID        string    `json:"event_id"`
	Type           string    `json:"type"`
	ProductID      string    `json:"product_id"`
	QuantityChange int       `json:"quantity_change"`
	UpdatedAtUtc   time.Time `json:"updated_at_utc"`
}

func NewStockUpdateMessage(productID string, quantityChange int, at time.Time) StockUpdateMessage {
	return StockUpdateMessage{
		EventID:        uuid.NewString(),
		Type:           MessageTypeStockUpdated,
		ProductID:      productID,
		QuantityChange: quantityChange,
		UpdatedAtUtc:   at,
	}
}

// Notifier is the outbound message sink. Both methods are fire-and-forget:
// they enqueue and return immediately, and delivery failure never reaches the
// mutation path that triggered the message.
type Notifier interface {
	EmitOrderStatus(msg OrderStatusMessage)
	EmitStockUpdate(msg StockUpdateMessage)
}
