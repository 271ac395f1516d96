package domain

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// CartLine is one product selection inside a customer's cart. ProductName and
// UnitPrice are snapshots taken when the line was added.
type CartLine struct {
	ProductID   string          `json:"product_id"`
	ProductName string          `json:"product_name"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Quantity    int             `json:"quantity"`
}

func (l CartLine) TotalPrice() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// Cart is the per-customer aggregate of intended purchases. It is held in the
// cart store for the duration of a session; concurrent edits from two devices
// are last-write-wins.
type Cart struct {
	CustomerID   string     `json:"customer_id"`
	Lines        []CartLine `json:"lines"`
	CreatedAt    time.Time  `json:"created_at"`
	LastModified time.Time  `json:"last_modified"`
}

func NewCart(customerID string, now time.Time) *Cart {
	return &Cart{
		CustomerID:   customerID,
		Lines:        []CartLine{},
		CreatedAt:    now,
		LastModified: now,
	}
}

// AddOrUpdate increments the quantity of an existing line or appends a new one.
// Callers must reject non-positive quantities before calling.
func (c *Cart) AddOrUpdate(productID, productName string, unitPrice decimal.Decimal, quantity int) {
	for i := range c.Lines {
		if c.Lines[i].ProductID == productID {
			c.Lines[i].Quantity += quantity
			return
		}
	}
	c.Lines = append(c.Lines, CartLine{
		ProductID:   productID,
		ProductName: productName,
		UnitPrice:   unitPrice,
		Quantity:    quantity,
	})
}

// SetQuantity overwrites the quantity of an existing line; a quantity of zero
// or less removes the line. Unknown product ids are a no-op.
func (c *Cart) SetQuantity(productID string, quantity int) {
	if quantity <= 0 {
		c.Remove(productID)
		return
	}
	for i := range c.Lines {
		if c.Lines[i].ProductID == productID {
			c.Lines[i].Quantity = quantity
			return
		}
	}
}

// Remove deletes the line for productID. Absent lines are a no-op, not an error.
func (c *Cart) Remove(productID string) {
	for i := range c.Lines {
		if c.Lines[i].ProductID == productID {
			c.Lines = append(c.Lines[:i], c.Lines[i+1:]...)
			return
		}
	}
}

func (c *Cart) TotalItems() int {
	total := 0
	for _, line := range c.Lines {
		total += line.Quantity
	}
	return total
}

func (c *Cart) TotalAmount() decimal.Decimal {
	total := decimal.Zero
	for _, line := range c.Lines {
		total = total.Add(line.TotalPrice())
	}
	return total
}

func (c *Cart) Clear() {
	c.Lines = []CartLine{}
}

func (c *Cart) IsEmpty() bool {
	return len(c.Lines) == 0
}

// CartStore persists carts per customer. GetCart returns (nil, nil) when the
// customer has no cart yet; carts are created lazily on first add.
type CartStore interface {
	GetCart(ctx context.Context, customerID string) (*Cart, error)
	SaveCart(ctx context.Context, cart *Cart) error
	DeleteCart(ctx context.Context, customerID string) error
}

type CartUseCase interface {
	GetCart(ctx context.Context, customerID string) (*Cart, error)
	AddToCart(ctx context.Context, customerID, productID string, quantity int) (*Cart, error)
	UpdateCartItem(ctx context.Context, customerID, productID string, quantity int) (*Cart, error)
	RemoveFromCart(ctx context.Context, customerID, productID string) (*Cart, error)
	ClearCart(ctx context.Context, customerID string) error
}
