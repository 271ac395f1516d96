package domain

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

type Product struct {
	ID             string          `json:"id"`
	ProductName    string          `json:"product_name"`
	Description    string          `json:"description"`
	Price          decimal.Decimal `json:"price"`
	StockAvailable int             `json:"stock_available"`
	IsActive       bool            `json:"is_active"`
	Category       string          `json:"category"`
	ImageURL       string          `json:"image_url"`
	LastModified   time.Time       `json:"last_modified"`
}

type ProductRepository interface {
	CreateProduct(ctx context.Context, product *Product) (*Product, error)
	// GetProductByID returns the product regardless of its active flag;
	// storefront paths filter on IsActive themselves.
	GetProductByID(ctx context.Context, id string) (*Product, error)
	ListProducts(ctx context.Context, limit, offset int) ([]Product, error)
	UpdateProduct(ctx context.Context, product *Product) (*Product, error)
	// DeleteProduct is a soft delete: it clears the active flag so historical
	// order items keep a valid reference.
	DeleteProduct(ctx context.Context, id string) error
}

type ProductUseCase interface {
	CreateProduct(ctx context.Context, product *Product) (*Product, error)
	GetProductByID(ctx context.Context, id string) (*Product, error)
	ListProducts(ctx context.Context, limit, offset int) ([]Product, error)
	UpdateProduct(ctx context.Context, product *Product) (*Product, error)
	DeleteProduct(ctx context.Context, id string) error
}
