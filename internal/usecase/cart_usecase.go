package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"retail_service/internal/domain"

	"github.com/sirupsen/logrus"
)

var _ domain.CartUseCase = (*cartUseCase)(nil)

type cartUseCase struct {
	cartStore   domain.CartStore
	productRepo domain.ProductRepository
	log         *logrus.Logger
}

func NewCartUseCase(cartStore domain.CartStore, productRepo domain.ProductRepository, logger *logrus.Logger) domain.CartUseCase {
	return &cartUseCase{
		cartStore:   cartStore,
		productRepo: productRepo,
		log:         logger,
	}
}

func (uc *cartUseCase) GetCart(ctx context.Context, customerID string) (*domain.Cart, error) {
	if customerID == "" {
		return nil, errors.New("invalid customer ID")
	}
	cart, err := uc.cartStore.GetCart(ctx, customerID)
	if err != nil {
		uc.log.Errorf("Use Case: Failed to get cart for customer %s: %v", customerID, err)
		return nil, err
	}
	if cart == nil {
		cart = domain.NewCart(customerID, time.Now().UTC())
	}
	return cart, nil
}

// AddToCart resolves the product, snapshots its current name and price into the
// line, and increments any existing line for the same product. The cart is
// created lazily on first add.
func (uc *cartUseCase) AddToCart(ctx context.Context, customerID, productID string, quantity int) (*domain.Cart, error) {
	if customerID == "" {
		return nil, errors.New("invalid customer ID")
	}
	if quantity <= 0 {
		return nil, fmt.Errorf("quantity must be positive, got %d", quantity)
	}

	product, err := uc.productRepo.GetProductByID(ctx, productID)
	if err != nil {
		uc.log.Warnf("Use Case: Add to cart failed - could not resolve product %s: %v", productID, err)
		return nil, err
	}
	if !product.IsActive {
		uc.log.Warnf("Use Case: Add to cart rejected - product %s is inactive", productID)
		return nil, &domain.ProductNotFoundError{ProductID: productID}
	}

	cart, err := uc.cartStore.GetCart(ctx, customerID)
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	if cart == nil {
		cart = domain.NewCart(customerID, now)
	}

	cart.AddOrUpdate(product.ID, product.ProductName, product.Price, quantity)
	cart.LastModified = now

	if err := uc.cartStore.SaveCart(ctx, cart); err != nil {
		return nil, err
	}

	uc.log.Infof("Use Case: Added product %s (quantity %d) to cart for customer %s, cart now holds %d items",
		productID, quantity, customerID, cart.TotalItems())
	return cart, nil
}

func (uc *cartUseCase) UpdateCartItem(ctx context.Context, customerID, productID string, quantity int) (*domain.Cart, error) {
	if quantity < 0 {
		return nil, fmt.Errorf("quantity cannot be negative, got %d", quantity)
	}

	cart, err := uc.cartStore.GetCart(ctx, customerID)
	if err != nil {
		return nil, err
	}
	if cart == nil {
		return nil, &domain.EmptyCartError{CustomerID: customerID}
	}

	cart.SetQuantity(productID, quantity)
	cart.LastModified = time.Now().UTC()

	if err := uc.cartStore.SaveCart(ctx, cart); err != nil {
		return nil, err
	}

	uc.log.Infof("Use Case: Updated cart item %s to quantity %d for customer %s", productID, quantity, customerID)
	return cart, nil
}

func (uc *cartUseCase) RemoveFromCart(ctx context.Context, customerID, productID string) (*domain.Cart, error) {
	cart, err := uc.cartStore.GetCart(ctx, customerID)
	if err != nil {
		return nil, err
	}
	if cart == nil {
		// Removing from a non-existent cart is a no-op.
		return domain.NewCart(customerID, time.Now().UTC()), nil
	}

	cart.Remove(productID)
	cart.LastModified = time.Now().UTC()

	if err := uc.cartStore.SaveCart(ctx, cart); err != nil {
		return nil, err
	}

	uc.log.Infof("Use Case: Removed product %s from cart for customer %s", productID, customerID)
	return cart, nil
}

func (uc *cartUseCase) ClearCart(ctx context.Context, customerID string) error {
	if err := uc.cartStore.DeleteCart(ctx, customerID); err != nil {
		uc.log.Errorf("Use Case: Failed to clear cart for customer %s: %v", customerID, err)
		return err
	}
	uc.log.Infof("Use Case: Cart cleared for customer %s", customerID)
	return nil
}
