package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"retail_service/internal/domain"

	"github.com/sirupsen/logrus"
)

var _ domain.ProductUseCase = (*productUseCase)(nil)

type productUseCase struct {
	productRepo domain.ProductRepository
	notifier    domain.Notifier
	log         *logrus.Logger
}

func NewProductUseCase(repo domain.ProductRepository, notifier domain.Notifier, logger *logrus.Logger) domain.ProductUseCase {
	return &productUseCase{
		productRepo: repo,
		notifier:    notifier,
		log:         logger,
	}
}

func validateProduct(product *domain.Product) error {
	if strings.TrimSpace(product.ProductName) == "" {
		return errors.New("product name cannot be empty")
	}
	if product.Price.IsNegative() {
		return errors.New("product price cannot be negative")
	}
	if product.StockAvailable < 0 {
		return errors.New("product stock cannot be negative")
	}
	return nil
}

func (uc *productUseCase) CreateProduct(ctx context.Context, product *domain.Product) (*domain.Product, error) {
	if err := validateProduct(product); err != nil {
		uc.log.Warnf("Use Case: Product creation rejected: %v", err)
		return nil, err
	}

	created, err := uc.productRepo.CreateProduct(ctx, product)
	if err != nil {
		uc.log.Errorf("Use Case: Failed to create product '%s': %v", product.ProductName, err)
		return nil, err
	}

	uc.log.Infof("Use Case: Product created with ID %s", created.ID)
	return created, nil
}

func (uc *productUseCase) GetProductByID(ctx context.Context, id string) (*domain.Product, error) {
	if id == "" {
		return nil, errors.New("invalid product ID")
	}
	product, err := uc.productRepo.GetProductByID(ctx, id)
	if err != nil {
		uc.log.Warnf("Use Case: Failed to get product %s: %v", id, err)
		return nil, err
	}
	return product, nil
}

func (uc *productUseCase) ListProducts(ctx context.Context, limit, offset int) ([]domain.Product, error) {
	products, err := uc.productRepo.ListProducts(ctx, limit, offset)
	if err != nil {
		uc.log.Errorf("Use Case: Failed to list products: %v", err)
		return nil, fmt.Errorf("could not retrieve products: %w", err)
	}
	return products, nil
}

// UpdateProduct applies an admin edit. A manual stock change is reported to the
// stock-update sink the same way a sale is, so downstream inventory analytics
// see every movement.
func (uc *productUseCase) UpdateProduct(ctx context.Context, product *domain.Product) (*domain.Product, error) {
	if product.ID == "" {
		return nil, errors.New("invalid product ID")
	}
	if err := validateProduct(product); err != nil {
		uc.log.Warnf("Use Case: Product update rejected for %s: %v", product.ID, err)
		return nil, err
	}

	existing, err := uc.productRepo.GetProductByID(ctx, product.ID)
	if err != nil {
		uc.log.Warnf("Use Case: Product update failed - could not resolve %s: %v", product.ID, err)
		return nil, err
	}
	stockDelta := product.StockAvailable - existing.StockAvailable

	updated, err := uc.productRepo.UpdateProduct(ctx, product)
	if err != nil {
		uc.log.Errorf("Use Case: Failed to update product %s: %v", product.ID, err)
		return nil, err
	}

	if stockDelta != 0 {
		uc.notifier.EmitStockUpdate(domain.NewStockUpdateMessage(updated.ID, stockDelta, time.Now().UTC()))
	}

	uc.log.Infof("Use Case: Product %s updated", updated.ID)
	return updated, nil
}

func (uc *productUseCase) DeleteProduct(ctx context.Context, id string) error {
	if id == "" {
		return errors.New("invalid product ID")
	}
	if err := uc.productRepo.DeleteProduct(ctx, id); err != nil {
		uc.log.Errorf("Use Case: Failed to delete product %s: %v", id, err)
		return err
	}
	uc.log.Infof("Use Case: Product %s deactivated", id)
	return nil
}
