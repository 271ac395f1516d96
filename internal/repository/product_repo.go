package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"retail_service/internal/domain"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/sirupsen/logrus"
)

type postgresProductRepository struct {
	db  *sql.DB
	log *logrus.Logger
}

func NewPostgresProductRepository(db *sql.DB, logger *logrus.Logger) domain.ProductRepository {
	return &postgresProductRepository{
		db:  db,
		log: logger,
	}
}

func (r *postgresProductRepository) CreateProduct(ctx context.Context, product *domain.Product) (*domain.Product, error) {
	if product.ID == "" {
		product.ID = uuid.NewString()
	}
	query := `
        INSERT INTO products (id, product_name, description, price, stock_available, is_active, category, image_url, last_modified)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW())
        RETURNING last_modified`

	err := r.db.QueryRowContext(ctx, query,
		product.ID,
		product.ProductName,
		product.Description,
		product.Price,
		product.StockAvailable,
		product.IsActive,
		product.Category,
		product.ImageURL,
	).Scan(&product.LastModified)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23514" {
			r.log.Warnf("Check constraint violation for product '%s': %s", product.ProductName, pqErr.Message)
			return nil, fmt.Errorf("product data constraint violation: %s", pqErr.Message)
		}
		r.log.Errorf("Failed to create product '%s': %v", product.ProductName, err)
		return nil, fmt.Errorf("could not create product: %w", err)
	}

	r.log.Infof("Product created successfully with ID: %s, Name: %s", product.ID, product.ProductName)
	return product, nil
}

func (r *postgresProductRepository) GetProductByID(ctx context.Context, id string) (*domain.Product, error) {
	query := `
        SELECT id, product_name, description, price, stock_available, is_active, category, image_url, last_modified
        FROM products
        WHERE id = $1`

	product := &domain.Product{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&product.ID,
		&product.ProductName,
		&product.Description,
		&product.Price,
		&product.StockAvailable,
		&product.IsActive,
		&product.Category,
		&product.ImageURL,
		&product.LastModified,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			r.log.Warnf("Product with ID %s not found", id)
			return nil, &domain.ProductNotFoundError{ProductID: id}
		}
		r.log.Errorf("Failed to get product by ID %s: %v", id, err)
		return nil, fmt.Errorf("could not get product by id: %w", err)
	}

	return product, nil
}

func (r *postgresProductRepository) ListProducts(ctx context.Context, limit, offset int) ([]domain.Product, error) {
	if limit <= 0 || limit > 100 {
		limit = 10
	}
	if offset < 0 {
		offset = 0
	}

	query := `
        SELECT id, product_name, description, price, stock_available, is_active, category, image_url, last_modified
        FROM products
        WHERE is_active = TRUE
        ORDER BY product_name
        LIMIT $1 OFFSET $2`

	rows, err := r.db.QueryContext(ctx, query, limit, offset)
	if err != nil {
		r.log.Errorf("Failed to list products: %v", err)
		return nil, fmt.Errorf("could not retrieve products: %w", err)
	}
	defer rows.Close()

	var products []domain.Product
	for rows.Next() {
		var product domain.Product
		if err := rows.Scan(
			&product.ID,
			&product.ProductName,
			&product.Description,
			&product.Price,
			&product.StockAvailable,
			&product.IsActive,
			&product.Category,
			&product.ImageURL,
			&product.LastModified,
		); err != nil {
			r.log.Errorf("Failed to scan product row: %v", err)
			return nil, fmt.Errorf("error scanning product data: %w", err)
		}
		products = append(products, product)
	}
	if err = rows.Err(); err != nil {
		r.log.Errorf("Error during products iteration: %v", err)
		return nil, fmt.Errorf("error iterating products: %w", err)
	}

	if products == nil {
		products = []domain.Product{}
	}
	return products, nil
}

func (r *postgresProductRepository) UpdateProduct(ctx context.Context, product *domain.Product) (*domain.Product, error) {
	query := `
        UPDATE products
        SET product_name = $1, description = $2, price = $3, stock_available = $4,
            is_active = $5, category = $6, image_url = $7, last_modified = NOW()
        WHERE id = $8
        RETURNING last_modified`

	err := r.db.QueryRowContext(ctx, query,
		product.ProductName,
		product.Description,
		product.Price,
		product.StockAvailable,
		product.IsActive,
		product.Category,
		product.ImageURL,
		product.ID,
	).Scan(&product.LastModified)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			r.log.Warnf("Product with ID %s not found for update", product.ID)
			return nil, &domain.ProductNotFoundError{ProductID: product.ID}
		}
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23514" {
			r.log.Warnf("Check constraint violation updating product %s: %s", product.ID, pqErr.Message)
			return nil, fmt.Errorf("product data constraint violation: %s", pqErr.Message)
		}
		r.log.Errorf("Failed to update product %s: %v", product.ID, err)
		return nil, fmt.Errorf("could not update product: %w", err)
	}

	r.log.Infof("Product updated successfully: %s", product.ID)
	return product, nil
}

func (r *postgresProductRepository) DeleteProduct(ctx context.Context, id string) error {
	query := `
        UPDATE products
        SET is_active = FALSE, last_modified = NOW()
        WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		r.log.Errorf("Failed to soft delete product %s: %v", id, err)
		return fmt.Errorf("could not delete product: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("could not confirm product delete: %w", err)
	}
	if affected == 0 {
		r.log.Warnf("Product with ID %s not found for delete", id)
		return &domain.ProductNotFoundError{ProductID: id}
	}

	r.log.Infof("Product soft deleted: %s", id)
	return nil
}

