package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"retail_service/internal/domain"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/sirupsen/logrus"
)

const customerColumns = `id, name, surname, username, email, password_hash, role, status, shipping_address, phone, created_at, last_login, last_modified`

type postgresCustomerRepository struct {
	db  *sql.DB
	log *logrus.Logger
}

func NewPostgresCustomerRepository(db *sql.DB, logger *logrus.Logger) domain.CustomerRepository {
	return &postgresCustomerRepository{
		db:  db,
		log: logger,
	}
}

func (r *postgresCustomerRepository) CreateCustomer(ctx context.Context, customer *domain.Customer) (*domain.Customer, error) {
	if customer.ID == "" {
		customer.ID = uuid.NewString()
	}
	query := `
        INSERT INTO customers (id, name, surname, username, email, password_hash, role, status, shipping_address, phone, created_at, last_modified)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, NOW(), NOW())
        RETURNING created_at, last_modified`

	err := r.db.QueryRowContext(ctx, query,
		customer.ID,
		customer.Name,
		customer.Surname,
		customer.Username,
		customer.Email,
		customer.PasswordHash,
		customer.Role,
		customer.Status,
		customer.ShippingAddress,
		customer.Phone,
	).Scan(&customer.CreatedAt, &customer.LastModified)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
			r.log.Warnf("Attempted to create customer with duplicate username or email: %s / %s", customer.Username, customer.Email)
			return nil, fmt.Errorf("customer with this username or email already exists")
		}
		r.log.Errorf("Failed to create customer '%s': %v", customer.Username, err)
		return nil, fmt.Errorf("could not create customer: %w", err)
	}

	r.log.Infof("Customer created successfully with ID: %s, Username: %s", customer.ID, customer.Username)
	return customer, nil
}

func (r *postgresCustomerRepository) GetCustomerByID(ctx context.Context, id string) (*domain.Customer, error) {
	query := `SELECT ` + customerColumns + ` FROM customers WHERE id = $1`
	return r.getCustomer(ctx, query, id)
}

func (r *postgresCustomerRepository) GetCustomerByEmail(ctx context.Context, email string) (*domain.Customer, error) {
	query := `SELECT ` + customerColumns + ` FROM customers WHERE LOWER(email) = LOWER($1)`
	return r.getCustomer(ctx, query, email)
}

func (r *postgresCustomerRepository) GetCustomerByUsername(ctx context.Context, username string) (*domain.Customer, error) {
	query := `SELECT ` + customerColumns + ` FROM customers WHERE LOWER(username) = LOWER($1)`
	return r.getCustomer(ctx, query, username)
}

func (r *postgresCustomerRepository) getCustomer(ctx context.Context, query string, arg interface{}) (*domain.Customer, error) {
	customer := &domain.Customer{}
	var lastLogin sql.NullTime

	err := r.db.QueryRowContext(ctx, query, arg).Scan(
		&customer.ID,
		&customer.Name,
		&customer.Surname,
		&customer.Username,
		&customer.Email,
		&customer.PasswordHash,
		&customer.Role,
		&customer.Status,
		&customer.ShippingAddress,
		&customer.Phone,
		&customer.CreatedAt,
		&lastLogin,
		&customer.LastModified,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, &domain.CustomerNotFoundError{CustomerID: fmt.Sprintf("%v", arg)}
		}
		r.log.Errorf("Failed to get customer (%v): %v", arg, err)
		return nil, fmt.Errorf("could not retrieve customer: %w", err)
	}
	if lastLogin.Valid {
		customer.LastLogin = &lastLogin.Time
	}

	return customer, nil
}

func (r *postgresCustomerRepository) ListCustomers(ctx context.Context, limit, offset int) ([]domain.Customer, error) {
	if limit <= 0 || limit > 100 {
		limit = 10
	}
	if offset < 0 {
		offset = 0
	}

	query := `SELECT ` + customerColumns + `
        FROM customers
        WHERE status = $1
        ORDER BY name, surname
        LIMIT $2 OFFSET $3`

	rows, err := r.db.QueryContext(ctx, query, domain.CustomerActive, limit, offset)
	if err != nil {
		r.log.Errorf("Failed to list customers: %v", err)
		return nil, fmt.Errorf("could not retrieve customers: %w", err)
	}
	defer rows.Close()

	var customers []domain.Customer
	for rows.Next() {
		var customer domain.Customer
		var lastLogin sql.NullTime
		if err := rows.Scan(
			&customer.ID,
			&customer.Name,
			&customer.Surname,
			&customer.Username,
			&customer.Email,
			&customer.PasswordHash,
			&customer.Role,
			&customer.Status,
			&customer.ShippingAddress,
			&customer.Phone,
			&customer.CreatedAt,
			&lastLogin,
			&customer.LastModified,
		); err != nil {
			r.log.Errorf("Failed to scan customer row: %v", err)
			return nil, fmt.Errorf("error scanning customer data: %w", err)
		}
		if lastLogin.Valid {
			customer.LastLogin = &lastLogin.Time
		}
		customers = append(customers, customer)
	}
	if err = rows.Err(); err != nil {
		r.log.Errorf("Error during customers iteration: %v", err)
		return nil, fmt.Errorf("error iterating customers: %w", err)
	}

	if customers == nil {
		customers = []domain.Customer{}
	}
	return customers, nil
}

func (r *postgresCustomerRepository) UpdateCustomer(ctx context.Context, customer *domain.Customer) (*domain.Customer, error) {
	query := `
        UPDATE customers
        SET name = $1, surname = $2, username = $3, email = $4, shipping_address = $5,
            phone = $6, status = $7, last_modified = NOW()
        WHERE id = $8
        RETURNING last_modified`

	err := r.db.QueryRowContext(ctx, query,
		customer.Name,
		customer.Surname,
		customer.Username,
		customer.Email,
		customer.ShippingAddress,
		customer.Phone,
		customer.Status,
		customer.ID,
	).Scan(&customer.LastModified)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			r.log.Warnf("Customer with ID %s not found for update", customer.ID)
			return nil, &domain.CustomerNotFoundError{CustomerID: customer.ID}
		}
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
			r.log.Warnf("Duplicate username or email updating customer %s", customer.ID)
			return nil, fmt.Errorf("customer with this username or email already exists")
		}
		r.log.Errorf("Failed to update customer %s: %v", customer.ID, err)
		return nil, fmt.Errorf("could not update customer: %w", err)
	}

	r.log.Infof("Customer updated successfully: %s", customer.ID)
	return customer, nil
}

func (r *postgresCustomerRepository) DeleteCustomer(ctx context.Context, id string) error {
	query := `
        UPDATE customers
        SET status = $1, last_modified = NOW()
        WHERE id = $2`

	result, err := r.db.ExecContext(ctx, query, domain.CustomerInactive, id)
	if err != nil {
		r.log.Errorf("Failed to soft delete customer %s: %v", id, err)
		return fmt.Errorf("could not delete customer: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("could not confirm customer delete: %w", err)
	}
	if affected == 0 {
		r.log.Warnf("Customer with ID %s not found for delete", id)
		return &domain.CustomerNotFoundError{CustomerID: id}
	}

	r.log.Infof("Customer soft deleted: %s", id)
	return nil
}

func (r *postgresCustomerRepository) UpdateLastLogin(ctx context.Context, id string, at time.Time) error {
	query := `UPDATE customers SET last_login = $1 WHERE id = $2`
	if _, err := r.db.ExecContext(ctx, query, at, id); err != nil {
		r.log.Errorf("Failed to update last login for customer %s: %v", id, err)
		return fmt.Errorf("could not update last login: %w", err)
	}
	return nil
}
