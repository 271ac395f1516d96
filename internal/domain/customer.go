package domain

import (
	"context"
	"time"
)

type CustomerRole string

const (
	RoleCustomer CustomerRole = "Customer"
	RoleAdmin    CustomerRole = "Admin"
)

type CustomerStatus string

const (
	CustomerActive   CustomerStatus = "Active"
	CustomerInactive CustomerStatus = "Inactive"
)

type Customer struct {
	ID              string         `json:"id"`
	Name            string         `json:"name"`
	Surname         string         `json:"surname"`
	Username        string         `json:"username"`
	Email           string         `json:"email"`
	PasswordHash    string         `json:"-"`
	Role            CustomerRole   `json:"role"`
	Status          CustomerStatus `json:"status"`
	ShippingAddress string         `json:"shipping_address"`
	Phone           string         `json:"phone"`
	CreatedAt       time.Time      `json:"created_at"`
	LastLogin       *time.Time     `json:"last_login,omitempty"`
	LastModified    time.Time      `json:"last_modified"`
}

func (c *Customer) IsActive() bool {
	return c.Status == CustomerActive
}

type CustomerRepository interface {
	CreateCustomer(ctx context.Context, customer *Customer) (*Customer, error)
	GetCustomerByID(ctx context.Context, id string) (*Customer, error)
	GetCustomerByEmail(ctx context.Context, email string) (*Customer, error)
	GetCustomerByUsername(ctx context.Context, username string) (*Customer, error)
	ListCustomers(ctx context.Context, limit, offset int) ([]Customer, error)
	UpdateCustomer(ctx context.Context, customer *Customer) (*Customer, error)
	// DeleteCustomer is a soft delete: status flips to Inactive and historical
	// orders keep their customer reference.
	DeleteCustomer(ctx context.Context, id string) error
	UpdateLastLogin(ctx context.Context, id string, at time.Time) error
}

type CustomerUseCase interface {
	Register(ctx context.Context, customer *Customer, password string) (*Customer, error)
	Authenticate(ctx context.Context, usernameOrEmail, password string) (*Customer, error)
	GetCustomerByID(ctx context.Context, id string) (*Customer, error)
	ListCustomers(ctx context.Context, limit, offset int) ([]Customer, error)
	UpdateCustomer(ctx context.Context, customer *Customer) (*Customer, error)
	DeactivateCustomer(ctx context.Context, id string) error
}
