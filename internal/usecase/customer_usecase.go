package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode"

	"retail_service/internal/domain"

	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
)

var _ domain.CustomerUseCase = (*customerUseCase)(nil)

type customerUseCase struct {
	customerRepo domain.CustomerRepository
	log          *logrus.Logger
}

func NewCustomerUseCase(repo domain.CustomerRepository, logger *logrus.Logger) domain.CustomerUseCase {
	return &customerUseCase{
		customerRepo: repo,
		log:          logger,
	}
}

// Register validates the profile, hashes the password, and stores the customer
// as Active. Username/email uniqueness is left to the database constraint so
// the check stays atomic with the insert.
func (uc *customerUseCase) Register(ctx context.Context, customer *domain.Customer, password string) (*domain.Customer, error) {
	customer.Name = strings.TrimSpace(customer.Name)
	customer.Username = strings.TrimSpace(customer.Username)
	customer.Email = strings.ToLower(strings.TrimSpace(customer.Email))

	if customer.Name == "" {
		return nil, errors.New("customer name cannot be empty")
	}
	if customer.Username == "" {
		return nil, errors.New("username cannot be empty")
	}
	if !isValidEmail(customer.Email) {
		uc.log.Warnf("Use Case: Registration failed - invalid email format: %s", customer.Email)
		return nil, errors.New("invalid email format")
	}
	if err := validatePassword(password); err != nil {
		uc.log.Warnf("Use Case: Registration failed - password validation error: %v", err)
		return nil, err
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		uc.log.Errorf("Use Case: Failed to hash password for %s: %v", customer.Email, err)
		return nil, fmt.Errorf("internal error processing password: %w", err)
	}
	customer.PasswordHash = string(hashedPassword)

	if customer.Role == "" {
		customer.Role = domain.RoleCustomer
	}
	customer.Status = domain.CustomerActive

	created, err := uc.customerRepo.CreateCustomer(ctx, customer)
	if err != nil {
		uc.log.Errorf("Use Case: Repository failed to create customer %s: %v", customer.Email, err)
		return nil, err
	}

	uc.log.Infof("Use Case: Customer registered successfully. ID: %s, Username: %s", created.ID, created.Username)
	return created, nil
}

// Authenticate resolves the customer by username or email and verifies the
// password. Inactive customers cannot sign in. A failed match is reported the
// same way as an unknown customer.
func (uc *customerUseCase) Authenticate(ctx context.Context, usernameOrEmail, password string) (*domain.Customer, error) {
	usernameOrEmail = strings.TrimSpace(usernameOrEmail)
	if usernameOrEmail == "" || password == "" {
		return nil, errors.New("invalid username or password")
	}

	customer, err := uc.customerRepo.GetCustomerByUsername(ctx, usernameOrEmail)
	if err != nil {
		var notFound *domain.CustomerNotFoundError
		if !errors.As(err, &notFound) {
			uc.log.Errorf("Use Case: Error retrieving customer %s during auth: %v", usernameOrEmail, err)
			return nil, fmt.Errorf("failed to retrieve customer: %w", err)
		}
		customer, err = uc.customerRepo.GetCustomerByEmail(ctx, usernameOrEmail)
		if err != nil {
			if errors.As(err, &notFound) {
				uc.log.Warnf("Use Case: Auth failed - customer not found: %s", usernameOrEmail)
				return nil, errors.New("invalid username or password")
			}
			uc.log.Errorf("Use Case: Error retrieving customer %s during auth: %v", usernameOrEmail, err)
			return nil, fmt.Errorf("failed to retrieve customer: %w", err)
		}
	}

	if !customer.IsActive() {
		uc.log.Warnf("Use Case: Auth failed - customer %s is inactive", customer.ID)
		return nil, errors.New("invalid username or password")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(customer.PasswordHash), []byte(password)); err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			uc.log.Warnf("Use Case: Auth failed - incorrect password for customer %s", customer.ID)
			return nil, errors.New("invalid username or password")
		}
		uc.log.Errorf("Use Case: Error comparing password hash for customer %s: %v", customer.ID, err)
		return nil, fmt.Errorf("internal error during authentication: %w", err)
	}

	if err := uc.customerRepo.UpdateLastLogin(ctx, customer.ID, time.Now().UTC()); err != nil {
		// Login stands even when the timestamp write fails.
		uc.log.Warnf("Use Case: Could not record last login for customer %s: %v", customer.ID, err)
	}

	uc.log.Infof("Use Case: Authentication successful for customer %s", customer.ID)
	return customer, nil
}

func (uc *customerUseCase) GetCustomerByID(ctx context.Context, id string) (*domain.Customer, error) {
	if id == "" {
		return nil, errors.New("invalid customer ID")
	}
	customer, err := uc.customerRepo.GetCustomerByID(ctx, id)
	if err != nil {
		uc.log.Warnf("Use Case: Failed to get customer %s: %v", id, err)
		return nil, err
	}
	return customer, nil
}

func (uc *customerUseCase) ListCustomers(ctx context.Context, limit, offset int) ([]domain.Customer, error) {
	customers, err := uc.customerRepo.ListCustomers(ctx, limit, offset)
	if err != nil {
		uc.log.Errorf("Use Case: Failed to list customers: %v", err)
		return nil, fmt.Errorf("could not retrieve customers: %w", err)
	}
	return customers, nil
}

func (uc *customerUseCase) UpdateCustomer(ctx context.Context, customer *domain.Customer) (*domain.Customer, error) {
	if customer.ID == "" {
		return nil, errors.New("invalid customer ID")
	}
	customer.Email = strings.ToLower(strings.TrimSpace(customer.Email))
	if !isValidEmail(customer.Email) {
		return nil, errors.New("invalid email format")
	}

	updated, err := uc.customerRepo.UpdateCustomer(ctx, customer)
	if err != nil {
		uc.log.Errorf("Use Case: Failed to update customer %s: %v", customer.ID, err)
		return nil, err
	}

	uc.log.Infof("Use Case: Customer %s updated", updated.ID)
	return updated, nil
}

func (uc *customerUseCase) DeactivateCustomer(ctx context.Context, id string) error {
	if id == "" {
		return errors.New("invalid customer ID")
	}
	if err := uc.customerRepo.DeleteCustomer(ctx, id); err != nil {
		uc.log.Errorf("Use Case: Failed to deactivate customer %s: %v", id, err)
		return err
	}
	uc.log.Infof("Use Case: Customer %s deactivated", id)
	return nil
}

func isValidEmail(email string) bool {
	parts := strings.Split(email, "@")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return false
	}
	domainParts := strings.Split(parts[1], ".")
	return len(domainParts) >= 2 && domainParts[0] != "" && domainParts[len(domainParts)-1] != ""
}

func validatePassword(password string) error {
	if len(password) < 8 {
		return errors.New("password must be at least 8 characters long")
	}
	hasUpper := false
	hasLower := false
	hasDigit := false
	for _, char := range password {
		switch {
		case unicode.IsUpper(char):
			hasUpper = true
		case unicode.IsLower(char):
			hasLower = true
		case unicode.IsDigit(char):
			hasDigit = true
		}
	}
	if !hasUpper {
		return errors.New("password must contain at least one uppercase letter")
	}
	if !hasLower {
		return errors.New("password must contain at least one lowercase letter")
	}
	if !hasDigit {
		return errors.New("password must contain at least one digit")
	}
	return nil
}
