package delivery

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"retail_service/internal/domain"

	"github.com/stretchr/testify/assert"
)

func TestMapErrorToStatus(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{"empty cart", &domain.EmptyCartError{CustomerID: "c"}, http.StatusBadRequest},
		{"customer not found", &domain.CustomerNotFoundError{CustomerID: "c"}, http.StatusNotFound},
		{"product not found", &domain.ProductNotFoundError{ProductID: "p"}, http.StatusNotFound},
		{"order not found", &domain.OrderNotFoundError{OrderID: "o"}, http.StatusNotFound},
		{"insufficient stock", &domain.InsufficientStockError{ProductID: "p", Requested: 3, Available: 2}, http.StatusConflict},
		{"invalid transition", &domain.InvalidTransitionError{OrderID: "o", From: domain.StatusDelivered, To: domain.StatusCancelled}, http.StatusConflict},
		{"wrapped typed error", fmt.Errorf("placing order: %w", &domain.InsufficientStockError{ProductID: "p"}), http.StatusConflict},
		{"duplicate", errors.New("customer with this username or email already exists"), http.StatusConflict},
		{"validation message", errors.New("quantity must be positive, got 0"), http.StatusBadRequest},
		{"empty field message", errors.New("customer name cannot be empty"), http.StatusBadRequest},
		{"unknown failure", errors.New("pq: connection refused"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, message := mapErrorToStatus(tt.err)
			assert.Equal(t, tt.wantStatus, status)
			if tt.wantStatus == http.StatusInternalServerError {
				// Infrastructure detail must not leak to clients.
				assert.Equal(t, "Something went wrong. Please try again.", message)
			} else {
				assert.Equal(t, tt.err.Error(), message)
			}
		})
	}
}

func TestInsufficientStockMessageNamesProductAndCounts(t *testing.T) {
	err := &domain.InsufficientStockError{ProductID: "prod-9", Requested: 3, Available: 2}
	_, message := mapErrorToStatus(err)
	assert.Equal(t, "insufficient stock for product prod-9 (requested: 3, available: 2)", message)
}
