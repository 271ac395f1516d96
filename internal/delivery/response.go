package delivery

import (
	"errors"
	"net/http"
	"strings"

	"retail_service/internal/domain"

	"github.com/gin-gonic/gin"
)

type Response struct {
	Status  string      `json:"Status"`
	Message string      `json:"Message"`
	Data    interface{} `json:"Data,omitempty"`
}

func SuccessResponse(c *gin.Context, statusCode int, message string, data interface{}) {
	c.JSON(statusCode, Response{
		Status:  "Success",
		Message: message,
		Data:    data,
	})
}

func ErrorResponse(c *gin.Context, statusCode int, message string) {
	c.JSON(statusCode, Response{
		Status:  "Fail",
		Message: message,
	})
}

// mapErrorToStatus translates domain errors into HTTP status codes. Typed
// validation errors map to 4xx with their own message; anything else is an
// infrastructure failure and must not leak internal detail.
func mapErrorToStatus(err error) (int, string) {
	var emptyCart *domain.EmptyCartError
	var customerNotFound *domain.CustomerNotFoundError
	var productNotFound *domain.ProductNotFoundError
	var insufficientStock *domain.InsufficientStockError
	var invalidTransition *domain.InvalidTransitionError
	var orderNotFound *domain.OrderNotFoundError

	switch {
	case errors.As(err, &emptyCart):
		return http.StatusBadRequest, err.Error()
	case errors.As(err, &customerNotFound):
		return http.StatusNotFound, err.Error()
	case errors.As(err, &productNotFound):
		return http.StatusNotFound, err.Error()
	case errors.As(err, &insufficientStock):
		return http.StatusConflict, err.Error()
	case errors.As(err, &invalidTransition):
		return http.StatusConflict, err.Error()
	case errors.As(err, &orderNotFound):
		return http.StatusNotFound, err.Error()
	}

	errMsg := strings.ToLower(err.Error())
	if strings.Contains(errMsg, "already exists") {
		return http.StatusConflict, err.Error()
	}
	if strings.Contains(errMsg, "invalid") || strings.Contains(errMsg, "cannot be empty") ||
		strings.Contains(errMsg, "must be") || strings.Contains(errMsg, "cannot be negative") ||
		strings.Contains(errMsg, "must contain") {
		return http.StatusBadRequest, err.Error()
	}

	return http.StatusInternalServerError, "Something went wrong. Please try again."
}
