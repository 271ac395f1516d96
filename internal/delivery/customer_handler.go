package delivery

import (
	"net/http"

	"retail_service/internal/domain"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

type CustomerHandler struct {
	customerUseCase domain.CustomerUseCase
	log             *logrus.Logger
}

func NewCustomerHandler(uc domain.CustomerUseCase, logger *logrus.Logger) *CustomerHandler {
	return &CustomerHandler{
		customerUseCase: uc,
		log:             logger,
	}
}

func (h *CustomerHandler) RegisterRoutes(router gin.IRouter) {
	customers := router.Group("/customers")
	{
		customers.POST("", h.Register)
		customers.POST("/login", h.Login)
		customers.GET("", h.ListCustomers)
		customers.GET("/:id", h.GetCustomerByID)
		customers.PUT("/:id", h.UpdateCustomer)
		customers.DELETE("/:id", h.DeleteCustomer)
	}
}

type registerRequest struct {
	Name            string `json:"name" binding:"required"`
	Surname         string `json:"surname"`
	Username        string `json:"username" binding:"required"`
	Email           string `json:"email" binding:"required"`
	Password        string `json:"password" binding:"required"`
	ShippingAddress string `json:"shipping_address"`
	Phone           string `json:"phone"`
}

func (h *CustomerHandler) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.Warnf("Failed to bind JSON for customer registration: %v", err)
		ErrorResponse(c, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	customer := &domain.Customer{
		Name:            req.Name,
		Surname:         req.Surname,
		Username:        req.Username,
		Email:           req.Email,
		ShippingAddress: req.ShippingAddress,
		Phone:           req.Phone,
	}

	created, err := h.customerUseCase.Register(c.Request.Context(), customer, req.Password)
	if err != nil {
		statusCode, msg := mapErrorToStatus(err)
		h.log.Warnf("Failed to register customer %s: %v", req.Username, err)
		ErrorResponse(c, statusCode, msg)
		return
	}

	h.log.Infof("Customer %s registered", created.ID)
	SuccessResponse(c, http.StatusCreated, "Customer registered successfully", created)
}

type loginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func (h *CustomerHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	customer, err := h.customerUseCase.Authenticate(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		h.log.Warnf("Authentication failed for %s: %v", req.Username, err)
		ErrorResponse(c, http.StatusUnauthorized, "Invalid username or password")
		return
	}

	SuccessResponse(c, http.StatusOK, "Authentication successful", customer)
}

func (h *CustomerHandler) GetCustomerByID(c *gin.Context) {
	id := c.Param("id")
	requestorID := actorID(c)
	if requestorID != id && !isAdmin(c) {
		ErrorResponse(c, http.StatusForbidden, "You are not authorized to view this customer")
		return
	}

	customer, err := h.customerUseCase.GetCustomerByID(c.Request.Context(), id)
	if err != nil {
		statusCode, msg := mapErrorToStatus(err)
		h.log.Warnf("Failed to get customer %s: %v", id, err)
		ErrorResponse(c, statusCode, msg)
		return
	}

	SuccessResponse(c, http.StatusOK, "Customer retrieved successfully", customer)
}

func (h *CustomerHandler) ListCustomers(c *gin.Context) {
	if !isAdmin(c) {
		ErrorResponse(c, http.StatusForbidden, "Only administrators can list customers")
		return
	}
	limit, offset := paginationParams(c)

	customers, err := h.customerUseCase.ListCustomers(c.Request.Context(), limit, offset)
	if err != nil {
		h.log.Errorf("Failed to list customers: %v", err)
		ErrorResponse(c, http.StatusInternalServerError, "Failed to retrieve customers")
		return
	}

	SuccessResponse(c, http.StatusOK, "Customers retrieved successfully", customers)
}

func (h *CustomerHandler) UpdateCustomer(c *gin.Context) {
	id := c.Param("id")
	requestorID := actorID(c)
	if requestorID != id && !isAdmin(c) {
		ErrorResponse(c, http.StatusForbidden, "You are not authorized to update this customer")
		return
	}

	var customer domain.Customer
	if err := c.ShouldBindJSON(&customer); err != nil {
		h.log.Warnf("Failed to bind JSON for update customer %s: %v", id, err)
		ErrorResponse(c, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	customer.ID = id

	updated, err := h.customerUseCase.UpdateCustomer(c.Request.Context(), &customer)
	if err != nil {
		statusCode, msg := mapErrorToStatus(err)
		h.log.Warnf("Failed to update customer %s: %v", id, err)
		ErrorResponse(c, statusCode, msg)
		return
	}

	SuccessResponse(c, http.StatusOK, "Customer updated successfully", updated)
}

func (h *CustomerHandler) DeleteCustomer(c *gin.Context) {
	if !isAdmin(c) {
		ErrorResponse(c, http.StatusForbidden, "Only administrators can delete customers")
		return
	}
	id := c.Param("id")

	if err := h.customerUseCase.DeactivateCustomer(c.Request.Context(), id); err != nil {
		statusCode, msg := mapErrorToStatus(err)
		h.log.Warnf("Failed to delete customer %s: %v", id, err)
		ErrorResponse(c, statusCode, msg)
		return
	}

	h.log.Infof("Customer %s deactivated", id)
	SuccessResponse(c, http.StatusOK, "Customer deleted successfully", nil)
}
