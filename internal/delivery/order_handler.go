package delivery

import (
	"net/http"
	"strconv"

	"retail_service/internal/domain"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

type OrderHandler struct {
	orderUseCase domain.OrderUseCase
	cartUseCase  domain.CartUseCase
	log          *logrus.Logger
}

func NewOrderHandler(orderUC domain.OrderUseCase, cartUC domain.CartUseCase, logger *logrus.Logger) *OrderHandler {
	return &OrderHandler{
		orderUseCase: orderUC,
		cartUseCase:  cartUC,
		log:          logger,
	}
}

func (h *OrderHandler) RegisterRoutes(router gin.IRouter) {
	orders := router.Group("/orders")
	{
		orders.POST("", h.PlaceOrder)
		orders.GET("", h.ListOrders)
		orders.GET("/:id", h.GetOrderByID)
		orders.PATCH("/:id/status", h.UpdateOrderStatus)
		orders.POST("/:id/cancel", h.CancelOrder)
		orders.DELETE("/:id", h.DeleteOrder)
	}
}

// actorID pulls the caller identity from the X-User-ID header. Authentication
// itself lives at the gateway; this service only needs the identity for
// ownership checks and audit fields.
func actorID(c *gin.Context) string {
	return c.GetHeader("X-User-ID")
}

type placeOrderRequest struct {
	ShippingAddress string `json:"shipping_address"`
	CustomerNotes   string `json:"customer_notes"`
}

// PlaceOrder converts the caller's stored cart into an order.
func (h *OrderHandler) PlaceOrder(c *gin.Context) {
	customerID := actorID(c)
	if customerID == "" {
		h.log.Error("X-User-ID header is missing for PlaceOrder")
		ErrorResponse(c, http.StatusUnauthorized, "User identification missing")
		return
	}

	var req placeOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.Warnf("Failed to bind JSON for place order (customer %s): %v", customerID, err)
		ErrorResponse(c, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	cart, err := h.cartUseCase.GetCart(c.Request.Context(), customerID)
	if err != nil {
		statusCode, msg := mapErrorToStatus(err)
		h.log.Errorf("Failed to load cart for customer %s: %v", customerID, err)
		ErrorResponse(c, statusCode, msg)
		return
	}

	order, err := h.orderUseCase.PlaceOrder(c.Request.Context(), domain.PlaceOrderInput{
		CustomerID:      customerID,
		Lines:           cart.Lines,
		ShippingAddress: req.ShippingAddress,
		CustomerNotes:   req.CustomerNotes,
	})
	if err != nil {
		statusCode, msg := mapErrorToStatus(err)
		h.log.Warnf("Failed to place order for customer %s: %v", customerID, err)
		ErrorResponse(c, statusCode, msg)
		return
	}

	h.log.Infof("Order %s placed successfully for customer %s", order.ID, customerID)
	SuccessResponse(c, http.StatusCreated, "Order placed successfully", order)
}

func (h *OrderHandler) GetOrderByID(c *gin.Context) {
	id := c.Param("id")
	requestorID := actorID(c)
	if requestorID == "" {
		ErrorResponse(c, http.StatusUnauthorized, "User identification missing")
		return
	}

	order, err := h.orderUseCase.GetOrderByID(c.Request.Context(), id)
	if err != nil {
		statusCode, msg := mapErrorToStatus(err)
		h.log.Warnf("Failed to get order %s (requested by %s): %v", id, requestorID, err)
		ErrorResponse(c, statusCode, msg)
		return
	}

	if order.CustomerID != requestorID && !isAdmin(c) {
		h.log.Warnf("Authorization failed: %s attempted to access order %s owned by %s", requestorID, id, order.CustomerID)
		ErrorResponse(c, http.StatusForbidden, "You are not authorized to view this order")
		return
	}

	SuccessResponse(c, http.StatusOK, "Order retrieved successfully", order)
}

func (h *OrderHandler) ListOrders(c *gin.Context) {
	requestorID := actorID(c)
	if requestorID == "" {
		ErrorResponse(c, http.StatusUnauthorized, "User identification missing")
		return
	}
	limit, offset := paginationParams(c)

	var orders []domain.Order
	var err error
	if isAdmin(c) {
		orders, err = h.orderUseCase.ListOrders(c.Request.Context(), limit, offset)
	} else {
		orders, err = h.orderUseCase.ListOrdersByCustomer(c.Request.Context(), requestorID, limit, offset)
	}
	if err != nil {
		h.log.Errorf("Failed to list orders for %s: %v", requestorID, err)
		ErrorResponse(c, http.StatusInternalServerError, "Failed to retrieve orders")
		return
	}

	SuccessResponse(c, http.StatusOK, "Orders retrieved successfully", orders)
}

type statusUpdateRequest struct {
	Status *domain.OrderStatus `json:"status"`
}

func (h *OrderHandler) UpdateOrderStatus(c *gin.Context) {
	id := c.Param("id")
	actor := actorID(c)
	if actor == "" {
		ErrorResponse(c, http.StatusUnauthorized, "User identification missing")
		return
	}
	if !isAdmin(c) {
		ErrorResponse(c, http.StatusForbidden, "Only administrators can update order status")
		return
	}

	var req statusUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.Warnf("Failed to bind JSON for status update of order %s: %v", id, err)
		ErrorResponse(c, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if req.Status == nil {
		ErrorResponse(c, http.StatusBadRequest, "Invalid request body: 'status' field is required")
		return
	}
	if !domain.IsValidStatus(*req.Status) {
		ErrorResponse(c, http.StatusBadRequest, "Invalid request body: unknown status value '"+string(*req.Status)+"'")
		return
	}

	order, err := h.orderUseCase.UpdateOrderStatus(c.Request.Context(), id, *req.Status, actor)
	if err != nil {
		statusCode, msg := mapErrorToStatus(err)
		h.log.Warnf("Failed to update status for order %s: %v", id, err)
		ErrorResponse(c, statusCode, msg)
		return
	}

	h.log.Infof("Order %s status updated to %s by %s", order.ID, order.Status, actor)
	SuccessResponse(c, http.StatusOK, "Order status updated successfully", order)
}

// CancelOrder lets a customer cancel their own order; admins can cancel any.
func (h *OrderHandler) CancelOrder(c *gin.Context) {
	id := c.Param("id")
	actor := actorID(c)
	if actor == "" {
		ErrorResponse(c, http.StatusUnauthorized, "User identification missing")
		return
	}

	order, err := h.orderUseCase.GetOrderByID(c.Request.Context(), id)
	if err != nil {
		statusCode, msg := mapErrorToStatus(err)
		ErrorResponse(c, statusCode, msg)
		return
	}
	if order.CustomerID != actor && !isAdmin(c) {
		h.log.Warnf("Authorization failed: %s attempted to cancel order %s owned by %s", actor, id, order.CustomerID)
		ErrorResponse(c, http.StatusForbidden, "You can only cancel your own orders")
		return
	}

	cancelled, err := h.orderUseCase.CancelOrder(c.Request.Context(), id, actor)
	if err != nil {
		statusCode, msg := mapErrorToStatus(err)
		h.log.Warnf("Failed to cancel order %s: %v", id, err)
		ErrorResponse(c, statusCode, msg)
		return
	}

	h.log.Infof("Order %s cancelled by %s", id, actor)
	SuccessResponse(c, http.StatusOK, "Order cancelled successfully", cancelled)
}

func (h *OrderHandler) DeleteOrder(c *gin.Context) {
	id := c.Param("id")
	if !isAdmin(c) {
		ErrorResponse(c, http.StatusForbidden, "Only administrators can delete orders")
		return
	}

	if err := h.orderUseCase.DeleteOrder(c.Request.Context(), id); err != nil {
		statusCode, msg := mapErrorToStatus(err)
		h.log.Warnf("Failed to delete order %s: %v", id, err)
		ErrorResponse(c, statusCode, msg)
		return
	}

	h.log.Infof("Order %s deleted", id)
	SuccessResponse(c, http.StatusOK, "Order deleted successfully", nil)
}

// isAdmin trusts the gateway-set role header, mirroring the X-User-ID
// convention.
func isAdmin(c *gin.Context) bool {
	return c.GetHeader("X-User-Role") == string(domain.RoleAdmin)
}

func paginationParams(c *gin.Context) (int, int) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "10"))
	if err != nil || limit < 0 {
		limit = 10
	}
	if limit > 100 {
		limit = 100
	}
	offset, err := strconv.Atoi(c.DefaultQuery("offset", "0"))
	if err != nil || offset < 0 {
		offset = 0
	}
	return limit, offset
}
