package delivery

import (
	"net/http"

	"retail_service/internal/domain"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

type CartHandler struct {
	cartUseCase domain.CartUseCase
	log         *logrus.Logger
}

func NewCartHandler(uc domain.CartUseCase, logger *logrus.Logger) *CartHandler {
	return &CartHandler{
		cartUseCase: uc,
		log:         logger,
	}
}

func (h *CartHandler) RegisterRoutes(router gin.IRouter) {
	cart := router.Group("/cart")
	{
		cart.GET("", h.GetCart)
		cart.POST("/items", h.AddToCart)
		cart.PATCH("/items/:productId", h.UpdateCartItem)
		cart.DELETE("/items/:productId", h.RemoveFromCart)
		cart.DELETE("", h.ClearCart)
	}
}

type cartResponse struct {
	*domain.Cart
	TotalItems  int    `json:"total_items"`
	TotalAmount string `json:"total_amount"`
}

func toCartResponse(cart *domain.Cart) cartResponse {
	return cartResponse{
		Cart:        cart,
		TotalItems:  cart.TotalItems(),
		TotalAmount: cart.TotalAmount().StringFixed(2),
	}
}

func (h *CartHandler) GetCart(c *gin.Context) {
	customerID := actorID(c)
	if customerID == "" {
		ErrorResponse(c, http.StatusUnauthorized, "User identification missing")
		return
	}

	cart, err := h.cartUseCase.GetCart(c.Request.Context(), customerID)
	if err != nil {
		statusCode, msg := mapErrorToStatus(err)
		h.log.Errorf("Failed to get cart for customer %s: %v", customerID, err)
		ErrorResponse(c, statusCode, msg)
		return
	}

	SuccessResponse(c, http.StatusOK, "Cart retrieved successfully", toCartResponse(cart))
}

type addToCartRequest struct {
	ProductID string `json:"product_id" binding:"required"`
	Quantity  int    `json:"quantity" binding:"required"`
}

func (h *CartHandler) AddToCart(c *gin.Context) {
	customerID := actorID(c)
	if customerID == "" {
		ErrorResponse(c, http.StatusUnauthorized, "User identification missing")
		return
	}

	var req addToCartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.Warnf("Failed to bind JSON for add to cart (customer %s): %v", customerID, err)
		ErrorResponse(c, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	cart, err := h.cartUseCase.AddToCart(c.Request.Context(), customerID, req.ProductID, req.Quantity)
	if err != nil {
		statusCode, msg := mapErrorToStatus(err)
		h.log.Warnf("Failed to add product %s to cart for customer %s: %v", req.ProductID, customerID, err)
		ErrorResponse(c, statusCode, msg)
		return
	}

	SuccessResponse(c, http.StatusOK, "Product added to cart", toCartResponse(cart))
}

type updateCartItemRequest struct {
	Quantity *int `json:"quantity" binding:"required"`
}

func (h *CartHandler) UpdateCartItem(c *gin.Context) {
	customerID := actorID(c)
	if customerID == "" {
		ErrorResponse(c, http.StatusUnauthorized, "User identification missing")
		return
	}
	productID := c.Param("productId")

	var req updateCartItemRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Quantity == nil {
		ErrorResponse(c, http.StatusBadRequest, "Invalid request body: 'quantity' field is required")
		return
	}

	cart, err := h.cartUseCase.UpdateCartItem(c.Request.Context(), customerID, productID, *req.Quantity)
	if err != nil {
		statusCode, msg := mapErrorToStatus(err)
		h.log.Warnf("Failed to update cart item %s for customer %s: %v", productID, customerID, err)
		ErrorResponse(c, statusCode, msg)
		return
	}

	SuccessResponse(c, http.StatusOK, "Cart item updated", toCartResponse(cart))
}

func (h *CartHandler) RemoveFromCart(c *gin.Context) {
	customerID := actorID(c)
	if customerID == "" {
		ErrorResponse(c, http.StatusUnauthorized, "User identification missing")
		return
	}
	productID := c.Param("productId")

	cart, err := h.cartUseCase.RemoveFromCart(c.Request.Context(), customerID, productID)
	if err != nil {
		statusCode, msg := mapErrorToStatus(err)
		h.log.Warnf("Failed to remove product %s from cart for customer %s: %v", productID, customerID, err)
		ErrorResponse(c, statusCode, msg)
		return
	}

	SuccessResponse(c, http.StatusOK, "Product removed from cart", toCartResponse(cart))
}

func (h *CartHandler) ClearCart(c *gin.Context) {
	customerID := actorID(c)
	if customerID == "" {
		ErrorResponse(c, http.StatusUnauthorized, "User identification missing")
		return
	}

	if err := h.cartUseCase.ClearCart(c.Request.Context(), customerID); err != nil {
		statusCode, msg := mapErrorToStatus(err)
		h.log.Errorf("Failed to clear cart for customer %s: %v", customerID, err)
		ErrorResponse(c, statusCode, msg)
		return
	}

	SuccessResponse(c, http.StatusOK, "Cart cleared", nil)
}
