package delivery

import (
	"net/http"

	"retail_service/internal/domain"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

type ProductHandler struct {
	productUseCase domain.ProductUseCase
	log            *logrus.Logger
}

func NewProductHandler(uc domain.ProductUseCase, logger *logrus.Logger) *ProductHandler {
	return &ProductHandler{
		productUseCase: uc,
		log:            logger,
	}
}

func (h *ProductHandler) RegisterRoutes(router gin.IRouter) {
	products := router.Group("/products")
	{
		products.GET("", h.ListProducts)
		products.GET("/:id", h.GetProductByID)
		products.POST("", h.CreateProduct)
		products.PUT("/:id", h.UpdateProduct)
		products.DELETE("/:id", h.DeleteProduct)
	}
}

func (h *ProductHandler) ListProducts(c *gin.Context) {
	limit, offset := paginationParams(c)
	products, err := h.productUseCase.ListProducts(c.Request.Context(), limit, offset)
	if err != nil {
		h.log.Errorf("Failed to list products: %v", err)
		ErrorResponse(c, http.StatusInternalServerError, "Failed to retrieve products")
		return
	}
	SuccessResponse(c, http.StatusOK, "Products retrieved successfully", products)
}

func (h *ProductHandler) GetProductByID(c *gin.Context) {
	id := c.Param("id")
	product, err := h.productUseCase.GetProductByID(c.Request.Context(), id)
	if err != nil {
		statusCode, msg := mapErrorToStatus(err)
		h.log.Warnf("Failed to get product %s: %v", id, err)
		ErrorResponse(c, statusCode, msg)
		return
	}
	SuccessResponse(c, http.StatusOK, "Product retrieved successfully", product)
}

func (h *ProductHandler) CreateProduct(c *gin.Context) {
	if !isAdmin(c) {
		ErrorResponse(c, http.StatusForbidden, "Only administrators can create products")
		return
	}

	var product domain.Product
	if err := c.ShouldBindJSON(&product); err != nil {
		h.log.Warnf("Failed to bind JSON for create product: %v", err)
		ErrorResponse(c, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	created, err := h.productUseCase.CreateProduct(c.Request.Context(), &product)
	if err != nil {
		statusCode, msg := mapErrorToStatus(err)
		h.log.Warnf("Failed to create product '%s': %v", product.ProductName, err)
		ErrorResponse(c, statusCode, msg)
		return
	}

	h.log.Infof("Product %s created", created.ID)
	SuccessResponse(c, http.StatusCreated, "Product created successfully", created)
}

func (h *ProductHandler) UpdateProduct(c *gin.Context) {
	if !isAdmin(c) {
		ErrorResponse(c, http.StatusForbidden, "Only administrators can update products")
		return
	}
	id := c.Param("id")

	var product domain.Product
	if err := c.ShouldBindJSON(&product); err != nil {
		h.log.Warnf("Failed to bind JSON for update product %s: %v", id, err)
		ErrorResponse(c, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	product.ID = id

	updated, err := h.productUseCase.UpdateProduct(c.Request.Context(), &product)
	if err != nil {
		statusCode, msg := mapErrorToStatus(err)
		h.log.Warnf("Failed to update product %s: %v", id, err)
		ErrorResponse(c, statusCode, msg)
		return
	}

	SuccessResponse(c, http.StatusOK, "Product updated successfully", updated)
}

func (h *ProductHandler) DeleteProduct(c *gin.Context) {
	if !isAdmin(c) {
		ErrorResponse(c, http.StatusForbidden, "Only administrators can delete products")
		return
	}
	id := c.Param("id")

	if err := h.productUseCase.DeleteProduct(c.Request.Context(), id); err != nil {
		statusCode, msg := mapErrorToStatus(err)
		h.log.Warnf("Failed to delete product %s: %v", id, err)
		ErrorResponse(c, statusCode, msg)
		return
	}

	h.log.Infof("Product %s deactivated", id)
	SuccessResponse(c, http.StatusOK, "Product deleted successfully", nil)
}
