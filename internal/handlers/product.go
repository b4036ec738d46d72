// internal/handlers/product.go
package handlers

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/c13agent/aaas-backend/internal/models"
	"github.com/c13agent/aaas-backend/internal/services"
	"github.com/c13agent/aaas-backend/internal/utils"
)

type ProductHandler struct {
	productService *services.ProductService
}

func NewProductHandler(productService *services.ProductService) *ProductHandler {
	return &ProductHandler{productService: productService}
}

// GET /products
func (h *ProductHandler) GetProducts(c *gin.Context) {
	params := utils.GetPaginationParams(c)

	searchParams := services.ProductSearchParams{
		PaginationParams: params,
	}

	if priceMinStr := c.Query("price_min"); priceMinStr != "" {
		if priceMin, err := strconv.ParseFloat(priceMinStr, 64); err == nil {
			searchParams.PriceMin = &priceMin
		}
	}
	if priceMaxStr := c.Query("price_max"); priceMaxStr != "" {
		if priceMax, err := strconv.ParseFloat(priceMaxStr, 64); err == nil {
			searchParams.PriceMax = &priceMax
		}
	}

	result, err := h.productService.SearchProducts(searchParams)
	if err != nil {
		utils.InternalErrorResponse(c, "")
		return
	}

	utils.PaginatedResponse(c, *result)
}

// GET /products/:id
func (h *ProductHandler) GetProduct(c *gin.Context) {
	idStr := c.Param("id")

	// Accept either the product id or its slug.
	if id, err := uuid.Parse(idStr); err == nil {
		product, err := h.productService.GetProduct(id)
		if err != nil {
			h.respondError(c, err)
			return
		}
		utils.SuccessResponse(c, product)
		return
	}

	product, err := h.productService.GetProductBySlug(idStr)
	if err != nil {
		h.respondError(c, err)
		return
	}
	utils.SuccessResponse(c, product)
}

// POST /products
func (h *ProductHandler) CreateProduct(c *gin.Context) {
	wallet, exists := utils.GetWalletFromContext(c)
	if !exists {
		utils.UnauthorizedResponse(c, "")
		return
	}

	var req services.CreateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "Invalid request body", err.Error())
		return
	}

	if validationErrors := utils.GetValidationErrors(utils.ValidateStruct(&req)); len(validationErrors) > 0 {
		utils.ValidationErrorResponse(c, validationErrors)
		return
	}

	product, err := h.productService.CreateProduct(wallet, &req)
	if err != nil {
		h.respondError(c, err)
		return
	}

	utils.CreatedResponse(c, product)
}

// PUT /products/:id
func (h *ProductHandler) UpdateProduct(c *gin.Context) {
	wallet, exists := utils.GetWalletFromContext(c)
	if !exists {
		utils.UnauthorizedResponse(c, "")
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid product ID", nil)
		return
	}

	var req services.UpdateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "Invalid request body", err.Error())
		return
	}

	product, err := h.productService.UpdateProduct(wallet, id, &req)
	if err != nil {
		h.respondError(c, err)
		return
	}

	utils.SuccessResponse(c, product)
}

// PUT /products/:id/status
func (h *ProductHandler) UpdateProductStatus(c *gin.Context) {
	wallet, exists := utils.GetWalletFromContext(c)
	if !exists {
		utils.UnauthorizedResponse(c, "")
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid product ID", nil)
		return
	}

	var req struct {
		Status models.ProductStatus `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "Invalid request body", err.Error())
		return
	}

	var product *models.Product
	switch req.Status {
	case models.ProductStatusPaused:
		product, err = h.productService.PauseProduct(wallet, id)
	case models.ProductStatusActive:
		product, err = h.productService.ResumeProduct(wallet, id)
	default:
		utils.BadRequestResponse(c, "Status must be active or paused", nil)
		return
	}
	if err != nil {
		h.respondError(c, err)
		return
	}

	utils.SuccessResponse(c, product)
}

// POST /products/:id/activate
func (h *ProductHandler) ActivateProduct(c *gin.Context) {
	wallet, exists := utils.GetWalletFromContext(c)
	if !exists {
		utils.UnauthorizedResponse(c, "")
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid product ID", nil)
		return
	}

	var req struct {
		TxHash string `json:"tx_hash" validate:"required,tx_hash"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "Invalid request body", err.Error())
		return
	}
	if validationErrors := utils.GetValidationErrors(utils.ValidateStruct(&req)); len(validationErrors) > 0 {
		utils.ValidationErrorResponse(c, validationErrors)
		return
	}

	product, err := h.productService.ActivateProduct(c.Request.Context(), wallet, id, req.TxHash)
	if err != nil {
		h.respondError(c, err)
		return
	}

	utils.SuccessResponse(c, product)
}

// DELETE /products/:id
func (h *ProductHandler) DeleteProduct(c *gin.Context) {
	wallet, exists := utils.GetWalletFromContext(c)
	if !exists {
		utils.UnauthorizedResponse(c, "")
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid product ID", nil)
		return
	}

	if err := h.productService.DeleteProduct(wallet, id); err != nil {
		h.respondError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{"message": "Product deleted"})
}

// GET /sellers/:wallet/products
func (h *ProductHandler) GetSellerProducts(c *gin.Context) {
	products, err := h.productService.ListSellerProducts(c.Param("wallet"))
	if err != nil {
		utils.InternalErrorResponse(c, "")
		return
	}

	utils.SuccessResponse(c, products)
}

func (h *ProductHandler) respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrProductNotFound):
		utils.NotFoundResponse(c, "Product")
	case errors.Is(err, services.ErrNotOwner):
		utils.ForbiddenResponse(c, "You do not own this product")
	case errors.Is(err, services.ErrAlreadyActivated):
		utils.ConflictResponse(c, "Product already has a payment link")
	case errors.Is(err, services.ErrNotActivated):
		utils.PreconditionFailedResponse(c, "Product has no payment link yet")
	case errors.Is(err, services.ErrProductHasSales):
		utils.ConflictResponse(c, "Products with completed sales cannot be deleted")
	case errors.Is(err, services.ErrPriceLocked):
		utils.ConflictResponse(c, "Price cannot change after activation")
	case errors.Is(err, services.ErrInvalidCategory),
		errors.Is(err, services.ErrTooManyTags):
		utils.BadRequestResponse(c, err.Error(), nil)
	default:
		utils.BadRequestResponse(c, err.Error(), nil)
	}
}
