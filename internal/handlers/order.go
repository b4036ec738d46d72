// internal/handlers/order.go
package handlers

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/c13agent/aaas-backend/internal/services"
	"github.com/c13agent/aaas-backend/internal/utils"
)

type OrderHandler struct {
	orderService *services.OrderService
}

func NewOrderHandler(orderService *services.OrderService) *OrderHandler {
	return &OrderHandler{orderService: orderService}
}

// POST /orders/settle
func (h *OrderHandler) RecordSettlement(c *gin.Context) {
	var req services.RecordSettlementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "Invalid request body", err.Error())
		return
	}

	if validationErrors := utils.GetValidationErrors(utils.ValidateStruct(&req)); len(validationErrors) > 0 {
		utils.ValidationErrorResponse(c, validationErrors)
		return
	}

	order, err := h.orderService.RecordSettlement(c.Request.Context(), &req)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrProductNotFound):
			utils.NotFoundResponse(c, "Product")
		case errors.Is(err, services.ErrProductNotPurchasable):
			utils.PreconditionFailedResponse(c, "Product is not available for purchase")
		case errors.Is(err, services.ErrDuplicateSettlement):
			utils.ConflictResponse(c, "Transaction already settled")
		default:
			utils.BadRequestResponse(c, err.Error(), nil)
		}
		return
	}

	utils.CreatedResponse(c, order)
}

// GET /orders/:orderId/status
func (h *OrderHandler) GetOrderStatus(c *gin.Context) {
	orderID, err := uuid.Parse(c.Param("orderId"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid order ID", nil)
		return
	}

	status, err := h.orderService.GetOrderStatus(orderID)
	if err != nil {
		if errors.Is(err, services.ErrOrderNotFound) {
			utils.NotFoundResponse(c, "Order")
			return
		}
		utils.InternalErrorResponse(c, "")
		return
	}

	utils.SuccessResponse(c, status)
}

// GET /sellers/:wallet/orders
func (h *OrderHandler) GetSellerOrders(c *gin.Context) {
	orders, err := h.orderService.ListSellerOrders(c.Param("wallet"))
	if err != nil {
		utils.InternalErrorResponse(c, "")
		return
	}

	utils.SuccessResponse(c, orders)
}

// GET /buyers/:wallet/orders
func (h *OrderHandler) GetBuyerOrders(c *gin.Context) {
	orders, err := h.orderService.ListBuyerOrders(c.Param("wallet"))
	if err != nil {
		utils.InternalErrorResponse(c, "")
		return
	}

	utils.SuccessResponse(c, orders)
}
