// internal/handlers/skill.go
package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/c13agent/aaas-backend/internal/config"
	"github.com/c13agent/aaas-backend/internal/services"
	"github.com/c13agent/aaas-backend/internal/skill"
	"github.com/c13agent/aaas-backend/internal/utils"
)

// SkillHandler serves the downloadable skill document agents install to
// promote a product.
type SkillHandler struct {
	productService *services.ProductService
	env            skill.Environment
}

func NewSkillHandler(productService *services.ProductService, cfg *config.Config) *SkillHandler {
	return &SkillHandler{
		productService: productService,
		env: skill.Environment{
			BaseURL:         cfg.App.BaseURL,
			ContractAddress: cfg.Blockchain.ContractAddress,
			ChainID:         cfg.Blockchain.ChainID,
		},
	}
}

// GET /skills/:productId
func (h *SkillHandler) GetSkill(c *gin.Context) {
	productID, err := uuid.Parse(c.Param("productId"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid product ID", nil)
		return
	}

	product, err := h.productService.GetProduct(productID)
	if err != nil {
		if errors.Is(err, services.ErrProductNotFound) {
			utils.NotFoundResponse(c, "Product")
			return
		}
		utils.InternalErrorResponse(c, "")
		return
	}

	doc, err := skill.Generate(product, h.env)
	if err != nil {
		if errors.Is(err, skill.ErrNotActivated) {
			utils.PreconditionFailedResponse(c, "Product has no payment link yet")
			return
		}
		utils.InternalErrorResponse(c, "")
		return
	}

	filename := fmt.Sprintf("%s.md", *product.Hashtag)
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, "text/markdown; charset=utf-8", []byte(doc))
}
