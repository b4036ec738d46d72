// internal/services/product_service.go
package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/c13agent/aaas-backend/internal/models"
	"github.com/c13agent/aaas-backend/internal/skill"
	"github.com/c13agent/aaas-backend/internal/utils"
)

var (
	ErrProductNotFound  = errors.New("product not found")
	ErrNotOwner         = errors.New("caller does not own this product")
	ErrNotActivated     = errors.New("product has no payment link yet")
	ErrAlreadyActivated = errors.New("product already has a payment link")
	ErrProductHasSales  = errors.New("product with completed sales cannot be deleted")
	ErrPriceLocked      = errors.New("price cannot change after activation")
	ErrInvalidCategory  = errors.New("unknown category")
	ErrTooManyTags      = errors.New("too many tags")
)

// ActivationConfirmer resolves an activation transaction to the on-chain
// payment link id.
type ActivationConfirmer interface {
	ConfirmActivation(ctx context.Context, txHash string) (int64, error)
}

type ProductService struct {
	db        *gorm.DB
	confirmer ActivationConfirmer
}

type CreateProductRequest struct {
	Name           string                `json:"name" validate:"required,min=3,max=255"`
	OneLiner       string                `json:"one_liner" validate:"required,max=255"`
	Description    string                `json:"description" validate:"required,min=10"`
	PriceUSDC      float64               `json:"price_usdc" validate:"required,min=0.01,max=99999999.99"`
	CategoryID     string                `json:"category_id" validate:"required"`
	Tags           []string              `json:"tags,omitempty"`
	DeliveryMethod models.DeliveryMethod `json:"delivery_method" validate:"required,oneof=file link license_key"`
	DownloadURL    string                `json:"download_url,omitempty" validate:"omitempty,url"`
	FileName       string                `json:"file_name,omitempty"`
	FileSize       int64                 `json:"file_size,omitempty"`
	FileType       string                `json:"file_type,omitempty"`
	ImageURL       string                `json:"image_url,omitempty" validate:"omitempty,url"`
	Templates      models.TemplateList   `json:"marketing_templates,omitempty"`
	FAQBlocks      models.FAQList        `json:"faq_blocks,omitempty"`
}

type UpdateProductRequest struct {
	Name        *string              `json:"name,omitempty" validate:"omitempty,min=3,max=255"`
	OneLiner    *string              `json:"one_liner,omitempty" validate:"omitempty,max=255"`
	Description *string              `json:"description,omitempty" validate:"omitempty,min=10"`
	PriceUSDC   *float64             `json:"price_usdc,omitempty" validate:"omitempty,min=0.01,max=99999999.99"`
	CategoryID  *string              `json:"category_id,omitempty"`
	Tags        []string             `json:"tags,omitempty"`
	DownloadURL *string              `json:"download_url,omitempty" validate:"omitempty,url"`
	ImageURL    *string              `json:"image_url,omitempty" validate:"omitempty,url"`
	Templates   *models.TemplateList `json:"marketing_templates,omitempty"`
	FAQBlocks   *models.FAQList      `json:"faq_blocks,omitempty"`
}

type ProductSearchParams struct {
	utils.PaginationParams
	PriceMin *float64 `json:"price_min,omitempty"`
	PriceMax *float64 `json:"price_max,omitempty"`
}

func NewProductService(db *gorm.DB, confirmer ActivationConfirmer) *ProductService {
	return &ProductService{
		db:        db,
		confirmer: confirmer,
	}
}

func (s *ProductService) CreateProduct(sellerWallet string, req *CreateProductRequest) (*models.Product, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}
	if !models.IsValidCategory(req.CategoryID) {
		return nil, ErrInvalidCategory
	}
	if len(req.Tags) > models.MaxProductTags {
		return nil, ErrTooManyTags
	}

	product := &models.Product{
		SellerWallet:       utils.NormalizeWallet(sellerWallet),
		Name:               req.Name,
		Slug:               utils.GenerateSlug(req.Name),
		OneLiner:           req.OneLiner,
		Description:        req.Description,
		PriceUSDC:          req.PriceUSDC,
		CategoryID:         req.CategoryID,
		Tags:               req.Tags,
		DeliveryMethod:     req.DeliveryMethod,
		DownloadURL:        req.DownloadURL,
		FileName:           req.FileName,
		FileSize:           req.FileSize,
		FileType:           req.FileType,
		ImageURL:           req.ImageURL,
		MarketingTemplates: req.Templates,
		FAQBlocks:          req.FAQBlocks,
		Status:             models.ProductStatusDraft,
	}

	if err := s.db.Create(product).Error; err != nil {
		return nil, fmt.Errorf("failed to create product: %w", err)
	}

	return product, nil
}

func (s *ProductService) GetProduct(id uuid.UUID) (*models.Product, error) {
	var product models.Product
	if err := s.db.First(&product, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("database error: %w", err)
	}
	return &product, nil
}

func (s *ProductService) GetProductBySlug(slug string) (*models.Product, error) {
	var product models.Product
	if err := s.db.First(&product, "slug = ?", slug).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("database error: %w", err)
	}
	return &product, nil
}

func (s *ProductService) UpdateProduct(sellerWallet string, id uuid.UUID, req *UpdateProductRequest) (*models.Product, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	product, err := s.ownedProduct(sellerWallet, id)
	if err != nil {
		return nil, err
	}

	updates, err := buildProductUpdates(product, req)
	if err != nil {
		return nil, err
	}
	if len(updates) == 0 {
		return product, nil
	}

	if err := s.db.Model(product).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("failed to update product: %w", err)
	}

	return s.GetProduct(id)
}

// buildProductUpdates validates an edit against the product's current
// state and returns the column map to apply. The on-chain payment link
// fixes the amount buyers pay, so once it exists the price is immutable;
// everything the skill document merely displays stays editable.
func buildProductUpdates(product *models.Product, req *UpdateProductRequest) (map[string]interface{}, error) {
	updates := map[string]interface{}{}

	if req.Name != nil {
		updates["name"] = *req.Name
	}
	if req.OneLiner != nil {
		updates["one_liner"] = *req.OneLiner
	}
	if req.Description != nil {
		updates["description"] = *req.Description
	}
	if req.PriceUSDC != nil {
		if product.Activated() {
			return nil, ErrPriceLocked
		}
		updates["price_usdc"] = *req.PriceUSDC
	}
	if req.CategoryID != nil {
		if !models.IsValidCategory(*req.CategoryID) {
			return nil, ErrInvalidCategory
		}
		updates["category_id"] = *req.CategoryID
	}
	if req.Tags != nil {
		if len(req.Tags) > models.MaxProductTags {
			return nil, ErrTooManyTags
		}
		updates["tags"] = pq.StringArray(req.Tags)
	}
	if req.DownloadURL != nil {
		updates["download_url"] = *req.DownloadURL
	}
	if req.ImageURL != nil {
		updates["image_url"] = *req.ImageURL
	}
	if req.Templates != nil {
		updates["marketing_templates"] = *req.Templates
	}
	if req.FAQBlocks != nil {
		updates["faq_blocks"] = *req.FAQBlocks
	}

	return updates, nil
}

// ActivateProduct confirms the seller's payment-link transaction on
// chain, then flips the product to active in a single guarded update.
// The link id and hashtag are written exactly once; a second activation
// attempt gets ErrAlreadyActivated no matter how it races.
func (s *ProductService) ActivateProduct(ctx context.Context, sellerWallet string, id uuid.UUID, txHash string) (*models.Product, error) {
	product, err := s.ownedProduct(sellerWallet, id)
	if err != nil {
		return nil, err
	}
	if product.Activated() {
		return nil, ErrAlreadyActivated
	}

	linkID, err := s.confirmer.ConfirmActivation(ctx, txHash)
	if err != nil {
		return nil, fmt.Errorf("activation confirmation failed: %w", err)
	}

	hashtag := skill.GenerateHashtag(product.ID)

	result := s.db.Model(&models.Product{}).
		Where("id = ? AND blockchain_link_id IS NULL", id).
		Updates(map[string]interface{}{
			"blockchain_link_id": linkID,
			"activation_tx_hash": txHash,
			"hashtag":            hashtag,
			"status":             models.ProductStatusActive,
		})
	if result.Error != nil {
		return nil, fmt.Errorf("failed to activate product: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, ErrAlreadyActivated
	}

	logrus.WithFields(logrus.Fields{
		"product_id": id,
		"link_id":    linkID,
		"hashtag":    hashtag,
	}).Info("product activated")

	return s.GetProduct(id)
}

func (s *ProductService) PauseProduct(sellerWallet string, id uuid.UUID) (*models.Product, error) {
	return s.setStatus(sellerWallet, id, models.ProductStatusPaused)
}

func (s *ProductService) ResumeProduct(sellerWallet string, id uuid.UUID) (*models.Product, error) {
	return s.setStatus(sellerWallet, id, models.ProductStatusActive)
}

func (s *ProductService) setStatus(sellerWallet string, id uuid.UUID, status models.ProductStatus) (*models.Product, error) {
	product, err := s.ownedProduct(sellerWallet, id)
	if err != nil {
		return nil, err
	}
	if !product.Activated() {
		return nil, ErrNotActivated
	}

	if err := s.db.Model(product).Update("status", status).Error; err != nil {
		return nil, fmt.Errorf("failed to update product status: %w", err)
	}

	return s.GetProduct(id)
}

// DeleteProduct removes a product that has never sold. Completed orders
// pin the row forever so buyers keep their delivery.
func (s *ProductService) DeleteProduct(sellerWallet string, id uuid.UUID) error {
	product, err := s.ownedProduct(sellerWallet, id)
	if err != nil {
		return err
	}

	var completed int64
	if err := s.db.Model(&models.Order{}).
		Where("product_id = ? AND status = ?", id, models.OrderStatusCompleted).
		Count(&completed).Error; err != nil {
		return fmt.Errorf("database error: %w", err)
	}
	if completed > 0 {
		return ErrProductHasSales
	}

	if err := s.db.Delete(product).Error; err != nil {
		return fmt.Errorf("failed to delete product: %w", err)
	}
	return nil
}

// SearchProducts lists the public marketplace: active products whose
// payment link exists.
func (s *ProductService) SearchProducts(params ProductSearchParams) (*utils.PaginationResult, error) {
	query := s.db.Model(&models.Product{}).
		Where("status = ? AND blockchain_link_id IS NOT NULL", models.ProductStatusActive)

	if params.Search != "" {
		like := "%" + params.Search + "%"
		query = query.Where("name ILIKE ? OR one_liner ILIKE ? OR description ILIKE ?", like, like, like)
	}
	if params.Category != "" {
		query = query.Where("category_id = ?", params.Category)
	}
	if params.PriceMin != nil {
		query = query.Where("price_usdc >= ?", *params.PriceMin)
	}
	if params.PriceMax != nil {
		query = query.Where("price_usdc <= ?", *params.PriceMax)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, fmt.Errorf("failed to count products: %w", err)
	}

	switch params.Sort {
	case "newest":
		query = query.Order("created_at DESC")
	case "price_low":
		query = query.Order("price_usdc ASC")
	case "price_high":
		query = query.Order("price_usdc DESC")
	case "sales":
		query = query.Order("sales_count DESC, created_at DESC")
	default: // hype
		query = query.Order("hype_score DESC, created_at DESC")
	}

	var products []models.Product
	if err := utils.ApplyPagination(query, params.PaginationParams).
		Find(&products).Error; err != nil {
		return nil, fmt.Errorf("failed to search products: %w", err)
	}

	result := utils.CreatePaginationResult(products, total, params.PaginationParams)
	return &result, nil
}

// ListSellerProducts returns every product a seller owns, drafts
// included.
func (s *ProductService) ListSellerProducts(sellerWallet string) ([]models.Product, error) {
	var products []models.Product
	err := s.db.Where("seller_wallet = ?", utils.NormalizeWallet(sellerWallet)).
		Order("created_at DESC").
		Find(&products).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list seller products: %w", err)
	}
	return products, nil
}

func (s *ProductService) ownedProduct(sellerWallet string, id uuid.UUID) (*models.Product, error) {
	product, err := s.GetProduct(id)
	if err != nil {
		return nil, err
	}
	if product.SellerWallet != utils.NormalizeWallet(sellerWallet) {
		return nil, ErrNotOwner
	}
	return product, nil
}
