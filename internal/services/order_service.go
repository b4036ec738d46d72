// internal/services/order_service.go
package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/c13agent/aaas-backend/internal/models"
	"github.com/c13agent/aaas-backend/internal/utils"
)

var (
	ErrOrderNotFound         = errors.New("order not found")
	ErrProductNotPurchasable = errors.New("product is not available for purchase")
	ErrDuplicateSettlement   = errors.New("transaction already settled")
)

// PaymentVerifier checks that a transaction emitted a payment event for
// the expected link id and buyer.
type PaymentVerifier interface {
	VerifyPayment(ctx context.Context, txHash string, linkID int64, buyerWallet string) error
}

// URLSigner mints a short-lived download link from a stored reference.
type URLSigner interface {
	SignDownloadURL(rawURL string) string
}

// OrderStore is the persistence surface settlement needs.
type OrderStore interface {
	GetProduct(id uuid.UUID) (*models.Product, error)
	TxHashSettled(txHash string) (bool, error)
	// CreateSettledOrder inserts the order and increments the product's
	// sales count in one transaction. A tx hash already present surfaces
	// as ErrDuplicateSettlement.
	CreateSettledOrder(order *models.Order) error
	GetOrderWithProduct(id uuid.UUID) (*models.Order, error)
	ListBuyerOrders(wallet string) ([]models.Order, error)
	ListSellerOrders(wallet string) ([]models.Order, error)
}

type OrderService struct {
	store    OrderStore
	verifier PaymentVerifier
	signer   URLSigner
}

type RecordSettlementRequest struct {
	ProductID   uuid.UUID `json:"product_id" validate:"required"`
	BuyerWallet string    `json:"buyer_wallet" validate:"required,wallet_address"`
	TxHash      string    `json:"tx_hash" validate:"required,tx_hash"`
}

type OrderStatusResponse struct {
	OrderID            uuid.UUID          `json:"order_id"`
	Status             models.OrderStatus `json:"status"`
	TxHash             *string            `json:"tx_hash"`
	PaymentConfirmedAt *time.Time         `json:"payment_confirmed_at"`
	ProductName        string             `json:"product_name"`
	DownloadURL        string             `json:"download_url,omitempty"`
}

func NewOrderService(store OrderStore, verifier PaymentVerifier, signer URLSigner) *OrderService {
	return &OrderService{
		store:    store,
		verifier: verifier,
		signer:   signer,
	}
}

// RecordSettlement verifies a buyer's payment transaction on chain and
// records exactly one completed order for it. The amount written is the
// product price at the time of settlement, and the confirmation
// timestamp is assigned by the server, never taken from the caller.
func (s *OrderService) RecordSettlement(ctx context.Context, req *RecordSettlementRequest) (*models.Order, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	product, err := s.store.GetProduct(req.ProductID)
	if err != nil {
		return nil, err
	}

	if !product.Activated() || product.Status != models.ProductStatusActive {
		return nil, ErrProductNotPurchasable
	}

	settled, err := s.store.TxHashSettled(req.TxHash)
	if err != nil {
		return nil, fmt.Errorf("database error: %w", err)
	}
	if settled {
		return nil, ErrDuplicateSettlement
	}

	buyer := utils.NormalizeWallet(req.BuyerWallet)
	if err := s.verifier.VerifyPayment(ctx, req.TxHash, *product.BlockchainLinkID, buyer); err != nil {
		return nil, fmt.Errorf("payment verification failed: %w", err)
	}

	now := time.Now().UTC()
	txHash := req.TxHash
	order := &models.Order{
		ProductID:          product.ID,
		BlockchainLinkID:   *product.BlockchainLinkID,
		BuyerWallet:        buyer,
		AmountUSDC:         product.PriceUSDC,
		TxHash:             &txHash,
		Status:             models.OrderStatusCompleted,
		PaymentConfirmedAt: &now,
	}

	// The unique index on tx_hash closes the race left by the check
	// above; the store reports it as a duplicate settlement.
	if err := s.store.CreateSettledOrder(order); err != nil {
		return nil, err
	}

	logrus.WithFields(logrus.Fields{
		"order_id":   order.ID,
		"product_id": product.ID,
		"buyer":      buyer,
		"amount":     order.AmountUSDC,
	}).Info("settlement recorded")

	return order, nil
}

// GetOrderStatus returns the buyer-facing view of an order. Download
// links for file deliveries are minted fresh on every call so they never
// outlive their TTL in a cached response.
func (s *OrderService) GetOrderStatus(orderID uuid.UUID) (*OrderStatusResponse, error) {
	order, err := s.store.GetOrderWithProduct(orderID)
	if err != nil {
		return nil, err
	}

	resp := &OrderStatusResponse{
		OrderID:            order.ID,
		Status:             order.Status,
		TxHash:             order.TxHash,
		PaymentConfirmedAt: order.PaymentConfirmedAt,
		ProductName:        order.Product.Name,
	}

	if order.Status == models.OrderStatusCompleted {
		resp.DownloadURL = s.resolveDelivery(&order.Product)
	}

	return resp, nil
}

// ListBuyerOrders returns a buyer's orders, newest first.
func (s *OrderService) ListBuyerOrders(buyerWallet string) ([]models.Order, error) {
	return s.store.ListBuyerOrders(utils.NormalizeWallet(buyerWallet))
}

// ListSellerOrders returns the completed orders across a seller's
// products.
func (s *OrderService) ListSellerOrders(sellerWallet string) ([]models.Order, error) {
	return s.store.ListSellerOrders(utils.NormalizeWallet(sellerWallet))
}

func (s *OrderService) resolveDelivery(product *models.Product) string {
	if product.DownloadURL == "" {
		return ""
	}
	if product.DeliveryMethod == models.DeliveryMethodFile {
		return s.signer.SignDownloadURL(product.DownloadURL)
	}
	return product.DownloadURL
}

// gormOrderStore backs OrderStore with the application database.
type gormOrderStore struct {
	db *gorm.DB
}

func NewGormOrderStore(db *gorm.DB) OrderStore {
	return &gormOrderStore{db: db}
}

func (s *gormOrderStore) GetProduct(id uuid.UUID) (*models.Product, error) {
	var product models.Product
	if err := s.db.First(&product, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("database error: %w", err)
	}
	return &product, nil
}

func (s *gormOrderStore) TxHashSettled(txHash string) (bool, error) {
	var count int64
	err := s.db.Model(&models.Order{}).
		Where("tx_hash = ?", txHash).
		Count(&count).Error
	return count > 0, err
}

func (s *gormOrderStore) CreateSettledOrder(order *models.Order) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(order).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return ErrDuplicateSettlement
			}
			return fmt.Errorf("failed to create order: %w", err)
		}
		if err := tx.Model(&models.Product{}).
			Where("id = ?", order.ProductID).
			UpdateColumn("sales_count", gorm.Expr("sales_count + 1")).Error; err != nil {
			return fmt.Errorf("failed to increment sales count: %w", err)
		}
		return nil
	})
}

func (s *gormOrderStore) GetOrderWithProduct(id uuid.UUID) (*models.Order, error) {
	var order models.Order
	if err := s.db.Preload("Product").First(&order, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("database error: %w", err)
	}
	return &order, nil
}

func (s *gormOrderStore) ListBuyerOrders(wallet string) ([]models.Order, error) {
	var orders []models.Order
	err := s.db.Preload("Product").
		Where("buyer_wallet = ?", wallet).
		Order("created_at DESC").
		Find(&orders).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list buyer orders: %w", err)
	}
	return orders, nil
}

func (s *gormOrderStore) ListSellerOrders(wallet string) ([]models.Order, error) {
	var orders []models.Order
	err := s.db.Preload("Product").
		Joins("JOIN products ON products.id = orders.product_id").
		Where("products.seller_wallet = ?", wallet).
		Order("orders.created_at DESC").
		Find(&orders).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list seller orders: %w", err)
	}
	return orders, nil
}
