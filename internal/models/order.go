// internal/models/order.go
package models

import (
	"time"

	"github.com/google/uuid"
)

// Order records one confirmed on-chain payment for a product. Core
// financial fields are never mutated after creation.
type Order struct {
	BaseModel
	ProductID          uuid.UUID   `json:"product_id" gorm:"type:uuid;not null;index"`
	BlockchainLinkID   int64       `json:"blockchain_link_id" gorm:"not null"`
	BuyerWallet        string      `json:"buyer_wallet" gorm:"size:64;not null;index"`
	AmountUSDC         float64     `json:"amount_usdc" gorm:"type:decimal(10,2);not null"`
	TxHash             *string     `json:"tx_hash" gorm:"size:66;uniqueIndex"`
	Status             OrderStatus `json:"status" gorm:"type:varchar(20);default:'pending';index"`
	PaymentConfirmedAt *time.Time  `json:"payment_confirmed_at"`

	// Relationships
	Product Product `json:"product,omitempty" gorm:"foreignKey:ProductID"`
}
