// internal/models/product.go
package models

import "github.com/lib/pq"

// MaxProductTags bounds the tag list a seller may attach.
const MaxProductTags = 5

type Product struct {
	BaseModel
	SellerWallet string         `json:"seller_wallet" gorm:"size:64;not null;index"`
	Name         string         `json:"name" gorm:"size:255;not null"`
	Slug         string         `json:"slug" gorm:"size:300;not null;uniqueIndex"`
	OneLiner     string         `json:"one_liner" gorm:"size:255"`
	Description  string         `json:"description" gorm:"type:text"`
	PriceUSDC    float64        `json:"price_usdc" gorm:"type:decimal(10,2);not null"`
	CategoryID   string         `json:"category_id" gorm:"size:50;index"`
	Tags         pq.StringArray `json:"tags" gorm:"type:text[]"`

	// Delivery configuration
	DeliveryMethod DeliveryMethod `json:"delivery_method" gorm:"type:varchar(20)"`
	DownloadURL    string         `json:"download_url" gorm:"size:1024"`
	FileName       string         `json:"file_name" gorm:"size:255"`
	FileSize       int64          `json:"file_size"`
	FileType       string         `json:"file_type" gorm:"size:100"`
	ImageURL       string         `json:"image_url" gorm:"size:1024"`

	// Activation. Hashtag and BlockchainLinkID are set together, exactly
	// once, when the on-chain payment link is created.
	BlockchainLinkID *int64  `json:"blockchain_link_id" gorm:"index"`
	ActivationTxHash *string `json:"activation_tx_hash" gorm:"size:66"`
	Hashtag          *string `json:"hashtag" gorm:"size:50;index"`

	// Derived metrics, refreshed by the Moltbook sync
	SalesCount         int64      `json:"sales_count" gorm:"default:0"`
	MoltbookPostCount  int        `json:"moltbook_post_count" gorm:"default:0"`
	MoltbookEngagement int        `json:"moltbook_engagement" gorm:"default:0"`
	HypeScore          int        `json:"hype_score" gorm:"default:0"`
	HypeBadge          *HypeBadge `json:"hype_badge" gorm:"type:varchar(20)"`

	// Promotional configuration
	MarketingTemplates TemplateList `json:"marketing_templates" gorm:"type:jsonb"`
	FAQBlocks          FAQList      `json:"faq_blocks" gorm:"type:jsonb"`

	Status ProductStatus `json:"status" gorm:"type:varchar(20);default:'draft';index"`

	// Relationships
	Orders []Order `json:"orders,omitempty" gorm:"foreignKey:ProductID"`
}

// Activated reports whether the product has its on-chain payment link.
func (p *Product) Activated() bool {
	return p.BlockchainLinkID != nil
}
