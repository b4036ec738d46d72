// internal/models/common.go
package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Base model with common fields
type BaseModel struct {
	ID        uuid.UUID `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Enums
type ProductStatus string

const (
	ProductStatusDraft  ProductStatus = "draft"
	ProductStatusActive ProductStatus = "active"
	ProductStatusPaused ProductStatus = "paused"
)

type DeliveryMethod string

const (
	DeliveryMethodFile       DeliveryMethod = "file"
	DeliveryMethodLink       DeliveryMethod = "link"
	DeliveryMethodLicenseKey DeliveryMethod = "license_key"
)

type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusCompleted OrderStatus = "completed"
	OrderStatusFailed    OrderStatus = "failed"
)

type HypeBadge string

const (
	HypeBadgeHot      HypeBadge = "hot"
	HypeBadgeTrending HypeBadge = "trending"
	HypeBadgeViral    HypeBadge = "viral"
)

type TemplateType string

const (
	TemplateTypeInitial  TemplateType = "initial"
	TemplateTypeFollowup TemplateType = "followup"
	TemplateTypeResponse TemplateType = "response"
)

// MarketingTemplate is one seller-authored promotional snippet.
type MarketingTemplate struct {
	ID      string       `json:"id"`
	Type    TemplateType `json:"type"`
	Content string       `json:"content"`
}

// FAQBlock is one question/answer pair shown to buyers and agents.
type FAQBlock struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// TemplateList stores marketing templates as a jsonb column.
type TemplateList []MarketingTemplate

func (t TemplateList) Value() (driver.Value, error) {
	if t == nil {
		return nil, nil
	}
	return json.Marshal(t)
}

func (t *TemplateList) Scan(value interface{}) error {
	if value == nil {
		*t = nil
		return nil
	}

	bytes, ok := value.([]byte)
	if !ok {
		return fmt.Errorf("unsupported type %T for TemplateList", value)
	}

	return json.Unmarshal(bytes, t)
}

// FAQList stores FAQ blocks as a jsonb column.
type FAQList []FAQBlock

func (f FAQList) Value() (driver.Value, error) {
	if f == nil {
		return nil, nil
	}
	return json.Marshal(f)
}

func (f *FAQList) Scan(value interface{}) error {
	if value == nil {
		*f = nil
		return nil
	}

	bytes, ok := value.([]byte)
	if !ok {
		return fmt.Errorf("unsupported type %T for FAQList", value)
	}

	return json.Unmarshal(bytes, f)
}

// ValidCategories is the fixed category set products may use.
var ValidCategories = []string{
	"audio", "video", "design", "photos", "3d",
	"code", "documents", "education", "ai", "gaming",
}

func IsValidCategory(id string) bool {
	for _, c := range ValidCategories {
		if c == id {
			return true
		}
	}
	return false
}
