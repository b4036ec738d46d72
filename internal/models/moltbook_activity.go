// internal/models/moltbook_activity.go
package models

import (
	"time"

	"github.com/google/uuid"
)

// MoltbookActivity is one observed promotional post. The unique index on
// PostID makes the sync upsert idempotent: a post is recorded at most once
// no matter how many sync cycles see it.
type MoltbookActivity struct {
	BaseModel
	ProductID     uuid.UUID `json:"product_id" gorm:"type:uuid;not null;index"`
	Hashtag       string    `json:"hashtag" gorm:"size:50;not null;index"`
	PostID        string    `json:"post_id" gorm:"size:128;not null;uniqueIndex"`
	Author        string    `json:"author" gorm:"size:128"`
	Content       string    `json:"content" gorm:"size:500"`
	LikesCount    int       `json:"likes_count" gorm:"default:0"`
	CommentsCount int       `json:"comments_count" gorm:"default:0"`
	RepostsCount  int       `json:"reposts_count" gorm:"default:0"`
	PostedAt      time.Time `json:"posted_at"`

	// Relationships
	Product Product `json:"product,omitempty" gorm:"foreignKey:ProductID"`
}
