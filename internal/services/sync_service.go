// internal/services/sync_service.go
package services

import (
	"context"
	"fmt"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/c13agent/aaas-backend/internal/config"
	"github.com/c13agent/aaas-backend/internal/hype"
	"github.com/c13agent/aaas-backend/internal/models"
	"github.com/c13agent/aaas-backend/internal/moltbook"
)

// SyncStore is the persistence surface the Moltbook sync needs.
type SyncStore interface {
	// ListPromotedProducts returns every active product with a hashtag
	// and an on-chain payment link.
	ListPromotedProducts() ([]models.Product, error)
	// RecordActivities inserts posts, silently skipping ids already seen.
	RecordActivities(activities []models.MoltbookActivity) error
	// UpdateMetrics writes the freshly derived hype numbers.
	UpdateMetrics(productID uuid.UUID, e hype.Engagement, score int, badge *models.HypeBadge) error
}

// SyncService walks every promoted product, pulls its hashtag activity
// from Moltbook, and refreshes the derived hype metrics. One product
// failing never aborts the batch.
type SyncService struct {
	store    SyncStore
	searcher moltbook.Searcher
	cfg      config.MoltbookConfig
}

// SyncResult summarizes one batch run.
type SyncResult struct {
	Synced int      `json:"synced"`
	Errors []string `json:"errors"`
}

func NewSyncService(store SyncStore, searcher moltbook.Searcher, cfg config.MoltbookConfig) *SyncService {
	return &SyncService{
		store:    store,
		searcher: searcher,
		cfg:      cfg,
	}
}

// SyncAll refreshes metrics for every promoted product. Errors are
// collected per product; the returned error is reserved for the product
// listing itself failing.
func (s *SyncService) SyncAll(ctx context.Context) (*SyncResult, error) {
	products, err := s.store.ListPromotedProducts()
	if err != nil {
		return nil, fmt.Errorf("failed to list products for sync: %w", err)
	}

	result := &SyncResult{Errors: []string{}}

	for i := range products {
		product := &products[i]
		if err := s.syncProduct(ctx, product); err != nil {
			logrus.WithError(err).WithFields(logrus.Fields{
				"product_id": product.ID,
				"hashtag":    *product.Hashtag,
			}).Error("product sync failed")
			result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", product.ID, err))
			continue
		}
		result.Synced++
	}

	logrus.WithFields(logrus.Fields{
		"synced": result.Synced,
		"failed": len(result.Errors),
	}).Info("moltbook sync finished")

	return result, nil
}

func (s *SyncService) syncProduct(ctx context.Context, product *models.Product) error {
	resp, err := s.searcher.SearchPostsByHashtag(ctx, *product.Hashtag, moltbook.SearchOptions{
		Limit: s.cfg.SearchLimit,
	})
	if err != nil {
		return fmt.Errorf("hashtag search failed: %w", err)
	}

	if err := s.store.RecordActivities(toActivities(product, resp.Posts)); err != nil {
		return fmt.Errorf("failed to record activities: %w", err)
	}

	engagement := hype.Aggregate(resp.Posts)
	score := hype.Score(product.SalesCount, engagement.PostCount, engagement.TotalEngagement)
	badge := hype.BadgeFor(score)

	if err := s.store.UpdateMetrics(product.ID, engagement, score, badge); err != nil {
		return fmt.Errorf("failed to update metrics: %w", err)
	}

	return nil
}

func toActivities(product *models.Product, posts []moltbook.Post) []models.MoltbookActivity {
	activities := make([]models.MoltbookActivity, 0, len(posts))
	for _, p := range posts {
		activities = append(activities, models.MoltbookActivity{
			ProductID:     product.ID,
			Hashtag:       *product.Hashtag,
			PostID:        p.ID,
			Author:        p.Author,
			Content:       truncate(p.Content, 500),
			LikesCount:    p.LikesCount,
			CommentsCount: p.CommentsCount,
			RepostsCount:  p.RepostsCount,
			PostedAt:      p.CreatedAt,
		})
	}
	return activities
}

// truncate cuts s to at most max bytes without splitting a UTF-8 rune.
func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	cut := max
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}

// gormSyncStore backs SyncStore with the application database.
type gormSyncStore struct {
	db *gorm.DB
}

func NewGormSyncStore(db *gorm.DB) SyncStore {
	return &gormSyncStore{db: db}
}

func (s *gormSyncStore) ListPromotedProducts() ([]models.Product, error) {
	var products []models.Product
	err := s.db.
		Where("status = ? AND hashtag IS NOT NULL AND blockchain_link_id IS NOT NULL",
			models.ProductStatusActive).
		Find(&products).Error
	return products, err
}

func (s *gormSyncStore) RecordActivities(activities []models.MoltbookActivity) error {
	if len(activities) == 0 {
		return nil
	}
	return s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "post_id"}},
		DoNothing: true,
	}).Create(&activities).Error
}

func (s *gormSyncStore) UpdateMetrics(productID uuid.UUID, e hype.Engagement, score int, badge *models.HypeBadge) error {
	return s.db.Model(&models.Product{}).
		Where("id = ?", productID).
		Updates(map[string]interface{}{
			"moltbook_post_count": e.PostCount,
			"moltbook_engagement": e.TotalEngagement,
			"hype_score":          score,
			"hype_badge":          badge,
		}).Error
}
