// internal/services/sync_service_test.go
package services

import (
	"context"
	"errors"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c13agent/aaas-backend/internal/config"
	"github.com/c13agent/aaas-backend/internal/hype"
	"github.com/c13agent/aaas-backend/internal/models"
	"github.com/c13agent/aaas-backend/internal/moltbook"
)

type fakeSyncStore struct {
	products   []models.Product
	listErr    error
	activities []models.MoltbookActivity
	seenPosts  map[string]bool
	metrics    map[uuid.UUID]metricsUpdate
}

type metricsUpdate struct {
	engagement hype.Engagement
	score      int
	badge      *models.HypeBadge
}

func newFakeSyncStore(products ...models.Product) *fakeSyncStore {
	return &fakeSyncStore{
		products:  products,
		seenPosts: map[string]bool{},
		metrics:   map[uuid.UUID]metricsUpdate{},
	}
}

func (f *fakeSyncStore) ListPromotedProducts() ([]models.Product, error) {
	return f.products, f.listErr
}

func (f *fakeSyncStore) RecordActivities(activities []models.MoltbookActivity) error {
	for _, a := range activities {
		if f.seenPosts[a.PostID] {
			continue
		}
		f.seenPosts[a.PostID] = true
		f.activities = append(f.activities, a)
	}
	return nil
}

func (f *fakeSyncStore) UpdateMetrics(productID uuid.UUID, e hype.Engagement, score int, badge *models.HypeBadge) error {
	f.metrics[productID] = metricsUpdate{engagement: e, score: score, badge: badge}
	return nil
}

type fakeSearcher struct {
	posts   map[string][]moltbook.Post
	failFor map[string]error
}

func (f *fakeSearcher) SearchPostsByHashtag(ctx context.Context, hashtag string, opts moltbook.SearchOptions) (*moltbook.SearchResponse, error) {
	if err, ok := f.failFor[hashtag]; ok {
		return nil, err
	}
	posts := f.posts[hashtag]
	return &moltbook.SearchResponse{Posts: posts, Total: len(posts)}, nil
}

func promotedProduct(hashtag string, sales int64) models.Product {
	linkID := int64(7)
	p := models.Product{
		SellerWallet:     "0xseller",
		Name:             "Test Product",
		SalesCount:       sales,
		BlockchainLinkID: &linkID,
		Hashtag:          &hashtag,
		Status:           models.ProductStatusActive,
	}
	p.ID = uuid.New()
	return p
}

func syncConfig() config.MoltbookConfig {
	return config.MoltbookConfig{
		APIURL:      "https://moltbook.example.com",
		SearchLimit: 100,
	}
}

func TestSyncAllUpdatesMetrics(t *testing.T) {
	product := promotedProduct("aaas_11223344", 5)
	store := newFakeSyncStore(product)
	searcher := &fakeSearcher{
		posts: map[string][]moltbook.Post{
			"aaas_11223344": {
				{ID: "p1", Author: "agent_a", LikesCount: 10, CommentsCount: 2, RepostsCount: 1, CreatedAt: time.Now()},
				{ID: "p2", Author: "agent_b", LikesCount: 1, CreatedAt: time.Now()},
				{ID: "p3", Author: "agent_c", CreatedAt: time.Now()},
			},
		},
	}

	svc := NewSyncService(store, searcher, syncConfig())
	result, err := svc.SyncAll(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 1, result.Synced)
	assert.Empty(t, result.Errors)

	m := store.metrics[product.ID]
	assert.Equal(t, 3, m.engagement.PostCount)
	// likes 11, comments 2, reposts 1 -> 11 + 4 + 3
	assert.Equal(t, 18, m.engagement.TotalEngagement)
	// 5 sales * 10 + 3 posts * 5 + 18
	assert.Equal(t, 83, m.score)
	require.NotNil(t, m.badge)
	assert.Equal(t, models.HypeBadgeHot, *m.badge)

	assert.Len(t, store.activities, 3)
	assert.Equal(t, product.ID, store.activities[0].ProductID)
	assert.Equal(t, "aaas_11223344", store.activities[0].Hashtag)
}

func TestSyncAllIsolatesFailures(t *testing.T) {
	healthy := promotedProduct("aaas_aaaaaaaa", 0)
	broken := promotedProduct("aaas_bbbbbbbb", 0)
	store := newFakeSyncStore(broken, healthy)
	searcher := &fakeSearcher{
		posts:   map[string][]moltbook.Post{"aaas_aaaaaaaa": {{ID: "p1", CreatedAt: time.Now()}}},
		failFor: map[string]error{"aaas_bbbbbbbb": errors.New("upstream 503")},
	}

	svc := NewSyncService(store, searcher, syncConfig())
	result, err := svc.SyncAll(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 1, result.Synced)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], broken.ID.String())

	// The healthy product still got its metrics.
	_, ok := store.metrics[healthy.ID]
	assert.True(t, ok)
	_, ok = store.metrics[broken.ID]
	assert.False(t, ok)
}

func TestSyncAllIdempotentActivities(t *testing.T) {
	product := promotedProduct("aaas_cccccccc", 0)
	store := newFakeSyncStore(product)
	searcher := &fakeSearcher{
		posts: map[string][]moltbook.Post{
			"aaas_cccccccc": {{ID: "p1", Content: "same post", CreatedAt: time.Now()}},
		},
	}

	svc := NewSyncService(store, searcher, syncConfig())

	_, err := svc.SyncAll(context.Background())
	require.NoError(t, err)
	_, err = svc.SyncAll(context.Background())
	require.NoError(t, err)

	assert.Len(t, store.activities, 1)
}

func TestSyncAllNoPromotedProducts(t *testing.T) {
	store := newFakeSyncStore()
	svc := NewSyncService(store, &fakeSearcher{}, syncConfig())

	result, err := svc.SyncAll(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 0, result.Synced)
	assert.Empty(t, result.Errors)
}

func TestSyncAllListFailure(t *testing.T) {
	store := newFakeSyncStore()
	store.listErr = errors.New("db down")
	svc := NewSyncService(store, &fakeSearcher{}, syncConfig())

	_, err := svc.SyncAll(context.Background())
	assert.Error(t, err)
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "abc", truncate("abc", 5))
	assert.Equal(t, "abcde", truncate("abcdefgh", 5))
}

func TestTruncateKeepsRunesIntact(t *testing.T) {
	// "héllo" is h(1) é(2) l(1) l(1) o(1); a 3-byte cut lands inside
	// nothing, a 2-byte cut would land mid-é.
	assert.Equal(t, "hé", truncate("héllo", 3))
	assert.Equal(t, "h", truncate("héllo", 2))

	for max := 1; max < len("日本語のテキスト"); max++ {
		assert.True(t, utf8.ValidString(truncate("日本語のテキスト", max)), "max=%d", max)
	}
}
