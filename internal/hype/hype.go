// internal/hype/hype.go

// Package hype computes the derived popularity metrics for a product:
// engagement aggregation over Moltbook posts, the hype score, and the
// badge tier. Everything here is pure and deterministic.
package hype

import (
	"github.com/c13agent/aaas-backend/internal/models"
	"github.com/c13agent/aaas-backend/internal/moltbook"
)

// Engagement weights. A comment is worth double a like, a repost triple,
// reflecting increasing distribution value.
const (
	LikeWeight    = 1
	CommentWeight = 2
	RepostWeight  = 3
)

// Score weights. A completed sale counts 10x a promotional post and 2x a
// raw engagement point: conversions matter more than reach.
const (
	SaleWeight = 10
	PostWeight = 5
)

// Badge thresholds, evaluated top-down on the final score.
const (
	ViralThreshold    = 500
	TrendingThreshold = 200
	HotThreshold      = 50
)

// Engagement is the reduction of a set of posts into totals.
type Engagement struct {
	PostCount       int `json:"post_count"`
	TotalLikes      int `json:"total_likes"`
	TotalComments   int `json:"total_comments"`
	TotalReposts    int `json:"total_reposts"`
	TotalEngagement int `json:"total_engagement"`
}

// Aggregate reduces posts into engagement totals. An empty input yields
// all zeros.
func Aggregate(posts []moltbook.Post) Engagement {
	e := Engagement{PostCount: len(posts)}

	for _, p := range posts {
		e.TotalLikes += p.LikesCount
		e.TotalComments += p.CommentsCount
		e.TotalReposts += p.RepostsCount
	}

	e.TotalEngagement = e.TotalLikes*LikeWeight +
		e.TotalComments*CommentWeight +
		e.TotalReposts*RepostWeight

	return e
}

// Score combines sales and social engagement into the hype score:
// sales*10 + posts*5 + engagement.
func Score(salesCount int64, postCount, engagementScore int) int {
	return int(salesCount)*SaleWeight + postCount*PostWeight + engagementScore
}

// BadgeFor maps a score to its badge tier. Scores below the hot threshold
// carry no badge at all (nil, not a zero-value member).
func BadgeFor(score int) *models.HypeBadge {
	var badge models.HypeBadge

	switch {
	case score >= ViralThreshold:
		badge = models.HypeBadgeViral
	case score >= TrendingThreshold:
		badge = models.HypeBadgeTrending
	case score >= HotThreshold:
		badge = models.HypeBadgeHot
	default:
		return nil
	}

	return &badge
}
