// internal/moltbook/client.go

// Package moltbook is the HTTP client for the Moltbook social platform,
// used to track agent promotional activity by hashtag.
package moltbook

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/c13agent/aaas-backend/internal/config"
)

// Post is one Moltbook post as returned by the search API.
type Post struct {
	ID            string    `json:"id"`
	Content       string    `json:"content"`
	Author        string    `json:"author"`
	CreatedAt     time.Time `json:"created_at"`
	LikesCount    int       `json:"likes_count"`
	CommentsCount int       `json:"comments_count"`
	RepostsCount  int       `json:"reposts_count"`
	Hashtags      []string  `json:"hashtags"`
}

// SearchResponse is one page of hashtag search results.
type SearchResponse struct {
	Posts      []Post `json:"posts"`
	Total      int    `json:"total"`
	NextCursor string `json:"next_cursor,omitempty"`
}

// SearchOptions narrows a hashtag search.
type SearchOptions struct {
	Since  *time.Time
	Cursor string
	Limit  int
}

// Searcher is the read surface the sync needs; satisfied by Client.
type Searcher interface {
	SearchPostsByHashtag(ctx context.Context, hashtag string, opts SearchOptions) (*SearchResponse, error)
}

type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

func NewClient(cfg config.MoltbookConfig) *Client {
	return &Client{
		baseURL: strings.TrimRight(cfg.APIURL, "/"),
		apiKey:  cfg.APIKey,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// SearchPostsByHashtag returns posts containing the hashtag. The leading
// "#" is stripped if present.
func (c *Client) SearchPostsByHashtag(ctx context.Context, hashtag string, opts SearchOptions) (*SearchResponse, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = 50
	}

	params := url.Values{}
	params.Set("hashtag", strings.TrimPrefix(hashtag, "#"))
	params.Set("limit", strconv.Itoa(limit))
	if opts.Since != nil {
		params.Set("since", opts.Since.UTC().Format(time.RFC3339))
	}
	if opts.Cursor != "" {
		params.Set("cursor", opts.Cursor)
	}

	endpoint := fmt.Sprintf("%s/v1/search/posts?%s", c.baseURL, params.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build search request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("moltbook search request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("moltbook API error: %d %s", resp.StatusCode, http.StatusText(resp.StatusCode))
	}

	var result SearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode moltbook response: %w", err)
	}

	return &result, nil
}
