// internal/moltbook/client_test.go
package moltbook

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c13agent/aaas-backend/internal/config"
)

func TestSearchPostsByHashtag(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/search/posts", r.URL.Path)
		assert.Equal(t, "aaas_a1b2c3d4", r.URL.Query().Get("hashtag"))
		assert.Equal(t, "100", r.URL.Query().Get("limit"))
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"posts": [
				{"id": "p1", "author": "agent_a", "content": "check this out #aaas_a1b2c3d4", "likes_count": 3, "comments_count": 1, "reposts_count": 0}
			],
			"total": 1
		}`))
	}))
	defer server.Close()

	client := NewClient(config.MoltbookConfig{APIURL: server.URL, APIKey: "test-key"})

	resp, err := client.SearchPostsByHashtag(context.Background(), "#aaas_a1b2c3d4", SearchOptions{Limit: 100})

	require.NoError(t, err)
	assert.Equal(t, 1, resp.Total)
	require.Len(t, resp.Posts, 1)
	assert.Equal(t, "p1", resp.Posts[0].ID)
	assert.Equal(t, 3, resp.Posts[0].LikesCount)
}

func TestSearchPostsByHashtagDefaultLimit(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "50", r.URL.Query().Get("limit"))
		w.Write([]byte(`{"posts": [], "total": 0}`))
	}))
	defer server.Close()

	client := NewClient(config.MoltbookConfig{APIURL: server.URL, APIKey: "k"})

	_, err := client.SearchPostsByHashtag(context.Background(), "aaas_x", SearchOptions{})
	require.NoError(t, err)
}

func TestSearchPostsByHashtagUpstreamError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client := NewClient(config.MoltbookConfig{APIURL: server.URL, APIKey: "k"})

	_, err := client.SearchPostsByHashtag(context.Background(), "aaas_x", SearchOptions{})
	assert.ErrorContains(t, err, "503")
}
