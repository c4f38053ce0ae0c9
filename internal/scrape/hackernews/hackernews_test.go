package hackernews

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/signalhound/signalhound/internal/scrape"
)

func newFeedServer(t *testing.T) *httptest.Server {
	t.Helper()
	items := map[int]map[string]any{
		101: {"id": 101, "type": "story", "by": "alice", "time": time.Now().Unix() - 3600,
			"title": "Ask HN: How do you handle invoicing?", "text": "Manual invoicing is killing me",
			"score": 42, "kids": []int{1, 2, 3}, "descendants": 3},
		102: {"id": 102, "type": "story", "by": "bob", "time": time.Now().Unix() - 7200,
			"title": "Show HN: My billing tool", "url": "https://example.com/billing",
			"score": 10, "descendants": 0},
		103: {"id": 103, "type": "comment", "by": "carol", "time": time.Now().Unix(),
			"title": "not a story"},
		104: {"id": 104, "type": "story", "deleted": true, "title": "gone"},
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/topstories.json", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode([]int{101, 102, 103, 104})
	})
	mux.HandleFunc("/item/", func(w http.ResponseWriter, r *http.Request) {
		var id int
		fmt.Sscanf(r.URL.Path, "/item/%d.json", &id)
		json.NewEncoder(w).Encode(items[id])
	})
	return httptest.NewServer(mux)
}

func newTestScraper(t *testing.T, baseURL, searchURL string) *Scraper {
	t.Helper()
	s := New()
	require.NoError(t, s.Configure(map[string]string{
		"base_url":   baseURL,
		"search_url": searchURL,
	}))
	return s
}

func TestScrape_FeedMode(t *testing.T) {
	server := newFeedServer(t)
	defer server.Close()

	s := newTestScraper(t, server.URL, server.URL)
	posts, err := s.Scrape(context.Background(), "top", 10, scrape.Options{})
	require.NoError(t, err)
	require.Len(t, posts, 2, "comments and deleted items are dropped")

	ask := posts[0]
	assert.Equal(t, "hackernews_101", ask.ID)
	assert.Equal(t, "hackernews", ask.Source)
	assert.Equal(t, "hn/ask", ask.Channel)
	assert.Equal(t, "alice", ask.Author)
	assert.Equal(t, 42, ask.Upvotes)
	assert.Equal(t, 3, ask.CommentsCount)
	assert.Equal(t, "Manual invoicing is killing me", ask.Body)

	show := posts[1]
	assert.Equal(t, "hn/show", show.Channel)
	assert.Equal(t, "https://example.com/billing", show.URL)
}

func TestScrape_FeedModeHonorsLimit(t *testing.T) {
	server := newFeedServer(t)
	defer server.Close()

	s := newTestScraper(t, server.URL, server.URL)
	posts, err := s.Scrape(context.Background(), "top", 1, scrape.Options{})
	require.NoError(t, err)
	assert.Len(t, posts, 1)
}

func TestScrape_SearchMode(t *testing.T) {
	var gotPath string
	var gotQuery string
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.Query().Get("query")
		json.NewEncoder(w).Encode(map[string]any{
			"hits": []map[string]any{
				{
					"objectID": "201", "title": "invoicing pain",
					"story_text": "details here", "author": "dave",
					"points": 55, "num_comments": 12,
					"created_at_i": time.Now().Unix() - 1800,
					"_tags":        []string{"story"},
				},
				{"objectID": "", "title": "missing id dropped"},
			},
		})
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	s := newTestScraper(t, server.URL, server.URL)
	posts, err := s.Scrape(context.Background(), "invoicing", 10, scrape.Options{Search: true})
	require.NoError(t, err)
	require.Len(t, posts, 1)

	assert.Equal(t, "/search_by_date", gotPath)
	assert.Equal(t, "invoicing", gotQuery)
	assert.Equal(t, "hackernews_201", posts[0].ID)
	assert.Equal(t, "hn/story", posts[0].Channel)
	assert.Equal(t, 55, posts[0].Upvotes)
	assert.Equal(t, 12, posts[0].CommentsCount)
}

func TestScrape_SearchModeTopUsesRelevance(t *testing.T) {
	var gotPath string
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		json.NewEncoder(w).Encode(map[string]any{"hits": []map[string]any{}})
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	s := newTestScraper(t, server.URL, server.URL)
	_, err := s.Scrape(context.Background(), "invoicing", 10, scrape.Options{Search: true, Sort: "top"})
	require.NoError(t, err)
	assert.Equal(t, "/search", gotPath)
}

func TestScrape_NotConfigured(t *testing.T) {
	s := New()
	_, err := s.Scrape(context.Background(), "top", 10, scrape.Options{})
	assert.ErrorIs(t, err, scrape.ErrNotConfigured)
}

func TestCapabilities(t *testing.T) {
	s := New()
	assert.True(t, scrape.HasCapability(s, scrape.CapabilitySearch))
	assert.False(t, scrape.HasCapability(s, scrape.CapabilityReviews))
	assert.Equal(t, "hackernews", s.Name())
}
