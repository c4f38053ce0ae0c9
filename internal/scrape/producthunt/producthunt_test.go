package producthunt

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/signalhound/signalhound/internal/scrape"
)

type graphqlRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables"`
}

func sampleNode(id, name string, votes int) map[string]any {
	return map[string]any{
		"id": id, "name": name, "tagline": "ship faster",
		"description":  "a tool for builders",
		"url":          "https://www.producthunt.com/posts/" + id,
		"website":      "https://example.com",
		"votesCount":   votes, "commentsCount": 4,
		"createdAt":    "2026-03-01T08:00:00Z",
		"productState": "default",
		"makers":       map[string]any{"nodes": []map[string]any{{"name": "Jo", "username": "jo_builds"}}},
		"topics":       map[string]any{"nodes": []map[string]any{{"name": "SaaS"}, {"name": "Productivity"}}},
	}
}

func postsReply(hasNext bool, cursor string, nodes ...map[string]any) map[string]any {
	return map[string]any{
		"data": map[string]any{
			"posts": map[string]any{
				"nodes":    nodes,
				"pageInfo": map[string]any{"hasNextPage": hasNext, "endCursor": cursor},
			},
		},
	}
}

func newTestScraper(t *testing.T, apiURL string) *Scraper {
	t.Helper()
	s := New()
	require.NoError(t, s.Configure(map[string]string{
		"api_token": "tok",
		"api_url":   apiURL,
	}))
	return s
}

func TestConfigure_RequiresToken(t *testing.T) {
	assert.Error(t, New().Configure(map[string]string{}))

	s := New()
	require.NoError(t, s.Configure(map[string]string{"producthunt_api_token": "tok"}))
}

func TestScrape_LatestParsesNodes(t *testing.T) {
	var requests []graphqlRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		var req graphqlRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		requests = append(requests, req)
		json.NewEncoder(w).Encode(postsReply(false, "", sampleNode("p1", "LaunchKit", 120)))
	}))
	defer server.Close()

	s := newTestScraper(t, server.URL)
	posts, err := s.Scrape(context.Background(), "latest", 10, scrape.Options{})
	require.NoError(t, err)
	require.Len(t, posts, 1)
	require.Len(t, requests, 1)
	assert.Contains(t, requests[0].Query, "order: RANKING")

	post := posts[0]
	assert.Equal(t, "producthunt_p1", post.ID)
	assert.Equal(t, "producthunt", post.Source)
	assert.Equal(t, "LaunchKit - ship faster", post.Title)
	assert.Equal(t, "a tool for builders", post.Body)
	assert.Equal(t, "jo_builds", post.Author)
	assert.Equal(t, 120, post.Upvotes)
	assert.Equal(t, 4, post.CommentsCount)
	assert.Equal(t, "topic:SaaS,Productivity", post.Channel)
	assert.Equal(t, "p1", post.Metadata["ph_id"])
	assert.Equal(t, "https://example.com", post.Metadata["website"])
	assert.Equal(t, "2026-03-01T08:00:00Z", post.CreatedAt.Format("2006-01-02T15:04:05Z"))
}

func TestScrape_TopOrdersByVotes(t *testing.T) {
	var lastQuery string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req graphqlRequest
		json.NewDecoder(r.Body).Decode(&req)
		lastQuery = req.Query
		json.NewEncoder(w).Encode(postsReply(false, ""))
	}))
	defer server.Close()

	_, err := newTestScraper(t, server.URL).Scrape(context.Background(), "top", 5, scrape.Options{})
	require.NoError(t, err)
	assert.Contains(t, lastQuery, "order: VOTES")
}

func TestScrape_DateTargetBoundsDay(t *testing.T) {
	var vars map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req graphqlRequest
		json.NewDecoder(r.Body).Decode(&req)
		vars = req.Variables
		json.NewEncoder(w).Encode(postsReply(false, ""))
	}))
	defer server.Close()

	_, err := newTestScraper(t, server.URL).Scrape(context.Background(), "2026-03-01", 5, scrape.Options{})
	require.NoError(t, err)
	assert.Equal(t, "2026-03-01T00:00:00Z", vars["postedAfter"])
	assert.Equal(t, "2026-03-01T23:59:59Z", vars["postedBefore"])
}

func TestScrape_BadTargetsRejected(t *testing.T) {
	s := newTestScraper(t, "http://unused.invalid")
	_, err := s.Scrape(context.Background(), "days_ago:soon", 5, scrape.Options{})
	assert.Error(t, err)
	_, err = s.Scrape(context.Background(), "not-a-date", 5, scrape.Options{})
	assert.Error(t, err)
}

func TestScrape_PaginatesUntilLimit(t *testing.T) {
	var cursors []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req graphqlRequest
		json.NewDecoder(r.Body).Decode(&req)
		cursor, _ := req.Variables["after"].(string)
		cursors = append(cursors, cursor)
		if cursor == "" {
			json.NewEncoder(w).Encode(postsReply(true, "c1",
				sampleNode("p1", "One", 10), sampleNode("p2", "Two", 9)))
			return
		}
		json.NewEncoder(w).Encode(postsReply(false, "",
			sampleNode("p3", "Three", 8)))
	}))
	defer server.Close()

	posts, err := newTestScraper(t, server.URL).Scrape(context.Background(), "latest", 3, scrape.Options{})
	require.NoError(t, err)
	require.Len(t, posts, 3)
	assert.Equal(t, []string{"", "c1"}, cursors)
	assert.Equal(t, "producthunt_p3", posts[2].ID)
}

func TestScrape_FetchCommentsEnrichesMetadata(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req graphqlRequest
		json.NewDecoder(r.Body).Decode(&req)
		if strings.Contains(req.Query, "getComments") {
			assert.Equal(t, "p1", req.Variables["postId"])
			json.NewEncoder(w).Encode(map[string]any{
				"data": map[string]any{
					"post": map[string]any{
						"comments": map[string]any{
							"nodes": []map[string]any{
								{"id": "c1", "body": "love it", "votesCount": 3,
									"user": map[string]any{"name": "Sam", "username": "sam"}},
							},
						},
					},
				},
			})
			return
		}
		json.NewEncoder(w).Encode(postsReply(false, "", sampleNode("p1", "LaunchKit", 120)))
	}))
	defer server.Close()

	posts, err := newTestScraper(t, server.URL).Scrape(context.Background(), "latest", 5, scrape.Options{FetchComments: true})
	require.NoError(t, err)
	require.Len(t, posts, 1)

	comments, ok := posts[0].Metadata["top_comments"].([]map[string]any)
	require.True(t, ok)
	require.Len(t, comments, 1)
	assert.Equal(t, "love it", comments[0]["body"])
	assert.Equal(t, "sam", comments[0]["author"])
}

func TestScrape_GraphQLErrorSurfaces(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"errors": []map[string]any{{"message": "rate limit exceeded"}},
		})
	}))
	defer server.Close()

	_, err := newTestScraper(t, server.URL).Scrape(context.Background(), "latest", 5, scrape.Options{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rate limit exceeded")
}

func TestScrape_NotConfigured(t *testing.T) {
	_, err := New().Scrape(context.Background(), "latest", 5, scrape.Options{})
	assert.ErrorIs(t, err, scrape.ErrNotConfigured)
}
