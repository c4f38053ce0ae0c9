// Package hackernews implements the news-aggregator adapter against the
// official Firebase-style item API and the Algolia search API.
package hackernews

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/signalhound/signalhound/internal/models"
	"github.com/signalhound/signalhound/internal/scrape"
)

const (
	defaultBaseURL   = "https://hacker-news.firebaseio.com/v0"
	defaultSearchURL = "https://hn.algolia.com/api/v1"
)

// feedEndpoints maps short feed tags to the official API endpoint names.
var feedEndpoints = map[string]string{
	"top":  "topstories",
	"new":  "newstories",
	"ask":  "askstories",
	"show": "showstories",
	"jobs": "jobstories",
}

// Scraper supports two modes: feed listing (target is top|new|ask|show|jobs,
// resolved to an id list then fetched per item) and search (opts.Search with
// the target as query, served by Algolia).
type Scraper struct {
	client    *scrape.HTTPClient
	baseURL   string
	searchURL string
}

// New returns an unconfigured Hacker News scraper.
func New() *Scraper {
	return &Scraper{}
}

func (s *Scraper) Name() string     { return "hackernews" }
func (s *Scraper) Platform() string { return "Hacker News" }

func (s *Scraper) Capabilities() []scrape.Capability {
	return []scrape.Capability{
		scrape.CapabilitySearch,
		scrape.CapabilitySortNew,
		scrape.CapabilitySortTop,
		scrape.CapabilityComments,
		scrape.CapabilityHistorical,
	}
}

// Configure accepts optional base_url / search_url overrides and user_agent.
// No credentials: both upstream APIs are unauthenticated.
func (s *Scraper) Configure(config map[string]string) error {
	s.baseURL = config["base_url"]
	if s.baseURL == "" {
		s.baseURL = defaultBaseURL
	}
	s.searchURL = config["search_url"]
	if s.searchURL == "" {
		s.searchURL = defaultSearchURL
	}
	s.client = scrape.NewHTTPClient(scrape.HTTPClientConfig{
		Name:         s.Name(),
		RateLimitRPS: 5.0, // the item API needs one call per story
		UserAgent:    config["user_agent"],
	})
	return nil
}

// Scrape fetches a feed or, with opts.Search, runs an Algolia query.
func (s *Scraper) Scrape(ctx context.Context, target string, limit int, opts scrape.Options) ([]models.Post, error) {
	if s.client == nil {
		return nil, scrape.ErrNotConfigured
	}
	if opts.Search {
		return s.search(ctx, target, limit, opts)
	}
	return s.fetchFeed(ctx, target, limit)
}

// HealthCheck probes the topstories feed.
func (s *Scraper) HealthCheck(ctx context.Context) bool {
	if s.client == nil {
		return false
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	_, err := s.client.Get(ctx, s.baseURL+"/topstories.json", nil)
	return err == nil
}

// item is the official API's story shape.
type item struct {
	ID          int    `json:"id"`
	Type        string `json:"type"`
	Deleted     bool   `json:"deleted"`
	Dead        bool   `json:"dead"`
	By          string `json:"by"`
	Time        int64  `json:"time"`
	Title       string `json:"title"`
	Text        string `json:"text"`
	URL         string `json:"url"`
	Score       int    `json:"score"`
	Kids        []int  `json:"kids"`
	Descendants int    `json:"descendants"`
}

func (s *Scraper) fetchFeed(ctx context.Context, feed string, limit int) ([]models.Post, error) {
	endpoint, ok := feedEndpoints[feed]
	if !ok {
		endpoint = feed // allow raw endpoint names
	}

	body, err := s.client.Get(ctx, fmt.Sprintf("%s/%s.json", s.baseURL, endpoint), nil)
	if err != nil {
		return nil, fmt.Errorf("hackernews: fetch %s feed: %w", feed, err)
	}

	var ids []int
	if err := json.Unmarshal(body, &ids); err != nil {
		return nil, fmt.Errorf("hackernews: decode %s feed: %w", feed, err)
	}
	if len(ids) > limit {
		ids = ids[:limit]
	}

	posts := make([]models.Post, 0, len(ids))
	for _, id := range ids {
		select {
		case <-ctx.Done():
			return posts, ctx.Err()
		default:
		}

		itemBody, err := s.client.Get(ctx, fmt.Sprintf("%s/item/%d.json", s.baseURL, id), nil)
		if err != nil {
			log.Debug().Int("item_id", id).Err(err).Msg("Skipping unfetchable story")
			continue
		}
		var it item
		if err := json.Unmarshal(itemBody, &it); err != nil || it.ID == 0 {
			continue
		}
		if it.Type != "story" || it.Deleted || it.Dead {
			continue
		}
		posts = append(posts, s.itemToPost(it))
	}
	return posts, nil
}

func (s *Scraper) itemToPost(it item) models.Post {
	channel := "hn/story"
	switch {
	case strings.HasPrefix(it.Title, "Ask HN"):
		channel = "hn/ask"
	case strings.HasPrefix(it.Title, "Show HN"):
		channel = "hn/show"
	}

	author := it.By
	if author == "" {
		author = "unknown"
	}
	postURL := it.URL
	if postURL == "" {
		postURL = fmt.Sprintf("https://news.ycombinator.com/item?id=%d", it.ID)
	}
	created := time.Time{}
	if it.Time > 0 {
		created = time.Unix(it.Time, 0)
	}

	return models.Post{
		ID:            scrape.PrefixID(s.Name(), fmt.Sprintf("%d", it.ID)),
		Source:        s.Name(),
		Title:         it.Title,
		Body:          it.Text,
		Author:        author,
		URL:           postURL,
		Upvotes:       maxInt(0, it.Score),
		CommentsCount: len(it.Kids),
		CreatedAt:     scrape.NormalizeTime(created),
		Channel:       channel,
		Metadata: map[string]any{
			"hn_id":       it.ID,
			"hn_type":     it.Type,
			"descendants": it.Descendants,
		},
	}
}

// searchHit is Algolia's story shape.
type searchHit struct {
	ObjectID    string   `json:"objectID"`
	Title       string   `json:"title"`
	StoryText   string   `json:"story_text"`
	CommentText string   `json:"comment_text"`
	Author      string   `json:"author"`
	URL         string   `json:"url"`
	Points      int      `json:"points"`
	NumComments int      `json:"num_comments"`
	CreatedAtI  int64    `json:"created_at_i"`
	Tags        []string `json:"_tags"`
}

func (s *Scraper) search(ctx context.Context, query string, limit int, opts scrape.Options) ([]models.Post, error) {
	// Relevance-ranked search for "top", date-ordered otherwise.
	endpoint := "search_by_date"
	if opts.Sort == "top" {
		endpoint = "search"
	}

	params := url.Values{}
	params.Set("query", query)
	params.Set("tags", "story")
	params.Set("hitsPerPage", fmt.Sprintf("%d", minInt(limit, 1000)))

	body, err := s.client.Get(ctx, fmt.Sprintf("%s/%s?%s", s.searchURL, endpoint, params.Encode()), nil)
	if err != nil {
		return nil, fmt.Errorf("hackernews: search %q: %w", query, err)
	}

	var result struct {
		Hits []searchHit `json:"hits"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("hackernews: decode search reply: %w", err)
	}

	posts := make([]models.Post, 0, len(result.Hits))
	for _, hit := range result.Hits {
		if hit.ObjectID == "" {
			continue
		}

		text := hit.StoryText
		if text == "" {
			text = hit.CommentText
		}
		author := hit.Author
		if author == "" {
			author = "unknown"
		}
		postURL := hit.URL
		if postURL == "" {
			postURL = "https://news.ycombinator.com/item?id=" + hit.ObjectID
		}
		channel := "hn/story"
		if len(hit.Tags) > 0 {
			channel = "hn/" + hit.Tags[0]
		}
		created := time.Time{}
		if hit.CreatedAtI > 0 {
			created = time.Unix(hit.CreatedAtI, 0)
		}

		posts = append(posts, models.Post{
			ID:            scrape.PrefixID(s.Name(), hit.ObjectID),
			Source:        s.Name(),
			Title:         hit.Title,
			Body:          text,
			Author:        author,
			URL:           postURL,
			Upvotes:       maxInt(0, hit.Points),
			CommentsCount: maxInt(0, hit.NumComments),
			CreatedAt:     scrape.NormalizeTime(created),
			Channel:       channel,
			Metadata: map[string]any{
				"hn_id": hit.ObjectID,
			},
		})
		if len(posts) >= limit {
			break
		}
	}
	return posts, nil
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
