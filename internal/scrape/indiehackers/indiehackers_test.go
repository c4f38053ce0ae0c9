package indiehackers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/signalhound/signalhound/internal/scrape"
)

const feedPage = `<!DOCTYPE html>
<html><body>
<article id="post-abc" class="feed-item border">
  <h3>Validated my invoicing idea with 10 paying users</h3>
  <div class="post-content">How I went   from idea to
  first revenue in 30 days.</div>
  <a href="/post/post-abc">read</a>
  <span class="author-name">jo_builds</span>
  <span class="votes">42 votes</span>
  <a class="comment-link">7 comments</a>
  <time datetime="2026-03-01T08:00:00Z"></time>
</article>
<article class="feed-item border">
  <h2>Untitled-article has a title but no id</h2>
  <span class="votes">3 votes</span>
</article>
<article class="feed-item border">
  <span>nothing identifiable</span>
</article>
<article class="sidebar-card">
  <h3>Not a feed item</h3>
</article>
</body></html>`

func newTestScraper(t *testing.T, baseURL string) *Scraper {
	t.Helper()
	s := New()
	require.NoError(t, s.Configure(map[string]string{"base_url": baseURL}))
	return s
}

func TestScrape_ParsesFeedArticles(t *testing.T) {
	var gotPath string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.Write([]byte(feedPage))
	}))
	defer server.Close()

	s := newTestScraper(t, server.URL)
	posts, err := s.Scrape(context.Background(), "newest", 10, scrape.Options{})
	require.NoError(t, err)
	assert.Equal(t, "/", gotPath, "newest is the homepage feed")
	require.Len(t, posts, 2, "unidentifiable and non-feed articles are dropped")

	first := posts[0]
	assert.Equal(t, "ih_post-abc", first.ID)
	assert.Equal(t, "indiehackers", first.Source)
	assert.Equal(t, "indiehackers", first.Channel)
	assert.Equal(t, "Validated my invoicing idea with 10 paying users", first.Title)
	assert.Equal(t, "How I went from idea to first revenue in 30 days.", first.Body, "whitespace collapsed")
	assert.Equal(t, "jo_builds", first.Author)
	assert.Equal(t, server.URL+"/post/post-abc", first.URL)
	assert.Equal(t, 42, first.Upvotes)
	assert.Equal(t, 7, first.CommentsCount)
	assert.True(t, first.CreatedAt.Equal(time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)))
	assert.Equal(t, "post-abc", first.Metadata["indiehackers_id"])

	// No id attribute: a stable hash of the title keeps upserts idempotent.
	second := posts[1]
	assert.Contains(t, second.ID, "ih_")
	assert.NotEqual(t, "ih_", second.ID)
	assert.Equal(t, "Indie Hacker", second.Author)
	assert.Equal(t, 3, second.Upvotes)
	assert.WithinDuration(t, time.Now().UTC(), second.CreatedAt, time.Minute)
}

func TestScrape_HashIDStableAcrossRuns(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(feedPage))
	}))
	defer server.Close()

	s := newTestScraper(t, server.URL)
	first, err := s.Scrape(context.Background(), "newest", 10, scrape.Options{})
	require.NoError(t, err)
	second, err := s.Scrape(context.Background(), "newest", 10, scrape.Options{})
	require.NoError(t, err)
	assert.Equal(t, first[1].ID, second[1].ID)
}

func TestScrape_SectionTargetFetchesPath(t *testing.T) {
	var gotPath string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.Write([]byte(feedPage))
	}))
	defer server.Close()

	s := newTestScraper(t, server.URL)
	_, err := s.Scrape(context.Background(), "product-ideas", 10, scrape.Options{})
	require.NoError(t, err)
	assert.Equal(t, "/product-ideas", gotPath)
}

func TestScrape_HonorsLimit(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(feedPage))
	}))
	defer server.Close()

	s := newTestScraper(t, server.URL)
	posts, err := s.Scrape(context.Background(), "newest", 1, scrape.Options{})
	require.NoError(t, err)
	assert.Len(t, posts, 1)
}

func TestScrape_NotConfigured(t *testing.T) {
	_, err := New().Scrape(context.Background(), "newest", 10, scrape.Options{})
	assert.ErrorIs(t, err, scrape.ErrNotConfigured)
}

func TestHealthCheck(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/newest", r.URL.Path)
		w.Write([]byte("<html></html>"))
	}))
	defer server.Close()

	assert.True(t, newTestScraper(t, server.URL).HealthCheck(context.Background()))
	assert.False(t, New().HealthCheck(context.Background()))
}
