package monitor

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/signalhound/signalhound/internal/analyze"
	"github.com/signalhound/signalhound/internal/llm"
	"github.com/signalhound/signalhound/internal/models"
	"github.com/signalhound/signalhound/internal/scrape"
	"github.com/signalhound/signalhound/internal/store"
	"github.com/signalhound/signalhound/internal/store/sqlite"
)

type channelScraper struct {
	posts   map[string][]models.Post
	failing map[string]bool
}

func (c *channelScraper) Name() string                      { return "reddit" }
func (c *channelScraper) Platform() string                  { return "Reddit" }
func (c *channelScraper) Capabilities() []scrape.Capability { return nil }
func (c *channelScraper) Configure(map[string]string) error { return nil }
func (c *channelScraper) HealthCheck(context.Context) bool  { return true }
func (c *channelScraper) Scrape(ctx context.Context, target string, limit int, opts scrape.Options) ([]models.Post, error) {
	if c.failing[target] {
		return nil, errors.New("upstream down")
	}
	return c.posts[target], nil
}

type fixedLLM struct{}

func (fixedLLM) Name() string                      { return "fixed" }
func (fixedLLM) Configure(map[string]string) error { return nil }
func (fixedLLM) Complete(context.Context, string, llm.Options) (string, error) {
	return `{"score": 0.7, "reasoning": "mention", "sentiment_label": "frustrated", "sentiment_intensity": 0.6}`, nil
}

func mentionPost(id, title, body string) models.Post {
	return models.Post{
		ID:        id,
		Source:    "reddit",
		Title:     title,
		Body:      body,
		Author:    "u1",
		CreatedAt: time.Now().UTC(),
		Channel:   "r/saas",
	}
}

func newTestMonitor(t *testing.T, scraper scrape.Scraper) (*Monitor, store.Store) {
	t.Helper()
	st := sqlite.New(":memory:")
	require.NoError(t, st.Initialize(context.Background()))
	t.Cleanup(func() { st.Close() })
	return New(scraper, analyze.New(fixedLLM{}), st), st
}

func TestScanCompetitors_SavesMentionsOnly(t *testing.T) {
	scraper := &channelScraper{
		posts: map[string][]models.Post{
			"saas": {
				mentionPost("reddit_1", "Moving off QuickBooks", "the pricing changed again"),
				mentionPost("reddit_2", "Our launch recap", "no competitors named here"),
				mentionPost("reddit_3", "freshbooks vs alternatives", "comparison thread"),
			},
		},
	}
	m, st := newTestMonitor(t, scraper)

	count, err := m.ScanCompetitors(context.Background(), []string{"saas"}, []string{"QuickBooks", "FreshBooks"})
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	// Matching is case-insensitive; both mentions persist with their signal.
	for _, id := range []string{"reddit_1", "reddit_3"} {
		_, err := st.GetPost(context.Background(), id)
		require.NoError(t, err, id)
		signal, err := st.GetSignal(context.Background(), id)
		require.NoError(t, err, id)
		assert.InDelta(t, 0.7, signal.Score, 1e-9)
	}
	_, err = st.GetPost(context.Background(), "reddit_2")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestScanCompetitors_FailingChannelSkipped(t *testing.T) {
	scraper := &channelScraper{
		posts: map[string][]models.Post{
			"saas": {mentionPost("reddit_1", "quickbooks again", "")},
		},
		failing: map[string]bool{"startups": true},
	}
	m, _ := newTestMonitor(t, scraper)

	count, err := m.ScanCompetitors(context.Background(), []string{"startups", "saas"}, []string{"quickbooks"})
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestScanCompetitors_NoCompetitorsNoMatches(t *testing.T) {
	scraper := &channelScraper{
		posts: map[string][]models.Post{
			"saas": {mentionPost("reddit_1", "anything", "at all")},
		},
	}
	m, _ := newTestMonitor(t, scraper)

	count, err := m.ScanCompetitors(context.Background(), []string{"saas"}, nil)
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}
