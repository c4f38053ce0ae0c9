package leads

import (
	"context"
	"strings"
	"sync/atomic"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/signalhound/signalhound/internal/llm"
	"github.com/signalhound/signalhound/internal/models"
	"github.com/signalhound/signalhound/internal/store/sqlite"
)

// scriptedLLM returns a fixed reply and counts calls.
type scriptedLLM struct {
	calls int64
	reply string
	err   error
}

func (s *scriptedLLM) Name() string                      { return "scripted" }
func (s *scriptedLLM) Configure(map[string]string) error { return nil }
func (s *scriptedLLM) Complete(ctx context.Context, prompt string, opts llm.Options) (string, error) {
	atomic.AddInt64(&s.calls, 1)
	return s.reply, s.err
}

func newTestScanner(t *testing.T, client llm.Client) (*Scanner, *sqlite.Store) {
	t.Helper()
	st := sqlite.New(":memory:")
	require.NoError(t, st.Initialize(context.Background()))
	t.Cleanup(func() { st.Close() })
	return NewScanner(client, st), st
}

func intentPost(id, title, body string) models.Post {
	return models.Post{
		ID:        id,
		Source:    "reddit",
		Title:     title,
		Body:      body,
		Author:    "founder42",
		URL:       "https://reddit.com/r/saas/" + id,
		CreatedAt: time.Now().UTC(),
		Channel:   "r/saas",
	}
}

func TestHasIntentKeyword(t *testing.T) {
	cases := []struct {
		title    string
		body     string
		expected bool
	}{
		{"Looking for an invoicing tool", "", true},
		{"Any alternative to QuickBooks?", "", true},
		{"Billing", "can anyone recommend something?", true},
		{"How do I automate this?", "", true},
		{"We shipped our new dashboard", "release notes", false},
	}
	for _, tc := range cases {
		got := HasIntentKeyword(intentPost("x", tc.title, tc.body))
		assert.Equal(t, tc.expected, got, tc.title)
	}
}

func TestScan_KeywordGatePrecedesLLM(t *testing.T) {
	client := &scriptedLLM{reply: `{"intent_score": 0.9, "content_snippet": "needs billing"}`}
	scanner, st := newTestScanner(t, client)
	ctx := context.Background()

	require.NoError(t, st.SavePost(ctx, intentPost("reddit_ask", "looking for a billing tool", "")))
	require.NoError(t, st.SavePost(ctx, intentPost("reddit_noise", "our launch went well", "thanks all")))

	found, err := scanner.Scan(ctx, 100)
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, int64(1), atomic.LoadInt64(&client.calls), "posts without an ask must not reach the LLM")
	assert.Equal(t, "reddit_ask", found[0].PostID)
}

func TestScan_PersistsHighIntentLeads(t *testing.T) {
	client := &scriptedLLM{reply: `{"intent_score": 0.8, "content_snippet": "wants invoicing automation", "reasoning": "explicit ask"}`}
	scanner, st := newTestScanner(t, client)
	ctx := context.Background()

	require.NoError(t, st.SavePost(ctx, intentPost("reddit_ask", "looking for invoicing automation", "")))

	found, err := scanner.Scan(ctx, 100)
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Greater(t, found[0].ID, int64(0), "persisted lead carries its row id")
	assert.Equal(t, "new", found[0].Status)
	assert.Equal(t, "wants invoicing automation", found[0].ContentSnippet)

	stored, err := st.GetLeads(ctx, 0)
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.InDelta(t, 0.8, stored[0].IntentScore, 1e-9)
	assert.Equal(t, "founder42", stored[0].Author)
}

func TestScan_DropsBelowThreshold(t *testing.T) {
	client := &scriptedLLM{reply: `{"intent_score": 0.5, "content_snippet": "mild curiosity"}`}
	scanner, st := newTestScanner(t, client)
	ctx := context.Background()

	require.NoError(t, st.SavePost(ctx, intentPost("reddit_ask", "looking for ideas", "")))

	found, err := scanner.Scan(ctx, 100)
	require.NoError(t, err)
	assert.Empty(t, found)

	stored, err := st.GetLeads(ctx, 0)
	require.NoError(t, err)
	assert.Empty(t, stored, "below-threshold intent must not persist")
}

func TestExtractIntent_SnippetFallsBackToTitle(t *testing.T) {
	client := &scriptedLLM{reply: `{"intent_score": 0.7}`}
	scanner, _ := newTestScanner(t, client)

	lead, err := scanner.ExtractIntent(context.Background(), intentPost("reddit_ask", "looking for a CRM", ""))
	require.NoError(t, err)
	assert.Equal(t, "looking for a CRM", lead.ContentSnippet)
	assert.Equal(t, "https://reddit.com/r/saas/reddit_ask", lead.ContactURL)
}

func TestExtractIntent_SnippetFallbackKeepsUTF8Intact(t *testing.T) {
	client := &scriptedLLM{reply: `{"intent_score": 0.7}`}
	scanner, _ := newTestScanner(t, client)

	// A long multi-byte title forces the 100-byte fallback cut mid-rune.
	title := strings.Repeat("ツ", 60)
	lead, err := scanner.ExtractIntent(context.Background(), intentPost("reddit_ask", title, ""))
	require.NoError(t, err)
	assert.True(t, utf8.ValidString(lead.ContentSnippet))
	assert.LessOrEqual(t, len(lead.ContentSnippet), 100)
	assert.Equal(t, 99, len(lead.ContentSnippet))
}

func TestExtractIntent_BadReplyErrors(t *testing.T) {
	client := &scriptedLLM{reply: "sorry, I cannot help"}
	scanner, _ := newTestScanner(t, client)

	_, err := scanner.ExtractIntent(context.Background(), intentPost("reddit_ask", "looking for a CRM", ""))
	assert.Error(t, err)
}

func TestScan_ExtractionFailureSkipsPost(t *testing.T) {
	client := &scriptedLLM{reply: "not json"}
	scanner, st := newTestScanner(t, client)
	ctx := context.Background()

	require.NoError(t, st.SavePost(ctx, intentPost("reddit_ask", "looking for a CRM", "")))

	found, err := scanner.Scan(ctx, 100)
	require.NoError(t, err, "one bad extraction must not fail the scan")
	assert.Empty(t, found)
}
