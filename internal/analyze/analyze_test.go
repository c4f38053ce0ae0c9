package analyze

import (
	"context"
	"errors"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/signalhound/signalhound/internal/llm"
	"github.com/signalhound/signalhound/internal/models"
)

// scriptedLLM replays a fixed reply or error and records the prompts it saw.
type scriptedLLM struct {
	reply   string
	err     error
	prompts []string
}

func (s *scriptedLLM) Name() string                              { return "scripted" }
func (s *scriptedLLM) Configure(config map[string]string) error  { return nil }
func (s *scriptedLLM) Complete(ctx context.Context, prompt string, opts llm.Options) (string, error) {
	s.prompts = append(s.prompts, prompt)
	return s.reply, s.err
}

func TestAnalyzePost_ParsesReply(t *testing.T) {
	client := &scriptedLLM{reply: `{
		"score": 0.85,
		"reasoning": "clear recurring pain",
		"detected_problems": ["manual invoicing"],
		"suggested_solutions": ["automated billing"],
		"validation_score": 0.6,
		"sentiment_label": "frustrated",
		"sentiment_intensity": 0.7
	}`}
	analyzer := New(client)

	got := analyzer.AnalyzePost(context.Background(), models.Post{
		ID:    "reddit_1",
		Title: "Invoicing is eating my week",
		Body:  "Every month I lose two days to manual invoicing.",
	})

	assert.InDelta(t, 0.85, got.Score, 1e-9)
	assert.Equal(t, "clear recurring pain", got.Reasoning)
	assert.Equal(t, []string{"manual invoicing"}, got.DetectedProblems)
	assert.Equal(t, []string{"automated billing"}, got.SuggestedSolutions)
	assert.InDelta(t, 0.6, got.ValidationScore, 1e-9)
	assert.Equal(t, models.SentimentFrustrated, got.SentimentLabel)
	assert.InDelta(t, 0.7, got.SentimentIntensity, 1e-9)

	require.Len(t, client.prompts, 1)
	assert.Contains(t, client.prompts[0], "Invoicing is eating my week")
	assert.Contains(t, client.prompts[0], "pain point")
}

func TestAnalyzePost_EmptyBodyBecomesNA(t *testing.T) {
	client := &scriptedLLM{reply: `{"score": 0.1}`}
	analyzer := New(client)

	analyzer.AnalyzePost(context.Background(), models.Post{ID: "x", Title: "t"})
	require.Len(t, client.prompts, 1)
	assert.Contains(t, client.prompts[0], "Body: N/A")
}

func TestAnalyzePost_ClipsLongBody(t *testing.T) {
	client := &scriptedLLM{reply: `{"score": 0.1}`}
	analyzer := New(client)

	analyzer.AnalyzePost(context.Background(), models.Post{
		ID:    "x",
		Title: "t",
		Body:  strings.Repeat("a", 10*maxBodyChars),
	})
	require.Len(t, client.prompts, 1)
	assert.Less(t, len(client.prompts[0]), 2*maxBodyChars)
}

func TestAnalyzePost_ClipKeepsUTF8Intact(t *testing.T) {
	client := &scriptedLLM{reply: `{"score": 0.1}`}
	analyzer := New(client)

	// Three-byte runes guarantee the byte cap lands mid-rune.
	analyzer.AnalyzePost(context.Background(), models.Post{
		ID:    "x",
		Title: "t",
		Body:  strings.Repeat("痛", maxBodyChars),
	})
	require.Len(t, client.prompts, 1)
	assert.True(t, utf8.ValidString(client.prompts[0]), "clipping must not split a rune")
}

func TestClipUTF8(t *testing.T) {
	assert.Equal(t, "abc", clipUTF8("abc", 10))
	assert.Equal(t, "ab", clipUTF8("abcd", 2))
	// 2000 is not a multiple of 3, so a naive byte slice would cut mid-rune.
	clipped := clipUTF8(strings.Repeat("痛", 1000), maxBodyChars)
	assert.True(t, utf8.ValidString(clipped))
	assert.LessOrEqual(t, len(clipped), maxBodyChars)
	assert.Equal(t, 1998, len(clipped))
}

func TestAnalyzePost_BackfillsLabelFromIntensity(t *testing.T) {
	client := &scriptedLLM{reply: `{"score": 0.5, "sentiment_intensity": 0.85}`}
	analyzer := New(client)

	got := analyzer.AnalyzePost(context.Background(), models.Post{ID: "x", Title: "t"})
	assert.Equal(t, models.SentimentDesperate, got.SentimentLabel)
	assert.InDelta(t, 0.85, got.SentimentIntensity, 1e-9)
}

func TestAnalyzePost_BackfillsIntensityFromLabel(t *testing.T) {
	client := &scriptedLLM{reply: `{"score": 0.5, "sentiment_label": "curious"}`}
	analyzer := New(client)

	got := analyzer.AnalyzePost(context.Background(), models.Post{ID: "x", Title: "t"})
	assert.Equal(t, models.SentimentCurious, got.SentimentLabel)
	assert.InDelta(t, 0.4, got.SentimentIntensity, 1e-9)
}

func TestBackfillSentiment_Thresholds(t *testing.T) {
	cases := []struct {
		intensity float64
		expected  string
	}{
		{0.85, models.SentimentDesperate},
		{0.65, models.SentimentFrustrated},
		{0.45, models.SentimentCurious},
		{0.2, models.SentimentNeutral},
	}
	for _, tc := range cases {
		score := models.PainScore{SentimentIntensity: tc.intensity}
		backfillSentiment(&score)
		assert.Equal(t, tc.expected, score.SentimentLabel, "intensity %.2f", tc.intensity)
	}
}

func TestAnalyzePost_FailsOpenOnTransportError(t *testing.T) {
	client := &scriptedLLM{err: errors.New("connection refused")}
	analyzer := New(client)

	got := analyzer.AnalyzePost(context.Background(), models.Post{ID: "x", Title: "t"})
	assert.Equal(t, 0.0, got.Score)
	assert.True(t, strings.HasPrefix(got.Reasoning, "Analysis failed"))
	assert.Contains(t, got.Reasoning, "connection refused")
}

func TestAnalyzePost_FailsOpenOnBadJSON(t *testing.T) {
	client := &scriptedLLM{reply: "sorry, I cannot help with that"}
	analyzer := New(client)

	got := analyzer.AnalyzePost(context.Background(), models.Post{ID: "x", Title: "t"})
	assert.Equal(t, 0.0, got.Score)
	assert.True(t, strings.HasPrefix(got.Reasoning, "Analysis failed"))
}

func TestAnalyzePost_StripsCodeFences(t *testing.T) {
	client := &scriptedLLM{reply: "```json\n{\"score\": 0.4}\n```"}
	analyzer := New(client)

	got := analyzer.AnalyzePost(context.Background(), models.Post{ID: "x", Title: "t"})
	assert.InDelta(t, 0.4, got.Score, 1e-9)
}

func TestAnalyzePost_ClampsOutOfRangeScores(t *testing.T) {
	client := &scriptedLLM{reply: `{"score": 7.5, "validation_score": -2}`}
	analyzer := New(client)

	got := analyzer.AnalyzePost(context.Background(), models.Post{ID: "x", Title: "t"})
	assert.Equal(t, 1.0, got.Score)
	assert.Equal(t, 0.0, got.ValidationScore)
}
