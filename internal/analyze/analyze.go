// Package analyze turns raw posts into pain classifications via the LLM
// oracle. Parsing is defensive and the analyzer fails open: a transport or
// parse failure yields a zero score instead of aborting the batch.
package analyze

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/rs/zerolog/log"

	"github.com/signalhound/signalhound/internal/llm"
	"github.com/signalhound/signalhound/internal/metrics"
	"github.com/signalhound/signalhound/internal/models"
)

// maxBodyChars bounds the prompt so long reviews stay inside the completion
// context window.
const maxBodyChars = 2000

const systemPrompt = "You are an expert product researcher specializing in " +
	"identifying high-signal founder opportunities from social signals. " +
	"You output strictly valid JSON."

const promptTemplate = `Analyze the following social media post to determine if it expresses a 'pain point' (a problem, frustration, or unmet need).

Title: %s
Body: %s

Return a JSON object with:
- score: A float between 0.0 and 1.0 (0 = no pain, 1 = high intensity/frequent problem)
- reasoning: A brief explanation of why you gave this score.
- detected_problems: A list of specific problems mentioned.
- suggested_solutions: A list of potential solutions or app ideas that could solve this.
- validation_score: A float between 0.0 and 1.0 (How much validation/evidence of need is in the post?)
- sentiment_label: One of "frustrated", "desperate", "curious", "neutral", "positive".
- sentiment_intensity: A float between 0.0 and 1.0 for how strongly the sentiment is expressed.`

// Analyzer classifies pain intensity with a single fixed prompt per post.
type Analyzer struct {
	llm llm.Client
}

// New builds an analyzer over the given completion client.
func New(client llm.Client) *Analyzer {
	return &Analyzer{llm: client}
}

// AnalyzePost classifies one post. It never returns an error: failures come
// back as a zero-score PainScore with the cause in Reasoning so the
// orchestrator loop keeps moving.
func (a *Analyzer) AnalyzePost(ctx context.Context, post models.Post) models.PainScore {
	body := post.Body
	if body == "" {
		body = "N/A"
	}
	body = clipUTF8(body, maxBodyChars)

	prompt := fmt.Sprintf(promptTemplate, post.Title, body)

	reply, err := a.llm.Complete(ctx, prompt, llm.Options{
		SystemPrompt:   systemPrompt,
		ResponseFormat: "json_object",
	})
	if err != nil {
		return a.failOpen(post.ID, err)
	}

	var parsed struct {
		Score              float64  `json:"score"`
		Reasoning          string   `json:"reasoning"`
		DetectedProblems   []string `json:"detected_problems"`
		SuggestedSolutions []string `json:"suggested_solutions"`
		ValidationScore    float64  `json:"validation_score"`
		SentimentLabel     string   `json:"sentiment_label"`
		SentimentIntensity float64  `json:"sentiment_intensity"`
	}
	if err := json.Unmarshal([]byte(extractJSON(reply)), &parsed); err != nil {
		return a.failOpen(post.ID, fmt.Errorf("parse reply: %w", err))
	}

	score := models.PainScore{
		Score:              clamp01(parsed.Score),
		Reasoning:          parsed.Reasoning,
		DetectedProblems:   parsed.DetectedProblems,
		SuggestedSolutions: parsed.SuggestedSolutions,
		ValidationScore:    clamp01(parsed.ValidationScore),
		SentimentLabel:     strings.ToLower(strings.TrimSpace(parsed.SentimentLabel)),
		SentimentIntensity: clamp01(parsed.SentimentIntensity),
	}
	backfillSentiment(&score)
	return score
}

func (a *Analyzer) failOpen(postID string, err error) models.PainScore {
	log.Error().Str("post_id", postID).Err(err).Msg("Pain analysis failed")
	metrics.AnalysisFailures.Inc()
	return models.PainScore{
		Score:     0.0,
		Reasoning: fmt.Sprintf("Analysis failed: %s", err),
	}
}

// backfillSentiment repairs half-filled sentiment pairs. An intensity with
// no label maps through fixed thresholds; a label with no intensity maps
// through the canonical intensity table.
func backfillSentiment(score *models.PainScore) {
	if score.SentimentLabel == "" && score.SentimentIntensity > 0 {
		switch {
		case score.SentimentIntensity >= 0.8:
			score.SentimentLabel = models.SentimentDesperate
		case score.SentimentIntensity >= 0.6:
			score.SentimentLabel = models.SentimentFrustrated
		case score.SentimentIntensity >= 0.4:
			score.SentimentLabel = models.SentimentCurious
		default:
			score.SentimentLabel = models.SentimentNeutral
		}
	}
	if score.SentimentIntensity == 0 && score.SentimentLabel != "" {
		if intensity, ok := models.SentimentIntensities[score.SentimentLabel]; ok {
			score.SentimentIntensity = intensity
		}
	}
}

// extractJSON strips markdown code fences some models wrap around their
// structured output.
func extractJSON(reply string) string {
	trimmed := strings.TrimSpace(reply)
	if strings.HasPrefix(trimmed, "```") {
		trimmed = strings.TrimPrefix(trimmed, "```json")
		trimmed = strings.TrimPrefix(trimmed, "```")
		if idx := strings.LastIndex(trimmed, "```"); idx >= 0 {
			trimmed = trimmed[:idx]
		}
		trimmed = strings.TrimSpace(trimmed)
	}
	return trimmed
}

// clipUTF8 truncates s to at most max bytes without splitting a rune.
func clipUTF8(s string, max int) string {
	if len(s) <= max {
		return s
	}
	cut := max
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
