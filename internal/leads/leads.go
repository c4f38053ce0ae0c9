// Package leads identifies potential customers from stored posts: a cheap
// keyword scan picks candidates, the LLM scores their buying intent, and
// high-intent hits are persisted.
package leads

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog/log"

	"github.com/signalhound/signalhound/internal/llm"
	"github.com/signalhound/signalhound/internal/models"
	"github.com/signalhound/signalhound/internal/store"
)

// intentKeywords gate the LLM call: only posts that phrase an ask get scored.
var intentKeywords = []string{
	"recommend", "looking for", "how do i", "alternative to", "best tool for",
}

// minIntentScore is the keep threshold for extracted leads.
const minIntentScore = 0.6

const systemPrompt = "You are a lead generation specialist. Identify users " +
	"who are actively looking for solutions."

const promptTemplate = `Analyze the following post for 'purchase intent' or 'problem-solving intent'.
The user is looking for a solution, recommendation, or alternative.

Post: %s
Content: %s

Return a JSON object:
{
    "intent_score": float (0-1),
    "content_snippet": "short summary of what they need",
    "reasoning": "why this is a lead"
}`

// Scanner extracts leads from the store's recent posts.
type Scanner struct {
	llm   llm.Client
	store store.Store
}

// NewScanner builds a lead scanner.
func NewScanner(client llm.Client, s store.Store) *Scanner {
	return &Scanner{llm: client, store: s}
}

// Scan reads up to postLimit recent posts, extracts intent from keyword
// matches, persists leads scoring at least 0.6, and returns them. Per-post
// failures are logged and skipped.
func (s *Scanner) Scan(ctx context.Context, postLimit int) ([]models.Lead, error) {
	posts, err := s.store.GetPosts(ctx, postLimit, "")
	if err != nil {
		return nil, fmt.Errorf("load posts for lead scan: %w", err)
	}

	var leads []models.Lead
	for _, post := range posts {
		if err := ctx.Err(); err != nil {
			return leads, err
		}
		if !HasIntentKeyword(post) {
			continue
		}

		lead, err := s.ExtractIntent(ctx, post)
		if err != nil {
			log.Error().Str("post_id", post.ID).Err(err).Msg("Lead extraction failed")
			continue
		}
		if lead.IntentScore < minIntentScore {
			continue
		}

		id, err := s.store.SaveLead(ctx, *lead)
		if err != nil {
			log.Error().Str("post_id", post.ID).Err(err).Msg("Failed to persist lead")
		} else {
			lead.ID = id
		}
		leads = append(leads, *lead)
	}
	return leads, nil
}

// ExtractIntent scores one post's buying intent via the LLM.
func (s *Scanner) ExtractIntent(ctx context.Context, post models.Post) (*models.Lead, error) {
	body := post.Body
	if body == "" {
		body = "N/A"
	}
	prompt := fmt.Sprintf(promptTemplate, post.Title, body)

	reply, err := s.llm.Complete(ctx, prompt, llm.Options{
		SystemPrompt:   systemPrompt,
		ResponseFormat: "json_object",
	})
	if err != nil {
		return nil, fmt.Errorf("intent completion: %w", err)
	}

	var parsed struct {
		IntentScore    float64 `json:"intent_score"`
		ContentSnippet string  `json:"content_snippet"`
		Reasoning      string  `json:"reasoning"`
	}
	if err := json.Unmarshal([]byte(reply), &parsed); err != nil {
		return nil, fmt.Errorf("parse intent reply: %w", err)
	}

	snippet := parsed.ContentSnippet
	if snippet == "" {
		snippet = clipUTF8(post.Title, 100)
	}

	return &models.Lead{
		PostID:             post.ID,
		Source:             post.Source,
		Author:             post.Author,
		ContentSnippet:     snippet,
		IntentScore:        parsed.IntentScore,
		SentimentLabel:     post.SentimentLabel,
		SentimentIntensity: post.SentimentIntensity,
		ContactURL:         post.URL,
		Status:             "new",
		CreatedAt:          time.Now().UTC(),
	}, nil
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

// HasIntentKeyword reports whether the post phrases an ask worth an LLM call.
func HasIntentKeyword(post models.Post) bool {
	content := strings.ToLower(post.Content())
	for _, kw := range intentKeywords {
		if strings.Contains(content, kw) {
			return true
		}
	}
	return false
}
