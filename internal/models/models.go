package models

import (
	"time"
)

// Sentiment labels assigned by the pain analyzer.
const (
	SentimentFrustrated = "frustrated"
	SentimentDesperate  = "desperate"
	SentimentCurious    = "curious"
	SentimentNeutral    = "neutral"
	SentimentPositive   = "positive"
)

// SentimentIntensities maps each sentiment label to its default intensity,
// used to backfill replies where the model returned a label without a value.
var SentimentIntensities = map[string]float64{
	SentimentFrustrated: 0.7,
	SentimentDesperate:  1.0,
	SentimentCurious:    0.4,
	SentimentNeutral:    0.2,
	SentimentPositive:   0.1,
}

// Post is the normalized representation of one item ingested from any
// platform: a discussion thread, a story, or a product review.
//
// IDs are unique per (source, id); adapters prefix raw ids with their source
// name so two platforms can never collide in the same store.
type Post struct {
	ID            string    `json:"id" db:"id"`
	Source        string    `json:"source" db:"source"`
	Title         string    `json:"title" db:"title"`
	Body          string    `json:"body,omitempty" db:"body"`
	Author        string    `json:"author" db:"author"`
	URL           string    `json:"url" db:"url"`
	Upvotes       int       `json:"upvotes" db:"upvotes"`
	CommentsCount int       `json:"comments_count" db:"comments_count"`
	CreatedAt     time.Time `json:"created_at" db:"created_at"`

	// Channel is the human-readable sub-context: "r/saas", "hn/ask", "g2/slack".
	Channel string `json:"channel,omitempty" db:"channel"`
	// Subreddit is kept for backward compatibility with databases written
	// before Channel existed. New adapters set Channel only.
	Subreddit string `json:"subreddit,omitempty" db:"subreddit"`

	SentimentLabel     string  `json:"sentiment_label,omitempty" db:"sentiment_label"`
	SentimentIntensity float64 `json:"sentiment_intensity" db:"sentiment_intensity"`

	// Metadata carries adapter-specific hints (star_rating, upvote_ratio, ...).
	// Serialized to a JSON text column at the store boundary.
	Metadata map[string]any `json:"metadata"`
}

// DisplayChannel returns the best available human-readable channel name.
func (p *Post) DisplayChannel() string {
	if p.Channel != "" {
		return p.Channel
	}
	if p.Subreddit != "" {
		return "r/" + p.Subreddit
	}
	return p.Source
}

// Content returns the lowercase-able title+body concatenation used by
// keyword and key-term matching.
func (p *Post) Content() string {
	if p.Body == "" {
		return p.Title
	}
	return p.Title + " " + p.Body
}

// PainScore is the analyzer's classification of a single post.
type PainScore struct {
	// Score is the pain intensity in [0,1]: 0 = no pain signal,
	// 1 = high intensity or frequently recurring problem.
	Score              float64  `json:"score" db:"score"`
	Reasoning          string   `json:"reasoning" db:"reasoning"`
	DetectedProblems   []string `json:"detected_problems"`
	SuggestedSolutions []string `json:"suggested_solutions"`

	// Legacy composite fields retained for the v1 ranking formula.
	EngagementScore float64 `json:"engagement_score" db:"engagement_score"`
	ValidationScore float64 `json:"validation_score" db:"validation_score"`
	RecencyScore    float64 `json:"recency_score" db:"recency_score"`
	CompositeValue  float64 `json:"composite_value" db:"composite_value"`

	SentimentLabel     string  `json:"sentiment_label,omitempty" db:"sentiment_label"`
	SentimentIntensity float64 `json:"sentiment_intensity" db:"sentiment_intensity"`
}

// OpportunityScore is the unified cross-platform ranking score for a post.
// It is fully recomputable from the post, its pain score, and store history;
// re-running scoring for the same post overwrites the prior record.
type OpportunityScore struct {
	PostID     string  `json:"post_id" db:"post_id"`
	Source     string  `json:"source" db:"source"`
	FinalScore float64 `json:"final_score" db:"final_score"`

	// Individual dimensions, each in [0,1].
	PainIntensity      float64 `json:"pain_intensity" db:"pain_intensity"`
	EngagementNorm     float64 `json:"engagement_norm" db:"engagement_norm"`
	ValidationEvidence float64 `json:"validation_evidence" db:"validation_evidence"`
	SentimentIntensity float64 `json:"sentiment_intensity" db:"sentiment_intensity"`
	Recency            float64 `json:"recency" db:"recency"`
	TrendMomentum      float64 `json:"trend_momentum" db:"trend_momentum"`
	MarketSignal       float64 `json:"market_signal" db:"market_signal"`
	CrossSourceBonus   float64 `json:"cross_source_bonus" db:"cross_source_bonus"`

	// Audit trail: every dimension value and the weight set used.
	Dimensions map[string]float64 `json:"dimensions"`
	Weights    map[string]float64 `json:"weights"`

	ComputedAt time.Time `json:"computed_at" db:"computed_at"`
}

// Lead is a potential customer identified from purchase or problem-solving
// intent in a stored post.
type Lead struct {
	ID                 int64     `json:"id" db:"id"`
	PostID             string    `json:"post_id" db:"post_id"`
	Source             string    `json:"source" db:"source"`
	Author             string    `json:"author" db:"author"`
	ContentSnippet     string    `json:"content_snippet" db:"content_snippet"`
	IntentScore        float64   `json:"intent_score" db:"intent_score"`
	SentimentLabel     string    `json:"sentiment_label,omitempty" db:"sentiment_label"`
	SentimentIntensity float64   `json:"sentiment_intensity" db:"sentiment_intensity"`
	ContactURL         string    `json:"contact_url" db:"contact_url"`
	VerifiedProfiles   map[string]string `json:"verified_profiles"`
	Status             string    `json:"status" db:"status"` // new | contacted | ignore
	CreatedAt          time.Time `json:"created_at" db:"created_at"`
}

// ValidationReport is a deep-research report about one opportunity with
// multi-source evidence. Report generation lives outside this module; the
// store persists and lists them.
type ValidationReport struct {
	PostID             string              `json:"post_id" db:"post_id"`
	Source             string              `json:"source" db:"source"`
	IdeaSummary        string              `json:"idea_summary" db:"idea_summary"`
	MarketSizeEstimate string              `json:"market_size_estimate" db:"market_size_estimate"`
	Competitors        []map[string]string `json:"competitors"`
	SWOTAnalysis       map[string][]string `json:"swot_analysis"`
	ValidationVerdict  string              `json:"validation_verdict" db:"validation_verdict"`
	NextSteps          []string            `json:"next_steps"`

	CorroboratingSources []string `json:"corroborating_sources"`
	CorroboratingPostIDs []string `json:"corroborating_post_ids"`

	GeneratedAt time.Time `json:"generated_at" db:"generated_at"`
}

// StarRating extracts the metadata star rating for review posts, if present.
// Review adapters store it as a number; JSON round-trips hand it back as
// float64.
func (p *Post) StarRating() (float64, bool) {
	raw, ok := p.Metadata["star_rating"]
	if !ok {
		return 0, false
	}
	switch v := raw.(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	}
	return 0, false
}
