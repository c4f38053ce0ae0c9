package sqlite

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/signalhound/signalhound/internal/models"
)

// Row structs mirror the table columns one to one so `SELECT *` scans stay in
// sync with the schema. Conversion to the in-memory model happens here and
// nowhere else.

type postRow struct {
	ID                 string          `db:"id"`
	Source             string          `db:"source"`
	Title              string          `db:"title"`
	Body               sql.NullString  `db:"body"`
	Author             sql.NullString  `db:"author"`
	URL                sql.NullString  `db:"url"`
	Upvotes            int             `db:"upvotes"`
	CommentsCount      int             `db:"comments_count"`
	CreatedAt          string          `db:"created_at"`
	Subreddit          sql.NullString  `db:"subreddit"`
	Metadata           sql.NullString  `db:"metadata"`
	Channel            sql.NullString  `db:"channel"`
	SentimentLabel     sql.NullString  `db:"sentiment_label"`
	SentimentIntensity sql.NullFloat64 `db:"sentiment_intensity"`
}

func (r postRow) toModel() (models.Post, error) {
	createdAt, err := decodeTime(r.CreatedAt)
	if err != nil {
		return models.Post{}, fmt.Errorf("post %s: %w", r.ID, err)
	}

	metadata := map[string]any{}
	if r.Metadata.Valid && r.Metadata.String != "" {
		if err := json.Unmarshal([]byte(r.Metadata.String), &metadata); err != nil {
			return models.Post{}, fmt.Errorf("post %s metadata: %w", r.ID, err)
		}
	}

	return models.Post{
		ID:                 r.ID,
		Source:             r.Source,
		Title:              r.Title,
		Body:               r.Body.String,
		Author:             r.Author.String,
		URL:                r.URL.String,
		Upvotes:            r.Upvotes,
		CommentsCount:      r.CommentsCount,
		CreatedAt:          createdAt,
		Subreddit:          r.Subreddit.String,
		Channel:            r.Channel.String,
		SentimentLabel:     r.SentimentLabel.String,
		SentimentIntensity: r.SentimentIntensity.Float64,
		Metadata:           metadata,
	}, nil
}

type signalRow struct {
	PostID             string          `db:"post_id"`
	Score              sql.NullFloat64 `db:"score"`
	Reasoning          sql.NullString  `db:"reasoning"`
	DetectedProblems   sql.NullString  `db:"detected_problems"`
	SuggestedSolutions sql.NullString  `db:"suggested_solutions"`
	ValidationScore    sql.NullFloat64 `db:"validation_score"`
	EngagementScore    sql.NullFloat64 `db:"engagement_score"`
	RecencyScore       sql.NullFloat64 `db:"recency_score"`
	CompositeValue     sql.NullFloat64 `db:"composite_value"`
	AnalyzedAt         sql.NullString  `db:"analyzed_at"`
	SentimentLabel     sql.NullString  `db:"sentiment_label"`
	SentimentIntensity sql.NullFloat64 `db:"sentiment_intensity"`
}

func (r signalRow) toModel() models.PainScore {
	return models.PainScore{
		Score:              r.Score.Float64,
		Reasoning:          r.Reasoning.String,
		DetectedProblems:   decodeJSONList(r.DetectedProblems),
		SuggestedSolutions: decodeJSONList(r.SuggestedSolutions),
		ValidationScore:    r.ValidationScore.Float64,
		EngagementScore:    r.EngagementScore.Float64,
		RecencyScore:       r.RecencyScore.Float64,
		CompositeValue:     r.CompositeValue.Float64,
		SentimentLabel:     r.SentimentLabel.String,
		SentimentIntensity: r.SentimentIntensity.Float64,
	}
}

type scoreRow struct {
	PostID             string          `db:"post_id"`
	Source             string          `db:"source"`
	FinalScore         float64         `db:"final_score"`
	PainIntensity      sql.NullFloat64 `db:"pain_intensity"`
	EngagementNorm     sql.NullFloat64 `db:"engagement_norm"`
	ValidationEvidence sql.NullFloat64 `db:"validation_evidence"`
	SentimentIntensity sql.NullFloat64 `db:"sentiment_intensity"`
	Recency            sql.NullFloat64 `db:"recency"`
	TrendMomentum      sql.NullFloat64 `db:"trend_momentum"`
	MarketSignal       sql.NullFloat64 `db:"market_signal"`
	CrossSourceBonus   sql.NullFloat64 `db:"cross_source_bonus"`
	Dimensions         sql.NullString  `db:"dimensions"`
	Weights            sql.NullString  `db:"weights"`
	ComputedAt         sql.NullString  `db:"computed_at"`
}

func (r scoreRow) toModel() (models.OpportunityScore, error) {
	computedAt, err := decodeTime(r.ComputedAt.String)
	if err != nil {
		return models.OpportunityScore{}, fmt.Errorf("score %s: %w", r.PostID, err)
	}

	dimensions := map[string]float64{}
	if r.Dimensions.Valid && r.Dimensions.String != "" {
		if err := json.Unmarshal([]byte(r.Dimensions.String), &dimensions); err != nil {
			return models.OpportunityScore{}, fmt.Errorf("score %s dimensions: %w", r.PostID, err)
		}
	}
	weights := map[string]float64{}
	if r.Weights.Valid && r.Weights.String != "" {
		if err := json.Unmarshal([]byte(r.Weights.String), &weights); err != nil {
			return models.OpportunityScore{}, fmt.Errorf("score %s weights: %w", r.PostID, err)
		}
	}

	return models.OpportunityScore{
		PostID:             r.PostID,
		Source:             r.Source,
		FinalScore:         r.FinalScore,
		PainIntensity:      r.PainIntensity.Float64,
		EngagementNorm:     r.EngagementNorm.Float64,
		ValidationEvidence: r.ValidationEvidence.Float64,
		SentimentIntensity: r.SentimentIntensity.Float64,
		Recency:            r.Recency.Float64,
		TrendMomentum:      r.TrendMomentum.Float64,
		MarketSignal:       r.MarketSignal.Float64,
		CrossSourceBonus:   r.CrossSourceBonus.Float64,
		Dimensions:         dimensions,
		Weights:            weights,
		ComputedAt:         computedAt,
	}, nil
}

type leadRow struct {
	ID                 int64           `db:"id"`
	PostID             sql.NullString  `db:"post_id"`
	Source             sql.NullString  `db:"source"`
	Author             sql.NullString  `db:"author"`
	ContentSnippet     sql.NullString  `db:"content_snippet"`
	IntentScore        sql.NullFloat64 `db:"intent_score"`
	SentimentLabel     sql.NullString  `db:"sentiment_label"`
	SentimentIntensity sql.NullFloat64 `db:"sentiment_intensity"`
	ContactURL         sql.NullString  `db:"contact_url"`
	VerifiedProfiles   sql.NullString  `db:"verified_profiles"`
	Status             sql.NullString  `db:"status"`
	CreatedAt          sql.NullString  `db:"created_at"`
}

func (r leadRow) toModel() (models.Lead, error) {
	createdAt, err := decodeTime(r.CreatedAt.String)
	if err != nil {
		return models.Lead{}, fmt.Errorf("lead %d: %w", r.ID, err)
	}

	profiles := map[string]string{}
	if r.VerifiedProfiles.Valid && r.VerifiedProfiles.String != "" {
		if err := json.Unmarshal([]byte(r.VerifiedProfiles.String), &profiles); err != nil {
			return models.Lead{}, fmt.Errorf("lead %d profiles: %w", r.ID, err)
		}
	}

	source := r.Source.String
	if source == "" {
		source = "reddit" // pre-multi-platform rows
	}

	return models.Lead{
		ID:                 r.ID,
		PostID:             r.PostID.String,
		Source:             source,
		Author:             r.Author.String,
		ContentSnippet:     r.ContentSnippet.String,
		IntentScore:        r.IntentScore.Float64,
		SentimentLabel:     r.SentimentLabel.String,
		SentimentIntensity: r.SentimentIntensity.Float64,
		ContactURL:         r.ContactURL.String,
		VerifiedProfiles:   profiles,
		Status:             r.Status.String,
		CreatedAt:          createdAt,
	}, nil
}

type reportRow struct {
	PostID               string         `db:"post_id"`
	Source               sql.NullString `db:"source"`
	IdeaSummary          sql.NullString `db:"idea_summary"`
	MarketSizeEstimate   sql.NullString `db:"market_size_estimate"`
	Competitors          sql.NullString `db:"competitors"`
	SWOTAnalysis         sql.NullString `db:"swot_analysis"`
	ValidationVerdict    sql.NullString `db:"validation_verdict"`
	NextSteps            sql.NullString `db:"next_steps"`
	CorroboratingSources sql.NullString `db:"corroborating_sources"`
	CorroboratingPostIDs sql.NullString `db:"corroborating_post_ids"`
	GeneratedAt          sql.NullString `db:"generated_at"`
}

func (r reportRow) toModel() (models.ValidationReport, error) {
	generatedAt, err := decodeTime(r.GeneratedAt.String)
	if err != nil {
		return models.ValidationReport{}, fmt.Errorf("report %s: %w", r.PostID, err)
	}

	competitors := []map[string]string{}
	if r.Competitors.Valid && r.Competitors.String != "" {
		if err := json.Unmarshal([]byte(r.Competitors.String), &competitors); err != nil {
			return models.ValidationReport{}, fmt.Errorf("report %s competitors: %w", r.PostID, err)
		}
	}
	swot := map[string][]string{}
	if r.SWOTAnalysis.Valid && r.SWOTAnalysis.String != "" {
		if err := json.Unmarshal([]byte(r.SWOTAnalysis.String), &swot); err != nil {
			return models.ValidationReport{}, fmt.Errorf("report %s swot: %w", r.PostID, err)
		}
	}

	source := r.Source.String
	if source == "" {
		source = "reddit"
	}

	return models.ValidationReport{
		PostID:               r.PostID,
		Source:               source,
		IdeaSummary:          r.IdeaSummary.String,
		MarketSizeEstimate:   r.MarketSizeEstimate.String,
		Competitors:          competitors,
		SWOTAnalysis:         swot,
		ValidationVerdict:    r.ValidationVerdict.String,
		NextSteps:            decodeJSONList(r.NextSteps),
		CorroboratingSources: decodeJSONList(r.CorroboratingSources),
		CorroboratingPostIDs: decodeJSONList(r.CorroboratingPostIDs),
		GeneratedAt:          generatedAt,
	}, nil
}
