// Package score computes the unified Opportunity Score: a weighted blend of
// seven dimensions plus a cross-source corroboration bonus. Two dimensions
// (trend momentum and the bonus) read store history; everything else is a
// pure function of the post and its pain analysis.
package score

import (
	"context"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/signalhound/signalhound/internal/metrics"
	"github.com/signalhound/signalhound/internal/models"
	"github.com/signalhound/signalhound/internal/store"
)

// DefaultWeights is the canonical dimension weighting. The values sum to 1.0
// so the pre-bonus score stays in [0,1].
var DefaultWeights = map[string]float64{
	"pain_intensity":      0.25,
	"engagement_norm":     0.15,
	"validation_evidence": 0.15,
	"sentiment_intensity": 0.15,
	"recency":             0.08,
	"trend_momentum":      0.12,
	"market_signal":       0.10,
}

// engagementNorms holds per-source normalization caps and weights. Upvotes
// mean different things on different platforms: 200 upvotes is a big Reddit
// thread but 20 helpful-votes is a big G2 review.
type engagementNorms struct {
	upvoteCap        float64
	upvoteWeight     float64
	commentCap       float64
	commentWeight    float64
	starRatingWeight float64
}

var engagementNormalizers = map[string]engagementNorms{
	"reddit":     {upvoteCap: 200, upvoteWeight: 0.5, commentCap: 50, commentWeight: 0.5},
	"hackernews": {upvoteCap: 300, upvoteWeight: 0.6, commentCap: 150, commentWeight: 0.4},
	"g2":         {upvoteCap: 20, upvoteWeight: 0.3, commentCap: 1, commentWeight: 0.0, starRatingWeight: 0.7},
	"capterra":   {upvoteCap: 15, upvoteWeight: 0.2, commentCap: 1, commentWeight: 0.0, starRatingWeight: 0.8},
}

// marketKeywords are the intent bins for the market_signal dimension.
// High-bin phrases indicate willingness to pay, medium indicate active
// solution shopping, low indicate general problem awareness.
var marketKeywords = map[string][]string{
	"high": {
		"paying for", "subscription", "monthly fee", "enterprise",
		"api", "b2b", "saas", "willing to pay", "shut up and take my money",
	},
	"medium": {
		"alternative to", "looking for", "better tool", "recommend",
		"comparison", "vs", "switch from", "migrate",
	},
	"low": {
		"how do i", "tutorial", "help with", "frustrated with",
		"wish there was", "why doesn't",
	},
}

var marketBinWeights = map[string]float64{
	"high":   0.3,
	"medium": 0.15,
	"low":    0.05,
}

// historyLimit bounds how many stored posts the history-backed dimensions
// scan per computation.
const historyLimit = 1000

// Engine computes opportunity scores against a history store.
type Engine struct {
	store store.Store
}

// NewEngine builds a scoring engine over the given store.
func NewEngine(s store.Store) *Engine {
	return &Engine{store: s}
}

// ComputeScore scores one post. weights nil selects DefaultWeights; a
// partial override map falls back to the default per missing dimension.
// The result is deterministic for fixed post, pain, store contents, weights
// and clock day.
func (e *Engine) ComputeScore(ctx context.Context, post models.Post, pain models.PainScore, weights map[string]float64) models.OpportunityScore {
	w := resolveWeights(weights)

	d1 := pain.Score
	d2 := EngagementNorm(post)
	d3 := pain.ValidationScore
	d4 := pain.SentimentIntensity
	d5 := RecencyScore(post.CreatedAt)
	d6 := e.trendMomentum(ctx, post)
	d7 := MarketSignal(post)

	base := w["pain_intensity"]*d1 +
		w["engagement_norm"]*d2 +
		w["validation_evidence"]*d3 +
		w["sentiment_intensity"]*d4 +
		w["recency"]*d5 +
		w["trend_momentum"]*d6 +
		w["market_signal"]*d7

	bonus := e.crossSourceBonus(ctx, post)
	final := math.Min(1.0, base+bonus)

	metrics.PostsScored.WithLabelValues(post.Source).Inc()

	return models.OpportunityScore{
		PostID:             post.ID,
		Source:             post.Source,
		FinalScore:         final,
		PainIntensity:      d1,
		EngagementNorm:     d2,
		ValidationEvidence: d3,
		SentimentIntensity: d4,
		Recency:            d5,
		TrendMomentum:      d6,
		MarketSignal:       d7,
		CrossSourceBonus:   bonus,
		Dimensions: map[string]float64{
			"pain_intensity":      d1,
			"engagement_norm":     d2,
			"validation_evidence": d3,
			"sentiment_intensity": d4,
			"recency":             d5,
			"trend_momentum":      d6,
			"market_signal":       d7,
		},
		Weights:    w,
		ComputedAt: time.Now().UTC(),
	}
}

// ComputeScores scores a batch and returns results highest-final first.
// A failing history read degrades the affected dimension, never the batch.
func (e *Engine) ComputeScores(ctx context.Context, pairs []ScoredInput, weights map[string]float64) []models.OpportunityScore {
	scores := make([]models.OpportunityScore, 0, len(pairs))
	for _, pair := range pairs {
		scores = append(scores, e.ComputeScore(ctx, pair.Post, pair.Pain, weights))
	}
	sort.SliceStable(scores, func(i, j int) bool {
		return scores[i].FinalScore > scores[j].FinalScore
	})
	return scores
}

// ScoredInput pairs a post with its pain analysis for batch scoring.
type ScoredInput struct {
	Post models.Post
	Pain models.PainScore
}

func resolveWeights(override map[string]float64) map[string]float64 {
	w := make(map[string]float64, len(DefaultWeights))
	for dim, def := range DefaultWeights {
		w[dim] = def
		if override != nil {
			if v, ok := override[dim]; ok {
				w[dim] = v
			}
		}
	}
	return w
}

// EngagementNorm normalizes raw engagement to [0,1] for the post's source.
// Unknown sources use the discussion-forum table. For review platforms a
// low star rating contributes as pain: a 1-star review is a stronger signal
// than any helpful-vote count.
func EngagementNorm(post models.Post) float64 {
	norms, ok := engagementNormalizers[post.Source]
	if !ok {
		norms = engagementNormalizers["reddit"]
	}

	upvoteScore := math.Min(1.0, float64(post.Upvotes)/norms.upvoteCap) * norms.upvoteWeight
	commentScore := math.Min(1.0, float64(post.CommentsCount)/math.Max(1, norms.commentCap)) * norms.commentWeight

	if norms.starRatingWeight > 0 {
		if rating, ok := post.StarRating(); ok {
			starPain := math.Max(0.0, (5-rating)/4.0)
			return upvoteScore + commentScore + starPain*norms.starRatingWeight
		}
	}
	return upvoteScore + commentScore
}

// RecencyScore buckets post age into fixed decay steps.
func RecencyScore(createdAt time.Time) float64 {
	days := int(time.Since(createdAt).Hours() / 24)
	switch {
	case days < 1:
		return 1.0
	case days < 7:
		return 0.8
	case days < 30:
		return 0.5
	case days < 90:
		return 0.2
	}
	return 0.0
}

// MarketSignal scans title+body for intent keywords and sums bin weights,
// clamped to 1.
func MarketSignal(post models.Post) float64 {
	content := strings.ToLower(post.Content())
	score := 0.0
	for bin, keywords := range marketKeywords {
		weight := marketBinWeights[bin]
		for _, kw := range keywords {
			if strings.Contains(content, kw) {
				score += weight
			}
		}
	}
	return math.Min(1.0, score)
}

// trendMomentum compares how often the post's key terms appear in same-source
// history over the last 30 days versus the 30 days before that, squashed
// through a sigmoid centered on ratio 1. No usable history reads as neutral
// 0.5.
func (e *Engine) trendMomentum(ctx context.Context, post models.Post) float64 {
	keyTerms := ExtractKeyTerms(post)
	if len(keyTerms) == 0 {
		return 0.5
	}

	history, err := e.store.GetPosts(ctx, historyLimit, post.Source)
	if err != nil {
		log.Error().Str("post_id", post.ID).Err(err).Msg("Trend momentum history read failed")
		return 0.5
	}

	now := time.Now().UTC()
	recentCutoff := now.AddDate(0, 0, -30)
	olderCutoff := now.AddDate(0, 0, -60)

	recentCount, olderCount := 0, 0
	for _, p := range history {
		if p.ID == post.ID {
			continue
		}
		if !matchesAnyTerm(&p, keyTerms) {
			continue
		}
		switch {
		case !p.CreatedAt.Before(recentCutoff):
			recentCount++
		case !p.CreatedAt.Before(olderCutoff) && p.CreatedAt.Before(recentCutoff):
			olderCount++
		}
	}

	if olderCount == 0 {
		return 0.5
	}
	ratio := float64(recentCount) / float64(olderCount)
	return 1.0 / (1.0 + math.Exp(-2*(ratio-1.0)))
}

// crossSourceBonus grants 0.05 per distinct other source whose recent (90d)
// posts share any of this post's key terms. Cross-platform corroboration is
// the strongest validation a pain topic can get.
func (e *Engine) crossSourceBonus(ctx context.Context, post models.Post) float64 {
	keyTerms := ExtractKeyTerms(post)
	if len(keyTerms) == 0 {
		return 0.0
	}

	history, err := e.store.GetPosts(ctx, historyLimit, "")
	if err != nil {
		log.Error().Str("post_id", post.ID).Err(err).Msg("Cross-source history read failed")
		return 0.0
	}

	cutoff := time.Now().UTC().AddDate(0, 0, -90)
	sources := make(map[string]struct{})
	for _, p := range history {
		if p.CreatedAt.Before(cutoff) || p.Source == post.Source {
			continue
		}
		if matchesAnyTerm(&p, keyTerms) {
			sources[p.Source] = struct{}{}
		}
	}
	return float64(len(sources)) * 0.05
}

func matchesAnyTerm(post *models.Post, terms []string) bool {
	content := strings.ToLower(post.Content())
	for _, term := range terms {
		if strings.Contains(content, term) {
			return true
		}
	}
	return false
}
