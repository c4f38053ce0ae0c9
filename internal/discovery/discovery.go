// Package discovery runs the full pipeline: fan out to source adapters,
// prefilter raw posts, classify pain with the LLM analyzer, compute
// opportunity scores against store history, and persist what clears the
// score threshold.
package discovery

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/signalhound/signalhound/internal/analyze"
	"github.com/signalhound/signalhound/internal/metrics"
	"github.com/signalhound/signalhound/internal/models"
	"github.com/signalhound/signalhound/internal/registry"
	"github.com/signalhound/signalhound/internal/scrape"
	"github.com/signalhound/signalhound/internal/score"
	"github.com/signalhound/signalhound/internal/store"
)

// maxParallelTasks bounds adapter×target fan-out. LLM calls serialize behind
// the shared pacer regardless, so this only caps upstream HTTP concurrency.
const maxParallelTasks = 4

// Result is one post that survived the prefilter, with its pain analysis
// and opportunity score.
type Result struct {
	Post  models.Post
	Pain  models.PainScore
	Score models.OpportunityScore
}

// Orchestrator wires adapters, analyzer, scoring, and the store together.
type Orchestrator struct {
	registry *registry.Registry
	analyzer *analyze.Analyzer
	engine   *score.Engine
	store    store.Store

	// ScrapeLimit is the per-target fetch cap.
	ScrapeLimit int
	// Weights overrides the default scoring weights when non-nil.
	Weights map[string]float64
}

// New builds an orchestrator with the default per-target fetch limit.
func New(reg *registry.Registry, analyzer *analyze.Analyzer, engine *score.Engine, s store.Store) *Orchestrator {
	return &Orchestrator{
		registry:    reg,
		analyzer:    analyzer,
		engine:      engine,
		store:       s,
		ScrapeLimit: 50,
	}
}

// Discover runs one pass over targets, a map of adapter name to target list.
// Posts whose final score reaches minScore are persisted (post, signal,
// score) and returned sorted by composite value descending; posts below the
// threshold are dropped. A failing (adapter, target) pair is logged and
// skipped, never fatal to the run.
func (o *Orchestrator) Discover(ctx context.Context, targets map[string][]string, minScore float64, opts scrape.Options) ([]Result, error) {
	runID := uuid.NewString()
	logger := log.With().Str("run_id", runID).Logger()
	logger.Info().Int("adapters", len(targets)).Float64("min_score", minScore).Msg("Starting discovery run")

	type task struct {
		adapterName string
		target      string
	}
	var tasks []task
	for adapterName, targetList := range targets {
		for _, target := range targetList {
			tasks = append(tasks, task{adapterName: adapterName, target: target})
		}
	}

	var (
		mu      sync.Mutex
		results []Result
		wg      sync.WaitGroup
		sem     = make(chan struct{}, maxParallelTasks)
	)

	for _, t := range tasks {
		wg.Add(1)
		go func(t task) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			taskResults, err := o.runTask(ctx, t.adapterName, t.target, minScore)
			if err != nil {
				logger.Error().Str("adapter", t.adapterName).Str("target", t.target).
					Err(err).Msg("Discovery task failed")
				metrics.ScrapeErrors.WithLabelValues(t.adapterName).Inc()
				return
			}
			mu.Lock()
			results = append(results, taskResults...)
			mu.Unlock()
		}(t)
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return results, err
	}

	// Parallel tasks append in arrival order, so ties break on post id to
	// keep the returned order stable across runs.
	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Pain.CompositeValue != results[j].Pain.CompositeValue {
			return results[i].Pain.CompositeValue > results[j].Pain.CompositeValue
		}
		return results[i].Post.ID < results[j].Post.ID
	})

	logger.Info().Int("results", len(results)).Msg("Discovery run complete")
	return results, nil
}

func (o *Orchestrator) runTask(ctx context.Context, adapterName, target string, minScore float64) ([]Result, error) {
	scraper, err := o.registry.GetScraper(adapterName)
	if err != nil {
		return nil, err
	}

	posts, err := scraper.Scrape(ctx, target, o.ScrapeLimit, scrape.Options{})
	if err != nil {
		return nil, err
	}
	metrics.PostsScraped.WithLabelValues(adapterName).Add(float64(len(posts)))

	var results []Result
	for _, post := range posts {
		if err := ctx.Err(); err != nil {
			return results, err
		}
		if !PassesPrefilter(post) {
			metrics.PrefilterDropped.WithLabelValues(post.Source).Inc()
			continue
		}

		pain := o.analyzer.AnalyzePost(ctx, post)
		applyLegacyComposite(post, &pain)

		opportunity := o.engine.ComputeScore(ctx, post, pain, o.Weights)

		if opportunity.FinalScore < minScore {
			continue
		}
		o.persist(ctx, post, pain, opportunity)
		results = append(results, Result{Post: post, Pain: pain, Score: opportunity})
	}
	return results, nil
}

// persist writes post, signal, and score. Storage errors are logged and the
// run continues with in-memory results.
func (o *Orchestrator) persist(ctx context.Context, post models.Post, pain models.PainScore, opportunity models.OpportunityScore) {
	if err := o.store.SavePost(ctx, post); err != nil {
		log.Error().Str("post_id", post.ID).Err(err).Msg("Failed to persist post")
		return
	}
	if err := o.store.SaveSignal(ctx, post.ID, pain); err != nil {
		log.Error().Str("post_id", post.ID).Err(err).Msg("Failed to persist signal")
	}
	if err := o.store.SaveOpportunityScore(ctx, opportunity); err != nil {
		log.Error().Str("post_id", post.ID).Err(err).Msg("Failed to persist opportunity score")
	}
}

// PassesPrefilter applies the platform-aware minimum-engagement rule that
// gates LLM spend. Review platforms pass unconditionally: a review with zero
// helpful-votes can still describe a burning pain.
func PassesPrefilter(post models.Post) bool {
	switch post.Source {
	case "g2", "capterra":
		return true
	case "hackernews":
		return post.Upvotes >= 3 || post.CommentsCount >= 1
	default:
		return post.Upvotes >= 5 || post.CommentsCount >= 2
	}
}

// applyLegacyComposite fills the v1 ranking fields the orchestrator's return
// order is defined by. The formula predates the opportunity score and is kept
// so stored signals stay comparable across versions.
func applyLegacyComposite(post models.Post, pain *models.PainScore) {
	engagement := (float64(post.Upvotes)*0.5 + float64(post.CommentsCount)*1.0) / 100.0
	if engagement > 1.0 {
		engagement = 1.0
	}
	pain.EngagementScore = engagement
	pain.RecencyScore = score.RecencyScore(post.CreatedAt)
	pain.CompositeValue = pain.Score*0.4 +
		pain.EngagementScore*0.25 +
		pain.ValidationScore*0.25 +
		pain.RecencyScore*0.10
}
