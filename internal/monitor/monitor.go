// Package monitor watches channels for competitor mentions and drives
// scheduled discovery passes.
package monitor

import (
	"context"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/signalhound/signalhound/internal/analyze"
	"github.com/signalhound/signalhound/internal/discovery"
	"github.com/signalhound/signalhound/internal/scrape"
	"github.com/signalhound/signalhound/internal/store"
)

// Monitor scans a single adapter's channels for mention signals.
type Monitor struct {
	scraper  scrape.Scraper
	analyzer *analyze.Analyzer
	store    store.Store

	// ScrapeLimit is the per-channel fetch cap.
	ScrapeLimit int
}

// New builds a monitor over one adapter.
func New(scraper scrape.Scraper, analyzer *analyze.Analyzer, s store.Store) *Monitor {
	return &Monitor{
		scraper:     scraper,
		analyzer:    analyzer,
		store:       s,
		ScrapeLimit: 50,
	}
}

// ScanCompetitors scrapes each channel and saves every post mentioning any
// competitor name, with its pain analysis. Returns the number of mentions
// found. Per-channel errors are logged and skipped.
func (m *Monitor) ScanCompetitors(ctx context.Context, channels, competitors []string) (int, error) {
	lowered := make([]string, len(competitors))
	for i, c := range competitors {
		lowered[i] = strings.ToLower(c)
	}

	count := 0
	for _, channel := range channels {
		if err := ctx.Err(); err != nil {
			return count, err
		}

		posts, err := m.scraper.Scrape(ctx, channel, m.ScrapeLimit, scrape.Options{})
		if err != nil {
			log.Error().Str("channel", channel).Err(err).Msg("Monitor scrape failed")
			continue
		}

		for _, post := range posts {
			content := strings.ToLower(post.Content())
			mentioned := false
			for _, comp := range lowered {
				if strings.Contains(content, comp) {
					mentioned = true
					break
				}
			}
			if !mentioned {
				continue
			}

			pain := m.analyzer.AnalyzePost(ctx, post)
			if err := m.store.SavePost(ctx, post); err != nil {
				log.Error().Str("post_id", post.ID).Err(err).Msg("Failed to persist mention")
				continue
			}
			if err := m.store.SaveSignal(ctx, post.ID, pain); err != nil {
				log.Error().Str("post_id", post.ID).Err(err).Msg("Failed to persist mention signal")
			}

			count++
			log.Info().Str("channel", channel).Str("title", post.Title).
				Msg("Monitor found competitor mention")
		}
	}
	return count, nil
}

// RunPeriodicDiscovery triggers one discovery pass over targets and returns
// how many results cleared the pipeline. Posts already analyzed in earlier
// passes are re-analyzed; upserts keep the store consistent.
func RunPeriodicDiscovery(ctx context.Context, orch *discovery.Orchestrator, targets map[string][]string, minScore float64) (int, error) {
	results, err := orch.Discover(ctx, targets, minScore, scrape.Options{})
	if err != nil {
		return len(results), err
	}
	return len(results), nil
}
