package main

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/signalhound/signalhound/internal/analyze"
	"github.com/signalhound/signalhound/internal/config"
	"github.com/signalhound/signalhound/internal/discovery"
	"github.com/signalhound/signalhound/internal/llm"
	"github.com/signalhound/signalhound/internal/registry"
	"github.com/signalhound/signalhound/internal/scrape"
	"github.com/signalhound/signalhound/internal/scrape/apify"
	"github.com/signalhound/signalhound/internal/scrape/hackernews"
	"github.com/signalhound/signalhound/internal/scrape/indiehackers"
	"github.com/signalhound/signalhound/internal/scrape/producthunt"
	"github.com/signalhound/signalhound/internal/scrape/reddit"
	"github.com/signalhound/signalhound/internal/score"
	"github.com/signalhound/signalhound/internal/store"
	"github.com/signalhound/signalhound/internal/store/sqlite"
)

// app holds the wired component graph for one CLI invocation.
type app struct {
	cfg      *config.Config
	registry *registry.Registry
	store    store.Store
	llm      llm.Client
	analyzer *analyze.Analyzer
	engine   *score.Engine
	orch     *discovery.Orchestrator
}

// newApp builds and configures every component the config enables.
// Configuration failures are fatal here, before any work starts.
func newApp(ctx context.Context) (*app, error) {
	cfg := loadConfig()

	st := sqlite.New(cfg.DBPath)
	if err := st.Initialize(ctx); err != nil {
		return nil, fmt.Errorf("initialize store at %s: %w", cfg.DBPath, err)
	}

	reg := registry.New()
	reg.RegisterStore(cfg.StorageProvider, st)

	pacer := llm.NewPacer(time.Duration(cfg.LLMRequestDelay * float64(time.Second)))
	for _, client := range []llm.Client{llm.NewHosted(pacer), llm.NewOllama(pacer), llm.NewMock()} {
		if err := client.Configure(cfg.LLMConfig(client.Name())); err != nil {
			// Unconfigurable backends stay unregistered; selecting one
			// later fails with the available set in the error.
			log.Debug().Str("llm", client.Name()).Err(err).Msg("LLM backend unavailable")
			continue
		}
		reg.RegisterLLM(client)
	}

	for _, scraper := range buildScrapers(cfg.ActiveScrapers) {
		if err := scraper.Configure(cfg.ScraperConfig(scraper.Name())); err != nil {
			log.Warn().Str("scraper", scraper.Name()).Err(err).Msg("Scraper unavailable")
			continue
		}
		reg.RegisterScraper(scraper)
	}

	client, err := reg.GetLLM(cfg.LLMProvider)
	if err != nil {
		return nil, err
	}

	analyzer := analyze.New(client)
	engine := score.NewEngine(st)

	return &app{
		cfg:      cfg,
		registry: reg,
		store:    st,
		llm:      client,
		analyzer: analyzer,
		engine:   engine,
		orch:     discovery.New(reg, analyzer, engine, st),
	}, nil
}

func (a *app) Close() {
	if err := a.store.Close(); err != nil {
		log.Warn().Err(err).Msg("Store close failed")
	}
}

func buildScrapers(names []string) []scrape.Scraper {
	var scrapers []scrape.Scraper
	for _, name := range names {
		switch name {
		case "reddit":
			scrapers = append(scrapers, reddit.New())
		case "hackernews":
			scrapers = append(scrapers, hackernews.New())
		case "indiehackers":
			scrapers = append(scrapers, indiehackers.New())
		case "g2":
			scrapers = append(scrapers, apify.NewG2())
		case "capterra":
			scrapers = append(scrapers, apify.NewCapterra())
		case "producthunt":
			scrapers = append(scrapers, producthunt.New())
		default:
			log.Warn().Str("scraper", name).Msg("Unknown scraper in active_scrapers")
		}
	}
	return scrapers
}
