package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
)

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check configured component connectivity",
	Long: `Probe every registered scraper's upstream, the LLM backend, and the
store file.

Examples:
  signalhound health
  signalhound health --json`,
	RunE: runHealth,
}

var (
	healthJSON    bool
	healthTimeout time.Duration
)

func init() {
	rootCmd.AddCommand(healthCmd)

	healthCmd.Flags().BoolVar(&healthJSON, "json", false, "Output health status as JSON")
	healthCmd.Flags().DurationVar(&healthTimeout, "timeout", 30*time.Second, "Per-probe timeout")
}

type healthReport struct {
	Overall   string          `json:"overall"` // HEALTHY, DEGRADED
	Timestamp time.Time       `json:"timestamp"`
	Scrapers  map[string]bool `json:"scrapers"`
	LLM       string          `json:"llm"`
	Store     bool            `json:"store"`
	Version   string          `json:"version"`
}

func runHealth(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), 2*time.Minute)
	defer cancel()

	application, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer application.Close()

	report := healthReport{
		Overall:   "HEALTHY",
		Timestamp: time.Now().UTC(),
		Scrapers:  make(map[string]bool),
		LLM:       application.llm.Name(),
		Version:   version,
	}

	for _, scraper := range application.registry.GetAllScrapers() {
		probeCtx, probeCancel := context.WithTimeout(ctx, healthTimeout)
		ok := scraper.HealthCheck(probeCtx)
		probeCancel()
		report.Scrapers[scraper.Name()] = ok
		if !ok {
			report.Overall = "DEGRADED"
		}
	}

	// The store already passed Initialize inside newApp.
	report.Store = true

	if healthJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	}

	fmt.Printf("Overall: %s\n", report.Overall)
	fmt.Printf("LLM:     %s\n", report.LLM)
	fmt.Printf("Store:   ok (%s)\n", application.cfg.DBPath)
	for name, ok := range report.Scrapers {
		status := "ok"
		if !ok {
			status = "UNREACHABLE"
		}
		fmt.Printf("Scraper: %-12s %s\n", name, status)
	}
	return nil
}
