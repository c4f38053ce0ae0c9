package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/signalhound/signalhound/internal/scrape"
)

var discoverCmd = &cobra.Command{
	Use:   "discover",
	Short: "Run the discovery pipeline over configured sources",
	Long: `Scrape targets, classify pain points with the LLM, compute opportunity
scores, and persist everything clearing the minimum score.

Targets are adapter=target1,target2 pairs; repeat the flag per adapter.

Examples:
  signalhound discover --targets reddit=saas,startups
  signalhound discover --targets hackernews=top --targets reddit=entrepreneur --min-score 0.6
  signalhound discover   (uses configured subreddits on the default scraper)`,
	RunE: runDiscover,
}

var (
	discoverTargets  []string
	discoverMinScore float64
	discoverLimit    int
	discoverTimeout  time.Duration
)

func init() {
	rootCmd.AddCommand(discoverCmd)

	discoverCmd.Flags().StringArrayVar(&discoverTargets, "targets", nil, "adapter=target1,target2 pairs")
	discoverCmd.Flags().Float64Var(&discoverMinScore, "min-score", 0.5, "Minimum final score to persist")
	discoverCmd.Flags().IntVar(&discoverLimit, "limit", 50, "Posts fetched per target")
	discoverCmd.Flags().DurationVar(&discoverTimeout, "timeout", 15*time.Minute, "Overall run timeout")
}

func runDiscover(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), discoverTimeout)
	defer cancel()

	application, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer application.Close()

	targets, err := parseTargets(discoverTargets)
	if err != nil {
		return err
	}
	if len(targets) == 0 {
		// Fall back to the configured forum targets.
		targets = map[string][]string{
			application.cfg.DefaultScraper: application.cfg.Subreddits,
		}
	}

	application.orch.ScrapeLimit = discoverLimit
	results, err := application.orch.Discover(ctx, targets, discoverMinScore, scrape.Options{})
	if err != nil {
		return err
	}

	if len(results) == 0 {
		fmt.Println("No results.")
		return nil
	}

	fmt.Fprintf(os.Stdout, "%-28s %-10s %-7s %-7s %s\n", "POST", "SOURCE", "FINAL", "COMP", "TITLE")
	for _, r := range results {
		fmt.Fprintf(os.Stdout, "%-28s %-10s %-7.3f %-7.3f %s\n",
			clip(r.Post.ID, 28), r.Post.Source, r.Score.FinalScore,
			r.Pain.CompositeValue, clip(r.Post.Title, 60))
	}
	fmt.Printf("\n%d results (persisted those with final score >= %.2f)\n", len(results), discoverMinScore)
	return nil
}

// parseTargets decodes repeated adapter=a,b,c flags.
func parseTargets(raw []string) (map[string][]string, error) {
	targets := make(map[string][]string)
	for _, entry := range raw {
		adapterName, list, found := strings.Cut(entry, "=")
		if !found || adapterName == "" || list == "" {
			return nil, fmt.Errorf("bad --targets entry %q, want adapter=target1,target2", entry)
		}
		for _, target := range strings.Split(list, ",") {
			target = strings.TrimSpace(target)
			if target != "" {
				targets[adapterName] = append(targets[adapterName], target)
			}
		}
	}
	return targets, nil
}

func clip(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-1] + "…"
}
