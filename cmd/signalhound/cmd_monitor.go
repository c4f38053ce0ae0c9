package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/signalhound/signalhound/internal/monitor"
)

var monitorCmd = &cobra.Command{
	Use:   "monitor",
	Short: "Watch channels for competitor mentions or run periodic discovery",
	Long: `Scan channels on one adapter for competitor name mentions, analyzing
and persisting every hit, or trigger a scheduled discovery pass.

Examples:
  signalhound monitor --channels saas,startups --competitors notion,airtable
  signalhound monitor --periodic --targets reddit=saas --min-score 0.5`,
	RunE: runMonitor,
}

var (
	monitorChannels    []string
	monitorCompetitors []string
	monitorAdapter     string
	monitorPeriodic    bool
	monitorTargets     []string
	monitorMinScore    float64
)

func init() {
	rootCmd.AddCommand(monitorCmd)

	monitorCmd.Flags().StringSliceVar(&monitorChannels, "channels", nil, "Channels to scan")
	monitorCmd.Flags().StringSliceVar(&monitorCompetitors, "competitors", nil, "Competitor names to match")
	monitorCmd.Flags().StringVar(&monitorAdapter, "adapter", "", "Adapter to scan with (default: configured default)")
	monitorCmd.Flags().BoolVar(&monitorPeriodic, "periodic", false, "Run one periodic discovery pass instead")
	monitorCmd.Flags().StringArrayVar(&monitorTargets, "targets", nil, "adapter=target1,target2 pairs for --periodic")
	monitorCmd.Flags().Float64Var(&monitorMinScore, "min-score", 0.5, "Minimum final score for --periodic")
}

func runMonitor(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), 15*time.Minute)
	defer cancel()

	application, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer application.Close()

	if monitorPeriodic {
		targets, err := parseTargets(monitorTargets)
		if err != nil {
			return err
		}
		if len(targets) == 0 {
			targets = map[string][]string{
				application.cfg.DefaultScraper: application.cfg.Subreddits,
			}
		}
		count, err := monitor.RunPeriodicDiscovery(ctx, application.orch, targets, monitorMinScore)
		if err != nil {
			return err
		}
		fmt.Printf("Periodic discovery complete: %d results.\n", count)
		return nil
	}

	if len(monitorChannels) == 0 || len(monitorCompetitors) == 0 {
		return fmt.Errorf("--channels and --competitors are required (or use --periodic)")
	}

	adapterName := monitorAdapter
	if adapterName == "" {
		adapterName = application.cfg.DefaultScraper
	}
	scraper, err := application.registry.GetScraper(adapterName)
	if err != nil {
		return err
	}

	mon := monitor.New(scraper, application.analyzer, application.store)
	count, err := mon.ScanCompetitors(ctx, monitorChannels, monitorCompetitors)
	if err != nil {
		return err
	}
	fmt.Printf("Found %d mentions of [%s] across %d channels.\n",
		count, strings.Join(monitorCompetitors, ", "), len(monitorChannels))
	return nil
}
