package main

import (
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/signalhound/signalhound/internal/config"
)

const (
	appName = "SignalHound"
	version = "v1.0.0"
)

var (
	cfgPath string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:     "signalhound",
	Short:   "Discover and rank founder opportunities from social signals",
	Version: version,
	Long: `SignalHound scrapes discussion forums, news aggregators, review
platforms and launch sites, classifies pain points with an LLM, and ranks
them with a unified cross-platform Opportunity Score.

Typical flow:
  signalhound discover --targets reddit=saas,startups --min-score 0.5
  signalhound score --limit 20
  signalhound leads --limit 100`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if verbose {
			zerolog.SetGlobalLevel(zerolog.DebugLevel)
		} else {
			zerolog.SetGlobalLevel(zerolog.InfoLevel)
		}
	},
}

func main() {
	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})

	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "", "Config file path (default ~/.signalhound/config.json)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func loadConfig() *config.Config {
	return config.Load(cfgPath)
}
