package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/signalhound/signalhound/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show or update the configuration file",
	Long: `Without arguments, print the effective configuration (credentials
redacted). With --init, write a default config file to the user home.

Examples:
  signalhound config
  signalhound config --init
  signalhound config --path /tmp/sh.json`,
	RunE: runConfig,
}

var configInit bool

func init() {
	rootCmd.AddCommand(configCmd)

	configCmd.Flags().BoolVar(&configInit, "init", false, "Write a default config file")
}

func runConfig(cmd *cobra.Command, args []string) error {
	cfg := loadConfig()

	if configInit {
		if err := cfg.Save(); err != nil {
			return err
		}
		path := cfgPath
		if path == "" {
			path = config.DefaultPath()
		}
		fmt.Printf("Wrote config to %s\n", path)
		return nil
	}

	redacted := *cfg
	redacted.GroqAPIKey = redact(redacted.GroqAPIKey)
	redacted.RedditClientSecret = redact(redacted.RedditClientSecret)
	redacted.ApifyAPIToken = redact(redacted.ApifyAPIToken)
	redacted.ProductHuntAPIToken = redact(redacted.ProductHuntAPIToken)

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "    ")
	return enc.Encode(redacted)
}

func redact(secret string) string {
	if secret == "" {
		return ""
	}
	if len(secret) <= 4 {
		return "****"
	}
	return secret[:4] + strings.Repeat("*", 8)
}
