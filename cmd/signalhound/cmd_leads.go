package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/signalhound/signalhound/internal/leads"
	"github.com/signalhound/signalhound/internal/models"
)

var leadsCmd = &cobra.Command{
	Use:   "leads",
	Short: "Scan stored posts for high-intent leads",
	Long: `Scan recently stored posts for purchase or problem-solving intent.
Posts matching an intent keyword are scored by the LLM; leads scoring at
least 0.6 are persisted and listed.

Examples:
  signalhound leads
  signalhound leads --limit 200
  signalhound leads --list    (show stored leads without scanning)`,
	RunE: runLeads,
}

var (
	leadsLimit    int
	leadsListOnly bool
)

func init() {
	rootCmd.AddCommand(leadsCmd)

	leadsCmd.Flags().IntVar(&leadsLimit, "limit", 100, "Posts to scan (or leads to list with --list)")
	leadsCmd.Flags().BoolVar(&leadsListOnly, "list", false, "List stored leads instead of scanning")
}

func runLeads(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), 15*time.Minute)
	defer cancel()

	application, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer application.Close()

	if leadsListOnly {
		stored, err := application.store.GetLeads(ctx, leadsLimit)
		if err != nil {
			return err
		}
		printLeads(stored)
		return nil
	}

	scanner := leads.NewScanner(application.llm, application.store)
	found, err := scanner.Scan(ctx, leadsLimit)
	if err != nil {
		return err
	}
	printLeads(found)
	return nil
}

func printLeads(list []models.Lead) {
	if len(list) == 0 {
		fmt.Println("No leads.")
		return
	}
	fmt.Printf("%-5s %-16s %-10s %-7s %-10s %s\n", "ID", "AUTHOR", "SOURCE", "INTENT", "STATUS", "NEED")
	for _, lead := range list {
		fmt.Printf("%-5d %-16s %-10s %-7.2f %-10s %s\n",
			lead.ID, clip(lead.Author, 16), lead.Source,
			lead.IntentScore, lead.Status, clip(lead.ContentSnippet, 50))
	}
}
