package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var scoreCmd = &cobra.Command{
	Use:   "score",
	Short: "List top opportunity scores from the store",
	Long: `Read persisted opportunity scores, highest first.

Examples:
  signalhound score
  signalhound score --limit 50 --min-score 0.6
  signalhound score --rescore    (recompute from stored posts and signals)`,
	RunE: runScore,
}

var (
	scoreLimit    int
	scoreMinScore float64
	scoreRescore  bool
)

func init() {
	rootCmd.AddCommand(scoreCmd)

	scoreCmd.Flags().IntVar(&scoreLimit, "limit", 20, "Maximum scores to list (0 = all)")
	scoreCmd.Flags().Float64Var(&scoreMinScore, "min-score", 0.0, "Minimum final score")
	scoreCmd.Flags().BoolVar(&scoreRescore, "rescore", false, "Recompute scores from stored posts and signals")
}

func runScore(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), 5*time.Minute)
	defer cancel()

	application, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer application.Close()

	if scoreRescore {
		if err := rescoreAll(ctx, application); err != nil {
			return err
		}
	}

	scores, err := application.store.GetOpportunityScores(ctx, scoreLimit, scoreMinScore)
	if err != nil {
		return err
	}
	if len(scores) == 0 {
		fmt.Println("No scores stored. Run 'signalhound discover' first.")
		return nil
	}

	fmt.Printf("%-28s %-10s %-7s %-6s %-6s %-6s %-6s\n",
		"POST", "SOURCE", "FINAL", "PAIN", "ENG", "TREND", "BONUS")
	for _, s := range scores {
		fmt.Printf("%-28s %-10s %-7.3f %-6.2f %-6.2f %-6.2f %-6.2f\n",
			clip(s.PostID, 28), s.Source, s.FinalScore,
			s.PainIntensity, s.EngagementNorm, s.TrendMomentum, s.CrossSourceBonus)
	}
	return nil
}

// rescoreAll recomputes opportunity scores for every stored post that has a
// signal. History-backed dimensions pick up everything ingested since the
// original computation.
func rescoreAll(ctx context.Context, application *app) error {
	posts, err := application.store.GetPosts(ctx, 0, "")
	if err != nil {
		return err
	}

	rescored := 0
	for _, post := range posts {
		pain, err := application.store.GetSignal(ctx, post.ID)
		if err != nil {
			continue // unanalyzed post
		}
		opportunity := application.engine.ComputeScore(ctx, post, *pain, nil)
		if err := application.store.SaveOpportunityScore(ctx, opportunity); err != nil {
			return fmt.Errorf("save rescored %s: %w", post.ID, err)
		}
		rescored++
	}
	fmt.Printf("Rescored %d posts.\n", rescored)
	return nil
}
