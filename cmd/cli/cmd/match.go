package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/popcornlabs/popcorn-resolver/pkg/core/match"
)

var (
	matchTitle    string
	matchYear     int
	matchDuration int
	matchGenres   []string
)

// matchCmd runs the matcher directly on explicit signals.
var matchCmd = &cobra.Command{
	Use:   "match",
	Short: "Match title signals against the catalog",
	Long: `Finds the single best catalog match for a set of content signals.

Examples:
  popcorn-resolver match --title "Stranger Things" --year 2016
  popcorn-resolver match --title "Inception" --duration 148 --genre "Science Fiction"`,
	RunE: runMatch,
}

func init() {
	RootCmd.AddCommand(matchCmd)

	matchCmd.Flags().StringVarP(&matchTitle, "title", "t", "", "title to match (required)")
	matchCmd.Flags().IntVarP(&matchYear, "year", "y", 0, "release year")
	matchCmd.Flags().IntVarP(&matchDuration, "duration", "d", 0, "runtime in minutes")
	matchCmd.Flags().StringArrayVarP(&matchGenres, "genre", "g", nil, "genre (repeatable)")
	matchCmd.MarkFlagRequired("title")
}

func runMatch(cmd *cobra.Command, args []string) error {
	if strings.TrimSpace(matchTitle) == "" {
		return fmt.Errorf("--title must not be empty")
	}

	matcher, err := newMatcher()
	if err != nil {
		return err
	}

	result, err := matcher.Match(context.Background(), match.Query{
		Title:           matchTitle,
		Year:            matchYear,
		DurationMinutes: matchDuration,
		Genres:          matchGenres,
	})
	if err != nil {
		return fmt.Errorf("catalog match failed: %w", err)
	}
	if result == nil {
		fmt.Println("No match found.")
		return nil
	}

	if jsonOutput {
		return printJSON(result)
	}

	fmt.Printf("%s/%d  %s (%s)  score=%.3f\n", result.MediaType, result.ExternalID, result.Title, orDash(result.Year), result.Score)
	if result.Overview != "" {
		fmt.Printf("  %s\n", result.Overview)
	}
	fmt.Printf("  Genres:  %s\n", orDash(strings.Join(result.Genres, ", ")))
	fmt.Printf("  Runtime: %d min\n", result.RuntimeMinutes)
	fmt.Printf("  IMDb:    %s\n", orDash(result.IMDbID))
	fmt.Printf("  Catalog: %s\n", result.CatalogURL)
	return nil
}
