package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/popcornlabs/popcorn-resolver/pkg/core/match"
)

var (
	candidatesTitle string
	candidatesYear  int
	candidatesLimit int
)

// candidatesCmd lists pickable catalog candidates for a title. This backs the
// UI's manual "pick a title" affordance for content the matcher could not
// resolve confidently.
var candidatesCmd = &cobra.Command{
	Use:   "candidates",
	Short: "List catalog candidates for manual selection",
	Long: `Lists scored catalog candidates for a title, including the poster and the
network or studio that disambiguates same-titled entries.

Examples:
  popcorn-resolver candidates --title "The Office"
  popcorn-resolver candidates --title "Aladdin" --year 1992 --limit 5`,
	RunE: runCandidates,
}

func init() {
	RootCmd.AddCommand(candidatesCmd)

	candidatesCmd.Flags().StringVarP(&candidatesTitle, "title", "t", "", "title to search (required)")
	candidatesCmd.Flags().IntVarP(&candidatesYear, "year", "y", 0, "release year")
	candidatesCmd.Flags().IntVarP(&candidatesLimit, "limit", "n", 7, "maximum candidates to list")
	candidatesCmd.MarkFlagRequired("title")
}

func runCandidates(cmd *cobra.Command, args []string) error {
	matcher, err := newMatcher()
	if err != nil {
		return err
	}

	candidates, err := matcher.Candidates(context.Background(), match.Query{
		Title: candidatesTitle,
		Year:  candidatesYear,
	}, candidatesLimit)
	if err != nil {
		return fmt.Errorf("candidate search failed: %w", err)
	}
	if len(candidates) == 0 {
		fmt.Println("No candidates found.")
		return nil
	}

	if jsonOutput {
		return printJSON(candidates)
	}

	for i, candidate := range candidates {
		origin := candidate.Network
		if origin == "" {
			origin = candidate.Studio
		}
		fmt.Printf("%d. %s/%d  %s (%s)  score=%.3f\n", i+1, candidate.MediaType, candidate.ExternalID, candidate.Title, orDash(candidate.Year), candidate.Score)
		if origin != "" {
			fmt.Printf("   %s\n", origin)
		}
		if candidate.PosterURL != "" {
			fmt.Printf("   %s\n", candidate.PosterURL)
		}
	}
	return nil
}
