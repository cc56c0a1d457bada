package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	resolver "github.com/popcornlabs/popcorn-resolver"
)

var (
	resolveSnapshot string
	resolveURL      string
)

// resolveCmd runs the full pipeline against a saved page snapshot.
var resolveCmd = &cobra.Command{
	Use:   "resolve",
	Short: "Resolve a page snapshot to a catalog title",
	Long: `Runs the full resolution pipeline against a saved HTML snapshot: provider
detection, signal extraction, stabilization, and catalog matching.

Examples:
  popcorn-resolver resolve --snapshot page.html --url https://www.netflix.com/title/80057281
  popcorn-resolver resolve --snapshot hero.html --url https://www.disneyplus.com/browse/entity-4e9...`,
	RunE: runResolve,
}

func init() {
	RootCmd.AddCommand(resolveCmd)

	resolveCmd.Flags().StringVarP(&resolveSnapshot, "snapshot", "s", "", "path to the saved HTML snapshot (required)")
	resolveCmd.Flags().StringVarP(&resolveURL, "url", "u", "", "page URL the snapshot was captured from (required)")
	resolveCmd.MarkFlagRequired("snapshot")
	resolveCmd.MarkFlagRequired("url")
}

func runResolve(cmd *cobra.Command, args []string) error {
	contentStore, err := openStoreIfConfigured()
	if err != nil {
		return err
	}
	if contentStore != nil {
		defer contentStore.Close()
	}

	r, err := resolver.New(resolver.Config{
		TMDBAPIKey: viper.GetString(CfgKeyTMDBAPIKey),
		Store:      contentStore,
		Logger:     logrus.StandardLogger(),
	})
	if err != nil {
		return err
	}

	snapshot, err := os.Open(resolveSnapshot)
	if err != nil {
		return fmt.Errorf("failed to open snapshot: %w", err)
	}
	defer snapshot.Close()

	result, err := r.ResolveSnapshot(context.Background(), snapshot, resolveURL)
	if err != nil {
		return err
	}

	if jsonOutput {
		return printJSON(result)
	}

	if result.Content == nil {
		fmt.Println("No resolvable content on this page.")
		return nil
	}

	c := result.Content
	fmt.Printf("Content: %s\n", c.Key())
	fmt.Printf("  Title:  %s\n", orDash(c.Title))
	fmt.Printf("  Year:   %s\n", orDash(c.Year))
	fmt.Printf("  Source: %s (%s)\n", c.Source, orDash(c.ProviderType))
	fmt.Printf("  URL:    %s\n", orDash(c.URL))

	switch result.State {
	case resolver.StateMatched:
		m := result.Match
		fmt.Printf("Match: %s/%d (%s)\n", m.MediaType, m.ExternalID, m.MatchMethod)
		fmt.Printf("  Title:   %s (%s)\n", m.Title, orDash(m.Year))
		fmt.Printf("  Genres:  %s\n", orDash(strings.Join(m.Genres, ", ")))
		fmt.Printf("  IMDb:    %s\n", orDash(m.IMDbID))
		fmt.Printf("  Catalog: %s\n", m.CatalogURL)
	case resolver.StateUnavailable:
		fmt.Printf("Match unavailable: %v\n", result.Err)
	default:
		fmt.Println("No catalog match; pick a title with the candidates command.")
	}
	return nil
}

func orDash(value string) string {
	if strings.TrimSpace(value) == "" {
		return "-"
	}
	return value
}
