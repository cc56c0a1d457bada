package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/popcornlabs/popcorn-resolver/pkg/core/content"
	"github.com/popcornlabs/popcorn-resolver/pkg/core/store"
	"github.com/popcornlabs/popcorn-resolver/pkg/core/tmdb"
)

var (
	linkProvider  string
	linkItemID    string
	linkURL       string
	linkMediaType string
	linkTMDBID    int
)

// linkCmd records a manually confirmed platform -> catalog link. This is the
// confirmation path behind the UI's candidate picker.
var linkCmd = &cobra.Command{
	Use:   "link",
	Short: "Record a confirmed platform-to-catalog link",
	Long: `Records a confirmed mapping from a provider item id to a catalog id in the
persisted store, so later resolutions skip the matcher.

Example:
  popcorn-resolver link --provider netflix --id 80057281 --media-type tv --tmdb-id 66732`,
	RunE: runLink,
}

func init() {
	RootCmd.AddCommand(linkCmd)

	linkCmd.Flags().StringVar(&linkProvider, "provider", "", "provider (netflix, disney) (required)")
	linkCmd.Flags().StringVar(&linkItemID, "id", "", "platform item id (required)")
	linkCmd.Flags().StringVar(&linkURL, "url", "", "canonical deep link for the content")
	linkCmd.Flags().StringVar(&linkMediaType, "media-type", "", "catalog media type (movie, tv) (required)")
	linkCmd.Flags().IntVar(&linkTMDBID, "tmdb-id", 0, "catalog id (required)")
	linkCmd.MarkFlagRequired("provider")
	linkCmd.MarkFlagRequired("id")
	linkCmd.MarkFlagRequired("media-type")
	linkCmd.MarkFlagRequired("tmdb-id")
}

func runLink(cmd *cobra.Command, args []string) error {
	if linkMediaType != tmdb.MediaTypeMovie && linkMediaType != tmdb.MediaTypeTV {
		return fmt.Errorf("invalid --media-type: %s. Must be movie or tv", linkMediaType)
	}

	contentStore, err := openStoreIfConfigured()
	if err != nil {
		return err
	}
	if contentStore == nil {
		return fmt.Errorf("no persisted store configured. Set store.path in the config file to connect the catalog backend")
	}
	defer contentStore.Close()

	err = contentStore.SaveLink(context.Background(), store.Link{
		Provider:       content.Provider(linkProvider),
		PlatformItemID: linkItemID,
		URL:            linkURL,
		MediaType:      linkMediaType,
		ExternalID:     linkTMDBID,
		Confirmed:      true,
	})
	if err != nil {
		return fmt.Errorf("failed to save link: %w", err)
	}

	fmt.Printf("Linked %s to %s/%d\n", content.Key(content.Provider(linkProvider), linkItemID), linkMediaType, linkTMDBID)
	return nil
}
