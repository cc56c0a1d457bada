package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"

	"github.com/popcornlabs/popcorn-resolver/pkg/core/match"
	"github.com/popcornlabs/popcorn-resolver/pkg/core/store"
	"github.com/popcornlabs/popcorn-resolver/pkg/core/tmdb"
)

// NewCatalogFunc allows overriding catalog client creation for testing.
var NewCatalogFunc = func(apiKey string) (match.Catalog, error) {
	return tmdb.NewClient(tmdb.Config{APIKey: apiKey})
}

// newMatcher builds a matcher from the configured API key.
func newMatcher() (*match.Matcher, error) {
	apiKey := viper.GetString(CfgKeyTMDBAPIKey)
	if apiKey == "" {
		return nil, fmt.Errorf("TMDB API key not configured. Use the POPCORN_TMDB_APIKEY env var or the config file")
	}
	catalog, err := NewCatalogFunc(apiKey)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize catalog client: %w", err)
	}
	return match.NewMatcher(catalog, logrus.StandardLogger()), nil
}

// openStoreIfConfigured opens the persisted store when store.path is set.
// Returns nil without error when it is not: the store is optional.
func openStoreIfConfigured() (*store.Store, error) {
	path := viper.GetString(CfgKeyStorePath)
	if path == "" {
		return nil, nil
	}
	s, err := store.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open store at %s: %w", path, err)
	}
	return s, nil
}

// printJSON writes v as indented JSON to stdout.
func printJSON(v interface{}) error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}
