package tmdb

import (
	"context"
	"fmt"
	"net/url"

	"github.com/popcornlabs/popcorn-resolver/internal/constants"
	"github.com/popcornlabs/popcorn-resolver/internal/httpclient"
	coreerrors "github.com/popcornlabs/popcorn-resolver/pkg/core/errors"
)

// Config holds the configuration for the TMDB client.
type Config struct {
	APIKey   string
	BaseURL  string // Optional: override the default base URL (used by tests)
	Language string // Optional: defaults to en-US
}

// Client is a thin TMDB v3 API client covering the search and detail endpoints
// the matcher needs. It performs no caching and no retries; both live in the
// layers above.
type Client struct {
	httpClient *httpclient.Client
}

// NewClient creates a new TMDB API client.
func NewClient(config Config) (*Client, error) {
	if config.APIKey == "" {
		return nil, coreerrors.ErrCatalogNotConfigured
	}

	baseURL := constants.DefaultBaseURL
	if config.BaseURL != "" {
		if _, err := url.ParseRequestURI(config.BaseURL); err != nil {
			return nil, fmt.Errorf("invalid BaseURL provided: %w", err)
		}
		baseURL = config.BaseURL
	}
	language := config.Language
	if language == "" {
		language = constants.DefaultLanguage
	}

	return &Client{
		httpClient: httpclient.New(baseURL, config.APIKey, language),
	}, nil
}

// SetBaseURL swaps the API base URL. Exposed so tests can point the client at
// an httptest server.
func (c *Client) SetBaseURL(baseURL string) {
	c.httpClient.SetBaseURL(baseURL)
}

// SearchMovies searches movie titles, optionally filtered by release year
// (year <= 0 omits the filter).
func (c *Client) SearchMovies(ctx context.Context, query string, year int) ([]SearchResult, error) {
	params := movieSearchParams{Query: query, IncludeAdult: "false"}
	if year > 0 {
		params.Year = year
	}
	var resp searchResponse
	if err := c.httpClient.Get(ctx, "/search/movie", params, &resp); err != nil {
		return nil, fmt.Errorf("movie search for %q failed: %w", query, err)
	}
	// Type-specific search responses omit media_type; stamp it so downstream
	// dedupe and detail fetches don't have to guess.
	return stampMediaType(resp.Results, MediaTypeMovie), nil
}

// SearchTV searches tv titles, optionally filtered by first-air year.
func (c *Client) SearchTV(ctx context.Context, query string, year int) ([]SearchResult, error) {
	params := tvSearchParams{Query: query, IncludeAdult: "false"}
	if year > 0 {
		params.FirstAirDateYear = year
	}
	var resp searchResponse
	if err := c.httpClient.Get(ctx, "/search/tv", params, &resp); err != nil {
		return nil, fmt.Errorf("tv search for %q failed: %w", query, err)
	}
	return stampMediaType(resp.Results, MediaTypeTV), nil
}

// SearchMulti searches movies and tv together. Results carry media_type and may
// include people and other types the caller must filter out.
func (c *Client) SearchMulti(ctx context.Context, query string) ([]SearchResult, error) {
	params := multiSearchParams{Query: query, IncludeAdult: "false"}
	var resp searchResponse
	if err := c.httpClient.Get(ctx, "/search/multi", params, &resp); err != nil {
		return nil, fmt.Errorf("multi search for %q failed: %w", query, err)
	}
	return resp.Results, nil
}

// GetDetails fetches the full detail payload for one title, with external ids
// and credits appended in the same round trip.
func (c *Client) GetDetails(ctx context.Context, mediaType string, id int) (*Details, error) {
	if mediaType != MediaTypeMovie && mediaType != MediaTypeTV {
		return nil, fmt.Errorf("unsupported media type %q", mediaType)
	}
	if id <= 0 {
		return nil, fmt.Errorf("invalid catalog id %d", id)
	}

	params := detailParams{AppendToResponse: "images,external_ids,credits"}
	var details Details
	path := fmt.Sprintf("/%s/%d", mediaType, id)
	if err := c.httpClient.Get(ctx, path, params, &details); err != nil {
		return nil, fmt.Errorf("detail fetch for %s/%d failed: %w", mediaType, id, err)
	}
	return &details, nil
}

// PosterURL turns a poster path into a full image URL, or "" when absent.
func PosterURL(posterPath string) string {
	if posterPath == "" {
		return ""
	}
	return constants.ImageBaseURL + posterPath
}

// CanonicalURL returns the public catalog page for a title.
func CanonicalURL(mediaType string, id int) string {
	if mediaType == "" || id <= 0 {
		return ""
	}
	return fmt.Sprintf("https://www.themoviedb.org/%s/%d", mediaType, id)
}

func stampMediaType(results []SearchResult, mediaType string) []SearchResult {
	for i := range results {
		if results[i].MediaType == "" {
			results[i].MediaType = mediaType
		}
	}
	return results
}
