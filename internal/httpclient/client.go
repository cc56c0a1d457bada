package httpclient

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/google/go-querystring/query"
)

// Client manages making HTTP requests to the TMDB API.
//
// TMDB authenticates with an api_key query parameter rather than headers, so the
// client injects api_key and language into every request after encoding the
// caller's params struct.
type Client struct {
	mu         sync.RWMutex // Protects baseURL, which tests swap for an httptest server
	baseURL    string
	apiKey     string
	language   string
	httpClient *http.Client
}

// New creates a new internal HTTP client for the catalog API.
func New(baseURL, apiKey, language string) *Client {
	return &Client{
		baseURL:  baseURL,
		apiKey:   apiKey,
		language: language,
		// The pipeline never retries; a bounded timeout keeps a hung call from
		// leaving enrichment pending forever.
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
}

// SetBaseURL updates the base URL used for requests.
func (c *Client) SetBaseURL(baseURL string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.baseURL = baseURL
}

// BaseURL returns the base URL currently in use.
func (c *Client) BaseURL() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.baseURL
}

// StatusError reports a non-2xx catalog response. The pipeline treats it as a
// hard failure for that single call; retry policy, if any, lives in the caller.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("catalog request failed: status %d, body: %s", e.StatusCode, e.Body)
}

// Get makes a GET request and decodes the JSON response into target.
// params may be nil or a struct tagged for go-querystring.
func (c *Client) Get(ctx context.Context, path string, params interface{}, target interface{}) error {
	c.mu.RLock()
	currentBaseURL := c.baseURL
	c.mu.RUnlock()

	fullURL, err := url.Parse(currentBaseURL)
	if err != nil {
		return fmt.Errorf("invalid base URL: %w", err)
	}
	fullURL.Path += path // Assumes baseURL doesn't end with / and path starts with /

	values := url.Values{}
	if params != nil {
		values, err = query.Values(params)
		if err != nil {
			return fmt.Errorf("failed to encode query parameters: %w", err)
		}
	}
	values.Set("api_key", c.apiKey)
	if c.language != "" {
		values.Set("language", c.language)
	}
	fullURL.RawQuery = values.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL.String(), nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	respBodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &StatusError{StatusCode: resp.StatusCode, Body: string(respBodyBytes)}
	}

	if target != nil {
		if err := json.Unmarshal(respBodyBytes, target); err != nil {
			return fmt.Errorf("failed to unmarshal response body: %w", err)
		}
	}

	return nil
}
