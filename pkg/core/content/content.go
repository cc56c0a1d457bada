package content

import (
	"fmt"
	"strings"
)

// Provider identifies the streaming site a content record was captured from.
type Provider string

const (
	ProviderNetflix Provider = "netflix"
	ProviderDisney  Provider = "disney"
)

// Source tags where in the page a record was captured.
// It informs trust ranking when merging repeated reads: a preview overlay is the
// user's current focus, a page read is stable, a player read is usually partial.
type Source string

const (
	SourcePreview Source = "preview"
	SourcePage    Source = "page"
	SourcePlayer  Source = "player"
)

// RawCandidate is the unvalidated output of a single DOM extraction pass.
// Any field except PlatformItemID may be empty; extraction misses are values,
// not errors.
type RawCandidate struct {
	PlatformItemID  string
	Provider        Provider
	ProviderType    string // e.g. "title" vs "watch" for Netflix, "uuid" for Disney+
	Title           string
	Year            string
	DurationMinutes int
	Genres          []string
	URL             string
	Source          Source
}

// ActiveContent is the unit of identity for "what the user is looking at".
//
// PlatformItemID plus Provider uniquely identify one title. Every other field
// is a best-effort signal scraped from the DOM: it can be wrong, stale, or
// missing, and must never be used as a cache or lookup key.
type ActiveContent struct {
	PlatformItemID  string   `json:"platformItemId"`
	Provider        Provider `json:"provider"`
	ProviderType    string   `json:"providerType,omitempty"`
	Title           string   `json:"title,omitempty"`
	Year            string   `json:"year,omitempty"`
	DurationMinutes int      `json:"durationMinutes,omitempty"`
	Genres          []string `json:"genres,omitempty"`
	URL             string   `json:"url,omitempty"`
	Source          Source   `json:"source,omitempty"`
}

// Key returns the process-wide identity key, e.g. "netflix:80057281".
func (c ActiveContent) Key() string {
	return Key(c.Provider, c.PlatformItemID)
}

// Key builds the identity key for a provider-scoped item id.
func Key(provider Provider, platformItemID string) string {
	return fmt.Sprintf("%s:%s", provider, platformItemID)
}

// FromRaw promotes a raw extraction into an ActiveContent record, or nil when
// the candidate carries no resolvable identity.
func FromRaw(raw *RawCandidate) *ActiveContent {
	if raw == nil || strings.TrimSpace(raw.PlatformItemID) == "" {
		return nil
	}
	return &ActiveContent{
		PlatformItemID:  strings.TrimSpace(raw.PlatformItemID),
		Provider:        raw.Provider,
		ProviderType:    raw.ProviderType,
		Title:           strings.TrimSpace(raw.Title),
		Year:            strings.TrimSpace(raw.Year),
		DurationMinutes: raw.DurationMinutes,
		Genres:          raw.Genres,
		URL:             raw.URL,
		Source:          raw.Source,
	}
}
