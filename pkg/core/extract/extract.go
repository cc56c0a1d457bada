package extract

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/popcornlabs/popcorn-resolver/pkg/core/content"
)

// Extractor turns a page snapshot into a raw content candidate for one
// streaming provider.
//
// Constraints:
//   - Extract must be a pure function of the snapshot: same document and URL,
//     same output.
//   - A selector miss is never fatal; extractors degrade to the next selector,
//     return partial fields, or return nil. They never return an error.
type Extractor interface {
	Name() string
	// MatchHost reports whether this extractor handles the given hostname.
	MatchHost(hostname string) bool
	// Extract reads the snapshot and returns a raw candidate, or nil when the
	// page carries no resolvable content identity.
	Extract(doc *goquery.Document, pageURL *url.URL) *content.RawCandidate
}

// Registry selects the extractor for a hostname and exposes a uniform
// ActiveContent shape to the rest of the pipeline.
type Registry struct {
	extractors []Extractor
}

// NewRegistry builds a registry from the given extractors.
func NewRegistry(extractors ...Extractor) (Registry, error) {
	seen := make(map[string]struct{}, len(extractors))
	for _, e := range extractors {
		if e == nil {
			return Registry{}, fmt.Errorf("extractor must not be nil")
		}
		name := strings.ToLower(strings.TrimSpace(e.Name()))
		if name == "" {
			return Registry{}, fmt.Errorf("extractor name must not be empty")
		}
		if _, ok := seen[name]; ok {
			return Registry{}, fmt.Errorf("duplicate extractor: %q", name)
		}
		seen[name] = struct{}{}
	}
	return Registry{extractors: extractors}, nil
}

// ForHost returns the extractor responsible for a hostname.
func (r Registry) ForHost(hostname string) (Extractor, bool) {
	hostname = strings.ToLower(strings.TrimSpace(hostname))
	for _, e := range r.extractors {
		if e.MatchHost(hostname) {
			return e, true
		}
	}
	return nil, false
}

// Resolve runs the matching extractor against the snapshot and promotes the
// result to ActiveContent. It returns nil when no extractor matches the host,
// when the extractor finds nothing, or when the candidate has no platform item
// id. A record without identity is not content.
func (r Registry) Resolve(doc *goquery.Document, pageURL *url.URL) *content.ActiveContent {
	if doc == nil || pageURL == nil {
		return nil
	}
	extractor, ok := r.ForHost(pageURL.Hostname())
	if !ok {
		return nil
	}
	return content.FromRaw(extractor.Extract(doc, pageURL))
}
