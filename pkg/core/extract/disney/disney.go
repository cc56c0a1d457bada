package disney

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/google/uuid"

	"github.com/popcornlabs/popcorn-resolver/pkg/core/content"
	"github.com/popcornlabs/popcorn-resolver/pkg/core/extract"
)

// Disney+ uses UUIDs in both entity and video playback URLs.
var uuidRegex = regexp.MustCompile(`[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}`)

var genericTitles = []string{"disney+", "disney plus", "home", "browse"}

var hosts = map[string]struct{}{
	"disneyplus.com":     {},
	"www.disneyplus.com": {},
}

// Extractor reads Disney+ page snapshots.
type Extractor struct{}

func (Extractor) Name() string { return "disney" }

func (Extractor) MatchHost(hostname string) bool {
	_, ok := hosts[hostname]
	return ok
}

// Extract resolves the active Disney+ content, or nil when no UUID is present.
// The og:url meta tag is preferred over the location URL because Disney+
// rewrites the address bar inconsistently during SPA navigation.
func (e Extractor) Extract(doc *goquery.Document, pageURL *url.URL) *content.RawCandidate {
	if doc == nil || pageURL == nil {
		return nil
	}

	canonical := pageURL
	if og, ok := doc.Find(`meta[property="og:url"]`).First().Attr("content"); ok {
		if parsed, err := url.Parse(strings.TrimSpace(og)); err == nil && parsed.Host != "" {
			canonical = parsed
		}
	}

	id := firstValidUUID(canonical.Path)
	if id == "" {
		id = firstValidUUID(pageURL.Path)
	}
	if id == "" {
		return nil
	}

	source := content.SourcePage
	if strings.Contains(pageURL.Path, "/video/") || strings.Contains(pageURL.Path, "/play/") {
		source = content.SourcePlayer
	}

	title := extract.FirstText(doc.Selection,
		`[data-testid="title"]`,
		`[data-testid="hero-title"]`,
		"h1",
	)
	if title == "" {
		title = extract.DocumentTitle(doc, " | Disney+", " - Disney+")
		title = strings.TrimPrefix(title, "Watch ")
	}
	if extract.IsGenericTitle(title, genericTitles...) {
		title = ""
	}

	yearText := extract.FirstText(doc.Selection,
		`[data-testid="metadata-release-year"]`,
		".metadata-year",
		".year",
	)
	durationText := extract.FirstText(doc.Selection,
		`[data-testid="metadata-runtime"]`,
		".metadata-runtime",
		".duration",
	)
	genres := extract.CollectTexts(doc.Selection,
		`[data-testid="metadata-genres"] a`,
		`[data-testid="genre"]`,
		`a[href*="/genre/"]`,
	)

	return &content.RawCandidate{
		PlatformItemID:  id,
		Provider:        content.ProviderDisney,
		ProviderType:    "uuid",
		Title:           title,
		Year:            extract.ParseYearText(yearText),
		DurationMinutes: extract.ParseDurationMinutes(durationText),
		Genres:          genres,
		URL:             canonical.String(),
		Source:          source,
	}
}

// firstValidUUID returns the first path segment that parses as a UUID.
// Disney's marketing paths contain uuid-shaped hex runs that uuid.Parse
// rejects; validating avoids treating those as content ids.
func firstValidUUID(path string) string {
	for _, candidate := range uuidRegex.FindAllString(path, -1) {
		if parsed, err := uuid.Parse(candidate); err == nil {
			return strings.ToLower(parsed.String())
		}
	}
	return ""
}
