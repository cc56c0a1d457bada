package netflix

import (
	"net/url"
	"regexp"

	"github.com/PuerkitoBio/goquery"

	"github.com/popcornlabs/popcorn-resolver/pkg/core/content"
	"github.com/popcornlabs/popcorn-resolver/pkg/core/extract"
)

// Netflix uses numeric ids in both title and watch URLs.
var (
	titleIDRegex = regexp.MustCompile(`/title/(\d+)`)
	watchIDRegex = regexp.MustCompile(`/watch/(\d+)`)
	numericRegex = regexp.MustCompile(`^\d+$`)
)

// jbvParam is the "just-browsed-video" query parameter Netflix sets when a
// preview overlay is opened over a background page. When both a jbv id and a
// path id are present the jbv id wins: it reflects the overlay the user
// explicitly invoked, while the path still names the background page.
const jbvParam = "jbv"

const previewModalSelector = `[data-uia="preview-modal-container-DETAIL_MODAL"]`

// Titles that mean "we scraped the chrome, not the content".
var genericTitles = []string{"netflix", "home", "browse", "netflix official site"}

var hosts = map[string]struct{}{
	"netflix.com":     {},
	"www.netflix.com": {},
}

// Extractor reads Netflix page snapshots. It handles the three page regimes:
// preview overlay, title/detail page, and player page.
type Extractor struct{}

func (Extractor) Name() string { return "netflix" }

func (Extractor) MatchHost(hostname string) bool {
	_, ok := hosts[hostname]
	return ok
}

// Extract resolves the active Netflix content from the snapshot, or nil when
// no id can be found anywhere.
func (e Extractor) Extract(doc *goquery.Document, pageURL *url.URL) *content.RawCandidate {
	if doc == nil || pageURL == nil {
		return nil
	}

	// The preview overlay is the user's current focus whenever it is open.
	if candidate := e.extractPreview(doc, pageURL); candidate != nil {
		return candidate
	}
	return e.extractPage(doc, pageURL)
}

// extractPreview reads the hover/click preview modal. The modal carries its
// own title and metadata DOM layered above the base page.
func (e Extractor) extractPreview(doc *goquery.Document, pageURL *url.URL) *content.RawCandidate {
	preview := doc.Find(previewModalSelector).First()
	if preview.Length() == 0 {
		return nil
	}

	id, providerType := "", "title"
	// An explicit jbv id outranks anything found inside the modal markup.
	if jbv := pageURL.Query().Get(jbvParam); numericRegex.MatchString(jbv) {
		id = jbv
	}
	if id == "" {
		if href, ok := preview.Find(`a[href*="/title/"]`).First().Attr("href"); ok {
			if m := titleIDRegex.FindStringSubmatch(href); m != nil {
				id = m[1]
			}
		}
	}
	if id == "" {
		return nil
	}

	title := extract.FirstText(preview,
		`[data-uia="previewModal--title"]`,
		`[data-uia="previewModal--details-title"]`,
		"h3", "h4",
	)
	if extract.IsGenericTitle(title, genericTitles...) {
		title = ""
	}

	yearText := extract.FirstText(preview,
		`[data-uia="previewModal--metadata"] .year`,
		`.videoMetadata--container .year`,
		".year",
	)
	durationText := extract.FirstText(preview,
		`[data-uia="previewModal--metadata"] .duration`,
		".videoMetadata--container .duration",
		".duration",
	)
	genres := extract.CollectTexts(preview,
		`[data-uia="previewModal--tags"] a`,
		".previewModal--tags-label a",
		`a[href*="/genre/"]`,
	)

	return &content.RawCandidate{
		PlatformItemID:  id,
		Provider:        content.ProviderNetflix,
		ProviderType:    providerType,
		Title:           title,
		Year:            extract.ParseYearText(yearText),
		DurationMinutes: extract.ParseDurationMinutes(durationText),
		Genres:          genres,
		URL:             "https://www.netflix.com/title/" + id,
		Source:          content.SourcePreview,
	}
}

// extractPage reads the base page: either a /title/ detail page or a /watch/
// player page. The player frequently hides standard title nodes, so the
// document title is kept as a last resort.
func (e Extractor) extractPage(doc *goquery.Document, pageURL *url.URL) *content.RawCandidate {
	id, providerType := "", ""
	source := content.SourcePage

	// jbv can linger in the query string after the modal DOM is torn down;
	// it still names the user's focus.
	if jbv := pageURL.Query().Get(jbvParam); numericRegex.MatchString(jbv) {
		id = jbv
		providerType = "title"
	}
	if id == "" {
		if m := titleIDRegex.FindStringSubmatch(pageURL.Path); m != nil {
			id = m[1]
			providerType = "title"
		}
	}
	if id == "" {
		if m := watchIDRegex.FindStringSubmatch(pageURL.Path); m != nil {
			id = m[1]
			providerType = "watch"
			source = content.SourcePlayer
		}
	}
	if id == "" {
		return nil
	}

	title := extract.FirstText(doc.Selection,
		`[data-uia="video-title"]`,
		`[data-uia="title-info-title"]`,
		"h1",
	)
	if title == "" {
		title = extract.DocumentTitle(doc, " - Netflix", " | Netflix Official Site", " | Netflix")
	}
	if extract.IsGenericTitle(title, genericTitles...) {
		title = ""
	}

	yearText := extract.FirstText(doc.Selection,
		`[data-uia="title-info-metadata-item-year"]`,
		".title-info-metadata-item-year",
		".year",
	)
	durationText := extract.FirstText(doc.Selection,
		`[data-uia="title-info-metadata-item-duration"]`,
		".title-info-metadata-item-duration",
		".duration",
	)
	genres := extract.CollectTexts(doc.Selection,
		`[data-uia="title-info-metadata-genres"] a`,
		`a[href*="/genre/"]`,
	)

	return &content.RawCandidate{
		PlatformItemID:  id,
		Provider:        content.ProviderNetflix,
		ProviderType:    providerType,
		Title:           title,
		Year:            extract.ParseYearText(yearText),
		DurationMinutes: extract.ParseDurationMinutes(durationText),
		Genres:          genres,
		URL:             pageURL.String(),
		Source:          source,
	}
}
