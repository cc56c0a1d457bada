package netflix

import (
	"net/url"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/popcornlabs/popcorn-resolver/pkg/core/content"
)

func parseSnapshot(t *testing.T, html, pageURL string) (*goquery.Document, *url.URL) {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	require.NoError(t, err)
	parsed, err := url.Parse(pageURL)
	require.NoError(t, err)
	return doc, parsed
}

func TestMatchHost(t *testing.T) {
	e := Extractor{}
	assert.True(t, e.MatchHost("www.netflix.com"))
	assert.True(t, e.MatchHost("netflix.com"))
	assert.False(t, e.MatchHost("www.disneyplus.com"))
}

func TestExtractTitlePage(t *testing.T) {
	html := `
	<html>
	<head><title>Stranger Things | Netflix Official Site</title></head>
	<body>
		<h1 data-uia="title-info-title">Stranger Things</h1>
		<span data-uia="title-info-metadata-item-year">2016</span>
		<span data-uia="title-info-metadata-item-duration">4 Seasons</span>
		<div data-uia="title-info-metadata-genres">
			<a href="/browse/genre/83">Sci-Fi TV</a>
			<a href="/browse/genre/89">Horror TV</a>
		</div>
	</body>
	</html>`
	doc, pageURL := parseSnapshot(t, html, "https://www.netflix.com/title/80057281")

	candidate := Extractor{}.Extract(doc, pageURL)
	require.NotNil(t, candidate)
	assert.Equal(t, "80057281", candidate.PlatformItemID)
	assert.Equal(t, content.ProviderNetflix, candidate.Provider)
	assert.Equal(t, "title", candidate.ProviderType)
	assert.Equal(t, "Stranger Things", candidate.Title)
	assert.Equal(t, "2016", candidate.Year)
	assert.Equal(t, 0, candidate.DurationMinutes)
	assert.Equal(t, []string{"Sci-Fi TV", "Horror TV"}, candidate.Genres)
	assert.Equal(t, content.SourcePage, candidate.Source)
}

func TestExtractPlayerPageFallsBackToDocumentTitle(t *testing.T) {
	html := `
	<html>
	<head><title>Inception - Netflix</title></head>
	<body><div class="watch-video"></div></body>
	</html>`
	doc, pageURL := parseSnapshot(t, html, "https://www.netflix.com/watch/70131314")

	candidate := Extractor{}.Extract(doc, pageURL)
	require.NotNil(t, candidate)
	assert.Equal(t, "70131314", candidate.PlatformItemID)
	assert.Equal(t, "watch", candidate.ProviderType)
	assert.Equal(t, "Inception", candidate.Title)
	assert.Equal(t, content.SourcePlayer, candidate.Source)
}

func TestExtractGenericTitleDropped(t *testing.T) {
	html := `
	<html>
	<head><title>Netflix</title></head>
	<body></body>
	</html>`
	doc, pageURL := parseSnapshot(t, html, "https://www.netflix.com/watch/70131314")

	candidate := Extractor{}.Extract(doc, pageURL)
	require.NotNil(t, candidate)
	assert.Equal(t, "70131314", candidate.PlatformItemID, "identity survives a useless title")
	assert.Equal(t, "", candidate.Title)
}

func TestExtractPreviewModal(t *testing.T) {
	html := `
	<html>
	<body>
		<h1 data-uia="title-info-title">Background Show</h1>
		<div data-uia="preview-modal-container-DETAIL_MODAL">
			<a href="/title/81040344?source=modal">link</a>
			<h3 data-uia="previewModal--title">The Witcher</h3>
			<div data-uia="previewModal--metadata">
				<span class="year">2019</span>
				<span class="duration">1h 1m</span>
			</div>
			<div data-uia="previewModal--tags">
				<a href="/browse/genre/1">Fantasy</a>
			</div>
		</div>
	</body>
	</html>`
	doc, pageURL := parseSnapshot(t, html, "https://www.netflix.com/browse")

	candidate := Extractor{}.Extract(doc, pageURL)
	require.NotNil(t, candidate)
	assert.Equal(t, "81040344", candidate.PlatformItemID, "modal content outranks the background page")
	assert.Equal(t, "The Witcher", candidate.Title)
	assert.Equal(t, "2019", candidate.Year)
	assert.Equal(t, 61, candidate.DurationMinutes)
	assert.Equal(t, []string{"Fantasy"}, candidate.Genres)
	assert.Equal(t, content.SourcePreview, candidate.Source)
	assert.Equal(t, "https://www.netflix.com/title/81040344", candidate.URL)
}

func TestExtractJbvOutranksPathAndModal(t *testing.T) {
	html := `
	<html>
	<body>
		<div data-uia="preview-modal-container-DETAIL_MODAL">
			<a href="/title/81040344">link</a>
			<h3 data-uia="previewModal--title">The Witcher</h3>
		</div>
	</body>
	</html>`
	doc, pageURL := parseSnapshot(t, html, "https://www.netflix.com/title/80057281?jbv=80100172")

	candidate := Extractor{}.Extract(doc, pageURL)
	require.NotNil(t, candidate)
	assert.Equal(t, "80100172", candidate.PlatformItemID, "jbv names the overlay the user invoked")
}

func TestExtractJbvWithoutModal(t *testing.T) {
	doc, pageURL := parseSnapshot(t, "<html><body></body></html>", "https://www.netflix.com/browse?jbv=80100172")

	candidate := Extractor{}.Extract(doc, pageURL)
	require.NotNil(t, candidate)
	assert.Equal(t, "80100172", candidate.PlatformItemID)
	assert.Equal(t, "title", candidate.ProviderType)
}

func TestExtractRejectsNonNumericJbv(t *testing.T) {
	doc, pageURL := parseSnapshot(t, "<html><body></body></html>", "https://www.netflix.com/browse?jbv=abc123")

	assert.Nil(t, Extractor{}.Extract(doc, pageURL))
}

func TestExtractNoIDAnywhere(t *testing.T) {
	doc, pageURL := parseSnapshot(t, "<html><body><h1>Hi</h1></body></html>", "https://www.netflix.com/browse")

	assert.Nil(t, Extractor{}.Extract(doc, pageURL))
}
