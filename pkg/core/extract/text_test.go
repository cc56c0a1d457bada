package extract

import (
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustParse(t *testing.T, html string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	require.NoError(t, err)
	return doc
}

func TestFirstTextPriority(t *testing.T) {
	doc := mustParse(t, `
		<div>
			<h1>  Stranger   Things </h1>
			<span class="fallback">Other</span>
		</div>`)

	// First selector misses, second hits.
	assert.Equal(t, "Stranger Things", FirstText(doc.Selection, ".missing", "h1", ".fallback"))
	// Empty node falls through to the next selector.
	assert.Equal(t, "Other", FirstText(doc.Selection, ".empty", ".fallback"))
	assert.Equal(t, "", FirstText(doc.Selection, ".missing"))
	assert.Equal(t, "", FirstText(nil, "h1"))
}

func TestCleanText(t *testing.T) {
	assert.Equal(t, "Stranger Things", CleanText("  Stranger \n\t Things  "))
	assert.Equal(t, "", CleanText("   \n  "))
}

func TestIsGenericTitle(t *testing.T) {
	generics := []string{"Netflix", "home", "browse"}

	assert.True(t, IsGenericTitle("", generics...))
	assert.True(t, IsGenericTitle("  netflix ", generics...))
	assert.True(t, IsGenericTitle("HOME", generics...))
	assert.False(t, IsGenericTitle("Stranger Things", generics...))
}

func TestParseYearText(t *testing.T) {
	assert.Equal(t, "2016", ParseYearText("2016"))
	assert.Equal(t, "2016", ParseYearText("2016 · 4 Seasons · TV-14"))
	assert.Equal(t, "1994", ParseYearText("Released in 1994"))
	assert.Equal(t, "", ParseYearText("Season 4"))
	assert.Equal(t, "", ParseYearText(""))
}

func TestParseDurationMinutes(t *testing.T) {
	assert.Equal(t, 117, ParseDurationMinutes("1h 57m"))
	assert.Equal(t, 57, ParseDurationMinutes("57m"))
	assert.Equal(t, 141, ParseDurationMinutes("141 min"))
	assert.Equal(t, 120, ParseDurationMinutes("2 h 0 m"))
	assert.Equal(t, 0, ParseDurationMinutes("4 Seasons"))
	assert.Equal(t, 0, ParseDurationMinutes(""))
}

func TestCollectTexts(t *testing.T) {
	doc := mustParse(t, `
		<div class="tags">
			<a>Sci-Fi</a>
			<a> Horror </a>
			<a></a>
		</div>
		<div class="other"><a>Drama</a></div>`)

	assert.Equal(t, []string{"Sci-Fi", "Horror"}, CollectTexts(doc.Selection, ".tags a", ".other a"))
	// First selector that yields values wins; later selectors are ignored.
	assert.Equal(t, []string{"Drama"}, CollectTexts(doc.Selection, ".missing a", ".other a"))
	assert.Nil(t, CollectTexts(doc.Selection, ".missing a"))
}

func TestDocumentTitle(t *testing.T) {
	doc := mustParse(t, `<html><head><title>Stranger Things - Netflix</title></head></html>`)
	assert.Equal(t, "Stranger Things", DocumentTitle(doc, " - Netflix", " | Netflix"))
	assert.Equal(t, "Stranger Things - Netflix", DocumentTitle(doc, " | Netflix"))
	assert.Equal(t, "", DocumentTitle(nil, " - Netflix"))
}
