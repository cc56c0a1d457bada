package extract

import (
	"net/url"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/popcornlabs/popcorn-resolver/pkg/core/content"
)

// fakeExtractor is a minimal extractor for registry tests.
type fakeExtractor struct {
	name      string
	host      string
	candidate *content.RawCandidate
}

func (f fakeExtractor) Name() string { return f.name }

func (f fakeExtractor) MatchHost(hostname string) bool { return hostname == f.host }

func (f fakeExtractor) Extract(doc *goquery.Document, pageURL *url.URL) *content.RawCandidate {
	return f.candidate
}

func TestNewRegistryRejectsInvalidExtractors(t *testing.T) {
	_, err := NewRegistry(nil)
	assert.Error(t, err)

	_, err = NewRegistry(fakeExtractor{name: ""})
	assert.Error(t, err)

	_, err = NewRegistry(fakeExtractor{name: "dup"}, fakeExtractor{name: "DUP"})
	assert.ErrorContains(t, err, "duplicate")
}

func TestForHost(t *testing.T) {
	registry, err := NewRegistry(
		fakeExtractor{name: "alpha", host: "alpha.example"},
		fakeExtractor{name: "beta", host: "beta.example"},
	)
	require.NoError(t, err)

	extractor, ok := registry.ForHost("beta.example")
	require.True(t, ok)
	assert.Equal(t, "beta", extractor.Name())

	_, ok = registry.ForHost("unknown.example")
	assert.False(t, ok)
}

func TestResolvePromotesCandidate(t *testing.T) {
	registry, err := NewRegistry(fakeExtractor{
		name: "alpha",
		host: "alpha.example",
		candidate: &content.RawCandidate{
			PlatformItemID: "123",
			Provider:       content.ProviderNetflix,
			Title:          "  Stranger Things ",
		},
	})
	require.NoError(t, err)

	doc := mustParse(t, "<html></html>")
	pageURL, err := url.Parse("https://alpha.example/title/123")
	require.NoError(t, err)

	active := registry.Resolve(doc, pageURL)
	require.NotNil(t, active)
	assert.Equal(t, "123", active.PlatformItemID)
	assert.Equal(t, "Stranger Things", active.Title)
	assert.Equal(t, "netflix:123", active.Key())
}

func TestResolveReturnsNilWithoutIdentity(t *testing.T) {
	registry, err := NewRegistry(
		fakeExtractor{name: "empty", host: "empty.example", candidate: &content.RawCandidate{Title: "No ID"}},
		fakeExtractor{name: "none", host: "none.example"},
	)
	require.NoError(t, err)

	doc := mustParse(t, "<html></html>")

	pageURL, _ := url.Parse("https://empty.example/")
	assert.Nil(t, registry.Resolve(doc, pageURL), "a candidate without an id is not content")

	pageURL, _ = url.Parse("https://none.example/")
	assert.Nil(t, registry.Resolve(doc, pageURL))

	pageURL, _ = url.Parse("https://unknown.example/")
	assert.Nil(t, registry.Resolve(doc, pageURL))

	assert.Nil(t, registry.Resolve(nil, pageURL))
	assert.Nil(t, registry.Resolve(doc, nil))
}
