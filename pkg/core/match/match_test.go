package match

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/popcornlabs/popcorn-resolver/pkg/core/tmdb"
)

// fakeCatalog serves canned search results and detail payloads, and records
// which calls were made.
type fakeCatalog struct {
	movieResults []tmdb.SearchResult
	tvResults    []tmdb.SearchResult
	multiResults []tmdb.SearchResult
	details      map[string]*tmdb.Details

	movieErr  error
	tvErr     error
	multiErr  error
	detailErr map[string]error

	searchCalls int
	detailCalls int
}

func detailKey(mediaType string, id int) string {
	return fmt.Sprintf("%s/%d", mediaType, id)
}

func (f *fakeCatalog) SearchMovies(ctx context.Context, query string, year int) ([]tmdb.SearchResult, error) {
	f.searchCalls++
	return f.movieResults, f.movieErr
}

func (f *fakeCatalog) SearchTV(ctx context.Context, query string, year int) ([]tmdb.SearchResult, error) {
	f.searchCalls++
	return f.tvResults, f.tvErr
}

func (f *fakeCatalog) SearchMulti(ctx context.Context, query string) ([]tmdb.SearchResult, error) {
	f.searchCalls++
	return f.multiResults, f.multiErr
}

func (f *fakeCatalog) GetDetails(ctx context.Context, mediaType string, id int) (*tmdb.Details, error) {
	f.detailCalls++
	key := detailKey(mediaType, id)
	if err, ok := f.detailErr[key]; ok {
		return nil, err
	}
	details, ok := f.details[key]
	if !ok {
		return nil, fmt.Errorf("no detail fixture for %s", key)
	}
	return details, nil
}

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return logger
}

func strangerThingsCatalog() *fakeCatalog {
	return &fakeCatalog{
		tvResults: []tmdb.SearchResult{
			{ID: 66732, Name: "Stranger Things", FirstAirDate: "2016-07-15", PosterPath: "/st.jpg"},
		},
		multiResults: []tmdb.SearchResult{
			{ID: 66732, MediaType: "tv", Name: "Stranger Things", FirstAirDate: "2016-07-15"},
			{ID: 448150, MediaType: "movie", Title: "Stranger Things: The Movie", ReleaseDate: "1994-01-01"},
			{ID: 12345, MediaType: "person", Name: "Some Actor"},
		},
		details: map[string]*tmdb.Details{
			"tv/66732": {
				ID:             66732,
				Name:           "Stranger Things",
				FirstAirDate:   "2016-07-15",
				EpisodeRunTime: []int{50},
				Genres:         []tmdb.Genre{{ID: 10765, Name: "Sci-Fi & Fantasy"}, {ID: 18, Name: "Drama"}},
				VoteAverage:    8.6,
				VoteCount:      17000,
				Overview:       "When a young boy vanishes...",
				PosterPath:     "/st.jpg",
				Networks:       []tmdb.Company{{ID: 213, Name: "Netflix"}},
				ExternalIDs:    tmdb.ExternalIDs{IMDbID: "tt4574334"},
				Credits: tmdb.Credits{
					Cast: []tmdb.CastMember{{Name: "Millie Bobby Brown"}, {Name: "Finn Wolfhard"}},
				},
			},
			"movie/448150": {
				ID:          448150,
				Title:       "Stranger Things: The Movie",
				ReleaseDate: "1994-01-01",
				Runtime:     95,
				Genres:      []tmdb.Genre{{ID: 35, Name: "Comedy"}},
			},
		},
	}
}

func TestMatchSelectsBestCandidate(t *testing.T) {
	catalog := strangerThingsCatalog()
	matcher := NewMatcher(catalog, quietLogger())

	metadata, err := matcher.Match(context.Background(), Query{Title: "Stranger Things", Year: 2016})
	require.NoError(t, err)
	require.NotNil(t, metadata)

	assert.Equal(t, 66732, metadata.ExternalID)
	assert.Equal(t, "tv", metadata.MediaType)
	assert.Equal(t, "Stranger Things", metadata.Title)
	assert.Equal(t, "2016", metadata.Year)
	assert.Equal(t, []string{"Sci-Fi & Fantasy", "Drama"}, metadata.Genres)
	assert.Equal(t, 50, metadata.RuntimeMinutes)
	assert.Equal(t, "tt4574334", metadata.IMDbID)
	assert.Equal(t, "fuzzy", metadata.MatchMethod)
	assert.Equal(t, "https://www.themoviedb.org/tv/66732", metadata.CatalogURL)
	assert.GreaterOrEqual(t, metadata.Score, 0.95)
}

func TestMatchEmptyTitleShortCircuits(t *testing.T) {
	catalog := strangerThingsCatalog()
	matcher := NewMatcher(catalog, quietLogger())

	metadata, err := matcher.Match(context.Background(), Query{Title: "   "})
	require.NoError(t, err)
	assert.Nil(t, metadata)
	assert.Equal(t, 0, catalog.searchCalls, "no search without a title")
}

func TestMatchNoCandidates(t *testing.T) {
	matcher := NewMatcher(&fakeCatalog{}, quietLogger())

	metadata, err := matcher.Match(context.Background(), Query{Title: "Completely Unknown Show"})
	require.NoError(t, err)
	assert.Nil(t, metadata)
}

func TestMatchToleratesPartialSearchFailure(t *testing.T) {
	catalog := strangerThingsCatalog()
	catalog.movieErr = errors.New("movie search exploded")
	matcher := NewMatcher(catalog, quietLogger())

	metadata, err := matcher.Match(context.Background(), Query{Title: "Stranger Things", Year: 2016})
	require.NoError(t, err)
	require.NotNil(t, metadata)
	assert.Equal(t, 66732, metadata.ExternalID)
}

func TestMatchAllSearchesFailed(t *testing.T) {
	boom := errors.New("catalog down")
	catalog := &fakeCatalog{movieErr: boom, tvErr: boom, multiErr: boom}
	matcher := NewMatcher(catalog, quietLogger())

	_, err := matcher.Match(context.Background(), Query{Title: "Stranger Things", Year: 2016})
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
}

func TestMatchWithoutYearUsesMultiOnly(t *testing.T) {
	catalog := strangerThingsCatalog()
	matcher := NewMatcher(catalog, quietLogger())

	metadata, err := matcher.Match(context.Background(), Query{Title: "Stranger Things"})
	require.NoError(t, err)
	require.NotNil(t, metadata)
	assert.Equal(t, 1, catalog.searchCalls, "no year means one multi search")
	assert.Equal(t, 66732, metadata.ExternalID)
}

func TestMatchDropsCandidateOnDetailFailure(t *testing.T) {
	catalog := strangerThingsCatalog()
	catalog.detailErr = map[string]error{"tv/66732": errors.New("detail fetch failed")}
	matcher := NewMatcher(catalog, quietLogger())

	metadata, err := matcher.Match(context.Background(), Query{Title: "Stranger Things", Year: 2016})
	require.NoError(t, err)
	require.NotNil(t, metadata, "the remaining candidate still matches")
	assert.Equal(t, 448150, metadata.ExternalID)
}

func TestCandidatesFormatted(t *testing.T) {
	catalog := strangerThingsCatalog()
	matcher := NewMatcher(catalog, quietLogger())

	candidates, err := matcher.Candidates(context.Background(), Query{Title: "Stranger Things"}, 7)
	require.NoError(t, err)
	require.Len(t, candidates, 2, "the person result is filtered out")

	first := candidates[0]
	assert.Equal(t, 66732, first.ExternalID)
	assert.Equal(t, "tv", first.MediaType)
	assert.Equal(t, "2016", first.Year)
	assert.Equal(t, "Netflix", first.Network)
	assert.Contains(t, first.PosterURL, "/st.jpg")

	second := candidates[1]
	assert.Equal(t, 448150, second.ExternalID)
	assert.Equal(t, "movie", second.MediaType)
	assert.Greater(t, first.Score, second.Score)
}

func TestCandidatesLimit(t *testing.T) {
	catalog := &fakeCatalog{details: map[string]*tmdb.Details{}}
	for i := 1; i <= 10; i++ {
		catalog.multiResults = append(catalog.multiResults, tmdb.SearchResult{
			ID: i, MediaType: "movie", Title: fmt.Sprintf("Movie %d", i),
		})
		catalog.details[detailKey("movie", i)] = &tmdb.Details{ID: i, Title: fmt.Sprintf("Movie %d", i)}
	}
	matcher := NewMatcher(catalog, quietLogger())

	candidates, err := matcher.Candidates(context.Background(), Query{Title: "Movie"}, 3)
	require.NoError(t, err)
	assert.Len(t, candidates, 3)
}

func TestCandidatesSurviveDetailFailure(t *testing.T) {
	catalog := strangerThingsCatalog()
	catalog.detailErr = map[string]error{"tv/66732": errors.New("detail fetch failed")}
	matcher := NewMatcher(catalog, quietLogger())

	candidates, err := matcher.Candidates(context.Background(), Query{Title: "Stranger Things"}, 7)
	require.NoError(t, err)
	require.Len(t, candidates, 2, "a detail failure degrades the candidate, it does not drop it")
	assert.Equal(t, 66732, candidates[0].ExternalID)
	assert.Equal(t, "Stranger Things", candidates[0].Title, "search fields back the degraded candidate")
	assert.Empty(t, candidates[0].Network)
}

func TestByID(t *testing.T) {
	catalog := strangerThingsCatalog()
	matcher := NewMatcher(catalog, quietLogger())

	metadata, err := matcher.ByID(context.Background(), "tv", 66732)
	require.NoError(t, err)
	assert.Equal(t, 66732, metadata.ExternalID)
	assert.Equal(t, "id", metadata.MatchMethod)
	assert.Equal(t, 1.0, metadata.Score)
	assert.Equal(t, 1, catalog.detailCalls, "direct lookup bypasses search")
}

func TestMatchRejectsZeroScoreBest(t *testing.T) {
	catalog := &fakeCatalog{
		multiResults: []tmdb.SearchResult{
			{ID: 777, MediaType: "movie", Title: "Totally Unrelated"},
		},
		details: map[string]*tmdb.Details{
			"movie/777": {ID: 777, Title: "Totally Unrelated"},
		},
	}
	matcher := NewMatcher(catalog, quietLogger())

	metadata, err := matcher.Match(context.Background(), Query{Title: "Stranger Things"})
	require.NoError(t, err)
	assert.Nil(t, metadata, "a zero-score best candidate is not auto-attached")
}

func TestDedupeResults(t *testing.T) {
	results := []tmdb.SearchResult{
		{ID: 1, Title: "A"},
		{ID: 1, MediaType: "movie", Title: "A"},
		{ID: 1, MediaType: "tv", Name: "A Show"},
		{ID: 0, Title: "No ID"},
		{ID: 2, MediaType: "person", Name: "Someone"},
	}

	unique := dedupeResults(results)
	require.Len(t, unique, 2)
	assert.Equal(t, "movie", unique[0].MediaType)
	assert.Equal(t, "tv", unique[1].MediaType)
}
