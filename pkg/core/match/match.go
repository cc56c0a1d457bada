package match

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"

	log "github.com/sirupsen/logrus"

	"github.com/popcornlabs/popcorn-resolver/internal/constants"
	"github.com/popcornlabs/popcorn-resolver/pkg/core/tmdb"
)

// Query carries the signals scraped from the page that the matcher reconciles
// against the external catalog. Title is the only required field.
type Query struct {
	Title           string
	Year            int
	DurationMinutes int
	Genres          []string
}

// Candidate is a scored possibility from the catalog, not yet confirmed. It is
// shaped for a manual "pick a title" UI: poster plus the network (tv) or
// studio (movie) that disambiguates same-titled entries.
type Candidate struct {
	ExternalID int     `json:"externalId"`
	MediaType  string  `json:"mediaType"`
	Title      string  `json:"title"`
	Year       string  `json:"year,omitempty"`
	PosterURL  string  `json:"posterUrl,omitempty"`
	Network    string  `json:"network,omitempty"`
	Studio     string  `json:"studio,omitempty"`
	Score      float64 `json:"score"`
}

// Metadata is the confirmed match: the chosen candidate's full catalog detail
// payload plus the method that produced it ("fuzzy" for scored search, "id"
// for direct lookup).
type Metadata struct {
	ExternalID     int      `json:"externalId"`
	MediaType      string   `json:"mediaType"`
	Title          string   `json:"title"`
	OriginalTitle  string   `json:"originalTitle,omitempty"`
	Genres         []string `json:"genres,omitempty"`
	ReleaseDate    string   `json:"releaseDate,omitempty"`
	Year           string   `json:"year,omitempty"`
	RuntimeMinutes int      `json:"runtimeMinutes,omitempty"`
	Rating         float64  `json:"rating,omitempty"`
	VoteCount      int      `json:"voteCount,omitempty"`
	Overview       string   `json:"overview,omitempty"`
	PosterURL      string   `json:"posterUrl,omitempty"`
	CatalogURL     string   `json:"catalogUrl,omitempty"`
	IMDbID         string   `json:"imdbId,omitempty"`
	WikidataID     string   `json:"wikidataId,omitempty"`
	Cast           []string `json:"cast,omitempty"`
	Director       string   `json:"director,omitempty"`
	MatchMethod    string   `json:"matchMethod"`
	Score          float64  `json:"score"`
}

// Catalog defines the catalog client methods the matcher needs.
type Catalog interface {
	SearchMovies(ctx context.Context, query string, year int) ([]tmdb.SearchResult, error)
	SearchTV(ctx context.Context, query string, year int) ([]tmdb.SearchResult, error)
	SearchMulti(ctx context.Context, query string) ([]tmdb.SearchResult, error)
	GetDetails(ctx context.Context, mediaType string, id int) (*tmdb.Details, error)
}

// Matcher reconciles scraped content signals against the external catalog.
type Matcher struct {
	catalog Catalog
	logger  *log.Logger
}

// NewMatcher creates a Matcher on top of a catalog client.
func NewMatcher(catalog Catalog, logger *log.Logger) *Matcher {
	if logger == nil {
		logger = log.StandardLogger()
	}
	return &Matcher{catalog: catalog, logger: logger}
}

// Match finds the single best catalog match for the query, or nil when no
// candidate fits. A nil result with a nil error means "no match found"; a
// non-nil error means the search itself failed.
func (m *Matcher) Match(ctx context.Context, query Query) (*Metadata, error) {
	if strings.TrimSpace(query.Title) == "" {
		return nil, nil
	}

	results, err := m.gatherResults(ctx, query.Title, query.Year)
	if err != nil {
		return nil, err
	}
	candidates := dedupeResults(results)
	if len(candidates) > constants.MaxCandidates {
		candidates = candidates[:constants.MaxCandidates]
	}
	if len(candidates) == 0 {
		m.logger.WithField("query", query.Title).Info("No catalog candidates found")
		return nil, nil
	}

	best, bestScore := m.scoreCandidates(ctx, query, candidates)
	if best == nil || bestScore <= 0 {
		// A zero-score best is indistinguishable from noise; leave it to the
		// manual picker instead of auto-attaching it.
		return nil, nil
	}

	metadata := buildMetadata(best.result, best.details, "fuzzy")
	metadata.Score = bestScore
	m.logger.WithFields(log.Fields{
		"query":     query.Title,
		"matched":   metadata.Title,
		"mediaType": metadata.MediaType,
		"id":        metadata.ExternalID,
		"score":     fmt.Sprintf("%.3f", bestScore),
	}).Info("Catalog match selected")
	return metadata, nil
}

// Candidates returns up to limit formatted, scored candidates for manual
// selection. Detail fetch failures degrade a candidate to its search-result
// fields instead of dropping it: the picker should still show something.
func (m *Matcher) Candidates(ctx context.Context, query Query, limit int) ([]Candidate, error) {
	if strings.TrimSpace(query.Title) == "" {
		return nil, nil
	}
	if limit <= 0 {
		limit = 7
	}

	results, err := m.gatherResults(ctx, query.Title, query.Year)
	if err != nil {
		return nil, err
	}
	trimmed := dedupeResults(results)
	if len(trimmed) > limit {
		trimmed = trimmed[:limit]
	}

	candidates := make([]Candidate, 0, len(trimmed))
	for _, result := range trimmed {
		details, detailErr := m.catalog.GetDetails(ctx, result.InferredMediaType(), result.ID)
		if detailErr != nil {
			m.logger.WithError(detailErr).WithField("id", result.ID).Warn("Candidate detail fetch failed, using search fields")
			details = nil
		}
		candidates = append(candidates, formatCandidate(query, result, details))
	}
	return candidates, nil
}

// ByID fetches a known catalog title directly, bypassing search and scoring.
// Used when a persisted platform link already names the external id.
func (m *Matcher) ByID(ctx context.Context, mediaType string, id int) (*Metadata, error) {
	details, err := m.catalog.GetDetails(ctx, mediaType, id)
	if err != nil {
		return nil, err
	}
	result := tmdb.SearchResult{ID: id, MediaType: mediaType, Title: details.Title, Name: details.Name}
	metadata := buildMetadata(result, details, "id")
	metadata.Score = 1
	return metadata, nil
}

// gatherResults fans the searches out concurrently. With a known year it runs
// the two type-specific year-filtered searches plus an unfiltered multi search
// as a fallback net, preserving movie -> tv -> multi ordering. Individual
// search failures are tolerated; only all searches failing is a matcher error.
func (m *Matcher) gatherResults(ctx context.Context, title string, year int) ([]tmdb.SearchResult, error) {
	if year <= 0 {
		results, err := m.catalog.SearchMulti(ctx, title)
		if err != nil {
			return nil, fmt.Errorf("catalog search failed: %w", err)
		}
		return results, nil
	}

	var (
		wg    sync.WaitGroup
		movie []tmdb.SearchResult
		tv    []tmdb.SearchResult
		multi []tmdb.SearchResult
		errs  [3]error
	)
	wg.Add(3)
	go func() {
		defer wg.Done()
		movie, errs[0] = m.catalog.SearchMovies(ctx, title, year)
	}()
	go func() {
		defer wg.Done()
		tv, errs[1] = m.catalog.SearchTV(ctx, title, year)
	}()
	go func() {
		defer wg.Done()
		multi, errs[2] = m.catalog.SearchMulti(ctx, title)
	}()
	wg.Wait()

	failed := 0
	for _, err := range errs {
		if err != nil {
			failed++
			m.logger.WithError(err).Warn("Catalog search leg failed")
		}
	}
	if failed == len(errs) {
		return nil, fmt.Errorf("catalog search failed: %w", firstError(errs[:]))
	}

	ordered := make([]tmdb.SearchResult, 0, len(movie)+len(tv)+len(multi))
	ordered = append(ordered, movie...)
	ordered = append(ordered, tv...)
	ordered = append(ordered, multi...)
	return ordered, nil
}

type scoredDetail struct {
	result  tmdb.SearchResult
	details *tmdb.Details
}

// scoreCandidates fetches details for every candidate concurrently, drops the
// ones whose fetch failed, and returns the highest scorer.
func (m *Matcher) scoreCandidates(ctx context.Context, query Query, candidates []tmdb.SearchResult) (*scoredDetail, float64) {
	detailed := make([]*scoredDetail, len(candidates))
	var wg sync.WaitGroup
	for i, candidate := range candidates {
		wg.Add(1)
		go func(i int, candidate tmdb.SearchResult) {
			defer wg.Done()
			details, err := m.catalog.GetDetails(ctx, candidate.InferredMediaType(), candidate.ID)
			if err != nil {
				// A failed detail fetch removes this candidate from scoring;
				// the rest of the search is unaffected.
				m.logger.WithError(err).WithFields(log.Fields{
					"id":        candidate.ID,
					"mediaType": candidate.InferredMediaType(),
				}).Warn("Candidate detail fetch failed, dropping candidate")
				return
			}
			detailed[i] = &scoredDetail{result: candidate, details: details}
		}(i, candidate)
	}
	wg.Wait()

	var best *scoredDetail
	bestScore := -1.0
	for _, candidate := range detailed {
		if candidate == nil {
			continue
		}
		title := firstNonEmptyString(candidate.details.BestTitle(), candidate.result.BestTitle())
		year := candidate.details.ReleaseYear()
		if year == 0 {
			year = candidate.result.ReleaseYear()
		}
		score := scoreCandidate(query, title, year, candidate.details.RuntimeMinutes(), candidate.details.GenreNames())
		m.logger.WithFields(log.Fields{
			"candidate": title,
			"id":        candidate.result.ID,
			"mediaType": candidate.result.InferredMediaType(),
			"score":     fmt.Sprintf("%.3f", score),
		}).Debug("Scored candidate")
		if score > bestScore {
			best = candidate
			bestScore = score
		}
	}
	return best, bestScore
}

// dedupeResults filters search results down to unique movie/tv entries,
// keyed by (mediaType, id), preserving order.
func dedupeResults(results []tmdb.SearchResult) []tmdb.SearchResult {
	seen := make(map[string]struct{}, len(results))
	unique := make([]tmdb.SearchResult, 0, len(results))
	for _, result := range results {
		if result.ID == 0 {
			continue
		}
		mediaType := result.InferredMediaType()
		if mediaType != tmdb.MediaTypeMovie && mediaType != tmdb.MediaTypeTV {
			continue
		}
		key := mediaType + ":" + strconv.Itoa(result.ID)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		result.MediaType = mediaType
		unique = append(unique, result)
	}
	return unique
}

// buildMetadata converts a catalog detail payload into the metadata shape the
// UI and persistence layer consume.
func buildMetadata(result tmdb.SearchResult, details *tmdb.Details, matchMethod string) *Metadata {
	releaseDate := details.BestReleaseDate()
	year := ""
	if y := tmdb.ParseYear(releaseDate); y > 0 {
		year = strconv.Itoa(y)
	}

	cast := make([]string, 0, constants.MaxCastMembers)
	for _, member := range details.Credits.Cast {
		if member.Name == "" {
			continue
		}
		cast = append(cast, member.Name)
		if len(cast) == constants.MaxCastMembers {
			break
		}
	}

	mediaType := result.InferredMediaType()
	return &Metadata{
		ExternalID:     details.ID,
		MediaType:      mediaType,
		Title:          firstNonEmptyString(details.BestTitle(), result.BestTitle()),
		OriginalTitle:  details.BestOriginalTitle(),
		Genres:         details.GenreNames(),
		ReleaseDate:    releaseDate,
		Year:           year,
		RuntimeMinutes: details.RuntimeMinutes(),
		Rating:         details.VoteAverage,
		VoteCount:      details.VoteCount,
		Overview:       details.Overview,
		PosterURL:      tmdb.PosterURL(details.PosterPath),
		CatalogURL:     tmdb.CanonicalURL(mediaType, details.ID),
		IMDbID:         details.ExternalIDs.IMDbID,
		WikidataID:     details.ExternalIDs.WikidataID,
		Cast:           cast,
		Director:       details.Director(),
		MatchMethod:    matchMethod,
	}
}

// formatCandidate shapes one search result (plus optional details) for the
// manual picker.
func formatCandidate(query Query, result tmdb.SearchResult, details *tmdb.Details) Candidate {
	mediaType := result.InferredMediaType()
	title := firstNonEmptyString(details.BestTitle(), result.BestTitle())
	year := details.ReleaseYear()
	if year == 0 {
		year = result.ReleaseYear()
	}
	yearText := ""
	if year > 0 {
		yearText = strconv.Itoa(year)
	}
	posterPath := result.PosterPath
	if details != nil && details.PosterPath != "" {
		posterPath = details.PosterPath
	}

	candidate := Candidate{
		ExternalID: result.ID,
		MediaType:  mediaType,
		Title:      title,
		Year:       yearText,
		PosterURL:  tmdb.PosterURL(posterPath),
		Score:      scoreCandidate(query, title, year, details.RuntimeMinutes(), details.GenreNames()),
	}
	if details != nil {
		switch mediaType {
		case tmdb.MediaTypeTV:
			if len(details.Networks) > 0 {
				candidate.Network = details.Networks[0].Name
			}
		case tmdb.MediaTypeMovie:
			if len(details.ProductionCompanies) > 0 {
				candidate.Studio = details.ProductionCompanies[0].Name
			}
		}
	}
	return candidate
}

func firstNonEmptyString(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func firstError(errs []error) error {
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}
