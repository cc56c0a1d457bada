package tmdb

import (
	"strconv"
	"strings"
)

// MediaType values used by the catalog. Only movie and tv take part in matching.
const (
	MediaTypeMovie = "movie"
	MediaTypeTV    = "tv"
)

// --- Query parameter structs (encoded by go-querystring) ---

type movieSearchParams struct {
	Query        string `url:"query"`
	Year         int    `url:"year,omitempty"`
	IncludeAdult string `url:"include_adult"`
}

type tvSearchParams struct {
	Query            string `url:"query"`
	FirstAirDateYear int    `url:"first_air_date_year,omitempty"`
	IncludeAdult     string `url:"include_adult"`
}

type multiSearchParams struct {
	Query        string `url:"query"`
	IncludeAdult string `url:"include_adult"`
}

type detailParams struct {
	AppendToResponse string `url:"append_to_response"`
}

// --- Response structs ---

// SearchResult mirrors one item of a TMDB search response. Movie results carry
// title/release_date, tv results carry name/first_air_date, and only multi
// search populates media_type.
type SearchResult struct {
	ID           int    `json:"id"`
	MediaType    string `json:"media_type,omitempty"`
	Title        string `json:"title,omitempty"`
	Name         string `json:"name,omitempty"`
	ReleaseDate  string `json:"release_date,omitempty"`
	FirstAirDate string `json:"first_air_date,omitempty"`
	PosterPath   string `json:"poster_path,omitempty"`
}

type searchResponse struct {
	Results []SearchResult `json:"results"`
}

// Genre is a catalog genre reference.
type Genre struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// Company is a network (tv) or production company (movie) reference.
type Company struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// ExternalIDs carries cross-reference ids appended to a detail response.
type ExternalIDs struct {
	IMDbID     string `json:"imdb_id,omitempty"`
	WikidataID string `json:"wikidata_id,omitempty"`
}

// CastMember is a single credited cast entry.
type CastMember struct {
	Name      string `json:"name"`
	Character string `json:"character,omitempty"`
	Order     int    `json:"order"`
}

// CrewMember is a single credited crew entry.
type CrewMember struct {
	Name string `json:"name"`
	Job  string `json:"job,omitempty"`
}

// Credits bundles cast and crew from append_to_response=credits.
type Credits struct {
	Cast []CastMember `json:"cast,omitempty"`
	Crew []CrewMember `json:"crew,omitempty"`
}

// Details mirrors a TMDB movie or tv detail response with external_ids and
// credits appended.
type Details struct {
	ID                  int         `json:"id"`
	Title               string      `json:"title,omitempty"`
	Name                string      `json:"name,omitempty"`
	OriginalTitle       string      `json:"original_title,omitempty"`
	OriginalName        string      `json:"original_name,omitempty"`
	Genres              []Genre     `json:"genres,omitempty"`
	ReleaseDate         string      `json:"release_date,omitempty"`
	FirstAirDate        string      `json:"first_air_date,omitempty"`
	Runtime             int         `json:"runtime,omitempty"`
	EpisodeRunTime      []int       `json:"episode_run_time,omitempty"`
	VoteAverage         float64     `json:"vote_average,omitempty"`
	VoteCount           int         `json:"vote_count,omitempty"`
	Overview            string      `json:"overview,omitempty"`
	PosterPath          string      `json:"poster_path,omitempty"`
	Networks            []Company   `json:"networks,omitempty"`
	ProductionCompanies []Company   `json:"production_companies,omitempty"`
	ExternalIDs         ExternalIDs `json:"external_ids,omitempty"`
	Credits             Credits     `json:"credits,omitempty"`
}

// --- Field access helpers ---
// Movie and tv payloads disagree on field names; these pick whichever is set.

// BestTitle returns the display title of a search result.
func (r SearchResult) BestTitle() string {
	if r.Title != "" {
		return r.Title
	}
	return r.Name
}

// ReleaseYear parses the year out of whichever date field is populated.
func (r SearchResult) ReleaseYear() int {
	return ParseYear(firstNonEmpty(r.ReleaseDate, r.FirstAirDate))
}

// InferredMediaType returns media_type when present, otherwise guesses from
// which title field the payload used.
func (r SearchResult) InferredMediaType() string {
	if r.MediaType != "" {
		return r.MediaType
	}
	if r.Title != "" {
		return MediaTypeMovie
	}
	return MediaTypeTV
}

// BestTitle returns the display title of a detail payload.
func (d *Details) BestTitle() string {
	if d == nil {
		return ""
	}
	return firstNonEmpty(d.Title, d.Name)
}

// BestOriginalTitle returns the original-language title of a detail payload.
func (d *Details) BestOriginalTitle() string {
	if d == nil {
		return ""
	}
	return firstNonEmpty(d.OriginalTitle, d.OriginalName)
}

// BestReleaseDate returns whichever release date field is populated.
func (d *Details) BestReleaseDate() string {
	if d == nil {
		return ""
	}
	return firstNonEmpty(d.ReleaseDate, d.FirstAirDate)
}

// ReleaseYear parses the year out of the detail release date.
func (d *Details) ReleaseYear() int {
	return ParseYear(d.BestReleaseDate())
}

// RuntimeMinutes returns the movie runtime, or the average episode runtime for
// tv, or 0 when the catalog has neither.
func (d *Details) RuntimeMinutes() int {
	if d == nil {
		return 0
	}
	if d.Runtime > 0 {
		return d.Runtime
	}
	if len(d.EpisodeRunTime) > 0 {
		sum := 0
		for _, minutes := range d.EpisodeRunTime {
			sum += minutes
		}
		return int(float64(sum)/float64(len(d.EpisodeRunTime)) + 0.5)
	}
	return 0
}

// GenreNames flattens the genre list to names.
func (d *Details) GenreNames() []string {
	if d == nil || len(d.Genres) == 0 {
		return nil
	}
	names := make([]string, 0, len(d.Genres))
	for _, genre := range d.Genres {
		if genre.Name != "" {
			names = append(names, genre.Name)
		}
	}
	return names
}

// Director returns the first crew member credited as Director, or "".
func (d *Details) Director() string {
	if d == nil {
		return ""
	}
	for _, member := range d.Credits.Crew {
		if member.Job == "Director" && member.Name != "" {
			return member.Name
		}
	}
	return ""
}

// ParseYear extracts a four-digit year from a date-ish string ("2016-07-15",
// "2016"). Returns 0 when the value does not start with a parseable year.
func ParseYear(value string) int {
	value = strings.TrimSpace(value)
	if len(value) < 4 {
		return 0
	}
	year, err := strconv.Atoi(value[:4])
	if err != nil {
		return 0
	}
	return year
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
