package constants

// DefaultBaseURL is the standard base URL for the TMDB v3 REST API.
const DefaultBaseURL = "https://api.themoviedb.org/3"

// ImageBaseURL is the prefix used to turn a poster path into a full URL.
const ImageBaseURL = "https://image.tmdb.org/t/p/w342"

// DefaultLanguage is sent on every catalog request.
const DefaultLanguage = "en-US"

// MaxCandidates caps how many search results are fetched in detail and scored.
const MaxCandidates = 8

// MaxCastMembers caps how many cast names are carried on a match result.
const MaxCastMembers = 12
