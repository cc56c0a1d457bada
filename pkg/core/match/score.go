package match

import "strings"

// Weights of the individual signals in the candidate score. Missing signals are
// excluded rather than scored zero, and the final score is renormalized over
// the weights that were actually present, so a candidate is never punished for
// metadata the source page failed to capture.
const (
	weightTitle    = 0.70
	weightYear     = 0.15
	weightDuration = 0.10
	weightGenres   = 0.05
)

// scorePart is one weighted component of a candidate score.
type scorePart struct {
	weight float64
	score  float64
}

// scoreTitle compares two titles: exact normalized match scores 1.0, substring
// containment either way scores 0.9, anything else falls back to Jaccard token
// overlap.
func scoreTitle(query, candidate string) float64 {
	normalizedQuery := Normalize(query)
	normalizedCandidate := Normalize(candidate)
	if normalizedQuery == "" || normalizedCandidate == "" {
		return 0
	}
	if normalizedQuery == normalizedCandidate {
		return 1
	}
	if containsEither(normalizedQuery, normalizedCandidate) {
		return 0.9
	}

	queryTokens := tokenSet(normalizedQuery)
	candidateTokens := tokenSet(normalizedCandidate)
	if len(queryTokens) == 0 || len(candidateTokens) == 0 {
		return 0
	}
	intersection := 0
	for token := range queryTokens {
		if _, ok := candidateTokens[token]; ok {
			intersection++
		}
	}
	union := len(queryTokens) + len(candidateTokens) - intersection
	if union == 0 {
		return 0
	}
	return float64(intersection) / float64(union)
}

// scoreYear scores year closeness. The second return reports whether the
// signal was present on both sides; absent signals are excluded from the sum.
func scoreYear(targetYear, candidateYear int) (float64, bool) {
	if targetYear <= 0 || candidateYear <= 0 {
		return 0, false
	}
	diff := targetYear - candidateYear
	if diff < 0 {
		diff = -diff
	}
	switch diff {
	case 0:
		return 1, true
	case 1:
		return 0.6, true
	default:
		return 0, true
	}
}

// scoreDuration scores runtime closeness: within ten minutes counts as a
// match, anything further apart scores zero.
func scoreDuration(targetMinutes, candidateMinutes int) (float64, bool) {
	if targetMinutes <= 0 || candidateMinutes <= 0 {
		return 0, false
	}
	diff := targetMinutes - candidateMinutes
	if diff < 0 {
		diff = -diff
	}
	if diff <= 10 {
		return 1, true
	}
	return 0, true
}

// scoreGenres scores the fraction of target genres present on the candidate.
func scoreGenres(targetGenres, candidateGenres []string) (float64, bool) {
	target := normalizedSet(targetGenres)
	candidate := normalizedSet(candidateGenres)
	if len(target) == 0 || len(candidate) == 0 {
		return 0, false
	}
	matches := 0
	for genre := range target {
		if _, ok := candidate[genre]; ok {
			matches++
		}
	}
	return float64(matches) / float64(len(target)), true
}

// scoreCandidate combines the signal scores into the final weighted score,
// renormalized over the parts that were present.
func scoreCandidate(query Query, title string, year, durationMinutes int, genres []string) float64 {
	parts := []scorePart{
		{weight: weightTitle, score: scoreTitle(query.Title, title)},
	}
	if s, ok := scoreYear(query.Year, year); ok {
		parts = append(parts, scorePart{weight: weightYear, score: s})
	}
	if s, ok := scoreDuration(query.DurationMinutes, durationMinutes); ok {
		parts = append(parts, scorePart{weight: weightDuration, score: s})
	}
	if s, ok := scoreGenres(query.Genres, genres); ok {
		parts = append(parts, scorePart{weight: weightGenres, score: s})
	}

	totalWeight := 0.0
	weightedSum := 0.0
	for _, part := range parts {
		totalWeight += part.weight
		weightedSum += part.score * part.weight
	}
	if totalWeight == 0 {
		return 0
	}
	return weightedSum / totalWeight
}

func containsEither(a, b string) bool {
	return strings.Contains(a, b) || strings.Contains(b, a)
}

func tokenSet(normalized string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, token := range Tokenize(normalized) {
		set[token] = struct{}{}
	}
	return set
}

func normalizedSet(values []string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, value := range values {
		if normalized := Normalize(value); normalized != "" {
			set[normalized] = struct{}{}
		}
	}
	return set
}
