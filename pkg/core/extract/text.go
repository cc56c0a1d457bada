package extract

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

var (
	yearRegex         = regexp.MustCompile(`\b(19|20)\d{2}\b`)
	hoursMinutesRegex = regexp.MustCompile(`(?i)(?:(\d+)\s*h)?\s*(?:(\d+)\s*m)`)
	bareMinutesRegex  = regexp.MustCompile(`(?i)\b(\d+)\s*min`)
	whitespaceRegex   = regexp.MustCompile(`\s+`)
)

// FirstText walks a prioritized selector list and returns the first non-empty
// trimmed text, scoped to sel.
func FirstText(sel *goquery.Selection, selectors ...string) string {
	if sel == nil {
		return ""
	}
	for _, selector := range selectors {
		if text := CleanText(sel.Find(selector).First().Text()); text != "" {
			return text
		}
	}
	return ""
}

// CleanText trims and collapses internal whitespace. DOM text nodes routinely
// carry newlines and indentation from the markup.
func CleanText(value string) string {
	return strings.TrimSpace(whitespaceRegex.ReplaceAllString(value, " "))
}

// IsGenericTitle reports whether a scraped title is one of the provider's
// generic page titles (site brand, navigation labels). A title equal to the
// site brand is worse than no title, so extractors drop these.
func IsGenericTitle(title string, generics ...string) bool {
	title = strings.ToLower(strings.TrimSpace(title))
	if title == "" {
		return true
	}
	for _, generic := range generics {
		if title == strings.ToLower(strings.TrimSpace(generic)) {
			return true
		}
	}
	return false
}

// ParseYearText pulls the first plausible four-digit year out of a metadata
// string, e.g. "2016" or "2016 · 4 Seasons".
func ParseYearText(value string) string {
	return yearRegex.FindString(value)
}

// ParseDurationMinutes converts runtime strings like "1h 57m", "57m" or
// "141 min" into minutes. Returns 0 when nothing parseable is present.
func ParseDurationMinutes(value string) int {
	if m := hoursMinutesRegex.FindStringSubmatch(value); m != nil {
		hours := 0
		if m[1] != "" {
			hours, _ = strconv.Atoi(m[1])
		}
		minutes, _ := strconv.Atoi(m[2])
		return hours*60 + minutes
	}
	if m := bareMinutesRegex.FindStringSubmatch(value); m != nil {
		minutes, _ := strconv.Atoi(m[1])
		return minutes
	}
	return 0
}

// CollectTexts returns the cleaned text of every node matching the first
// selector that yields at least one non-empty value.
func CollectTexts(sel *goquery.Selection, selectors ...string) []string {
	if sel == nil {
		return nil
	}
	for _, selector := range selectors {
		var values []string
		sel.Find(selector).Each(func(_ int, node *goquery.Selection) {
			if text := CleanText(node.Text()); text != "" {
				values = append(values, text)
			}
		})
		if len(values) > 0 {
			return values
		}
	}
	return nil
}

// DocumentTitle strips a provider suffix ("Watch X - Netflix") off the <title>
// element and returns what is left.
func DocumentTitle(doc *goquery.Document, suffixes ...string) string {
	if doc == nil {
		return ""
	}
	title := CleanText(doc.Find("title").First().Text())
	for _, suffix := range suffixes {
		title = strings.TrimSuffix(title, suffix)
	}
	return CleanText(title)
}
