package stabilize

import (
	"strings"

	"github.com/popcornlabs/popcorn-resolver/pkg/core/content"
)

// Entry holds the best fields observed so far for one platform item id.
type Entry struct {
	Title string
	Year  string
	URL   string
}

// Cache reconciles noisy repeated DOM reads into one trustworthy record per
// platform item id.
//
// Provider SPAs mutate the DOM many times per second during hover and scroll;
// a naive "latest read wins" policy produces flickering or garbled titles.
// The cache keeps last-known-good fields per id, fills gaps in new reads from
// them, and rejects reads that look like mid-transition noise.
//
// It is an explicitly owned object: the resolver holds one per content-script
// lifetime and calls Reset on navigation. Mutation happens from a single
// goroutine, mirroring the browser's event loop; there is no internal locking.
type Cache struct {
	entries map[string]Entry
}

// NewCache creates an empty stabilization cache.
func NewCache() *Cache {
	return &Cache{entries: make(map[string]Entry)}
}

// Reset clears every cached entry. Called on full page navigation.
func (c *Cache) Reset() {
	c.entries = make(map[string]Entry)
}

// Len reports how many ids currently have cached entries.
func (c *Cache) Len() int {
	return len(c.entries)
}

// Entry returns the cached entry for an id.
func (c *Cache) Entry(platformItemID string) (Entry, bool) {
	entry, ok := c.entries[platformItemID]
	return entry, ok
}

// Reconcile merges a new signal with the cached entry for its id and returns
// the reconciled record. Feeding the same signal twice yields the same result
// as feeding it once.
//
// Rules, in order:
//   - First signal for an id: cache whatever fields are present.
//   - New URL differs from the cached one: the read is for a different context;
//     only non-empty fields overwrite, and the cached title survives an empty
//     new title.
//   - Same URL: a new title that contains the old one, is longer, and carries a
//     separator character is treated as two adjacent DOM text nodes captured
//     mid-mutation; the old title is kept and the new one discarded.
//   - Otherwise the new title wins when non-empty; year fills in only when
//     previously empty.
func (c *Cache) Reconcile(signal *content.ActiveContent) *content.ActiveContent {
	if signal == nil || signal.PlatformItemID == "" {
		return signal
	}

	cached, ok := c.entries[signal.PlatformItemID]
	if !ok {
		c.entries[signal.PlatformItemID] = Entry{
			Title: signal.Title,
			Year:  signal.Year,
			URL:   signal.URL,
		}
		return signal
	}

	merged := *signal

	if signal.URL != "" && signal.URL != cached.URL {
		// Different DOM location for the same id. Trust the new read where it
		// has data, keep the cached fields where it does not.
		if merged.Title == "" {
			merged.Title = cached.Title
		}
		if merged.Year == "" {
			merged.Year = cached.Year
		}
	} else {
		// Re-read of the same location.
		if isCombinedTitle(cached.Title, merged.Title) {
			merged.Title = cached.Title
		} else if merged.Title == "" {
			merged.Title = cached.Title
		}
		if merged.Year == "" {
			merged.Year = cached.Year
		}
		if merged.URL == "" {
			merged.URL = cached.URL
		}
	}

	c.entries[signal.PlatformItemID] = Entry{
		Title: merged.Title,
		Year:  merged.Year,
		URL:   merged.URL,
	}
	return &merged
}

// isCombinedTitle detects the concatenation corruption pattern: during a DOM
// mutation two adjacent text nodes can be read as one string, producing
// "Inception: Now Playing" where "Inception" was cached. The substring plus
// separator check is a cheap, good-enough detector that avoids a full diff.
func isCombinedTitle(oldTitle, newTitle string) bool {
	if oldTitle == "" || newTitle == "" || oldTitle == newTitle {
		return false
	}
	idx := strings.Index(newTitle, oldTitle)
	if idx < 0 {
		return false
	}
	if len(newTitle) <= len(oldTitle)+1 {
		return false
	}
	// Only the text that was glued on counts; a legitimate sequel title like
	// "Spider-Man 2" over "Spider-Man" must not trip the guard.
	added := newTitle[:idx] + newTitle[idx+len(oldTitle):]
	return strings.ContainsAny(added, ":-|")
}
