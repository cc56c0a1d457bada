package linkqueue

import (
	"context"
	"sync"

	log "github.com/sirupsen/logrus"

	"github.com/popcornlabs/popcorn-resolver/pkg/core/content"
	"github.com/popcornlabs/popcorn-resolver/pkg/core/store"
)

// Writer is the slice of the persisted store the queue needs.
type Writer interface {
	SaveLink(ctx context.Context, link store.Link) error
}

// Queue holds platform-link writes that could not be persisted yet, so a
// resolution is never lost to a transiently unavailable store. Entries are
// deduplicated by content key: a newer link for the same item replaces the
// queued one.
type Queue struct {
	mu      sync.Mutex
	pending []store.Link
	logger  *log.Logger
}

// New creates an empty pending-link queue.
func New(logger *log.Logger) *Queue {
	if logger == nil {
		logger = log.StandardLogger()
	}
	return &Queue{logger: logger}
}

// Enqueue adds or replaces the pending link for its content key.
func (q *Queue) Enqueue(link store.Link) {
	q.mu.Lock()
	defer q.mu.Unlock()

	key := content.Key(link.Provider, link.PlatformItemID)
	for i, existing := range q.pending {
		if content.Key(existing.Provider, existing.PlatformItemID) == key {
			q.pending[i] = link
			return
		}
	}
	q.pending = append(q.pending, link)
}

// Len reports how many links are waiting.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending)
}

// Flush tries to persist every pending link. Links that fail to write stay
// queued for the next flush; the first write error is logged, not returned,
// because a flush failure must never fail the resolution that triggered it.
// Returns how many links were written.
func (q *Queue) Flush(ctx context.Context, writer Writer) int {
	if writer == nil {
		return 0
	}

	q.mu.Lock()
	pending := q.pending
	q.pending = nil
	q.mu.Unlock()

	flushed := 0
	var remaining []store.Link
	for _, link := range pending {
		if err := writer.SaveLink(ctx, link); err != nil {
			q.logger.WithError(err).WithFields(log.Fields{
				"provider": link.Provider,
				"id":       link.PlatformItemID,
			}).Warn("Pending link write failed, keeping it queued")
			remaining = append(remaining, link)
			continue
		}
		flushed++
	}

	if len(remaining) > 0 {
		q.mu.Lock()
		// New enqueues may have arrived while flushing; they win over the
		// failed writes for the same key.
		q.pending = append(remaining, q.pending...)
		q.mu.Unlock()
	}
	return flushed
}

// Reset drops every pending link.
func (q *Queue) Reset() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.pending = nil
}
