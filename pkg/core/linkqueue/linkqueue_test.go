package linkqueue

import (
	"context"
	"errors"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/popcornlabs/popcorn-resolver/pkg/core/content"
	"github.com/popcornlabs/popcorn-resolver/pkg/core/store"
)

// fakeWriter records saved links and can fail selected item ids.
type fakeWriter struct {
	saved   []store.Link
	failIDs map[string]bool
}

func (f *fakeWriter) SaveLink(ctx context.Context, link store.Link) error {
	if f.failIDs[link.PlatformItemID] {
		return errors.New("store write failed")
	}
	f.saved = append(f.saved, link)
	return nil
}

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return logger
}

func link(id string, externalID int) store.Link {
	return store.Link{
		Provider:       content.ProviderNetflix,
		PlatformItemID: id,
		MediaType:      "tv",
		ExternalID:     externalID,
	}
}

func TestEnqueueDeduplicatesByKey(t *testing.T) {
	q := New(quietLogger())

	q.Enqueue(link("1", 10))
	q.Enqueue(link("2", 20))
	q.Enqueue(link("1", 11))
	assert.Equal(t, 2, q.Len())

	writer := &fakeWriter{}
	flushed := q.Flush(context.Background(), writer)
	assert.Equal(t, 2, flushed)
	require.Len(t, writer.saved, 2)
	assert.Equal(t, 11, writer.saved[0].ExternalID, "the newer link replaced the queued one")
}

func TestFlushKeepsFailures(t *testing.T) {
	q := New(quietLogger())
	q.Enqueue(link("1", 10))
	q.Enqueue(link("2", 20))

	writer := &fakeWriter{failIDs: map[string]bool{"1": true}}
	flushed := q.Flush(context.Background(), writer)
	assert.Equal(t, 1, flushed)
	assert.Equal(t, 1, q.Len(), "the failed write stays queued")

	// Second flush against a healthy writer drains the rest.
	writer.failIDs = nil
	flushed = q.Flush(context.Background(), writer)
	assert.Equal(t, 1, flushed)
	assert.Equal(t, 0, q.Len())
}

func TestFlushNilWriter(t *testing.T) {
	q := New(quietLogger())
	q.Enqueue(link("1", 10))

	assert.Equal(t, 0, q.Flush(context.Background(), nil))
	assert.Equal(t, 1, q.Len(), "nothing is lost without a writer")
}

func TestReset(t *testing.T) {
	q := New(quietLogger())
	q.Enqueue(link("1", 10))
	q.Enqueue(link("2", 20))

	q.Reset()
	assert.Equal(t, 0, q.Len())
}
