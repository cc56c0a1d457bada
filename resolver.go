// Package resolver implements the content resolution pipeline: per-provider
// DOM extraction, stabilization of noisy repeated reads, and fuzzy matching of
// the extracted signals against an external metadata catalog.
package resolver

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
	log "github.com/sirupsen/logrus"

	"github.com/popcornlabs/popcorn-resolver/pkg/core/content"
	coreerrors "github.com/popcornlabs/popcorn-resolver/pkg/core/errors"
	"github.com/popcornlabs/popcorn-resolver/pkg/core/extract"
	"github.com/popcornlabs/popcorn-resolver/pkg/core/extract/disney"
	"github.com/popcornlabs/popcorn-resolver/pkg/core/extract/netflix"
	"github.com/popcornlabs/popcorn-resolver/pkg/core/linkqueue"
	"github.com/popcornlabs/popcorn-resolver/pkg/core/match"
	"github.com/popcornlabs/popcorn-resolver/pkg/core/stabilize"
	"github.com/popcornlabs/popcorn-resolver/pkg/core/store"
	"github.com/popcornlabs/popcorn-resolver/pkg/core/tmdb"
)

// DefaultEnrichTimeout bounds one enrichment attempt. A hung catalog call
// degrades to an unresolved state instead of leaving enrichment pending
// forever.
const DefaultEnrichTimeout = 15 * time.Second

// ContentMatcher defines the matcher methods the resolver needs.
type ContentMatcher interface {
	Match(ctx context.Context, query match.Query) (*match.Metadata, error)
	ByID(ctx context.Context, mediaType string, id int) (*match.Metadata, error)
}

// ContentStore defines the persisted-store methods the resolver needs.
// *store.Store satisfies it.
type ContentStore interface {
	GetLink(ctx context.Context, provider content.Provider, platformItemID string) (*store.Link, error)
	SaveLink(ctx context.Context, link store.Link) error
	GetMetadata(ctx context.Context, mediaType string, externalID int) (*match.Metadata, error)
	SaveMetadata(ctx context.Context, metadata *match.Metadata) error
}

// MatchState classifies the outcome of one enrichment attempt.
type MatchState string

const (
	// StateMatched means a catalog match was attached.
	StateMatched MatchState = "matched"
	// StateUnresolved means no match exists (missing title, no candidate, or
	// no catalog configured). The UI shows a neutral "pick a title"
	// affordance, not an error.
	StateUnresolved MatchState = "unresolved"
	// StateUnavailable means the catalog failed; the content survives without
	// a match.
	StateUnavailable MatchState = "unavailable"
	// StateSuperseded means the active content changed before this lookup
	// finished; the result must be discarded.
	StateSuperseded MatchState = "superseded"
)

// Result pairs a resolved content identity with the outcome of its
// enrichment. Match is non-nil only in StateMatched. The content's
// PlatformItemID lets consumers drop results that arrive late.
type Result struct {
	Content *content.ActiveContent
	Match   *match.Metadata
	State   MatchState
	Err     error
}

// Config holds the configuration for a Resolver.
type Config struct {
	// TMDBAPIKey enables the catalog matcher. Empty means every resolution is
	// reported unresolved (the pipeline still extracts and stabilizes).
	TMDBAPIKey string
	// TMDBBaseURL overrides the catalog base URL (used by tests).
	TMDBBaseURL string
	// Store is the optional persisted link/metadata store.
	Store *store.Store
	// EnrichTimeout bounds one enrichment attempt; zero means
	// DefaultEnrichTimeout.
	EnrichTimeout time.Duration
	Logger        *log.Logger

	// OnContent, when set, is invoked for every content-change event.
	OnContent func(*content.ActiveContent)
	// OnMatch, when set, is invoked when an enrichment attempt finishes, with
	// the platform item id the result applies to.
	OnMatch func(platformItemID string, result *Result)
}

// Resolver owns the pipeline state: the provider registry, the stabilization
// cache, the local identity cache, and the request counter that guards against
// stale enrichment results. It is driven from a single event loop; the only
// concurrency inside is the matcher's fan-out.
type Resolver struct {
	registry   extract.Registry
	stabilizer *stabilize.Cache
	matcher    ContentMatcher
	store      ContentStore
	links      *linkqueue.Queue
	logger     *log.Logger
	timeout    time.Duration

	onContent func(*content.ActiveContent)
	onMatch   func(string, *Result)

	mu         sync.Mutex
	requestSeq uint64
	currentKey string
	identity   map[string]*match.Metadata
}

// New creates a Resolver with the Netflix and Disney+ extractors registered.
func New(config Config) (*Resolver, error) {
	registry, err := extract.NewRegistry(netflix.Extractor{}, disney.Extractor{})
	if err != nil {
		return nil, err
	}

	logger := config.Logger
	if logger == nil {
		logger = log.StandardLogger()
	}

	var matcher ContentMatcher
	if config.TMDBAPIKey != "" {
		catalog, err := tmdb.NewClient(tmdb.Config{
			APIKey:  config.TMDBAPIKey,
			BaseURL: config.TMDBBaseURL,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to initialize catalog client: %w", err)
		}
		matcher = match.NewMatcher(catalog, logger)
	} else {
		logger.Warn("No catalog API key configured; content will not be matched")
	}

	timeout := config.EnrichTimeout
	if timeout <= 0 {
		timeout = DefaultEnrichTimeout
	}

	r := &Resolver{
		registry:   registry,
		stabilizer: stabilize.NewCache(),
		matcher:    matcher,
		links:      linkqueue.New(logger),
		logger:     logger,
		timeout:    timeout,
		onContent:  config.OnContent,
		onMatch:    config.OnMatch,
		identity:   make(map[string]*match.Metadata),
	}
	if config.Store != nil {
		r.store = config.Store
	}
	return r, nil
}

// SetMatcher replaces the matcher. Exposed for tests and for callers that
// bring their own catalog client.
func (r *Resolver) SetMatcher(matcher ContentMatcher) {
	r.matcher = matcher
}

// Reset clears the stabilization cache and orphans any in-flight enrichment.
// Call it on full page navigation. The identity cache survives: an id that was
// matched once is still the same title on the next page.
func (r *Resolver) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stabilizer.Reset()
	r.requestSeq++
	r.currentKey = ""
}

// ResolveSnapshot parses an HTML snapshot and resolves it against pageURL.
func (r *Resolver) ResolveSnapshot(ctx context.Context, snapshot io.Reader, pageURL string) (*Result, error) {
	parsed, err := url.Parse(pageURL)
	if err != nil {
		return nil, fmt.Errorf("invalid page URL %q: %w", pageURL, err)
	}
	doc, err := goquery.NewDocumentFromReader(snapshot)
	if err != nil {
		return nil, fmt.Errorf("failed to parse snapshot: %w", err)
	}
	return r.Resolve(ctx, doc, parsed), nil
}

// Resolve runs one pass of the pipeline: extract, stabilize, enrich. A nil
// Content in the result means the page carries no resolvable identity; that is
// a normal outcome, not an error.
func (r *Resolver) Resolve(ctx context.Context, doc *goquery.Document, pageURL *url.URL) *Result {
	active := r.registry.Resolve(doc, pageURL)
	if active == nil {
		r.mu.Lock()
		r.currentKey = ""
		r.mu.Unlock()
		return &Result{State: StateUnresolved}
	}

	active = r.stabilizer.Reconcile(active)
	r.emitContent(active)

	r.mu.Lock()
	r.requestSeq++
	seq := r.requestSeq
	r.currentKey = active.Key()
	r.mu.Unlock()

	result := r.enrich(ctx, active)

	// A lookup that resolves after the active content moved on is noise;
	// report it as superseded so the consumer drops it too.
	r.mu.Lock()
	stale := seq != r.requestSeq
	r.mu.Unlock()
	if stale {
		result = &Result{Content: active, State: StateSuperseded}
	}

	r.emitMatch(active.PlatformItemID, result)
	return result
}

// enrich attaches the richest available catalog record to the content,
// checking the cheapest sources first: local identity cache, persisted store,
// then the matcher.
func (r *Resolver) enrich(ctx context.Context, active *content.ActiveContent) *Result {
	key := active.Key()

	r.mu.Lock()
	cached, ok := r.identity[key]
	r.mu.Unlock()
	if ok {
		return &Result{Content: active, Match: cached, State: StateMatched}
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	if metadata := r.fromStore(ctx, active); metadata != nil {
		r.remember(key, metadata)
		return &Result{Content: active, Match: metadata, State: StateMatched}
	}

	// The matcher needs a title; a player page that has not painted one yet
	// stays unresolved until the next read.
	if r.matcher == nil || active.Title == "" {
		return &Result{Content: active, State: StateUnresolved}
	}

	metadata, err := r.matcher.Match(ctx, match.Query{
		Title:           active.Title,
		Year:            tmdb.ParseYear(active.Year),
		DurationMinutes: active.DurationMinutes,
		Genres:          active.Genres,
	})
	if err != nil {
		r.logger.WithError(err).WithField("key", key).Warn("Catalog match failed")
		return &Result{
			Content: active,
			State:   StateUnavailable,
			Err:     fmt.Errorf("%w: %v", coreerrors.ErrCatalogUnavailable, err),
		}
	}
	if metadata == nil {
		return &Result{Content: active, State: StateUnresolved}
	}

	r.remember(key, metadata)
	r.persist(ctx, active, metadata)
	return &Result{Content: active, Match: metadata, State: StateMatched}
}

// fromStore tries the persisted store: a cached metadata blob for an existing
// link, or a direct catalog lookup by the linked id when the blob is missing.
// Any store failure is logged and treated as "no persisted record".
func (r *Resolver) fromStore(ctx context.Context, active *content.ActiveContent) *match.Metadata {
	if r.store == nil {
		return nil
	}

	link, err := r.store.GetLink(ctx, active.Provider, active.PlatformItemID)
	if errors.Is(err, coreerrors.ErrNotFound) {
		return nil
	}
	if err != nil {
		if errors.Is(err, coreerrors.ErrStoreUnavailable) {
			r.logger.WithError(err).Warn("Persisted store unavailable, continuing without it")
		} else {
			r.logger.WithError(err).Warn("Persisted store lookup failed")
		}
		return nil
	}

	metadata, err := r.store.GetMetadata(ctx, link.MediaType, link.ExternalID)
	if err == nil {
		return metadata
	}
	if !errors.Is(err, coreerrors.ErrNotFound) {
		r.logger.WithError(err).Warn("Cached metadata read failed")
	}

	// Link without a blob: the id is known, so fetch the details directly
	// instead of searching again.
	if r.matcher == nil {
		return nil
	}
	metadata, err = r.matcher.ByID(ctx, link.MediaType, link.ExternalID)
	if err != nil {
		r.logger.WithError(err).WithFields(log.Fields{
			"mediaType": link.MediaType,
			"id":        link.ExternalID,
		}).Warn("Linked catalog lookup failed")
		return nil
	}
	if err := r.store.SaveMetadata(ctx, metadata); err != nil {
		r.logger.WithError(err).Warn("Failed to cache catalog metadata")
	}
	return metadata
}

// persist records the resolved link and metadata. Store failures queue the
// link for a later flush instead of surfacing.
func (r *Resolver) persist(ctx context.Context, active *content.ActiveContent, metadata *match.Metadata) {
	link := store.Link{
		Provider:       active.Provider,
		PlatformItemID: active.PlatformItemID,
		URL:            active.URL,
		MediaType:      metadata.MediaType,
		ExternalID:     metadata.ExternalID,
	}
	if r.store == nil {
		r.links.Enqueue(link)
		return
	}

	if err := r.store.SaveMetadata(ctx, metadata); err != nil {
		r.logger.WithError(err).Warn("Failed to cache catalog metadata")
	}
	r.links.Enqueue(link)
	r.links.Flush(ctx, r.store)
}

// PendingLinks reports how many resolved links are waiting for a store.
func (r *Resolver) PendingLinks() int {
	return r.links.Len()
}

// FlushLinks retries queued link writes against the given store (usually the
// configured one). Returns how many links were written.
func (r *Resolver) FlushLinks(ctx context.Context, writer linkqueue.Writer) int {
	if writer == nil && r.store != nil {
		writer = r.store
	}
	return r.links.Flush(ctx, writer)
}

func (r *Resolver) remember(key string, metadata *match.Metadata) {
	r.mu.Lock()
	r.identity[key] = metadata
	r.mu.Unlock()
}

func (r *Resolver) emitContent(active *content.ActiveContent) {
	if r.onContent != nil {
		r.onContent(active)
	}
}

func (r *Resolver) emitMatch(platformItemID string, result *Result) {
	if r.onMatch != nil {
		r.onMatch(platformItemID, result)
	}
}
