package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/popcornlabs/popcorn-resolver/pkg/core/content"
	coreerrors "github.com/popcornlabs/popcorn-resolver/pkg/core/errors"
	"github.com/popcornlabs/popcorn-resolver/pkg/core/match"
)

// Link records a confirmed or inferred mapping from a provider-scoped item id
// to an external catalog id, together with the deep link it was captured from.
type Link struct {
	Provider       content.Provider
	PlatformItemID string
	URL            string
	MediaType      string
	ExternalID     int
	Confirmed      bool
	UpdatedAt      time.Time
}

// Store persists platform-id links and cached catalog detail payloads in a
// local sqlite database. The pipeline treats the store as optional: not-found
// and schema problems both degrade to "resolve it again", never to a crash.
type Store struct {
	db *sql.DB
}

const schema = `
CREATE TABLE IF NOT EXISTS platform_links (
	provider         TEXT NOT NULL,
	platform_item_id TEXT NOT NULL,
	url              TEXT NOT NULL DEFAULT '',
	media_type       TEXT NOT NULL,
	external_id      INTEGER NOT NULL,
	confirmed        INTEGER NOT NULL DEFAULT 0,
	updated_at       TIMESTAMP NOT NULL,
	PRIMARY KEY (provider, platform_item_id)
);
CREATE TABLE IF NOT EXISTS metadata_cache (
	media_type  TEXT NOT NULL,
	external_id INTEGER NOT NULL,
	payload     TEXT NOT NULL,
	updated_at  TIMESTAMP NOT NULL,
	PRIMARY KEY (media_type, external_id)
);
`

// Open opens (and if needed initializes) the store at path. Use ":memory:"
// for an ephemeral store.
func Open(path string) (*Store, error) {
	if path == "" {
		return nil, fmt.Errorf("store path must not be empty")
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open store at %s: %w", path, err)
	}
	// The pipeline mutates from one goroutine; a single connection sidesteps
	// sqlite write contention.
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize store schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// SaveLink inserts or replaces the link for a platform item.
func (s *Store) SaveLink(ctx context.Context, link Link) error {
	if link.Provider == "" || link.PlatformItemID == "" {
		return fmt.Errorf("link requires provider and platform item id")
	}
	if link.MediaType == "" || link.ExternalID <= 0 {
		return fmt.Errorf("link requires media type and external id")
	}
	confirmed := 0
	if link.Confirmed {
		confirmed = 1
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO platform_links (provider, platform_item_id, url, media_type, external_id, confirmed, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (provider, platform_item_id) DO UPDATE SET
			url = excluded.url,
			media_type = excluded.media_type,
			external_id = excluded.external_id,
			confirmed = excluded.confirmed,
			updated_at = excluded.updated_at`,
		string(link.Provider), link.PlatformItemID, link.URL, link.MediaType, link.ExternalID, confirmed, time.Now().UTC())
	if err != nil {
		return mapErr(err)
	}
	return nil
}

// GetLink looks up the link for a platform item. Returns ErrNotFound when no
// link exists, which callers must treat differently from a store failure.
func (s *Store) GetLink(ctx context.Context, provider content.Provider, platformItemID string) (*Link, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT provider, platform_item_id, url, media_type, external_id, confirmed, updated_at
		FROM platform_links
		WHERE provider = ? AND platform_item_id = ?`,
		string(provider), platformItemID)

	var (
		link      Link
		prov      string
		confirmed int
	)
	err := row.Scan(&prov, &link.PlatformItemID, &link.URL, &link.MediaType, &link.ExternalID, &confirmed, &link.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, coreerrors.ErrNotFound
	}
	if err != nil {
		return nil, mapErr(err)
	}
	link.Provider = content.Provider(prov)
	link.Confirmed = confirmed != 0
	return &link, nil
}

// SaveMetadata caches a catalog detail payload as JSON.
func (s *Store) SaveMetadata(ctx context.Context, metadata *match.Metadata) error {
	if metadata == nil || metadata.MediaType == "" || metadata.ExternalID <= 0 {
		return fmt.Errorf("metadata requires media type and external id")
	}
	payload, err := json.Marshal(metadata)
	if err != nil {
		return fmt.Errorf("failed to marshal metadata: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO metadata_cache (media_type, external_id, payload, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (media_type, external_id) DO UPDATE SET
			payload = excluded.payload,
			updated_at = excluded.updated_at`,
		metadata.MediaType, metadata.ExternalID, string(payload), time.Now().UTC())
	if err != nil {
		return mapErr(err)
	}
	return nil
}

// GetMetadata loads a cached catalog payload, or ErrNotFound.
func (s *Store) GetMetadata(ctx context.Context, mediaType string, externalID int) (*match.Metadata, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT payload FROM metadata_cache WHERE media_type = ? AND external_id = ?`,
		mediaType, externalID)

	var payload string
	err := row.Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, coreerrors.ErrNotFound
	}
	if err != nil {
		return nil, mapErr(err)
	}
	var metadata match.Metadata
	if err := json.Unmarshal([]byte(payload), &metadata); err != nil {
		return nil, fmt.Errorf("failed to unmarshal cached metadata: %w", err)
	}
	return &metadata, nil
}

// mapErr folds schema problems (dropped table, permission errors) into
// ErrStoreUnavailable so callers can degrade to "feature unavailable" instead
// of failing the pipeline.
func mapErr(err error) error {
	msg := err.Error()
	if strings.Contains(msg, "no such table") ||
		strings.Contains(msg, "readonly database") ||
		strings.Contains(msg, "unable to open database") {
		return fmt.Errorf("%w: %v", coreerrors.ErrStoreUnavailable, err)
	}
	return err
}
