package errors

import "errors"

// Catalog (TMDB) related errors
var (
	ErrCatalogNotConfigured = errors.New("tmdb: API key is not configured")
	ErrCatalogUnavailable   = errors.New("tmdb: catalog request failed")
)

// Persisted store errors
var (
	// ErrNotFound means the store answered and the record simply is not there.
	// It is deliberately distinct from ErrStoreUnavailable.
	ErrNotFound = errors.New("store: record not found")
	// ErrStoreUnavailable means the backing schema is missing or unreachable.
	// Callers treat this as "feature unavailable" and proceed without the store.
	ErrStoreUnavailable = errors.New("store: backend unavailable")
)
