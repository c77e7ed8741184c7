// Package apierr defines the small set of sentinel errors the retrieval
// engine's transport layer needs to distinguish, following the four error
// classes described for the retriever: bad input, capacity, availability,
// and external dependency failure.
package apierr

import (
	"errors"
	"net/http"
)

var (
	// ErrEmptyQuery is returned when a retrieve request carries no query text.
	ErrEmptyQuery = errors.New("query must not be empty")

	// ErrNoIndexLoaded is returned when a retrieve request arrives before the
	// first successful ingestion has published a snapshot.
	ErrNoIndexLoaded = errors.New("no index has been built yet")

	// ErrRebuildInProgress is returned when a rebuild is requested while
	// another rebuild already holds the single-writer lock.
	ErrRebuildInProgress = errors.New("a rebuild is already in progress")

	// ErrEmbedderUnavailable is returned when the configured embedding
	// provider cannot be reached.
	ErrEmbedderUnavailable = errors.New("embedding provider is unavailable")
)

// StatusFor maps a sentinel (or a wrapped sentinel) to the HTTP status the
// transport layer should answer with.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, ErrEmptyQuery):
		return http.StatusBadRequest
	case errors.Is(err, ErrNoIndexLoaded):
		return http.StatusServiceUnavailable
	case errors.Is(err, ErrRebuildInProgress):
		return http.StatusConflict
	case errors.Is(err, ErrEmbedderUnavailable):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
