package sources

import (
	"context"
	"errors"
	"fmt"

	"github.com/stacklok/toolhive-catalog-browser/internal/catalog"
	"github.com/stacklok/toolhive-catalog-browser/internal/httpclient"
)

//go:generate mockgen -destination=mocks/mock_fetcher.go -package=mocks -source=types.go Fetcher,SourceHandler,SourceHandlerFactory

// Fetcher retrieves a complete catalog snapshot
type Fetcher interface {
	// Fetch downloads the catalog at url and returns its typed entries.
	// It fails with *FetchError or *ParseError and never returns a partial catalog.
	Fetch(ctx context.Context, kind catalog.Kind, url string) (*FetchResult, error)
}

// SourceHandler retrieves raw catalog bytes from one kind of location
type SourceHandler interface {
	// FetchData returns the raw payload stored at url
	FetchData(ctx context.Context, url string) ([]byte, error)
}

// SourceHandlerFactory creates source handlers based on the URL scheme
type SourceHandlerFactory interface {
	// CreateHandler creates a source handler for the given scheme
	CreateHandler(scheme string) (SourceHandler, error)
}

// FetchResult contains the result of a fetch operation
type FetchResult struct {
	// Kind is the catalog the entries belong to
	Kind catalog.Kind

	// Entries are the typed records in catalog arrival order
	Entries []catalog.Entry

	// Hash is the SHA256 hash of the raw payload for change detection
	Hash string

	// Count is the number of entries in the payload
	Count int
}

// NewFetchResult creates a new FetchResult from decoded entries and a pre-calculated hash
func NewFetchResult(kind catalog.Kind, entries []catalog.Entry, hash string) *FetchResult {
	return &FetchResult{
		Kind:    kind,
		Entries: entries,
		Hash:    hash,
		Count:   len(entries),
	}
}

// FetchError reports a transport failure or a non-success response
type FetchError struct {
	// URL is the feed URL without user info
	URL string
	// StatusCode is zero when no response was received
	StatusCode int
	Err        error
}

// NewFetchError wraps err, extracting the response status when there was one.
// The user info of url is dropped.
func NewFetchError(url string, err error) *FetchError {
	fetchErr := &FetchError{URL: catalog.RedactURL(url), Err: err}
	var httpErr *httpclient.HTTPError
	if errors.As(err, &httpErr) {
		fetchErr.StatusCode = httpErr.StatusCode
	}
	return fetchErr
}

// Error returns the error message
func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("failed to fetch catalog %s (status %d): %v", e.URL, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("failed to fetch catalog %s: %v", e.URL, e.Err)
}

// Unwrap returns the underlying cause
func (e *FetchError) Unwrap() error {
	return e.Err
}

// ParseError reports a payload that is not a well-formed catalog
type ParseError struct {
	// URL is the feed URL without user info
	URL string
	Err error
}

// Error returns the error message
func (e *ParseError) Error() string {
	return fmt.Sprintf("failed to parse catalog %s: %v", e.URL, e.Err)
}

// Unwrap returns the underlying cause
func (e *ParseError) Unwrap() error {
	return e.Err
}
