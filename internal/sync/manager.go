package sync

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/stacklok/toolhive-catalog-browser/internal/catalog"
	"github.com/stacklok/toolhive-catalog-browser/internal/config"
	"github.com/stacklok/toolhive-catalog-browser/internal/filtering"
	"github.com/stacklok/toolhive-catalog-browser/internal/sources"
)

// Result contains the result of a successful refresh
type Result struct {
	Kind    catalog.Kind
	Entries []catalog.Entry
	Hash    string
	// Count is the number of entries after filtering
	Count int
	// NewCount is filled in by the consumer that observed the snapshot
	NewCount int
}

// Failure reasons carried by Error
const (
	ReasonFetchFailed  = "FetchFailed"
	ReasonParseFailed  = "ParseFailed"
	ReasonFilterFailed = "FilterFailed"
)

// Error represents a structured refresh failure
type Error struct {
	Err     error
	Message string
	Reason  string
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Manager performs one fetch-and-filter pass for a catalog
//
//go:generate mockgen -destination=mocks/mock_manager.go -package=mocks github.com/stacklok/toolhive-catalog-browser/internal/sync Manager
type Manager interface {
	// PerformSync fetches the catalog and applies its configured filters.
	// Nothing is applied anywhere on failure.
	PerformSync(ctx context.Context, kind catalog.Kind, catalogCfg *config.CatalogConfig) (*Result, *Error)
}

// defaultSyncManager is the default implementation of Manager
type defaultSyncManager struct {
	fetcher       sources.Fetcher
	filterService filtering.FilterService
}

// NewDefaultSyncManager creates a new defaultSyncManager
func NewDefaultSyncManager(fetcher sources.Fetcher) Manager {
	return &defaultSyncManager{
		fetcher:       fetcher,
		filterService: filtering.NewDefaultFilterService(),
	}
}

// PerformSync implements Manager
func (s *defaultSyncManager) PerformSync(
	ctx context.Context, kind catalog.Kind, catalogCfg *config.CatalogConfig,
) (*Result, *Error) {
	fetchResult, err := s.fetcher.Fetch(ctx, kind, catalogCfg.URL)
	if err != nil {
		reason := ReasonFetchFailed
		var parseErr *sources.ParseError
		if errors.As(err, &parseErr) {
			reason = ReasonParseFailed
		}
		slog.ErrorContext(ctx, "Catalog fetch failed", "kind", kind, "reason", reason, "error", err)
		return nil, &Error{
			Err:     err,
			Message: fmt.Sprintf("Fetch failed: %v", err),
			Reason:  reason,
		}
	}

	slog.InfoContext(ctx, "Catalog data fetched successfully",
		"kind", kind,
		"entryCount", fetchResult.Count,
		"hash", fetchResult.Hash)

	entries := fetchResult.Entries
	if catalogCfg.Filter != nil {
		filtered, err := s.filterService.ApplyFilters(ctx, entries, catalogCfg.Filter)
		if err != nil {
			slog.ErrorContext(ctx, "Catalog filtering failed", "kind", kind, "error", err)
			return nil, &Error{
				Err:     err,
				Message: fmt.Sprintf("Filtering failed: %v", err),
				Reason:  ReasonFilterFailed,
			}
		}
		slog.InfoContext(ctx, "Catalog filtering completed",
			"kind", kind,
			"originalCount", len(entries),
			"filteredCount", len(filtered))
		entries = filtered
	}

	return &Result{
		Kind:    kind,
		Entries: entries,
		Hash:    fetchResult.Hash,
		Count:   len(entries),
	}, nil
}
