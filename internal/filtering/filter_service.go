package filtering

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/stacklok/toolhive-catalog-browser/internal/catalog"
	"github.com/stacklok/toolhive-catalog-browser/internal/config"
)

// FilterService coordinates name, tag and status filtering of a fetched snapshot
type FilterService interface {
	// ApplyFilters returns the entries that pass filter, preserving order.
	// The input slice is never modified.
	ApplyFilters(ctx context.Context, entries []catalog.Entry, filter *config.FilterConfig) ([]catalog.Entry, error)
}

// defaultFilterService implements filtering coordination using name and tag filters
type defaultFilterService struct {
	nameFilter NameFilter
	tagFilter  TagFilter
}

// NewDefaultFilterService creates a new defaultFilterService with default filter implementations
func NewDefaultFilterService() FilterService {
	return &defaultFilterService{
		nameFilter: NewDefaultNameFilter(),
		tagFilter:  NewDefaultTagFilter(),
	}
}

// NewFilterService creates a new defaultFilterService with custom filter implementations
func NewFilterService(nameFilter NameFilter, tagFilter TagFilter) FilterService {
	return &defaultFilterService{
		nameFilter: nameFilter,
		tagFilter:  tagFilter,
	}
}

// ApplyFilters filters the snapshot based on filter configuration.
// An entry must pass the name, tag and status filters to be kept.
func (s *defaultFilterService) ApplyFilters(
	ctx context.Context,
	entries []catalog.Entry,
	filter *config.FilterConfig,
) ([]catalog.Entry, error) {
	if filter == nil {
		return entries, nil
	}

	if err := ValidateFilter(filter); err != nil {
		return nil, err
	}

	var nameInclude, nameExclude []string
	if filter.Names != nil {
		nameInclude = filter.Names.Include
		nameExclude = filter.Names.Exclude
	}

	filtered := make([]catalog.Entry, 0, len(entries))
	for _, entry := range entries {
		included, reason := s.shouldIncludeEntryWithReason(entry, nameInclude, nameExclude, filter)
		if included {
			filtered = append(filtered, entry)
		}
		slog.DebugContext(ctx, "Filter decision",
			"kind", entry.Kind(),
			"name", entry.Info().Name,
			"included", included,
			"reason", reason)
	}

	slog.DebugContext(ctx, "Catalog filtering completed",
		"original", len(entries),
		"included", len(filtered),
		"excluded", len(entries)-len(filtered))

	return filtered, nil
}

func (s *defaultFilterService) shouldIncludeEntryWithReason(
	entry catalog.Entry,
	nameInclude, nameExclude []string,
	filter *config.FilterConfig,
) (bool, string) {
	reasons := []string{}

	included, reason := s.nameFilter.ShouldInclude(entry.Info().Name, nameInclude, nameExclude)
	if !included {
		return false, fmt.Sprintf("name filter: %s", reason)
	}
	if len(nameInclude) > 0 || len(nameExclude) > 0 {
		reasons = append(reasons, fmt.Sprintf("name filter: %s", reason))
	}

	if theme, ok := entry.(*catalog.Theme); ok && filter.Tags != nil {
		included, reason = s.tagFilter.ShouldInclude(theme.Tags, filter.Tags.Include, filter.Tags.Exclude)
		if !included {
			return false, fmt.Sprintf("tag filter: %s", reason)
		}
		reasons = append(reasons, fmt.Sprintf("tag filter: %s", reason))
	}

	if reporter, ok := entry.(catalog.StatusReporter); ok && filter.Statuses != nil {
		status := []string{string(reporter.EntryStatus())}
		included, reason = s.tagFilter.ShouldInclude(status, filter.Statuses.Include, filter.Statuses.Exclude)
		if !included {
			return false, fmt.Sprintf("status filter: %s", reason)
		}
		reasons = append(reasons, fmt.Sprintf("status filter: %s", reason))
	}

	if len(reasons) == 0 {
		return true, "no filters specified, default include"
	}
	return true, "passed all filters: " + strings.Join(reasons, " AND ")
}

// ValidateFilter checks that every name pattern compiles
func ValidateFilter(filter *config.FilterConfig) error {
	if filter == nil || filter.Names == nil {
		return nil
	}
	for _, pattern := range append(append([]string{}, filter.Names.Include...), filter.Names.Exclude...) {
		if _, err := CompilePattern(pattern); err != nil {
			return err
		}
	}
	return nil
}
