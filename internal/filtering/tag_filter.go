package filtering

import (
	"fmt"
	"strings"
)

// TagFilter handles label-based filtering using case-insensitive exact matching.
// It serves theme tags and extension statuses alike.
type TagFilter interface {
	// ShouldInclude determines if an entry with the given labels should be included
	// Returns (shouldInclude bool, reason string)
	ShouldInclude(labels []string, include, exclude []string) (bool, string)
}

// DefaultTagFilter implements tag filtering using exact matching
type DefaultTagFilter struct{}

// NewDefaultTagFilter creates a new DefaultTagFilter
func NewDefaultTagFilter() *DefaultTagFilter {
	return &DefaultTagFilter{}
}

func firstCommon(labels, wanted []string) (string, bool) {
	for _, label := range labels {
		for _, w := range wanted {
			if strings.EqualFold(label, w) {
				return w, true
			}
		}
	}
	return "", false
}

// ShouldInclude excludes entries carrying any excluded label; a non-empty
// include list then admits only entries carrying one of its labels
func (*DefaultTagFilter) ShouldInclude(labels []string, include, exclude []string) (bool, string) {
	if tag, ok := firstCommon(labels, exclude); ok {
		return false, fmt.Sprintf("excluded by tag '%s'", tag)
	}
	if len(include) == 0 {
		return true, "not excluded"
	}
	if tag, ok := firstCommon(labels, include); ok {
		return true, fmt.Sprintf("included by tag '%s'", tag)
	}
	return false, fmt.Sprintf("no matching tags found in include list %v (entry tags: %v)", include, labels)
}
