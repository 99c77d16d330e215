package sorting

import (
	"fmt"
	"slices"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/stacklok/toolhive-catalog-browser/internal/catalog"
)

// Sorter orders entries with locale-aware name comparison
type Sorter struct {
	tag language.Tag
}

// Option configures a Sorter
type Option func(*Sorter)

// WithLocale sets the collation locale
func WithLocale(tag language.Tag) Option {
	return func(s *Sorter) {
		s.tag = tag
	}
}

// NewSorter creates a Sorter, English collation by default
func NewSorter(opts ...Option) *Sorter {
	s := &Sorter{tag: language.English}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SortBy orders entries with English collation
func SortBy(mode Mode, entries []catalog.Entry) ([]catalog.Entry, error) {
	return NewSorter().SortBy(mode, entries)
}

// SortBy returns a new slice with entries ordered by mode. Every mode is a
// total order: name ties fall back to the install URL.
// Status modes on entries without a status act as NameAZ.
func (s *Sorter) SortBy(mode Mode, entries []catalog.Entry) ([]catalog.Entry, error) {
	sorted := slices.Clone(entries)

	switch mode {
	case DateOldest:
		return sorted, nil
	case DateNewest:
		slices.Reverse(sorted)
		return sorted, nil
	case NameAZ, NameZA, WorkingFirst, BrokenFirst:
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownMode, mode)
	}

	// Collators keep internal buffers and are not safe for concurrent use
	collator := collate.New(s.tag)
	byName := func(a, b catalog.Entry) int {
		return collator.CompareString(a.Info().Name, b.Info().Name)
	}
	byID := func(a, b catalog.Entry) int {
		return strings.Compare(a.ID(), b.ID())
	}

	slices.SortStableFunc(sorted, func(a, b catalog.Entry) int {
		if c := statusRank(mode, a) - statusRank(mode, b); c != 0 {
			return c
		}
		c := byName(a, b)
		if mode == NameZA {
			c = -c
		}
		if c != 0 {
			return c
		}
		return byID(a, b)
	})
	return sorted, nil
}

// statusRank partitions entries for the status modes, lower first
func statusRank(mode Mode, entry catalog.Entry) int {
	reporter, ok := entry.(catalog.StatusReporter)
	if !ok {
		return 0
	}
	broken := reporter.EntryStatus() == catalog.StatusBroken
	switch {
	case mode == WorkingFirst && broken:
		return 1
	case mode == BrokenFirst && !broken:
		return 1
	default:
		return 0
	}
}
