// Package sorting orders a catalog snapshot by a selected mode when no search
// query is active.
package sorting

import (
	"errors"
	"fmt"
	"strings"

	"github.com/stacklok/toolhive-catalog-browser/internal/catalog"
)

// ErrUnknownMode is returned for a mode string that names no ordering
var ErrUnknownMode = errors.New("unknown sort mode")

// Mode is an ordering strategy
type Mode string

const (
	// DateNewest reverses catalog arrival order
	DateNewest Mode = "date-newest"
	// DateOldest keeps catalog arrival order
	DateOldest Mode = "date-oldest"
	// NameAZ orders by name ascending
	NameAZ Mode = "name-az"
	// NameZA orders by name descending
	NameZA Mode = "name-za"
	// WorkingFirst puts broken extensions last
	WorkingFirst Mode = "working-first"
	// BrokenFirst puts broken extensions first
	BrokenFirst Mode = "broken-first"
)

// DefaultMode is used when no mode was selected
const DefaultMode = DateNewest

var (
	themeModes     = []Mode{DateNewest, DateOldest, NameAZ, NameZA}
	extensionModes = []Mode{DateNewest, DateOldest, NameAZ, NameZA, WorkingFirst, BrokenFirst}
)

// ModesFor lists the modes offered for a catalog, in display order.
// Themes carry no status, so only date and name modes are offered.
func ModesFor(kind catalog.Kind) []Mode {
	if kind == catalog.KindTheme {
		return append([]Mode(nil), themeModes...)
	}
	return append([]Mode(nil), extensionModes...)
}

// ParseMode converts a user supplied string into a Mode. An empty string
// yields DefaultMode.
func ParseMode(s string) (Mode, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return DefaultMode, nil
	}
	for _, m := range extensionModes {
		if string(m) == s {
			return m, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownMode, s)
}

// Label returns a human readable name for the mode
func (m Mode) Label() string {
	switch m {
	case DateNewest:
		return "Newest first"
	case DateOldest:
		return "Oldest first"
	case NameAZ:
		return "Name (A-Z)"
	case NameZA:
		return "Name (Z-A)"
	case WorkingFirst:
		return "Working first"
	case BrokenFirst:
		return "Broken first"
	default:
		return string(m)
	}
}
