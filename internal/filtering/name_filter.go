package filtering

import (
	"fmt"
	"strings"
	"sync"

	"github.com/gobwas/glob"
)

// NameFilter handles name-based filtering using glob patterns
type NameFilter interface {
	// ShouldInclude reports whether an entry name passes the include and
	// exclude patterns, with a human-readable reason
	ShouldInclude(name string, include, exclude []string) (bool, string)
}

// defaultNameFilter matches names case-insensitively against glob patterns.
// Compiled patterns are cached across calls.
type defaultNameFilter struct {
	compiled sync.Map // pattern -> glob.Glob
}

var _ NameFilter = (*defaultNameFilter)(nil)

// NewDefaultNameFilter creates a NameFilter with an empty pattern cache
func NewDefaultNameFilter() NameFilter {
	return &defaultNameFilter{}
}

// CompilePattern validates a glob pattern the same way filtering will use it
func CompilePattern(pattern string) (glob.Glob, error) {
	compiled, err := glob.Compile(strings.ToLower(pattern))
	if err != nil {
		return nil, fmt.Errorf("invalid glob pattern %q: %w", pattern, err)
	}
	return compiled, nil
}

func (f *defaultNameFilter) matchPattern(pattern, name string) (bool, error) {
	if cached, ok := f.compiled.Load(pattern); ok {
		return cached.(glob.Glob).Match(strings.ToLower(name)), nil
	}
	compiled, err := CompilePattern(pattern)
	if err != nil {
		return false, err
	}
	f.compiled.Store(pattern, compiled)
	return compiled.Match(strings.ToLower(name)), nil
}

// firstMatch returns the first pattern matching name, or an error for the
// first pattern that does not compile
func (f *defaultNameFilter) firstMatch(name string, patterns []string) (string, error) {
	for _, pattern := range patterns {
		matches, err := f.matchPattern(pattern, name)
		if err != nil {
			return "", err
		}
		if matches {
			return pattern, nil
		}
	}
	return "", nil
}

// ShouldInclude applies exclude patterns first; a non-empty include list then
// admits only names matching one of its patterns
func (f *defaultNameFilter) ShouldInclude(name string, include, exclude []string) (bool, string) {
	pattern, err := f.firstMatch(name, exclude)
	switch {
	case err != nil:
		return false, fmt.Sprintf("invalid exclude pattern: %v", err)
	case pattern != "":
		return false, fmt.Sprintf("excluded by pattern '%s'", pattern)
	}

	if len(include) == 0 {
		return true, "not excluded"
	}
	pattern, err = f.firstMatch(name, include)
	switch {
	case err != nil:
		return false, fmt.Sprintf("invalid include pattern: %v", err)
	case pattern != "":
		return true, fmt.Sprintf("included by pattern '%s'", pattern)
	default:
		return false, fmt.Sprintf("no match found in include patterns %v", include)
	}
}
