package ranking

import (
	"unicode/utf8"

	"github.com/sahilm/fuzzy"
)

const (
	// leadingPenaltyCap offsets the largest penalty fuzzy applies for
	// unmatched leading characters, keeping every match positive
	leadingPenaltyCap = 15

	// minQuality is the floor for a field that matched at all
	minQuality = 0.01
)

// fieldScorer turns raw fuzzy match scores into a quality in (0, 1]
type fieldScorer struct {
	queryRunes int
	best       float64
}

func newFieldScorer(query string) fieldScorer {
	s := fieldScorer{queryRunes: utf8.RuneCountInString(query)}
	if self := fuzzy.Find(query, []string{query}); len(self) > 0 {
		s.best = float64(self[0].Score)
	}
	return s
}

// quality normalizes m against the query matching itself. The per-character
// penalty fuzzy applies for unmatched target characters is removed; how much
// of the field the query covers is weighed in instead.
func (s fieldScorer) quality(m fuzzy.Match, target string) float64 {
	adjusted := float64(m.Score + len(m.Str) - len(m.MatchedIndexes))

	denominator := s.best + leadingPenaltyCap
	if denominator <= 0 {
		denominator = 1
	}
	closeness := min(max((adjusted+leadingPenaltyCap)/denominator, minQuality), 1)

	targetRunes := utf8.RuneCountInString(target)
	coverage := 1.0
	if targetRunes > 0 {
		coverage = min(float64(s.queryRunes)/float64(targetRunes), 1)
	}

	return max(closeness*(0.5+0.5*coverage), minQuality)
}
