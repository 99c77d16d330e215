package ranking

import (
	"cmp"
	"errors"
	"slices"
	"strings"

	"github.com/sahilm/fuzzy"

	"github.com/stacklok/toolhive-catalog-browser/internal/catalog"
)

// ErrEmptyQuery is returned when Rank is called without a query. Callers
// should sort instead.
var ErrEmptyQuery = errors.New("ranking requires a non-empty query")

// Boost adds Bonus to an entry's score when any field of Group scores above Above
type Boost struct {
	Group catalog.FieldGroup
	Above float64
	Bonus float64
}

// DefaultBoosts is the field-importance policy, strongest group first
var DefaultBoosts = []Boost{
	{Group: catalog.GroupName, Above: 0.4, Bonus: 100},
	{Group: catalog.GroupDescription, Above: 0.6, Bonus: 50},
	{Group: catalog.GroupAuthor, Above: 0.6, Bonus: 20},
	{Group: catalog.GroupAux, Above: 0.7, Bonus: 10},
}

// Result is an entry together with its relevance score for one query.
// Scores are only comparable within the same Rank call.
type Result struct {
	Entry catalog.Entry
	Score float64
}

// Engine ranks entries against a query
type Engine struct {
	threshold float64
	boosts    []Boost
}

// Option configures an Engine
type Option func(*Engine)

// WithThreshold drops matches whose best field score is below threshold.
// Zero disables it.
func WithThreshold(threshold float64) Option {
	return func(e *Engine) {
		e.threshold = threshold
	}
}

// WithBoosts replaces the default boost policy
func WithBoosts(boosts []Boost) Option {
	return func(e *Engine) {
		e.boosts = append([]Boost(nil), boosts...)
	}
}

// NewEngine creates a ranking engine with the default boost policy
func NewEngine(opts ...Option) *Engine {
	e := &Engine{boosts: DefaultBoosts}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Rank returns the matching entries ordered best first
func (e *Engine) Rank(query string, entries []catalog.Entry) ([]catalog.Entry, error) {
	results, err := e.RankResults(query, entries)
	if err != nil {
		return nil, err
	}
	ranked := make([]catalog.Entry, len(results))
	for i, r := range results {
		ranked[i] = r.Entry
	}
	return ranked, nil
}

// RankResults returns the matching entries with their scores, ordered best first
func (e *Engine) RankResults(query string, entries []catalog.Entry) ([]Result, error) {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return nil, ErrEmptyQuery
	}

	scorer := newFieldScorer(query)
	fields := make([][]catalog.Field, len(entries))
	width := 0
	for i, entry := range entries {
		fields[i] = entry.SearchFields()
		width = max(width, len(fields[i]))
	}

	// scores[i][j] is the quality of field j of entry i, zero when unmatched
	scores := make([][]float64, len(entries))
	for i := range scores {
		scores[i] = make([]float64, len(fields[i]))
	}
	for j := 0; j < width; j++ {
		for _, m := range fuzzy.FindFrom(query, fieldColumn{fields: fields, index: j}) {
			scores[m.Index][j] = scorer.quality(m, fields[m.Index][j].Value)
		}
	}

	results := make([]Result, 0, len(entries))
	for i, entry := range entries {
		best := slices.Max(append([]float64{0}, scores[i]...))
		if best == 0 || best < e.threshold {
			continue
		}
		results = append(results, Result{
			Entry: entry,
			Score: best + e.bonus(fields[i], scores[i]),
		})
	}

	slices.SortStableFunc(results, func(a, b Result) int {
		return cmp.Compare(b.Score, a.Score)
	})
	return results, nil
}

// bonus sums each boost whose group has at least one field above its threshold
func (e *Engine) bonus(fields []catalog.Field, scores []float64) float64 {
	var total float64
	for _, boost := range e.boosts {
		for j, f := range fields {
			if f.Group == boost.Group && scores[j] > boost.Above {
				total += boost.Bonus
				break
			}
		}
	}
	return total
}

// fieldColumn exposes field index of every entry as a fuzzy.Source.
// Entries with fewer fields contribute an empty string, which never matches.
type fieldColumn struct {
	fields [][]catalog.Field
	index  int
}

func (c fieldColumn) String(i int) string {
	if c.index >= len(c.fields[i]) {
		return ""
	}
	return strings.ToLower(c.fields[i][c.index].Value)
}

func (c fieldColumn) Len() int {
	return len(c.fields)
}
