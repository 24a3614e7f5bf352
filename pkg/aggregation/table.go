// Package aggregation holds the supported aggregation keywords and the
// alias spellings that normalize to them.
package aggregation

import (
	"slices"
	"strings"
)

// Canonical aggregation keywords.
const (
	Sum           = "sum"
	Count         = "count"
	CountDistinct = "count_distinct"
	Average       = "average"
	Min           = "min"
	Max           = "max"
	Median        = "median"
	Percentile    = "percentile"
	SumBoolean    = "sum_boolean"
)

// PercentileParam is the agg_params key a percentile aggregation requires.
const PercentileParam = "percentile"

// Table maps aggregation spellings to canonical keywords. A Table is
// immutable after construction and safe for concurrent use.
type Table struct {
	supported []string
	canonical map[string]struct{}
	aliases   map[string]string
}

// New builds a table from the supported keywords and an alias map. Alias
// targets must be supported keywords; others are dropped.
func New(supported []string, aliases map[string]string) *Table {
	t := &Table{
		supported: slices.Clone(supported),
		canonical: make(map[string]struct{}, len(supported)),
		aliases:   make(map[string]string, len(aliases)),
	}
	for _, s := range supported {
		t.canonical[s] = struct{}{}
	}
	for alias, target := range aliases {
		if _, ok := t.canonical[target]; ok {
			t.aliases[alias] = target
		}
	}
	return t
}

// Default returns the table the compiler ships with.
func Default() *Table {
	return New(
		[]string{Sum, Count, CountDistinct, Average, Min, Max, Median, Percentile, SumBoolean},
		map[string]string{
			"avg":          Average,
			"cnt":          Count,
			"cnt_distinct": CountDistinct,
			"count_unique": CountDistinct,
		},
	)
}

// Normalize resolves spelling to its canonical keyword. Matching is exact
// after trimming surrounding whitespace.
func (t *Table) Normalize(spelling string) (string, bool) {
	s := strings.TrimSpace(spelling)
	if _, ok := t.canonical[s]; ok {
		return s, true
	}
	if target, ok := t.aliases[s]; ok {
		return target, true
	}
	return "", false
}

// MustNormalize resolves spelling, returning it unchanged when it is not
// recognized.
func (t *Table) MustNormalize(spelling string) string {
	if canonical, ok := t.Normalize(spelling); ok {
		return canonical
	}
	return spelling
}

// Supported returns the canonical keywords in declaration order.
func (t *Table) Supported() []string {
	return slices.Clone(t.supported)
}

// Aliases returns the alias spellings in sorted order.
func (t *Table) Aliases() []string {
	keys := make([]string, 0, len(t.aliases))
	for k := range t.aliases {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// RequiresParam reports the agg_params key a canonical aggregation needs,
// if any.
func RequiresParam(canonical string) (string, bool) {
	if canonical == Percentile {
		return PercentileParam, true
	}
	return "", false
}
