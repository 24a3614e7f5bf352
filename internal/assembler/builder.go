package assembler

import (
	"maps"
	"strings"

	"github.com/Rdwburns/dbt-metrics-first/pkg/aggregation"
	"github.com/Rdwburns/dbt-metrics-first/pkg/core"
)

// WhereParam is the agg_params key holding the conjunction of measure filters.
const WhereParam = "where"

// MeasureBuilder accumulates every contribution to one measure and
// finalizes it in Build.
type MeasureBuilder struct {
	name        string
	agg         string
	expr        string
	params      map[string]any
	filters     []string
	nonAdditive any
}

// NewMeasureBuilder starts a measure with the default aggregation.
func NewMeasureBuilder(name string) *MeasureBuilder {
	return &MeasureBuilder{name: name, agg: core.DefaultAggregation}
}

// Aggregation sets the canonical aggregation keyword.
func (b *MeasureBuilder) Aggregation(agg string) *MeasureBuilder {
	b.agg = agg
	return b
}

// Expr sets the aggregated expression.
func (b *MeasureBuilder) Expr(expr string) *MeasureBuilder {
	b.expr = expr
	return b
}

// Params records explicitly authored aggregation parameters.
func (b *MeasureBuilder) Params(params map[string]any) *MeasureBuilder {
	if len(params) == 0 {
		return b
	}
	if b.params == nil {
		b.params = make(map[string]any, len(params))
	}
	maps.Copy(b.params, params)
	return b
}

// Filters appends filter clauses.
func (b *MeasureBuilder) Filters(clauses ...string) *MeasureBuilder {
	b.filters = append(b.filters, clauses...)
	return b
}

// NonAdditiveDimension sets the non-additive dimension passthrough.
func (b *MeasureBuilder) NonAdditiveDimension(v any) *MeasureBuilder {
	b.nonAdditive = v
	return b
}

// Build finalizes the measure. Explicit params survive only for
// aggregations that take parameters; filters become agg_params.where.
// The returned measure shares no state with the builder.
func (b *MeasureBuilder) Build() core.Measure {
	m := core.Measure{
		Name:                 b.name,
		Agg:                  b.agg,
		Expr:                 b.expr,
		NonAdditiveDimension: b.nonAdditive,
	}

	var params map[string]any
	if _, takesParams := aggregation.RequiresParam(b.agg); takesParams && len(b.params) > 0 {
		params = maps.Clone(b.params)
	}
	if len(b.filters) > 0 {
		if params == nil {
			params = make(map[string]any, 1)
		}
		params[WhereParam] = strings.Join(b.filters, " AND ")
	}
	m.AggParams = params
	return m
}
