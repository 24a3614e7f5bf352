// Package assembler groups metric specs by source and builds one semantic
// model per source with deduplicated dimensions, entities and measures.
package assembler

import (
	"log/slog"
	"maps"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/Rdwburns/dbt-metrics-first/pkg/aggregation"
	"github.com/Rdwburns/dbt-metrics-first/pkg/core"
)

// ModelSuffix terminates every semantic model name.
const ModelSuffix = "_semantic_model"

// Assembler builds semantic models from metric specs.
type Assembler struct {
	table  *aggregation.Table
	logger *slog.Logger
}

// New creates an assembler. A nil table uses aggregation.Default() and a
// nil logger discards output.
func New(table *aggregation.Table, logger *slog.Logger) *Assembler {
	if table == nil {
		table = aggregation.Default()
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Assembler{table: table, logger: logger}
}

// Partition is the metrics of one source in input order.
type Partition struct {
	Source  string
	Metrics []core.MetricSpec
}

// Partition groups metrics by source, preserving first-seen source order.
func (a *Assembler) Partition(metrics []core.MetricSpec) []Partition {
	var parts []Partition
	index := make(map[string]int)
	for _, m := range metrics {
		source := m.Source
		if source == "" {
			source = core.DefaultSource
		}
		i, ok := index[source]
		if !ok {
			i = len(parts)
			index[source] = i
			parts = append(parts, Partition{Source: source})
		}
		parts[i].Metrics = append(parts[i].Metrics, m)
	}
	return parts
}

// ModelName derives the semantic model name for source compiled from file.
// An empty file yields the plain <source>_semantic_model form.
func ModelName(source, file string) string {
	stem := FileStem(file)
	if stem == "" {
		return source + ModelSuffix
	}
	return source + "_" + stem + ModelSuffix
}

// FileStem returns the base name of path without its extension.
func FileStem(path string) string {
	if path == "" {
		return ""
	}
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// Assemble builds one semantic model per source partition of metrics.
// File is the originating input path and may be empty.
func (a *Assembler) Assemble(metrics []core.MetricSpec, file string) []core.SemanticModel {
	parts := a.Partition(metrics)
	models := make([]core.SemanticModel, 0, len(parts))
	for _, p := range parts {
		models = append(models, a.build(p, file))
	}
	return models
}

func (a *Assembler) build(p Partition, file string) core.SemanticModel {
	model := core.SemanticModel{
		Name:      ModelName(p.Source, file),
		SourceRef: core.SourceRef(p.Source),
	}
	log := a.logger.With("model", model.Name, "source", p.Source)

	dims := newDedup[core.Dimension](log, "dimension")
	ents := newDedup[core.Entity](log, "entity")
	measures := newDedup[core.Measure](log, "measure")

	for i := range p.Metrics {
		m := &p.Metrics[i]
		for _, d := range m.Dimensions {
			dims.add(d.Name, d)
		}
		for _, e := range m.Entities {
			ents.add(e.Name, e)
		}
		for _, ms := range a.measuresFor(m) {
			measures.add(ms.Name, ms)
		}
	}

	model.Dimensions = categoricalFirst(dims.items)
	model.Entities = ents.items
	model.Measures = measures.items
	if model.Dimensions == nil {
		model.Dimensions = []core.Dimension{}
	}
	if model.Entities == nil {
		model.Entities = []core.Entity{}
	}
	if model.Measures == nil {
		model.Measures = []core.Measure{}
	}
	return model
}

// measuresFor synthesizes the measures a metric contributes, in the order
// its definition references them.
func (a *Assembler) measuresFor(m *core.MetricSpec) []core.Measure {
	var out []core.Measure
	add := func(basis string, spec *core.MeasureSpec) {
		if spec != nil {
			out = append(out, a.measure(basis, spec))
		}
	}
	sub := func(s *core.SubMeasure) *core.MeasureSpec {
		if s == nil {
			return nil
		}
		return s.Measure
	}

	switch m.EffectiveType() {
	case core.MetricTypeRatio:
		add(m.NumeratorBasis(), sub(m.Numerator))
		add(m.DenominatorBasis(), sub(m.Denominator))
	case core.MetricTypeCumulative:
		if m.Measure != nil {
			add(m.CumulativeBasis(), m.Measure.Measure)
		}
	case core.MetricTypeConversion:
		add(m.BaseBasis(), sub(m.BaseMeasure))
		add(m.ConversionBasis(), sub(m.ConversionMeasure))
	case core.MetricTypeDerived:
		// Derived metrics combine other metrics and own no measure.
	default:
		add(m.Name, m.Measure)
	}
	return out
}

func (a *Assembler) measure(basis string, spec *core.MeasureSpec) core.Measure {
	agg := spec.Type
	if agg == "" {
		agg = core.DefaultAggregation
	}
	expr := spec.Column
	if expr == "" {
		expr = basis
	}
	params := spec.AggParams
	if len(spec.AggregationParams) > 0 {
		params = mergeParams(spec.AggregationParams, spec.AggParams)
	}
	return NewMeasureBuilder(core.MeasureName(basis)).
		Aggregation(a.table.MustNormalize(agg)).
		Expr(expr).
		Params(params).
		Filters(spec.Filters...).
		NonAdditiveDimension(spec.NonAdditiveDimension).
		Build()
}

// mergeParams overlays over onto base without mutating either.
func mergeParams(base, over map[string]any) map[string]any {
	out := maps.Clone(base)
	maps.Copy(out, over)
	return out
}

// categoricalFirst moves time dimensions after categorical ones, keeping
// the relative order within each group.
func categoricalFirst(dims []core.Dimension) []core.Dimension {
	out := make([]core.Dimension, 0, len(dims))
	for _, d := range dims {
		if !d.IsTime() {
			out = append(out, d)
		}
	}
	for _, d := range dims {
		if d.IsTime() {
			out = append(out, d)
		}
	}
	return out
}

// dedup keeps the first item per name in insertion order.
type dedup[T any] struct {
	log   *slog.Logger
	kind  string
	seen  map[string]int
	items []T
}

func newDedup[T any](log *slog.Logger, kind string) *dedup[T] {
	return &dedup[T]{log: log, kind: kind, seen: make(map[string]int)}
}

func (d *dedup[T]) add(name string, item T) {
	i, ok := d.seen[name]
	if !ok {
		d.seen[name] = len(d.items)
		d.items = append(d.items, item)
		return
	}
	if !reflect.DeepEqual(d.items[i], item) {
		d.log.Debug("conflicting duplicate dropped, keeping first definition", d.kind, name)
	}
}
