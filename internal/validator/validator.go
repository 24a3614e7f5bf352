// Package validator checks parsed metrics-first documents before they are
// compiled and normalizes aggregation aliases in place.
package validator

import (
	"fmt"
	"strings"

	"github.com/Rdwburns/dbt-metrics-first/internal/parser"
	"github.com/Rdwburns/dbt-metrics-first/pkg/aggregation"
	"github.com/Rdwburns/dbt-metrics-first/pkg/core"
)

// Validator checks documents against the version 1 dialect.
type Validator struct {
	table *aggregation.Table
}

// New creates a validator backed by table. A nil table uses
// aggregation.Default().
func New(table *aggregation.Table) *Validator {
	if table == nil {
		table = aggregation.Default()
	}
	return &Validator{table: table}
}

// measurePaths lists every block whose "type" key spells an aggregation.
var measurePaths = [][]string{
	{"measure"},
	{"measure", "measure"},
	{"numerator", "measure"},
	{"denominator", "measure"},
	{"base_measure", "measure"},
	{"conversion_measure", "measure"},
}

// Validate checks doc and rewrites alias spellings to canonical
// aggregations. Source identifies the document in errors.
func (v *Validator) Validate(doc any, source string) error {
	root, ok := parser.AsMap(doc)
	if !ok {
		return core.NewSchemaError(source, core.NoIndex, "document root must be a mapping")
	}

	version, ok := root[parser.KeyVersion]
	if !ok {
		return core.NewSchemaError(source, core.NoIndex, "missing required key %q", parser.KeyVersion)
	}
	if !parser.IsInputVersion(version) {
		return core.NewSchemaError(source, core.NoIndex, "unsupported version %v (expected %d)", version, parser.InputVersion)
	}

	raw, ok := root[parser.KeyMetrics]
	if !ok {
		return core.NewSchemaError(source, core.NoIndex, "missing required key %q", parser.KeyMetrics)
	}
	list, ok := raw.([]any)
	if !ok {
		return core.NewSchemaError(source, core.NoIndex, "%q must be a sequence", parser.KeyMetrics)
	}

	seen := make(map[string]int, len(list))
	for i, entry := range list {
		metric, ok := entry.(map[string]any)
		if !ok {
			converted, ok := parser.AsMap(entry)
			if !ok {
				return core.NewSchemaError(source, i, "metric entry must be a mapping")
			}
			metric = converted
			list[i] = converted
		}

		name, err := v.checkIdentity(metric, source, i)
		if err != nil {
			return err
		}
		if first, dup := seen[name]; dup {
			return core.NewSchemaError(source, i, "duplicate metric name %q (first defined at metrics[%d])", name, first)
		}
		seen[name] = i

		if err := v.checkMeasures(metric, name, source, i); err != nil {
			return err
		}
	}
	return nil
}

func (v *Validator) checkIdentity(metric map[string]any, source string, i int) (string, error) {
	for _, key := range []string{"name", "description"} {
		if _, ok := metric[key]; !ok {
			return "", core.NewSchemaError(source, i, "metric missing required field %q", key)
		}
	}
	name, ok := metric["name"].(string)
	if !ok {
		return "", core.NewSchemaError(source, i, "metric name must be a string, got %T", metric["name"])
	}
	return name, nil
}

func (v *Validator) checkMeasures(metric map[string]any, name, source string, i int) error {
	for _, path := range measurePaths {
		block, err := lookupBlock(metric, path)
		if err != nil {
			return core.NewSchemaError(source, i, "metric %q: %v", name, err)
		}
		if block == nil {
			continue
		}
		if err := v.checkAggregation(block, name, source); err != nil {
			return err
		}
	}
	return nil
}

func (v *Validator) checkAggregation(block map[string]any, metric, source string) error {
	spelling := core.DefaultAggregation
	if raw, ok := block["type"]; ok {
		s, isString := raw.(string)
		if !isString {
			return &core.UnsupportedAggregationError{
				Source:      source,
				Metric:      metric,
				Aggregation: fmt.Sprint(raw),
				Supported:   v.table.Supported(),
			}
		}
		spelling = s
	}

	canonical, ok := v.table.Normalize(spelling)
	if !ok {
		return &core.UnsupportedAggregationError{
			Source:      source,
			Metric:      metric,
			Aggregation: spelling,
			Supported:   v.table.Supported(),
		}
	}
	if _, ok := block["type"]; ok {
		block["type"] = canonical
	}

	if param, required := aggregation.RequiresParam(canonical); required && !hasParam(block, param) {
		return &core.MissingParameterError{Source: source, Metric: metric, Parameter: param}
	}
	return nil
}

// lookupBlock walks path through nested mappings. A missing key yields
// nil; a key bound to a non-mapping is an error.
func lookupBlock(metric map[string]any, path []string) (map[string]any, error) {
	current := metric
	for depth, key := range path {
		raw, ok := current[key]
		if !ok || raw == nil {
			return nil, nil
		}
		next, ok := raw.(map[string]any)
		if !ok {
			converted, ok := parser.AsMap(raw)
			if !ok {
				return nil, fmt.Errorf("%q must be a mapping", strings.Join(path[:depth+1], "."))
			}
			current[key] = converted
			next = converted
		}
		current = next
	}
	return current, nil
}

func hasParam(block map[string]any, param string) bool {
	for _, key := range []string{"agg_params", "aggregation_params"} {
		params, ok := parser.AsMap(block[key])
		if !ok {
			continue
		}
		if _, ok := params[param]; ok {
			return true
		}
	}
	return false
}
