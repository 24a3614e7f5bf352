// Package parser turns metrics-first YAML into typed metric specs.
//
// Parsing happens in two steps. Parse decodes YAML bytes into a generic
// document (nested maps and slices) which the validator inspects and
// normalizes in place. Decode then maps the metrics list of that document
// onto core.MetricSpec values, folding the bare-name shapes of dimensions
// and entities into their full form.
package parser

import (
	"fmt"
	"os"
	"reflect"

	"github.com/go-viper/mapstructure/v2"
	"gopkg.in/yaml.v3"

	"github.com/Rdwburns/dbt-metrics-first/pkg/core"
)

// InputVersion is the only document version the compiler accepts.
const InputVersion = 1

// Top-level document keys.
const (
	KeyVersion = "version"
	KeyMetrics = "metrics"
)

// Parse decodes YAML bytes into a generic document. An empty input yields
// a nil document.
func Parse(data []byte) (any, error) {
	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("invalid YAML: %w", err)
	}
	return doc, nil
}

// ParseFile reads and parses one YAML file.
func ParseFile(path string) (any, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path comes from discovery over configured input roots
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	doc, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return doc, nil
}

// AsMap returns doc as a string-keyed mapping. YAML mappings with
// non-string keys are converted when every key is a string.
func AsMap(doc any) (map[string]any, bool) {
	switch m := doc.(type) {
	case map[string]any:
		return m, true
	case map[any]any:
		out := make(map[string]any, len(m))
		for k, v := range m {
			s, ok := k.(string)
			if !ok {
				return nil, false
			}
			out[s] = v
		}
		return out, true
	default:
		return nil, false
	}
}

// IsInputVersion reports whether v is numerically equal to InputVersion.
// Strings are rejected even when they spell the number.
func IsInputVersion(v any) bool {
	switch n := v.(type) {
	case int:
		return n == InputVersion
	case int64:
		return n == InputVersion
	case uint64:
		return n == InputVersion
	case float64:
		return n == InputVersion
	default:
		return false
	}
}

// IsCompilationUnit reports whether doc is a metrics-first document: a
// mapping with version 1 and a metrics sequence.
func IsCompilationUnit(doc any) bool {
	m, ok := AsMap(doc)
	if !ok || !IsInputVersion(m[KeyVersion]) {
		return false
	}
	_, ok = m[KeyMetrics].([]any)
	return ok
}

// MetricCount returns the length of the metrics sequence, or zero when doc
// has none.
func MetricCount(doc any) int {
	m, ok := AsMap(doc)
	if !ok {
		return 0
	}
	list, _ := m[KeyMetrics].([]any)
	return len(list)
}

// Decode maps the metrics list of doc onto typed specs with defaults
// applied. Source identifies the document in error messages.
func Decode(doc any, source string) ([]core.MetricSpec, error) {
	m, ok := AsMap(doc)
	if !ok {
		return nil, core.NewSchemaError(source, core.NoIndex, "document root must be a mapping")
	}
	list, ok := m[KeyMetrics].([]any)
	if !ok {
		return nil, core.NewSchemaError(source, core.NoIndex, "%q must be a sequence", KeyMetrics)
	}
	if len(list) == 0 {
		return nil, fmt.Errorf("%s: %w", source, core.ErrNoMetrics)
	}

	specs := make([]core.MetricSpec, 0, len(list))
	for i, entry := range list {
		spec, err := decodeMetric(entry)
		if err != nil {
			return nil, fmt.Errorf("%s: decode metrics[%d]: %w", source, i, err)
		}
		spec.ApplyDefaults()
		specs = append(specs, spec)
	}
	return specs, nil
}

func decodeMetric(entry any) (core.MetricSpec, error) {
	var spec core.MetricSpec
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.DecodeHookFuncType(scalarTextHook),
			mapstructure.DecodeHookFuncType(bareNameHook),
		),
		Result:     &spec,
		TagName:    "mapstructure",
	})
	if err != nil {
		return spec, err
	}
	if err := dec.Decode(entry); err != nil {
		return spec, err
	}
	return spec, nil
}

var (
	dimensionType = reflect.TypeOf(core.Dimension{})
	entityType    = reflect.TypeOf(core.Entity{})
)

// scalarTextHook renders a number or boolean as text when the target is a
// string field, so values such as `type: 7` or `formula: 5` reach the
// compiler instead of failing to decode.
func scalarTextHook(from, to reflect.Type, data any) (any, error) {
	if from == nil || to.Kind() != reflect.String {
		return data, nil
	}
	switch from.Kind() {
	case reflect.Bool,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return fmt.Sprint(data), nil
	default:
		return data, nil
	}
}

// bareNameHook expands a bare string into a dimension or entity.
func bareNameHook(from, to reflect.Type, data any) (any, error) {
	if from == nil || from.Kind() != reflect.String {
		return data, nil
	}
	name, _ := data.(string)
	switch to {
	case dimensionType:
		return core.DimensionFromName(name), nil
	case entityType:
		return core.EntityFromName(name), nil
	default:
		return data, nil
	}
}
