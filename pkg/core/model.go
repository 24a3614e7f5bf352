package core

import (
	"encoding/json"
	"fmt"
)

// OutputVersion is the schema version of every emitted compilation unit.
const OutputVersion = 2

// MeasureSuffix is appended to a basis name to form a measure name.
const MeasureSuffix = "_measure"

// MeasureName returns the measure name minted for basis.
func MeasureName(basis string) string {
	return basis + MeasureSuffix
}

// SourceRef returns the dbt ref expression for a source table.
func SourceRef(source string) string {
	return fmt.Sprintf("ref('%s')", source)
}

// CompilationUnit is the document written for one input file.
type CompilationUnit struct {
	Version        int                `yaml:"version" json:"version"`
	SemanticModels []SemanticModel    `yaml:"semantic_models" json:"semantic_models"`
	Metrics        []MetricDefinition `yaml:"metrics" json:"metrics"`
}

// SemanticModel groups the dimensions, entities and measures of one source.
type SemanticModel struct {
	Name       string      `yaml:"name" json:"name"`
	SourceRef  string      `yaml:"model" json:"model"`
	Dimensions []Dimension `yaml:"dimensions" json:"dimensions"`
	Entities   []Entity    `yaml:"entities" json:"entities"`
	Measures   []Measure   `yaml:"measures" json:"measures"`
}

// HasMeasure reports whether the model defines a measure with the given name.
func (m *SemanticModel) HasMeasure(name string) bool {
	if m == nil {
		return false
	}
	for _, ms := range m.Measures {
		if ms.Name == name {
			return true
		}
	}
	return false
}

// Measure is a synthesized aggregation over a source expression.
type Measure struct {
	Name                 string         `yaml:"name" json:"name"`
	Agg                  string         `yaml:"agg" json:"agg"`
	Expr                 string         `yaml:"expr" json:"expr"`
	AggParams            map[string]any `yaml:"agg_params,omitempty" json:"agg_params,omitempty"`
	NonAdditiveDimension any            `yaml:"non_additive_dimension,omitempty" json:"non_additive_dimension,omitempty"`
}

// TimeTypeParams carries the granularity of a time dimension.
type TimeTypeParams struct {
	TimeGranularity string `yaml:"time_granularity" json:"time_granularity"`
}

type dimensionOut struct {
	Name       string          `yaml:"name" json:"name"`
	Type       DimensionKind   `yaml:"type" json:"type"`
	TypeParams *TimeTypeParams `yaml:"type_params,omitempty" json:"type_params,omitempty"`
	Expr       any             `yaml:"expr,omitempty" json:"expr,omitempty"`
	Label      any             `yaml:"label,omitempty" json:"label,omitempty"`
}

func (d Dimension) out() dimensionOut {
	o := dimensionOut{Name: d.Name, Type: d.Kind, Expr: d.Expr, Label: d.Label}
	if d.IsTime() {
		grain := d.Grain
		if grain == "" {
			grain = DefaultGrain
		}
		o.TypeParams = &TimeTypeParams{TimeGranularity: grain}
	}
	return o
}

// MarshalYAML renders the dimension in its dbt shape, with the grain nested
// under type_params.
func (d Dimension) MarshalYAML() (any, error) {
	return d.out(), nil
}

// MarshalJSON renders the dimension in the same shape as MarshalYAML.
func (d Dimension) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.out())
}

// MetricDefinition is one compiled metric.
type MetricDefinition struct {
	Name          string     `yaml:"name" json:"name"`
	Description   string     `yaml:"description" json:"description"`
	Type          MetricType `yaml:"type" json:"type"`
	Label         any        `yaml:"label,omitempty" json:"label,omitempty"`
	Filter        *string    `yaml:"filter,omitempty" json:"filter,omitempty"`
	Config        any        `yaml:"config,omitempty" json:"config,omitempty"`
	Meta          any        `yaml:"meta,omitempty" json:"meta,omitempty"`
	OffsetWindow  any        `yaml:"offset_window,omitempty" json:"offset_window,omitempty"`
	FillNullsWith any        `yaml:"fill_nulls_with,omitempty" json:"fill_nulls_with,omitempty"`
	TypeParams    TypeParams `yaml:"type_params" json:"type_params"`
}

// TypeParams holds the type-specific parameters of a metric. Only the
// fields relevant to the metric type are set.
type TypeParams struct {
	Measure              string                `yaml:"measure,omitempty" json:"measure,omitempty"`
	Numerator            string                `yaml:"numerator,omitempty" json:"numerator,omitempty"`
	Denominator          string                `yaml:"denominator,omitempty" json:"denominator,omitempty"`
	Expr                 *string               `yaml:"expr,omitempty" json:"expr,omitempty"`
	Window               any                   `yaml:"window,omitempty" json:"window,omitempty"`
	GrainToDate          any                   `yaml:"grain_to_date,omitempty" json:"grain_to_date,omitempty"`
	ConversionTypeParams *ConversionTypeParams `yaml:"conversion_type_params,omitempty" json:"conversion_type_params,omitempty"`
}

// MeasureRefs returns the measure names the parameters refer to.
func (p TypeParams) MeasureRefs() []string {
	var refs []string
	for _, name := range []string{p.Measure, p.Numerator, p.Denominator} {
		if name != "" {
			refs = append(refs, name)
		}
	}
	if c := p.ConversionTypeParams; c != nil {
		refs = append(refs, c.BaseMeasure.Name, c.ConversionMeasure.Name)
	}
	return refs
}

// ConversionTypeParams describes a funnel between two measures.
type ConversionTypeParams struct {
	Entity             any        `yaml:"entity" json:"entity"`
	BaseMeasure        MeasureRef `yaml:"base_measure" json:"base_measure"`
	ConversionMeasure  MeasureRef `yaml:"conversion_measure" json:"conversion_measure"`
	Window             any        `yaml:"window,omitempty" json:"window,omitempty"`
	Calculation        any        `yaml:"calculation,omitempty" json:"calculation,omitempty"`
	ConstantProperties any        `yaml:"constant_properties,omitempty" json:"constant_properties,omitempty"`
}

// MeasureRef references a measure by name.
type MeasureRef struct {
	Name string `yaml:"name" json:"name"`
}
