package core

import "strings"

// MetricType is the declared kind of a metric.
type MetricType string

// Metric type constants.
const (
	MetricTypeSimple     MetricType = "simple"
	MetricTypeRatio      MetricType = "ratio"
	MetricTypeDerived    MetricType = "derived"
	MetricTypeCumulative MetricType = "cumulative"
	MetricTypeConversion MetricType = "conversion"
)

// Known reports whether t is one of the metric types the compiler understands.
func (t MetricType) Known() bool {
	switch t {
	case MetricTypeSimple, MetricTypeRatio, MetricTypeDerived, MetricTypeCumulative, MetricTypeConversion:
		return true
	default:
		return false
	}
}

// DimensionKind distinguishes categorical from time dimensions.
type DimensionKind string

// Dimension kinds.
const (
	DimensionCategorical DimensionKind = "categorical"
	DimensionTime        DimensionKind = "time"
)

// EntityRole is the join role of an entity.
type EntityRole string

// Entity roles.
const (
	EntityPrimary EntityRole = "primary"
	EntityForeign EntityRole = "foreign"
	EntityUnique  EntityRole = "unique"
)

// Defaults applied when a metric omits a field.
const (
	DefaultSource      = "default_source"
	DefaultAggregation = "sum"
	DefaultGrain       = "day"
)

// MetricSpec is one entry of the metrics list in a version 1 document.
// Passthrough fields typed as any are nil when absent.
type MetricSpec struct {
	Name        string     `mapstructure:"name"`
	Description string     `mapstructure:"description"`
	Type        MetricType `mapstructure:"type"`
	Source      string     `mapstructure:"source"`

	Measure    *MeasureSpec `mapstructure:"measure"`
	Dimensions []Dimension  `mapstructure:"dimensions"`
	Entities   []Entity     `mapstructure:"entities"`

	// Ratio
	Numerator   *SubMeasure `mapstructure:"numerator"`
	Denominator *SubMeasure `mapstructure:"denominator"`

	// Derived
	Formula *string `mapstructure:"formula"`

	// Conversion
	Entity             any         `mapstructure:"entity"`
	BaseMeasure        *SubMeasure `mapstructure:"base_measure"`
	ConversionMeasure  *SubMeasure `mapstructure:"conversion_measure"`
	Calculation        any         `mapstructure:"calculation"`
	ConstantProperties any         `mapstructure:"constant_properties"`

	// Cumulative and conversion
	Window      any `mapstructure:"window"`
	GrainToDate any `mapstructure:"grain_to_date"`

	// Copied verbatim onto the metric definition
	Filter        *string `mapstructure:"filter"`
	Label         any     `mapstructure:"label"`
	Config        any     `mapstructure:"config"`
	Meta          any     `mapstructure:"meta"`
	OffsetWindow  any     `mapstructure:"offset_window"`
	FillNullsWith any     `mapstructure:"fill_nulls_with"`
}

// ApplyDefaults fills the type, source and nested defaults.
func (m *MetricSpec) ApplyDefaults() {
	if m.Type == "" {
		m.Type = MetricTypeSimple
	}
	if m.Source == "" {
		m.Source = DefaultSource
	}
	for i := range m.Dimensions {
		m.Dimensions[i].ApplyDefaults()
	}
	for i := range m.Entities {
		m.Entities[i].ApplyDefaults()
	}
	m.Measure.ApplyDefaults()
	for _, sub := range []*SubMeasure{m.Numerator, m.Denominator, m.BaseMeasure, m.ConversionMeasure} {
		if sub != nil {
			sub.Measure.ApplyDefaults()
		}
	}
}

// MeasureSpec is an authored aggregation block. For cumulative metrics the
// outer block only names the basis and the aggregation lives in Measure.
type MeasureSpec struct {
	Name                 string         `mapstructure:"name"`
	Type                 string         `mapstructure:"type"`
	Column               string         `mapstructure:"column"`
	Filters              []string       `mapstructure:"filters"`
	AggParams            map[string]any `mapstructure:"agg_params"`
	AggregationParams    map[string]any `mapstructure:"aggregation_params"`
	NonAdditiveDimension any            `mapstructure:"non_additive_dimension"`
	Measure              *MeasureSpec   `mapstructure:"measure"`
}

// ApplyDefaults sets the default aggregation and folds aggregation_params
// into AggParams. Keys already present in agg_params win.
func (s *MeasureSpec) ApplyDefaults() {
	if s == nil {
		return
	}
	if s.Type == "" {
		s.Type = DefaultAggregation
	}
	if len(s.AggregationParams) > 0 {
		if s.AggParams == nil {
			s.AggParams = make(map[string]any, len(s.AggregationParams))
		}
		for k, v := range s.AggregationParams {
			if _, ok := s.AggParams[k]; !ok {
				s.AggParams[k] = v
			}
		}
		s.AggregationParams = nil
	}
	s.Measure.ApplyDefaults()
}

// SubMeasure names one side of a ratio or conversion metric, optionally
// carrying the aggregation that backs it.
type SubMeasure struct {
	Name    string       `mapstructure:"name"`
	Measure *MeasureSpec `mapstructure:"measure"`
}

// Dimension is a groupable attribute. The wire key for Kind is "type".
type Dimension struct {
	Name  string        `mapstructure:"name"`
	Kind  DimensionKind `mapstructure:"type"`
	Grain string        `mapstructure:"grain"`
	Expr  any           `mapstructure:"expr"`
	Label any           `mapstructure:"label"`
}

// DimensionFromName builds a dimension from its bare-name shape. Names
// containing "date" are time dimensions.
func DimensionFromName(name string) Dimension {
	kind := DimensionCategorical
	if strings.Contains(strings.ToLower(name), "date") {
		kind = DimensionTime
	}
	d := Dimension{Name: name, Kind: kind}
	d.ApplyDefaults()
	return d
}

// ApplyDefaults sets the kind and, for time dimensions, the grain.
func (d *Dimension) ApplyDefaults() {
	if d.Kind == "" {
		d.Kind = DimensionCategorical
	}
	if d.Kind == DimensionTime && d.Grain == "" {
		d.Grain = DefaultGrain
	}
}

// IsTime reports whether d is a time dimension.
func (d Dimension) IsTime() bool {
	return d.Kind == DimensionTime
}

// Entity is a key column. The wire key for Role is "type".
type Entity struct {
	Name string     `mapstructure:"name" yaml:"name" json:"name"`
	Role EntityRole `mapstructure:"type" yaml:"type" json:"type"`
	Expr any        `mapstructure:"expr" yaml:"expr,omitempty" json:"expr,omitempty"`
}

// EntityFromName builds a primary entity from its bare-name shape.
func EntityFromName(name string) Entity {
	return Entity{Name: name, Role: EntityPrimary}
}

// ApplyDefaults sets the default role.
func (e *Entity) ApplyDefaults() {
	if e.Role == "" {
		e.Role = EntityPrimary
	}
}

// Basis suffixes for sub-measures without an explicit name.
const (
	NumeratorSuffix   = "_numerator"
	DenominatorSuffix = "_denominator"
	CumulativeSuffix  = "_cumulative"
	BaseSuffix        = "_base"
	ConversionSuffix  = "_conversion"
)

func subBasis(sub *SubMeasure, metric, suffix string) string {
	if sub != nil && sub.Name != "" {
		return sub.Name
	}
	return metric + suffix
}

// NumeratorBasis returns the basis name of a ratio numerator.
func (m *MetricSpec) NumeratorBasis() string {
	return subBasis(m.Numerator, m.Name, NumeratorSuffix)
}

// DenominatorBasis returns the basis name of a ratio denominator.
func (m *MetricSpec) DenominatorBasis() string {
	return subBasis(m.Denominator, m.Name, DenominatorSuffix)
}

// BaseBasis returns the basis name of a conversion base measure.
func (m *MetricSpec) BaseBasis() string {
	return subBasis(m.BaseMeasure, m.Name, BaseSuffix)
}

// ConversionBasis returns the basis name of a conversion measure.
func (m *MetricSpec) ConversionBasis() string {
	return subBasis(m.ConversionMeasure, m.Name, ConversionSuffix)
}

// CumulativeBasis returns the basis name of a cumulative metric, taken from
// the outer measure block's name.
func (m *MetricSpec) CumulativeBasis() string {
	if m.Measure != nil && m.Measure.Name != "" {
		return m.Measure.Name
	}
	return m.Name + CumulativeSuffix
}

// EffectiveType returns the type the metric compiles as. Unrecognized
// types compile as simple.
func (m *MetricSpec) EffectiveType() MetricType {
	if m.Type.Known() {
		return m.Type
	}
	return MetricTypeSimple
}
