package compiler

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/Rdwburns/dbt-metrics-first/pkg/core"
)

// filterOperators are the tokens whose absence makes a quoted filter look
// like a bare value without a field reference.
var filterOperators = []string{"=", ">", "<", "!=", "IN", "LIKE"}

// MetricCompiler maps one metric spec onto its dbt metric definition.
type MetricCompiler struct {
	logger *slog.Logger
}

// NewMetricCompiler creates a metric compiler. A nil logger discards output.
func NewMetricCompiler(logger *slog.Logger) *MetricCompiler {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &MetricCompiler{logger: logger}
}

// Compile builds the definition of spec. Model is the semantic model the
// metric was assembled into and may be nil; it is only consulted to flag
// measure references it does not define.
func (c *MetricCompiler) Compile(spec core.MetricSpec, model *core.SemanticModel) (core.MetricDefinition, []core.Diagnostic, error) {
	var diags []core.Diagnostic
	diag := func(sev core.Severity, format string, args ...any) {
		diags = append(diags, core.Diagnostic{Severity: sev, Metric: spec.Name, Message: fmt.Sprintf(format, args...)})
	}

	def := core.MetricDefinition{
		Name:          spec.Name,
		Description:   spec.Description,
		Type:          spec.Type,
		Label:         spec.Label,
		Filter:        spec.Filter,
		Config:        spec.Config,
		Meta:          spec.Meta,
		OffsetWindow:  spec.OffsetWindow,
		FillNullsWith: spec.FillNullsWith,
	}
	if def.Type == "" {
		def.Type = core.MetricTypeSimple
	}

	if spec.Filter != nil && suspiciousFilter(*spec.Filter) {
		c.logger.Warn("filter may be missing a field reference", "metric", spec.Name, "filter", *spec.Filter)
		diag(core.SeverityWarning, "filter %q may be missing a field reference", *spec.Filter)
	}

	switch def.Type {
	case core.MetricTypeSimple:
		def.TypeParams = core.TypeParams{Measure: core.MeasureName(spec.Name)}

	case core.MetricTypeRatio:
		def.TypeParams = core.TypeParams{
			Numerator:   core.MeasureName(spec.NumeratorBasis()),
			Denominator: core.MeasureName(spec.DenominatorBasis()),
		}

	case core.MetricTypeDerived:
		if spec.Formula == nil {
			return def, diags, &core.MissingFieldError{Metric: spec.Name, Type: core.MetricTypeDerived, Field: "formula"}
		}
		formula := *spec.Formula
		def.TypeParams = core.TypeParams{Expr: &formula}

	case core.MetricTypeCumulative:
		def.TypeParams = core.TypeParams{
			Measure:     core.MeasureName(spec.CumulativeBasis()),
			Window:      spec.Window,
			GrainToDate: spec.GrainToDate,
		}

	case core.MetricTypeConversion:
		if spec.Entity == nil {
			return def, diags, &core.MissingFieldError{Metric: spec.Name, Type: core.MetricTypeConversion, Field: "entity"}
		}
		def.TypeParams = core.TypeParams{ConversionTypeParams: &core.ConversionTypeParams{
			Entity:             spec.Entity,
			BaseMeasure:        core.MeasureRef{Name: core.MeasureName(spec.BaseBasis())},
			ConversionMeasure:  core.MeasureRef{Name: core.MeasureName(spec.ConversionBasis())},
			Window:             spec.Window,
			Calculation:        spec.Calculation,
			ConstantProperties: spec.ConstantProperties,
		}}

	default:
		c.logger.Warn("unknown metric type, compiling as simple", "metric", spec.Name, "type", string(def.Type))
		diag(core.SeverityWarning, "unknown metric type %q compiled as %q", def.Type, core.MetricTypeSimple)
		def.Type = core.MetricTypeSimple
		def.TypeParams = core.TypeParams{Measure: core.MeasureName(spec.Name)}
	}

	if model != nil {
		for _, ref := range def.TypeParams.MeasureRefs() {
			if !model.HasMeasure(ref) {
				diag(core.SeverityInfo, "measure %q is not defined in semantic model %q", ref, model.Name)
			}
		}
	}

	return def, diags, nil
}

// suspiciousFilter reports a filter that opens with a single or double
// quote and contains no comparison operator.
func suspiciousFilter(filter string) bool {
	for _, op := range filterOperators {
		if strings.Contains(filter, op) {
			return false
		}
	}
	return strings.HasPrefix(filter, "'") || strings.HasPrefix(filter, `"`)
}
