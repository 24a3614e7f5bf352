package assembler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Rdwburns/dbt-metrics-first/internal/testutil"
	"github.com/Rdwburns/dbt-metrics-first/pkg/core"
)

func newAssembler(t *testing.T) *Assembler {
	t.Helper()
	return New(nil, testutil.NewTestLogger(t))
}

func metric(name, source string, measure *core.MeasureSpec) core.MetricSpec {
	m := core.MetricSpec{Name: name, Description: name, Source: source, Measure: measure}
	m.ApplyDefaults()
	return m
}

func TestModelName(t *testing.T) {
	assert.Equal(t, "orders_finance_semantic_model", ModelName("orders", "metrics/finance.yml"))
	assert.Equal(t, "orders_finance_semantic_model", ModelName("orders", "/abs/finance.yaml"))
	assert.Equal(t, "orders_semantic_model", ModelName("orders", ""))
}

func TestAssemble_RevenueExample(t *testing.T) {
	a := newAssembler(t)
	models := a.Assemble([]core.MetricSpec{
		metric("revenue", "orders", &core.MeasureSpec{Type: "sum", Column: "amount"}),
	}, "revenue.yml")

	require.Len(t, models, 1)
	m := models[0]
	assert.Equal(t, "orders_revenue_semantic_model", m.Name)
	assert.Equal(t, "ref('orders')", m.SourceRef)
	assert.Equal(t, []core.Measure{{Name: "revenue_measure", Agg: "sum", Expr: "amount"}}, m.Measures)
	assert.Empty(t, m.Dimensions)
	assert.Empty(t, m.Entities)
}

func TestPartition_FirstSeenOrder(t *testing.T) {
	a := newAssembler(t)
	parts := a.Partition([]core.MetricSpec{
		metric("a", "payments", nil),
		metric("b", "orders", nil),
		metric("c", "payments", nil),
		{Name: "d"},
	})

	require.Len(t, parts, 3)
	assert.Equal(t, "payments", parts[0].Source)
	assert.Equal(t, "orders", parts[1].Source)
	assert.Equal(t, core.DefaultSource, parts[2].Source)
	assert.Len(t, parts[0].Metrics, 2)
	assert.Equal(t, "c", parts[0].Metrics[1].Name)
}

func TestAssemble_DedupPreservesFirstSeen(t *testing.T) {
	a := newAssembler(t)

	first := metric("revenue", "orders", &core.MeasureSpec{Column: "amount"})
	first.Dimensions = []core.Dimension{
		{Name: "order_date", Kind: core.DimensionTime, Grain: "day"},
		{Name: "region", Kind: core.DimensionCategorical},
	}
	first.Entities = []core.Entity{{Name: "order_id", Role: core.EntityPrimary}}

	second := metric("orders_count", "orders", &core.MeasureSpec{Type: "count", Column: "order_id"})
	second.Dimensions = []core.Dimension{
		{Name: "order_date", Kind: core.DimensionTime, Grain: "month"},
		{Name: "channel", Kind: core.DimensionCategorical},
		{Name: "region", Kind: core.DimensionCategorical},
	}
	second.Entities = []core.Entity{
		{Name: "customer_id", Role: core.EntityForeign},
		{Name: "order_id", Role: core.EntityForeign},
	}

	models := a.Assemble([]core.MetricSpec{first, second}, "orders.yml")
	require.Len(t, models, 1)
	m := models[0]

	assert.Equal(t, []core.Dimension{
		{Name: "region", Kind: core.DimensionCategorical},
		{Name: "channel", Kind: core.DimensionCategorical},
		{Name: "order_date", Kind: core.DimensionTime, Grain: "day"},
	}, m.Dimensions)
	assert.Equal(t, []core.Entity{
		{Name: "order_id", Role: core.EntityPrimary},
		{Name: "customer_id", Role: core.EntityForeign},
	}, m.Entities)

	names := make([]string, 0, len(m.Measures))
	for _, ms := range m.Measures {
		names = append(names, ms.Name)
	}
	assert.Equal(t, []string{"revenue_measure", "orders_count_measure"}, names)
}

func TestAssemble_ConflictingDuplicateLogged(t *testing.T) {
	logger, buf := testutil.NewBufferLogger()
	a := New(nil, logger)

	first := metric("revenue", "orders", &core.MeasureSpec{Column: "amount"})
	first.Dimensions = []core.Dimension{{Name: "order_date", Kind: core.DimensionTime, Grain: "day"}}
	second := metric("orders_count", "orders", &core.MeasureSpec{Type: "count", Column: "order_id"})
	second.Dimensions = []core.Dimension{{Name: "order_date", Kind: core.DimensionTime, Grain: "week"}}

	models := a.Assemble([]core.MetricSpec{first, second}, "orders.yml")
	require.Len(t, models, 1)

	assert.Equal(t, "day", models[0].Dimensions[0].Grain)
	assert.Contains(t, buf.String(), "conflicting duplicate dropped")
	assert.Contains(t, buf.String(), "dimension=order_date")
}

func TestAssemble_RatioExample(t *testing.T) {
	a := newAssembler(t)
	ratio := core.MetricSpec{
		Name:        "aov",
		Description: "d",
		Type:        core.MetricTypeRatio,
		Source:      "orders",
		Numerator:   &core.SubMeasure{Name: "n", Measure: &core.MeasureSpec{Column: "amount"}},
		Denominator: &core.SubMeasure{Name: "d", Measure: &core.MeasureSpec{Type: "count", Column: "order_id"}},
	}
	ratio.ApplyDefaults()

	models := a.Assemble([]core.MetricSpec{ratio}, "aov.yml")
	require.Len(t, models, 1)
	assert.Equal(t, []core.Measure{
		{Name: "n_measure", Agg: "sum", Expr: "amount"},
		{Name: "d_measure", Agg: "count", Expr: "order_id"},
	}, models[0].Measures)
}

func TestAssemble_RatioSkipsSidesWithoutMeasure(t *testing.T) {
	a := newAssembler(t)
	ratio := core.MetricSpec{
		Name:        "share",
		Type:        core.MetricTypeRatio,
		Numerator:   &core.SubMeasure{Measure: &core.MeasureSpec{}},
		Denominator: &core.SubMeasure{Name: "total_revenue"},
	}
	ratio.ApplyDefaults()

	models := a.Assemble([]core.MetricSpec{ratio}, "")
	require.Len(t, models, 1)
	assert.Equal(t, "default_source_semantic_model", models[0].Name)
	assert.Equal(t, []core.Measure{{Name: "share_numerator_measure", Agg: "sum", Expr: "share_numerator"}}, models[0].Measures)
}

func TestAssemble_PerTypeMeasures(t *testing.T) {
	tests := []struct {
		name string
		spec core.MetricSpec
		want []core.Measure
	}{
		{
			name: "cumulative with named basis",
			spec: core.MetricSpec{
				Name: "running_revenue", Type: core.MetricTypeCumulative,
				Measure: &core.MeasureSpec{Name: "revenue", Measure: &core.MeasureSpec{Column: "amount"}},
			},
			want: []core.Measure{{Name: "revenue_measure", Agg: "sum", Expr: "amount"}},
		},
		{
			name: "cumulative default basis",
			spec: core.MetricSpec{
				Name: "running", Type: core.MetricTypeCumulative,
				Measure: &core.MeasureSpec{Measure: &core.MeasureSpec{Type: "cnt"}},
			},
			want: []core.Measure{{Name: "running_cumulative_measure", Agg: "count", Expr: "running_cumulative"}},
		},
		{
			name: "cumulative without nested measure",
			spec: core.MetricSpec{
				Name: "running", Type: core.MetricTypeCumulative,
				Measure: &core.MeasureSpec{Name: "revenue"},
			},
			want: []core.Measure{},
		},
		{
			name: "conversion",
			spec: core.MetricSpec{
				Name: "checkout_rate", Type: core.MetricTypeConversion,
				BaseMeasure:       &core.SubMeasure{Name: "visits", Measure: &core.MeasureSpec{Type: "count", Column: "session_id"}},
				ConversionMeasure: &core.SubMeasure{Measure: &core.MeasureSpec{Type: "count_unique", Column: "order_id"}},
			},
			want: []core.Measure{
				{Name: "visits_measure", Agg: "count", Expr: "session_id"},
				{Name: "checkout_rate_conversion_measure", Agg: "count_distinct", Expr: "order_id"},
			},
		},
		{
			name: "derived",
			spec: core.MetricSpec{Name: "net", Type: core.MetricTypeDerived, Measure: &core.MeasureSpec{Column: "x"}},
			want: []core.Measure{},
		},
		{
			name: "unknown type falls back to simple",
			spec: core.MetricSpec{Name: "odd", Type: "funnel", Measure: &core.MeasureSpec{Type: "avg", Column: "price"}},
			want: []core.Measure{{Name: "odd_measure", Agg: "average", Expr: "price"}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.spec.ApplyDefaults()
			models := newAssembler(t).Assemble([]core.MetricSpec{tt.spec}, "f.yml")
			require.Len(t, models, 1)
			assert.Equal(t, tt.want, models[0].Measures)
		})
	}
}

func TestAssemble_PercentileAndFilters(t *testing.T) {
	a := newAssembler(t)
	p95 := metric("p95_latency", "requests", &core.MeasureSpec{
		Type:      "percentile",
		Column:    "latency_ms",
		AggParams: map[string]any{"percentile": 0.95},
		Filters:   []string{"status = 200", "region = 'eu'"},
	})
	sum := metric("bytes", "requests", &core.MeasureSpec{
		Column:    "bytes",
		AggParams: map[string]any{"percentile": 0.5},
	})

	models := a.Assemble([]core.MetricSpec{p95, sum}, "requests.yml")
	require.Len(t, models, 1)
	require.Len(t, models[0].Measures, 2)

	assert.Equal(t, map[string]any{
		"percentile": 0.95,
		"where":      "status = 200 AND region = 'eu'",
	}, models[0].Measures[0].AggParams)
	assert.Nil(t, models[0].Measures[1].AggParams, "explicit params are dropped for non-percentile aggregations")

	// the authored params are not mutated by the filter merge
	assert.Equal(t, map[string]any{"percentile": 0.95}, p95.Measure.AggParams)
}

func TestAssemble_SameSourceDifferentFiles(t *testing.T) {
	a := newAssembler(t)
	m1 := a.Assemble([]core.MetricSpec{metric("revenue", "orders", &core.MeasureSpec{})}, "metrics/finance.yml")
	m2 := a.Assemble([]core.MetricSpec{metric("count", "orders", &core.MeasureSpec{})}, "metrics/ops.yml")

	require.Len(t, m1, 1)
	require.Len(t, m2, 1)
	assert.NotEqual(t, m1[0].Name, m2[0].Name)
	assert.Equal(t, "orders_finance_semantic_model", m1[0].Name)
	assert.Equal(t, "orders_ops_semantic_model", m2[0].Name)
}

func TestMeasureBuilder(t *testing.T) {
	b := NewMeasureBuilder("m_measure").
		Expr("amount").
		Filters("a = 1").
		Filters("b = 2").
		NonAdditiveDimension(map[string]any{"name": "snapshot_date"})

	m := b.Build()
	assert.Equal(t, "sum", m.Agg)
	assert.Equal(t, map[string]any{"where": "a = 1 AND b = 2"}, m.AggParams)
	assert.Equal(t, map[string]any{"name": "snapshot_date"}, m.NonAdditiveDimension)

	m.AggParams["where"] = "changed"
	assert.Equal(t, "a = 1 AND b = 2", b.Build().AggParams["where"])

	plain := NewMeasureBuilder("x_measure").Aggregation("max").Expr("x").Build()
	assert.Nil(t, plain.AggParams)
}
