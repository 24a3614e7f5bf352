// Package compiler turns one parsed metrics-first document into a dbt
// semantic-layer compilation unit.
package compiler

import (
	"errors"
	"log/slog"

	"github.com/Rdwburns/dbt-metrics-first/internal/assembler"
	"github.com/Rdwburns/dbt-metrics-first/internal/parser"
	"github.com/Rdwburns/dbt-metrics-first/internal/validator"
	"github.com/Rdwburns/dbt-metrics-first/pkg/aggregation"
	"github.com/Rdwburns/dbt-metrics-first/pkg/core"
)

// Options configures a Compiler.
type Options struct {
	// Table resolves aggregation spellings. Nil uses aggregation.Default().
	Table *aggregation.Table
	// SkipValidation compiles documents without schema checks.
	SkipValidation bool
	Logger         *slog.Logger
}

// Compiler runs validate, decode, assemble and compile over one document.
// It holds no per-document state and is safe for concurrent use.
type Compiler struct {
	validator *validator.Validator
	assembler *assembler.Assembler
	metrics   *MetricCompiler
	validate  bool
	logger    *slog.Logger
}

// New creates a compiler.
func New(opts Options) *Compiler {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	table := opts.Table
	if table == nil {
		table = aggregation.Default()
	}
	return &Compiler{
		validator: validator.New(table),
		assembler: assembler.New(table, logger),
		metrics:   NewMetricCompiler(logger),
		validate:  !opts.SkipValidation,
		logger:    logger,
	}
}

// Result is the outcome of compiling one document.
type Result struct {
	Unit        core.CompilationUnit
	Diagnostics []core.Diagnostic
}

// Warnings counts the warning diagnostics.
func (r *Result) Warnings() int {
	n := 0
	for _, d := range r.Diagnostics {
		if d.Severity == core.SeverityWarning {
			n++
		}
	}
	return n
}

// CompileBytes parses data and compiles it. File identifies the document
// and feeds the semantic model names.
func (c *Compiler) CompileBytes(data []byte, file string) (*Result, error) {
	doc, err := parser.Parse(data)
	if err != nil {
		return nil, core.AtStage(core.StageParse, err)
	}
	return c.Compile(doc, file)
}

// Compile compiles a parsed document. Errors carry the failing stage.
func (c *Compiler) Compile(doc any, file string) (*Result, error) {
	if c.validate {
		if err := c.validator.Validate(doc, file); err != nil {
			return nil, core.AtStage(core.StageValidate, err)
		}
	}

	specs, err := parser.Decode(doc, file)
	if err != nil {
		return nil, core.AtStage(core.StageDecode, err)
	}

	models := c.assembler.Assemble(specs, file)
	parts := c.assembler.Partition(specs)
	bySource := make(map[string]*core.SemanticModel, len(models))
	for i := range parts {
		bySource[parts[i].Source] = &models[i]
	}

	res := &Result{Unit: core.CompilationUnit{
		Version:        core.OutputVersion,
		SemanticModels: models,
		Metrics:        make([]core.MetricDefinition, 0, len(specs)),
	}}
	for _, spec := range specs {
		def, diags, err := c.metrics.Compile(spec, bySource[spec.Source])
		for i := range diags {
			diags[i].Source = file
		}
		res.Diagnostics = append(res.Diagnostics, diags...)
		if err != nil {
			var mf *core.MissingFieldError
			if errors.As(err, &mf) {
				mf.Source = file
			}
			return nil, core.AtStage(core.StageCompile, err)
		}
		res.Unit.Metrics = append(res.Unit.Metrics, def)
	}

	c.logger.Debug("compiled document",
		"path", file,
		"models", len(res.Unit.SemanticModels),
		"metrics", len(res.Unit.Metrics))
	return res, nil
}
