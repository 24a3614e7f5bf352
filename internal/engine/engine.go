// Package engine drives batch compilation: it discovers metrics-first
// documents under the input roots, compiles each one and writes the
// resulting semantic models under the output root.
package engine

import (
	"errors"
	"log/slog"
	"runtime"
	"time"

	"github.com/Rdwburns/dbt-metrics-first/internal/compiler"
	"github.com/Rdwburns/dbt-metrics-first/internal/emit"
	"github.com/Rdwburns/dbt-metrics-first/pkg/aggregation"
)

// DefaultDebounce is how long watch mode waits for changes to settle.
const DefaultDebounce = 100 * time.Millisecond

// Engine compiles every discovered document of a project.
type Engine struct {
	inputDirs []string
	outputDir string
	workers   int
	debounce  time.Duration

	compiler *compiler.Compiler
	resolver *emit.Resolver
	logger   *slog.Logger
}

// Config holds engine configuration.
type Config struct {
	// InputDirs are the roots searched for metrics-first documents, in
	// priority order.
	InputDirs []string
	// OutputDir is the root compiled files are written under.
	OutputDir string
	// SkipValidation compiles documents without schema checks.
	SkipValidation bool
	// Workers bounds concurrent file compilations. Zero uses one worker
	// per CPU.
	Workers int
	// Debounce overrides DefaultDebounce in watch mode.
	Debounce time.Duration
	// Table resolves aggregation spellings (optional, uses aggregation.Default if nil)
	Table *aggregation.Table
	// Logger is the structured logger (optional, uses discard if nil)
	Logger *slog.Logger
}

// New creates an engine.
func New(cfg Config) (*Engine, error) {
	if len(cfg.InputDirs) == 0 {
		return nil, errors.New("at least one input directory is required")
	}
	if cfg.OutputDir == "" {
		return nil, errors.New("output directory is required")
	}
	if cfg.Workers < 0 {
		return nil, errors.New("workers must not be negative")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	workers := cfg.Workers
	if workers == 0 {
		workers = runtime.NumCPU()
	}
	debounce := cfg.Debounce
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	logger.Debug("initializing engine",
		"input_dirs", cfg.InputDirs,
		"output_dir", cfg.OutputDir,
		"workers", workers,
		"validate", !cfg.SkipValidation)

	return &Engine{
		inputDirs: append([]string(nil), cfg.InputDirs...),
		outputDir: cfg.OutputDir,
		workers:   workers,
		debounce:  debounce,
		compiler: compiler.New(compiler.Options{
			Table:          cfg.Table,
			SkipValidation: cfg.SkipValidation,
			Logger:         logger,
		}),
		resolver: emit.NewResolver(cfg.InputDirs, cfg.OutputDir),
		logger:   logger,
	}, nil
}

// InputDirs returns the configured input roots.
func (e *Engine) InputDirs() []string {
	return append([]string(nil), e.inputDirs...)
}

// OutputDir returns the configured output root.
func (e *Engine) OutputDir() string {
	return e.outputDir
}

// Target returns the output path a discovered file compiles to.
func (e *Engine) Target(path string) (string, error) {
	return e.resolver.Target(path)
}
