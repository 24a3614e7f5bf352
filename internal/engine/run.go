package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/Rdwburns/dbt-metrics-first/internal/emit"
	"github.com/Rdwburns/dbt-metrics-first/pkg/core"
)

// RunOptions configures one batch.
type RunOptions struct {
	// DryRun compiles every document without creating directories or
	// writing output.
	DryRun bool
}

// FileError records why one input file failed.
type FileError struct {
	Path  string
	Stage core.Stage
	Err   error
}

// Error implements the error interface.
func (e *FileError) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Path, e.Stage, e.Err)
}

// Unwrap returns the underlying error.
func (e *FileError) Unwrap() error {
	return e.Err
}

// FileResult is the outcome of compiling one input file.
type FileResult struct {
	Path        string
	Output      string
	Models      int
	Metrics     int
	Diagnostics []core.Diagnostic
	Err         *FileError
	Duration    time.Duration
}

// OK reports whether the file compiled.
func (r *FileResult) OK() bool {
	return r.Err == nil
}

// RunResult summarizes one batch.
type RunResult struct {
	RunID     string
	DryRun    bool
	Discovery *DiscoveryResult
	// Files holds one entry per discovered unit, in discovery order
	Files    []FileResult
	Duration time.Duration
}

// Errors returns the per-file failures in discovery order.
func (r *RunResult) Errors() []*FileError {
	var errs []*FileError
	for i := range r.Files {
		if r.Files[i].Err != nil {
			errs = append(errs, r.Files[i].Err)
		}
	}
	return errs
}

// HasErrors reports whether any file failed.
func (r *RunResult) HasErrors() bool {
	return len(r.Errors()) > 0
}

// FilesProcessed counts the files that compiled.
func (r *RunResult) FilesProcessed() int {
	n := 0
	for i := range r.Files {
		if r.Files[i].OK() {
			n++
		}
	}
	return n
}

// ModelsGenerated counts the semantic models of every compiled file.
func (r *RunResult) ModelsGenerated() int {
	n := 0
	for i := range r.Files {
		n += r.Files[i].Models
	}
	return n
}

// MetricsProcessed counts the metric definitions of every compiled file.
func (r *RunResult) MetricsProcessed() int {
	n := 0
	for i := range r.Files {
		n += r.Files[i].Metrics
	}
	return n
}

// Diagnostics returns every diagnostic in discovery order.
func (r *RunResult) Diagnostics() []core.Diagnostic {
	var out []core.Diagnostic
	for i := range r.Files {
		out = append(out, r.Files[i].Diagnostics...)
	}
	return out
}

// Warnings counts the warning diagnostics.
func (r *RunResult) Warnings() int {
	n := 0
	for _, d := range r.Diagnostics() {
		if d.Severity == core.SeverityWarning {
			n++
		}
	}
	return n
}

// OutputFiles lists the files written, in discovery order.
func (r *RunResult) OutputFiles() []string {
	var out []string
	if r.DryRun {
		return out
	}
	for i := range r.Files {
		if r.Files[i].OK() {
			out = append(out, r.Files[i].Output)
		}
	}
	return out
}

// Run discovers and compiles every document. Per-file failures are
// recorded on the result and never stop the batch; the returned error is
// reserved for discovery failures and cancellation.
func (e *Engine) Run(ctx context.Context, opts RunOptions) (*RunResult, error) {
	start := time.Now()
	result := &RunResult{RunID: uuid.NewString(), DryRun: opts.DryRun}
	log := e.logger.With("run_id", result.RunID)

	log.Info("starting compile", "dry_run", opts.DryRun)

	disc, err := e.Discover(ctx)
	result.Discovery = disc
	if err != nil {
		return result, fmt.Errorf("discovery failed: %w", err)
	}

	result.Files = make([]FileResult, len(disc.Units))
	targets := e.claimTargets(disc.Units, result.Files)

	eg, egctx := errgroup.WithContext(ctx)
	eg.SetLimit(e.workers)
	for i := range disc.Units {
		if result.Files[i].Err != nil {
			continue
		}
		eg.Go(func() error {
			if err := egctx.Err(); err != nil {
				return err
			}
			result.Files[i] = e.compileFile(disc.Units[i], targets[i], opts)
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		result.Duration = time.Since(start)
		return result, err
	}

	result.Duration = time.Since(start)
	for _, fe := range result.Errors() {
		log.Warn("file failed", "path", fe.Path, "stage", string(fe.Stage), "error", fe.Err.Error())
	}
	log.Info("compile completed",
		"files", len(result.Files),
		"errors", len(result.Errors()),
		"models", result.ModelsGenerated(),
		"metrics", result.MetricsProcessed(),
		"duration_ms", result.Duration.Milliseconds())
	return result, nil
}

// claimTargets resolves every output path up front. A unit whose target is
// already claimed by an earlier unit fails with an output collision.
func (e *Engine) claimTargets(units []Unit, files []FileResult) []string {
	targets := make([]string, len(units))
	owner := make(map[string]string, len(units))
	for i, u := range units {
		files[i].Path = u.Path
		target, err := e.resolver.Target(u.Path)
		if err != nil {
			files[i].Err = &FileError{Path: u.Path, Stage: core.StageResolve, Err: err}
			continue
		}
		files[i].Output = target
		if first, taken := owner[target]; taken {
			files[i].Err = &FileError{
				Path:  u.Path,
				Stage: core.StageResolve,
				Err:   fmt.Errorf("%w: %s is already produced by %s", core.ErrOutputCollision, target, first),
			}
			continue
		}
		owner[target] = u.Path
		targets[i] = target
	}
	return targets
}

func (e *Engine) compileFile(u Unit, target string, opts RunOptions) FileResult {
	start := time.Now()
	fr := FileResult{Path: u.Path, Output: target}
	fail := func(err error, def core.Stage) FileResult {
		stage := core.StageOf(err, def)
		var se *core.StageError
		if errors.As(err, &se) {
			err = se.Err
		}
		return FileResult{
			Path:        u.Path,
			Output:      target,
			Diagnostics: fr.Diagnostics,
			Err:         &FileError{Path: u.Path, Stage: stage, Err: err},
			Duration:    time.Since(start),
		}
	}

	res, err := e.compiler.Compile(u.Doc, u.Path)
	if err != nil {
		return fail(err, core.StageCompile)
	}
	fr.Diagnostics = res.Diagnostics
	fr.Models = len(res.Unit.SemanticModels)
	fr.Metrics = len(res.Unit.Metrics)

	if !opts.DryRun {
		if _, err := e.resolver.Resolve(u.Path); err != nil {
			return fail(err, core.StageResolve)
		}
		if err := emit.WriteFile(target, res.Unit); err != nil {
			return fail(err, core.StageWrite)
		}
	}

	fr.Duration = time.Since(start)
	e.logger.Debug("compiled file",
		"path", u.Path,
		"output", target,
		"models", fr.Models,
		"metrics", fr.Metrics,
		"duration_ms", fr.Duration.Milliseconds())
	return fr
}
