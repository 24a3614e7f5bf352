package commands

import (
	"fmt"
	"strconv"
	"time"

	"github.com/Rdwburns/dbt-metrics-first/internal/cli/output"
	"github.com/Rdwburns/dbt-metrics-first/internal/engine"
	"github.com/Rdwburns/dbt-metrics-first/pkg/core"
)

// errFilesFailed builds the error returned when a batch had failures.
func errFilesFailed(result *engine.RunResult) error {
	return fmt.Errorf("%d of %d files failed", len(result.Errors()), len(result.Files))
}

// renderRun writes a batch result in the renderer's effective mode.
func renderRun(r *output.Renderer, root string, result *engine.RunResult) error {
	if r.EffectiveMode() == output.ModeJSON {
		return r.JSON(runOutput(root, result))
	}

	title := "Compile"
	if result.DryRun {
		title = "Validate (dry run)"
	}
	r.Header(1, title)

	if len(result.Files) == 0 {
		renderNoFiles(r, root, result.Discovery)
		return nil
	}

	for i := range result.Files {
		f := &result.Files[i]
		name := displayPath(root, f.Path)
		if !f.OK() {
			r.StatusLine(output.StatusFailed, name, fmt.Sprintf("%s: %v", f.Err.Stage, f.Err.Err))
			continue
		}
		detail := fmt.Sprintf("%d models, %d metrics", f.Models, f.Metrics)
		if !result.DryRun {
			detail = "-> " + displayPath(root, f.Output) + " (" + detail + ")"
		}
		r.StatusLine(output.StatusSuccess, name, detail)
	}

	for _, d := range result.Diagnostics() {
		d.Source = displayPath(root, d.Source)
		if d.Severity == core.SeverityWarning {
			r.Warning(d.String())
		} else {
			r.Muted(d.String())
		}
	}

	r.Println("")
	r.Table(
		[]string{"Files", "Models", "Metrics", "Errors", "Warnings", "Skipped"},
		[][]string{{
			strconv.Itoa(result.FilesProcessed()),
			strconv.Itoa(result.ModelsGenerated()),
			strconv.Itoa(result.MetricsProcessed()),
			strconv.Itoa(len(result.Errors())),
			strconv.Itoa(result.Warnings()),
			strconv.Itoa(skipped(result.Discovery)),
		}},
	)
	r.Muted(fmt.Sprintf("Run %s finished in %s", result.RunID, result.Duration.Round(time.Millisecond)))
	return nil
}

// renderNoFiles writes the hint shown when discovery found nothing.
func renderNoFiles(r *output.Renderer, root string, disc *engine.DiscoveryResult) {
	r.Warning("No metrics-first files found")
	r.Println("Searched directories:")
	if disc != nil {
		for _, dir := range disc.Roots {
			r.Println("  - " + displayPath(root, dir))
		}
	}
	r.Muted("Add a YAML file with `version: 1` and a `metrics` list to one of these directories, or pass --input-dir.")
}

func skipped(disc *engine.DiscoveryResult) int {
	if disc == nil {
		return 0
	}
	return disc.Skipped
}

// runOutput converts a batch result to its JSON shape.
func runOutput(root string, result *engine.RunResult) output.RunOutput {
	out := output.RunOutput{
		RunID:       result.RunID,
		DryRun:      result.DryRun,
		Files:       make([]output.FileInfo, 0, len(result.Files)),
		OutputFiles: make([]string, 0),
		Summary: output.RunSummary{
			FilesProcessed:   result.FilesProcessed(),
			ModelsGenerated:  result.ModelsGenerated(),
			MetricsProcessed: result.MetricsProcessed(),
			Errors:           len(result.Errors()),
			Warnings:         result.Warnings(),
			Skipped:          skipped(result.Discovery),
		},
		DurationMS: result.Duration.Milliseconds(),
	}

	for i := range result.Files {
		f := &result.Files[i]
		info := output.FileInfo{
			Path:       displayPath(root, f.Path),
			Status:     output.StatusSuccess,
			Models:     f.Models,
			Metrics:    f.Metrics,
			DurationMS: f.Duration.Milliseconds(),
		}
		if !result.DryRun {
			info.Output = displayPath(root, f.Output)
		}
		if !f.OK() {
			info.Status = output.StatusFailed
			info.Output = ""
			info.Stage = string(f.Err.Stage)
			info.Error = f.Err.Err.Error()
		}
		for _, d := range f.Diagnostics {
			info.Diagnostics = append(info.Diagnostics, output.DiagnosticInfo{
				Severity: d.Severity.String(),
				Source:   displayPath(root, d.Source),
				Metric:   d.Metric,
				Message:  d.Message,
			})
		}
		out.Files = append(out.Files, info)
	}

	for _, path := range result.OutputFiles() {
		out.OutputFiles = append(out.OutputFiles, displayPath(root, path))
	}

	return out
}
