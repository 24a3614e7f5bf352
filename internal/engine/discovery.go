package engine

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/Rdwburns/dbt-metrics-first/internal/emit"
	"github.com/Rdwburns/dbt-metrics-first/internal/parser"
)

// Unit is a discovered metrics-first document.
type Unit struct {
	// Path is the absolute path of the file
	Path string
	// Doc is the parsed document
	Doc any
	// Metrics is the number of entries in the metrics list
	Metrics int
}

// DiscoveryResult describes one scan of the input roots.
type DiscoveryResult struct {
	Units []Unit

	// Roots are the input roots searched, in configuration order
	Roots []string

	// Scanned counts every YAML file read
	Scanned int
	// Skipped counts YAML files that are not metrics-first documents
	Skipped int
	// MissingDirs lists input roots that do not exist
	MissingDirs []string

	// Errors (non-fatal)
	Errors []DiscoveryError

	Duration time.Duration
}

// DiscoveryError represents a non-fatal error during discovery.
type DiscoveryError struct {
	Path    string
	Type    string // "read", "parse", "walk"
	Message string
}

// HasErrors returns true if any errors occurred.
func (r *DiscoveryResult) HasErrors() bool {
	return len(r.Errors) > 0
}

// Summary returns a human-readable summary.
func (r *DiscoveryResult) Summary() string {
	return fmt.Sprintf("Units: %d | Scanned: %d | Skipped: %d | Duration: %s",
		len(r.Units), r.Scanned, r.Skipped, r.Duration.Round(time.Millisecond))
}

// IsYAML reports whether name has a YAML extension.
func IsYAML(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	return ext == ".yml" || ext == ".yaml"
}

// IsGenerated reports whether name is a file the compiler writes.
func IsGenerated(name string) bool {
	return strings.HasSuffix(filepath.Base(name), emit.OutputSuffix)
}

// Discover walks every input root and collects the metrics-first documents
// it finds. Roots are visited in configuration order and files in lexical
// order within each root; a file reachable from two roots is kept once.
// Files that fail to parse are skipped and recorded as non-fatal errors.
func (e *Engine) Discover(ctx context.Context) (*DiscoveryResult, error) {
	start := time.Now()
	result := &DiscoveryResult{Roots: e.InputDirs()}
	seen := make(map[string]bool)

	for _, root := range e.inputDirs {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		info, err := os.Stat(root)
		if err != nil || !info.IsDir() {
			e.logger.Debug("input directory not found", "path", root)
			result.MissingDirs = append(result.MissingDirs, root)
			continue
		}

		walkErr := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				result.Errors = append(result.Errors, DiscoveryError{Path: path, Type: "walk", Message: err.Error()})
				return nil
			}
			if d.IsDir() {
				if path != root && strings.HasPrefix(d.Name(), ".") {
					return filepath.SkipDir
				}
				return nil
			}
			if !IsYAML(d.Name()) {
				return nil
			}

			absPath, err := filepath.Abs(path)
			if err != nil {
				absPath = path
			}
			if seen[absPath] {
				return nil
			}
			seen[absPath] = true
			e.inspect(absPath, result)
			return nil
		})
		if walkErr != nil {
			return result, fmt.Errorf("walk %s: %w", root, walkErr)
		}
	}

	result.Duration = time.Since(start)
	e.logger.Debug("discovery completed",
		"units", len(result.Units),
		"scanned", result.Scanned,
		"skipped", result.Skipped,
		"duration_ms", result.Duration.Milliseconds())
	return result, nil
}

func (e *Engine) inspect(path string, result *DiscoveryResult) {
	result.Scanned++
	data, err := os.ReadFile(path) //nolint:gosec // G304: path is produced by filepath.WalkDir over input roots
	if err != nil {
		result.Skipped++
		result.Errors = append(result.Errors, DiscoveryError{Path: path, Type: "read", Message: err.Error()})
		return
	}
	doc, err := parser.Parse(data)
	if err != nil {
		e.logger.Debug("skipping unparsable YAML", "path", path, "error", err.Error())
		result.Skipped++
		result.Errors = append(result.Errors, DiscoveryError{Path: path, Type: "parse", Message: err.Error()})
		return
	}
	if !parser.IsCompilationUnit(doc) {
		result.Skipped++
		return
	}
	result.Units = append(result.Units, Unit{Path: path, Doc: doc, Metrics: parser.MetricCount(doc)})
}
