// Package emit places compiled units on disk.
package emit

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// OutputSuffix is appended to an input file's stem to name its output.
const OutputSuffix = "_semantic_models.yml"

// Resolver maps input files onto output paths under one output root.
type Resolver struct {
	inputDirs []string
	outputDir string
}

// NewResolver creates a resolver. Input roots are compared in order; the
// first one containing a file wins.
func NewResolver(inputDirs []string, outputDir string) *Resolver {
	roots := make([]string, 0, len(inputDirs))
	for _, dir := range inputDirs {
		abs, err := filepath.Abs(dir)
		if err != nil {
			continue
		}
		roots = append(roots, abs)
	}
	return &Resolver{inputDirs: roots, outputDir: outputDir}
}

// OutputDir returns the output root.
func (r *Resolver) OutputDir() string {
	return r.outputDir
}

// Target computes the output path for inputPath without touching the
// filesystem. Files nested below their input root keep their directory
// under the output root; everything else lands at the output root.
func (r *Resolver) Target(inputPath string) (string, error) {
	abs, err := filepath.Abs(inputPath)
	if err != nil {
		return "", fmt.Errorf("resolve %s: %w", inputPath, err)
	}
	base := filepath.Base(abs)
	name := strings.TrimSuffix(base, filepath.Ext(base)) + OutputSuffix

	if rel, ok := r.relative(abs); ok {
		if dir := filepath.Dir(rel); dir != "." {
			return filepath.Join(r.outputDir, dir, name), nil
		}
	}
	return filepath.Join(r.outputDir, name), nil
}

// Resolve computes the output path for inputPath and creates its parent
// directories. Repeated calls are no-ops once the directories exist.
func (r *Resolver) Resolve(inputPath string) (string, error) {
	target, err := r.Target(inputPath)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(target), 0750); err != nil {
		return "", fmt.Errorf("create output directory: %w", err)
	}
	return target, nil
}

func (r *Resolver) relative(abs string) (string, bool) {
	for _, root := range r.inputDirs {
		rel, err := filepath.Rel(root, abs)
		if err != nil {
			continue
		}
		if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
			continue
		}
		return rel, true
	}
	return "", false
}
