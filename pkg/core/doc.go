// Package core defines the shared language of the metrics-first compiler.
//
// This package contains:
//   - Input entities (MetricSpec, MeasureSpec, SubMeasure, Dimension, Entity)
//   - Output entities (SemanticModel, Measure, MetricDefinition, CompilationUnit)
//   - Error kinds raised while validating and compiling a document
//   - Diagnostics for non-fatal findings
//
// The Golden Rule: pkg/core imports ONLY stdlib.
// All other packages depend on core, not the reverse.
package core
