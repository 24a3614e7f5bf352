package core

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for the failure kinds of a compilation.
var (
	// ErrSchema indicates a structural violation of the input dialect.
	ErrSchema = errors.New("schema error")
	// ErrUnsupportedAggregation indicates an aggregation outside the supported set.
	ErrUnsupportedAggregation = errors.New("unsupported aggregation")
	// ErrMissingParameter indicates an aggregation without its required parameter.
	ErrMissingParameter = errors.New("missing aggregation parameter")
	// ErrMissingField indicates a type-specific required field is absent.
	ErrMissingField = errors.New("missing field")
	// ErrOutputCollision indicates two inputs resolve to the same output file.
	ErrOutputCollision = errors.New("output path collision")
	// ErrNoMetrics indicates a document with an empty metrics list.
	ErrNoMetrics = errors.New("no metrics to compile")
)

// NoIndex marks a SchemaError that is not tied to a metrics entry.
const NoIndex = -1

// SchemaError represents a structural violation in one input document.
type SchemaError struct {
	Source  string // Input identifier
	Index   int    // Metrics entry index, or NoIndex
	Message string
}

// Error implements the error interface.
func (e *SchemaError) Error() string {
	var b strings.Builder
	b.WriteString("schema error")
	if e.Source != "" {
		b.WriteString(" in ")
		b.WriteString(e.Source)
	}
	if e.Index >= 0 {
		fmt.Fprintf(&b, " at metrics[%d]", e.Index)
	}
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	return b.String()
}

// Is reports whether the target matches the sentinel error for SchemaError.
func (e *SchemaError) Is(target error) bool {
	return target == ErrSchema
}

// NewSchemaError creates a new SchemaError.
func NewSchemaError(source string, index int, format string, args ...any) *SchemaError {
	return &SchemaError{
		Source:  source,
		Index:   index,
		Message: fmt.Sprintf(format, args...),
	}
}

// UnsupportedAggregationError reports an aggregation spelling that does not
// normalize to a supported aggregation.
type UnsupportedAggregationError struct {
	Source      string
	Metric      string
	Aggregation string
	Supported   []string
}

// Error implements the error interface.
func (e *UnsupportedAggregationError) Error() string {
	msg := fmt.Sprintf("metric %q: unsupported aggregation %q (supported: %s)",
		e.Metric, e.Aggregation, strings.Join(e.Supported, ", "))
	if e.Source != "" {
		return e.Source + ": " + msg
	}
	return msg
}

// Is reports whether the target matches the sentinel error for UnsupportedAggregationError.
func (e *UnsupportedAggregationError) Is(target error) bool {
	return target == ErrUnsupportedAggregation
}

// MissingParameterError reports an aggregation that lacks a required parameter.
type MissingParameterError struct {
	Source    string
	Metric    string
	Parameter string
}

// Error implements the error interface.
func (e *MissingParameterError) Error() string {
	msg := fmt.Sprintf("metric %q: aggregation requires parameter %q", e.Metric, e.Parameter)
	if e.Source != "" {
		return e.Source + ": " + msg
	}
	return msg
}

// Is reports whether the target matches the sentinel error for MissingParameterError.
func (e *MissingParameterError) Is(target error) bool {
	return target == ErrMissingParameter
}

// MissingFieldError reports a metric type whose required field is absent.
type MissingFieldError struct {
	Source string
	Metric string
	Type   MetricType
	Field  string
}

// Error implements the error interface.
func (e *MissingFieldError) Error() string {
	msg := fmt.Sprintf("metric %q: %s metric requires field %q", e.Metric, e.Type, e.Field)
	if e.Source != "" {
		return e.Source + ": " + msg
	}
	return msg
}

// Is reports whether the target matches the sentinel error for MissingFieldError.
func (e *MissingFieldError) Is(target error) bool {
	return target == ErrMissingField
}

// Stage names the step of a file's compilation that failed.
type Stage string

// Compilation stages in pipeline order.
const (
	StageRead     Stage = "read"
	StageParse    Stage = "parse"
	StageValidate Stage = "validate"
	StageDecode   Stage = "decode"
	StageCompile  Stage = "compile"
	StageResolve  Stage = "resolve"
	StageWrite    Stage = "write"
)

// StageError attributes an error to a compilation stage.
type StageError struct {
	Stage Stage
	Err   error
}

// Error implements the error interface.
func (e *StageError) Error() string {
	return fmt.Sprintf("%s: %v", e.Stage, e.Err)
}

// Unwrap returns the underlying error.
func (e *StageError) Unwrap() error {
	return e.Err
}

// AtStage wraps err with stage, or returns nil when err is nil.
func AtStage(stage Stage, err error) error {
	if err == nil {
		return nil
	}
	return &StageError{Stage: stage, Err: err}
}

// StageOf returns the stage recorded on err, or def when none is.
func StageOf(err error, def Stage) Stage {
	var se *StageError
	if errors.As(err, &se) {
		return se.Stage
	}
	return def
}
