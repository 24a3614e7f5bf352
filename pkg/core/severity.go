package core

import (
	"fmt"
	"strings"
)

// =============================================================================
// Severity
// =============================================================================

// Severity indicates the importance of a compiler diagnostic.
type Severity int

// Severity levels for diagnostics.
const (
	// SeverityError indicates a finding that prevented compilation.
	SeverityError Severity = iota
	// SeverityWarning indicates a likely authoring mistake that compiled anyway.
	SeverityWarning
	// SeverityInfo indicates informational feedback.
	SeverityInfo
)

// String returns the string representation of the severity.
func (s Severity) String() string {
	switch s {
	case SeverityError:
		return "error"
	case SeverityWarning:
		return "warning"
	case SeverityInfo:
		return "info"
	default:
		return "unknown"
	}
}

// ParseSeverity converts a string to a Severity value.
// Returns the severity and true if valid, or SeverityWarning and false if invalid.
func ParseSeverity(s string) (Severity, bool) {
	switch strings.ToLower(s) {
	case "error":
		return SeverityError, true
	case "warning":
		return SeverityWarning, true
	case "info":
		return SeverityInfo, true
	default:
		return SeverityWarning, false
	}
}

// MarshalText renders the severity by name in JSON reports.
func (s Severity) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// =============================================================================
// Diagnostic
// =============================================================================

// Diagnostic is a non-fatal finding raised while compiling one metric.
type Diagnostic struct {
	Severity Severity `json:"severity"`
	// Source identifies the input document (usually its file path)
	Source string `json:"source,omitempty"`
	// Metric is the name of the metric the finding belongs to
	Metric  string `json:"metric"`
	Message string `json:"message"`
}

func (d Diagnostic) String() string {
	if d.Source != "" {
		return fmt.Sprintf("%s: %s: metric %q: %s", d.Source, d.Severity, d.Metric, d.Message)
	}
	return fmt.Sprintf("%s: metric %q: %s", d.Severity, d.Metric, d.Message)
}
