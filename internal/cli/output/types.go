package output

// DiagnosticInfo is one compiler diagnostic in JSON output.
type DiagnosticInfo struct {
	Severity string `json:"severity"`
	Source   string `json:"source,omitempty"`
	Metric   string `json:"metric,omitempty"`
	Message  string `json:"message"`
}

// FileInfo is the outcome of compiling one input file.
type FileInfo struct {
	Path        string           `json:"path"`
	Output      string           `json:"output,omitempty"`
	Status      Status           `json:"status"`
	Models      int              `json:"models"`
	Metrics     int              `json:"metrics"`
	Stage       string           `json:"stage,omitempty"`
	Error       string           `json:"error,omitempty"`
	Diagnostics []DiagnosticInfo `json:"diagnostics,omitempty"`
	DurationMS  int64            `json:"duration_ms"`
}

// RunSummary holds the batch totals.
type RunSummary struct {
	FilesProcessed   int `json:"files_processed"`
	ModelsGenerated  int `json:"models_generated"`
	MetricsProcessed int `json:"metrics_processed"`
	Errors           int `json:"errors"`
	Warnings         int `json:"warnings"`
	Skipped          int `json:"skipped"`
}

// RunOutput is the JSON output of compile and validate.
type RunOutput struct {
	RunID       string     `json:"run_id"`
	DryRun      bool       `json:"dry_run"`
	Files       []FileInfo `json:"files"`
	OutputFiles []string   `json:"output_files"`
	Summary     RunSummary `json:"summary"`
	DurationMS  int64      `json:"duration_ms"`
}

// UnitInfo is one discovered metrics-first file.
type UnitInfo struct {
	Path    string `json:"path"`
	Metrics int    `json:"metrics"`
	Target  string `json:"target"`
}

// ListSummary holds discovery totals.
type ListSummary struct {
	Units   int `json:"units"`
	Metrics int `json:"metrics"`
	Scanned int `json:"scanned"`
	Skipped int `json:"skipped"`
}

// ListOutput is the JSON output of list.
type ListOutput struct {
	InputDirectories []string    `json:"input_directories"`
	MissingDirs      []string    `json:"missing_directories,omitempty"`
	Units            []UnitInfo  `json:"units"`
	Summary          ListSummary `json:"summary"`
}
