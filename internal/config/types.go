// Package config provides the shared project configuration for metrics-first.
// It carries no CLI concerns so other tooling can load a project's settings
// without a flag set.
package config

// ProjectConfig holds the project settings read from metrics_first.yml or
// from the dbt_metrics_first block of dbt_project.yml vars.
type ProjectConfig struct {
	// InputDirectories are searched recursively for metrics-first files.
	InputDirectories []string `koanf:"input_directories"`

	// OutputDirectory receives the generated semantic model files.
	OutputDirectory string `koanf:"output_directory"`

	ValidateSchema bool `koanf:"validate_schema"`
	VerboseLogging bool `koanf:"verbose_logging"`
}
