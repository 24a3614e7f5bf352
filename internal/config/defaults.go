package config

// Default configuration values.
const (
	DefaultOutputDirectory = "models"
	DefaultValidateSchema  = true
	DefaultWorkers         = 0
	DefaultOutput          = "auto"
)

// DefaultInputDirectories returns the directories searched when none are
// configured. A fresh slice is returned on every call.
func DefaultInputDirectories() []string {
	return []string{"metrics", "semantic_models", "models/metrics"}
}

// Defaults returns the default configuration as a flat koanf map.
func Defaults() map[string]any {
	return map[string]any{
		"input_directories": DefaultInputDirectories(),
		"output_directory":  DefaultOutputDirectory,
		"validate_schema":   DefaultValidateSchema,
		"verbose_logging":   false,
		"workers":           DefaultWorkers,
		"output":            DefaultOutput,
	}
}

// ApplyDefaults fills empty directory settings with their defaults.
func ApplyDefaults(c *ProjectConfig) {
	if c == nil {
		return
	}
	if len(c.InputDirectories) == 0 {
		c.InputDirectories = DefaultInputDirectories()
	}
	if c.OutputDirectory == "" {
		c.OutputDirectory = DefaultOutputDirectory
	}
}
