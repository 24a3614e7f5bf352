package config

import (
	"fmt"
	"slices"
	"strings"
)

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if len(c.InputDirectories) == 0 {
		return fmt.Errorf("input_directories must list at least one directory")
	}
	for i, dir := range c.InputDirectories {
		if strings.TrimSpace(dir) == "" {
			return fmt.Errorf("input_directories[%d] is empty", i)
		}
	}
	if c.OutputDirectory == "" {
		return fmt.Errorf("output_directory is required")
	}
	if c.Workers < 0 {
		return fmt.Errorf("workers must not be negative, got %d", c.Workers)
	}
	if c.OutputFormat != "" && !slices.Contains(OutputFormats, c.OutputFormat) {
		return fmt.Errorf("unknown output format %q (expected one of: %s)",
			c.OutputFormat, strings.Join(OutputFormats, ", "))
	}
	return nil
}
