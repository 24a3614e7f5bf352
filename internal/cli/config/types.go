// Package config provides configuration management for the metrics-first CLI.
//
// This package extends the shared project configuration from
// internal/config with CLI-specific fields such as the worker count and
// the output format.
package config

import (
	sharedcfg "github.com/Rdwburns/dbt-metrics-first/internal/config"
)

// ProjectConfig is an alias for the shared project configuration.
type ProjectConfig = sharedcfg.ProjectConfig

// Config holds all CLI configuration options.
type Config struct {
	ProjectConfig `koanf:",squash"`

	// Workers bounds concurrent file compilation. Zero means one per CPU.
	Workers      int    `koanf:"workers"`
	OutputFormat string `koanf:"output"`

	// ProjectRoot is the directory relative paths were resolved against.
	ProjectRoot string `koanf:"-"`
}

// Output formats accepted by --format.
const (
	FormatAuto     = "auto" // Auto-detect: TTY=text, non-TTY=markdown
	FormatText     = "text"
	FormatMarkdown = "markdown"
	FormatJSON     = "json"
)

// OutputFormats lists the accepted output formats in display order.
var OutputFormats = []string{FormatAuto, FormatText, FormatMarkdown, FormatJSON}

// EnvPrefix is the prefix of environment variables read by the loader.
const EnvPrefix = "METRICS_FIRST_"
