package config

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	intconfig "github.com/Rdwburns/dbt-metrics-first/internal/config"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

// loggerKey is used to store logger in context.
type loggerKey struct{}

// configKey is used to store the loaded config in context.
type configKey struct{}

// Package-level koanf instance and config source tracking
var (
	k              = koanf.New(".")
	configFileUsed string
	dbtProjectUsed string
)

// flagKeys maps CLI flag names onto config keys. Flags absent from the map
// are not configuration (e.g. --config itself).
var flagKeys = map[string]string{
	"input-dir":   "input_directories",
	"output-dir":  "output_directory",
	"no-validate": "validate_schema",
	"verbose":     "verbose_logging",
	"workers":     "workers",
	"format":      "output",
}

// inferProjectRoot determines the project root.
// Priority:
//  1. Directory of an explicit --config file
//  2. Search upward from CWD for metrics_first.yml or dbt_project.yml
//  3. Current working directory
func inferProjectRoot(cfgFile string) string {
	if cfgFile != "" {
		if abs, err := filepath.Abs(cfgFile); err == nil {
			return filepath.Dir(abs)
		}
		return filepath.Dir(cfgFile)
	}

	cwd, _ := os.Getwd()
	if cwd == "" {
		cwd = "."
	}
	if root := intconfig.FindProjectRoot(cwd); root != "" {
		return root
	}
	return cwd
}

// resolvePathRelativeTo resolves a path relative to baseDir if it's not absolute.
// Returns the path unchanged if it's empty or already absolute.
func resolvePathRelativeTo(path, baseDir string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(baseDir, path)
}

// splitList splits a comma-separated list, dropping empty items.
func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// ResetConfig resets the koanf instance. Used for testing.
func ResetConfig() {
	k = koanf.New(".")
	configFileUsed = ""
	dbtProjectUsed = ""
}

// LoadConfig loads configuration from defaults, project files, environment
// variables and flags.
// Precedence (highest to lowest): flags > env vars > config file > dbt vars > defaults
func LoadConfig(cfgFile string, flags *pflag.FlagSet) (*Config, error) {
	// Reset koanf for fresh load
	k = koanf.New(".")

	projectRoot := inferProjectRoot(cfgFile)

	// Input and output directories given as flags are relative to CWD,
	// not to the project root.
	var flagInputs []string
	var flagOutput string
	if flags != nil {
		if flags.Changed("input-dir") {
			dirs, _ := flags.GetStringSlice("input-dir")
			for _, d := range dirs {
				if abs, err := filepath.Abs(d); err == nil {
					flagInputs = append(flagInputs, abs)
				}
			}
		}
		if flags.Changed("output-dir") {
			if v, _ := flags.GetString("output-dir"); v != "" {
				flagOutput, _ = filepath.Abs(v)
			}
		}
	}

	// 1. Load defaults
	if err := k.Load(confmap.Provider(intconfig.Defaults(), "."), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// 2-3. dbt project vars, then the config file
	src, err := intconfig.LoadProjectLayers(k, projectRoot, cfgFile)
	if err != nil {
		return nil, err
	}
	configFileUsed = src.ConfigFile
	dbtProjectUsed = src.DbtProject

	// 4. Load environment variables (METRICS_FIRST_ prefix)
	// Transform: METRICS_FIRST_OUTPUT_DIRECTORY -> output_directory
	if err := k.Load(env.ProviderWithValue(EnvPrefix, ".", func(key, value string) (string, interface{}) {
		key = strings.ToLower(strings.TrimPrefix(key, EnvPrefix))
		if key == "input_directories" {
			return key, splitList(value)
		}
		return key, value
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	// 5. Load flags (highest priority - overrides env vars and config file)
	if flags != nil {
		if err := k.Load(posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, interface{}) {
			// Only load flags that were explicitly set
			if !f.Changed {
				return "", nil
			}
			key, ok := flagKeys[f.Name]
			if !ok {
				return "", nil
			}

			// --no-validate is the negation of validate_schema
			if f.Name == "no-validate" {
				skip, _ := flags.GetBool(f.Name)
				return key, !skip
			}

			return key, posflag.FlagVal(flags, f)
		}), nil); err != nil {
			return nil, fmt.Errorf("failed to load flags: %w", err)
		}
	}

	// 6. Unmarshal into Config struct
	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	// 7. Set project root and resolve relative paths
	cfg.ProjectRoot = projectRoot
	if len(flagInputs) > 0 {
		cfg.InputDirectories = flagInputs
	} else {
		for i, dir := range cfg.InputDirectories {
			cfg.InputDirectories[i] = resolvePathRelativeTo(dir, projectRoot)
		}
	}
	if flagOutput != "" {
		cfg.OutputDirectory = flagOutput
	} else {
		cfg.OutputDirectory = resolvePathRelativeTo(cfg.OutputDirectory, projectRoot)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// GetConfigFileUsed returns the path to the config file being used, if any.
func GetConfigFileUsed() string {
	return configFileUsed
}

// GetDbtProjectUsed returns the dbt project file whose vars were merged, if any.
func GetDbtProjectUsed() string {
	return dbtProjectUsed
}

// LoggerKey returns the context key used for storing the logger.
// This allows the commands package to retrieve the logger from context
// without creating an import cycle with the cli package.
func LoggerKey() interface{} {
	return loggerKey{}
}

// ConfigKey returns the context key used for storing the loaded config.
func ConfigKey() interface{} {
	return configKey{}
}

// GetConfig retrieves the loaded config from the command context.
// Returns nil if none was stored.
func GetConfig(ctx context.Context) *Config {
	if ctx == nil {
		return nil
	}
	c, _ := ctx.Value(configKey{}).(*Config)
	return c
}

// GetLogger retrieves the logger from the command context.
func GetLogger(ctx context.Context) *slog.Logger {
	if ctx != nil {
		if l, ok := ctx.Value(loggerKey{}).(*slog.Logger); ok {
			return l
		}
	}
	// Return discard logger as safe fallback
	return slog.New(slog.DiscardHandler)
}
