// Package commands implements the metrics-first CLI commands.
package commands

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Rdwburns/dbt-metrics-first/internal/cli/config"
	"github.com/Rdwburns/dbt-metrics-first/internal/cli/output"
	"github.com/Rdwburns/dbt-metrics-first/internal/engine"
)

// CommandContext holds the dependencies shared by commands.
type CommandContext struct {
	Cfg      *config.Config
	Logger   *slog.Logger
	Engine   *engine.Engine
	Renderer *output.Renderer
}

// NewCommandContext creates a CommandContext with an engine built from the
// loaded configuration.
func NewCommandContext(cmd *cobra.Command) (*CommandContext, error) {
	cfg, err := getConfig(cmd)
	if err != nil {
		return nil, err
	}
	logger := config.GetLogger(cmd.Context())

	eng, err := createEngine(cfg, logger)
	if err != nil {
		return nil, err
	}

	return &CommandContext{
		Cfg:      cfg,
		Logger:   logger,
		Engine:   eng,
		Renderer: output.NewRenderer(cmd.OutOrStdout(), cmd.ErrOrStderr(), output.Mode(cfg.OutputFormat)),
	}, nil
}

// Helper functions shared across commands

// getConfig returns the configuration stored by the root command, loading
// the defaults when a command runs on its own.
func getConfig(cmd *cobra.Command) (*config.Config, error) {
	if cfg := config.GetConfig(cmd.Context()); cfg != nil {
		return cfg, nil
	}
	cfg, err := config.LoadConfig("", nil)
	if err != nil {
		return nil, err
	}
	return cfg, nil
}

// createEngine creates an engine from the configuration.
func createEngine(cfg *config.Config, logger *slog.Logger) (*engine.Engine, error) {
	eng, err := engine.New(engine.Config{
		InputDirs:      cfg.InputDirectories,
		OutputDir:      cfg.OutputDirectory,
		SkipValidation: !cfg.ValidateSchema,
		Workers:        cfg.Workers,
		Logger:         logger,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create engine: %w", err)
	}
	return eng, nil
}

// displayPath shortens path relative to the project root when it lies
// below it.
func displayPath(root, path string) string {
	if root == "" || path == "" {
		return path
	}
	rel, err := filepath.Rel(root, path)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return path
	}
	return rel
}
