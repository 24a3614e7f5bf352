package commands

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/Rdwburns/dbt-metrics-first/internal/engine"
)

// NewValidateCommand creates the validate command.
func NewValidateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Check metrics-first files without writing output",
		Long: `Discover, validate and compile every metrics-first file without writing
any semantic models. Exits non-zero when any file would fail to compile.`,
		Example: `  # Validate in CI
  metricsfirst validate --format json`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runValidate(cmd)
		},
	}
}

func runValidate(cmd *cobra.Command) error {
	cmdCtx, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	result, err := cmdCtx.Engine.Run(ctx, engine.RunOptions{DryRun: true})
	if err != nil {
		return err
	}
	if err := renderRun(cmdCtx.Renderer, cmdCtx.Cfg.ProjectRoot, result); err != nil {
		return err
	}
	if result.HasErrors() {
		return errFilesFailed(result)
	}
	return nil
}
