package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Rdwburns/dbt-metrics-first/internal/engine"
)

// CompileOptions holds options for the compile command.
type CompileOptions struct {
	Watch bool
}

// NewCompileCommand creates the compile command.
func NewCompileCommand() *cobra.Command {
	opts := &CompileOptions{}

	cmd := &cobra.Command{
		Use:   "compile",
		Short: "Compile metrics-first files into dbt semantic models",
		Long: `Compile every metrics-first file found below the input directories into
a dbt semantic models file under the output directory.

A file is compiled when it is a mapping with version: 1 and a metrics list.
Other YAML files are skipped. A failing file never stops the others; the
command exits non-zero when any file failed.`,
		Example: `  # Compile with the default directories
  metricsfirst compile

  # Compile one directory into a custom output root
  metricsfirst compile -i metrics -o models/semantic

  # Recompile on every change
  metricsfirst compile --watch`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return RunCompile(cmd, opts)
		},
	}

	cmd.Flags().BoolVarP(&opts.Watch, "watch", "w", false, "Recompile when input files change")

	return cmd
}

// RunCompile compiles the project once, or continuously with opts.Watch.
func RunCompile(cmd *cobra.Command, opts *CompileOptions) error {
	cmdCtx, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	if opts != nil && opts.Watch {
		return watchCompile(ctx, cmdCtx)
	}

	result, err := cmdCtx.Engine.Run(ctx, engine.RunOptions{})
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

func watchCompile(ctx context.Context, cmdCtx *CommandContext) error {
	r := cmdCtx.Renderer
	root := cmdCtx.Cfg.ProjectRoot

	err := cmdCtx.Engine.Watch(ctx, engine.RunOptions{}, func(result *engine.RunResult, err error) {
		if err != nil {
			r.Warning(fmt.Sprintf("compile failed: %v", err))
			return
		}
		if err := renderRun(r, root, result); err != nil {
			cmdCtx.Logger.Error("failed to render result", "error", err)
		}
		r.Muted("Watching for changes... (Ctrl+C to stop)")
	})
	if err != nil {
		return fmt.Errorf("watch failed: %w", err)
	}
	return nil
}
