// Package cli provides the command-line interface for metricsfirst.
package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/Rdwburns/dbt-metrics-first/internal/cli/commands"
	"github.com/Rdwburns/dbt-metrics-first/internal/cli/config"
	intconfig "github.com/Rdwburns/dbt-metrics-first/internal/config"
)

var cfgFile string

// Version information (set at build time).
var (
	Version   = "0.1.0"
	BuildDate = "unknown"
	GitCommit = "unknown"
)

// NewRootCmd creates and returns the root command. Running it without a
// subcommand compiles the project.
func NewRootCmd() *cobra.Command {
	compileOpts := &commands.CompileOptions{}

	rootCmd := &cobra.Command{
		Use:   "metricsfirst",
		Short: "metricsfirst - metrics-first compiler for dbt",
		Long: `metricsfirst compiles metrics YAML v1 files into dbt semantic models
YAML v2.

Each metric states its measure, dimensions and entities in one place; the
compiler groups them by source table into semantic models and emits the
matching metric definitions.`,
		Version: Version,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			// Skip config loading for help, version and completion commands
			switch cmd.Name() {
			case "help", "version", "completion", "__complete":
				return nil
			}

			cfg, err := config.LoadConfig(cfgFile, cmd.Root().PersistentFlags())
			if err != nil {
				return err
			}

			logger := newLogger(cmd.ErrOrStderr(), cfg.VerboseLogging)
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			ctx = context.WithValue(ctx, config.ConfigKey(), cfg)
			ctx = context.WithValue(ctx, config.LoggerKey(), logger)
			cmd.SetContext(ctx)

			if file := config.GetConfigFileUsed(); file != "" {
				logger.Debug("using config file", "path", file)
			}
			if file := config.GetDbtProjectUsed(); file != "" {
				logger.Debug("using dbt project vars", "path", file)
			}

			return nil
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return commands.RunCompile(cmd, compileOpts)
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Set version template
	rootCmd.SetVersionTemplate(`{{.Name}} {{.Version}}
`)

	// Global persistent flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./"+intconfig.ConfigFileName+")")
	rootCmd.PersistentFlags().StringSliceP("input-dir", "i", intconfig.DefaultInputDirectories(), "Input directories to search (repeatable or comma-separated)")
	rootCmd.PersistentFlags().StringP("output-dir", "o", intconfig.DefaultOutputDirectory, "Output directory for semantic models")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Verbose output")
	rootCmd.PersistentFlags().Bool("no-validate", false, "Skip schema validation")
	rootCmd.PersistentFlags().IntP("workers", "j", intconfig.DefaultWorkers, "Files compiled concurrently (0 = one per CPU)")
	rootCmd.PersistentFlags().StringP("format", "f", "", "Output format (auto|text|markdown|json)")

	// Register completion for format flag
	_ = rootCmd.RegisterFlagCompletionFunc("format", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return config.OutputFormats, cobra.ShellCompDirectiveNoFileComp
	})
	_ = rootCmd.MarkPersistentFlagDirname("input-dir")
	_ = rootCmd.MarkPersistentFlagDirname("output-dir")

	// Add subcommands
	rootCmd.AddCommand(commands.NewVersionCommand(Version))
	rootCmd.AddCommand(commands.NewCompileCommand())
	rootCmd.AddCommand(commands.NewValidateCommand())
	rootCmd.AddCommand(commands.NewListCommand())
	rootCmd.AddCommand(NewCompletionCommand())

	return rootCmd
}

// newLogger builds the CLI logger: debug level when verbose, warnings
// otherwise.
func newLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// Execute runs the root command.
func Execute(ctx context.Context) error {
	rootCmd := NewRootCmd()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return err
	}
	return nil
}

// NewCompletionCommand creates the completion command.
func NewCompletionCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Generate shell completion scripts",
		Long: `Generate shell completion scripts for metricsfirst.

To load completions:

Bash:
  $ source <(metricsfirst completion bash)

Zsh:
  $ metricsfirst completion zsh > "${fpath[1]}/_metricsfirst"

Fish:
  $ metricsfirst completion fish | source

PowerShell:
  PS> metricsfirst completion powershell | Out-String | Invoke-Expression
`,
		DisableFlagsInUseLine: true,
		ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			switch args[0] {
			case "bash":
				return cmd.Root().GenBashCompletion(out)
			case "zsh":
				return cmd.Root().GenZshCompletion(out)
			case "fish":
				return cmd.Root().GenFishCompletion(out, true)
			case "powershell":
				return cmd.Root().GenPowerShellCompletionWithDesc(out)
			}
			return nil
		},
	}
	return cmd
}
