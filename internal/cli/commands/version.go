package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Rdwburns/dbt-metrics-first/internal/parser"
	"github.com/Rdwburns/dbt-metrics-first/pkg/core"
)

// NewVersionCommand creates the version command.
func NewVersionCommand(version string) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the compiler version",
		Long: `Print the metricsfirst version. The compiler reads metrics YAML
version 1 and writes dbt semantic models YAML version 2.`,
		Run: func(cmd *cobra.Command, _ []string) {
			out := cmd.OutOrStdout()
			_, _ = fmt.Fprintf(out, "metricsfirst v%s\n", version)
			_, _ = fmt.Fprintf(out, "input: metrics YAML v%d, output: dbt semantic models YAML v%d\n",
				parser.InputVersion, core.OutputVersion)
		},
	}
}
