package commands

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/Rdwburns/dbt-metrics-first/internal/cli/output"
	"github.com/Rdwburns/dbt-metrics-first/internal/engine"
)

// NewListCommand creates the list command.
func NewListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List discovered metrics-first files",
		Long: `List every metrics-first file found below the input directories with its
metric count and the semantic models file it compiles to.

Output adapts to environment:
  - Terminal: Styled table
  - Piped/Scripted: Markdown format (agent-friendly)

Use --format to override: auto, text, markdown, json`,
		Example: `  # List files (auto-detect output format)
  metricsfirst list

  # List files as JSON
  metricsfirst list --format json`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runList(cmd)
		},
	}
}

func runList(cmd *cobra.Command) error {
	cmdCtx, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	disc, err := cmdCtx.Engine.Discover(ctx)
	if err != nil {
		return fmt.Errorf("failed to discover files: %w", err)
	}

	listing := buildListing(cmdCtx, disc)

	r := cmdCtx.Renderer
	if r.EffectiveMode() == output.ModeJSON {
		return r.JSON(listing)
	}

	r.Header(1, fmt.Sprintf("Metrics-first files (%d total)", listing.Summary.Units))
	if len(listing.Units) == 0 {
		renderNoFiles(r, cmdCtx.Cfg.ProjectRoot, disc)
		return nil
	}

	rows := make([][]string, 0, len(listing.Units))
	for _, u := range listing.Units {
		rows = append(rows, []string{u.Path, strconv.Itoa(u.Metrics), u.Target})
	}
	r.Table([]string{"File", "Metrics", "Target"}, rows)

	for _, dir := range listing.MissingDirs {
		r.Muted("Not found: " + dir)
	}
	r.Muted(disc.Summary())
	return nil
}

func buildListing(cmdCtx *CommandContext, disc *engine.DiscoveryResult) output.ListOutput {
	root := cmdCtx.Cfg.ProjectRoot
	listing := output.ListOutput{
		Units: make([]output.UnitInfo, 0, len(disc.Units)),
		Summary: output.ListSummary{
			Units:   len(disc.Units),
			Scanned: disc.Scanned,
			Skipped: disc.Skipped,
		},
	}

	for _, dir := range disc.Roots {
		listing.InputDirectories = append(listing.InputDirectories, displayPath(root, dir))
	}
	for _, dir := range disc.MissingDirs {
		listing.MissingDirs = append(listing.MissingDirs, displayPath(root, dir))
	}

	for _, u := range disc.Units {
		target, err := cmdCtx.Engine.Target(u.Path)
		if err != nil {
			cmdCtx.Logger.Warn("failed to resolve output path", "path", u.Path, "error", err)
		}
		listing.Units = append(listing.Units, output.UnitInfo{
			Path:    displayPath(root, u.Path),
			Metrics: u.Metrics,
			Target:  displayPath(root, target),
		})
		listing.Summary.Metrics += u.Metrics
	}

	return listing
}
