// Package main provides the metricsfirst CLI, which compiles metrics YAML
// v1 files into dbt semantic models YAML v2.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/Rdwburns/dbt-metrics-first/internal/cli"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := cli.Execute(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}
