package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"fjacquet/databonsai/cmd/categorize"
	"fjacquet/databonsai/cmd/root"
	"fjacquet/databonsai/cmd/transform"
	"fjacquet/databonsai/cmd/usage"
	"fjacquet/databonsai/internal/config"
)

func init() {
	// Load .env before viper reads the environment
	config.LoadEnv(nil)

	root.Init()

	root.Cmd.AddCommand(categorize.Cmd)
	root.Cmd.AddCommand(transform.Cmd)
	root.Cmd.AddCommand(usage.Cmd)
}

func main() {
	// Ctrl-C stops the run between batches; the output written so far is kept.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := root.Cmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}
