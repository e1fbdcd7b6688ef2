package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/dmitrijs2005/gophstore/internal/client/cli"
	"github.com/dmitrijs2005/gophstore/internal/logging"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	level := os.Getenv("GOPHSTORE_LOG_LEVEL")
	if level == "" {
		level = "warn"
	}
	logger := logging.NewJSON(os.Stderr, level)

	root := cli.NewRootCommand(os.Stdin, os.Stdout, logger)
	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		stop()
		os.Exit(1)
	}
}
