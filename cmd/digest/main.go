// Package main is the digest command line.
// Usage: digest run [DIR] [--feed-url URL] [--output FILE] | digest segment FILE | digest tokens FILE...
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"docdigest/internal/cli"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := cli.Execute(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		stop()
		os.Exit(1)
	}
}
