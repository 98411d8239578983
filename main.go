// entry point of the application
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"

	"ultradl/internal/cli"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	err := cli.Execute(ctx, cli.Streams{
		In:  os.Stdin,
		Out: os.Stdout,
		Err: os.Stderr,
	}, os.Args[1:])
	if err != nil {
		slog.ErrorContext(ctx, "ultradl", slog.Any("error", err))
		stop()
		os.Exit(1)
	}
}
