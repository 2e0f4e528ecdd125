package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/felixgeelhaar/legaltime/internal/cmd"
	"github.com/felixgeelhaar/legaltime/internal/exitcode"
	"github.com/felixgeelhaar/legaltime/internal/ux"
)

func main() {
	// Create a context that listens for interrupt signals
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := cmd.ExecuteContext(ctx); err != nil {
		// Check if error was due to context cancellation (e.g., Ctrl+C)
		if ctx.Err() == context.Canceled {
			fmt.Fprintln(os.Stderr, "\nOperation cancelled by user")
			exitcode.Exit(exitcode.Interrupted)
		}

		_, noColor := os.LookupEnv("NO_COLOR")
		fmt.Fprintln(os.Stderr, ux.RenderError(err, noColor))
		exitcode.ExitWithError(err)
	}
	exitcode.Exit(exitcode.Success)
}
