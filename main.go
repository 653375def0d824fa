package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/fernvale/daybook/cmd"
	kerrors "github.com/fernvale/daybook/internal/errors"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := cmd.RootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(kerrors.ExitCode(err))
	}
}
