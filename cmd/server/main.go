package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/panel-configurator/backend/internal/cli"
)

// Version info (set during build)
var (
	Version   = "dev"
	Commit    = "none"
	BuildTime = "unknown"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cli.SetVersion(Version, Commit, BuildTime)

	if err := cli.New(os.Stdout, os.Stderr).RootCommand().ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}
