package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/gaborage/go-prolific/internal/cli"
)

// Injected at build time via ldflags.
var version = "dev"

func main() {
	// A .env in the working directory is optional.
	_ = godotenv.Load()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	root := cli.RootCmd(cli.DefaultEnv(), version)
	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		cancel()
		os.Exit(cli.ExitCode(err))
	}
}
