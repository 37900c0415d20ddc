package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"runcurry/internal/cli"
)

var version = "0.0.0-dev"

func main() {
	// Cancel the running toolchain process on SIGTERM or SIGINT; temporary
	// files are still removed before exiting.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)

	code, err := cli.Run(ctx, os.Args[1:], cli.ProcessEnvironment(version))
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
	}
	stop()
	os.Exit(code)
}
