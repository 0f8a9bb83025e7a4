package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	_ "time/tzdata"

	"github.com/mikey/clawtools/internal/cli"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	code := cli.Run(newRootCmd(ctx, os.Stdout), os.Args[1:], os.Stderr)
	stop()
	os.Exit(code)
}
