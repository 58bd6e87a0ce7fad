package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"promptrelay/cmd"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	code := cmd.Main(ctx, os.Args[1:], os.Stderr)
	stop()
	os.Exit(code)
}
