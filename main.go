package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/saint0x/issol/pkg/cli"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	code := cli.Execute(ctx, os.Args[1:], &cli.Options{})
	cancel()
	os.Exit(code)
}
