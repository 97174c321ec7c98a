package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	root, release := newRootCmd(newApp)
	err := root.ExecuteContext(ctx)
	release()
	stop()

	if err != nil {
		os.Exit(1)
	}
}
