package main

import (
	"context"
	"os/signal"
	"syscall"
)

func main() {
	// Create context that listens for interrupt signals
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	executeContext(ctx)
}
