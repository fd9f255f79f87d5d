// Package main provides gtstat, a CLI that simulates genotype tensors and
// prints statistics computed by the genotype package.
package main

import (
	"context"
	"os"
	"os/signal"
)

const version = "v0.1.0-dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}
