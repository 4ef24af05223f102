// Package main is the entry point for the travelnotes CLI.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"travelnotes/internal/backend/gcp"
	"travelnotes/internal/cli"
	"travelnotes/internal/commands"
	"travelnotes/internal/config"
	"travelnotes/internal/service"
)

func main() {
	// Create context that cancels on interrupt
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Backend is built per command, after flags have selected the config dir
	factory := func(ctx context.Context, cfg *config.Config) (service.Service, error) {
		return gcp.New(ctx, cfg)
	}

	dispatcher := cli.NewDispatcher(commands.DefaultRegistry, factory)

	code := dispatcher.Run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}
