// Package main provides the entry point for the movielists API server.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/samber/do/v2"

	"github.com/Clark-Hu/movielists/internal/di"
	"github.com/Clark-Hu/movielists/internal/di/providers"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	injector := di.NewContainer()

	if err := di.Bootstrap(injector); err != nil {
		fmt.Fprintf(os.Stderr, "failed to bootstrap server: %v\n", err)
		os.Exit(1)
	}

	log := do.MustInvoke[*slog.Logger](injector)
	server := do.MustInvoke[*providers.HTTPServerHandle](injector)

	if err := server.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Error("server error", "error", err)
	}

	log.Info("shutting down server gracefully")

	// The container shuts services down in reverse dependency order.
	if err := injector.Shutdown(); err != nil {
		log.Error("shutdown error", "error", err)
	}
}
