// Command sqldrill-reseed rebuilds the practice database from the seed
// scripts. Errors are reported on the console; the process still exits 0 so
// wrapper scripts keep going, matching the historical reset tool.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/sqldrill/sqldrill/internal/config"
	"github.com/sqldrill/sqldrill/internal/observability"
	"github.com/sqldrill/sqldrill/internal/seed"
)

func main() {
	cfg, err := config.LoadFromEnv("sqldrill-reseed")
	if err != nil {
		fmt.Printf("failed to load config: %v\n", err)
		return
	}

	logger := observability.NewLogger(cfg, os.Stderr)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	runner := &seed.Runner{
		Driver: cfg.Practice.Driver,
		DSN:    cfg.Practice.DSN,
		Dir:    cfg.Seed.Dir,
		Files:  cfg.Seed.Files,
		Logger: logger,
	}

	fmt.Printf("reseeding %s database %q from %s\n", cfg.Practice.Driver, cfg.Practice.DSN, cfg.Seed.Dir)
	if err := runner.Run(ctx); err != nil {
		logger.Error("reseed failed", slog.Any("error", err))
		fmt.Printf("reseed failed: %v\n", err)
		return
	}
	fmt.Println("database reseeded")
}
