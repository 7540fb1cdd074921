package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/jafarshop/ledgersync/internal/app"
	"github.com/jafarshop/ledgersync/internal/config"
)

// Runs a single sync and prints the run summary as JSON. Exit code 2 means another run holds the lock.
func main() {
	_ = godotenv.Load(".env")
	_ = godotenv.Load("../.env")

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger, err := app.NewLogger(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize: %v\n", err)
		os.Exit(1)
	}
	defer a.Close()

	run, runErr := a.Syncer.RunSync(ctx)
	if run != nil {
		out, _ := json.MarshalIndent(run, "", "  ")
		fmt.Println(string(out))
	}
	if runErr != nil {
		fmt.Fprintf(os.Stderr, "Sync failed: %v\n", runErr)
		if run == nil {
			os.Exit(2)
		}
		os.Exit(1)
	}
}
