package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/jafarshop/ledgersync/internal/app"
	"github.com/jafarshop/ledgersync/internal/cache"
	"github.com/jafarshop/ledgersync/internal/config"
)

func main() {
	refresh := flag.Bool("refresh", false, "Drop the cached token and request a new one")
	show := flag.Bool("show", false, "Print the full token instead of a prefix")
	flag.Parse()

	_ = godotenv.Load(".env")
	_ = godotenv.Load("../.env")

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger, _ := zap.NewDevelopment()
	defer logger.Sync()

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	store, err := cache.New(ctx, cfg.Redis, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize cache: %v\n", err)
		os.Exit(1)
	}
	defer store.Close()

	tokens, _, err := app.NewLedger(cfg, store, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize ledger client: %v\n", err)
		os.Exit(1)
	}

	if *refresh {
		if err := tokens.Invalidate(ctx); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to drop cached token: %v\n", err)
			os.Exit(1)
		}
	}

	token, err := tokens.GetAccessToken(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to get access token: %v\n", err)
		os.Exit(1)
	}

	if *show || len(token) <= 12 {
		fmt.Printf("Access token: %s\n", token)
	} else {
		fmt.Printf("Access token: %s... (%d chars, use -show to print it)\n", token[:12], len(token))
	}
	fmt.Printf("Ledger: %s\n", cfg.Ledger.BaseURL)
}
