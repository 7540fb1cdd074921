package main

import (
	"context"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/joho/godotenv"

	"github.com/jafarshop/ledgersync/internal/app"
	"github.com/jafarshop/ledgersync/internal/config"
)

// Prints the storefront SKU index the reconciler matches ledger items against
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

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize: %v\n", err)
		os.Exit(1)
	}
	defer a.Close()

	index, err := a.Repos.Catalog.SKUIndex(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load SKU index: %v\n", err)
		os.Exit(1)
	}

	skus := make([]string, 0, len(index))
	for sku := range index {
		skus = append(skus, sku)
	}
	sort.Strings(skus)

	fmt.Printf("%-30s %s\n", "SKU", "ITEM ID")
	for _, sku := range skus {
		fmt.Printf("%-30s %s\n", sku, index[sku])
	}
	fmt.Printf("\nTotal: %d SKUs (driver: %s)\n", len(skus), cfg.Storefront.Driver)
}
