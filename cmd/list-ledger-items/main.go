package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/jafarshop/ledgersync/internal/app"
	"github.com/jafarshop/ledgersync/internal/cache"
	"github.com/jafarshop/ledgersync/internal/config"
	"github.com/jafarshop/ledgersync/internal/ledger"
)

func main() {
	search := flag.String("search", "", "Only show items whose code or name contains this text")
	withStock := flag.Bool("stock", false, "Also fetch /Stocks and show availability")
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

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	store, err := cache.New(ctx, cfg.Redis, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize cache: %v\n", err)
		os.Exit(1)
	}
	defer store.Close()

	_, client, err := app.NewLedger(cfg, store, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize ledger client: %v\n", err)
		os.Exit(1)
	}

	items, err := client.FetchCatalog(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to fetch catalog: %v\n", err)
		os.Exit(1)
	}

	var stock map[string]ledgerStock
	if *withStock {
		feed, err := client.FetchStock(ctx)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to fetch stock: %v\n", err)
		} else {
			stock = make(map[string]ledgerStock)
			for sku, s := range ledger.NormalizeStock(feed) {
				stock[sku] = ledgerStock{available: s.Available, unit: s.Unit}
			}
		}
	}

	sort.SliceStable(items, func(i, j int) bool { return items[i].Code < items[j].Code })

	needle := strings.ToLower(*search)
	shown := 0
	fmt.Printf("%-20s %-40s %-24s %12s", "CODE", "NAME", "GROUP", "PRICE")
	if stock != nil {
		fmt.Printf(" %12s", "AVAILABLE")
	}
	fmt.Println()
	for _, item := range items {
		if needle != "" && !strings.Contains(strings.ToLower(item.Code), needle) && !strings.Contains(strings.ToLower(item.Name), needle) {
			continue
		}
		fmt.Printf("%-20s %-40s %-24s %12s", item.Code, truncate(item.Name, 40), truncate(item.DefaultGroup, 24), ledger.RetailPrice(item.Prices).StringFixed(2))
		if stock != nil {
			s := stock[item.Code]
			fmt.Printf(" %12.2f %s", s.available, s.unit)
		}
		fmt.Println()
		shown++
	}

	fmt.Printf("\n%d of %d items\n", shown, len(items))
}

type ledgerStock struct {
	available float64
	unit      string
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
