package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/jafarshop/ledgersync/internal/api/middleware"
)

func main() {
	keyFlag := flag.String("key", "", "Admin API key to hash")
	flag.Parse()

	apiKey := *keyFlag
	if apiKey == "" && flag.NArg() >= 1 {
		apiKey = flag.Arg(0)
	}
	if apiKey == "" {
		fmt.Println("Usage:")
		fmt.Println("  go run cmd/hash-admin-key/main.go --key \"your-admin-key\"")
		os.Exit(1)
	}

	// Trim so the stored hash matches what the server receives (the middleware trims the Bearer token)
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		fmt.Fprintf(os.Stderr, "Error: API key cannot be empty after trimming.\n")
		os.Exit(1)
	}

	hash, err := middleware.HashAPIKey(apiKey)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to hash API key: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Add this to your .env file:\n")
	fmt.Printf("ADMIN_API_KEY_HASH=%s\n", hash)
	fmt.Printf("\nThen call the admin routes with:\n")
	fmt.Printf("Authorization: Bearer <your key>\n")
}
