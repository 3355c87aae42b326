package main

import (
	"context"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/gaugyan/storefront/internal/config"
	"github.com/gaugyan/storefront/internal/domain"
	"github.com/gaugyan/storefront/internal/repository/postgres"
)

func main() {
	if len(os.Args) < 3 {
		fmt.Println("Usage: go run cmd/create-client/main.go <client-name> <api-key>")
		fmt.Println("Example: go run cmd/create-client/main.go \"GauGyan Web\" \"web-api-key-12345\"")
		os.Exit(1)
	}

	clientName := os.Args[1]
	apiKey := os.Args[2]

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger, _ := zap.NewDevelopment()
	defer logger.Sync()

	db, err := postgres.NewConnection(cfg.Database)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to connect to database: %v\n", err)
		os.Exit(1)
	}
	defer db.Close()

	ctx := context.Background()
	if err := postgres.Migrate(ctx, db); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to migrate database: %v\n", err)
		os.Exit(1)
	}

	apiKeyHash, err := postgres.HashAPIKey(apiKey)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to hash API key: %v\n", err)
		os.Exit(1)
	}

	repos := postgres.NewRepositories(db, logger)

	client := &domain.APIClient{
		Name:       clientName,
		APIKeyHash: apiKeyHash,
		IsActive:   true,
	}
	if err := repos.APIClient.Create(ctx, client); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create API client: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("API client created\n\n")
	fmt.Printf("Client ID:   %s\n", client.ID.String())
	fmt.Printf("Client Name: %s\n", client.Name)
	fmt.Printf("API Key:     %s\n", apiKey)
	fmt.Printf("\nThe key is stored hashed and cannot be shown again.\n")
	fmt.Printf("Send it with every request when API_REQUIRE_KEY=true:\n")
	fmt.Printf("Authorization: Bearer %s\n", apiKey)
}
