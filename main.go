package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
)

func main() {
	cfg, err := LoadConfig(os.Args[1:])
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	switch cfg.Mode {
	case "web":
		runWebMode(cfg)
	case "cli":
		runCLIMode(cfg)
	}
}

func openBackend(cfg Config) (Backend, error) {
	if cfg.Store == "mongo" {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return NewMongoStore(ctx, cfg.MongoURI, cfg.MongoDatabase)
	}
	return NewDatabase(cfg.DBPath)
}

func runWebMode(cfg Config) {
	log.Println("=== Stock Watchlist Web Server ===")
	log.Printf("Store: %s", cfg.Store)
	log.Printf("Server will start on http://localhost:%s", cfg.Port)

	backend, err := openBackend(cfg)
	if err != nil {
		log.Fatalf("Failed to open store: %v", err)
	}
	defer backend.Close()

	provider := NewFinnhubClient(cfg.FinnhubURL, cfg.FinnhubKey, cfg.EnrichTimeout)
	enricher := NewWatchlistEnricher(backend, provider, cfg.EnrichTimeout)

	var scheduler *Scheduler
	if cfg.EnableDigest {
		scheduler, err = NewScheduler(backend, enricher, LogDigestSink{}, cfg.DigestSchedule, cfg.DigestTimezone)
		if err != nil {
			log.Printf("Warning: Failed to initialize scheduler: %v", err)
		}
	}

	gin.SetMode(gin.ReleaseMode)
	server := NewWebServer(backend, backend, enricher, scheduler)
	defer server.Close()

	if err := server.Run(":" + cfg.Port); err != nil {
		log.Fatalf("Failed to start web server: %v", err)
	}
}

func runCLIMode(cfg Config) {
	log.Println("=== Stock Watchlist CLI ===")
	log.Printf("Action: %s", cfg.Action)

	backend, err := openBackend(cfg)
	if err != nil {
		log.Fatalf("Failed to open store: %v", err)
	}
	defer backend.Close()

	ctx := context.Background()

	if cfg.Action == "user" {
		if cfg.Email == "" {
			log.Fatalf("-email is required for the user action")
		}
		owner, err := backend.CreateUser(ctx, cfg.Email, "")
		if err != nil {
			log.Fatalf("Failed to create user: %v", err)
		}
		token, err := backend.CreateSession(ctx, owner.ID, cfg.SessionTTL)
		if err != nil {
			log.Fatalf("Failed to create session: %v", err)
		}
		log.Printf("Created user %s (%s)", owner.Email, owner.ID)
		fmt.Println(token)
		return
	}

	owner, err := findOwner(ctx, backend, cfg.Email)
	if err != nil {
		log.Fatalf("%v", err)
	}

	switch cfg.Action {
	case "add":
		req, err := NewRequestValidator().ValidateAddRequest(AddWatchlistRequest{Symbol: cfg.Symbol, Company: cfg.Company})
		if err != nil {
			log.Fatalf("Invalid request: %v", err)
		}
		entry, err := backend.AddWatchlistEntry(ctx, owner.ID, req.Symbol, req.Company)
		if err != nil {
			log.Fatalf("Failed to add %s: %v", req.Symbol, err)
		}
		log.Printf("Added %s (%s)", entry.Symbol, entry.Company)

	case "remove":
		if err := backend.RemoveWatchlistEntry(ctx, owner.ID, cfg.Symbol); err != nil {
			log.Fatalf("Failed to remove %s: %v", cfg.Symbol, err)
		}
		log.Printf("Removed %s", normalizeSymbol(cfg.Symbol))

	case "symbols":
		symbols, err := backend.GetWatchlistSymbolsByEmail(ctx, owner.Email)
		if err != nil {
			log.Fatalf("Failed to list symbols: %v", err)
		}
		for _, symbol := range symbols {
			fmt.Println(symbol)
		}

	case "list":
		provider := NewFinnhubClient(cfg.FinnhubURL, cfg.FinnhubKey, cfg.EnrichTimeout)
		enricher := NewWatchlistEnricher(backend, provider, cfg.EnrichTimeout)
		start := time.Now()
		entries, err := enricher.EnrichWatchlist(ctx, owner.ID)
		if err != nil {
			log.Fatalf("Watchlist temporarily unavailable: %v", err)
		}
		log.Printf("Enriched %d entries in %v", len(entries), time.Since(start))
		for _, e := range entries {
			fmt.Printf("%-6s %-30s %10s %8s %10s %8s\n",
				e.Symbol, e.Company, e.PriceFormatted, e.ChangeFormatted, e.MarketCap, e.PERatio)
		}

	default:
		log.Printf("Unknown action: %s", cfg.Action)
		log.Printf("Available actions: add, remove, list, symbols, user")
		os.Exit(1)
	}
}

// findOwner looks up the owner with the given email.
func findOwner(ctx context.Context, owners OwnerLister, email string) (Owner, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return Owner{}, errors.New("-email is required for this action")
	}
	list, err := owners.ListOwners(ctx)
	if err != nil {
		return Owner{}, err
	}
	for _, owner := range list {
		if owner.Email == email {
			return owner, nil
		}
	}
	return Owner{}, errors.Errorf("no user with email %s", email)
}
