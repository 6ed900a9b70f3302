package main

import (
	"flag"
	"os"
	"time"

	"github.com/pkg/errors"
)

const finnhubAPIKeyEnv = "FINNHUB_API_KEY"

// Config holds every command line setting of the process.
type Config struct {
	Mode   string
	Action string
	Port   string

	Store         string
	DBPath        string
	MongoURI      string
	MongoDatabase string

	FinnhubURL    string
	FinnhubKey    string
	EnrichTimeout time.Duration

	EnableDigest   bool
	DigestSchedule string
	DigestTimezone string

	// CLI arguments
	Symbol     string
	Company    string
	Email      string
	SessionTTL time.Duration
}

func DefaultConfig() Config {
	return Config{
		Mode:           "web",
		Action:         "list",
		Port:           "8080",
		Store:          "sqlite",
		DBPath:         "watchlist.db",
		MongoURI:       "mongodb://localhost:27017",
		MongoDatabase:  "stocks",
		FinnhubURL:     defaultFinnhubBaseURL,
		EnrichTimeout:  DefaultEnrichTimeout,
		EnableDigest:   false,
		DigestSchedule: "0 8 * * *",
		DigestTimezone: "America/New_York",
		SessionTTL:     7 * 24 * time.Hour,
	}
}

// LoadConfig parses args on top of DefaultConfig. The Finnhub key falls back
// to the FINNHUB_API_KEY environment variable.
func LoadConfig(args []string) (Config, error) {
	cfg := DefaultConfig()

	fs := flag.NewFlagSet("stock-watchlist", flag.ContinueOnError)
	fs.StringVar(&cfg.Mode, "mode", cfg.Mode, "Run mode: web, cli")
	fs.StringVar(&cfg.Action, "action", cfg.Action, "CLI action: add, remove, list, symbols, user")
	fs.StringVar(&cfg.Port, "port", cfg.Port, "Web server port")
	fs.StringVar(&cfg.Store, "store", cfg.Store, "Watchlist store: sqlite, mongo")
	fs.StringVar(&cfg.DBPath, "db", cfg.DBPath, "SQLite database file path")
	fs.StringVar(&cfg.MongoURI, "mongo-uri", cfg.MongoURI, "MongoDB connection URI")
	fs.StringVar(&cfg.MongoDatabase, "mongo-db", cfg.MongoDatabase, "MongoDB database name")
	fs.StringVar(&cfg.FinnhubURL, "finnhub-url", cfg.FinnhubURL, "Finnhub API base URL")
	fs.StringVar(&cfg.FinnhubKey, "finnhub-key", "", "Finnhub API key.\n If missing it will read the environment variable \""+finnhubAPIKeyEnv+"\"")
	fs.DurationVar(&cfg.EnrichTimeout, "enrich-timeout", cfg.EnrichTimeout, "Market data budget per watchlist row")
	fs.BoolVar(&cfg.EnableDigest, "digest", cfg.EnableDigest, "Run the scheduled watchlist digest in web mode")
	fs.StringVar(&cfg.DigestSchedule, "digest-schedule", cfg.DigestSchedule, "Cron schedule of the watchlist digest")
	fs.StringVar(&cfg.DigestTimezone, "digest-timezone", cfg.DigestTimezone, "Timezone of the digest schedule")
	fs.StringVar(&cfg.Symbol, "symbol", "", "Stock symbol for add/remove")
	fs.StringVar(&cfg.Company, "company", "", "Company name for add")
	fs.StringVar(&cfg.Email, "email", "", "Owner email for CLI actions")
	fs.DurationVar(&cfg.SessionTTL, "session-ttl", cfg.SessionTTL, "Lifetime of sessions created by the user action")

	if err := fs.Parse(args); err != nil {
		return cfg, errors.Wrap(err, "failed to parse flags")
	}

	if cfg.FinnhubKey == "" {
		cfg.FinnhubKey = os.Getenv(finnhubAPIKeyEnv)
	}

	return cfg, cfg.Validate()
}

func (c Config) Validate() error {
	switch c.Mode {
	case "web", "cli":
	default:
		return errors.Errorf("unknown mode %q, available modes: web, cli", c.Mode)
	}

	switch c.Store {
	case "sqlite":
		if c.DBPath == "" {
			return errors.New("sqlite store requires -db")
		}
	case "mongo":
		if c.MongoURI == "" || c.MongoDatabase == "" {
			return errors.New("mongo store requires -mongo-uri and -mongo-db")
		}
	default:
		return errors.Errorf("unknown store %q, available stores: sqlite, mongo", c.Store)
	}

	if c.EnrichTimeout <= 0 {
		return errors.New("enrich-timeout must be positive")
	}
	return nil
}
