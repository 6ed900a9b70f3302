package main

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// fakeSymbol describes how the fake Finnhub server answers for one symbol.
type fakeSymbol struct {
	quote   string
	profile string
	status  int
	delay   time.Duration
}

func newFakeFinnhub(t *testing.T, symbols map[string]fakeSymbol) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cfg, ok := symbols[r.URL.Query().Get("symbol")]
		if !ok {
			http.NotFound(w, r)
			return
		}
		if cfg.delay > 0 {
			select {
			case <-time.After(cfg.delay):
			case <-r.Context().Done():
				return
			}
		}
		if cfg.status != 0 {
			w.WriteHeader(cfg.status)
			return
		}

		body := "{}"
		switch r.URL.Path {
		case "/quote":
			if cfg.quote != "" {
				body = cfg.quote
			}
		case "/stock/profile2":
			if cfg.profile != "" {
				body = cfg.profile
			}
		default:
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, body)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newTestDatabase(t *testing.T) *Database {
	t.Helper()
	db, err := NewDatabase(filepath.Join(t.TempDir(), "watchlist.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

// staticStore serves fixed watchlists and counts reads.
type staticStore struct {
	entries map[string][]WatchlistEntry
	err     error
	reads   int32
}

func (s *staticStore) GetWatchlist(ctx context.Context, ownerID string) ([]WatchlistEntry, error) {
	atomic.AddInt32(&s.reads, 1)
	if s.err != nil {
		return nil, s.err
	}
	return s.entries[ownerID], nil
}

// funcProvider adapts plain functions to MarketDataProvider.
type funcProvider struct {
	quote   func(symbol string) (QuotePayload, error)
	profile func(symbol string) (ProfilePayload, error)
}

func (f funcProvider) GetQuote(ctx context.Context, symbol string) (QuotePayload, error) {
	return f.quote(symbol)
}

func (f funcProvider) GetProfile(ctx context.Context, symbol string) (ProfilePayload, error) {
	return f.profile(symbol)
}

func float(v float64) *float64 {
	return &v
}

func entriesFor(owner string, symbols ...string) []WatchlistEntry {
	base := time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC)
	entries := make([]WatchlistEntry, 0, len(symbols))
	for i, symbol := range symbols {
		entries = append(entries, WatchlistEntry{
			OwnerID: owner,
			Symbol:  symbol,
			Company: symbol + " Inc.",
			AddedAt: base.Add(time.Duration(i) * time.Minute),
		})
	}
	return entries
}
