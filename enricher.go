package main

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/pkg/errors"
)

// DefaultEnrichTimeout bounds the market data lookups of a single watchlist row.
const DefaultEnrichTimeout = 3 * time.Second

// MarketDataProvider fetches quotes and company profiles by ticker symbol.
type MarketDataProvider interface {
	GetQuote(ctx context.Context, symbol string) (QuotePayload, error)
	GetProfile(ctx context.Context, symbol string) (ProfilePayload, error)
}

// WatchlistEnricher merges stored watchlist entries with live market data.
type WatchlistEnricher struct {
	store    WatchlistReader
	provider MarketDataProvider
	timeout  time.Duration
}

func NewWatchlistEnricher(store WatchlistReader, provider MarketDataProvider, timeout time.Duration) *WatchlistEnricher {
	if timeout <= 0 {
		timeout = DefaultEnrichTimeout
	}
	return &WatchlistEnricher{
		store:    store,
		provider: provider,
		timeout:  timeout,
	}
}

// rowOutcome is what a row task hands back to the aggregator. settled is
// only false if the task never reached a result.
type rowOutcome struct {
	entry   EnrichedWatchlistEntry
	settled bool
}

// EnrichWatchlist returns one enriched entry per stored entry of ownerID, in
// store order. Market data failures degrade a row to N/A values; only a store
// failure is returned as an error. An empty ownerID yields an empty list.
func (e *WatchlistEnricher) EnrichWatchlist(ctx context.Context, ownerID string) ([]EnrichedWatchlistEntry, error) {
	if ownerID == "" {
		return []EnrichedWatchlistEntry{}, nil
	}

	entries, err := e.store.GetWatchlist(ctx, ownerID)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to load watchlist for %s", ownerID)
	}

	outcomes := make([]rowOutcome, len(entries))
	var wg sync.WaitGroup
	for i, entry := range entries {
		wg.Add(1)
		go func(i int, entry WatchlistEntry) {
			defer wg.Done()
			outcomes[i] = e.enrichRow(ctx, entry)
		}(i, entry)
	}
	wg.Wait()

	enriched := make([]EnrichedWatchlistEntry, 0, len(entries))
	for i, outcome := range outcomes {
		if !outcome.settled {
			log.Printf("[Enricher] Row %s did not settle, skipping", entries[i].Symbol)
			continue
		}
		enriched = append(enriched, outcome.entry)
	}
	return enriched, nil
}

func (e *WatchlistEnricher) enrichRow(ctx context.Context, entry WatchlistEntry) (outcome rowOutcome) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("[Enricher] Error enriching %s: %v", entry.Symbol, r)
			outcome = rowOutcome{entry: defaultEnrichedEntry(entry), settled: true}
		}
	}()

	quote, profile, err := e.fetchMarketData(ctx, entry.Symbol)
	if err != nil {
		log.Printf("[Enricher] Error fetching data for %s: %v", entry.Symbol, err)
		return rowOutcome{entry: defaultEnrichedEntry(entry), settled: true}
	}
	return rowOutcome{entry: buildEnrichedEntry(entry, quote, profile), settled: true}
}

// fetchMarketData issues the quote and profile lookups together and waits for
// both, up to e.timeout. A lookup that fails leaves its payload empty; running
// out of time discards both.
func (e *WatchlistEnricher) fetchMarketData(ctx context.Context, symbol string) (QuotePayload, ProfilePayload, error) {
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	var (
		quote   QuotePayload
		profile ProfilePayload
		wg      sync.WaitGroup
	)

	wg.Add(2)
	go func() {
		defer wg.Done()
		defer recoverLookup(symbol, "quote")
		q, err := e.provider.GetQuote(ctx, symbol)
		if err != nil {
			log.Printf("[Enricher] Quote for %s unavailable: %v", symbol, err)
			return
		}
		quote = q
	}()
	go func() {
		defer wg.Done()
		defer recoverLookup(symbol, "profile")
		p, err := e.provider.GetProfile(ctx, symbol)
		if err != nil {
			log.Printf("[Enricher] Profile for %s unavailable: %v", symbol, err)
			return
		}
		profile = p
	}()

	settled := make(chan struct{})
	go func() {
		wg.Wait()
		close(settled)
	}()

	select {
	case <-settled:
		return quote, profile, nil
	case <-ctx.Done():
		return QuotePayload{}, ProfilePayload{}, errors.Wrapf(ctx.Err(), "market data for %s", symbol)
	}
}

func recoverLookup(symbol, lookup string) {
	if r := recover(); r != nil {
		log.Printf("[Enricher] %s lookup for %s panicked: %v", lookup, symbol, r)
	}
}

func buildEnrichedEntry(entry WatchlistEntry, quote QuotePayload, profile ProfilePayload) EnrichedWatchlistEntry {
	currentPrice := valueOrZero(quote.Current)
	// A missing previous close counts as "no change".
	previousClose := valueOrZero(quote.PreviousClose)
	if previousClose == 0 {
		previousClose = currentPrice
	}

	var changePercent float64
	if previousClose != 0 {
		changePercent = (currentPrice - previousClose) / previousClose * 100
	}

	return EnrichedWatchlistEntry{
		WatchlistEntry:  entry,
		CurrentPrice:    currentPrice,
		ChangePercent:   changePercent,
		PriceFormatted:  FormatPrice(currentPrice),
		ChangeFormatted: FormatChangePercent(changePercent),
		MarketCap:       FormatMarketCap(valueOrZero(profile.MarketCapitalization)),
		PERatio:         FormatPERatio(valueOrZero(profile.PE)),
	}
}

func defaultEnrichedEntry(entry WatchlistEntry) EnrichedWatchlistEntry {
	return EnrichedWatchlistEntry{
		WatchlistEntry:  entry,
		PriceFormatted:  NotAvailable,
		ChangeFormatted: NotAvailable,
		MarketCap:       NotAvailable,
		PERatio:         NotAvailable,
	}
}

func valueOrZero(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}
