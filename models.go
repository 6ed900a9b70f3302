package main

import (
	"time"
)

// WatchlistEntry is one stock an owner keeps on their watchlist.
type WatchlistEntry struct {
	OwnerID string    `json:"userId"`
	Symbol  string    `json:"symbol"`
	Company string    `json:"company"`
	AddedAt time.Time `json:"addedAt"`
}

// EnrichedWatchlistEntry is a WatchlistEntry merged with live market data.
// It is built per request and never stored.
type EnrichedWatchlistEntry struct {
	WatchlistEntry
	CurrentPrice    float64 `json:"currentPrice"`
	ChangePercent   float64 `json:"changePercent"`
	PriceFormatted  string  `json:"priceFormatted"`
	ChangeFormatted string  `json:"changeFormatted"`
	MarketCap       string  `json:"marketCap"`
	PERatio         string  `json:"peRatio"`
}

// Owner is the authenticated user a watchlist belongs to.
type Owner struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

type AddWatchlistRequest struct {
	Symbol  string `json:"symbol" binding:"required" validate:"required,ticker"`
	Company string `json:"company" validate:"max=200"`
}

type ActionResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

type SymbolsResponse struct {
	Symbols []string `json:"symbols"`
}
