package main

import (
	"context"
	"encoding/json"
	"math"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/pkg/errors"
)

const defaultFinnhubBaseURL = "https://finnhub.io/api/v1"

// QuotePayload is the subset of a Finnhub quote the watchlist uses.
// A nil field means the provider did not send a usable value.
type QuotePayload struct {
	Current       *float64 // c
	PreviousClose *float64 // pc
	Open          *float64 // o
	High          *float64 // h
	Low           *float64 // l
}

// ProfilePayload is the subset of a Finnhub company profile the watchlist uses.
type ProfilePayload struct {
	Name                 string   // name
	Exchange             string   // exchange
	MarketCapitalization *float64 // marketCapitalization
	PE                   *float64 // pe
}

type FinnhubClient struct {
	client *resty.Client
}

func NewFinnhubClient(baseURL, apiKey string, timeout time.Duration) *FinnhubClient {
	if baseURL == "" {
		baseURL = defaultFinnhubBaseURL
	}

	client := resty.New()
	client.SetBaseURL(baseURL)
	client.SetTimeout(timeout)
	client.SetHeader("Accept", "application/json")
	if apiKey != "" {
		client.SetQueryParam("token", apiKey)
	}

	return &FinnhubClient{client: client}
}

func (f *FinnhubClient) GetQuote(ctx context.Context, symbol string) (QuotePayload, error) {
	fields, err := f.getFields(ctx, "/quote", symbol)
	if err != nil {
		return QuotePayload{}, err
	}

	return QuotePayload{
		Current:       numberField(fields, "c"),
		PreviousClose: numberField(fields, "pc"),
		Open:          numberField(fields, "o"),
		High:          numberField(fields, "h"),
		Low:           numberField(fields, "l"),
	}, nil
}

func (f *FinnhubClient) GetProfile(ctx context.Context, symbol string) (ProfilePayload, error) {
	fields, err := f.getFields(ctx, "/stock/profile2", symbol)
	if err != nil {
		return ProfilePayload{}, err
	}

	return ProfilePayload{
		Name:                 stringField(fields, "name"),
		Exchange:             stringField(fields, "exchange"),
		MarketCapitalization: numberField(fields, "marketCapitalization"),
		PE:                   numberField(fields, "pe"),
	}, nil
}

// getFields fetches path for symbol and splits the JSON object into raw fields
// so that each one can be decoded on its own.
func (f *FinnhubClient) getFields(ctx context.Context, path, symbol string) (map[string]json.RawMessage, error) {
	resp, err := f.client.R().
		SetContext(ctx).
		SetQueryParam("symbol", symbol).
		Get(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to fetch %s for %s", path, symbol)
	}

	if !resp.IsSuccess() {
		return nil, errors.Errorf("unexpected status code for %s %s: %d", path, symbol, resp.StatusCode())
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(resp.Body(), &fields); err != nil {
		return nil, errors.Wrapf(err, "failed to parse %s response for %s", path, symbol)
	}
	return fields, nil
}

func numberField(fields map[string]json.RawMessage, key string) *float64 {
	raw, ok := fields[key]
	if !ok || string(raw) == "null" {
		return nil
	}

	var value float64
	if err := json.Unmarshal(raw, &value); err != nil {
		return nil
	}
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return nil
	}
	return &value
}

func stringField(fields map[string]json.RawMessage, key string) string {
	raw, ok := fields[key]
	if !ok {
		return ""
	}

	var value string
	if err := json.Unmarshal(raw, &value); err != nil {
		return ""
	}
	return value
}
