package main

import (
	"math"

	"github.com/shopspring/decimal"
)

// NotAvailable is shown in place of any market value the provider did not supply.
const NotAvailable = "N/A"

var billion = decimal.New(1, 9)

func unavailable(value float64) bool {
	return value == 0 || math.IsNaN(value) || math.IsInf(value, 0)
}

// FormatPrice renders 150.5 as "$150.50".
func FormatPrice(price float64) string {
	if unavailable(price) {
		return NotAvailable
	}
	return "$" + decimal.NewFromFloat(price).StringFixed(2)
}

// FormatChangePercent renders 1.234 as "+1.23%" and -0.5 as "-0.50%".
func FormatChangePercent(changePercent float64) string {
	if unavailable(changePercent) {
		return NotAvailable
	}
	sign := ""
	if changePercent >= 0 {
		sign = "+"
	}
	return sign + decimal.NewFromFloat(changePercent).StringFixed(2) + "%"
}

// FormatMarketCap renders a raw market capitalization in billions, e.g. "$2.9B".
func FormatMarketCap(marketCap float64) string {
	if unavailable(marketCap) {
		return NotAvailable
	}
	return "$" + decimal.NewFromFloat(marketCap).Div(billion).StringFixed(1) + "B"
}

func FormatPERatio(pe float64) string {
	if unavailable(pe) {
		return NotAvailable
	}
	return decimal.NewFromFloat(pe).StringFixed(2)
}
