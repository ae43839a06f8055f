// Package prefs holds per-install display preferences: the currency prices
// are shown in and the UI language. Both persist in the same local state
// store as the cart registry.
package prefs

import (
	"fmt"
	"math"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Currency is a supported display currency. Catalog prices are always USD
// on the wire; display conversion happens client-side at a fixed rate.
type Currency string

const (
	USD Currency = "USD"
	VND Currency = "VND"
	THB Currency = "THB"
)

// DefaultCurrency is used until the user picks one.
const DefaultCurrency = USD

type currencyInfo struct {
	name     string
	rate     float64
	decimals int
	locale   string
	symbol   string
}

var currencies = map[Currency]currencyInfo{
	USD: {name: "US Dollar", rate: 1, decimals: 2, locale: "en-US", symbol: "$"},
	VND: {name: "Vietnamese Dong", rate: 24000, decimals: 0, locale: "vi-VN", symbol: "₫"},
	THB: {name: "Thai Baht", rate: 33.53, decimals: 2, locale: "th-TH", symbol: "฿"},
}

// Currencies lists the supported currencies in display order.
func Currencies() []Currency {
	return []Currency{USD, VND, THB}
}

// ParseCurrency validates a currency code, case-insensitively.
func ParseCurrency(code string) (Currency, error) {
	c := Currency(strings.ToUpper(code))
	if _, ok := currencies[c]; !ok {
		return "", fmt.Errorf("unsupported currency %q", code)
	}
	return c, nil
}

// Name returns the currency's display name.
func (c Currency) Name() string {
	return currencies[c].name
}

// Decimals returns how many fraction digits the currency displays.
func (c Currency) Decimals() int {
	return currencies[c].decimals
}

// Convert turns a USD amount into this currency at the fixed exchange rate,
// rounded to the currency's displayed precision.
func (c Currency) Convert(amountUSD float64) float64 {
	info := currencies[c]
	converted := amountUSD * info.rate
	scale := math.Pow10(info.decimals)
	return math.Round(converted*scale) / scale
}

// Format renders a USD amount as a localized string in this currency.
func (c Currency) Format(amountUSD float64) string {
	info := currencies[c]
	tag, err := language.Parse(info.locale)
	if err != nil {
		tag = language.English
	}

	p := message.NewPrinter(tag)
	if info.decimals == 0 {
		return info.symbol + p.Sprintf("%d", int64(c.Convert(amountUSD)))
	}
	format := fmt.Sprintf("%%.%df", info.decimals)
	return info.symbol + p.Sprintf(format, c.Convert(amountUSD))
}
