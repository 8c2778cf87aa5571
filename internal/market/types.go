package market

import "time"

// PriceQuote maps a coin id to its spot price in USD.
// Ids absent upstream are absent here; nothing is synthesized.
type PriceQuote map[string]float64

// HistoricalPoint is one (timestamp, price) sample of a price series.
// Timestamps carry second resolution (upstream reports epoch milliseconds).
type HistoricalPoint struct {
	Timestamp time.Time `json:"timestamp"`
	Price     float64   `json:"price"`
}

// GlobalMarketSummary is the normalized shape of a provider's /global
// endpoint. Maps are keyed by lower-case currency code ("usd") or coin
// symbol ("btc", "eth"). When derived from the fallback provider only the
// USD/BTC fields are populated; the rest are zero-filled.
type GlobalMarketSummary struct {
	TotalMarketCap      map[string]float64 `json:"total_market_cap"`
	TotalVolume         map[string]float64 `json:"total_volume"`
	MarketCapPercentage map[string]float64 `json:"market_cap_percentage"`
	MarketCapChange24h  float64            `json:"market_cap_change_percentage_24h_usd"`
}

// Sparkline is a compact price series attached to a market listing.
type Sparkline struct {
	Price []float64 `json:"price"`
}

// MarketCoin is one row of a market listing. Field tags align 1:1 with the
// primary provider's coins/markets payload so rows decode directly; the
// fallback provider is mapped onto this shape by hand. Sparkline and image
// are absent when sourced from the fallback provider, and Favorite is always
// false on a fresh fetch.
type MarketCoin struct {
	ID             string     `json:"id"`
	Symbol         string     `json:"symbol"`
	Name           string     `json:"name"`
	CurrentPrice   float64    `json:"current_price"`
	PriceChange24h float64    `json:"price_change_percentage_24h"`
	PriceChange1h  float64    `json:"price_change_percentage_1h_in_currency"`
	TotalVolume    float64    `json:"total_volume"`
	MarketCap      float64    `json:"market_cap"`
	Favorite       bool       `json:"favorite"`
	SparklineIn7d  *Sparkline `json:"sparkline_in_7d,omitempty"`
	Image          string     `json:"image,omitempty"`
}
