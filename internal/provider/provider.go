package provider

import (
	"context"

	"marketdata/internal/market"
)

// PageRequest selects one page of a market listing.
// Sparkline is best-effort: sources that cannot supply a series ignore it.
type PageRequest struct {
	Page      int
	PerPage   int
	Sparkline bool
}

// GlobalSource returns a normalized global market summary.
type GlobalSource interface {
	Name() string
	GlobalSummary(ctx context.Context) (market.GlobalMarketSummary, error)
}

// MarketSource returns one page of normalized market listings.
type MarketSource interface {
	Name() string
	Markets(ctx context.Context, req PageRequest) ([]market.MarketCoin, error)
}
