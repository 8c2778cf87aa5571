// Package view renders normalized market data as plain text for the CLI.
package view

import (
	"fmt"
	"sort"
	"strings"

	"marketdata/internal/market"
)

// DominanceRow is one coin's share of total market cap, ready for display.
type DominanceRow struct {
	Symbol  string
	Percent float64
}

// DominanceRows flattens a summary's dominance map into rows sorted by
// share descending, symbol ascending on ties, so output is stable.
func DominanceRows(g market.GlobalMarketSummary) []DominanceRow {
	out := make([]DominanceRow, 0, len(g.MarketCapPercentage))
	for sym, pct := range g.MarketCapPercentage {
		out = append(out, DominanceRow{Symbol: sym, Percent: pct})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Percent != out[j].Percent {
			return out[i].Percent > out[j].Percent
		}
		return out[i].Symbol < out[j].Symbol
	})
	return out
}

// Summary renders a global market summary as a small text block.
func Summary(g market.GlobalMarketSummary) string {
	var b strings.Builder
	fmt.Fprintf(&b, "total market cap (usd): %.0f\n", g.TotalMarketCap["usd"])
	fmt.Fprintf(&b, "total volume 24h (usd): %.0f\n", g.TotalVolume["usd"])
	fmt.Fprintf(&b, "market cap change 24h:  %.2f%%\n", g.MarketCapChange24h)
	rows := DominanceRows(g)
	if len(rows) > 0 {
		b.WriteString("dominance:\n")
	}
	for _, r := range rows {
		fmt.Fprintf(&b, "  %-6s %6.2f%%\n", r.Symbol, r.Percent)
	}
	return b.String()
}

// MarketTable renders up to n market rows as aligned text columns.
func MarketTable(coins []market.MarketCoin, n int) string {
	if n <= 0 || n > len(coins) {
		n = len(coins)
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%-16s %-8s %14s %9s %9s %16s\n", "name", "symbol", "price", "1h", "24h", "market cap")
	for _, c := range coins[:n] {
		name := c.Name
		if len(name) > 16 {
			name = name[:16]
		}
		fmt.Fprintf(&b, "%-16s %-8s %14.4f %8.2f%% %8.2f%% %16.0f\n",
			name, c.Symbol, c.CurrentPrice, c.PriceChange1h, c.PriceChange24h, c.MarketCap)
	}
	return b.String()
}
