package coinpaprika

import (
	"context"
	"fmt"
	"net/url"

	"marketdata/internal/market"
	"marketdata/internal/provider"
)

// ticker is one /tickers entry. Quotes are keyed by currency code; each
// quote carries the per-currency figures this client maps.
type ticker struct {
	ID     string           `json:"id"`
	Name   string           `json:"name"`
	Symbol string           `json:"symbol"`
	Quotes map[string]quote `json:"quotes"`
}

type quote struct {
	Price            float64  `json:"price"`
	Volume24h        float64  `json:"volume_24h"`
	MarketCap        float64  `json:"market_cap"`
	PercentChange1h  *float64 `json:"percent_change_1h"`
	PercentChange24h float64  `json:"percent_change_24h"`
}

// Tickers fetches one page of /tickers via limit/offset and translates each
// entry to a MarketCoin. A ticker without a USD quote is an error, never a
// silent substitution of another currency.
func (c *Client) Tickers(ctx context.Context, limit, offset int) ([]market.MarketCoin, error) {
	q := url.Values{}
	q.Set("quotes", "USD")
	q.Set("limit", fmt.Sprintf("%d", limit))
	q.Set("offset", fmt.Sprintf("%d", offset))
	u := fmt.Sprintf("%s/tickers?%s", c.baseURL, q.Encode())

	var body []ticker
	if err := c.getJSON(ctx, u, &body); err != nil {
		return nil, err
	}
	out := make([]market.MarketCoin, 0, len(body))
	for _, t := range body {
		coin, err := translateTicker(t)
		if err != nil {
			return nil, err
		}
		out = append(out, coin)
	}
	return out, nil
}

// Markets adapts limit/offset paging to the shared page request. CoinPaprika
// supplies no sparkline or image data, so those fields stay absent.
func (c *Client) Markets(ctx context.Context, req provider.PageRequest) ([]market.MarketCoin, error) {
	page := req.Page
	if page <= 0 {
		page = 1
	}
	perPage := req.PerPage
	if perPage <= 0 {
		perPage = 100
	}
	return c.Tickers(ctx, perPage, (page-1)*perPage)
}

func translateTicker(t ticker) (market.MarketCoin, error) {
	usd, ok := t.Quotes["USD"]
	if !ok {
		return market.MarketCoin{}, &market.QuoteNotFoundError{TickerID: t.ID, Currency: "USD"}
	}
	change1h := 0.0
	if usd.PercentChange1h != nil {
		change1h = *usd.PercentChange1h
	}
	return market.MarketCoin{
		ID:             t.ID,
		Symbol:         t.Symbol,
		Name:           t.Name,
		CurrentPrice:   usd.Price,
		PriceChange24h: usd.PercentChange24h,
		PriceChange1h:  change1h,
		TotalVolume:    usd.Volume24h,
		MarketCap:      usd.MarketCap,
		Favorite:       false,
	}, nil
}
