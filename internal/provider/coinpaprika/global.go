package coinpaprika

import (
	"context"
	"encoding/json"
	"io"
	"net/http"

	"marketdata/internal/market"
)

// globalResponse is the flat /global payload. Only the fields this client
// maps are decoded.
type globalResponse struct {
	MarketCapUSD     float64 `json:"market_cap_usd"`
	Volume24hUSD     float64 `json:"volume_24h_usd"`
	BitcoinDominance float64 `json:"bitcoin_dominance_percentage"`
}

// GlobalSummary fetches /global and translates it onto the normalized
// summary. CoinPaprika reports only USD totals and BTC dominance, so ETH
// dominance and the 24h change are zero-filled rather than inferred.
func (c *Client) GlobalSummary(ctx context.Context) (market.GlobalMarketSummary, error) {
	var body globalResponse
	if err := c.getJSON(ctx, c.baseURL+"/global", &body); err != nil {
		return market.GlobalMarketSummary{}, err
	}
	return translateGlobal(body), nil
}

func translateGlobal(g globalResponse) market.GlobalMarketSummary {
	return market.GlobalMarketSummary{
		TotalMarketCap: map[string]float64{"usd": g.MarketCapUSD},
		TotalVolume:    map[string]float64{"usd": g.Volume24hUSD},
		MarketCapPercentage: map[string]float64{
			"btc": g.BitcoinDominance,
			"eth": 0,
		},
		MarketCapChange24h: 0,
	}
}

// getJSON is the client's own GET + status check + decode. Errors map to the
// shared kinds the same way the primary transport maps them.
func (c *Client) getJSON(ctx context.Context, rawURL string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, http.NoBody)
	if err != nil {
		return &market.InvalidURLError{URL: rawURL, Err: err}
	}
	req.Header = c.header.Clone()
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &market.RequestFailedError{URL: rawURL, Err: err}
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		io.Copy(io.Discard, resp.Body)
		return &market.RequestFailedError{URL: rawURL, Status: resp.StatusCode}
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &market.DecodingError{URL: rawURL, Err: err}
	}
	return nil
}
