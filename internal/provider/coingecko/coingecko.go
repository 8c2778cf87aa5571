package coingecko

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"marketdata/internal/httpx"
	"marketdata/internal/market"
	"marketdata/internal/provider"
)

const defaultBaseURL = "https://api.coingecko.com/api/v3"

// Config controls the CoinGecko client behavior.
type Config struct {
	Name    string
	BaseURL string
}

// Client is the primary market-data source. Every method is one stateless
// GET + decode + normalize; nothing is retained between calls.
type Client struct {
	cfg    Config
	client *httpx.Client
}

func New(cfg Config, hc *httpx.Client) *Client {
	if cfg.Name == "" {
		cfg.Name = "CoinGecko"
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	return &Client{cfg: cfg, client: hc}
}

func (c *Client) Name() string { return c.cfg.Name }

// simplePriceResponse is the /simple/price shape: coin id -> currency -> price.
type simplePriceResponse map[string]map[string]float64

// SimplePrice returns USD spot prices for the given coin ids. The result
// contains exactly the ids present upstream; nothing is synthesized for ids
// the provider does not know.
func (c *Client) SimplePrice(ctx context.Context, ids []string) (market.PriceQuote, error) {
	if len(ids) == 0 {
		return nil, &market.InvalidURLError{URL: c.cfg.BaseURL + "/simple/price", Err: fmt.Errorf("no coin ids")}
	}
	q := url.Values{}
	q.Set("ids", strings.Join(ids, ","))
	q.Set("vs_currencies", "usd")
	u := fmt.Sprintf("%s/simple/price?%s", c.cfg.BaseURL, q.Encode())

	body, err := httpx.FetchJSON[simplePriceResponse](ctx, c.client, u)
	if err != nil {
		return nil, err
	}
	out := make(market.PriceQuote, len(body))
	for id, quotes := range body {
		if usd, ok := quotes["usd"]; ok {
			out[id] = usd
		}
	}
	return out, nil
}

// marketChartResponse is the /coins/{id}/market_chart shape. Each entry is
// nominally a [timestamp_ms, price] pair.
type marketChartResponse struct {
	Prices [][]float64 `json:"prices"`
}

// MarketChart returns the price series for one coin over a lookback window
// in days. Entries that are not exactly [timestamp, price] pairs are dropped;
// the order of the surviving entries is preserved.
func (c *Client) MarketChart(ctx context.Context, id string, days int) ([]market.HistoricalPoint, error) {
	if id == "" {
		return nil, &market.InvalidURLError{URL: c.cfg.BaseURL + "/coins//market_chart", Err: fmt.Errorf("empty coin id")}
	}
	q := url.Values{}
	q.Set("vs_currency", "usd")
	q.Set("days", strconv.Itoa(days))
	u := fmt.Sprintf("%s/coins/%s/market_chart?%s", c.cfg.BaseURL, url.PathEscape(id), q.Encode())

	body, err := httpx.FetchJSON[marketChartResponse](ctx, c.client, u)
	if err != nil {
		return nil, err
	}
	out := make([]market.HistoricalPoint, 0, len(body.Prices))
	for _, e := range body.Prices {
		if len(e) != 2 {
			continue
		}
		out = append(out, market.HistoricalPoint{
			Timestamp: time.Unix(int64(e[0])/1000, 0).UTC(),
			Price:     e[1],
		})
	}
	return out, nil
}

// globalEnvelope wraps the /global payload one level deep.
type globalEnvelope struct {
	Data market.GlobalMarketSummary `json:"data"`
}

// GlobalSummary returns the provider's global market summary. The payload
// already matches the normalized shape; only the envelope is stripped.
func (c *Client) GlobalSummary(ctx context.Context) (market.GlobalMarketSummary, error) {
	body, err := httpx.FetchJSON[globalEnvelope](ctx, c.client, c.cfg.BaseURL+"/global")
	if err != nil {
		return market.GlobalMarketSummary{}, err
	}
	return body.Data, nil
}

// Markets returns one page of market listings ordered by market cap
// descending. The native array shape decodes directly into MarketCoin.
func (c *Client) Markets(ctx context.Context, req provider.PageRequest) ([]market.MarketCoin, error) {
	if req.Page <= 0 {
		req.Page = 1
	}
	if req.PerPage <= 0 {
		req.PerPage = 100
	}
	q := url.Values{}
	q.Set("vs_currency", "usd")
	q.Set("order", "market_cap_desc")
	q.Set("per_page", strconv.Itoa(req.PerPage))
	q.Set("page", strconv.Itoa(req.Page))
	q.Set("sparkline", strconv.FormatBool(req.Sparkline))
	q.Set("price_change_percentage", "1h,24h")
	u := fmt.Sprintf("%s/coins/markets?%s", c.cfg.BaseURL, q.Encode())

	return httpx.FetchJSON[[]market.MarketCoin](ctx, c.client, u)
}
