package coingecko_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"marketdata/internal/httpx"
	"marketdata/internal/market"
	"marketdata/internal/provider"
	"marketdata/internal/provider/coingecko"
)

func newClient(t *testing.T, handler http.HandlerFunc) *coingecko.Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return coingecko.New(coingecko.Config{BaseURL: srv.URL}, httpx.New(5*time.Second))
}

func TestSimplePrice_ExactIDsOnly(t *testing.T) {
	t.Parallel()

	client := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/simple/price", r.URL.Path)
		require.Equal(t, "bitcoin,ethereum,doesnotexist", r.URL.Query().Get("ids"))
		require.Equal(t, "usd", r.URL.Query().Get("vs_currencies"))
		// upstream omits unknown ids
		w.Write([]byte(`{"bitcoin":{"usd":60000.5},"ethereum":{"usd":2500.25}}`))
	})

	quote, err := client.SimplePrice(context.Background(), []string{"bitcoin", "ethereum", "doesnotexist"})
	require.NoError(t, err)
	require.Equal(t, market.PriceQuote{"bitcoin": 60000.5, "ethereum": 2500.25}, quote)

	// ids absent upstream stay absent; nothing is synthesized
	_, ok := quote["doesnotexist"]
	require.False(t, ok)
}

func TestSimplePrice_EmptyIDs(t *testing.T) {
	t.Parallel()

	client := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request should be issued")
	})

	_, err := client.SimplePrice(context.Background(), nil)
	var urlErr *market.InvalidURLError
	require.ErrorAs(t, err, &urlErr)
}

func TestMarketChart_DropsMalformedEntriesPreservesOrder(t *testing.T) {
	t.Parallel()

	client := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/coins/bitcoin/market_chart", r.URL.Path)
		require.Equal(t, "usd", r.URL.Query().Get("vs_currency"))
		require.Equal(t, "7", r.URL.Query().Get("days"))
		w.Write([]byte(`{"prices":[[1700000000000,100.0],[1700001800000],[1700003600000,101.5],[1700005400000,102.0,3]]}`))
	})

	points, err := client.MarketChart(context.Background(), "bitcoin", 7)
	require.NoError(t, err)

	// entries of length != 2 are silently dropped; survivors keep order
	require.Equal(t, []market.HistoricalPoint{
		{Timestamp: time.Unix(1700000000, 0).UTC(), Price: 100.0},
		{Timestamp: time.Unix(1700003600, 0).UTC(), Price: 101.5},
	}, points)
}

func TestMarketChart_TimestampIsMillisOverThousand(t *testing.T) {
	t.Parallel()

	client := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"prices":[[1700000000500,100.0]]}`))
	})

	points, err := client.MarketChart(context.Background(), "bitcoin", 1)
	require.NoError(t, err)
	require.Len(t, points, 1)
	// ms/1000 truncates sub-second precision
	require.Equal(t, time.Unix(1700000000, 0).UTC(), points[0].Timestamp)
}

func TestGlobalSummary_UnwrapsEnvelope(t *testing.T) {
	t.Parallel()

	client := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/global", r.URL.Path)
		w.Write([]byte(`{"data":{
			"total_market_cap":{"usd":2.5e12,"eur":2.3e12},
			"total_volume":{"usd":9e10},
			"market_cap_percentage":{"btc":51.2,"eth":17.8},
			"market_cap_change_percentage_24h_usd":-0.8
		}}`))
	})

	sum, err := client.GlobalSummary(context.Background())
	require.NoError(t, err)
	require.Equal(t, 2.5e12, sum.TotalMarketCap["usd"])
	require.Equal(t, 9e10, sum.TotalVolume["usd"])
	require.Equal(t, 51.2, sum.MarketCapPercentage["btc"])
	require.Equal(t, 17.8, sum.MarketCapPercentage["eth"])
	require.Equal(t, -0.8, sum.MarketCapChange24h)
}

func TestMarkets_QueryAndDirectDecode(t *testing.T) {
	t.Parallel()

	client := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/coins/markets", r.URL.Path)
		q := r.URL.Query()
		require.Equal(t, "usd", q.Get("vs_currency"))
		require.Equal(t, "market_cap_desc", q.Get("order"))
		require.Equal(t, "50", q.Get("per_page"))
		require.Equal(t, "2", q.Get("page"))
		require.Equal(t, "true", q.Get("sparkline"))
		require.Equal(t, "1h,24h", q.Get("price_change_percentage"))
		w.Write([]byte(`[{
			"id":"bitcoin","symbol":"btc","name":"Bitcoin",
			"current_price":60000.5,
			"price_change_percentage_24h":-1.2,
			"price_change_percentage_1h_in_currency":0.3,
			"total_volume":3.2e10,"market_cap":1.1e12,
			"sparkline_in_7d":{"price":[1,2,3]},
			"image":"https://img.example/btc.png"
		}]`))
	})

	coins, err := client.Markets(context.Background(), provider.PageRequest{Page: 2, PerPage: 50, Sparkline: true})
	require.NoError(t, err)
	require.Len(t, coins, 1)
	c := coins[0]
	require.Equal(t, "bitcoin", c.ID)
	require.Equal(t, "btc", c.Symbol)
	require.Equal(t, 0.3, c.PriceChange1h)
	require.Equal(t, -1.2, c.PriceChange24h)
	require.False(t, c.Favorite)
	require.NotNil(t, c.SparklineIn7d)
	require.Equal(t, []float64{1, 2, 3}, c.SparklineIn7d.Price)
	require.Equal(t, "https://img.example/btc.png", c.Image)
}

func TestAdapters_NonOKStatusNeverDecodes(t *testing.T) {
	t.Parallel()

	var hits int
	client := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		hits++
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte("definitely not json"))
	})

	checks := []func() error{
		func() error { _, err := client.SimplePrice(context.Background(), []string{"bitcoin"}); return err },
		func() error { _, err := client.MarketChart(context.Background(), "bitcoin", 7); return err },
		func() error { _, err := client.GlobalSummary(context.Background()); return err },
		func() error { _, err := client.Markets(context.Background(), provider.PageRequest{}); return err },
	}
	for _, call := range checks {
		err := call()
		var reqErr *market.RequestFailedError
		require.ErrorAs(t, err, &reqErr)
		require.Equal(t, http.StatusServiceUnavailable, reqErr.Status)
	}
	require.Equal(t, len(checks), hits)
}

func TestGlobalSummary_MalformedJSON(t *testing.T) {
	t.Parallel()

	client := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data":`))
	})

	_, err := client.GlobalSummary(context.Background())
	var decErr *market.DecodingError
	require.ErrorAs(t, err, &decErr)
}

func TestMarketChart_Idempotent(t *testing.T) {
	t.Parallel()

	client := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"prices":[[1700000000000,100.0],[1700003600000,101.5]]}`))
	})

	first, err := client.MarketChart(context.Background(), "bitcoin", 7)
	require.NoError(t, err)
	second, err := client.MarketChart(context.Background(), "bitcoin", 7)
	require.NoError(t, err)
	require.Equal(t, first, second)
}
