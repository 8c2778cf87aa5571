package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"marketdata/internal/config"
	"marketdata/internal/httpx"
	"marketdata/internal/market"
	"marketdata/internal/provider"
	"marketdata/internal/provider/coingecko"
	"marketdata/internal/provider/coinpaprika"
	"marketdata/internal/provider/failover"
	"marketdata/internal/view"
)

func main() {
	_ = godotenv.Load()

	var (
		idsCSV     string
		historyID  string
		days       int
		page       int
		perPage    int
		top        int
		asJSON     bool
		timeout    int
		configPath string
	)
	flag.StringVar(&idsCSV, "ids", getenv("IDS", ""), "comma-separated coin ids for spot prices (e.g. bitcoin,ethereum)")
	flag.StringVar(&historyID, "history", "", "coin id to fetch a price series for")
	flag.IntVar(&days, "days", 7, "lookback window in days for -history")
	flag.IntVar(&page, "page", 1, "markets page number")
	flag.IntVar(&perPage, "per-page", 0, "markets page size (0 = config default)")
	flag.IntVar(&top, "top", 10, "market rows to print")
	flag.BoolVar(&asJSON, "json", false, "print raw JSON instead of tables")
	flag.IntVar(&timeout, "timeout", getenvInt("REQUEST_TIMEOUT_SEC", 30), "request timeout seconds")
	flag.StringVar(&configPath, "config", getenv("CONFIG_FILE", ""), "path to config.json (optional)")
	flag.Parse()

	logger, err := zap.NewDevelopment()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	cfg, err := config.Load(configPath)
	if err != nil {
		logger.Fatal("config", zap.Error(err))
	}
	if timeout > 0 {
		cfg.Server.RequestTimeoutSec = timeout
	}
	if perPage <= 0 {
		perPage = cfg.Markets.PerPage
	}

	hc := httpx.New(time.Duration(cfg.Server.RequestTimeoutSec) * time.Second)
	hc.WaitForConnectivity = true

	gecko := coingecko.New(coingecko.Config{BaseURL: cfg.CoinGecko.BaseURL}, hc)
	paprikaOpts := []coinpaprika.Option{coinpaprika.WithHTTPClient(hc.Std())}
	if cfg.CoinPaprika.BaseURL != "" {
		paprikaOpts = append(paprikaOpts, coinpaprika.WithBaseURL(cfg.CoinPaprika.BaseURL))
	}
	paprika := coinpaprika.NewClient(paprikaOpts...)

	globalSrc := &failover.Global{Primary: gecko, Secondary: paprika, Logger: logger}
	marketsSrc := &failover.Markets{Primary: gecko, Secondary: paprika, Logger: logger}

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Server.RequestTimeoutSec)*time.Second)
	defer cancel()

	// fan-out: the calls are independent, collect what succeeds
	type results struct {
		global  *market.GlobalMarketSummary
		coins   []market.MarketCoin
		prices  market.PriceQuote
		history []market.HistoricalPoint
	}
	var res results
	done := make(chan func(), 4)
	calls := 2

	go func() {
		sum, err := globalSrc.GlobalSummary(ctx)
		done <- func() {
			if err != nil {
				logger.Error("global summary", zap.Error(err))
				return
			}
			res.global = &sum
		}
	}()
	go func() {
		coins, err := marketsSrc.Markets(ctx, provider.PageRequest{Page: page, PerPage: perPage, Sparkline: cfg.Markets.Sparkline})
		done <- func() {
			if err != nil {
				logger.Error("markets", zap.Error(err))
				return
			}
			res.coins = coins
		}
	}()
	if ids := splitCSV(idsCSV); len(ids) > 0 {
		calls++
		go func() {
			prices, err := gecko.SimplePrice(ctx, ids)
			done <- func() {
				if err != nil {
					logger.Error("prices", zap.Error(err))
					return
				}
				res.prices = prices
			}
		}()
	}
	if historyID != "" {
		calls++
		go func() {
			points, err := gecko.MarketChart(ctx, historyID, days)
			done <- func() {
				if err != nil {
					logger.Error("history", zap.Error(err))
					return
				}
				res.history = points
			}
		}()
	}
	for i := 0; i < calls; i++ {
		(<-done)()
	}

	if res.global == nil && res.coins == nil && res.prices == nil && res.history == nil {
		logger.Fatal("no data received")
	}

	if asJSON {
		out := map[string]any{}
		if res.global != nil {
			out["global"] = res.global
		}
		if res.coins != nil {
			out["markets"] = res.coins
		}
		if res.prices != nil {
			out["prices"] = res.prices
		}
		if res.history != nil {
			out["history"] = res.history
		}
		b, _ := json.MarshalIndent(out, "", "  ")
		fmt.Println(string(b))
		return
	}

	if res.global != nil {
		fmt.Print(view.Summary(*res.global))
		fmt.Println()
	}
	if res.coins != nil {
		fmt.Print(view.MarketTable(res.coins, top))
		fmt.Println()
	}
	if res.prices != nil {
		for id, p := range res.prices {
			fmt.Printf("%-16s %.6f usd\n", id, p)
		}
	}
	if res.history != nil {
		fmt.Printf("%s, last %d days: %d points", historyID, days, len(res.history))
		if n := len(res.history); n > 0 {
			fmt.Printf(", latest %.4f at %s", res.history[n-1].Price, res.history[n-1].Timestamp.Format(time.RFC3339))
		}
		fmt.Println()
	}
}

func splitCSV(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		var x int
		_, _ = fmt.Sscanf(v, "%d", &x)
		if x != 0 {
			return x
		}
	}
	return def
}
