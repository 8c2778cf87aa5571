// dump fetches one upstream endpoint and pretty-prints the raw JSON body.
// Useful when a DecodingError suggests upstream schema drift and the current
// payload shape needs inspecting.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"net/url"
	"os"
	"strconv"
	"time"

	"marketdata/internal/config"
	"marketdata/internal/httpx"
)

func main() {
	var (
		endpoint   string
		ids        string
		id         string
		days       int
		limit      int
		offset     int
		outPath    string
		timeoutSec int
		configPath string
	)
	flag.StringVar(&endpoint, "endpoint", "gecko-global", "one of: gecko-global, gecko-prices, gecko-chart, gecko-markets, paprika-global, paprika-tickers")
	flag.StringVar(&ids, "ids", "bitcoin,ethereum", "coin ids for gecko-prices")
	flag.StringVar(&id, "id", "bitcoin", "coin id for gecko-chart")
	flag.IntVar(&days, "days", 7, "lookback days for gecko-chart")
	flag.IntVar(&limit, "limit", 10, "page size for paprika-tickers / gecko-markets")
	flag.IntVar(&offset, "offset", 0, "offset for paprika-tickers")
	flag.StringVar(&outPath, "out", "", "output file (default stdout)")
	flag.IntVar(&timeoutSec, "timeout", 20, "HTTP timeout seconds")
	flag.StringVar(&configPath, "config", "", "path to config.json (optional)")
	flag.Parse()

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	geckoBase := cfg.CoinGecko.BaseURL
	if geckoBase == "" {
		geckoBase = "https://api.coingecko.com/api/v3"
	}
	paprikaBase := cfg.CoinPaprika.BaseURL
	if paprikaBase == "" {
		paprikaBase = "https://api.coinpaprika.com/v1"
	}

	var target string
	switch endpoint {
	case "gecko-global":
		target = geckoBase + "/global"
	case "gecko-prices":
		target = geckoBase + "/simple/price?ids=" + url.QueryEscape(ids) + "&vs_currencies=usd"
	case "gecko-chart":
		target = geckoBase + "/coins/" + url.PathEscape(id) + "/market_chart?vs_currency=usd&days=" + strconv.Itoa(days)
	case "gecko-markets":
		target = geckoBase + "/coins/markets?vs_currency=usd&order=market_cap_desc&per_page=" + strconv.Itoa(limit) + "&page=1&sparkline=false&price_change_percentage=1h,24h"
	case "paprika-global":
		target = paprikaBase + "/global"
	case "paprika-tickers":
		target = fmt.Sprintf("%s/tickers?quotes=USD&limit=%d&offset=%d", paprikaBase, limit, offset)
	default:
		log.Fatalf("unknown endpoint %q", endpoint)
	}

	hc := httpx.New(time.Duration(timeoutSec) * time.Second)
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(timeoutSec)*time.Second)
	defer cancel()

	resp, err := hc.Get(ctx, target)
	if err != nil {
		log.Fatalf("fetch: %v", err)
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		log.Fatalf("read body: %v", err)
	}

	var pretty bytes.Buffer
	if err := json.Indent(&pretty, raw, "", "  "); err != nil {
		// not JSON after all; dump verbatim
		pretty.Write(raw)
	}

	w := os.Stdout
	if outPath != "" {
		f, err := os.Create(outPath)
		if err != nil {
			log.Fatalf("create out: %v", err)
		}
		defer f.Close()
		w = f
	}
	if _, err := w.Write(pretty.Bytes()); err != nil {
		log.Fatalf("write: %v", err)
	}
	if _, err := w.Write([]byte("\n")); err != nil {
		log.Fatalf("write: %v", err)
	}
	log.Printf("GET %s -> %d, %d bytes", target, resp.StatusCode, len(raw))
}
