package main

import (
	"compress/gzip"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"marketdata/internal/config"
	"marketdata/internal/httpx"
	"marketdata/internal/market"
	"marketdata/internal/provider"
	"marketdata/internal/provider/cache"
	"marketdata/internal/provider/coingecko"
	"marketdata/internal/provider/coinpaprika"
	"marketdata/internal/provider/failover"
	"marketdata/internal/ratelimit"
)

type app struct {
	log     *zap.Logger
	cfg     config.Config
	gecko   *coingecko.Client
	global  provider.GlobalSource
	markets provider.MarketSource
}

func main() {
	_ = godotenv.Load()

	logger, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	cfg, err := config.Load(os.Getenv("CONFIG_FILE"))
	if err != nil {
		logger.Fatal("config", zap.Error(err))
	}

	timeout := time.Duration(cfg.Server.RequestTimeoutSec) * time.Second

	geckoHTTP := httpx.New(timeout)
	geckoHTTP.WaitForConnectivity = true
	geckoHTTP.Gate = gateFor(cfg.CoinGecko.MaxRequestsPerMinute, cfg.CoinGecko.Burst, cfg.CoinGecko.MinRequestIntervalSec)

	paprikaHTTP := httpx.New(timeout)
	paprikaHTTP.WaitForConnectivity = true
	paprikaHTTP.Gate = gateFor(cfg.CoinPaprika.MaxRequestsPerMinute, cfg.CoinPaprika.Burst, cfg.CoinPaprika.MinRequestIntervalSec)

	gecko := coingecko.New(coingecko.Config{BaseURL: cfg.CoinGecko.BaseURL}, geckoHTTP)
	paprikaOpts := []coinpaprika.Option{coinpaprika.WithHTTPClient(paprikaHTTP.Std())}
	if cfg.CoinPaprika.BaseURL != "" {
		paprikaOpts = append(paprikaOpts, coinpaprika.WithBaseURL(cfg.CoinPaprika.BaseURL))
	}
	paprika := coinpaprika.NewClient(paprikaOpts...)

	var globalSrc provider.GlobalSource = &failover.Global{Primary: gecko, Secondary: paprika, Logger: logger}
	if ttl := cfg.Global.CacheTTLSeconds; ttl > 0 {
		globalSrc = &cache.Global{S: globalSrc, TTL: time.Duration(ttl) * time.Second}
	}
	var marketsSrc provider.MarketSource = &failover.Markets{Primary: gecko, Secondary: paprika, Logger: logger}
	if ttl := cfg.Markets.CacheTTLSeconds; ttl > 0 {
		marketsSrc = &cache.Markets{
			S:        marketsSrc,
			TTL:      time.Duration(ttl) * time.Second,
			MaxPages: cfg.Markets.CacheMaxPages,
		}
	}

	a := &app{log: logger, cfg: cfg, gecko: gecko, global: globalSrc, markets: marketsSrc}

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/api/prices", a.handlePrices)
	mux.HandleFunc("/api/history", a.handleHistory)
	mux.HandleFunc("/api/global", a.handleGlobal)
	mux.HandleFunc("/api/markets", a.handleMarkets)

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           withJSONHeaders(withGzip(recoverPanic(mux))),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      45 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		logger.Info("server listening", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server", zap.Error(err))
		}
	}()

	// graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
}

func gateFor(rpm, burst, minIntervalSec int) ratelimit.Gate {
	if rpm > 0 {
		if burst <= 0 {
			burst = 1
		}
		return ratelimit.NewTokenBucket(float64(rpm)/60.0, burst)
	}
	if minIntervalSec > 0 {
		return &ratelimit.MinInterval{Interval: time.Duration(minIntervalSec) * time.Second}
	}
	return nil
}

func (a *app) handlePrices(w http.ResponseWriter, r *http.Request) {
	ids := splitCSV(r.URL.Query().Get("ids"))
	if len(ids) == 0 {
		http.Error(w, "missing ids query param", http.StatusBadRequest)
		return
	}
	// spot prices have no fallback; failures propagate
	quote, err := a.gecko.SimplePrice(r.Context(), ids)
	if err != nil {
		a.writeErr(w, err)
		return
	}
	writeJSON(w, map[string]any{"prices": quote})
}

func (a *app) handleHistory(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSpace(r.URL.Query().Get("id"))
	if id == "" {
		http.Error(w, "missing id query param", http.StatusBadRequest)
		return
	}
	days := 7
	if v := r.URL.Query().Get("days"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			http.Error(w, "invalid days query param", http.StatusBadRequest)
			return
		}
		days = n
	}
	points, err := a.gecko.MarketChart(r.Context(), id, days)
	if err != nil {
		a.writeErr(w, err)
		return
	}
	writeJSON(w, map[string]any{"id": id, "days": days, "points": points})
}

func (a *app) handleGlobal(w http.ResponseWriter, r *http.Request) {
	sum, err := a.global.GlobalSummary(r.Context())
	if err != nil {
		a.writeErr(w, err)
		return
	}
	writeJSON(w, sum)
}

func (a *app) handleMarkets(w http.ResponseWriter, r *http.Request) {
	req := provider.PageRequest{
		Page:      1,
		PerPage:   a.cfg.Markets.PerPage,
		Sparkline: a.cfg.Markets.Sparkline,
	}
	if v := r.URL.Query().Get("page"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			http.Error(w, "invalid page query param", http.StatusBadRequest)
			return
		}
		req.Page = n
	}
	if v := r.URL.Query().Get("per_page"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 || n > 250 {
			http.Error(w, "invalid per_page query param", http.StatusBadRequest)
			return
		}
		req.PerPage = n
	}
	coins, err := a.markets.Markets(r.Context(), req)
	if err != nil {
		a.writeErr(w, err)
		return
	}
	writeJSON(w, map[string]any{"page": req.Page, "coins": coins})
}

func (a *app) writeErr(w http.ResponseWriter, err error) {
	a.log.Warn("request failed", zap.Error(err))
	status := http.StatusBadGateway
	var invalidURL *market.InvalidURLError
	if errors.As(err, &invalidURL) {
		status = http.StatusBadRequest
	}
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.WriteHeader(http.StatusOK)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(v)
}

func withJSONHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		// Basic CORS for browser usage; adjust as needed.
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET,OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// withGzip compresses response when client supports gzip.
func withGzip(next http.Handler) http.Handler {
	var gzPool = sync.Pool{New: func() any {
		// Prefer best speed to reduce CPU usage since payloads are JSON
		w, _ := gzip.NewWriterLevel(io.Discard, gzip.BestSpeed)
		return w
	}}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.Contains(r.Header.Get("Accept-Encoding"), "gzip") {
			next.ServeHTTP(w, r)
			return
		}
		gz := gzPool.Get().(*gzip.Writer)
		gz.Reset(w)
		defer func() {
			_ = gz.Close()
			gz.Reset(io.Discard)
			gzPool.Put(gz)
		}()
		w.Header().Set("Content-Encoding", "gzip")
		w.Header().Add("Vary", "Accept-Encoding")
		gw := gzipResponseWriter{ResponseWriter: w, Writer: gz}
		next.ServeHTTP(gw, r)
	})
}

type gzipResponseWriter struct {
	http.ResponseWriter
	Writer io.Writer
}

func (g gzipResponseWriter) Write(b []byte) (int, error) {
	return g.Writer.Write(b)
}

// recoverPanic protects handlers from panics.
func recoverPanic(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				http.Error(w, "internal server error", http.StatusInternalServerError)
			}
		}()
		next.ServeHTTP(w, r)
	})
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
