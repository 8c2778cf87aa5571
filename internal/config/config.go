package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
)

type Server struct {
	Port              string `json:"port"`
	RequestTimeoutSec int    `json:"request_timeout_sec"`
}

type CoinGecko struct {
	BaseURL               string `json:"base_url"`
	MaxRequestsPerMinute  int    `json:"max_requests_per_minute"`
	MinRequestIntervalSec int    `json:"min_request_interval_sec"`
	Burst                 int    `json:"burst"`
}

type CoinPaprika struct {
	BaseURL               string `json:"base_url"`
	MaxRequestsPerMinute  int    `json:"max_requests_per_minute"`
	MinRequestIntervalSec int    `json:"min_request_interval_sec"`
	Burst                 int    `json:"burst"`
}

type Markets struct {
	PerPage         int  `json:"per_page"`
	Sparkline       bool `json:"sparkline"`
	CacheTTLSeconds int  `json:"cache_ttl_sec"`
	CacheMaxPages   int  `json:"cache_max_pages"`
}

type Global struct {
	CacheTTLSeconds int `json:"cache_ttl_sec"`
}

type Config struct {
	Server      Server      `json:"server"`
	CoinGecko   CoinGecko   `json:"coingecko"`
	CoinPaprika CoinPaprika `json:"coinpaprika"`
	Markets     Markets     `json:"markets"`
	Global      Global      `json:"global"`
}

func Default() Config {
	return Config{
		Server: Server{Port: "8080", RequestTimeoutSec: 30},
		CoinGecko: CoinGecko{
			// free tier allows ~30 req/min
			MaxRequestsPerMinute: 30,
			Burst:                5,
		},
		CoinPaprika: CoinPaprika{
			MaxRequestsPerMinute: 30,
			Burst:                5,
		},
		Markets: Markets{
			PerPage:         100,
			Sparkline:       true,
			CacheTTLSeconds: 30,
			CacheMaxPages:   50,
		},
		Global: Global{CacheTTLSeconds: 30},
	}
}

// Load reads JSON config from path. If path is empty or the file does not
// exist, it returns defaults. Environment variables override select fields.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		if _, err := os.Stat("config.json"); err == nil {
			path = "config.json"
		}
	}
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			return cfg, fmt.Errorf("read config: %w", err)
		}
		if err == nil {
			if err := json.Unmarshal(b, &cfg); err != nil {
				return cfg, fmt.Errorf("parse config: %w", err)
			}
		}
	}
	applyEnv(&cfg)
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("PORT"); v != "" {
		cfg.Server.Port = v
	}
	if v := envInt("REQUEST_TIMEOUT_SEC"); v > 0 {
		cfg.Server.RequestTimeoutSec = v
	}
	if v := os.Getenv("COINGECKO_BASE_URL"); v != "" {
		cfg.CoinGecko.BaseURL = v
	}
	if v := envInt("COINGECKO_MAX_RPM"); v >= 0 {
		cfg.CoinGecko.MaxRequestsPerMinute = v
	}
	if v := envInt("COINGECKO_MIN_INTERVAL_SEC"); v >= 0 {
		cfg.CoinGecko.MinRequestIntervalSec = v
	}
	if v := envInt("COINGECKO_BURST"); v > 0 {
		cfg.CoinGecko.Burst = v
	}
	if v := os.Getenv("COINPAPRIKA_BASE_URL"); v != "" {
		cfg.CoinPaprika.BaseURL = v
	}
	if v := envInt("COINPAPRIKA_MAX_RPM"); v >= 0 {
		cfg.CoinPaprika.MaxRequestsPerMinute = v
	}
	if v := envInt("COINPAPRIKA_MIN_INTERVAL_SEC"); v >= 0 {
		cfg.CoinPaprika.MinRequestIntervalSec = v
	}
	if v := envInt("COINPAPRIKA_BURST"); v > 0 {
		cfg.CoinPaprika.Burst = v
	}
	if v := envInt("MARKETS_PER_PAGE"); v > 0 {
		cfg.Markets.PerPage = v
	}
	if v := os.Getenv("MARKETS_SPARKLINE"); v != "" {
		switch strings.ToLower(v) {
		case "1", "true", "yes", "y":
			cfg.Markets.Sparkline = true
		case "0", "false", "no", "n":
			cfg.Markets.Sparkline = false
		}
	}
	if v := envInt("MARKETS_CACHE_TTL_SEC"); v >= 0 {
		cfg.Markets.CacheTTLSeconds = v
	}
	if v := envInt("MARKETS_CACHE_MAX_PAGES"); v > 0 {
		cfg.Markets.CacheMaxPages = v
	}
	if v := envInt("GLOBAL_CACHE_TTL_SEC"); v >= 0 {
		cfg.Global.CacheTTLSeconds = v
	}
}

// envInt parses an integer env var; -1 means unset or unparsable.
func envInt(key string) int {
	v := os.Getenv(key)
	if v == "" {
		return -1
	}
	var x int
	if _, err := fmt.Sscanf(v, "%d", &x); err != nil {
		return -1
	}
	return x
}
