package cache

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"marketdata/internal/market"
	"marketdata/internal/provider"
)

// Global caches the last global summary for a TTL and coalesces concurrent
// refreshes. With TTL <= 0 it is a transparent pass-through; the underlying
// source stays stateless either way.
type Global struct {
	S   provider.GlobalSource
	TTL time.Duration

	mu    sync.RWMutex
	snap  market.GlobalMarketSummary
	until time.Time

	sf singleflight.Group
}

func (g *Global) Name() string { return g.S.Name() }

func (g *Global) GlobalSummary(ctx context.Context) (market.GlobalMarketSummary, error) {
	if g.TTL <= 0 {
		return g.S.GlobalSummary(ctx)
	}
	g.mu.RLock()
	snap, until := g.snap, g.until
	g.mu.RUnlock()
	if time.Now().Before(until) {
		return snap, nil
	}
	v, err, _ := g.sf.Do("global", func() (any, error) {
		fresh, err := g.S.GlobalSummary(ctx)
		if err != nil {
			return nil, err
		}
		g.mu.Lock()
		g.snap = fresh
		g.until = time.Now().Add(g.TTL)
		g.mu.Unlock()
		return fresh, nil
	})
	if err != nil {
		return market.GlobalMarketSummary{}, err
	}
	return v.(market.GlobalMarketSummary), nil
}

// pageEntry stores one cached markets page with expiry.
type pageEntry struct {
	expiresAt time.Time
	coins     []market.MarketCoin
}

// Markets caches market pages per (page, per_page, sparkline) key for a TTL,
// coalescing concurrent refreshes of the same page.
type Markets struct {
	S        provider.MarketSource
	TTL      time.Duration
	MaxPages int

	mu    sync.RWMutex
	items map[string]pageEntry

	sf singleflight.Group
}

func (m *Markets) Name() string { return m.S.Name() }

func (m *Markets) Markets(ctx context.Context, req provider.PageRequest) ([]market.MarketCoin, error) {
	if m.TTL <= 0 {
		return m.S.Markets(ctx, req)
	}
	key := fmt.Sprintf("%d/%d/%t", req.Page, req.PerPage, req.Sparkline)

	now := time.Now()
	m.mu.RLock()
	e, ok := m.items[key]
	m.mu.RUnlock()
	if ok && now.Before(e.expiresAt) {
		return e.coins, nil
	}

	v, err, _ := m.sf.Do(key, func() (any, error) {
		fresh, err := m.S.Markets(ctx, req)
		if err != nil {
			return nil, err
		}
		m.mu.Lock()
		if m.items == nil {
			m.items = make(map[string]pageEntry)
		}
		m.items[key] = pageEntry{expiresAt: time.Now().Add(m.TTL), coins: fresh}
		// best-effort cap: drop expired pages first, then arbitrary ones
		if m.MaxPages > 0 && len(m.items) > m.MaxPages {
			for k, v := range m.items {
				if time.Now().After(v.expiresAt) {
					delete(m.items, k)
				}
				if len(m.items) <= m.MaxPages {
					break
				}
			}
			for k := range m.items {
				if len(m.items) <= m.MaxPages {
					break
				}
				delete(m.items, k)
			}
		}
		m.mu.Unlock()
		return fresh, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]market.MarketCoin), nil
}
