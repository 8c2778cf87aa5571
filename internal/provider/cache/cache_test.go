package cache

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"marketdata/internal/market"
	"marketdata/internal/provider"
)

type countingGlobal struct {
	mu    sync.Mutex
	calls int
	sum   market.GlobalMarketSummary
	err   error
}

func (c *countingGlobal) Name() string { return "counting" }
func (c *countingGlobal) GlobalSummary(context.Context) (market.GlobalMarketSummary, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls++
	return c.sum, c.err
}

type countingMarkets struct {
	mu    sync.Mutex
	calls int
	coins []market.MarketCoin
}

func (c *countingMarkets) Name() string { return "counting" }
func (c *countingMarkets) Markets(context.Context, provider.PageRequest) ([]market.MarketCoin, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls++
	return c.coins, nil
}

func TestGlobal_ServesSnapshotWithinTTL(t *testing.T) {
	src := &countingGlobal{sum: market.GlobalMarketSummary{MarketCapChange24h: 2.0}}
	g := &Global{S: src, TTL: time.Minute}

	for i := 0; i < 3; i++ {
		sum, err := g.GlobalSummary(context.Background())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if sum.MarketCapChange24h != 2.0 {
			t.Fatalf("unexpected summary: %+v", sum)
		}
	}
	if src.calls != 1 {
		t.Fatalf("source calls = %d, want 1", src.calls)
	}
}

func TestGlobal_ZeroTTLPassesThrough(t *testing.T) {
	src := &countingGlobal{}
	g := &Global{S: src}

	for i := 0; i < 3; i++ {
		if _, err := g.GlobalSummary(context.Background()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if src.calls != 3 {
		t.Fatalf("source calls = %d, want 3", src.calls)
	}
}

func TestGlobal_ErrorIsNotCached(t *testing.T) {
	src := &countingGlobal{err: errors.New("down")}
	g := &Global{S: src, TTL: time.Minute}

	if _, err := g.GlobalSummary(context.Background()); err == nil {
		t.Fatal("want error")
	}
	src.mu.Lock()
	src.err = nil
	src.mu.Unlock()
	if _, err := g.GlobalSummary(context.Background()); err != nil {
		t.Fatalf("recovery should hit the source again: %v", err)
	}
	if src.calls != 2 {
		t.Fatalf("source calls = %d, want 2", src.calls)
	}
}

func TestMarkets_CachesPerPageKey(t *testing.T) {
	src := &countingMarkets{coins: []market.MarketCoin{{ID: "bitcoin"}}}
	m := &Markets{S: src, TTL: time.Minute}

	p1 := provider.PageRequest{Page: 1, PerPage: 100}
	p2 := provider.PageRequest{Page: 2, PerPage: 100}

	for i := 0; i < 2; i++ {
		if _, err := m.Markets(context.Background(), p1); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if _, err := m.Markets(context.Background(), p2); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if src.calls != 2 {
		t.Fatalf("source calls = %d, want 2 (one per distinct page)", src.calls)
	}
}

func TestMarkets_ConcurrentRefreshCoalesced(t *testing.T) {
	src := &countingMarkets{coins: []market.MarketCoin{{ID: "bitcoin"}}}
	m := &Markets{S: src, TTL: time.Minute}
	req := provider.PageRequest{Page: 1, PerPage: 10}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := m.Markets(context.Background(), req); err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()
	src.mu.Lock()
	calls := src.calls
	src.mu.Unlock()
	if calls != 1 {
		t.Fatalf("source calls = %d, want 1 (singleflight)", calls)
	}
}
