// Package failover implements the two-provider strategy: try the primary,
// and on RequestFailed or DecodingError use the secondary. InvalidURL and
// other errors do not fall through; they indicate caller bugs the secondary
// would reproduce.
package failover

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"marketdata/internal/market"
	"marketdata/internal/metrics"
	"marketdata/internal/provider"
)

// shouldFallBack reports whether err is one of the two error kinds the
// secondary provider may be able to recover from.
func shouldFallBack(err error) bool {
	var reqErr *market.RequestFailedError
	if errors.As(err, &reqErr) {
		return true
	}
	var decErr *market.DecodingError
	return errors.As(err, &decErr)
}

// Global serves global summaries from Primary, falling back to Secondary.
type Global struct {
	Primary   provider.GlobalSource
	Secondary provider.GlobalSource
	Logger    *zap.Logger
}

func (g *Global) Name() string {
	return fmt.Sprintf("%s->%s", g.Primary.Name(), g.Secondary.Name())
}

func (g *Global) GlobalSummary(ctx context.Context) (market.GlobalMarketSummary, error) {
	sum, err := g.Primary.GlobalSummary(ctx)
	metrics.Observe(g.Primary.Name(), "global", err)
	if err == nil {
		return sum, nil
	}
	if !shouldFallBack(err) {
		return market.GlobalMarketSummary{}, err
	}
	g.logger().Warn("primary global summary failed, using secondary",
		zap.String("primary", g.Primary.Name()),
		zap.Error(err))
	metrics.Failovers.WithLabelValues("global").Inc()
	sum, ferr := g.Secondary.GlobalSummary(ctx)
	metrics.Observe(g.Secondary.Name(), "global", ferr)
	if ferr != nil {
		return market.GlobalMarketSummary{}, errors.Join(err, ferr)
	}
	return sum, nil
}

func (g *Global) logger() *zap.Logger {
	if g.Logger != nil {
		return g.Logger
	}
	return zap.NewNop()
}

// Markets serves market listings from Primary, falling back to Secondary.
type Markets struct {
	Primary   provider.MarketSource
	Secondary provider.MarketSource
	Logger    *zap.Logger
}

func (m *Markets) Name() string {
	return fmt.Sprintf("%s->%s", m.Primary.Name(), m.Secondary.Name())
}

func (m *Markets) Markets(ctx context.Context, req provider.PageRequest) ([]market.MarketCoin, error) {
	coins, err := m.Primary.Markets(ctx, req)
	metrics.Observe(m.Primary.Name(), "markets", err)
	if err == nil {
		return coins, nil
	}
	if !shouldFallBack(err) {
		return nil, err
	}
	m.logger().Warn("primary markets failed, using secondary",
		zap.String("primary", m.Primary.Name()),
		zap.Int("page", req.Page),
		zap.Error(err))
	metrics.Failovers.WithLabelValues("markets").Inc()
	coins, ferr := m.Secondary.Markets(ctx, req)
	metrics.Observe(m.Secondary.Name(), "markets", ferr)
	if ferr != nil {
		return nil, errors.Join(err, ferr)
	}
	return coins, nil
}

func (m *Markets) logger() *zap.Logger {
	if m.Logger != nil {
		return m.Logger
	}
	return zap.NewNop()
}
