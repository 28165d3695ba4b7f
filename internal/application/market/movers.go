package market

import (
	"context"
	"errors"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"
)

// MoverUniverse is scanned for top gainers.
var MoverUniverse = []string{"AAPL", "TSLA", "NVDA", "META", "GOOGL", "MSFT", "AMZN", "AMD", "INTC", "PYPL"}

// SectorETFs maps sector names to their SPDR ETF.
var SectorETFs = []struct {
	Sector string
	ETF    string
}{
	{"Technology", "XLK"},
	{"Healthcare", "XLV"},
	{"Financials", "XLF"},
	{"Consumer Discretionary", "XLY"},
	{"Energy", "XLE"},
	{"Utilities", "XLU"},
	{"Real Estate", "XLRE"},
	{"Materials", "XLB"},
	{"Industrials", "XLI"},
	{"Communication Services", "XLC"},
	{"Consumer Staples", "XLP"},
}

var ErrNoMarketData = errors.New("no market data available")

const topGainers = 5

// Movers returns up to five gainers from MoverUniverse by intraday change
// (last close vs first open of today's one-minute bars), highest first.
func (g *Gateway) Movers(ctx context.Context) ([]Mover, error) {
	var (
		mu     sync.Mutex
		movers []Mover
	)
	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(fetchLimit)
	for _, t := range MoverUniverse {
		t := t
		eg.Go(func() error {
			bars, err := g.History(egCtx, t, "1d", "1m")
			if err != nil || len(bars) == 0 || bars[0].Open == 0 {
				return nil
			}
			first, last := bars[0], bars[len(bars)-1]
			m := Mover{Ticker: t, Price: last.Close, ChangePct: round2((last.Close - first.Open) / first.Open * 100)}
			mu.Lock()
			movers = append(movers, m)
			mu.Unlock()
			return nil
		})
	}
	_ = eg.Wait()
	if len(movers) == 0 {
		return nil, ErrNoMarketData
	}
	gainers := movers[:0]
	for _, m := range movers {
		if m.ChangePct >= 0 {
			gainers = append(gainers, m)
		}
	}
	sort.SliceStable(gainers, func(i, j int) bool { return gainers[i].ChangePct > gainers[j].ChangePct })
	if len(gainers) > topGainers {
		gainers = gainers[:topGainers]
	}
	return gainers, nil
}

// SectorPerformance returns the one-month change of each sector ETF that
// could be fetched, in SectorETFs order.
func (g *Gateway) SectorPerformance(ctx context.Context) ([]SectorPerformance, error) {
	results := make([]*SectorPerformance, len(SectorETFs))
	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(fetchLimit)
	for i, s := range SectorETFs {
		i, s := i, s
		eg.Go(func() error {
			bars, err := g.History(egCtx, s.ETF, "1mo", "1d")
			if err != nil || len(bars) < 2 || bars[0].Close == 0 {
				return nil
			}
			first, last := bars[0].Close, bars[len(bars)-1].Close
			results[i] = &SectorPerformance{Sector: s.Sector, ETF: s.ETF, ChangePct: round2((last - first) / first * 100)}
			return nil
		})
	}
	_ = eg.Wait()
	out := make([]SectorPerformance, 0, len(results))
	for _, r := range results {
		if r != nil {
			out = append(out, *r)
		}
	}
	if len(out) == 0 {
		return nil, ErrNoMarketData
	}
	return out, nil
}

func round2(f float64) float64 {
	if f < 0 {
		return float64(int64(f*100-0.5)) / 100
	}
	return float64(int64(f*100+0.5)) / 100
}
