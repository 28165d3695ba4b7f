package market

import (
	"context"
	"strings"
	"sync"
	"time"

	json "github.com/goccy/go-json"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

const (
	DefaultQuoteTTL = 15 * time.Second
	fetchLimit      = 4
)

// Gateway fronts a Provider with a cache and remembers the last price seen per ticker.
type Gateway struct {
	provider   Provider
	cache      Cache
	quoteTTL   time.Duration
	historyTTL time.Duration

	mu       sync.RWMutex
	lastSeen map[string]decimal.Decimal
}

// GatewayOption configures NewGateway.
type GatewayOption func(*Gateway)

// WithQuoteTTL sets how long quotes are served from cache.
func WithQuoteTTL(d time.Duration) GatewayOption {
	return func(g *Gateway) { g.quoteTTL = d }
}

// WithHistoryTTL sets how long history is served from cache; 0 never expires.
func WithHistoryTTL(d time.Duration) GatewayOption {
	return func(g *Gateway) { g.historyTTL = d }
}

func NewGateway(p Provider, c Cache, opts ...GatewayOption) *Gateway {
	if c == nil {
		c = NewMemoryCache()
	}
	g := &Gateway{
		provider: p,
		cache:    c,
		quoteTTL: DefaultQuoteTTL,
		lastSeen: make(map[string]decimal.Decimal),
	}
	for _, o := range opts {
		o(g)
	}
	return g
}

// ProviderName is the configured upstream.
func (g *Gateway) ProviderName() string {
	return g.provider.Name()
}

// Quote returns a quote, from cache when fresh.
func (g *Gateway) Quote(ctx context.Context, ticker string) (Quote, error) {
	ticker = normalize(ticker)
	key := CacheKey(ticker, "quote", "")
	var q Quote
	if g.fromCache(ctx, key, &q) {
		return q, nil
	}
	q, err := g.provider.Quote(ctx, ticker)
	if err != nil {
		return Quote{}, err
	}
	g.toCache(ctx, key, q, g.quoteTTL)
	g.Observe(ticker, q.PriceDecimal())
	return q, nil
}

// History returns candles for (ticker, period, interval), from cache when present.
func (g *Gateway) History(ctx context.Context, ticker, period, interval string) ([]Bar, error) {
	if !ValidPeriod(period) {
		return nil, ErrInvalidPeriod
	}
	if !ValidInterval(interval) {
		return nil, ErrInvalidInterval
	}
	ticker = normalize(ticker)
	key := CacheKey(ticker, period, interval)
	var bars []Bar
	if g.fromCache(ctx, key, &bars) && len(bars) > 0 {
		return bars, nil
	}
	bars, err := g.provider.History(ctx, ticker, period, interval)
	if err != nil {
		return nil, err
	}
	if len(bars) == 0 {
		return nil, &FetchError{Op: "history", Ticker: ticker, Kind: KindNoData}
	}
	g.toCache(ctx, key, bars, g.historyTTL)
	g.Observe(ticker, decimal.NewFromFloat(bars[len(bars)-1].Close).Round(4))
	return bars, nil
}

// LatestPrice is the current quote price as a decimal.
func (g *Gateway) LatestPrice(ctx context.Context, ticker string) (decimal.Decimal, error) {
	q, err := g.Quote(ctx, ticker)
	if err != nil {
		return decimal.Zero, err
	}
	return q.PriceDecimal(), nil
}

// LastSeen returns the most recent price observed for ticker from any source.
func (g *Gateway) LastSeen(ticker string) (decimal.Decimal, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	p, ok := g.lastSeen[strings.ToUpper(strings.TrimSpace(ticker))]
	return p, ok
}

// Observe records a price (provider fetch or simulated live tick).
func (g *Gateway) Observe(ticker string, price decimal.Decimal) {
	if !price.IsPositive() {
		return
	}
	ticker = normalize(ticker)
	g.mu.Lock()
	g.lastSeen[ticker] = price
	g.mu.Unlock()
}

// Quotes fetches several tickers concurrently. Per-ticker failures are
// reported in the result; order matches the input.
func (g *Gateway) Quotes(ctx context.Context, tickers []string) []QuoteResult {
	results := make([]QuoteResult, len(tickers))
	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(fetchLimit)
	for i, t := range tickers {
		i, t := i, t
		eg.Go(func() error {
			q, err := g.Quote(egCtx, t)
			results[i] = QuoteResult{Ticker: strings.ToUpper(t)}
			if err != nil {
				results[i].Err = err
				return nil
			}
			results[i].Quote = &q
			return nil
		})
	}
	_ = eg.Wait()
	return results
}

// Headlines returns provider news; callers decide on a fallback.
func (g *Gateway) Headlines(ctx context.Context, ticker string, limit int) ([]Headline, error) {
	if limit <= 0 {
		limit = 5
	}
	return g.provider.Headlines(ctx, strings.ToUpper(strings.TrimSpace(ticker)), limit)
}

func (g *Gateway) fromCache(ctx context.Context, key string, out interface{}) bool {
	b, ok := g.cache.Get(ctx, key)
	if !ok {
		return false
	}
	if err := json.Unmarshal(b, out); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("Discarding undecodable market cache entry")
		return false
	}
	return true
}

func (g *Gateway) toCache(ctx context.Context, key string, v interface{}, ttl time.Duration) {
	b, err := json.Marshal(v)
	if err != nil {
		return
	}
	g.cache.Set(ctx, key, b, ttl)
}

// normalize upper-cases ticker into fresh memory, so it is safe to keep as a
// map key when it came from a pooled request buffer.
func normalize(ticker string) string {
	return strings.Clone(strings.ToUpper(strings.TrimSpace(ticker)))
}
