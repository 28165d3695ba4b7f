package live

import (
	"context"
	"errors"
	"math/rand/v2"
	"sync"
	"time"

	"traderiser-backend/internal/application/market"
	"traderiser-backend/internal/domain"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

const (
	WindowSize          = 15
	DefaultTickInterval = time.Second
	defaultVolatility   = 0.5
)

var (
	ErrNoSeedPrice     = errors.New("No market data available to start live trading")
	ErrSessionNotFound = errors.New("Live session not running for this ticker")
)

// MarketSource seeds sessions and receives simulated closes.
type MarketSource interface {
	History(ctx context.Context, ticker, period, interval string) ([]market.Bar, error)
	LastSeen(ticker string) (decimal.Decimal, bool)
	Observe(ticker string, price decimal.Decimal)
}

type key struct {
	account uuid.UUID
	ticker  string
}

type session struct {
	cancel     context.CancelFunc
	done       chan struct{}
	volatility float64 // fixed from the seed history
	mu         sync.RWMutex
	candles    []market.Bar
}

func (s *session) snapshot() []market.Bar {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]market.Bar, len(s.candles))
	copy(out, s.candles)
	return out
}

// Manager runs one simulated candle stream per (account, ticker). All streams
// stop when the root context ends or Shutdown is called.
type Manager struct {
	Market   MarketSource
	Interval time.Duration
	Rand     func() float64 // uniform [0,1); tests inject a fixed sequence

	root     context.Context
	mu       sync.Mutex
	sessions map[key]*session
}

func NewManager(root context.Context, src MarketSource, interval time.Duration) *Manager {
	if interval <= 0 {
		interval = DefaultTickInterval
	}
	return &Manager{
		Market:   src,
		Interval: interval,
		Rand:     rand.Float64,
		root:     root,
		sessions: make(map[key]*session),
	}
}

// Start seeds the window and begins ticking. Starting a running session is a no-op.
func (m *Manager) Start(ctx context.Context, accountID uuid.UUID, ticker string) ([]market.Bar, error) {
	ticker = domain.NormalizeTicker(ticker)
	k := key{accountID, ticker}

	m.mu.Lock()
	if s, ok := m.sessions[k]; ok {
		m.mu.Unlock()
		return s.snapshot(), nil
	}
	m.mu.Unlock()

	seed, vol, err := m.seed(ctx, ticker)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.sessions[k]; ok {
		return s.snapshot(), nil
	}
	runCtx, cancel := context.WithCancel(m.root)
	s := &session{cancel: cancel, done: make(chan struct{}), volatility: vol, candles: seed}
	m.sessions[k] = s
	go m.run(runCtx, k, s)
	log.Info().Str("account_id", accountID.String()).Str("ticker", ticker).Msg("Live session started")
	return s.snapshot(), nil
}

// seed returns the opening window and the jitter volatility, which is taken
// from the whole day's history rather than the trimmed window.
func (m *Manager) seed(ctx context.Context, ticker string) ([]market.Bar, float64, error) {
	bars, err := m.Market.History(ctx, ticker, "1d", "1m")
	if err == nil && len(bars) > 0 {
		vol := Volatility(bars)
		if len(bars) > WindowSize {
			bars = bars[len(bars)-WindowSize:]
		}
		out := make([]market.Bar, len(bars))
		copy(out, bars)
		return out, vol, nil
	}
	if last, ok := m.Market.LastSeen(ticker); ok {
		p, _ := last.Float64()
		return []market.Bar{{Time: time.Now().UTC(), Open: p, High: p, Low: p, Close: p}}, defaultVolatility, nil
	}
	if err != nil {
		log.Warn().Err(err).Str("ticker", ticker).Msg("Live session seed failed")
	}
	return nil, 0, ErrNoSeedPrice
}

func (m *Manager) run(ctx context.Context, k key, s *session) {
	defer close(s.done)
	t := time.NewTicker(m.Interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-t.C:
			s.mu.Lock()
			c := NextCandle(s.candles[len(s.candles)-1].Close, s.volatility, now.UTC(), m.Rand)
			s.candles = append(s.candles, c)
			if len(s.candles) > WindowSize {
				s.candles = s.candles[len(s.candles)-WindowSize:]
			}
			s.mu.Unlock()
			m.Market.Observe(k.ticker, decimal.NewFromFloat(c.Close).Round(4))
		}
	}
}

// Stop cancels the session and waits for its goroutine to exit.
func (m *Manager) Stop(accountID uuid.UUID, ticker string) error {
	k := key{accountID, domain.NormalizeTicker(ticker)}
	m.mu.Lock()
	s, ok := m.sessions[k]
	delete(m.sessions, k)
	m.mu.Unlock()
	if !ok {
		return ErrSessionNotFound
	}
	s.cancel()
	<-s.done
	log.Info().Str("account_id", accountID.String()).Str("ticker", k.ticker).Msg("Live session stopped")
	return nil
}

// Shutdown stops every session.
func (m *Manager) Shutdown() {
	m.mu.Lock()
	all := m.sessions
	m.sessions = make(map[key]*session)
	m.mu.Unlock()
	for _, s := range all {
		s.cancel()
	}
	for _, s := range all {
		<-s.done
	}
}

// Candles returns the session's current window, oldest first.
func (m *Manager) Candles(accountID uuid.UUID, ticker string) ([]market.Bar, error) {
	m.mu.Lock()
	s, ok := m.sessions[key{accountID, domain.NormalizeTicker(ticker)}]
	m.mu.Unlock()
	if !ok {
		return nil, ErrSessionNotFound
	}
	return s.snapshot(), nil
}

// LastPrice is the latest simulated close of a running session.
func (m *Manager) LastPrice(accountID uuid.UUID, ticker string) (decimal.Decimal, bool) {
	candles, err := m.Candles(accountID, ticker)
	if err != nil || len(candles) == 0 {
		return decimal.Zero, false
	}
	return decimal.NewFromFloat(candles[len(candles)-1].Close).Round(4), true
}

// Running reports whether a session exists.
func (m *Manager) Running(accountID uuid.UUID, ticker string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.sessions[key{accountID, domain.NormalizeTicker(ticker)}]
	return ok
}

// NextCandle jitters a new candle off the last close by up to v.
func NextCandle(last, v float64, now time.Time, rnd func() float64) market.Bar {
	open := last
	high := open + rnd()*v
	low := open - rnd()*v
	cl := open + (rnd()*0.6-0.3)*v
	if cl > high {
		high = cl
	}
	if cl < low {
		low = cl
	}
	return market.Bar{Time: now, Open: open, High: high, Low: low, Close: cl}
}

// Volatility is 5% of the bars' high-low range, or 0.5 when flat.
func Volatility(window []market.Bar) float64 {
	if len(window) == 0 {
		return defaultVolatility
	}
	hi, lo := window[0].High, window[0].Low
	for _, b := range window[1:] {
		if b.High > hi {
			hi = b.High
		}
		if b.Low < lo {
			lo = b.Low
		}
	}
	v := (hi - lo) * 0.05
	if v <= 0 {
		return defaultVolatility
	}
	return v
}
