package market

import (
	"time"

	"github.com/shopspring/decimal"
)

// Quote is a point-in-time snapshot for one ticker.
type Quote struct {
	Ticker           string    `json:"ticker"`
	CompanyName      string    `json:"company_name"`
	Price            float64   `json:"price"`
	PreviousClose    float64   `json:"previous_close"`
	DayHigh          float64   `json:"day_high"`
	DayLow           float64   `json:"day_low"`
	Volume           int64     `json:"volume"`
	FiftyTwoWeekHigh float64   `json:"fifty_two_week_high"`
	FiftyTwoWeekLow  float64   `json:"fifty_two_week_low"`
	Currency         string    `json:"currency"`
	Exchange         string    `json:"exchange"`
	AsOf             time.Time `json:"as_of"`
}

// ChangePct is the move from the previous close, in percent.
func (q Quote) ChangePct() float64 {
	if q.PreviousClose == 0 {
		return 0
	}
	return (q.Price - q.PreviousClose) / q.PreviousClose * 100
}

// PriceDecimal converts the float quote price for ledger use (4 dp).
func (q Quote) PriceDecimal() decimal.Decimal {
	return decimal.NewFromFloat(q.Price).Round(4)
}

// Bar is one OHLCV candle.
type Bar struct {
	Time   time.Time `json:"time"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume int64     `json:"volume"`
}

// Headline is a news item about a ticker or the market.
type Headline struct {
	Title       string    `json:"title"`
	Link        string    `json:"link,omitempty"`
	Publisher   string    `json:"publisher,omitempty"`
	PublishedAt time.Time `json:"published_at,omitempty"`
}

// Mover is a ticker's intraday change.
type Mover struct {
	Ticker    string  `json:"ticker"`
	Price     float64 `json:"price"`
	ChangePct float64 `json:"change_pct"`
}

// SectorPerformance is the one-month change of a sector ETF.
type SectorPerformance struct {
	Sector    string  `json:"sector"`
	ETF       string  `json:"etf"`
	ChangePct float64 `json:"change_pct"`
}

// QuoteResult pairs a ticker with its quote or fetch error.
type QuoteResult struct {
	Ticker string `json:"ticker"`
	Quote  *Quote `json:"quote,omitempty"`
	Err    error  `json:"-"`
}

// PlaceholderBar is the flat synthetic candle callers may substitute when
// history is unavailable. It is never returned by the gateway itself.
func PlaceholderBar(t time.Time) Bar {
	return Bar{Time: t, Open: 100.0, High: 100.5, Low: 99.5, Close: 100.2, Volume: 0}
}
