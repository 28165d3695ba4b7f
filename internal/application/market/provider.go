package market

import (
	"context"
	"time"
)

// Provider is an upstream market-data source.
type Provider interface {
	Name() string
	Quote(ctx context.Context, ticker string) (Quote, error)
	History(ctx context.Context, ticker, period, interval string) ([]Bar, error)
	Headlines(ctx context.Context, ticker string, limit int) ([]Headline, error)
}

var periodLengths = map[string]time.Duration{
	"1d":  24 * time.Hour,
	"5d":  5 * 24 * time.Hour,
	"1mo": 30 * 24 * time.Hour,
	"3mo": 91 * 24 * time.Hour,
	"6mo": 182 * 24 * time.Hour,
	"1y":  365 * 24 * time.Hour,
	"2y":  730 * 24 * time.Hour,
	"3y":  1095 * 24 * time.Hour,
	"5y":  1826 * 24 * time.Hour,
	"10y": 3652 * 24 * time.Hour,
	"max": 30 * 365 * 24 * time.Hour,
}

var intervals = map[string]bool{
	"1m": true, "2m": true, "5m": true, "15m": true, "30m": true, "60m": true, "90m": true,
	"1h": true, "1d": true, "5d": true, "1wk": true, "1mo": true, "3mo": true,
}

// ValidPeriod reports whether period is accepted (ytd included).
func ValidPeriod(period string) bool {
	if period == "ytd" {
		return true
	}
	_, ok := periodLengths[period]
	return ok
}

// ValidInterval reports whether interval is accepted.
func ValidInterval(interval string) bool {
	return intervals[interval]
}

// PeriodStart returns the first instant covered by period, relative to now.
func PeriodStart(period string, now time.Time) time.Time {
	if period == "ytd" {
		return time.Date(now.Year(), 1, 1, 0, 0, 0, 0, now.Location())
	}
	return now.Add(-periodLengths[period])
}
