package market

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/alpacahq/alpaca-trade-api-go/v3/alpaca"
	"github.com/alpacahq/alpaca-trade-api-go/v3/marketdata"
)

// alpacaData is the subset of *marketdata.Client the provider calls.
type alpacaData interface {
	GetSnapshot(symbol string, req marketdata.GetSnapshotRequest) (*marketdata.Snapshot, error)
	GetBars(symbol string, req marketdata.GetBarsRequest) ([]marketdata.Bar, error)
	GetNews(req marketdata.GetNewsRequest) ([]marketdata.News, error)
}

// AlpacaProvider serves quotes, bars and news from the Alpaca market-data API.
type AlpacaProvider struct {
	client alpacaData
	now    func() time.Time
}

func NewAlpacaProvider(apiKey, apiSecret, dataURL string) *AlpacaProvider {
	opts := marketdata.ClientOpts{
		APIKey:    apiKey,
		APISecret: apiSecret,
	}
	if dataURL != "" {
		opts.BaseURL = dataURL
	}
	return &AlpacaProvider{client: marketdata.NewClient(opts), now: time.Now}
}

func (p *AlpacaProvider) Name() string { return "alpaca" }

// Quote builds a quote from the latest trade and the daily bars in the snapshot.
func (p *AlpacaProvider) Quote(ctx context.Context, ticker string) (Quote, error) {
	if err := ctx.Err(); err != nil {
		return Quote{}, &FetchError{Op: "quote", Ticker: ticker, Kind: KindNetwork, Err: err}
	}
	snap, err := p.client.GetSnapshot(ticker, marketdata.GetSnapshotRequest{})
	if err != nil {
		return Quote{}, alpacaError("quote", ticker, err)
	}
	if snap == nil || (snap.LatestTrade == nil && snap.DailyBar == nil) {
		return Quote{}, &FetchError{Op: "quote", Ticker: ticker, Kind: KindNotFound}
	}
	q := Quote{Ticker: ticker, Currency: "USD", AsOf: p.now().UTC()}
	if snap.LatestTrade != nil {
		q.Price = snap.LatestTrade.Price
		q.AsOf = snap.LatestTrade.Timestamp.UTC()
	}
	if snap.DailyBar != nil {
		q.DayHigh = snap.DailyBar.High
		q.DayLow = snap.DailyBar.Low
		q.Volume = int64(snap.DailyBar.Volume)
		if q.Price == 0 {
			q.Price = snap.DailyBar.Close
		}
	}
	if snap.PrevDailyBar != nil {
		q.PreviousClose = snap.PrevDailyBar.Close
	}
	if q.Price <= 0 {
		return Quote{}, &FetchError{Op: "quote", Ticker: ticker, Kind: KindNoData}
	}
	return q, nil
}

// History maps period/interval onto a bar request window.
func (p *AlpacaProvider) History(ctx context.Context, ticker, period, interval string) ([]Bar, error) {
	if err := ctx.Err(); err != nil {
		return nil, &FetchError{Op: "history", Ticker: ticker, Kind: KindNetwork, Err: err}
	}
	now := p.now()
	raw, err := p.client.GetBars(ticker, marketdata.GetBarsRequest{
		TimeFrame: alpacaTimeFrame(interval),
		Start:     PeriodStart(period, now),
		End:       now,
	})
	if err != nil {
		return nil, alpacaError("history", ticker, err)
	}
	if len(raw) == 0 {
		return nil, &FetchError{Op: "history", Ticker: ticker, Kind: KindNoData}
	}
	bars := make([]Bar, 0, len(raw))
	for _, b := range raw {
		bars = append(bars, Bar{
			Time:   b.Timestamp.UTC(),
			Open:   b.Open,
			High:   b.High,
			Low:    b.Low,
			Close:  b.Close,
			Volume: int64(b.Volume),
		})
	}
	return bars, nil
}

// Headlines returns the most recent articles for ticker (all symbols when empty).
func (p *AlpacaProvider) Headlines(ctx context.Context, ticker string, limit int) ([]Headline, error) {
	if err := ctx.Err(); err != nil {
		return nil, &FetchError{Op: "headlines", Ticker: ticker, Kind: KindNetwork, Err: err}
	}
	req := marketdata.GetNewsRequest{TotalLimit: limit}
	if ticker != "" {
		req.Symbols = []string{ticker}
	}
	news, err := p.client.GetNews(req)
	if err != nil {
		return nil, alpacaError("headlines", ticker, err)
	}
	hs := make([]Headline, 0, len(news))
	for _, n := range news {
		hs = append(hs, Headline{Title: n.Headline, Link: n.URL, Publisher: n.Author, PublishedAt: n.CreatedAt.UTC()})
	}
	if len(hs) == 0 {
		return nil, &FetchError{Op: "headlines", Ticker: ticker, Kind: KindNoData}
	}
	return hs, nil
}

func alpacaTimeFrame(interval string) marketdata.TimeFrame {
	switch interval {
	case "1m":
		return marketdata.OneMin
	case "2m":
		return marketdata.NewTimeFrame(2, marketdata.Min)
	case "5m":
		return marketdata.NewTimeFrame(5, marketdata.Min)
	case "15m":
		return marketdata.NewTimeFrame(15, marketdata.Min)
	case "30m":
		return marketdata.NewTimeFrame(30, marketdata.Min)
	case "60m", "1h", "90m":
		return marketdata.OneHour
	case "1wk":
		return marketdata.NewTimeFrame(1, marketdata.Week)
	case "1mo", "3mo":
		return marketdata.NewTimeFrame(1, marketdata.Month)
	default:
		return marketdata.OneDay
	}
}

func alpacaError(op, ticker string, err error) error {
	kind := KindUpstream
	var apiErr *alpaca.APIError
	var netErr net.Error
	switch {
	case errors.As(err, &apiErr):
		switch apiErr.StatusCode {
		case http.StatusTooManyRequests:
			kind = KindRateLimited
		case http.StatusNotFound:
			kind = KindNotFound
		}
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled), errors.As(err, &netErr):
		kind = KindNetwork
	}
	return &FetchError{Op: op, Ticker: ticker, Kind: kind, Err: err}
}
