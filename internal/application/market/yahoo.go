package market

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	json "github.com/goccy/go-json"
)

const (
	DefaultYahooBaseURL = "https://query2.finance.yahoo.com"
	yahooUserAgent      = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"
)

// YahooProvider reads the public chart and search JSON endpoints.
type YahooProvider struct {
	BaseURL    string
	HTTPClient *http.Client
}

func NewYahooProvider(baseURL string) *YahooProvider {
	if baseURL == "" {
		baseURL = DefaultYahooBaseURL
	}
	return &YahooProvider{
		BaseURL:    baseURL,
		HTTPClient: &http.Client{Timeout: 10 * time.Second},
	}
}

func (p *YahooProvider) Name() string { return "yahoo" }

type chartResponse struct {
	Chart struct {
		Result []chartResult `json:"result"`
		Error  *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

type chartResult struct {
	Meta struct {
		Symbol             string  `json:"symbol"`
		Currency           string  `json:"currency"`
		ExchangeName       string  `json:"exchangeName"`
		LongName           string  `json:"longName"`
		ShortName          string  `json:"shortName"`
		RegularMarketPrice float64 `json:"regularMarketPrice"`
		ChartPreviousClose float64 `json:"chartPreviousClose"`
		PreviousClose      float64 `json:"previousClose"`
		DayHigh            float64 `json:"regularMarketDayHigh"`
		DayLow             float64 `json:"regularMarketDayLow"`
		Volume             int64   `json:"regularMarketVolume"`
		FiftyTwoWeekHigh   float64 `json:"fiftyTwoWeekHigh"`
		FiftyTwoWeekLow    float64 `json:"fiftyTwoWeekLow"`
		RegularMarketTime  int64   `json:"regularMarketTime"`
	} `json:"meta"`
	Timestamp  []int64 `json:"timestamp"`
	Indicators struct {
		Quote []struct {
			Open   []*float64 `json:"open"`
			High   []*float64 `json:"high"`
			Low    []*float64 `json:"low"`
			Close  []*float64 `json:"close"`
			Volume []*int64   `json:"volume"`
		} `json:"quote"`
	} `json:"indicators"`
}

// Quote reads the chart meta block for the current session.
func (p *YahooProvider) Quote(ctx context.Context, ticker string) (Quote, error) {
	res, err := p.chart(ctx, "quote", ticker, "1d", "1d")
	if err != nil {
		return Quote{}, err
	}
	m := res.Meta
	if m.RegularMarketPrice <= 0 {
		return Quote{}, &FetchError{Op: "quote", Ticker: ticker, Kind: KindNoData}
	}
	name := m.LongName
	if name == "" {
		name = m.ShortName
	}
	prev := m.PreviousClose
	if prev == 0 {
		prev = m.ChartPreviousClose
	}
	asOf := time.Now().UTC()
	if m.RegularMarketTime > 0 {
		asOf = time.Unix(m.RegularMarketTime, 0).UTC()
	}
	return Quote{
		Ticker:           ticker,
		CompanyName:      name,
		Price:            m.RegularMarketPrice,
		PreviousClose:    prev,
		DayHigh:          m.DayHigh,
		DayLow:           m.DayLow,
		Volume:           m.Volume,
		FiftyTwoWeekHigh: m.FiftyTwoWeekHigh,
		FiftyTwoWeekLow:  m.FiftyTwoWeekLow,
		Currency:         m.Currency,
		Exchange:         m.ExchangeName,
		AsOf:             asOf,
	}, nil
}

// History returns candles oldest-first. Rows with a null close are skipped.
func (p *YahooProvider) History(ctx context.Context, ticker, period, interval string) ([]Bar, error) {
	res, err := p.chart(ctx, "history", ticker, period, interval)
	if err != nil {
		return nil, err
	}
	if len(res.Indicators.Quote) == 0 {
		return nil, &FetchError{Op: "history", Ticker: ticker, Kind: KindNoData}
	}
	q := res.Indicators.Quote[0]
	bars := make([]Bar, 0, len(res.Timestamp))
	for i, ts := range res.Timestamp {
		cl := at(q.Close, i)
		if cl == nil {
			continue
		}
		b := Bar{Time: time.Unix(ts, 0).UTC(), Close: *cl, Open: *cl, High: *cl, Low: *cl}
		if v := at(q.Open, i); v != nil {
			b.Open = *v
		}
		if v := at(q.High, i); v != nil {
			b.High = *v
		}
		if v := at(q.Low, i); v != nil {
			b.Low = *v
		}
		if i < len(q.Volume) && q.Volume[i] != nil {
			b.Volume = *q.Volume[i]
		}
		bars = append(bars, b)
	}
	if len(bars) == 0 {
		return nil, &FetchError{Op: "history", Ticker: ticker, Kind: KindNoData}
	}
	return bars, nil
}

func at(xs []*float64, i int) *float64 {
	if i < len(xs) {
		return xs[i]
	}
	return nil
}

type searchResponse struct {
	News []struct {
		Title               string `json:"title"`
		Publisher           string `json:"publisher"`
		Link                string `json:"link"`
		ProviderPublishTime int64  `json:"providerPublishTime"`
	} `json:"news"`
}

// Headlines uses the search endpoint's news block. An empty ticker searches the broad market.
func (p *YahooProvider) Headlines(ctx context.Context, ticker string, limit int) ([]Headline, error) {
	q := ticker
	if q == "" {
		q = "stock market"
	}
	v := url.Values{}
	v.Set("q", q)
	v.Set("quotesCount", "0")
	v.Set("newsCount", strconv.Itoa(limit))
	var out searchResponse
	if err := p.getJSON(ctx, "headlines", ticker, p.BaseURL+"/v1/finance/search?"+v.Encode(), &out); err != nil {
		return nil, err
	}
	hs := make([]Headline, 0, len(out.News))
	for _, n := range out.News {
		if n.Title == "" {
			continue
		}
		h := Headline{Title: n.Title, Link: n.Link, Publisher: n.Publisher}
		if n.ProviderPublishTime > 0 {
			h.PublishedAt = time.Unix(n.ProviderPublishTime, 0).UTC()
		}
		hs = append(hs, h)
	}
	if len(hs) == 0 {
		return nil, &FetchError{Op: "headlines", Ticker: ticker, Kind: KindNoData}
	}
	if limit > 0 && len(hs) > limit {
		hs = hs[:limit]
	}
	return hs, nil
}

func (p *YahooProvider) chart(ctx context.Context, op, ticker, period, interval string) (*chartResult, error) {
	endpoint := fmt.Sprintf("%s/v8/finance/chart/%s?range=%s&interval=%s",
		p.BaseURL, url.PathEscape(ticker), url.QueryEscape(period), url.QueryEscape(interval))
	var out chartResponse
	if err := p.getJSON(ctx, op, ticker, endpoint, &out); err != nil {
		return nil, err
	}
	if len(out.Chart.Result) == 0 {
		if out.Chart.Error != nil {
			return nil, &FetchError{Op: op, Ticker: ticker, Kind: KindNotFound, Err: fmt.Errorf("%s", out.Chart.Error.Description)}
		}
		return nil, &FetchError{Op: op, Ticker: ticker, Kind: KindNoData}
	}
	return &out.Chart.Result[0], nil
}

func (p *YahooProvider) getJSON(ctx context.Context, op, ticker, endpoint string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return &FetchError{Op: op, Ticker: ticker, Kind: KindNetwork, Err: err}
	}
	req.Header.Set("User-Agent", yahooUserAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := p.HTTPClient.Do(req)
	if err != nil {
		return &FetchError{Op: op, Ticker: ticker, Kind: KindNetwork, Err: err}
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return &FetchError{Op: op, Ticker: ticker, Kind: KindNotFound, Status: resp.StatusCode}
	case resp.StatusCode == http.StatusTooManyRequests:
		return &FetchError{Op: op, Ticker: ticker, Kind: KindRateLimited, Status: resp.StatusCode}
	case resp.StatusCode != http.StatusOK:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
		return &FetchError{Op: op, Ticker: ticker, Kind: KindUpstream, Status: resp.StatusCode, Err: fmt.Errorf("%s", body)}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &FetchError{Op: op, Ticker: ticker, Kind: KindDecode, Err: err}
	}
	return nil
}
