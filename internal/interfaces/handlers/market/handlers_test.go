package market

import (
	"context"
	"encoding/json"
	"errors"
	"net/http/httptest"
	"testing"
	"time"

	marketsvc "traderiser-backend/internal/application/market"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeGateway struct {
	quotes map[string]marketsvc.Quote
	bars   map[string][]marketsvc.Bar
	news   []marketsvc.Headline
	movers []marketsvc.Mover
}

func (f *fakeGateway) Quote(_ context.Context, t string) (marketsvc.Quote, error) {
	q, ok := f.quotes[t]
	if !ok {
		return marketsvc.Quote{}, &marketsvc.FetchError{Op: "quote", Ticker: t, Kind: marketsvc.KindNotFound}
	}
	return q, nil
}

func (f *fakeGateway) History(_ context.Context, t, period, interval string) ([]marketsvc.Bar, error) {
	if !marketsvc.ValidPeriod(period) {
		return nil, marketsvc.ErrInvalidPeriod
	}
	b, ok := f.bars[t]
	if !ok {
		return nil, &marketsvc.FetchError{Op: "history", Ticker: t, Kind: marketsvc.KindNetwork}
	}
	return b, nil
}

func (f *fakeGateway) Headlines(_ context.Context, t string, _ int) ([]marketsvc.Headline, error) {
	if len(f.news) == 0 {
		return nil, &marketsvc.FetchError{Op: "headlines", Ticker: t, Kind: marketsvc.KindRateLimited}
	}
	return f.news, nil
}

func (f *fakeGateway) Movers(context.Context) ([]marketsvc.Mover, error) {
	if len(f.movers) == 0 {
		return nil, marketsvc.ErrNoMarketData
	}
	return f.movers, nil
}

func (f *fakeGateway) SectorPerformance(context.Context) ([]marketsvc.SectorPerformance, error) {
	return []marketsvc.SectorPerformance{{Sector: "Technology", ETF: "XLK", ChangePct: 2.5}}, nil
}

func newApp(g *fakeGateway) *fiber.App {
	h := &Handlers{Gateway: g}
	app := fiber.New()
	app.Get("/quote/:ticker", h.Quote)
	app.Get("/history/:ticker", h.History)
	app.Get("/news", h.News)
	app.Get("/movers", h.Movers)
	app.Get("/sectors", h.Sectors)
	return app
}

func get(t *testing.T, app *fiber.App, path string) (int, map[string]interface{}) {
	t.Helper()
	resp, err := app.Test(httptest.NewRequest("GET", path, nil))
	require.NoError(t, err)
	var out map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return resp.StatusCode, out
}

func TestQuote(t *testing.T) {
	app := newApp(&fakeGateway{quotes: map[string]marketsvc.Quote{"AAPL": {Ticker: "AAPL", Price: 110, PreviousClose: 100}}})

	status, out := get(t, app, "/quote/aapl")
	require.Equal(t, fiber.StatusOK, status)
	assert.InDelta(t, 10.0, out["metadata"].(map[string]interface{})["change_pct"], 1e-9)

	status, out = get(t, app, "/quote/ZZZZ")
	assert.Equal(t, fiber.StatusNotFound, status)
	assert.Equal(t, "not_found", out["error"].(map[string]interface{})["details"].(map[string]interface{})["kind"])

	status, _ = get(t, app, "/quote/bad$ticker")
	assert.Equal(t, fiber.StatusBadRequest, status)
}

func TestHistory_Fallback(t *testing.T) {
	now := time.Date(2026, 10, 16, 0, 0, 0, 0, time.UTC)
	app := newApp(&fakeGateway{bars: map[string][]marketsvc.Bar{"MSFT": {{Time: now, Close: 420}}}})

	status, out := get(t, app, "/history/MSFT")
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, false, out["metadata"].(map[string]interface{})["degraded"])

	status, _ = get(t, app, "/history/AAPL")
	assert.Equal(t, fiber.StatusBadGateway, status)

	status, out = get(t, app, "/history/AAPL?fallback=true")
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, true, out["metadata"].(map[string]interface{})["degraded"])
	bars := out["data"].([]interface{})
	require.Len(t, bars, 1)
	assert.Equal(t, 100.2, bars[0].(map[string]interface{})["close"])

	status, _ = get(t, app, "/history/AAPL?period=7w&fallback=true")
	assert.Equal(t, fiber.StatusBadRequest, status)
}

func TestNews_FallsBackWhenProviderFails(t *testing.T) {
	app := newApp(&fakeGateway{})
	status, out := get(t, app, "/news?limit=3")
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, true, out["metadata"].(map[string]interface{})["degraded"])
	assert.Len(t, out["data"], 3)

	app = newApp(&fakeGateway{news: []marketsvc.Headline{{Title: "Earnings beat"}}})
	status, out = get(t, app, "/news?ticker=aapl")
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, false, out["metadata"].(map[string]interface{})["degraded"])
}

func TestMoversAndSectors(t *testing.T) {
	app := newApp(&fakeGateway{})
	status, _ := get(t, app, "/movers")
	assert.Equal(t, fiber.StatusServiceUnavailable, status)

	app = newApp(&fakeGateway{movers: []marketsvc.Mover{{Ticker: "NVDA", Price: 120, ChangePct: 4.2}}})
	status, out := get(t, app, "/movers")
	require.Equal(t, fiber.StatusOK, status)
	assert.Len(t, out["data"], 1)

	status, out = get(t, app, "/sectors")
	require.Equal(t, fiber.StatusOK, status)
	assert.Len(t, out["data"], 1)
}

func TestStatusFor(t *testing.T) {
	assert.Equal(t, fiber.StatusTooManyRequests, StatusFor(&marketsvc.FetchError{Kind: marketsvc.KindRateLimited}))
	assert.Equal(t, fiber.StatusBadGateway, StatusFor(&marketsvc.FetchError{Kind: marketsvc.KindDecode}))
	assert.Equal(t, fiber.StatusInternalServerError, StatusFor(errors.New("boom")))
}

type staticProvider struct {
	prices map[string]float64
}

func (staticProvider) Name() string { return "static" }

func (p staticProvider) Quote(_ context.Context, t string) (marketsvc.Quote, error) {
	price, ok := p.prices[t]
	if !ok {
		return marketsvc.Quote{}, &marketsvc.FetchError{Op: "quote", Ticker: t, Kind: marketsvc.KindNotFound}
	}
	return marketsvc.Quote{Ticker: t, Price: price, Currency: "USD", AsOf: time.Now().UTC()}, nil
}

func (staticProvider) History(_ context.Context, t, _, _ string) ([]marketsvc.Bar, error) {
	return nil, &marketsvc.FetchError{Op: "history", Ticker: t, Kind: marketsvc.KindNoData}
}

func (staticProvider) Headlines(_ context.Context, t string, _ int) ([]marketsvc.Headline, error) {
	return nil, &marketsvc.FetchError{Op: "headlines", Ticker: t, Kind: marketsvc.KindNoData}
}

func TestQuote_LastSeenSurvivesLaterRequests(t *testing.T) {
	gw := marketsvc.NewGateway(staticProvider{prices: map[string]float64{"AAPL": 150, "MSFT": 300}}, nil)
	h := &Handlers{Gateway: gw}
	app := fiber.New()
	app.Get("/quote/:ticker", h.Quote)

	code, _ := get(t, app, "/quote/AAPL")
	require.Equal(t, fiber.StatusOK, code)
	code, _ = get(t, app, "/quote/MSFT")
	require.Equal(t, fiber.StatusOK, code)

	p, ok := gw.LastSeen("AAPL")
	require.True(t, ok)
	assert.Equal(t, "150", p.String())
	p, ok = gw.LastSeen("MSFT")
	require.True(t, ok)
	assert.Equal(t, "300", p.String())
}
