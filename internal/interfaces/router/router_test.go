package router

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"traderiser-backend/internal/config"

	"github.com/alicebob/miniredis/v2"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestApp(t *testing.T) *App {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	// Upstream that always fails, so market reads take their degraded paths.
	yahoo := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	t.Cleanup(yahoo.Close)

	cfg := &config.Config{
		Env:               "test",
		DatabaseURL:       ":memory:",
		RedisURL:          "redis://" + mr.Addr(),
		HealthAdminKey:    "k",
		StartingBalance:   decimal.NewFromInt(10000),
		HistoryCapacity:   50,
		MarketProvider:    "yahoo",
		YahooBaseURL:      yahoo.URL,
		QuoteCacheTTL:     15 * time.Second,
		AlertPollInterval: time.Minute,
		LiveTickInterval:  time.Hour,
	}
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	a, err := CreateApp(ctx, cfg)
	require.NoError(t, err)
	t.Cleanup(a.Close)
	return a
}

func do(t *testing.T, a *App, method, path, body string, cookies ...*http.Cookie) (*http.Response, map[string]interface{}) {
	t.Helper()
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	for _, c := range cookies {
		req.AddCookie(c)
	}
	resp, err := a.Fiber.Test(req, -1)
	require.NoError(t, err)
	var out map[string]interface{}
	_ = json.NewDecoder(resp.Body).Decode(&out)
	return resp, out
}

func TestCreateApp_RequiresRedis(t *testing.T) {
	_, err := CreateApp(context.Background(), &config.Config{DatabaseURL: ":memory:"})
	assert.Error(t, err)
}

func TestHealthJSON(t *testing.T) {
	a := newTestApp(t)
	resp, out := do(t, a, "GET", "/health/json", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "traderiser-api", out["service"])
	assert.Equal(t, "ok", out["status"])
	deps := out["dependencies"].(map[string]interface{})
	assert.Equal(t, "unreachable", deps["market_data_yahoo"].(map[string]interface{})["status"])
}

func TestRegisterLoginAndPortfolio(t *testing.T) {
	a := newTestApp(t)

	resp, _ := do(t, a, "GET", "/api/v1/portfolio", "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, _ = do(t, a, "POST", "/api/v1/auth/register",
		`{"username":"trader1","email":"trader1@example.com","password":"Passw0rd!","confirm_password":"Passw0rd!"}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp, _ = do(t, a, "POST", "/api/v1/auth/login", `{"username":"trader1","password":"Passw0rd!"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	cookies := resp.Cookies()
	require.NotEmpty(t, cookies)

	resp, out := do(t, a, "GET", "/api/v1/portfolio", "", cookies...)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	data := out["data"].(map[string]interface{})
	assert.Equal(t, "10000", data["total_value"])

	resp, out = do(t, a, "GET", "/api/v1/portfolio/history", "", cookies...)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, out["data"], 1)

	// No price can be resolved while the upstream is down.
	resp, out = do(t, a, "POST", "/api/v1/trading/buy", `{"ticker":"AAPL","quantity":1}`, cookies...)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	assert.Equal(t, "Cannot buy: current price unavailable", out["error"].(map[string]interface{})["message"])
}

func TestMarketNewsDegrades(t *testing.T) {
	a := newTestApp(t)
	resp, out := do(t, a, "GET", "/api/v1/market/news?limit=2", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, true, out["metadata"].(map[string]interface{})["degraded"])
	assert.Len(t, out["data"], 2)
}
