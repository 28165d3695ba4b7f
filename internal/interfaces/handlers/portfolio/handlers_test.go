package portfolio

import (
	"context"
	"encoding/json"
	"errors"
	"net/http/httptest"
	"testing"

	"traderiser-backend/internal/application/valuation"
	"traderiser-backend/internal/domain"

	"github.com/glebarez/sqlite"
	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type prices struct{ fail bool }

func (p prices) LatestPrice(context.Context, string) (decimal.Decimal, error) {
	if p.fail {
		return decimal.Zero, errors.New("down")
	}
	return decimal.NewFromInt(60), nil
}

func (prices) LastSeen(string) (decimal.Decimal, bool) { return decimal.Zero, false }

func TestSnapshotAndHistory(t *testing.T) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(domain.Models()...))
	acct := domain.Account{Username: "p", PasswordHash: "x", CashBalance: decimal.NewFromInt(9800)}
	require.NoError(t, db.Create(&acct).Error)
	require.NoError(t, db.Create(&domain.Holding{AccountID: acct.AccountID, Ticker: "AAPL", Quantity: 5, AverageCost: decimal.NewFromInt(50)}).Error)

	svc := &valuation.Service{DB: db, Prices: prices{}, Store: valuation.NewMemoryHistory(50)}
	h := &Handlers{Valuation: svc}
	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		c.Locals("user", map[string]interface{}{"account_id": acct.AccountID.String()})
		return c.Next()
	})
	app.Get("/portfolio", h.Snapshot)
	app.Get("/portfolio/history", h.History)

	resp, err := app.Test(httptest.NewRequest("GET", "/portfolio", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var out map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	data := out["data"].(map[string]interface{})
	assert.Equal(t, "300", data["portfolio_value"])
	assert.Equal(t, "10100", data["total_value"])
	assert.Equal(t, "50", data["net_pnl"])
	assert.Equal(t, false, out["metadata"].(map[string]interface{})["degraded"])

	svc.Prices = prices{fail: true}
	resp, err = app.Test(httptest.NewRequest("GET", "/portfolio", nil))
	require.NoError(t, err)
	out = nil
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	assert.Equal(t, true, out["metadata"].(map[string]interface{})["degraded"])

	resp, err = app.Test(httptest.NewRequest("GET", "/portfolio/history", nil))
	require.NoError(t, err)
	out = nil
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	assert.Len(t, out["data"].([]interface{}), 2)
}
