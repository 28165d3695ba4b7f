package alerts

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"traderiser-backend/internal/domain"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type fakePrices struct {
	mu     sync.Mutex
	prices map[string]decimal.Decimal
	err    error
}

func (f *fakePrices) set(ticker, p string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.prices[ticker] = decimal.RequireFromString(p)
}

func (f *fakePrices) LatestPrice(_ context.Context, ticker string) (decimal.Decimal, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return decimal.Zero, f.err
	}
	p, ok := f.prices[ticker]
	if !ok {
		return decimal.Zero, errors.New("no data")
	}
	return p, nil
}

type fakeMailer struct {
	sent []string
	err  error
}

func (m *fakeMailer) SendWelcome(context.Context, string, string, decimal.Decimal) error { return nil }
func (m *fakeMailer) SendWaitlistConfirmation(context.Context, string, string) error     { return nil }
func (m *fakeMailer) SendPriceAlert(_ context.Context, to, _, ticker string, _, _ decimal.Decimal) error {
	m.sent = append(m.sent, to+":"+ticker)
	return m.err
}

func setup(t *testing.T) (*Service, *fakePrices, *fakeMailer, uuid.UUID) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(domain.Models()...))
	acct := domain.Account{Username: "alice", Email: "alice@example.com", PasswordHash: "x", CashBalance: decimal.NewFromInt(10000)}
	require.NoError(t, db.Create(&acct).Error)

	prices := &fakePrices{prices: map[string]decimal.Decimal{}}
	mailer := &fakeMailer{}
	return &Service{DB: db, Prices: prices, Mailer: mailer}, prices, mailer, acct.AccountID
}

func TestCheck_FiresOnceAtTarget(t *testing.T) {
	svc, prices, mailer, id := setup(t)
	ctx := context.Background()
	_, err := svc.Create(ctx, id, "aapl", decimal.NewFromInt(150))
	require.NoError(t, err)

	prices.set("AAPL", "149.99")
	res, err := svc.Check(ctx, id)
	require.NoError(t, err)
	assert.Empty(t, res.Fired)
	assert.Equal(t, 1, res.Armed)

	prices.set("AAPL", "150.00")
	res, err = svc.Check(ctx, id)
	require.NoError(t, err)
	require.Len(t, res.Fired, 1)
	assert.Equal(t, "AAPL", res.Fired[0].Alert.Ticker)
	assert.Equal(t, []string{"alice@example.com:AAPL"}, mailer.sent)

	res, err = svc.Check(ctx, id)
	require.NoError(t, err)
	assert.Empty(t, res.Fired)
	left, err := svc.List(ctx, id)
	require.NoError(t, err)
	assert.Empty(t, left)
	assert.Len(t, mailer.sent, 1)
}

func TestCheck_NotificationFailureStillConsumesAlert(t *testing.T) {
	svc, prices, mailer, id := setup(t)
	ctx := context.Background()
	mailer.err = errors.New("smtp down")
	_, err := svc.Create(ctx, id, "MSFT", decimal.NewFromInt(300))
	require.NoError(t, err)
	prices.set("MSFT", "310")

	res, err := svc.Check(ctx, id)
	require.NoError(t, err)
	require.Len(t, res.Fired, 1)
	assert.Contains(t, res.Fired[0].Warning, "smtp down")
	assert.Len(t, res.Warnings, 1)

	left, err := svc.List(ctx, id)
	require.NoError(t, err)
	assert.Empty(t, left)
}

func TestCheck_PriceErrorKeepsAlertArmed(t *testing.T) {
	svc, prices, _, id := setup(t)
	ctx := context.Background()
	_, err := svc.Create(ctx, id, "TSLA", decimal.NewFromInt(1))
	require.NoError(t, err)
	prices.err = errors.New("rate limited")

	res, err := svc.Check(ctx, id)
	require.NoError(t, err)
	assert.Empty(t, res.Fired)
	assert.Equal(t, 1, res.Armed)
	assert.Equal(t, []string{"Price unavailable for TSLA"}, res.Warnings)

	left, err := svc.List(ctx, id)
	require.NoError(t, err)
	assert.Len(t, left, 1)
}

func TestCreate_Validation(t *testing.T) {
	svc, _, _, id := setup(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, id, "", decimal.NewFromInt(10))
	assert.ErrorIs(t, err, domain.ErrInvalidTicker)
	_, err = svc.Create(ctx, id, "AAPL", decimal.Zero)
	assert.ErrorIs(t, err, ErrInvalidTarget)
	_, err = svc.Create(ctx, uuid.New(), "AAPL", decimal.NewFromInt(10))
	assert.ErrorIs(t, err, domain.ErrAccountNotFound)
}

func TestDelete(t *testing.T) {
	svc, _, _, id := setup(t)
	ctx := context.Background()
	a, err := svc.Create(ctx, id, "NVDA", decimal.NewFromInt(900))
	require.NoError(t, err)

	assert.ErrorIs(t, svc.Delete(ctx, uuid.New(), a.AlertID), domain.ErrAlertNotFound)
	require.NoError(t, svc.Delete(ctx, id, a.AlertID))
	assert.ErrorIs(t, svc.Delete(ctx, id, a.AlertID), domain.ErrAlertNotFound)
}

func TestMonitor_SweepAndRun(t *testing.T) {
	svc, prices, mailer, id := setup(t)
	ctx := context.Background()
	_, err := svc.Create(ctx, id, "AAPL", decimal.NewFromInt(100))
	require.NoError(t, err)
	_, err = svc.Create(ctx, id, "MSFT", decimal.NewFromInt(500))
	require.NoError(t, err)
	prices.set("AAPL", "101")
	prices.set("MSFT", "400")

	m := &Monitor{Service: svc, Interval: 10 * time.Millisecond}
	assert.Equal(t, 1, m.Sweep(ctx))
	assert.Equal(t, 0, m.Sweep(ctx))

	prices.set("MSFT", "500")
	runCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	go func() {
		m.Run(runCtx)
		close(done)
	}()
	require.Eventually(t, func() bool {
		left, err := svc.List(ctx, id)
		return err == nil && len(left) == 0
	}, 2*time.Second, 10*time.Millisecond)
	cancel()
	<-done
	assert.Len(t, mailer.sent, 2)
}
