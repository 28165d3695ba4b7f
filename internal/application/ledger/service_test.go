package ledger

import (
	"context"
	"sync"
	"testing"

	"traderiser-backend/internal/domain"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(domain.Models()...))
	return db
}

func seedAccount(t *testing.T, db *gorm.DB, cash string) uuid.UUID {
	t.Helper()
	acct := domain.Account{Username: "trader-" + uuid.NewString()[:8], PasswordHash: "x", CashBalance: decimal.RequireFromString(cash)}
	require.NoError(t, db.Create(&acct).Error)
	return acct.AccountID
}

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func cashOf(t *testing.T, db *gorm.DB, id uuid.UUID) decimal.Decimal {
	t.Helper()
	var a domain.Account
	require.NoError(t, db.First(&a, "account_id = ?", id).Error)
	return a.CashBalance
}

func TestBuyThenSell_Scenario(t *testing.T) {
	db := setupDB(t)
	svc := &Service{DB: db}
	ctx := context.Background()
	id := seedAccount(t, db, "10000")

	res, err := svc.Buy(ctx, id, "aapl", 10, d("50"))
	require.NoError(t, err)
	assert.True(t, res.Account.CashBalance.Equal(d("9500")))
	assert.Equal(t, int64(10), res.Holding.Quantity)
	assert.True(t, res.Holding.AverageCost.Equal(d("50")))
	assert.Equal(t, "AAPL", res.Transaction.Ticker)
	assert.True(t, res.Transaction.Total.Equal(d("500")))

	res, err = svc.Sell(ctx, id, "AAPL", 5, d("60"))
	require.NoError(t, err)
	assert.True(t, res.Account.CashBalance.Equal(d("9800")))
	require.NotNil(t, res.Holding)
	assert.Equal(t, int64(5), res.Holding.Quantity)
	assert.True(t, res.Holding.AverageCost.Equal(d("50")))

	assert.True(t, cashOf(t, db, id).Equal(d("9800")))

	txs, err := svc.Transactions(ctx, id, 0)
	require.NoError(t, err)
	require.Len(t, txs, 2)
	assert.Equal(t, domain.SideBuy, txs[0].Side)
	assert.Equal(t, domain.SideSell, txs[1].Side)
	assert.Less(t, txs[0].Seq, txs[1].Seq)
}

func TestBuy_WeightedAverageCost(t *testing.T) {
	db := setupDB(t)
	svc := &Service{DB: db}
	ctx := context.Background()
	id := seedAccount(t, db, "10000")

	_, err := svc.Buy(ctx, id, "MSFT", 10, d("100"))
	require.NoError(t, err)
	res, err := svc.Buy(ctx, id, "MSFT", 30, d("120"))
	require.NoError(t, err)

	// (100*10 + 120*30) / 40 = 115
	assert.Equal(t, int64(40), res.Holding.Quantity)
	assert.True(t, res.Holding.AverageCost.Equal(d("115")), res.Holding.AverageCost.String())
	assert.True(t, res.Account.CashBalance.Equal(d("5400")))

	hs, err := svc.Holdings(ctx, id)
	require.NoError(t, err)
	require.Len(t, hs, 1)
	assert.True(t, hs[0].AverageCost.Equal(d("115")))
}

func TestBuy_BalanceBoundary(t *testing.T) {
	db := setupDB(t)
	svc := &Service{DB: db}
	ctx := context.Background()

	over := seedAccount(t, db, "999.99")
	_, err := svc.Buy(ctx, over, "AAPL", 10, d("100"))
	assert.ErrorIs(t, err, domain.ErrInsufficientFunds)
	assert.True(t, cashOf(t, db, over).Equal(d("999.99")))

	exact := seedAccount(t, db, "1000")
	res, err := svc.Buy(ctx, exact, "AAPL", 10, d("100"))
	require.NoError(t, err)
	assert.True(t, res.Account.CashBalance.IsZero())
}

func TestBuy_RejectsInvalidInput(t *testing.T) {
	db := setupDB(t)
	svc := &Service{DB: db}
	ctx := context.Background()
	id := seedAccount(t, db, "10000")

	_, err := svc.Buy(ctx, id, "AAPL", 0, d("10"))
	assert.ErrorIs(t, err, domain.ErrInvalidQuantity)
	_, err = svc.Buy(ctx, id, "AAPL", 1, d("0"))
	assert.ErrorIs(t, err, domain.ErrInvalidPrice)
	_, err = svc.Buy(ctx, id, "AAPL", 1, d("-5"))
	assert.ErrorIs(t, err, domain.ErrInvalidPrice)
	_, err = svc.Buy(ctx, id, "not a ticker", 1, d("5"))
	assert.ErrorIs(t, err, domain.ErrInvalidTicker)
	_, err = svc.Buy(ctx, uuid.New(), "AAPL", 1, d("5"))
	assert.ErrorIs(t, err, domain.ErrAccountNotFound)

	txs, err := svc.Transactions(ctx, id, 0)
	require.NoError(t, err)
	assert.Empty(t, txs)
}

func TestSell_FullPositionRemovesHolding(t *testing.T) {
	db := setupDB(t)
	svc := &Service{DB: db}
	ctx := context.Background()
	id := seedAccount(t, db, "10000")

	_, err := svc.Buy(ctx, id, "TSLA", 4, d("250"))
	require.NoError(t, err)
	res, err := svc.Sell(ctx, id, "TSLA", 4, d("200"))
	require.NoError(t, err)
	assert.Nil(t, res.Holding)
	assert.True(t, res.Account.CashBalance.Equal(d("9800")))

	hs, err := svc.Holdings(ctx, id)
	require.NoError(t, err)
	assert.Empty(t, hs)

	var count int64
	db.Model(&domain.Holding{}).Where("account_id = ?", id).Count(&count)
	assert.Zero(t, count)
}

func TestSell_Failures(t *testing.T) {
	db := setupDB(t)
	svc := &Service{DB: db}
	ctx := context.Background()
	id := seedAccount(t, db, "10000")

	_, err := svc.Sell(ctx, id, "AAPL", 1, d("10"))
	assert.ErrorIs(t, err, domain.ErrHoldingNotFound)

	_, err = svc.Buy(ctx, id, "AAPL", 2, d("10"))
	require.NoError(t, err)
	_, err = svc.Sell(ctx, id, "AAPL", 3, d("10"))
	assert.ErrorIs(t, err, domain.ErrInsufficientShares)

	assert.True(t, cashOf(t, db, id).Equal(d("9980")))
	txs, err := svc.Transactions(ctx, id, 0)
	require.NoError(t, err)
	assert.Len(t, txs, 1)
}

func TestOrders_ConcurrentBuysDoNotLoseUpdates(t *testing.T) {
	db := setupDB(t)
	svc := &Service{DB: db}
	ctx := context.Background()
	id := seedAccount(t, db, "10000")

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Buy(ctx, id, "AAPL", 1, d("100"))
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.True(t, cashOf(t, db, id).Equal(d("9200")))
	hs, err := svc.Holdings(ctx, id)
	require.NoError(t, err)
	require.Len(t, hs, 1)
	assert.Equal(t, int64(8), hs[0].Quantity)

	txs, err := svc.Transactions(ctx, id, 0)
	require.NoError(t, err)
	assert.Len(t, txs, 8)
}

func TestTransactions_LimitKeepsMostRecentInOrder(t *testing.T) {
	db := setupDB(t)
	svc := &Service{DB: db}
	ctx := context.Background()
	id := seedAccount(t, db, "10000")

	for i := 1; i <= 4; i++ {
		_, err := svc.Buy(ctx, id, "AAPL", int64(i), d("1"))
		require.NoError(t, err)
	}
	txs, err := svc.Transactions(ctx, id, 2)
	require.NoError(t, err)
	require.Len(t, txs, 2)
	assert.Equal(t, int64(3), txs[0].Quantity)
	assert.Equal(t, int64(4), txs[1].Quantity)
}

func TestTransactions_SeqOrdersAcrossOtherAccountEdits(t *testing.T) {
	db := setupDB(t)
	svc := &Service{DB: db}
	ctx := context.Background()
	id := seedAccount(t, db, "10000")

	_, err := svc.Buy(ctx, id, "AAPL", 1, d("10"))
	require.NoError(t, err)
	// A profile or watchlist edit also bumps the account version.
	require.NoError(t, db.Model(&domain.Account{}).Where("account_id = ?", id).
		Update("version", gorm.Expr("version + 1")).Error)
	_, err = svc.Buy(ctx, id, "AAPL", 1, d("10"))
	require.NoError(t, err)

	txs, err := svc.Transactions(ctx, id, 0)
	require.NoError(t, err)
	require.Len(t, txs, 2)
	assert.Equal(t, txs[0].Seq+2, txs[1].Seq)
}

func TestBuy_AverageCostMatchesStoredValue(t *testing.T) {
	db := setupDB(t)
	svc := &Service{DB: db}
	ctx := context.Background()
	id := seedAccount(t, db, "10000")

	_, err := svc.Buy(ctx, id, "AAPL", 10, d("100"))
	require.NoError(t, err)
	res, err := svc.Buy(ctx, id, "AAPL", 20, d("101"))
	require.NoError(t, err)
	assert.Equal(t, "100.6667", res.Holding.AverageCost.String())

	hs, err := svc.Holdings(ctx, id)
	require.NoError(t, err)
	require.Len(t, hs, 1)
	assert.True(t, hs[0].AverageCost.Equal(res.Holding.AverageCost), hs[0].AverageCost.String())
}
