package valuation

import (
	"context"
	"errors"
	"time"

	"traderiser-backend/internal/domain"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Where a holding's mark price came from.
const (
	SourceMarket      = "market"
	SourceLastSeen    = "last_seen"
	SourcePlaceholder = "placeholder"
)

// PriceSource supplies mark prices. LastSeen is consulted when LatestPrice fails.
type PriceSource interface {
	LatestPrice(ctx context.Context, ticker string) (decimal.Decimal, error)
	LastSeen(ticker string) (decimal.Decimal, bool)
}

// HoldingValue is one line of the breakdown.
type HoldingValue struct {
	Ticker      string          `json:"ticker"`
	Quantity    int64           `json:"quantity"`
	AverageCost decimal.Decimal `json:"average_cost"`
	Price       decimal.Decimal `json:"price"`
	PriceSource string          `json:"price_source"`
	Value       decimal.Decimal `json:"value"`
	PnL         decimal.Decimal `json:"pnl"`
}

// Snapshot is a mark-to-market view of an account.
type Snapshot struct {
	AccountID      uuid.UUID       `json:"account_id"`
	Cash           decimal.Decimal `json:"cash"`
	PortfolioValue decimal.Decimal `json:"portfolio_value"`
	TotalValue     decimal.Decimal `json:"total_value"`
	NetPnL         decimal.Decimal `json:"net_pnl"`
	TotalShares    int64           `json:"total_shares"`
	TotalAssets    int             `json:"total_assets"`
	Breakdown      []HoldingValue  `json:"breakdown"`
}

// Service values accounts and records their value history.
type Service struct {
	DB     *gorm.DB
	Prices PriceSource
	Store  HistoryStore
	Now    func() time.Time
}

// Valuate marks every holding, totals the account and appends one history
// sample of cash + portfolio value.
func (s *Service) Valuate(ctx context.Context, accountID uuid.UUID) (*Snapshot, error) {
	var acct domain.Account
	if err := s.DB.WithContext(ctx).Where("account_id = ?", accountID).First(&acct).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrAccountNotFound
		}
		return nil, err
	}
	var holdings []domain.Holding
	if err := s.DB.WithContext(ctx).Where("account_id = ?", accountID).Order("ticker ASC").Find(&holdings).Error; err != nil {
		return nil, err
	}

	snap := Compute(acct.CashBalance, holdings, func(ticker string) (decimal.Decimal, string) {
		return s.mark(ctx, ticker)
	})
	snap.AccountID = accountID

	if s.Store != nil {
		if err := s.Store.Append(ctx, accountID, Sample{Time: s.now().UTC(), Value: snap.TotalValue}); err != nil {
			log.Warn().Err(err).Str("account_id", accountID.String()).Msg("Failed to record valuation history")
		}
	}
	return snap, nil
}

// History returns the recorded samples oldest-first.
func (s *Service) History(ctx context.Context, accountID uuid.UUID) ([]Sample, error) {
	if s.Store == nil {
		return []Sample{}, nil
	}
	return s.Store.Samples(ctx, accountID)
}

func (s *Service) mark(ctx context.Context, ticker string) (decimal.Decimal, string) {
	if s.Prices == nil {
		return decimal.Zero, SourcePlaceholder
	}
	p, err := s.Prices.LatestPrice(ctx, ticker)
	if err == nil && p.IsPositive() {
		return p, SourceMarket
	}
	if last, ok := s.Prices.LastSeen(ticker); ok {
		log.Debug().Err(err).Str("ticker", ticker).Msg("Valuing at last seen price")
		return last, SourceLastSeen
	}
	log.Warn().Err(err).Str("ticker", ticker).Msg("No price available, valuing at zero")
	return decimal.Zero, SourcePlaceholder
}

// Compute is the pure valuation: value = price*qty, pnl = (price-avg)*qty,
// both rounded to cents.
func Compute(cash decimal.Decimal, holdings []domain.Holding, price func(ticker string) (decimal.Decimal, string)) *Snapshot {
	snap := &Snapshot{
		Cash:           cash,
		PortfolioValue: decimal.Zero,
		NetPnL:         decimal.Zero,
		Breakdown:      make([]HoldingValue, 0, len(holdings)),
	}
	for _, h := range holdings {
		p, src := price(h.Ticker)
		qty := decimal.NewFromInt(h.Quantity)
		value := p.Mul(qty).Round(2)
		pnl := p.Sub(h.AverageCost).Mul(qty).Round(2)
		snap.Breakdown = append(snap.Breakdown, HoldingValue{
			Ticker:      h.Ticker,
			Quantity:    h.Quantity,
			AverageCost: h.AverageCost,
			Price:       p,
			PriceSource: src,
			Value:       value,
			PnL:         pnl,
		})
		snap.PortfolioValue = snap.PortfolioValue.Add(value)
		snap.NetPnL = snap.NetPnL.Add(pnl)
		snap.TotalShares += h.Quantity
	}
	snap.TotalAssets = len(holdings)
	snap.TotalValue = cash.Add(snap.PortfolioValue)
	return snap
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}
