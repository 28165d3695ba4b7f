package ledger

import (
	"context"
	"errors"
	"time"

	"traderiser-backend/internal/domain"
	"traderiser-backend/internal/pkg/validation"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const maxAttempts = 3

// Service applies orders to an account. Each order is one DB transaction; the
// account row is written with a version check so concurrent orders cannot
// overwrite each other.
type Service struct {
	DB  *gorm.DB
	Now func() time.Time
}

// OrderResult is the post-order state. Holding is nil when a sell closed the position.
type OrderResult struct {
	Account     domain.Account     `json:"account"`
	Holding     *domain.Holding    `json:"holding"`
	Transaction domain.Transaction `json:"transaction"`
}

type order struct {
	accountID uuid.UUID
	side      string
	ticker    string
	quantity  int64
	price     decimal.Decimal
}

// Buy debits price*quantity and folds the lot into the holding's average cost.
// An order costing exactly the cash balance succeeds.
func (s *Service) Buy(ctx context.Context, accountID uuid.UUID, ticker string, quantity int64, price decimal.Decimal) (*OrderResult, error) {
	return s.execute(ctx, order{accountID: accountID, side: domain.SideBuy, ticker: ticker, quantity: quantity, price: price})
}

// Sell credits price*quantity and reduces the holding, deleting it at zero.
// Average cost is unchanged by sells.
func (s *Service) Sell(ctx context.Context, accountID uuid.UUID, ticker string, quantity int64, price decimal.Decimal) (*OrderResult, error) {
	return s.execute(ctx, order{accountID: accountID, side: domain.SideSell, ticker: ticker, quantity: quantity, price: price})
}

func (s *Service) execute(ctx context.Context, o order) (*OrderResult, error) {
	o.ticker = domain.NormalizeTicker(o.ticker)
	if !validation.IsValidTicker(o.ticker) {
		return nil, domain.ErrInvalidTicker
	}
	if o.quantity <= 0 {
		return nil, domain.ErrInvalidQuantity
	}
	if !o.price.IsPositive() {
		return nil, domain.ErrInvalidPrice
	}

	var (
		res *OrderResult
		err error
	)
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		res, err = s.apply(ctx, o)
		if !errors.Is(err, domain.ErrConcurrentUpdate) {
			break
		}
		log.Warn().Str("account_id", o.accountID.String()).Int("attempt", attempt).Msg("Order lost a version race, retrying")
	}
	if err != nil {
		return nil, err
	}
	log.Info().
		Str("account_id", o.accountID.String()).
		Str("side", o.side).
		Str("ticker", o.ticker).
		Int64("quantity", o.quantity).
		Str("price", o.price.String()).
		Msg("Order executed")
	return res, nil
}

func (s *Service) apply(ctx context.Context, o order) (*OrderResult, error) {
	var result OrderResult
	total := o.price.Mul(decimal.NewFromInt(o.quantity))

	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var acct domain.Account
		if err := tx.Where("account_id = ?", o.accountID).First(&acct).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domain.ErrAccountNotFound
			}
			return err
		}

		var holding domain.Holding
		found := true
		if err := tx.Where("account_id = ? AND ticker = ?", o.accountID, o.ticker).First(&holding).Error; err != nil {
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				return err
			}
			found = false
		}

		newCash := acct.CashBalance
		switch o.side {
		case domain.SideBuy:
			if total.GreaterThan(acct.CashBalance) {
				return domain.ErrInsufficientFunds
			}
			newCash = acct.CashBalance.Sub(total)
			if !found {
				holding = domain.Holding{AccountID: o.accountID, Ticker: o.ticker, AverageCost: decimal.Zero}
			}
			holding.AddLot(o.quantity, o.price)
			if found {
				if err := tx.Model(&domain.Holding{}).Where("holding_id = ?", holding.HoldingID).
					Updates(map[string]interface{}{"quantity": holding.Quantity, "average_cost": holding.AverageCost}).Error; err != nil {
					return err
				}
			} else if err := tx.Create(&holding).Error; err != nil {
				return err
			}
			result.Holding = &holding

		case domain.SideSell:
			if !found {
				return domain.ErrHoldingNotFound
			}
			if holding.Quantity < o.quantity {
				return domain.ErrInsufficientShares
			}
			newCash = acct.CashBalance.Add(total)
			holding.Quantity -= o.quantity
			if holding.Quantity == 0 {
				if err := tx.Delete(&domain.Holding{}, "holding_id = ?", holding.HoldingID).Error; err != nil {
					return err
				}
			} else {
				if err := tx.Model(&domain.Holding{}).Where("holding_id = ?", holding.HoldingID).
					Updates(map[string]interface{}{"quantity": holding.Quantity}).Error; err != nil {
					return err
				}
				result.Holding = &holding
			}
		}

		upd := tx.Model(&domain.Account{}).
			Where("account_id = ? AND version = ?", acct.AccountID, acct.Version).
			Updates(map[string]interface{}{"cash_balance": newCash, "version": acct.Version + 1})
		if upd.Error != nil {
			return upd.Error
		}
		if upd.RowsAffected == 0 {
			return domain.ErrConcurrentUpdate
		}
		acct.CashBalance = newCash
		acct.Version++

		rec := domain.Transaction{
			AccountID: acct.AccountID,
			Seq:       acct.Version,
			Ticker:    o.ticker,
			Side:      o.side,
			Quantity:  o.quantity,
			Price:     o.price,
			Total:     total,
			CreatedAt: s.now(),
		}
		if err := tx.Create(&rec).Error; err != nil {
			return err
		}

		result.Account = acct
		result.Transaction = rec
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// Holdings lists open positions by ticker.
func (s *Service) Holdings(ctx context.Context, accountID uuid.UUID) ([]domain.Holding, error) {
	var hs []domain.Holding
	err := s.DB.WithContext(ctx).Where("account_id = ?", accountID).Order("ticker ASC").Find(&hs).Error
	return hs, err
}

// Transactions lists order records in append order. limit <= 0 returns all.
func (s *Service) Transactions(ctx context.Context, accountID uuid.UUID, limit int) ([]domain.Transaction, error) {
	q := s.DB.WithContext(ctx).Where("account_id = ?", accountID).Order("seq ASC")
	if limit > 0 {
		// Most recent `limit`, still oldest-first.
		var total int64
		if err := s.DB.WithContext(ctx).Model(&domain.Transaction{}).Where("account_id = ?", accountID).Count(&total).Error; err != nil {
			return nil, err
		}
		if offset := int(total) - limit; offset > 0 {
			q = q.Offset(offset)
		}
		q = q.Limit(limit)
	}
	var txs []domain.Transaction
	err := q.Find(&txs).Error
	return txs, err
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}
