package alerts

import (
	"context"
	"errors"

	"traderiser-backend/internal/application/emails"
	"traderiser-backend/internal/domain"
	"traderiser-backend/internal/pkg/validation"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// PriceSource returns the latest observed price for a ticker.
type PriceSource interface {
	LatestPrice(ctx context.Context, ticker string) (decimal.Decimal, error)
}

// Fired describes an alert that triggered during a check.
type Fired struct {
	Alert   domain.Alert    `json:"alert"`
	Price   decimal.Decimal `json:"price"`
	Warning string          `json:"warning,omitempty"`
}

// CheckResult is the outcome of one pass over an account's alerts.
type CheckResult struct {
	Fired    []Fired  `json:"fired"`
	Armed    int      `json:"armed"`
	Warnings []string `json:"warnings"`
}

type Service struct {
	DB     *gorm.DB
	Prices PriceSource
	Mailer emails.Sender
}

// Create arms a new alert.
func (s *Service) Create(ctx context.Context, accountID uuid.UUID, ticker string, target decimal.Decimal) (*domain.Alert, error) {
	ticker = domain.NormalizeTicker(ticker)
	if !validation.IsValidTicker(ticker) {
		return nil, domain.ErrInvalidTicker
	}
	if !target.IsPositive() {
		return nil, ErrInvalidTarget
	}
	var n int64
	if err := s.DB.WithContext(ctx).Model(&domain.Account{}).Where("account_id = ?", accountID).Count(&n).Error; err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, domain.ErrAccountNotFound
	}
	a := domain.Alert{AccountID: accountID, Ticker: ticker, TargetPrice: target}
	if err := s.DB.WithContext(ctx).Create(&a).Error; err != nil {
		return nil, err
	}
	return &a, nil
}

// List returns the account's armed alerts, oldest first.
func (s *Service) List(ctx context.Context, accountID uuid.UUID) ([]domain.Alert, error) {
	var out []domain.Alert
	err := s.DB.WithContext(ctx).Where("account_id = ?", accountID).Order(`"createdAt" ASC`).Find(&out).Error
	return out, err
}

// Delete disarms an alert owned by accountID.
func (s *Service) Delete(ctx context.Context, accountID, alertID uuid.UUID) error {
	res := s.DB.WithContext(ctx).Where("alert_id = ? AND account_id = ?", alertID, accountID).Delete(&domain.Alert{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrAlertNotFound
	}
	return nil
}

// Check evaluates every armed alert of one account. An alert whose price
// cannot be fetched stays armed. A reached alert is removed even when the
// notification fails; the failure is reported as a warning.
func (s *Service) Check(ctx context.Context, accountID uuid.UUID) (*CheckResult, error) {
	var acct domain.Account
	if err := s.DB.WithContext(ctx).Where("account_id = ?", accountID).First(&acct).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrAccountNotFound
		}
		return nil, err
	}
	armed, err := s.List(ctx, accountID)
	if err != nil {
		return nil, err
	}

	res := &CheckResult{Fired: []Fired{}, Warnings: []string{}}
	prices := make(map[string]decimal.Decimal)
	for _, a := range armed {
		price, ok := prices[a.Ticker]
		if !ok {
			p, err := s.Prices.LatestPrice(ctx, a.Ticker)
			if err != nil {
				log.Warn().Err(err).Str("ticker", a.Ticker).Msg("Alert check skipped, price unavailable")
				res.Warnings = append(res.Warnings, "Price unavailable for "+a.Ticker)
				res.Armed++
				continue
			}
			price = p
			prices[a.Ticker] = p
		}
		if !a.Reached(price) {
			res.Armed++
			continue
		}

		// Claim the alert first so concurrent checks fire it once.
		del := s.DB.WithContext(ctx).Where("alert_id = ?", a.AlertID).Delete(&domain.Alert{})
		if del.Error != nil {
			return nil, del.Error
		}
		if del.RowsAffected == 0 {
			continue
		}

		f := Fired{Alert: a, Price: price}
		if s.Mailer != nil {
			if err := s.Mailer.SendPriceAlert(ctx, acct.Email, acct.Username, a.Ticker, price, a.TargetPrice); err != nil {
				log.Warn().Err(err).Str("alert_id", a.AlertID.String()).Msg("Price alert notification failed")
				f.Warning = "Alert triggered but notification failed: " + err.Error()
				res.Warnings = append(res.Warnings, f.Warning)
			}
		}
		log.Info().Str("account_id", accountID.String()).Str("ticker", a.Ticker).
			Str("price", price.String()).Str("target", a.TargetPrice.String()).Msg("Price alert fired")
		res.Fired = append(res.Fired, f)
	}
	return res, nil
}

// ArmedAccounts lists accounts with at least one armed alert.
func (s *Service) ArmedAccounts(ctx context.Context) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := s.DB.WithContext(ctx).Model(&domain.Alert{}).Distinct("account_id").Pluck("account_id", &ids).Error
	return ids, err
}
