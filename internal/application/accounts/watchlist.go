package accounts

import (
	"context"
	"errors"

	"traderiser-backend/internal/domain"
	"traderiser-backend/internal/pkg/validation"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Watchlist returns the account's tickers in insertion order.
func (s *Service) Watchlist(ctx context.Context, id uuid.UUID) ([]string, error) {
	acct, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return acct.WatchlistTickers(), nil
}

// AddToWatchlist appends ticker if absent.
func (s *Service) AddToWatchlist(ctx context.Context, id uuid.UUID, ticker string) ([]string, error) {
	ticker = domain.NormalizeTicker(ticker)
	if !validation.IsValidTicker(ticker) {
		return nil, domain.ErrInvalidTicker
	}
	return s.editWatchlist(ctx, id, func(cur []string) []string {
		return append(cur, ticker)
	})
}

// RemoveFromWatchlist drops ticker; removing an absent ticker is a no-op.
func (s *Service) RemoveFromWatchlist(ctx context.Context, id uuid.UUID, ticker string) ([]string, error) {
	ticker = domain.NormalizeTicker(ticker)
	return s.editWatchlist(ctx, id, func(cur []string) []string {
		out := cur[:0]
		for _, t := range cur {
			if t != ticker {
				out = append(out, t)
			}
		}
		return out
	})
}

// editWatchlist applies edit under the account version check, retrying on a lost race.
func (s *Service) editWatchlist(ctx context.Context, id uuid.UUID, edit func([]string) []string) ([]string, error) {
	for attempt := 0; attempt < 3; attempt++ {
		var out []string
		err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			var acct domain.Account
			if err := tx.Where("account_id = ?", id).First(&acct).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return domain.ErrAccountNotFound
				}
				return err
			}
			acct.SetWatchlist(edit(acct.WatchlistTickers()))
			res := tx.Model(&domain.Account{}).
				Where("account_id = ? AND version = ?", id, acct.Version).
				Updates(map[string]interface{}{"watchlist": acct.Watchlist, "version": acct.Version + 1})
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				return domain.ErrConcurrentUpdate
			}
			out = acct.WatchlistTickers()
			return nil
		})
		if errors.Is(err, domain.ErrConcurrentUpdate) {
			continue
		}
		if err != nil {
			return nil, err
		}
		return out, nil
	}
	return nil, domain.ErrConcurrentUpdate
}
