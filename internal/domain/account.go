package domain

import (
	"strings"
	"time"

	json "github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Account is a paper-trading account. Version is bumped on every ledger
// mutation and guards the row against lost updates.
type Account struct {
	AccountID    uuid.UUID       `gorm:"column:account_id;type:uuid;primaryKey" json:"account_id"`
	Username     string          `gorm:"column:username;type:varchar(64);uniqueIndex;not null" json:"username"`
	Email        string          `gorm:"column:email;type:varchar(255)" json:"email"`
	PasswordHash string          `gorm:"column:password_hash;type:varchar(255);not null" json:"-"`
	CashBalance  decimal.Decimal `gorm:"column:cash_balance;type:decimal(18,4);not null" json:"cash_balance"`
	Watchlist    datatypes.JSON  `gorm:"column:watchlist" json:"watchlist"`
	Version      int64           `gorm:"column:version;not null;default:0" json:"version"`
	CreatedAt    time.Time       `gorm:"column:createdAt" json:"createdAt"`
	UpdatedAt    time.Time       `gorm:"column:updatedAt" json:"updatedAt"`
}

func (Account) TableName() string {
	return "Accounts"
}

func (a *Account) BeforeCreate(tx *gorm.DB) error {
	if a.AccountID == uuid.Nil {
		a.AccountID = uuid.New()
	}
	if len(a.Watchlist) == 0 {
		a.Watchlist = datatypes.JSON("[]")
	}
	return nil
}

// WatchlistTickers decodes the watchlist column. A malformed column reads as empty.
func (a *Account) WatchlistTickers() []string {
	tickers := []string{}
	if len(a.Watchlist) == 0 {
		return tickers
	}
	if err := json.Unmarshal(a.Watchlist, &tickers); err != nil {
		return []string{}
	}
	return tickers
}

// SetWatchlist stores tickers in insertion order, dropping duplicates.
func (a *Account) SetWatchlist(tickers []string) {
	seen := make(map[string]struct{}, len(tickers))
	out := make([]string, 0, len(tickers))
	for _, t := range tickers {
		t = NormalizeTicker(t)
		if t == "" {
			continue
		}
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	b, _ := json.Marshal(out)
	a.Watchlist = datatypes.JSON(b)
}

// NormalizeTicker upper-cases and trims a ticker symbol.
func NormalizeTicker(t string) string {
	return strings.Clone(strings.ToUpper(strings.TrimSpace(t)))
}
