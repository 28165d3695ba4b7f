package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const (
	SideBuy  = "buy"
	SideSell = "sell"
)

// Transaction is an immutable order record. Seq is the account version the
// order produced, so ordering by seq yields append order.
type Transaction struct {
	TxID      uuid.UUID       `gorm:"column:tx_id;type:uuid;primaryKey" json:"tx_id"`
	AccountID uuid.UUID       `gorm:"column:account_id;type:uuid;not null;index:idx_tx_account_seq" json:"account_id"`
	Seq       int64           `gorm:"column:seq;not null;index:idx_tx_account_seq" json:"seq"`
	Ticker    string          `gorm:"column:ticker;type:varchar(16);not null" json:"ticker"`
	Side      string          `gorm:"column:side;type:varchar(8);not null" json:"side"`
	Quantity  int64           `gorm:"column:quantity;not null" json:"quantity"`
	Price     decimal.Decimal `gorm:"column:price;type:decimal(18,4);not null" json:"price"`
	Total     decimal.Decimal `gorm:"column:total;type:decimal(18,4);not null" json:"total"`
	CreatedAt time.Time       `gorm:"column:createdAt" json:"createdAt"`
}

func (Transaction) TableName() string {
	return "Transactions"
}

func (t *Transaction) BeforeCreate(tx *gorm.DB) error {
	if t.TxID == uuid.Nil {
		t.TxID = uuid.New()
	}
	return nil
}
