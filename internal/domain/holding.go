package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// AverageCostScale is the scale of the average_cost column.
const AverageCostScale = 4

// Holding is an open position. Rows with zero quantity are deleted, never stored.
type Holding struct {
	HoldingID   uuid.UUID       `gorm:"column:holding_id;type:uuid;primaryKey" json:"holding_id"`
	AccountID   uuid.UUID       `gorm:"column:account_id;type:uuid;not null;uniqueIndex:idx_holding_account_ticker" json:"account_id"`
	Ticker      string          `gorm:"column:ticker;type:varchar(16);not null;uniqueIndex:idx_holding_account_ticker" json:"ticker"`
	Quantity    int64           `gorm:"column:quantity;not null" json:"quantity"`
	AverageCost decimal.Decimal `gorm:"column:average_cost;type:decimal(18,4);not null" json:"average_cost"`
	CreatedAt   time.Time       `gorm:"column:createdAt" json:"createdAt"`
	UpdatedAt   time.Time       `gorm:"column:updatedAt" json:"updatedAt"`
}

func (Holding) TableName() string {
	return "Holdings"
}

// BeforeCreate: never insert zero UUID for primary key; generate random when not set.
func (h *Holding) BeforeCreate(tx *gorm.DB) error {
	if h.HoldingID == uuid.Nil {
		h.HoldingID = uuid.New()
	}
	return nil
}

// AddLot folds a bought lot into the position using the weighted mean
// (old_avg*old_qty + price*qty) / (old_qty+qty).
func (h *Holding) AddLot(quantity int64, price decimal.Decimal) {
	oldQty := decimal.NewFromInt(h.Quantity)
	addQty := decimal.NewFromInt(quantity)
	total := oldQty.Add(addQty)
	if total.IsZero() {
		return
	}
	h.AverageCost = h.AverageCost.Mul(oldQty).Add(price.Mul(addQty)).DivRound(total, AverageCostScale)
	h.Quantity += quantity
}

// CostBasis is quantity times average cost.
func (h Holding) CostBasis() decimal.Decimal {
	return h.AverageCost.Mul(decimal.NewFromInt(h.Quantity))
}
