package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Alert is a one-shot target-price alert. It is deleted once it fires.
type Alert struct {
	AlertID     uuid.UUID       `gorm:"column:alert_id;type:uuid;primaryKey" json:"alert_id"`
	AccountID   uuid.UUID       `gorm:"column:account_id;type:uuid;not null;index" json:"account_id"`
	Ticker      string          `gorm:"column:ticker;type:varchar(16);not null" json:"ticker"`
	TargetPrice decimal.Decimal `gorm:"column:target_price;type:decimal(18,4);not null" json:"target_price"`
	CreatedAt   time.Time       `gorm:"column:createdAt" json:"createdAt"`
}

func (Alert) TableName() string {
	return "Alerts"
}

func (a *Alert) BeforeCreate(tx *gorm.DB) error {
	if a.AlertID == uuid.Nil {
		a.AlertID = uuid.New()
	}
	return nil
}

// Reached reports whether an observed price satisfies the alert.
func (a Alert) Reached(price decimal.Decimal) bool {
	return price.GreaterThanOrEqual(a.TargetPrice)
}
