package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// BalanceOverride records a user-asserted known balance for an account
// as of a specific date, bounding balance reconstruction when full
// transaction history is unavailable.
//
// Overrides are append-only: older overrides remain for audit and are
// never implicitly superseded. Reconstruction selects the override with
// the latest override_date not exceeding the query date.
type BalanceOverride struct {
	Base
	AccountID       string          `gorm:"type:uuid;not null;index" json:"account_id"`
	OverrideDate    time.Time       `gorm:"not null;index" json:"override_date"`
	OverrideBalance decimal.Decimal `gorm:"type:numeric(14,2);not null" json:"override_balance"`
	Notes           string          `gorm:"size:500" json:"notes,omitempty"`

	Account Account `gorm:"foreignKey:AccountID" json:"account,omitempty"`
}
