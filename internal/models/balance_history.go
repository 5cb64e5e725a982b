package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// BalanceHistory is an append-only audit trail of manual balance
// updates, for accounts whose true balance cannot be derived from the
// ledger (e.g. investments). Rows are created by explicit user action
// and never deleted by the engine.
type BalanceHistory struct {
	Base
	AccountID string          `gorm:"type:uuid;not null;index" json:"account_id"`
	Balance   decimal.Decimal `gorm:"type:numeric(14,2);not null" json:"balance"`
	Timestamp time.Time       `gorm:"not null" json:"timestamp"`
	Notes     string          `gorm:"size:500" json:"notes,omitempty"`

	Account Account `gorm:"foreignKey:AccountID" json:"account,omitempty"`
}
