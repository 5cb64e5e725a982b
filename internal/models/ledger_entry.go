package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// LedgerEntry represents one normalized, persisted transaction record.
//
// Entries are created once at import time and are logically immutable:
// corrections append compensating records rather than rewriting history.
// Amount follows the internal sign convention (debit = negative,
// credit = positive) regardless of the source file's polarity; provider
// quirks are corrected exactly once by the row normalizer.
type LedgerEntry struct {
	Base
	AccountID       string          `gorm:"type:uuid;not null;index" json:"account_id"`
	Date            time.Time       `gorm:"not null;index" json:"date"`
	Description     string          `gorm:"size:500;not null" json:"description"`
	Amount          decimal.Decimal `gorm:"type:numeric(14,2);not null" json:"amount"`
	Category        string          `gorm:"size:100" json:"category,omitempty"`
	SourceFile      string          `gorm:"size:255" json:"source_file"`
	ImportTimestamp time.Time       `gorm:"not null" json:"import_timestamp"`

	// ContentHash is the deterministic digest over the configured key
	// fields. Uniqueness here is what makes re-imports idempotent.
	ContentHash string `gorm:"size:64;not null;uniqueIndex" json:"content_hash"`

	IsTransfer bool `gorm:"not null;default:false;index" json:"is_transfer"`

	// TransferToAccountID is a best-effort destination hint; resolution
	// is not guaranteed.
	TransferToAccountID *string `gorm:"type:uuid" json:"transfer_to_account_id,omitempty"`

	// Relationships
	Account   Account  `gorm:"foreignKey:AccountID" json:"account,omitempty"`
	ToAccount *Account `gorm:"foreignKey:TransferToAccountID" json:"to_account,omitempty"`
}
