package models

import "github.com/shopspring/decimal"

// AccountType represents the type of account
type AccountType string

const (
	AccountTypeBank       AccountType = "bank"
	AccountTypeCredit     AccountType = "credit"
	AccountTypeInvestment AccountType = "investment"
	AccountTypeSavings    AccountType = "savings"
	AccountTypeCash       AccountType = "cash"
	AccountTypeOther      AccountType = "other"
)

// ValidAccountType reports whether t is one of the supported account types.
func ValidAccountType(t AccountType) bool {
	switch t {
	case AccountTypeBank, AccountTypeCredit, AccountTypeInvestment,
		AccountTypeSavings, AccountTypeCash, AccountTypeOther:
		return true
	}
	return false
}

// Account represents a financial account owning ledger entries.
//
// CachedBalance is the last explicitly stored balance in the raw
// debit-negative/credit-positive convention. It is distinct from the
// ledger-derived balance; the two are reconciled via the balance
// service's Compare and refreshed via Recalculate.
type Account struct {
	Base
	Name          string          `gorm:"not null;uniqueIndex" json:"name"`
	Type          AccountType     `gorm:"not null" json:"type"`
	Description   string          `json:"description"`
	CachedBalance decimal.Decimal `gorm:"type:numeric(14,2);not null;default:0" json:"cached_balance"`
	IsActive      bool            `gorm:"default:true" json:"is_active"`

	// Relationships
	Entries   []LedgerEntry    `gorm:"foreignKey:AccountID" json:"entries,omitempty"`
	Overrides []BalanceOverride `gorm:"foreignKey:AccountID" json:"overrides,omitempty"`
}

// IsLiability reports whether the account's externally presented balance
// is the negation of the raw-convention sum.
func (a *Account) IsLiability() bool {
	return a.Type == AccountTypeCredit
}
