package services

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"reckon/internal/importer"
	"reckon/internal/models"
	"reckon/internal/pagination"
)

// AccountServicer defines the contract for account-related business logic.
type AccountServicer interface {
	CreateAccount(name string, accountType models.AccountType, description string) (*models.Account, error)
	GetAccountByID(accountID string) (*models.Account, error)
	GetAccountByName(name string) (*models.Account, error)
	GetOrCreateAccount(name string, accountType models.AccountType) (*models.Account, error)
	ListAccounts(page pagination.PageRequest) (*pagination.PageResponse[models.Account], error)
	UpdateAccount(accountID string, name, description *string, isActive *bool) (*models.Account, error)
	// UpdateBalance sets the cached balance by explicit user action and
	// appends a BalanceHistory audit row.
	UpdateBalance(accountID string, balance decimal.Decimal, notes string) (*models.Account, error)
	GetBalanceHistory(accountID string, page pagination.PageRequest) (*pagination.PageResponse[models.BalanceHistory], error)
}

// BalanceComparison reconciles an account's stored cached balance with
// its override-aware computed balance. Both values are in the raw
// debit-negative/credit-positive convention.
type BalanceComparison struct {
	AccountID      string                  `json:"account_id"`
	StoredBalance  decimal.Decimal         `json:"stored_balance"`
	ComputedBalance decimal.Decimal        `json:"computed_balance"`
	Difference     decimal.Decimal         `json:"difference"`
	LatestOverride *models.BalanceOverride `json:"latest_override,omitempty"`
}

// BalanceServicer defines the contract for balance reconstruction.
type BalanceServicer interface {
	// BalanceAt computes the override-aware point-in-time balance. For
	// credit-type accounts the returned value is the negation of the raw
	// sum, applied after the override arithmetic.
	BalanceAt(accountID string, asOf time.Time) (decimal.Decimal, error)
	Compare(accountID string) (*BalanceComparison, error)
	// Recalculate recomputes the override-free full-ledger sum and
	// overwrites the cached balance. Intended for accounts with no
	// overrides.
	Recalculate(accountID string) (decimal.Decimal, error)
}

// OverrideServicer defines the contract for balance override management.
type OverrideServicer interface {
	SetOverride(accountID string, overrideDate time.Time, balance decimal.Decimal, notes string) (*models.BalanceOverride, error)
	ListOverrides(accountID string) ([]models.BalanceOverride, error)
	DeleteOverride(overrideID string) error
}

// EntryFilter holds optional filter parameters for listing ledger entries.
type EntryFilter struct {
	AccountID  *string
	FromDate   *time.Time
	ToDate     *time.Time
	IsTransfer *bool
	Category   *string
}

// LedgerServicer defines the contract for ledger entry queries and
// manual corrections.
type LedgerServicer interface {
	GetEntries(filter EntryFilter, page pagination.PageRequest) (*pagination.PageResponse[models.LedgerEntry], error)
	GetEntryByID(entryID string) (*models.LedgerEntry, error)
	// SetTransferFlag manually corrects the transfer classification of
	// one entry. Amount, date, and content hash are never touched.
	SetTransferFlag(entryID string, isTransfer bool) (*models.LedgerEntry, error)
}

// ImportServicer defines the contract for the import pipeline and batch
// reclassification.
type ImportServicer interface {
	ImportFile(ctx context.Context, src importer.TabularSource, accountName string, accountType models.AccountType) (*importer.ImportResult, error)
	// ImportFiles processes multiple files; a file-level failure is
	// recorded on that file's result and does not stop the run.
	ImportFiles(ctx context.Context, paths []string, accountName string, accountType models.AccountType) ([]*importer.ImportResult, error)
	Reclassify(ctx context.Context, dryRun bool) (*importer.ReclassifyStats, error)
}
