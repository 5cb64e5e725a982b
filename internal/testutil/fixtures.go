package testutil

import (
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"reckon/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// counter provides unique values across fixtures within a test run.
var counter atomic.Int64

func nextID() int64 {
	return counter.Add(1)
}

// CreateTestAccount creates an active account of the given type with a
// unique name.
func CreateTestAccount(t *testing.T, db *gorm.DB, accountType models.AccountType) *models.Account {
	t.Helper()
	name := fmt.Sprintf("Test Account %d", nextID())
	return CreateTestAccountWithName(t, db, name, accountType)
}

// CreateTestAccountWithName creates an active account with the given name.
func CreateTestAccountWithName(t *testing.T, db *gorm.DB, name string, accountType models.AccountType) *models.Account {
	t.Helper()

	account := &models.Account{
		Name:     name,
		Type:     accountType,
		IsActive: true,
	}
	if err := db.Create(account).Error; err != nil {
		t.Fatalf("failed to create test account: %v", err)
	}
	return account
}

// CreateTestEntry creates a ledger entry on the given account. The
// content hash is synthesized from the fixture counter so entries never
// collide with each other.
func CreateTestEntry(t *testing.T, db *gorm.DB, accountID string, date time.Time, description string, amount string) *models.LedgerEntry {
	t.Helper()

	value, err := decimal.NewFromString(amount)
	if err != nil {
		t.Fatalf("invalid fixture amount %q: %v", amount, err)
	}

	entry := &models.LedgerEntry{
		AccountID:       accountID,
		Date:            date,
		Description:     description,
		Amount:          value,
		SourceFile:      "fixture.csv",
		ImportTimestamp: time.Now(),
		ContentHash:     fmt.Sprintf("fixture-hash-%d", nextID()),
	}
	if err := db.Create(entry).Error; err != nil {
		t.Fatalf("failed to create test entry: %v", err)
	}
	return entry
}

// CreateTestOverride records a known-good balance for the account as of
// the given date.
func CreateTestOverride(t *testing.T, db *gorm.DB, accountID string, date time.Time, balance string) *models.BalanceOverride {
	t.Helper()

	value, err := decimal.NewFromString(balance)
	if err != nil {
		t.Fatalf("invalid fixture balance %q: %v", balance, err)
	}

	override := &models.BalanceOverride{
		AccountID:       accountID,
		OverrideDate:    date,
		OverrideBalance: value,
	}
	if err := db.Create(override).Error; err != nil {
		t.Fatalf("failed to create test override: %v", err)
	}
	return override
}

// Date builds a UTC date for fixtures and assertions.
func Date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}
