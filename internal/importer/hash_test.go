package importer

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"reckon/internal/testutil"
)

func testRow(date time.Time, description, amount string) *NormalizedRow {
	return &NormalizedRow{
		Date:        date,
		Description: description,
		Amount:      decimal.RequireFromString(amount),
		Category:    "Dining",
		SourceFile:  "june.csv",
	}
}

func TestHasher(t *testing.T) {
	hasher, err := NewHasher([]string{"date", "description", "amount"})
	testutil.AssertNoError(t, err)

	base := testRow(testutil.Date(2024, time.June, 5), "Coffee Shop", "-4.50")

	t.Run("deterministic", func(t *testing.T) {
		first := hasher.Hash(base, "Checking")
		for i := 0; i < 5; i++ {
			if hasher.Hash(base, "Checking") != first {
				t.Fatal("hash changed between identical calls")
			}
		}
		if len(first) != 64 {
			t.Errorf("expected 64 hex characters, got %d", len(first))
		}
	})

	t.Run("case_and_whitespace_insensitive", func(t *testing.T) {
		variant := testRow(testutil.Date(2024, time.June, 5), "  COFFEE shop ", "-4.50")
		if hasher.Hash(base, "Checking") != hasher.Hash(variant, "Checking") {
			t.Error("hash should ignore description case and surrounding whitespace")
		}
	})

	t.Run("amount_scale_insensitive", func(t *testing.T) {
		variant := testRow(testutil.Date(2024, time.June, 5), "Coffee Shop", "-4.5")
		if hasher.Hash(base, "Checking") != hasher.Hash(variant, "Checking") {
			t.Error("-4.5 and -4.50 should hash identically")
		}
	})

	t.Run("field_changes_change_hash", func(t *testing.T) {
		cases := map[string]*NormalizedRow{
			"date":        testRow(testutil.Date(2024, time.June, 6), "Coffee Shop", "-4.50"),
			"description": testRow(testutil.Date(2024, time.June, 5), "Tea Shop", "-4.50"),
			"amount":      testRow(testutil.Date(2024, time.June, 5), "Coffee Shop", "-4.51"),
		}
		baseHash := hasher.Hash(base, "Checking")
		for field, row := range cases {
			if hasher.Hash(row, "Checking") == baseHash {
				t.Errorf("changing %s should change the hash", field)
			}
		}
	})

	t.Run("account_name_excluded_by_default_keys", func(t *testing.T) {
		if hasher.Hash(base, "Checking") != hasher.Hash(base, "Savings") {
			t.Error("account name must not affect the hash unless configured as a key field")
		}
	})

	t.Run("account_scoped_keys", func(t *testing.T) {
		scoped, err := NewHasher([]string{"date", "description", "amount", "account"})
		testutil.AssertNoError(t, err)

		if scoped.Hash(base, "Checking") == scoped.Hash(base, "Savings") {
			t.Error("account-scoped hashing should distinguish accounts")
		}
	})

	t.Run("key_order_matters", func(t *testing.T) {
		reordered, err := NewHasher([]string{"amount", "description", "date"})
		testutil.AssertNoError(t, err)

		if reordered.Hash(base, "Checking") == hasher.Hash(base, "Checking") {
			t.Error("key field order participates in the digest")
		}
	})
}

func TestNewHasherUnknownField(t *testing.T) {
	_, err := NewHasher([]string{"date", "balance"})
	testutil.AssertAppError(t, err, "CONFIG_INVALID")
}
