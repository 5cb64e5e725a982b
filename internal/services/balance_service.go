package services

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	apperrors "reckon/internal/errors"
	"reckon/internal/logger"
	"reckon/internal/models"
)

// balanceService reconstructs point-in-time balances under the
// partial-history override model.
type balanceService struct {
	db       *gorm.DB
	accounts AccountServicer
}

// NewBalanceService creates a new BalanceServicer.
func NewBalanceService(db *gorm.DB, accounts AccountServicer) BalanceServicer {
	return &balanceService{db: db, accounts: accounts}
}

// BalanceAt computes the override-aware balance as of the given date.
//
// The override with the greatest override_date not exceeding asOf, if
// any, anchors the computation: its balance plus the sum of entries
// strictly after the override date up to asOf. Without an override the
// full entry sum up to asOf is used. Entries on or before the override
// date stay in the ledger for audit but are excluded here.
//
// For credit-type accounts the returned value is the negation of the
// raw sum, applied after the override arithmetic.
func (s *balanceService) BalanceAt(accountID string, asOf time.Time) (decimal.Decimal, error) {
	account, err := s.accounts.GetAccountByID(accountID)
	if err != nil {
		return decimal.Zero, err
	}

	balance, _, err := s.rawBalanceAt(accountID, asOf)
	if err != nil {
		return decimal.Zero, err
	}

	if account.IsLiability() {
		return balance.Neg(), nil
	}
	return balance, nil
}

// rawBalanceAt computes the override-aware balance in the raw
// debit-negative/credit-positive convention, returning the override it
// anchored on, if any.
func (s *balanceService) rawBalanceAt(accountID string, asOf time.Time) (decimal.Decimal, *models.BalanceOverride, error) {
	var override models.BalanceOverride
	err := s.db.
		Where("account_id = ? AND override_date <= ?", accountID, asOf).
		Order("override_date DESC").
		First(&override).Error

	switch {
	case err == nil:
		sum, sumErr := s.entrySum(accountID, &override.OverrideDate, asOf)
		if sumErr != nil {
			return decimal.Zero, nil, sumErr
		}
		return override.OverrideBalance.Add(sum), &override, nil

	case errors.Is(err, gorm.ErrRecordNotFound):
		sum, sumErr := s.entrySum(accountID, nil, asOf)
		if sumErr != nil {
			return decimal.Zero, nil, sumErr
		}
		return sum, nil, nil

	default:
		return decimal.Zero, nil, apperrors.Wrap(apperrors.ErrDatabase, err)
	}
}

// entrySum sums ledger entry amounts for the account in
// (after, asOf]; a nil after means no lower bound.
func (s *balanceService) entrySum(accountID string, after *time.Time, asOf time.Time) (decimal.Decimal, error) {
	q := s.db.Model(&models.LedgerEntry{}).Where("account_id = ? AND date <= ?", accountID, asOf)
	if after != nil {
		q = q.Where("date > ?", *after)
	}

	var total decimal.NullDecimal
	if err := q.Select("SUM(amount)").Scan(&total).Error; err != nil {
		return decimal.Zero, apperrors.Wrap(apperrors.ErrDatabase, err)
	}
	if !total.Valid {
		return decimal.Zero, nil
	}
	return total.Decimal.Round(2), nil
}

// Compare returns the stored cached balance, the override-aware
// computed balance, their difference, and the latest applicable
// override. Both balances are in the raw convention so the comparison
// is apples to apples; presentation negation applies only in BalanceAt.
func (s *balanceService) Compare(accountID string) (*BalanceComparison, error) {
	account, err := s.accounts.GetAccountByID(accountID)
	if err != nil {
		return nil, err
	}

	computed, override, err := s.rawBalanceAt(accountID, time.Now())
	if err != nil {
		return nil, err
	}

	return &BalanceComparison{
		AccountID:       account.ID,
		StoredBalance:   account.CachedBalance,
		ComputedBalance: computed,
		Difference:      computed.Sub(account.CachedBalance),
		LatestOverride:  override,
	}, nil
}

// Recalculate recomputes the override-free full-ledger sum and
// overwrites the cached balance. Intended for accounts with no
// overrides; accounts using overrides keep their cached balance as the
// last known truth and are reconciled via Compare.
func (s *balanceService) Recalculate(accountID string) (decimal.Decimal, error) {
	account, err := s.accounts.GetAccountByID(accountID)
	if err != nil {
		return decimal.Zero, err
	}

	var total decimal.NullDecimal
	err = s.db.Model(&models.LedgerEntry{}).
		Where("account_id = ?", accountID).
		Select("SUM(amount)").
		Scan(&total).Error
	if err != nil {
		return decimal.Zero, apperrors.Wrap(apperrors.ErrDatabase, err)
	}

	sum := decimal.Zero
	if total.Valid {
		sum = total.Decimal.Round(2)
	}

	if err := s.db.Model(account).Update("cached_balance", sum).Error; err != nil {
		return decimal.Zero, apperrors.Wrap(apperrors.ErrDatabase, err)
	}

	logger.Get().Infow("recalculated cached balance",
		"account", account.Name,
		"balance", sum.StringFixed(2),
	)
	return sum, nil
}
