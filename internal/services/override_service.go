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

// overrideService manages balance overrides. Overrides are append-only:
// setting a new one never deletes or edits older ones, which remain for
// audit; deletion happens only by explicit user action.
type overrideService struct {
	db       *gorm.DB
	accounts AccountServicer
}

// NewOverrideService creates a new OverrideServicer.
func NewOverrideService(db *gorm.DB, accounts AccountServicer) OverrideServicer {
	return &overrideService{db: db, accounts: accounts}
}

// SetOverride records a user-asserted known balance for an account as
// of a specific date. Multiple overrides per account are allowed.
func (s *overrideService) SetOverride(accountID string, overrideDate time.Time, balance decimal.Decimal, notes string) (*models.BalanceOverride, error) {
	account, err := s.accounts.GetAccountByID(accountID)
	if err != nil {
		return nil, err
	}

	if overrideDate.IsZero() {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "override date is required")
	}
	if overrideDate.After(time.Now()) {
		// Allowed, but worth flagging: a future-dated override will not
		// anchor any balance query until that date arrives.
		logger.Get().Warnw("override date is in the future",
			"account", account.Name,
			"override_date", overrideDate.Format("2006-01-02"),
		)
	}

	override := &models.BalanceOverride{
		AccountID:       account.ID,
		OverrideDate:    overrideDate,
		OverrideBalance: balance.Round(2),
		Notes:           notes,
	}
	if err := s.db.Create(override).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrDatabase, err)
	}

	logger.Get().Infow("set balance override",
		"account", account.Name,
		"override_date", overrideDate.Format("2006-01-02"),
		"balance", balance.StringFixed(2),
	)
	return override, nil
}

// ListOverrides returns all overrides for an account, newest
// override_date first.
func (s *overrideService) ListOverrides(accountID string) ([]models.BalanceOverride, error) {
	if _, err := s.accounts.GetAccountByID(accountID); err != nil {
		return nil, err
	}

	var overrides []models.BalanceOverride
	err := s.db.
		Where("account_id = ?", accountID).
		Order("override_date DESC").
		Find(&overrides).Error
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrDatabase, err)
	}
	return overrides, nil
}

// DeleteOverride removes one override by explicit user action.
func (s *overrideService) DeleteOverride(overrideID string) error {
	var override models.BalanceOverride
	if err := s.db.Where("id = ?", overrideID).First(&override).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.ErrOverrideNotFound
		}
		return apperrors.Wrap(apperrors.ErrDatabase, err)
	}

	if err := s.db.Delete(&override).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrDatabase, err)
	}
	return nil
}
