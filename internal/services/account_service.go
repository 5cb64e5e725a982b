package services

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	apperrors "reckon/internal/errors"
	"reckon/internal/logger"
	"reckon/internal/models"
	"reckon/internal/pagination"
)

// accountService handles account-related business logic.
type accountService struct {
	db *gorm.DB
}

// NewAccountService creates a new AccountServicer.
func NewAccountService(db *gorm.DB) AccountServicer {
	return &accountService{db: db}
}

// CreateAccount creates a new account with a unique name.
func (s *accountService) CreateAccount(name string, accountType models.AccountType, description string) (*models.Account, error) {
	if name == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "account name is required")
	}
	if !models.ValidAccountType(accountType) {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "unsupported account type")
	}

	var existing models.Account
	err := s.db.Where("name = ?", name).First(&existing).Error
	if err == nil {
		return nil, apperrors.ErrDuplicateAccount
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.Wrap(apperrors.ErrDatabase, err)
	}

	account := &models.Account{
		Name:          name,
		Type:          accountType,
		Description:   description,
		CachedBalance: decimal.Zero,
		IsActive:      true,
	}
	if err := s.db.Create(account).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrDatabase, err)
	}

	return account, nil
}

// GetAccountByID retrieves an account by ID.
func (s *accountService) GetAccountByID(accountID string) (*models.Account, error) {
	var account models.Account
	if err := s.db.Where("id = ?", accountID).First(&account).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrAccountNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrDatabase, err)
	}
	return &account, nil
}

// GetAccountByName retrieves an account by its unique name.
func (s *accountService) GetAccountByName(name string) (*models.Account, error) {
	var account models.Account
	if err := s.db.Where("name = ?", name).First(&account).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrAccountNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrDatabase, err)
	}
	return &account, nil
}

// GetOrCreateAccount returns the named account, creating it with the
// given type when it does not exist. Used by the import pipeline when a
// file targets a not-yet-known account.
func (s *accountService) GetOrCreateAccount(name string, accountType models.AccountType) (*models.Account, error) {
	account, err := s.GetAccountByName(name)
	if err == nil {
		return account, nil
	}
	if !errors.Is(err, apperrors.ErrAccountNotFound) {
		return nil, err
	}

	if accountType == "" {
		accountType = models.AccountTypeOther
	}
	logger.Get().Infow("creating account for import", "name", name, "type", accountType)
	return s.CreateAccount(name, accountType, "")
}

// ListAccounts retrieves a paginated list of active accounts.
func (s *accountService) ListAccounts(page pagination.PageRequest) (*pagination.PageResponse[models.Account], error) {
	page.Defaults()

	base := s.db.Model(&models.Account{}).Where("is_active = ?", true)

	var totalItems int64
	if err := base.Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrDatabase, err)
	}

	var accounts []models.Account
	if err := base.Scopes(pagination.Paginate(page)).Order("name").Find(&accounts).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrDatabase, err)
	}

	result := pagination.NewPageResponse(accounts, page.Page, page.PageSize, totalItems)
	return &result, nil
}

// UpdateAccount updates mutable account fields.
func (s *accountService) UpdateAccount(accountID string, name, description *string, isActive *bool) (*models.Account, error) {
	account, err := s.GetAccountByID(accountID)
	if err != nil {
		return nil, err
	}

	updates := map[string]any{}
	if name != nil && *name != "" && *name != account.Name {
		var existing models.Account
		err := s.db.Where("name = ? AND id <> ?", *name, accountID).First(&existing).Error
		if err == nil {
			return nil, apperrors.ErrDuplicateAccount
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.Wrap(apperrors.ErrDatabase, err)
		}
		updates["name"] = *name
	}
	if description != nil {
		updates["description"] = *description
	}
	if isActive != nil {
		updates["is_active"] = *isActive
	}

	if len(updates) == 0 {
		return account, nil
	}

	if err := s.db.Model(account).Updates(updates).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrDatabase, err)
	}
	return s.GetAccountByID(accountID)
}

// UpdateBalance sets the cached balance by explicit user action and
// appends a BalanceHistory audit row in the same transaction. This is
// the path for accounts whose true balance cannot be derived from the
// ledger.
func (s *accountService) UpdateBalance(accountID string, balance decimal.Decimal, notes string) (*models.Account, error) {
	account, err := s.GetAccountByID(accountID)
	if err != nil {
		return nil, err
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(account).Update("cached_balance", balance).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrDatabase, err)
		}

		history := &models.BalanceHistory{
			AccountID: account.ID,
			Balance:   balance,
			Timestamp: time.Now(),
			Notes:     notes,
		}
		if err := tx.Create(history).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrDatabase, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return s.GetAccountByID(accountID)
}

// GetBalanceHistory retrieves the append-only manual balance audit
// trail, newest first.
func (s *accountService) GetBalanceHistory(accountID string, page pagination.PageRequest) (*pagination.PageResponse[models.BalanceHistory], error) {
	if _, err := s.GetAccountByID(accountID); err != nil {
		return nil, err
	}

	page.Defaults()

	base := s.db.Model(&models.BalanceHistory{}).Where("account_id = ?", accountID)

	var totalItems int64
	if err := base.Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrDatabase, err)
	}

	var history []models.BalanceHistory
	if err := base.Scopes(pagination.Paginate(page)).Order("timestamp DESC").Find(&history).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrDatabase, err)
	}

	result := pagination.NewPageResponse(history, page.Page, page.PageSize, totalItems)
	return &result, nil
}
