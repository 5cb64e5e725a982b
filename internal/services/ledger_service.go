package services

import (
	"errors"

	"gorm.io/gorm"

	apperrors "reckon/internal/errors"
	"reckon/internal/logger"
	"reckon/internal/models"
	"reckon/internal/pagination"
)

// ledgerService handles ledger entry queries and manual corrections.
// Entries are logically immutable after import: only the transfer
// classification may be corrected, never amount, date, or hash.
type ledgerService struct {
	db *gorm.DB
}

// NewLedgerService creates a new LedgerServicer.
func NewLedgerService(db *gorm.DB) LedgerServicer {
	return &ledgerService{db: db}
}

// GetEntries retrieves a paginated, filtered list of ledger entries,
// newest first.
func (s *ledgerService) GetEntries(filter EntryFilter, page pagination.PageRequest) (*pagination.PageResponse[models.LedgerEntry], error) {
	page.Defaults()

	base := applyEntryFilters(s.db.Model(&models.LedgerEntry{}), filter)

	var totalItems int64
	if err := base.Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrDatabase, err)
	}

	var entries []models.LedgerEntry
	if err := base.Scopes(pagination.Paginate(page)).
		Order("date DESC").
		Find(&entries).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrDatabase, err)
	}

	result := pagination.NewPageResponse(entries, page.Page, page.PageSize, totalItems)
	return &result, nil
}

func applyEntryFilters(q *gorm.DB, f EntryFilter) *gorm.DB {
	if f.AccountID != nil {
		q = q.Where("account_id = ?", *f.AccountID)
	}
	if f.FromDate != nil {
		q = q.Where("date >= ?", *f.FromDate)
	}
	if f.ToDate != nil {
		q = q.Where("date <= ?", *f.ToDate)
	}
	if f.IsTransfer != nil {
		q = q.Where("is_transfer = ?", *f.IsTransfer)
	}
	if f.Category != nil {
		q = q.Where("category = ?", *f.Category)
	}
	return q
}

// GetEntryByID retrieves a ledger entry by ID.
func (s *ledgerService) GetEntryByID(entryID string) (*models.LedgerEntry, error) {
	var entry models.LedgerEntry
	if err := s.db.Where("id = ?", entryID).First(&entry).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrEntryNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrDatabase, err)
	}
	return &entry, nil
}

// SetTransferFlag manually corrects one entry's transfer
// classification.
func (s *ledgerService) SetTransferFlag(entryID string, isTransfer bool) (*models.LedgerEntry, error) {
	entry, err := s.GetEntryByID(entryID)
	if err != nil {
		return nil, err
	}

	if entry.IsTransfer == isTransfer {
		return entry, nil
	}

	if err := s.db.Model(entry).Update("is_transfer", isTransfer).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrDatabase, err)
	}

	logger.Get().Infow("manually reclassified entry",
		"entry_id", entry.ID,
		"is_transfer", isTransfer,
	)
	return entry, nil
}
