package services

import (
	"context"
	"errors"
	"io"
	"math"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"reckon/internal/config"
	apperrors "reckon/internal/errors"
	"reckon/internal/importer"
	"reckon/internal/logger"
	"reckon/internal/models"
)

// importService orchestrates the import pipeline: schema mapping, row
// normalization, duplicate filtering, transfer classification, and
// chunked persistence, plus batch reclassification of existing entries.
type importService struct {
	db         *gorm.DB
	rules      config.Rules
	accounts   AccountServicer
	balances   BalanceServicer
	mapper     *importer.SchemaMapper
	normalizer *importer.Normalizer
	hasher     *importer.Hasher
	classifier *importer.Classifier
	budget     importer.ErrorBudget
}

// NewImportService builds the pipeline from the loaded rule table.
// Malformed rules (bad patterns, unknown key fields) fail here, before
// any file is processed.
func NewImportService(db *gorm.DB, rules config.Rules, accounts AccountServicer, balances BalanceServicer) (ImportServicer, error) {
	hasher, err := importer.NewHasher(rules.Dedupe.KeyFields)
	if err != nil {
		return nil, err
	}

	classifier, err := importer.NewClassifier(rules.Transfer)
	if err != nil {
		return nil, err
	}

	return &importService{
		db:         db,
		rules:      rules,
		accounts:   accounts,
		balances:   balances,
		mapper:     importer.NewSchemaMapper(rules.ColumnAliases, rules.MatchThreshold),
		normalizer: importer.NewNormalizer(rules),
		hasher:     hasher,
		classifier: classifier,
		budget: importer.ErrorBudget{
			MaxRatio: rules.Thresholds.MaxErrorRatio,
			MaxRows:  rules.Thresholds.MaxErrorRows,
		},
	}, nil
}

// ImportFile runs one file through the pipeline. Each chunk's accepted
// rows commit atomically in their own transaction; if cumulative row
// failures exceed the configured threshold, everything this run
// inserted is discarded and BATCH_ABORTED is returned. Cancellation
// between chunks leaves committed chunks valid; re-running the import
// is safe because duplicate filtering makes it idempotent.
func (s *importService) ImportFile(ctx context.Context, src importer.TabularSource, accountName string, accountType models.AccountType) (*importer.ImportResult, error) {
	log := logger.Named("importer")
	info := src.Info()

	result := &importer.ImportResult{File: info.Name, State: importer.StateParsing}

	if accountName == "" {
		return result, apperrors.WithMessage(apperrors.ErrInvalidInput, "account name is required for import")
	}

	headers, err := src.Headers()
	if err != nil {
		return result, err
	}

	account, err := s.accounts.GetOrCreateAccount(accountName, accountType)
	if err != nil {
		return result, err
	}
	result.AccountID = account.ID
	result.AccountName = account.Name

	result.State = importer.StateMapping
	mapping, err := s.mapper.MapHeaders(headers)
	if err != nil {
		return result, err
	}

	// Destination hints resolve against the full account list, loaded
	// once per run.
	var allAccounts []models.Account
	if err := s.db.Find(&allAccounts).Error; err != nil {
		return result, apperrors.Wrap(apperrors.ErrDatabase, err)
	}

	chunkSize := s.chunkSize(info)
	importedAt := time.Now()

	var insertedIDs []string

	for {
		if err := ctx.Err(); err != nil {
			// Committed chunks stay valid; the run simply stops here.
			log.Warnw("import cancelled", "file", info.Name, "rows_scanned", result.Stats.RowsScanned)
			return result, err
		}

		pending, done, err := s.collectChunk(src, chunkSize, mapping, account, allAccounts, importedAt, result)
		if err != nil {
			s.discardRun(insertedIDs, result)
			return result, err
		}

		if len(pending) > 0 {
			result.State = importer.StatePersisting
			ids, err := s.persistChunk(pending, result)
			if err != nil {
				s.discardRun(insertedIDs, result)
				return result, err
			}
			insertedIDs = append(insertedIDs, ids...)
		}

		// The ratio budget is evaluated at chunk boundaries against
		// cumulative counts; the absolute cap was checked per row.
		if s.budget.Exceeded(result.Stats.RowsScanned, result.Stats.ErrorRows) {
			s.discardRun(insertedIDs, result)
			return result, apperrors.WithDetails(apperrors.ErrBatchAborted, map[string]any{
				"file":         info.Name,
				"rows_scanned": result.Stats.RowsScanned,
				"error_rows":   result.Stats.ErrorRows,
			})
		}

		if done {
			break
		}
	}

	// Refresh the cached balance only for accounts without overrides;
	// override-anchored accounts keep their last known truth.
	if !s.hasOverrides(account.ID) {
		if _, err := s.balances.Recalculate(account.ID); err != nil {
			return result, err
		}
	}

	result.State = importer.StateReported
	log.Infow("import complete",
		"file", info.Name,
		"account", account.Name,
		"scanned", result.Stats.RowsScanned,
		"inserted", result.Stats.Inserted,
		"duplicates", result.Stats.Duplicates,
		"errors", result.Stats.ErrorRows,
		"transfers", result.Stats.TransfersDetected,
	)
	return result, nil
}

// collectChunk normalizes and classifies up to chunkSize rows. Row
// failures are counted and, when the absolute max-error-rows cap is
// breached, reported immediately as BATCH_ABORTED.
func (s *importService) collectChunk(
	src importer.TabularSource,
	chunkSize int,
	mapping importer.ColumnMapping,
	account *models.Account,
	allAccounts []models.Account,
	importedAt time.Time,
	result *importer.ImportResult,
) ([]*models.LedgerEntry, bool, error) {
	log := logger.Named("importer")
	pending := make([]*models.LedgerEntry, 0, min(chunkSize, 1024))

	for len(pending) < chunkSize {
		cells, err := src.Next()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return pending, true, nil
			}
			// A malformed line is a row-level failure, not a file-level one.
			result.Stats.RowsScanned++
			result.Stats.ErrorRows++
			if s.budget.MaxRows > 0 && result.Stats.ErrorRows > s.budget.MaxRows {
				return pending, false, s.abortError(result)
			}
			continue
		}

		result.Stats.RowsScanned++
		result.State = importer.StateNormalizing

		row, err := s.normalizer.Normalize(cells, result.Stats.RowsScanned, mapping, account, result.File)
		if err != nil {
			result.Stats.ErrorRows++
			log.Debugw("row skipped", "file", result.File, "row", result.Stats.RowsScanned, "error", err)
			if s.budget.MaxRows > 0 && result.Stats.ErrorRows > s.budget.MaxRows {
				return pending, false, s.abortError(result)
			}
			continue
		}

		result.State = importer.StateClassifying
		classification := s.classifier.Classify(row.Description, account.Type)

		entry := &models.LedgerEntry{
			AccountID:       account.ID,
			Date:            row.Date,
			Description:     row.Description,
			Amount:          row.Amount,
			Category:        row.Category,
			SourceFile:      row.SourceFile,
			ImportTimestamp: importedAt,
			ContentHash:     s.hasher.Hash(row, account.Name),
			IsTransfer:      classification.IsTransfer,
		}
		if classification.IsTransfer {
			result.Stats.TransfersDetected++
			if entry.Category == "" || entry.Category == s.rules.FallbackValues["category"] {
				entry.Category = classification.Label
			}
			entry.TransferToAccountID = importer.DestinationHint(row.Description, account.ID, allAccounts)
		}

		pending = append(pending, entry)
	}

	return pending, false, nil
}

// persistChunk commits one chunk atomically. Rows whose content hash
// already exists in the ledger (or earlier in this chunk) are counted
// as duplicates and skipped; the unique index on content_hash backs
// this up at the storage layer.
func (s *importService) persistChunk(pending []*models.LedgerEntry, result *importer.ImportResult) ([]string, error) {
	hashes := make([]string, 0, len(pending))
	for _, entry := range pending {
		hashes = append(hashes, entry.ContentHash)
	}

	var insertedIDs []string
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var existing []string
		if err := tx.Model(&models.LedgerEntry{}).
			Where("content_hash IN ?", hashes).
			Pluck("content_hash", &existing).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrDatabase, err)
		}

		seen := make(map[string]bool, len(existing))
		for _, h := range existing {
			seen[h] = true
		}

		for _, entry := range pending {
			if seen[entry.ContentHash] {
				result.Stats.Duplicates++
				continue
			}
			seen[entry.ContentHash] = true

			if err := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "content_hash"}},
				DoNothing: true,
			}).Create(entry).Error; err != nil {
				return apperrors.Wrap(apperrors.ErrDatabase, err)
			}
			result.Stats.Inserted++
			insertedIDs = append(insertedIDs, entry.ID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return insertedIDs, nil
}

// discardRun deletes everything this run inserted, entering the Aborted
// state. Chunks committed by earlier runs are untouched.
func (s *importService) discardRun(insertedIDs []string, result *importer.ImportResult) {
	result.State = importer.StateAborted
	if len(insertedIDs) == 0 {
		return
	}
	err := s.db.Unscoped().Where("id IN ?", insertedIDs).Delete(&models.LedgerEntry{}).Error
	if err != nil {
		logger.Named("importer").Errorw("failed to discard aborted batch", "inserted", len(insertedIDs), "error", err)
		return
	}
	result.Stats.Inserted = 0
}

func (s *importService) abortError(result *importer.ImportResult) error {
	return apperrors.WithDetails(apperrors.ErrBatchAborted, map[string]any{
		"file":         result.File,
		"rows_scanned": result.Stats.RowsScanned,
		"error_rows":   result.Stats.ErrorRows,
	})
}

// chunkSize decides the effective chunk size from file metadata: files
// below the auto-chunk threshold process as a single chunk. Chunking
// bounds memory, not parallelism.
func (s *importService) chunkSize(info importer.FileInfo) int {
	threshold := int64(s.rules.Chunking.AutoChunkMB) * 1024 * 1024
	if info.SizeBytes > 0 && info.SizeBytes < threshold {
		return math.MaxInt
	}
	return s.rules.Chunking.ChunkSize
}

func (s *importService) hasOverrides(accountID string) bool {
	var count int64
	if err := s.db.Model(&models.BalanceOverride{}).Where("account_id = ?", accountID).Count(&count).Error; err != nil {
		return false
	}
	return count > 0
}

// ImportFiles processes multiple files in one run. A file-level failure
// (unmappable headers, unreadable file, aborted batch) is recorded on
// that file's result and does not stop the remaining files.
func (s *importService) ImportFiles(ctx context.Context, paths []string, accountName string, accountType models.AccountType) ([]*importer.ImportResult, error) {
	results := make([]*importer.ImportResult, 0, len(paths))

	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return results, err
		}

		src, err := importer.NewCSVSource(path)
		if err != nil {
			results = append(results, &importer.ImportResult{
				File:  path,
				State: importer.StateAborted,
				Error: err.Error(),
			})
			continue
		}

		result, err := s.ImportFile(ctx, src, accountName, accountType)
		src.Close()
		if err != nil {
			if ctx.Err() != nil {
				results = append(results, result)
				return results, err
			}
			result.Error = err.Error()
		}
		results = append(results, result)
	}

	return results, nil
}

// reclassifyBatchSize bounds memory when sweeping the ledger.
const reclassifyBatchSize = 500

// Reclassify re-runs transfer classification over all persisted
// entries, updating only rows whose transfer flag changes. Amount,
// date, and content hash are never touched, so a second run in
// succession updates zero rows.
func (s *importService) Reclassify(ctx context.Context, dryRun bool) (*importer.ReclassifyStats, error) {
	log := logger.Named("classifier")
	stats := &importer.ReclassifyStats{}

	var accounts []models.Account
	if err := s.db.Find(&accounts).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrDatabase, err)
	}
	typesByID := make(map[string]models.AccountType, len(accounts))
	for _, account := range accounts {
		typesByID[account.ID] = account.Type
	}

	var lastID string
	for {
		if err := ctx.Err(); err != nil {
			return stats, err
		}

		var entries []models.LedgerEntry
		q := s.db.Order("id").Limit(reclassifyBatchSize)
		if lastID != "" {
			q = q.Where("id > ?", lastID)
		}
		if err := q.Find(&entries).Error; err != nil {
			return nil, apperrors.Wrap(apperrors.ErrDatabase, err)
		}
		if len(entries) == 0 {
			break
		}

		for i := range entries {
			entry := &entries[i]
			stats.Scanned++
			if entry.IsTransfer {
				stats.TransfersBefore++
			}

			classification := s.classifier.Classify(entry.Description, typesByID[entry.AccountID])
			if classification.IsTransfer {
				stats.TransfersAfter++
			}

			if classification.IsTransfer == entry.IsTransfer {
				continue
			}

			stats.Updated++
			if dryRun {
				continue
			}

			updates := map[string]any{"is_transfer": classification.IsTransfer}
			if classification.IsTransfer && entry.Category == "" {
				updates["category"] = classification.Label
			}
			if err := s.db.Model(entry).Updates(updates).Error; err != nil {
				return nil, apperrors.Wrap(apperrors.ErrDatabase, err)
			}
		}

		lastID = entries[len(entries)-1].ID
	}

	log.Infow("reclassification complete",
		"scanned", stats.Scanned,
		"before", stats.TransfersBefore,
		"after", stats.TransfersAfter,
		"updated", stats.Updated,
		"dry_run", dryRun,
	)
	return stats, nil
}
