package importer

import (
	"math"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"reckon/internal/config"
	apperrors "reckon/internal/errors"
	"reckon/internal/models"
)

// Field length bounds for the canonical record.
const (
	MaxDescriptionLen = 500
	MaxCategoryLen    = 100
)

// NormalizedRow is one typed, sign-corrected transaction record ready
// for hashing, classification, and persistence.
type NormalizedRow struct {
	Date        time.Time
	Description string
	Amount      decimal.Decimal
	Category    string
	SourceFile  string
}

// Normalizer parses and standardizes raw rows: dates against an ordered
// format list, amounts to fixed 2-decimal values with the configured
// sign policy applied exactly once, strings truncated to their bounds,
// and fallback values filled in for missing optional fields.
type Normalizer struct {
	dateFormats  []string
	fallbacks    map[string]string
	signPolicies []config.SignPolicy
}

// NewNormalizer creates a Normalizer from the loaded rule table.
func NewNormalizer(rules config.Rules) *Normalizer {
	return &Normalizer{
		dateFormats:  rules.DateFormats,
		fallbacks:    rules.FallbackValues,
		signPolicies: rules.SignPolicies,
	}
}

// Normalize standardizes one raw row. Row-level failures return a
// STANDARDIZATION_FAILED error carrying the offending field and row
// index; the caller decides whether to skip or abort per the batch
// error thresholds.
func (n *Normalizer) Normalize(cells []string, rowIndex int, mapping ColumnMapping, account *models.Account, sourceFile string) (*NormalizedRow, error) {
	row := &NormalizedRow{SourceFile: sourceFile}

	rawDate := n.cellOrFallback(cells, mapping, "date")
	date, ok := n.parseDate(rawDate)
	if !ok {
		return nil, rowError("date", rowIndex, sourceFile, rawDate)
	}
	row.Date = date

	rawAmount := n.cellOrFallback(cells, mapping, "amount")
	amount, ok := parseAmount(rawAmount)
	if !ok {
		return nil, rowError("amount", rowIndex, sourceFile, rawAmount)
	}
	if n.invertSign(account) {
		amount = amount.Neg()
	}
	row.Amount = amount

	row.Description = truncate(n.cellOrFallback(cells, mapping, "description"), MaxDescriptionLen)
	if row.Description == "" {
		return nil, rowError("description", rowIndex, sourceFile, "")
	}

	row.Category = truncate(n.cellOrFallback(cells, mapping, "category"), MaxCategoryLen)

	return row, nil
}

// cellOrFallback reads the mapped cell for field, falling back to the
// configured default when the cell is missing or blank.
func (n *Normalizer) cellOrFallback(cells []string, mapping ColumnMapping, field string) string {
	var value string
	if idx, ok := mapping[field]; ok && idx < len(cells) {
		value = strings.TrimSpace(cells[idx])
	}
	if value == "" {
		value = n.fallbacks[field]
	}
	return value
}

// parseDate tries each accepted format in configured order; the first
// successful parse wins.
func (n *Normalizer) parseDate(value string) (time.Time, bool) {
	if value == "" {
		return time.Time{}, false
	}
	for _, format := range n.dateFormats {
		if t, err := time.Parse(format, value); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// invertSign reports whether the account's sign policy requires
// flipping raw amounts into the internal debit-negative convention.
// Policies are evaluated in configured order; name-and-type constraints
// must all match; the first matching policy wins.
func (n *Normalizer) invertSign(account *models.Account) bool {
	for _, policy := range n.signPolicies {
		if policy.AccountName != "" && !strings.EqualFold(policy.AccountName, account.Name) {
			continue
		}
		if policy.AccountType != "" && policy.AccountType != string(account.Type) {
			continue
		}
		return policy.Invert
	}
	return false
}

// parseAmount parses a raw amount string into a 2-decimal value,
// tolerating currency symbols, thousands separators, and spaces.
func parseAmount(value string) (decimal.Decimal, bool) {
	cleaned := strings.NewReplacer("$", "", ",", "", " ", "").Replace(value)
	if cleaned == "" {
		return decimal.Decimal{}, false
	}
	amount, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Decimal{}, false
	}
	return amount.Round(2), true
}

func truncate(s string, maxLen int) string {
	if len(s) > maxLen {
		return s[:maxLen]
	}
	return s
}

func rowError(field string, rowIndex int, sourceFile, value string) error {
	return apperrors.WithDetails(apperrors.ErrStandardizationFailed, map[string]any{
		"field":       field,
		"row":         rowIndex,
		"source_file": sourceFile,
		"value":       value,
	})
}

// ErrorBudget bounds row-level failures for one import batch. MaxRows
// of zero means no absolute cap; MaxRatio of zero disables the ratio
// check.
type ErrorBudget struct {
	MaxRatio float64
	MaxRows  int
}

// Exceeded reports whether failed rows have passed the budget given the
// rows scanned so far. The ratio budget is never below one row, so a
// single bad row cannot abort a small batch with a nonzero ratio.
func (b ErrorBudget) Exceeded(scanned, failed int) bool {
	if failed == 0 {
		return false
	}
	if b.MaxRows > 0 && failed > b.MaxRows {
		return true
	}
	if b.MaxRatio > 0 {
		budget := int(math.Ceil(float64(scanned) * b.MaxRatio))
		if budget < 1 {
			budget = 1
		}
		if failed > budget {
			return true
		}
	}
	return false
}
