package importer

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"

	apperrors "reckon/internal/errors"
)

// hashableFields is the set of fields that may participate in the
// duplicate-detection key.
var hashableFields = map[string]bool{
	"date":        true,
	"description": true,
	"amount":      true,
	"category":    true,
	"account":     true,
	"source_file": true,
}

// Hasher computes the deterministic content hash used for duplicate
// detection. The hash is a pure function of the configured key-field
// tuple over canonical string representations: dates as YYYY-MM-DD,
// amounts with exactly two decimals, strings trimmed and lowercased.
type Hasher struct {
	keyFields []string
}

// NewHasher validates the key-field set and returns a Hasher. An
// unknown field name is a configuration error, caught before any file
// is processed.
func NewHasher(keyFields []string) (*Hasher, error) {
	for _, field := range keyFields {
		if !hashableFields[field] {
			return nil, apperrors.WithDetails(apperrors.ErrConfigInvalid, map[string]any{
				"field":  field,
				"reason": "unknown duplicate-detection key field",
			})
		}
	}
	return &Hasher{keyFields: keyFields}, nil
}

// Hash returns the hex content hash for a normalized row belonging to
// the named account.
func (h *Hasher) Hash(row *NormalizedRow, accountName string) string {
	parts := make([]string, 0, len(h.keyFields))
	for _, field := range h.keyFields {
		parts = append(parts, field+":"+h.canonicalValue(row, accountName, field))
	}

	sum := sha256.Sum256([]byte(strings.Join(parts, "|")))
	return hex.EncodeToString(sum[:])
}

func (h *Hasher) canonicalValue(row *NormalizedRow, accountName, field string) string {
	switch field {
	case "date":
		return row.Date.Format("2006-01-02")
	case "amount":
		return row.Amount.StringFixed(2)
	case "description":
		return canonicalString(row.Description)
	case "category":
		return canonicalString(row.Category)
	case "account":
		return canonicalString(accountName)
	case "source_file":
		return canonicalString(row.SourceFile)
	}
	return ""
}

func canonicalString(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
