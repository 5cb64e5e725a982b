package config

import (
	"os"
	"regexp"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	apperrors "reckon/internal/errors"
)

// Required canonical fields. A rule file whose alias table cannot map
// these fails validation before any file is processed.
var requiredFields = []string{"date", "description", "amount"}

// SignPolicy describes how a provider's raw amount polarity relates to
// the internal debit-negative/credit-positive convention. Policies are
// matched by account name first, then account type; the first match
// wins. Invert is applied exactly once, at ingestion.
type SignPolicy struct {
	AccountName string `yaml:"account_name"`
	AccountType string `yaml:"account_type" validate:"omitempty,oneof=bank credit investment savings cash other"`
	Invert      bool   `yaml:"invert"`
}

// TransferRule pairs a description regex with the category label
// assigned when it matches.
type TransferRule struct {
	Pattern string `yaml:"pattern" validate:"required"`
	Label   string `yaml:"label"`
}

// TransferRules configures transfer classification: an ordered,
// first-match-wins rule list plus the generic payment-keyword safeguard
// applied to credit-type accounts.
type TransferRules struct {
	Category        string         `yaml:"category"`
	Rules           []TransferRule `yaml:"rules" validate:"dive"`
	PaymentKeywords []string       `yaml:"payment_keywords"`
}

// DedupeRules configures the duplicate-detection key field set.
type DedupeRules struct {
	KeyFields []string `yaml:"key_fields" validate:"required,min=1"`
}

// Thresholds bounds row-level failures per import batch. MaxErrorRows
// of zero means no absolute cap.
type Thresholds struct {
	MaxErrorRatio float64 `yaml:"max_error_ratio" validate:"gte=0,lte=1"`
	MaxErrorRows  int     `yaml:"max_error_rows" validate:"gte=0"`
}

// Chunking bounds memory for large files. Files at or above
// AutoChunkMB megabytes are processed in ChunkSize-row chunks.
type Chunking struct {
	ChunkSize   int `yaml:"chunk_size" validate:"gt=0"`
	AutoChunkMB int `yaml:"auto_chunk_mb" validate:"gt=0"`
}

// Rules is the declarative rule table supplied by the configuration
// collaborator: alias table, date formats, sign policies, transfer
// patterns, dedupe keys, error thresholds, and fallback values.
type Rules struct {
	ColumnAliases  map[string][]string `yaml:"column_aliases" validate:"required,min=1"`
	MatchThreshold float64             `yaml:"match_threshold" validate:"gte=0,lte=1"`
	DateFormats    []string            `yaml:"date_formats" validate:"required,min=1"`
	FallbackValues map[string]string   `yaml:"fallback_values"`
	SignPolicies   []SignPolicy        `yaml:"sign_policies" validate:"dive"`
	Transfer       TransferRules       `yaml:"transfer"`
	Dedupe         DedupeRules         `yaml:"dedupe"`
	Thresholds     Thresholds          `yaml:"thresholds"`
	Chunking       Chunking            `yaml:"chunking"`
}

// DefaultRules returns the built-in rule table, mirroring the defaults
// the engine ships with. LoadRules starts from these and overlays the
// rule file.
func DefaultRules() Rules {
	return Rules{
		ColumnAliases: map[string][]string{
			"date":        {"date", "transaction date", "posted date", "trans date", "posting date"},
			"description": {"description", "memo", "details", "payee", "merchant", "name"},
			"amount":      {"amount", "transaction amount", "value", "debit/credit"},
			"category":    {"category", "transaction category", "type"},
			"account":     {"account", "account name", "account number"},
		},
		MatchThreshold: 0.7,
		DateFormats: []string{
			"2006-01-02",
			"01/02/2006",
			"1/2/2006",
			"01/02/06",
			"2006-01-02 15:04:05",
			"Jan 2, 2006",
		},
		FallbackValues: map[string]string{
			"category": "Uncategorized",
		},
		Transfer: TransferRules{
			Category: "Transfer",
			Rules: []TransferRule{
				{Pattern: "Credit Crd-Pay", Label: "Transfer"},
				{Pattern: "EDI PMYTS", Label: "Transfer"},
				{Pattern: "DEBIT PMTS", Label: "Transfer"},
				{Pattern: "Transfer to", Label: "Transfer"},
				{Pattern: "Transfer from", Label: "Transfer"},
			},
			PaymentKeywords: []string{"payment", "autopay"},
		},
		Dedupe: DedupeRules{
			KeyFields: []string{"date", "description", "amount"},
		},
		Thresholds: Thresholds{
			MaxErrorRatio: 0.1,
		},
		Chunking: Chunking{
			ChunkSize:   10000,
			AutoChunkMB: 25,
		},
	}
}

// LoadRules reads and validates the rule file at path. A missing file
// yields the defaults; a present but invalid file is a hard
// CONFIG_INVALID failure so no import can start against a half-loaded
// rule table.
func LoadRules(path string) (Rules, error) {
	rules := DefaultRules()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return rules, nil
		}
		return Rules{}, apperrors.Wrap(apperrors.ErrConfigInvalid, err)
	}

	if err := yaml.Unmarshal(data, &rules); err != nil {
		return Rules{}, apperrors.Wrap(apperrors.ErrConfigInvalid, err)
	}

	if err := rules.Validate(); err != nil {
		return Rules{}, err
	}
	return rules, nil
}

// Validate checks structural constraints, required alias coverage, and
// that every transfer pattern compiles.
func (r Rules) Validate() error {
	if err := validator.New().Struct(r); err != nil {
		return apperrors.Wrap(apperrors.ErrConfigInvalid, err)
	}

	for _, field := range requiredFields {
		if len(r.ColumnAliases[field]) == 0 {
			return apperrors.WithDetails(apperrors.ErrConfigInvalid, map[string]any{
				"field":  field,
				"reason": "no aliases configured for required canonical field",
			})
		}
	}

	for _, rule := range r.Transfer.Rules {
		if _, err := regexp.Compile("(?i)" + rule.Pattern); err != nil {
			return apperrors.WithDetails(apperrors.ErrConfigInvalid, map[string]any{
				"pattern": rule.Pattern,
				"reason":  err.Error(),
			})
		}
	}
	return nil
}
