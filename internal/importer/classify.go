package importer

import (
	"regexp"
	"strings"

	"reckon/internal/config"
	apperrors "reckon/internal/errors"
	"reckon/internal/models"
)

// Classification is the outcome of running the transfer rules against
// one description.
type Classification struct {
	IsTransfer bool
	// Label is the category assigned by the matching rule, or the
	// default transfer category when the safeguard fired. Empty when the
	// row is not a transfer.
	Label string
}

// compiledRule is one (pattern, label) transfer rule with its regex
// compiled case-insensitively.
type compiledRule struct {
	re    *regexp.Regexp
	label string
}

// Classifier tags internal transfers. It evaluates an ordered rule list
// first-match-wins, then runs one unconditional safeguard stage: a
// credit-type account whose description contains a generic payment
// keyword is forced to is_transfer regardless of the rule results. The
// split keeps rule order and the safeguard auditable in isolation.
type Classifier struct {
	rules           []compiledRule
	paymentKeywords []*regexp.Regexp
	defaultCategory string
}

// NewClassifier compiles the configured transfer rules. A malformed
// pattern is a CONFIG_INVALID failure, surfaced before any file is
// processed.
func NewClassifier(cfg config.TransferRules) (*Classifier, error) {
	c := &Classifier{defaultCategory: cfg.Category}

	for _, rule := range cfg.Rules {
		re, err := regexp.Compile("(?i)" + rule.Pattern)
		if err != nil {
			return nil, apperrors.WithDetails(apperrors.ErrConfigInvalid, map[string]any{
				"pattern": rule.Pattern,
				"reason":  err.Error(),
			})
		}
		label := rule.Label
		if label == "" {
			label = cfg.Category
		}
		c.rules = append(c.rules, compiledRule{re: re, label: label})
	}

	for _, keyword := range cfg.PaymentKeywords {
		re, err := regexp.Compile(`(?i)\b` + regexp.QuoteMeta(keyword) + `\b`)
		if err != nil {
			return nil, apperrors.WithDetails(apperrors.ErrConfigInvalid, map[string]any{
				"keyword": keyword,
				"reason":  err.Error(),
			})
		}
		c.paymentKeywords = append(c.paymentKeywords, re)
	}

	return c, nil
}

// Classify evaluates the description for the given owning-account type.
func (c *Classifier) Classify(description string, accountType models.AccountType) Classification {
	var result Classification

	for _, rule := range c.rules {
		if rule.re.MatchString(description) {
			result.IsTransfer = true
			result.Label = rule.label
			break
		}
	}

	// Safeguard stage: always runs, independent of the rule outcomes.
	// Generic descriptions like "Payment" on a credit account are
	// transfers even when no explicit pattern lists them.
	if accountType == models.AccountTypeCredit && c.matchesPaymentKeyword(description) {
		result.IsTransfer = true
		if result.Label == "" {
			result.Label = c.defaultCategory
		}
	}

	return result
}

func (c *Classifier) matchesPaymentKeyword(description string) bool {
	for _, re := range c.paymentKeywords {
		if re.MatchString(description) {
			return true
		}
	}
	return false
}

// DestinationHint returns the ID of the account whose name appears in
// the description, excluding the owning account. The hint is
// best-effort: when zero or multiple candidate accounts match, no hint
// is emitted rather than guessing a priority.
func DestinationHint(description, owningAccountID string, accounts []models.Account) *string {
	lowered := strings.ToLower(description)

	var match *string
	for i := range accounts {
		account := &accounts[i]
		if account.ID == owningAccountID || account.Name == "" {
			continue
		}
		if strings.Contains(lowered, strings.ToLower(account.Name)) {
			if match != nil {
				return nil
			}
			match = &account.ID
		}
	}
	return match
}
