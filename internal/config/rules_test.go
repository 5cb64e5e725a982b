package config

import (
	"os"
	"path/filepath"
	"testing"

	"reckon/internal/testutil"
)

func writeRuleFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "rules.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("failed to write rule file: %v", err)
	}
	return path
}

func TestLoadRules(t *testing.T) {
	t.Run("missing_file_yields_defaults", func(t *testing.T) {
		rules, err := LoadRules(filepath.Join(t.TempDir(), "absent.yaml"))
		testutil.AssertNoError(t, err)

		defaults := DefaultRules()
		if rules.MatchThreshold != defaults.MatchThreshold {
			t.Errorf("expected default threshold %f, got %f", defaults.MatchThreshold, rules.MatchThreshold)
		}
		if len(rules.Transfer.Rules) != len(defaults.Transfer.Rules) {
			t.Errorf("expected default transfer rules, got %d", len(rules.Transfer.Rules))
		}
	})

	t.Run("overlay_on_defaults", func(t *testing.T) {
		path := writeRuleFile(t, `
match_threshold: 0.9
thresholds:
  max_error_ratio: 0.25
  max_error_rows: 50
`)
		rules, err := LoadRules(path)
		testutil.AssertNoError(t, err)

		if rules.MatchThreshold != 0.9 {
			t.Errorf("expected overridden threshold 0.9, got %f", rules.MatchThreshold)
		}
		if rules.Thresholds.MaxErrorRatio != 0.25 || rules.Thresholds.MaxErrorRows != 50 {
			t.Errorf("expected overridden thresholds, got %+v", rules.Thresholds)
		}
		// Untouched sections keep their defaults.
		if len(rules.DateFormats) == 0 {
			t.Error("expected default date formats to survive the overlay")
		}
	})

	t.Run("malformed_yaml", func(t *testing.T) {
		path := writeRuleFile(t, "match_threshold: [not a number")
		_, err := LoadRules(path)
		testutil.AssertAppError(t, err, "CONFIG_INVALID")
	})

	t.Run("threshold_out_of_range", func(t *testing.T) {
		path := writeRuleFile(t, "match_threshold: 1.5")
		_, err := LoadRules(path)
		testutil.AssertAppError(t, err, "CONFIG_INVALID")
	})

	t.Run("bad_transfer_pattern", func(t *testing.T) {
		path := writeRuleFile(t, `
transfer:
  rules:
    - pattern: "(unclosed"
`)
		_, err := LoadRules(path)
		testutil.AssertAppError(t, err, "CONFIG_INVALID")
	})

	t.Run("required_alias_emptied", func(t *testing.T) {
		path := writeRuleFile(t, `
column_aliases:
  date: []
`)
		_, err := LoadRules(path)
		testutil.AssertAppError(t, err, "CONFIG_INVALID")
	})
}

func TestValidateDefaults(t *testing.T) {
	if err := DefaultRules().Validate(); err != nil {
		t.Fatalf("built-in defaults must validate: %v", err)
	}
}
