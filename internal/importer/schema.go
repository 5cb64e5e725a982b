package importer

import (
	"sort"
	"strings"

	apperrors "reckon/internal/errors"
)

// RequiredFields are the canonical fields every import must map.
var RequiredFields = []string{"date", "description", "amount"}

// priorityFields is the fixed evaluation order for canonical fields.
// Required fields claim headers first so an ambiguous header (e.g.
// "transaction") cannot be stolen by an optional field.
var priorityFields = []string{"date", "description", "amount", "category", "account"}

// ColumnMapping maps canonical field names to source column positions.
type ColumnMapping map[string]int

// SchemaMapper fuzzy-matches raw column headers to canonical fields
// using an alias table. Mapping is a pure function of the header row,
// the alias table, and the threshold: field evaluation order is fixed
// and ties break by first occurrence in the header row, so results are
// reproducible across runs and platforms.
type SchemaMapper struct {
	aliases   map[string][]string
	threshold float64
}

// NewSchemaMapper creates a SchemaMapper from an alias table (canonical
// field name to accepted variants, case-insensitive) and a minimum
// similarity threshold in [0,1].
func NewSchemaMapper(aliases map[string][]string, threshold float64) *SchemaMapper {
	return &SchemaMapper{aliases: aliases, threshold: threshold}
}

// Match scores. Exact beats substring beats fuzzy similarity; fuzzy
// scores scale into (0,3) so a strong fuzzy match can still lose to any
// substring match.
const (
	scoreExact     = 3.0
	scoreSubstring = 2.0
)

// MapHeaders maps the ordered header row to canonical fields. Required
// canonical fields that fail to map cause an INGESTION_FAILED error
// listing the unmapped fields; optional fields are simply left out of
// the mapping.
func (m *SchemaMapper) MapHeaders(headers []string) (ColumnMapping, error) {
	mapping := make(ColumnMapping, len(m.aliases))
	used := make(map[int]bool, len(headers))

	for _, field := range m.fieldOrder() {
		variations := m.aliases[field]
		best := -1
		bestScore := 0.0

		for i, header := range headers {
			if used[i] {
				continue
			}
			score := m.scoreHeader(header, variations)
			if score > bestScore {
				best = i
				bestScore = score
			}
			if bestScore == scoreExact {
				break
			}
		}

		if best >= 0 {
			mapping[field] = best
			used[best] = true
		}
	}

	var unmapped []string
	for _, field := range RequiredFields {
		if _, ok := mapping[field]; !ok {
			unmapped = append(unmapped, field)
		}
	}
	if len(unmapped) > 0 {
		return nil, apperrors.WithDetails(apperrors.ErrIngestionFailed, map[string]any{
			"unmapped_fields": unmapped,
			"headers":         headers,
		})
	}

	return mapping, nil
}

// fieldOrder returns the canonical fields in deterministic evaluation
// order: the priority list first, remaining fields lexicographically.
func (m *SchemaMapper) fieldOrder() []string {
	order := make([]string, 0, len(m.aliases))
	seen := make(map[string]bool, len(m.aliases))
	for _, field := range priorityFields {
		if _, ok := m.aliases[field]; ok {
			order = append(order, field)
			seen[field] = true
		}
	}

	var rest []string
	for field := range m.aliases {
		if !seen[field] {
			rest = append(rest, field)
		}
	}
	sort.Strings(rest)
	return append(order, rest...)
}

// scoreHeader returns the best score of header against all variations.
func (m *SchemaMapper) scoreHeader(header string, variations []string) float64 {
	h := strings.ToLower(strings.TrimSpace(header))
	best := 0.0

	for _, variation := range variations {
		v := strings.ToLower(strings.TrimSpace(variation))
		if v == "" {
			continue
		}

		if h == v {
			return scoreExact
		}

		// Substring containment counts only for substantial variations
		// that dominate the header, so "date" does not claim "updated by".
		if len(v) >= 4 && strings.Contains(h, v) {
			if float64(len(v))/float64(len(h)) > 0.5 || strings.HasPrefix(h, v) || strings.HasSuffix(h, v) {
				if scoreSubstring > best {
					best = scoreSubstring
				}
				continue
			}
		}

		if sim := similarity(h, v); sim >= m.threshold && sim*scoreExact > best {
			best = sim * scoreExact
		}
	}

	return best
}

// similarity returns a normalized edit-distance ratio in [0,1].
func similarity(a, b string) float64 {
	if a == b {
		return 1
	}
	longest := max(len(a), len(b))
	if longest == 0 {
		return 1
	}
	return 1 - float64(levenshtein(a, b))/float64(longest)
}

// levenshtein computes the edit distance between two strings.
func levenshtein(a, b string) int {
	ra, rb := []rune(a), []rune(b)
	prev := make([]int, len(rb)+1)
	curr := make([]int, len(rb)+1)

	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(ra); i++ {
		curr[0] = i
		for j := 1; j <= len(rb); j++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			curr[j] = min(prev[j]+1, curr[j-1]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}
	return prev[len(rb)]
}
