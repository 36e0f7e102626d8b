package schema

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v2"

	"esgcli/pkg/contracts/domain"
)

// Rule lists the substrings that identify a field's column. A column
// matches when it contains any keyword and none of the exclusions; both
// comparisons ignore case.
type Rule struct {
	Keywords []string `yaml:"keywords"`
	Exclude  []string `yaml:"exclude,omitempty"`
}

// Matches reports whether column satisfies the rule.
func (r Rule) Matches(column string) bool {
	col := strings.ToLower(column)
	for _, ex := range r.Exclude {
		if ex != "" && strings.Contains(col, strings.ToLower(ex)) {
			return false
		}
	}
	for _, kw := range r.Keywords {
		if kw != "" && strings.Contains(col, strings.ToLower(kw)) {
			return true
		}
	}
	return false
}

// KeywordTable is a versioned set of heuristic rules, one per field.
type KeywordTable struct {
	Version string                `yaml:"version"`
	Fields  map[domain.Field]Rule `yaml:"fields"`
}

// DefaultKeywordTable returns the built-in rules.
func DefaultKeywordTable() *KeywordTable {
	return &KeywordTable{
		Version: "builtin-1",
		Fields: map[domain.Field]Rule{
			domain.FieldName: {
				Keywords: []string{"issuer", "company", "name"},
				Exclude:  []string{"country", "cntry", "domicile", "ticker", "_id", "rating", "score"},
			},
			domain.FieldDate: {
				Keywords: []string{"date"},
			},
			domain.FieldRating: {
				Keywords: []string{"rating"},
				Exclude:  []string{"previous", "prev_", "date", "trend"},
			},
			domain.FieldPreviousRating: {
				Keywords: []string{"previous_rating", "prev_rating", "previous"},
				Exclude:  []string{"date"},
			},
			domain.FieldIndustry: {
				Keywords: []string{"industry", "gics_sub_ind", "sector"},
				Exclude:  []string{"adjusted", "score"},
			},
			domain.FieldCountry: {
				Keywords: []string{"country", "cntry", "domicile"},
			},
			domain.FieldEnvironmental: {
				Keywords: []string{"environment"},
				Exclude:  []string{"theme"},
			},
			domain.FieldSocial: {
				Keywords: []string{"social"},
				Exclude:  []string{"theme"},
			},
			domain.FieldGovernance: {
				Keywords: []string{"governance"},
				Exclude:  []string{"theme"},
			},
			domain.FieldTotalScore: {
				Keywords: []string{
					"weighted_average_score",
					"total_score",
					"overall_score",
					"industry_adjusted_score",
					"total_esg_score",
				},
			},
		},
	}
}

// ParseKeywordTable reads a keyword table from YAML. Fields the document
// leaves out keep their built-in rules.
func ParseKeywordTable(data []byte) (*KeywordTable, error) {
	var doc KeywordTable
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("invalid keyword table: %w", err)
	}

	table := DefaultKeywordTable()
	if doc.Version != "" {
		table.Version = doc.Version
	}
	for field, rule := range doc.Fields {
		if err := table.Override(field, rule); err != nil {
			return nil, err
		}
	}
	return table, nil
}

// Override replaces the rule for field.
func (t *KeywordTable) Override(field domain.Field, rule Rule) error {
	if !domain.IsKnownField(field) {
		return fmt.Errorf("keyword table: unknown field %q", field)
	}
	if len(rule.Keywords) == 0 {
		return fmt.Errorf("keyword table: field %q has no keywords", field)
	}
	t.Fields[field] = rule
	return nil
}

// Match returns the first column, in table order, that satisfies the rule
// for field. Ties are broken by column order, never keyword order.
func (t *KeywordTable) Match(field domain.Field, columns []string) (string, bool) {
	rule, ok := t.Fields[field]
	if !ok {
		return "", false
	}
	for _, col := range columns {
		if rule.Matches(col) {
			return col, true
		}
	}
	return "", false
}
