package schema

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v2"

	"esgcli/internal/config"
	apperrors "esgcli/internal/errors"
	"esgcli/internal/shared/testutil"
	"esgcli/pkg/contracts/domain"
)

func TestResolve_MinimalExport(t *testing.T) {
	r := NewResolver(nil, Options{AcceptSuggestions: true}, nil)

	fm := r.Resolve([]string{"ISSUER_NAME", "IVA_COMPANY_RATING", "ENVIRONMENTAL_PILLAR_SCORE"})

	col, ok := fm.Column(domain.FieldName)
	assert.True(t, ok)
	assert.Equal(t, "ISSUER_NAME", col)
	col, ok = fm.Column(domain.FieldRating)
	assert.True(t, ok)
	assert.Equal(t, "IVA_COMPANY_RATING", col)
	col, ok = fm.Column(domain.FieldEnvironmental)
	assert.True(t, ok)
	assert.Equal(t, "ENVIRONMENTAL_PILLAR_SCORE", col)

	assert.False(t, fm.Has(domain.FieldIndustry))
	assert.False(t, fm.Has(domain.FieldCountry))
	assert.False(t, fm.Has(domain.FieldDate))
	assert.Contains(t, fm.Gaps(), domain.FieldIndustry)
}

func TestResolve_VendorHeader(t *testing.T) {
	r := NewResolver(nil, Options{AcceptSuggestions: true}, nil)

	fm := r.Resolve(testutil.RatingsHeader)

	want := map[domain.Field]string{
		domain.FieldName:           "ISSUER_NAME",
		domain.FieldDate:           "AS_OF_DATE",
		domain.FieldRating:         "IVA_COMPANY_RATING",
		domain.FieldPreviousRating: "IVA_PREVIOUS_RATING",
		domain.FieldIndustry:       "GICS_SUB_IND",
		domain.FieldCountry:        "ISSUER_CNTRY_DOMICILE",
		domain.FieldEnvironmental:  "ENVIRONMENTAL_PILLAR_SCORE",
		domain.FieldSocial:         "SOCIAL_PILLAR_SCORE",
		domain.FieldGovernance:     "GOVERNANCE_PILLAR_SCORE",
		domain.FieldTotalScore:     "WEIGHTED_AVERAGE_SCORE",
	}
	for field, col := range want {
		got, ok := fm.Column(field)
		assert.True(t, ok, "field %s", field)
		assert.Equal(t, col, got, "field %s", field)
	}
	assert.Empty(t, fm.Gaps())
}

func TestResolve_TiesByColumnOrder(t *testing.T) {
	r := NewResolver(nil, Options{AcceptSuggestions: true}, nil)

	fm := r.Resolve([]string{"OVERALL_SCORE", "TOTAL_SCORE", "IVA_RATING_TREND", "ESG_RATING"})

	col, _ := fm.Column(domain.FieldTotalScore)
	assert.Equal(t, "OVERALL_SCORE", col)
	col, _ = fm.Column(domain.FieldRating)
	assert.Equal(t, "ESG_RATING", col)
}

func TestResolve_ExclusionsKeepThemeColumnsOut(t *testing.T) {
	r := NewResolver(nil, Options{AcceptSuggestions: true}, nil)

	fm := r.Resolve([]string{"ENVIRONMENTAL_THEME_SCORE", "SOCIAL_THEME", "INDUSTRY_ADJUSTED_SCORE"})

	assert.False(t, fm.Has(domain.FieldEnvironmental))
	assert.False(t, fm.Has(domain.FieldSocial))
	assert.False(t, fm.Has(domain.FieldIndustry))
	col, ok := fm.Column(domain.FieldTotalScore)
	assert.True(t, ok)
	assert.Equal(t, "INDUSTRY_ADJUSTED_SCORE", col)
}

func TestResolve_DeclaredWinsAndSuggestionsMarked(t *testing.T) {
	r := NewResolver(nil, Options{
		Version:           "v2",
		Declared:          map[domain.Field]string{domain.FieldRating: "iva_previous_rating"},
		AcceptSuggestions: true,
	}, nil)

	fm := r.Resolve(testutil.RatingsHeader)

	b, ok := fm.Binding(domain.FieldRating)
	require.True(t, ok)
	assert.Equal(t, "IVA_PREVIOUS_RATING", b.Column)
	assert.Equal(t, domain.OriginDeclared, b.Origin)

	b, ok = fm.Binding(domain.FieldName)
	require.True(t, ok)
	assert.Equal(t, domain.OriginSuggested, b.Origin)
	assert.Equal(t, "v2", fm.Version())
}

func TestResolve_SuggestionsNotAccepted(t *testing.T) {
	logger, handler := testutil.NewTestLogger(t)
	r := NewResolver(nil, Options{
		Declared: map[domain.Field]string{domain.FieldName: "ISSUER_NAME"},
	}, logger)

	fm := r.Resolve(testutil.RatingsHeader)

	assert.True(t, fm.Has(domain.FieldName))
	assert.False(t, fm.Has(domain.FieldRating))
	assert.Equal(t, "IVA_COMPANY_RATING", fm.PendingSuggestions()[domain.FieldRating])
	assert.Len(t, fm.Gaps(), len(domain.Fields)-1)
	testutil.AssertLogContains(t, handler, slog.LevelWarn, "Schema field unresolved")
	assert.True(t, handler.ContainsAttr("suggested_column", "IVA_COMPANY_RATING"))
}

func TestValidateMapping(t *testing.T) {
	tests := []struct {
		name     string
		declared map[domain.Field]string
		wantErr  error
	}{
		{name: "valid", declared: map[domain.Field]string{domain.FieldRating: "IVA_COMPANY_RATING"}},
		{name: "case-insensitive column", declared: map[domain.Field]string{domain.FieldRating: "iva_company_rating"}},
		{name: "missing column", declared: map[domain.Field]string{domain.FieldRating: "RATING"}, wantErr: apperrors.ErrMissingColumn},
		{name: "unknown field", declared: map[domain.Field]string{"ticker": "ISSUER_NAME"}, wantErr: apperrors.ErrUnknownField},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewResolver(nil, Options{Declared: tt.declared}, nil)
			err := r.ValidateMapping(testutil.RatingsHeader)
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.True(t, apperrors.IsConfigError(err))
		})
	}
}

func TestSuggest_YAML(t *testing.T) {
	r := NewResolver(nil, Options{Version: "v1"}, nil)

	out, err := r.Suggest([]string{"ISSUER_NAME", "IVA_COMPANY_RATING"})
	require.NoError(t, err)

	var doc struct {
		Version    string            `yaml:"version"`
		Mapping    map[string]string `yaml:"mapping"`
		Unresolved []string          `yaml:"unresolved"`
	}
	require.NoError(t, yaml.Unmarshal(out, &doc))
	assert.Equal(t, "v1", doc.Version)
	assert.Equal(t, map[string]string{"name": "ISSUER_NAME", "rating": "IVA_COMPANY_RATING"}, doc.Mapping)
	assert.Contains(t, doc.Unresolved, "country")
	assert.Regexp(t, `(?s)name: ISSUER_NAME.*rating: IVA_COMPANY_RATING`, string(out))
}

func TestNewResolverFromConfig(t *testing.T) {
	cfg := config.Default().Schema
	cfg.Mapping = map[string]string{"name": "ISSUER_NAME"}
	cfg.Keywords = map[string]config.KeywordRule{
		"country": {Keywords: []string{"hq_location"}},
	}

	r, err := NewResolverFromConfig(cfg, nil)
	require.NoError(t, err)

	fm := r.Resolve([]string{"ISSUER_NAME", "HQ_LOCATION", "COUNTRY"})
	col, _ := fm.Column(domain.FieldCountry)
	assert.Equal(t, "HQ_LOCATION", col)
	b, _ := fm.Binding(domain.FieldName)
	assert.Equal(t, domain.OriginDeclared, b.Origin)

	cfg.Keywords = map[string]config.KeywordRule{"ticker": {Keywords: []string{"x"}}}
	_, err = NewResolverFromConfig(cfg, nil)
	assert.True(t, apperrors.IsConfigError(err))
}

func TestParseKeywordTable(t *testing.T) {
	table, err := ParseKeywordTable([]byte(`
version: desk-7
fields:
  industry:
    keywords: [segment]
`))
	require.NoError(t, err)
	assert.Equal(t, "desk-7", table.Version)

	col, ok := table.Match(domain.FieldIndustry, []string{"GICS_SUB_IND", "SEGMENT"})
	assert.True(t, ok)
	assert.Equal(t, "SEGMENT", col)
	col, ok = table.Match(domain.FieldRating, []string{"ESG_RATING"})
	assert.True(t, ok)
	assert.Equal(t, "ESG_RATING", col)

	_, err = ParseKeywordTable([]byte("fields:\n  ticker:\n    keywords: [x]\n"))
	assert.Error(t, err)
}
