package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "esgcli/internal/errors"
	"esgcli/pkg/contracts/domain"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "esg.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestDefault_IsValid(t *testing.T) {
	cfg := Default()

	require.NoError(t, cfg.Validate())
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, OutputConsole, cfg.Logging.Output)
	assert.Equal(t, DefaultScale, cfg.Analysis.Scale)
	assert.Equal(t, 15, cfg.Analysis.TopIndustries)
	assert.Equal(t, 10, cfg.Analysis.TopCountries)
	assert.True(t, cfg.Schema.AcceptSuggestions)
	assert.Equal(t, []string{FormatCSV, FormatJSON}, cfg.Export.Formats)
}

func TestLoad(t *testing.T) {
	tests := []struct {
		name        string
		content     string
		env         map[string]string
		wantErr     bool
		validateCfg func(*testing.T, *Config)
	}{
		{
			name: "file overrides defaults",
			content: `
logging:
  level: debug
analysis:
  top_industries: 5
schema:
  version: v2
  accept_suggestions: false
  mapping:
    rating: IVA_COMPANY_RATING
export:
  formats: [csv, xlsx, sqlite]
`,
			validateCfg: func(t *testing.T, cfg *Config) {
				assert.Equal(t, "debug", cfg.Logging.Level)
				assert.Equal(t, 5, cfg.Analysis.TopIndustries)
				assert.Equal(t, 10, cfg.Analysis.TopCountries)
				assert.Equal(t, "v2", cfg.Schema.Version)
				assert.False(t, cfg.Schema.AcceptSuggestions)
				assert.Equal(t, "IVA_COMPANY_RATING", cfg.Schema.Mapping["rating"])
				assert.Equal(t, []string{"csv", "xlsx", "sqlite"}, cfg.Export.Formats)
			},
		},
		{
			name: "extra scales merge with the default",
			content: `
scales:
  risk: [NEGLIGIBLE, LOW, MEDIUM, HIGH, SEVERE]
analysis:
  scale: risk
`,
			validateCfg: func(t *testing.T, cfg *Config) {
				assert.Equal(t, []string{"msci", "risk"}, cfg.ScaleNames())
				scale, err := cfg.RatingScale("")
				require.NoError(t, err)
				rank, ok := scale.Rank("negligible")
				assert.True(t, ok)
				assert.Equal(t, 5, rank)
			},
		},
		{
			name:    "environment wins over file",
			content: "analysis:\n  top_industries: 5\n",
			env: map[string]string{
				"ESG_ANALYSIS_TOP_INDUSTRIES": "20",
				"ESG_EXPORT_FORMATS":          "json,sqlite",
				"ESG_LOGGING_LEVEL":           "warn",
			},
			validateCfg: func(t *testing.T, cfg *Config) {
				assert.Equal(t, 20, cfg.Analysis.TopIndustries)
				assert.Equal(t, []string{"json", "sqlite"}, cfg.Export.Formats)
				assert.Equal(t, "warn", cfg.Logging.Level)
			},
		},
		{
			name:    "invalid yaml",
			content: "analysis: [unclosed",
			wantErr: true,
		},
		{
			name:    "unknown export format",
			content: "export:\n  formats: [pdf]\n",
			wantErr: true,
		},
		{
			name:    "unknown scale selected",
			content: "analysis:\n  scale: nope\n",
			wantErr: true,
		},
		{
			name:    "duplicate scale labels",
			content: "scales:\n  bad: [A, a]\n",
			wantErr: true,
		},
		{
			name:    "mapping names unknown field",
			content: "schema:\n  mapping:\n    ticker: TICKER\n",
			wantErr: true,
		},
		{
			name:    "invalid logging level",
			content: "logging:\n  level: verbose\n",
			wantErr: true,
		},
		{
			name:    "grouping with unknown dimension",
			content: "analysis:\n  groupings:\n    - name: by_sector\n      dimensions: [sector]\n",
			wantErr: true,
		},
		{
			name: "custom grouping",
			content: `
analysis:
  groupings:
    - name: country_ratings
      dimensions: [country, rating]
      metrics: [rating_rank]
`,
			validateCfg: func(t *testing.T, cfg *Config) {
				require.Len(t, cfg.Analysis.Groupings, 1)
				g := cfg.Analysis.Groupings[0]
				assert.Equal(t, []domain.Dimension{domain.DimCountry, domain.DimRating}, g.Dimensions)
				assert.Equal(t, domain.OrderLeaderboard, g.DefaultOrder())
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			path := writeConfig(t, tt.content)

			cfg, err := Load(path)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, apperrors.IsConfigError(err))
				return
			}
			require.NoError(t, err)
			if tt.validateCfg != nil {
				tt.validateCfg(t, cfg)
			}
		})
	}
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))

	require.Error(t, err)
	assert.True(t, apperrors.IsConfigError(err))
}

func TestRatingScale_Unknown(t *testing.T) {
	_, err := Default().RatingScale("fitch")

	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrUnknownScale)
}
