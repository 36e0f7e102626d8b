package config

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"

	apperrors "esgcli/internal/errors"
	"esgcli/pkg/contracts/domain"
)

// Config represents the complete application configuration
type Config struct {
	Logging   LoggingConfig       `yaml:"logging" envconfig:"LOGGING"`
	Paths     PathsConfig         `yaml:"paths" envconfig:"PATHS"`
	Analysis  AnalysisConfig      `yaml:"analysis" envconfig:"ANALYSIS"`
	Schema    SchemaConfig        `yaml:"schema" envconfig:"SCHEMA"`
	Scales    map[string][]string `yaml:"scales" ignored:"true"`
	Export    ExportConfig        `yaml:"export" envconfig:"EXPORT"`
	Telemetry TelemetryConfig     `yaml:"telemetry" envconfig:"TELEMETRY"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level    string `yaml:"level" envconfig:"LEVEL" validate:"oneof=debug info warn error"`
	Format   string `yaml:"format" envconfig:"FORMAT" validate:"oneof=json"`
	Output   string `yaml:"output" envconfig:"OUTPUT" validate:"oneof=console file both"`
	FilePath string `yaml:"file_path" envconfig:"FILE_PATH"`
}

// PathsConfig contains file system paths configuration
type PathsConfig struct {
	BaseDir   string `yaml:"base_dir" envconfig:"BASE_DIR"`
	OutputDir string `yaml:"output_dir" envconfig:"OUTPUT_DIR" validate:"required"`
	LogsDir   string `yaml:"logs_dir" envconfig:"LOGS_DIR" validate:"required"`
}

// AnalysisConfig controls the rating scale and leaderboard sizes
type AnalysisConfig struct {
	Scale         string `yaml:"scale" envconfig:"SCALE" validate:"required"`
	TopIndustries int    `yaml:"top_industries" envconfig:"TOP_INDUSTRIES" validate:"min=0"`
	TopCountries  int    `yaml:"top_countries" envconfig:"TOP_COUNTRIES" validate:"min=0"`
	TopCompanies  int    `yaml:"top_companies" envconfig:"TOP_COMPANIES" validate:"min=0"`
	TopProgress   int    `yaml:"top_progress" envconfig:"TOP_PROGRESS" validate:"min=0"`
	TopLatest     int    `yaml:"top_latest" envconfig:"TOP_LATEST" validate:"min=0"`

	// Groupings are run after the standard analyses.
	Groupings []domain.Grouping `yaml:"groupings" ignored:"true"`
}

// KeywordRule is the YAML form of one field's heuristic keywords
type KeywordRule struct {
	Keywords []string `yaml:"keywords"`
	Exclude  []string `yaml:"exclude"`
}

// SchemaConfig contains the declared field mapping and keyword overrides
type SchemaConfig struct {
	Version           string                 `yaml:"version" envconfig:"VERSION" validate:"required"`
	AcceptSuggestions bool                   `yaml:"accept_suggestions" envconfig:"ACCEPT_SUGGESTIONS"`
	Mapping           map[string]string      `yaml:"mapping" ignored:"true"`
	Keywords          map[string]KeywordRule `yaml:"keywords" ignored:"true"`
}

// ExportConfig selects the output sinks
type ExportConfig struct {
	Formats []string `yaml:"formats" envconfig:"FORMATS" validate:"dive,oneof=csv json xlsx sqlite"`
	// IncludeRecords writes the enriched records next to the aggregations.
	IncludeRecords bool `yaml:"include_records" envconfig:"INCLUDE_RECORDS"`
}

// TelemetryConfig contains tracing and metrics configuration
type TelemetryConfig struct {
	ServiceName   string `yaml:"service_name" envconfig:"SERVICE_NAME"`
	TracesEnabled bool   `yaml:"traces_enabled" envconfig:"TRACES_ENABLED"`
	// TracesFile receives spans as JSON lines; empty means stderr.
	TracesFile string `yaml:"traces_file" envconfig:"TRACES_FILE"`
	// MetricsFile receives the Prometheus text dump at the end of a run.
	MetricsFile string `yaml:"metrics_file" envconfig:"METRICS_FILE"`
}

// Load loads configuration from defaults, the config file and environment
// variables, in that order of precedence (env wins). An empty path searches
// the default locations.
func Load(path string) (*Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		path = getConfigFilePath()
	}
	if path != "" {
		if err := cfg.loadFromFile(path); err != nil {
			if explicit || !os.IsNotExist(err) {
				return nil, apperrors.NewConfigError("failed to load config from file", err).
					WithContext("path", path)
			}
		}
	}

	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, apperrors.NewConfigError("failed to load config from env", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// loadFromFile overlays the YAML file onto c
func (c *Config) loadFromFile(filePath string) error {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, c)
}

// getConfigFilePath returns the first config file found in the usual places
func getConfigFilePath() string {
	locations := []string{
		DefaultConfigFile,
		"configs/" + DefaultConfigFile,
	}

	for _, location := range locations {
		if _, err := os.Stat(location); err == nil {
			return location
		}
	}

	return ""
}

var validate = validator.New()

// Validate checks struct constraints, the configured scales, the schema
// overrides and custom groupings.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return apperrors.NewConfigError("config validation failed", err)
	}

	for _, name := range c.ScaleNames() {
		if _, err := domain.NewRatingScale(name, c.Scales[name]); err != nil {
			return apperrors.NewConfigError("invalid rating scale", err).WithContext("scale", name)
		}
	}
	if _, ok := c.Scales[c.Analysis.Scale]; !ok {
		return apperrors.NewConfigError("analysis scale is not configured", apperrors.ErrUnknownScale).
			WithContext("scale", c.Analysis.Scale)
	}

	for field := range c.Schema.Mapping {
		if !domain.IsKnownField(domain.Field(field)) {
			return apperrors.NewConfigError("schema mapping names an unknown field", apperrors.ErrUnknownField).
				WithContext("field", field)
		}
	}
	for field, rule := range c.Schema.Keywords {
		if !domain.IsKnownField(domain.Field(field)) {
			return apperrors.NewConfigError("schema keywords name an unknown field", apperrors.ErrUnknownField).
				WithContext("field", field)
		}
		if len(rule.Keywords) == 0 {
			return apperrors.NewConfigError(fmt.Sprintf("schema keywords for %q are empty", field), nil)
		}
	}

	for _, g := range c.Analysis.Groupings {
		if err := domain.ValidateGrouping(g); err != nil {
			return apperrors.NewConfigError("invalid grouping", err).WithContext("grouping", g.Name)
		}
	}

	return nil
}

// ScaleNames returns the configured scale names sorted
func (c *Config) ScaleNames() []string {
	names := make([]string, 0, len(c.Scales))
	for name := range c.Scales {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// RatingScale builds the named scale. An empty name selects the scale
// configured for analysis.
func (c *Config) RatingScale(name string) (*domain.RatingScale, error) {
	if name == "" {
		name = c.Analysis.Scale
	}
	labels, ok := c.Scales[strings.TrimSpace(name)]
	if !ok {
		return nil, apperrors.NewConfigError("rating scale not configured", apperrors.ErrUnknownScale).
			WithContext("scale", name)
	}
	scale, err := domain.NewRatingScale(name, labels)
	if err != nil {
		return nil, apperrors.NewConfigError("invalid rating scale", err).WithContext("scale", name)
	}
	return scale, nil
}

// Default returns default configuration
func Default() *Config {
	return &Config{
		Logging: LoggingConfig{
			Level:    "info",
			Format:   "json",
			Output:   OutputConsole,
			FilePath: DefaultLogFile,
		},
		Paths: PathsConfig{
			OutputDir: DefaultOutputDir,
			LogsDir:   DefaultLogsDir,
		},
		Analysis: AnalysisConfig{
			Scale:         DefaultScale,
			TopIndustries: DefaultTopIndustries,
			TopCountries:  DefaultTopCountries,
			TopCompanies:  DefaultTopCompanies,
			TopProgress:   DefaultTopProgress,
			TopLatest:     DefaultTopLatest,
		},
		Schema: SchemaConfig{
			Version:           DefaultSchemaVersion,
			AcceptSuggestions: true,
		},
		Scales: map[string][]string{
			DefaultScale: append([]string(nil), domain.MSCIRatingLabels...),
		},
		Export: ExportConfig{
			Formats: []string{FormatCSV, FormatJSON},
		},
		Telemetry: TelemetryConfig{
			ServiceName: "esganalyzer",
		},
	}
}
