package schema

import (
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"gopkg.in/yaml.v2"

	"esgcli/internal/config"
	apperrors "esgcli/internal/errors"
	"esgcli/internal/infrastructure"
	"esgcli/pkg/contracts/domain"
)

// Options configures a Resolver.
type Options struct {
	// Version labels the declared mapping.
	Version string
	// Declared maps fields to columns confirmed by a human.
	Declared map[domain.Field]string
	// AcceptSuggestions lets heuristic matches fill undeclared fields.
	AcceptSuggestions bool
}

// Resolver maps an unknown column set onto the canonical fields.
type Resolver struct {
	table  *KeywordTable
	opts   Options
	logger *slog.Logger
}

// NewResolver creates a resolver. A nil table uses the built-in rules.
func NewResolver(table *KeywordTable, opts Options, logger *slog.Logger) *Resolver {
	if table == nil {
		table = DefaultKeywordTable()
	}
	if opts.Version == "" {
		opts.Version = table.Version
	}
	return &Resolver{
		table:  table,
		opts:   opts,
		logger: infrastructure.WithComponent(logger, "schema"),
	}
}

// NewResolverFromConfig builds a resolver from the schema section.
func NewResolverFromConfig(cfg config.SchemaConfig, logger *slog.Logger) (*Resolver, error) {
	table := DefaultKeywordTable()
	for field, rule := range cfg.Keywords {
		if err := table.Override(domain.Field(field), Rule{Keywords: rule.Keywords, Exclude: rule.Exclude}); err != nil {
			return nil, apperrors.NewConfigError("invalid schema keywords", err)
		}
	}

	declared := make(map[domain.Field]string, len(cfg.Mapping))
	for field, col := range cfg.Mapping {
		declared[domain.Field(field)] = col
	}

	return NewResolver(table, Options{
		Version:           cfg.Version,
		Declared:          declared,
		AcceptSuggestions: cfg.AcceptSuggestions,
	}, logger), nil
}

// ValidateMapping checks the declared mapping against the input columns.
// An unknown field or a declared column missing from the input is a
// configuration error.
func (r *Resolver) ValidateMapping(columns []string) error {
	for _, field := range sortedDeclared(r.opts.Declared) {
		if !domain.IsKnownField(field) {
			return apperrors.NewConfigError("declared mapping names an unknown field", apperrors.ErrUnknownField).
				WithContext("field", string(field))
		}
		col := r.opts.Declared[field]
		if _, ok := findColumn(columns, col); !ok {
			return apperrors.NewConfigError(
				fmt.Sprintf("declared column %q for field %q is not in the input", col, field),
				apperrors.ErrMissingColumn,
			).WithContext("field", string(field)).WithContext("column", col)
		}
	}
	return nil
}

// Resolve builds the field map for columns. It never fails: fields
// without a column are reported as gaps.
func (r *Resolver) Resolve(columns []string) *domain.FieldMap {
	var bindings []domain.FieldBinding
	pending := make(map[domain.Field]string)

	for _, field := range domain.Fields {
		if declared, ok := r.opts.Declared[field]; ok {
			if col, found := findColumn(columns, declared); found {
				bindings = append(bindings, domain.FieldBinding{Field: field, Column: col, Origin: domain.OriginDeclared})
				continue
			}
			r.logger.Warn("Declared column missing from input",
				slog.String("field", string(field)),
				slog.String("column", declared))
		}

		col, ok := r.table.Match(field, columns)
		if !ok {
			continue
		}
		if r.opts.AcceptSuggestions {
			bindings = append(bindings, domain.FieldBinding{Field: field, Column: col, Origin: domain.OriginSuggested})
		} else {
			pending[field] = col
		}
	}

	fm := domain.NewFieldMap(r.opts.Version, bindings, pending)

	for _, b := range fm.Bindings() {
		r.logger.Debug("Schema field resolved",
			slog.String("field", string(b.Field)),
			slog.String("column", b.Column),
			slog.String("origin", string(b.Origin)))
	}
	for _, gap := range fm.Gaps() {
		attrs := []any{slog.String("field", string(gap))}
		if col, ok := pending[gap]; ok {
			attrs = append(attrs, slog.String("suggested_column", col))
		}
		r.logger.Warn("Schema field unresolved", attrs...)
	}
	r.logger.Info("Schema resolved",
		slog.String("version", fm.Version()),
		slog.Int("resolved", len(fm.Bindings())),
		slog.Int("unresolved", len(fm.Gaps())))

	return fm
}

// suggestionDoc is the YAML shape printed for confirmation. Its mapping
// block can be pasted under the schema section of the config file.
type suggestionDoc struct {
	Version    string        `yaml:"version"`
	Mapping    yaml.MapSlice `yaml:"mapping"`
	Unresolved []string      `yaml:"unresolved,omitempty"`
}

// Suggest returns the heuristic mapping for columns as YAML, ignoring any
// declared mapping.
func (r *Resolver) Suggest(columns []string) ([]byte, error) {
	doc := suggestionDoc{Version: r.opts.Version}
	for _, field := range domain.Fields {
		if col, ok := r.table.Match(field, columns); ok {
			doc.Mapping = append(doc.Mapping, yaml.MapItem{Key: string(field), Value: col})
		} else {
			doc.Unresolved = append(doc.Unresolved, string(field))
		}
	}
	out, err := yaml.Marshal(doc)
	if err != nil {
		return nil, apperrors.NewParsingError("failed to render suggested mapping", err)
	}
	return out, nil
}

// findColumn matches col exactly, then ignoring case and surrounding space.
func findColumn(columns []string, col string) (string, bool) {
	for _, c := range columns {
		if c == col {
			return c, true
		}
	}
	want := strings.TrimSpace(col)
	for _, c := range columns {
		if strings.EqualFold(c, want) {
			return c, true
		}
	}
	return "", false
}

// sortedDeclared returns declared fields in canonical order followed by
// unknown ones so validation errors are deterministic.
func sortedDeclared(declared map[domain.Field]string) []domain.Field {
	out := make([]domain.Field, 0, len(declared))
	for _, f := range domain.Fields {
		if _, ok := declared[f]; ok {
			out = append(out, f)
		}
	}
	var unknown []domain.Field
	for f := range declared {
		if !domain.IsKnownField(f) {
			unknown = append(unknown, f)
		}
	}
	if len(unknown) > 0 {
		slices.Sort(unknown)
		out = append(out, unknown...)
	}
	return out
}
