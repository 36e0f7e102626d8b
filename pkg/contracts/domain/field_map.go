package domain

// Field is a canonical semantic field the schema resolver looks for.
type Field string

const (
	FieldName           Field = "name"
	FieldDate           Field = "date"
	FieldRating         Field = "rating"
	FieldPreviousRating Field = "previous_rating"
	FieldIndustry       Field = "industry"
	FieldCountry        Field = "country"
	FieldEnvironmental  Field = "environmental"
	FieldSocial         Field = "social"
	FieldGovernance     Field = "governance"
	FieldTotalScore     Field = "total_score"
)

// Fields lists the canonical fields in resolution order.
var Fields = []Field{
	FieldName,
	FieldDate,
	FieldRating,
	FieldPreviousRating,
	FieldIndustry,
	FieldCountry,
	FieldEnvironmental,
	FieldSocial,
	FieldGovernance,
	FieldTotalScore,
}

// IsKnownField reports whether f is a canonical field.
func IsKnownField(f Field) bool {
	for _, known := range Fields {
		if known == f {
			return true
		}
	}
	return false
}

// PillarField maps a pillar to its canonical field.
func PillarField(p Pillar) Field {
	switch p {
	case PillarEnvironmental:
		return FieldEnvironmental
	case PillarSocial:
		return FieldSocial
	default:
		return FieldGovernance
	}
}

// MappingOrigin records where a field's column came from.
type MappingOrigin string

const (
	OriginDeclared  MappingOrigin = "declared"
	OriginSuggested MappingOrigin = "suggested"
)

// FieldBinding is one resolved field.
type FieldBinding struct {
	Field  Field         `json:"field" yaml:"field"`
	Column string        `json:"column" yaml:"column"`
	Origin MappingOrigin `json:"origin" yaml:"origin"`
}

// FieldMap maps canonical fields to source columns. It is built once per
// dataset and is read-only afterwards.
type FieldMap struct {
	version     string
	bindings    map[Field]FieldBinding
	suggestions map[Field]string
}

// NewFieldMap returns a FieldMap over bindings. Suggestions holds heuristic
// matches that were not applied, reported so a human can confirm them.
func NewFieldMap(version string, bindings []FieldBinding, suggestions map[Field]string) *FieldMap {
	fm := &FieldMap{
		version:     version,
		bindings:    make(map[Field]FieldBinding, len(bindings)),
		suggestions: make(map[Field]string, len(suggestions)),
	}
	for _, b := range bindings {
		fm.bindings[b.Field] = b
	}
	for f, col := range suggestions {
		fm.suggestions[f] = col
	}
	return fm
}

// Version returns the mapping table version the map was built from
func (m *FieldMap) Version() string {
	return m.version
}

// Column returns the source column for f and whether f resolved.
func (m *FieldMap) Column(f Field) (string, bool) {
	b, ok := m.bindings[f]
	return b.Column, ok
}

// Binding returns the full binding for f.
func (m *FieldMap) Binding(f Field) (FieldBinding, bool) {
	b, ok := m.bindings[f]
	return b, ok
}

// Has reports whether f resolved to a column.
func (m *FieldMap) Has(f Field) bool {
	_, ok := m.bindings[f]
	return ok
}

// Bindings returns resolved fields in canonical order.
func (m *FieldMap) Bindings() []FieldBinding {
	out := make([]FieldBinding, 0, len(m.bindings))
	for _, f := range Fields {
		if b, ok := m.bindings[f]; ok {
			out = append(out, b)
		}
	}
	return out
}

// Gaps returns the canonical fields that did not resolve, in canonical
// order. A gap is not an error; downstream stages skip what depends on it.
func (m *FieldMap) Gaps() []Field {
	var gaps []Field
	for _, f := range Fields {
		if _, ok := m.bindings[f]; !ok {
			gaps = append(gaps, f)
		}
	}
	return gaps
}

// PendingSuggestions returns heuristic matches that were not applied.
func (m *FieldMap) PendingSuggestions() map[Field]string {
	out := make(map[Field]string, len(m.suggestions))
	for f, col := range m.suggestions {
		out[f] = col
	}
	return out
}
