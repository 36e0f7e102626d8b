package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSummaryReport(t *testing.T) {
	at := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	r := NewSummaryReport(at, []ReportLine{
		{Key: "record_count", Value: "4"},
		{Key: "data_period", Value: "2023-01-31 to 2023-06-30"},
		{Key: "record_count", Value: "5"},
	})

	assert.Equal(t, at, r.GeneratedAt())
	assert.Equal(t, 2, r.Len(), "duplicate keys replace in place")

	v, ok := r.Get("record_count")
	assert.True(t, ok)
	assert.Equal(t, "5", v)
	assert.Equal(t, "record_count", r.Lines()[0].Key)

	_, ok = r.Get("missing")
	assert.False(t, ok)

	lines := r.Lines()
	lines[0].Value = "changed"
	assert.Equal(t, "5", r.Map()["record_count"])
}

func TestFieldMap(t *testing.T) {
	fm := NewFieldMap("v2", []FieldBinding{
		{Field: FieldRating, Column: "IVA_COMPANY_RATING", Origin: OriginSuggested},
		{Field: FieldName, Column: "ISSUER_NAME", Origin: OriginDeclared},
	}, map[Field]string{FieldCountry: "CNTRY"})

	assert.Equal(t, "v2", fm.Version())
	assert.Equal(t, []Field{FieldName, FieldRating}, []Field{fm.Bindings()[0].Field, fm.Bindings()[1].Field})

	col, ok := fm.Column(FieldName)
	assert.True(t, ok)
	assert.Equal(t, "ISSUER_NAME", col)
	assert.False(t, fm.Has(FieldCountry))
	assert.Len(t, fm.Gaps(), len(Fields)-2)
	assert.Equal(t, "CNTRY", fm.PendingSuggestions()[FieldCountry])
}

func TestTable_Records(t *testing.T) {
	tbl := &Table{
		Columns: []string{"a", "b"},
		Rows:    []map[string]string{{"a": "1", "b": "2"}, {"a": "3"}},
	}

	assert.Equal(t, 2, tbl.Len())
	assert.Equal(t, [][]string{{"a", "b"}, {"1", "2"}, {"3", ""}}, tbl.Records())
	assert.Equal(t, []string{"2", ""}, tbl.Column("b"))

	var empty *Table
	assert.Equal(t, 0, empty.Len())
}
