package dataprocessing

import (
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"esgcli/internal/schema"
	"esgcli/internal/shared/testutil"
	"esgcli/pkg/contracts/domain"
)

// parseFixture parses the shared vendor fixture with the heuristic mapping.
func parseFixture(t *testing.T) ([]domain.Record, ParseStats) {
	t.Helper()
	table := testutil.NewTable(testutil.RatingsHeader, testutil.RatingsRows)
	fm := schema.NewResolver(nil, schema.Options{AcceptSuggestions: true}, nil).Resolve(table.Columns)
	return NewParser(nil, nil).Parse(table, fm)
}

func TestParse_Fixture(t *testing.T) {
	records, stats := parseFixture(t)

	require.Len(t, records, 5)
	assert.Equal(t, 6, stats.Rows)
	assert.Equal(t, 5, stats.Records)
	assert.Equal(t, 1, stats.Dropped)
	assert.Equal(t, 0, stats.InvalidValues)

	acme := records[0]
	assert.Equal(t, 1, acme.Row)
	assert.Equal(t, domain.LabelOf("Acme Corp"), acme.Issuer)
	assert.Equal(t, "2023-01", mustYearMonth(t, acme.AsOf))
	assert.Equal(t, domain.LabelOf("AA"), acme.Rating)
	assert.Equal(t, domain.LabelOf("A"), acme.PreviousRating)
	assert.Equal(t, domain.LabelOf("Banks"), acme.Industry)
	assert.Equal(t, domain.NumberOf(6.0), acme.Pillar(domain.PillarEnvironmental))
	assert.Equal(t, domain.NumberOf(6.5), acme.TotalScore)

	borealis := records[3]
	assert.Equal(t, domain.Absent, borealis.Pillar(domain.PillarSocial).State)
	assert.Equal(t, domain.Absent, records[2].Pillar(domain.PillarGovernance).State)
	assert.Equal(t, domain.Absent, records[4].PreviousRating.State)
}

func TestParse_InvalidCellsAndDrops(t *testing.T) {
	header := []string{"company", "date", "rating", "environmental_score"}
	rows := [][]string{
		{"Acme", "2023-01-31", "aa ", "abc"},
		{"Beta", "someday", "ZZ", "5"},
		{"Gamma", "", "", "6"},
		{"Delta", "", "BB", "1,234.5"},
	}
	table := testutil.NewTable(header, rows)
	fm := schema.NewResolver(nil, schema.Options{AcceptSuggestions: true}, nil).Resolve(header)

	logger, handler := testutil.NewTestLogger(t)
	records, stats := NewParser(nil, logger).Parse(table, fm)

	require.Len(t, records, 2)
	assert.Equal(t, domain.LabelOf("AA"), records[0].Rating)
	assert.Equal(t, domain.Invalid, records[0].Pillar(domain.PillarEnvironmental).State)
	assert.Equal(t, domain.NumberOf(1234.5), records[1].Pillar(domain.PillarEnvironmental))

	// Beta has an invalid date and an off-scale rating: neither is present.
	assert.Equal(t, 2, stats.Dropped)
	assert.Equal(t, 3, stats.InvalidValues)
	assert.Equal(t, 1, stats.InvalidFields[domain.FieldRating])
	assert.Equal(t, 1, stats.InvalidFields[domain.FieldDate])
	testutil.AssertLogContains(t, handler, slog.LevelWarn, "Records dropped")
}

func TestParseNumber(t *testing.T) {
	tests := []struct {
		raw   string
		want  float64
		state domain.ValueState
	}{
		{raw: "6.5", want: 6.5, state: domain.Present},
		{raw: " 7 ", want: 7, state: domain.Present},
		{raw: "1,250", want: 1250, state: domain.Present},
		{raw: "-2.5", want: -2.5, state: domain.Present},
		{raw: "", state: domain.Absent},
		{raw: "NA", state: domain.Absent},
		{raw: "n/a", state: domain.Absent},
		{raw: "NaN", state: domain.Absent},
		{raw: "null", state: domain.Absent},
		{raw: "-", state: domain.Absent},
		{raw: "high", state: domain.Invalid},
		{raw: "inf", state: domain.Invalid},
		{raw: "+Inf", state: domain.Invalid},
		{raw: "-Infinity", state: domain.Invalid},
		{raw: "1e400", state: domain.Invalid},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got := ParseNumber(tt.raw)
			assert.Equal(t, tt.state, got.State)
			if tt.state == domain.Present {
				assert.Equal(t, tt.want, got.Value)
			}
		})
	}
}

func TestParseDate(t *testing.T) {
	want := time.Date(2023, 7, 14, 0, 0, 0, 0, time.UTC)
	tests := []struct {
		raw  string
		want time.Time
	}{
		{raw: "2023-07-14", want: want},
		{raw: "2023/07/14", want: want},
		{raw: "07/14/2023", want: want},
		{raw: "7/14/2023", want: want},
		{raw: "20230714", want: want},
		{raw: "2023-07-14 09:30:00", want: want.Add(9*time.Hour + 30*time.Minute)},
		{raw: "2023-07", want: time.Date(2023, 7, 1, 0, 0, 0, 0, time.UTC)},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got := ParseDate(tt.raw)
			require.True(t, got.IsPresent())
			assert.True(t, tt.want.Equal(got.Value), "got %s", got.Value)
		})
	}

	assert.Equal(t, domain.Absent, ParseDate(" ").State)
	assert.Equal(t, domain.Invalid, ParseDate("Q3 2023").State)
}

func TestParseLabel(t *testing.T) {
	assert.Equal(t, domain.LabelOf("Banks"), ParseLabel("  Banks "))
	assert.False(t, ParseLabel("N/A").IsPresent())
}

func mustYearMonth(t *testing.T, d domain.Date) string {
	t.Helper()
	ym, ok := d.YearMonth()
	require.True(t, ok)
	return ym
}
