package testutil

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBufferedSlogHandler(t *testing.T) {
	logger, handler := NewTestLogger(t)

	logger.With("component", "schema").Warn("field unresolved", "field", "country")
	logger.Info("done", "rows", 3)

	require.Equal(t, 2, handler.Count())
	AssertLogContains(t, handler, slog.LevelWarn, "unresolved")
	assert.True(t, handler.ContainsAttr("component", "schema"))
	assert.True(t, handler.ContainsAttr("field", "country"))
	assert.True(t, handler.ContainsMessage("done"))
	assert.Len(t, handler.GetRecordsByLevel(slog.LevelInfo), 1)
	AssertNoErrors(t, handler)
}

func TestNewTable(t *testing.T) {
	table := NewTable([]string{"A", "B"}, [][]string{{"1", "2"}, {"3"}})

	assert.Equal(t, 2, table.Len())
	assert.Equal(t, []string{"1", "3"}, table.Column("A"))
	assert.Equal(t, "", table.Rows[1]["B"])
}

func TestRecordBuilder(t *testing.T) {
	rec := NewRecord("Acme").On("2023-01-31").Rated("aa", "a").In("Banks", "").Score(6.5).Build()

	assert.True(t, rec.Issuer.IsPresent())
	assert.Equal(t, "AA", rec.Rating.Value)
	assert.False(t, rec.Country.IsPresent())
	ym, ok := rec.AsOf.YearMonth()
	assert.True(t, ok)
	assert.Equal(t, "2023-01", ym)
}
