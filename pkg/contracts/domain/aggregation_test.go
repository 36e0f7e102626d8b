package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGroupKey_Compare(t *testing.T) {
	tests := []struct {
		name string
		a, b GroupKey
		want int
	}{
		{"equal", GroupKey{"2023", "AA"}, GroupKey{"2023", "AA"}, 0},
		{"first element decides", GroupKey{"2022", "B"}, GroupKey{"2023", "A"}, -1},
		{"second element decides", GroupKey{"2023", "BB"}, GroupKey{"2023", "A"}, 1},
		{"prefix sorts first", GroupKey{"2023"}, GroupKey{"2023", "A"}, -1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.a.Compare(tt.b))
			assert.Equal(t, -tt.want, tt.b.Compare(tt.a))
		})
	}
	assert.Equal(t, "2023 / AA", GroupKey{"2023", "AA"}.String())
}

func sampleResultSet() *ResultSet {
	return &ResultSet{
		Grouping: Grouping{Name: "rating_distribution", Dimensions: []Dimension{DimRating}, Limit: 2},
		Total:    4,
		Results: []AggregationResult{
			{Key: GroupKey{"AA"}, Count: 2, Share: 0.5, ParentShare: 0.5},
			{Key: GroupKey{"AAA"}, Count: 1, Share: 0.25, ParentShare: 0.25},
			{Key: GroupKey{"BBB"}, Count: 1, Share: 0.25, ParentShare: 0.25},
		},
	}
}

func TestResultSet_Top(t *testing.T) {
	rs := sampleResultSet()

	top := rs.Top(2)
	require.Len(t, top.Results, 2)
	assert.Equal(t, 4, top.Total, "totals survive truncation")
	assert.Equal(t, 0.25, top.Results[1].Share)

	again := top.Top(2)
	assert.Equal(t, top.Results, again.Results, "top-n is idempotent")

	assert.Len(t, rs.Top(0).Results, 3)
	assert.Len(t, rs.Top(10).Results, 3)
	assert.Len(t, rs.Results, 3, "source is not modified")
}

func TestResultSet_FindAndCountSum(t *testing.T) {
	rs := sampleResultSet()

	r, ok := rs.Find("AAA")
	require.True(t, ok)
	assert.Equal(t, 1, r.Count)

	_, ok = rs.Find("D")
	assert.False(t, ok)

	assert.Equal(t, rs.Total, rs.CountSum())
}

func TestAggregationResult_PrimaryValue(t *testing.T) {
	r := AggregationResult{
		Count:   3,
		Metrics: map[Metric]*Stats{MetricTotalScore: {N: 3, Mean: 6.5}},
	}

	v, ok := r.PrimaryValue(MetricCount)
	assert.True(t, ok)
	assert.Equal(t, 3.0, v)

	v, ok = r.PrimaryValue(MetricTotalScore)
	assert.True(t, ok)
	assert.Equal(t, 6.5, v)

	_, ok = r.PrimaryValue(MetricSocial)
	assert.False(t, ok)
	assert.Nil(t, r.Stat(MetricSocial))
}

func TestValidateGrouping(t *testing.T) {
	valid := Grouping{Name: "g", Dimensions: []Dimension{DimIndustry}, Metrics: []Metric{MetricTotalScore}}

	tests := []struct {
		name    string
		mutate  func(g *Grouping)
		wantErr bool
	}{
		{"valid", func(g *Grouping) {}, false},
		{"key order", func(g *Grouping) { g.Order = OrderKey }, false},
		{"no name", func(g *Grouping) { g.Name = " " }, true},
		{"no dimensions", func(g *Grouping) { g.Dimensions = nil }, true},
		{"unknown dimension", func(g *Grouping) { g.Dimensions = []Dimension{"sector"} }, true},
		{"unknown metric", func(g *Grouping) { g.Metrics = []Metric{"alpha"} }, true},
		{"unknown primary", func(g *Grouping) { g.Primary = "alpha" }, true},
		{"unknown order", func(g *Grouping) { g.Order = "random" }, true},
		{"negative limit", func(g *Grouping) { g.Limit = -1 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := valid
			tt.mutate(&g)
			err := ValidateGrouping(g)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestGrouping_DefaultOrder(t *testing.T) {
	assert.Equal(t, OrderChronological, Grouping{Dimensions: []Dimension{DimYearMonth, DimRating}}.DefaultOrder())
	assert.Equal(t, OrderLeaderboard, Grouping{Dimensions: []Dimension{DimIndustry}}.DefaultOrder())
	assert.Equal(t, OrderChronological, Grouping{Dimensions: []Dimension{DimIndustry}, Order: OrderChronological}.DefaultOrder())
	assert.Equal(t, OrderKey, Grouping{Dimensions: []Dimension{DimIndustry, DimRating}, Order: OrderKey}.DefaultOrder())
}
