package dataprocessing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"esgcli/internal/shared/testutil"
	"esgcli/pkg/contracts/domain"
)

func TestEnrich_Fixture(t *testing.T) {
	records, _ := parseFixture(t)
	enriched := NewProcessor(nil, nil).Enrich(records)
	require.Len(t, enriched, 5)

	wantDelta := []domain.Number{
		domain.NumberOf(1),
		domain.NumberOf(1),
		domain.NumberOf(0),
		domain.NumberOf(-1),
		{},
	}
	for i, want := range wantDelta {
		assert.Equal(t, want, enriched[i].RatingDelta, "record %d", i)
	}
	assert.Equal(t, domain.NumberOf(9), enriched[0].RatingRank)
	assert.Equal(t, domain.NumberOf(8), enriched[0].PreviousRank)
	assert.InDelta(t, 6.5, enriched[0].PillarAverage.Value, 1e-9)
	assert.InDelta(t, 4.5, enriched[2].PillarAverage.Value, 1e-9)

	// input untouched
	assert.Equal(t, domain.Absent, records[0].RatingDelta.State)
}

func TestRatingDelta(t *testing.T) {
	p := NewProcessor(nil, nil)
	tests := []struct {
		name     string
		current  domain.Label
		previous domain.Label
		want     domain.Number
	}{
		{name: "upgrade", current: domain.LabelOf("AA"), previous: domain.LabelOf("BBB"), want: domain.NumberOf(2)},
		{name: "downgrade", current: domain.LabelOf("CCC"), previous: domain.LabelOf("B"), want: domain.NumberOf(-1)},
		{name: "unchanged", current: domain.LabelOf("a"), previous: domain.LabelOf(" A "), want: domain.NumberOf(0)},
		{name: "previous absent", current: domain.LabelOf("AA"), want: domain.Number{}},
		{name: "current absent", previous: domain.LabelOf("AA"), want: domain.Number{}},
		{name: "unmapped label", current: domain.LabelOf("AA+"), previous: domain.LabelOf("AA"), want: domain.InvalidNumber()},
		{name: "invalid label", current: domain.Label{Value: "ZZ", State: domain.Invalid}, previous: domain.LabelOf("AA"), want: domain.InvalidNumber()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := RatingDelta(p.Rank(tt.current), p.Rank(tt.previous))
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRank_CustomScale(t *testing.T) {
	scale, err := domain.NewRatingScale("leaders", []string{"Leader", "Average", "Laggard"})
	require.NoError(t, err)

	p := NewProcessor(scale, nil)
	assert.Equal(t, domain.NumberOf(3), p.Rank(domain.LabelOf("leader")))
	assert.Equal(t, domain.Invalid, p.Rank(domain.LabelOf("AAA")).State)
	assert.Equal(t, "leaders", p.Scale().Name())
}

func TestPillarAverage(t *testing.T) {
	tests := []struct {
		name    string
		pillars map[domain.Pillar]domain.Number
		want    domain.Number
	}{
		{
			name: "two present",
			pillars: map[domain.Pillar]domain.Number{
				domain.PillarEnvironmental: domain.NumberOf(6),
				domain.PillarSocial:        domain.NumberOf(8),
			},
			want: domain.NumberOf(7),
		},
		{
			name: "invalid ignored",
			pillars: map[domain.Pillar]domain.Number{
				domain.PillarEnvironmental: domain.NumberOf(3),
				domain.PillarGovernance:    domain.InvalidNumber(),
			},
			want: domain.NumberOf(3),
		},
		{name: "none present", pillars: nil, want: domain.Number{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, PillarAverage(tt.pillars))
		})
	}
}

func TestPillarCorrelation(t *testing.T) {
	records := []domain.Record{
		testutil.NewRecord("a").Pillar(domain.PillarEnvironmental, 1).Pillar(domain.PillarSocial, 2).Pillar(domain.PillarGovernance, 5).Build(),
		testutil.NewRecord("b").Pillar(domain.PillarEnvironmental, 2).Pillar(domain.PillarSocial, 4).Pillar(domain.PillarGovernance, 5).Build(),
		testutil.NewRecord("c").Pillar(domain.PillarEnvironmental, 3).Pillar(domain.PillarSocial, 6).Build(),
	}

	m := PillarCorrelation(records)

	es := m.Get(domain.PillarEnvironmental, domain.PillarSocial)
	require.True(t, es.IsPresent())
	assert.InDelta(t, 1.0, es.Value, 1e-9)
	assert.Equal(t, es, m.Get(domain.PillarSocial, domain.PillarEnvironmental))
	assert.InDelta(t, 1.0, m.Get(domain.PillarEnvironmental, domain.PillarEnvironmental).Value, 1e-9)

	// governance is constant over its two pairs
	assert.False(t, m.Get(domain.PillarEnvironmental, domain.PillarGovernance).IsPresent())
	assert.Equal(t, 2, m.Pairs[0][2])
	assert.False(t, m.Get("water", domain.PillarSocial).IsPresent())
}
