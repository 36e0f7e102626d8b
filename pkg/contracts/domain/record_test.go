package domain

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecord_Direction(t *testing.T) {
	tests := []struct {
		name  string
		delta Number
		want  DeltaDirection
	}{
		{"upgrade", NumberOf(1), DeltaImproving},
		{"downgrade", NumberOf(-2), DeltaDeclining},
		{"unchanged", NumberOf(0), DeltaStable},
		{"absent", Number{}, DeltaUnknown},
		{"invalid", InvalidNumber(), DeltaUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := Record{RatingDelta: tt.delta}
			assert.Equal(t, tt.want, r.Direction())
		})
	}
}

func TestRecord_Pillar(t *testing.T) {
	var r Record
	assert.False(t, r.Pillar(PillarSocial).IsPresent())

	r.Pillars = map[Pillar]Number{PillarSocial: NumberOf(8)}
	v, ok := r.Pillar(PillarSocial).Get()
	assert.True(t, ok)
	assert.Equal(t, 8.0, v)
	assert.False(t, r.HasDateOrRating())

	r.Rating = LabelOf("AA")
	assert.True(t, r.HasDateOrRating())
}

func TestValues_MarshalNullUnlessPresent(t *testing.T) {
	r := Record{
		Row:         1,
		Issuer:      LabelOf("Acme"),
		AsOf:        DateOf(time.Date(2023, 7, 31, 0, 0, 0, 0, time.UTC)),
		Rating:      Label{Value: "A+", State: Invalid},
		TotalScore:  NumberOf(6.5),
		RatingDelta: Number{},
	}

	data, err := json.Marshal(r)
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, "Acme", decoded["issuer"])
	assert.Equal(t, "2023-07-31", decoded["as_of_date"])
	assert.Nil(t, decoded["rating"])
	assert.Equal(t, 6.5, decoded["total_score"])
	assert.Nil(t, decoded["rating_delta"])
}

func TestDate_Buckets(t *testing.T) {
	d := DateOf(time.Date(2023, 7, 4, 0, 0, 0, 0, time.UTC))

	y, _ := d.Year()
	m, _ := d.Month()
	ym, ok := d.YearMonth()
	assert.True(t, ok)
	assert.Equal(t, "2023", y)
	assert.Equal(t, "07", m)
	assert.Equal(t, "2023-07", ym)

	_, ok = Date{State: Invalid}.YearMonth()
	assert.False(t, ok)
	assert.Equal(t, "invalid", Invalid.String())
}
