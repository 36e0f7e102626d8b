package dataprocessing

import (
	"log/slog"
	"math"

	"gonum.org/v1/gonum/stat"

	"esgcli/internal/infrastructure"
	"esgcli/pkg/contracts/domain"
)

// Processor fills the derived per-record metrics.
type Processor struct {
	scale  *domain.RatingScale
	logger *slog.Logger
}

// NewProcessor creates a processor for scale. A nil scale uses the default
// MSCI scale.
func NewProcessor(scale *domain.RatingScale, logger *slog.Logger) *Processor {
	if scale == nil {
		scale = domain.DefaultRatingScale()
	}
	return &Processor{
		scale:  scale,
		logger: infrastructure.WithComponent(logger, "processor"),
	}
}

// Scale returns the rating scale ranks are taken from
func (p *Processor) Scale() *domain.RatingScale {
	return p.scale
}

// Enrich returns copies of records with ranks, rating delta and pillar
// average filled. The input slice is not modified.
func (p *Processor) Enrich(records []domain.Record) []domain.Record {
	out := make([]domain.Record, len(records))
	for i, rec := range records {
		out[i] = p.EnrichRecord(rec)
	}

	var defined int
	for i := range out {
		if out[i].RatingDelta.IsPresent() {
			defined++
		}
	}
	p.logger.Info("Records enriched",
		slog.Int("records", len(out)),
		slog.Int("defined_deltas", defined))
	return out
}

// EnrichRecord computes the derived fields of one record.
func (p *Processor) EnrichRecord(rec domain.Record) domain.Record {
	rec.RatingRank = p.Rank(rec.Rating)
	rec.PreviousRank = p.Rank(rec.PreviousRating)
	rec.RatingDelta = RatingDelta(rec.RatingRank, rec.PreviousRank)
	rec.PillarAverage = PillarAverage(rec.Pillars)
	return rec
}

// Rank maps a rating label onto the scale. Present labels missing from the
// scale yield an invalid rank.
func (p *Processor) Rank(label domain.Label) domain.Number {
	switch label.State {
	case domain.Absent:
		return domain.Number{}
	case domain.Invalid:
		return domain.InvalidNumber()
	}
	r, ok := p.scale.Rank(label.Value)
	if !ok {
		return domain.InvalidNumber()
	}
	return domain.NumberOf(float64(r))
}

// RatingDelta is current minus previous rank. It is absent when either side
// is absent and invalid when either side is unmapped.
func RatingDelta(current, previous domain.Number) domain.Number {
	if current.State == domain.Absent || previous.State == domain.Absent {
		return domain.Number{}
	}
	if current.State == domain.Invalid || previous.State == domain.Invalid {
		return domain.InvalidNumber()
	}
	return domain.NumberOf(current.Value - previous.Value)
}

// PillarAverage is the mean of the present pillar scores, absent when no
// pillar is present.
func PillarAverage(pillars map[domain.Pillar]domain.Number) domain.Number {
	var vals []float64
	for _, p := range domain.Pillars {
		if v, ok := pillars[p].Get(); ok {
			vals = append(vals, v)
		}
	}
	if len(vals) == 0 {
		return domain.Number{}
	}
	return domain.NumberOf(stat.Mean(vals, nil))
}

// CorrelationMatrix holds pairwise Pearson correlations between pillars.
type CorrelationMatrix struct {
	Pillars []domain.Pillar   `json:"pillars"`
	Values  [][]domain.Number `json:"values"`
	Pairs   [][]int           `json:"pairs"`
}

// Get returns the correlation between a and b.
func (m *CorrelationMatrix) Get(a, b domain.Pillar) domain.Number {
	i, j := m.index(a), m.index(b)
	if i < 0 || j < 0 {
		return domain.Number{}
	}
	return m.Values[i][j]
}

func (m *CorrelationMatrix) index(p domain.Pillar) int {
	for i, q := range m.Pillars {
		if q == p {
			return i
		}
	}
	return -1
}

// PillarCorrelation correlates every pair of pillars over the records where
// both are present. An entry is absent with fewer than two pairs or when
// either side has zero variance.
func PillarCorrelation(records []domain.Record) *CorrelationMatrix {
	n := len(domain.Pillars)
	m := &CorrelationMatrix{
		Pillars: append([]domain.Pillar(nil), domain.Pillars...),
		Values:  make([][]domain.Number, n),
		Pairs:   make([][]int, n),
	}
	for i := range m.Values {
		m.Values[i] = make([]domain.Number, n)
		m.Pairs[i] = make([]int, n)
	}

	for i, a := range domain.Pillars {
		for j := i; j < n; j++ {
			b := domain.Pillars[j]
			var xs, ys []float64
			for k := range records {
				x, okx := records[k].Pillar(a).Get()
				y, oky := records[k].Pillar(b).Get()
				if okx && oky {
					xs = append(xs, x)
					ys = append(ys, y)
				}
			}
			m.Pairs[i][j], m.Pairs[j][i] = len(xs), len(xs)
			if len(xs) < 2 {
				continue
			}
			r := stat.Correlation(xs, ys, nil)
			if math.IsNaN(r) || math.IsInf(r, 0) {
				continue
			}
			m.Values[i][j] = domain.NumberOf(r)
			m.Values[j][i] = domain.NumberOf(r)
		}
	}
	return m
}
