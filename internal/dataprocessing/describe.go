package dataprocessing

import (
	"math"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"

	"esgcli/pkg/contracts/domain"
)

// ColumnProfile is the descriptive statistics of one numeric source column.
type ColumnProfile struct {
	Column string        `json:"column"`
	Count  int           `json:"count"`
	Mean   float64       `json:"mean"`
	Median float64       `json:"median"`
	Std    domain.Number `json:"std"`
	Min    float64       `json:"min"`
	Q25    float64       `json:"q25"`
	Q50    float64       `json:"q50"`
	Q75    float64       `json:"q75"`
	Max    float64       `json:"max"`
}

var describeNaN = []string{"", "NA", "N/A", "n/a", "na", "NaN", "nan", "null", "NULL", "-"}

// Describe profiles every column of table whose non-missing cells are all
// numeric. Columns keep table order.
func Describe(table *domain.Table) ([]ColumnProfile, error) {
	if table.Len() == 0 {
		return nil, nil
	}

	df := dataframe.LoadRecords(table.Records(),
		dataframe.HasHeader(true),
		dataframe.DetectTypes(true),
		dataframe.NaNValues(describeNaN),
	)
	if df.Err != nil {
		return nil, df.Err
	}

	var out []ColumnProfile
	for _, name := range df.Names() {
		col := df.Col(name)
		if col.Type() != series.Float && col.Type() != series.Int {
			continue
		}
		vals := presentValues(col.Float())
		if len(vals) == 0 {
			continue
		}
		s := series.Floats(vals)
		p := ColumnProfile{
			Column: name,
			Count:  len(vals),
			Mean:   s.Mean(),
			Median: s.Median(),
			Min:    s.Min(),
			Q25:    s.Quantile(0.25),
			Q50:    s.Quantile(0.5),
			Q75:    s.Quantile(0.75),
			Max:    s.Max(),
		}
		if len(vals) >= 2 {
			p.Std = domain.NumberOf(s.StdDev())
		}
		out = append(out, p)
	}
	return out, nil
}

func presentValues(in []float64) []float64 {
	out := make([]float64, 0, len(in))
	for _, v := range in {
		if !math.IsNaN(v) {
			out = append(out, v)
		}
	}
	return out
}
