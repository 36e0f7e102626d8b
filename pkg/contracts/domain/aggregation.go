package domain

import (
	"fmt"
	"strings"
)

// Dimension is an axis records can be grouped along.
type Dimension string

const (
	DimYear      Dimension = "year"
	DimMonth     Dimension = "month"
	DimYearMonth Dimension = "year_month"
	DimIndustry  Dimension = "industry"
	DimCountry   Dimension = "country"
	DimRating    Dimension = "rating"
	DimIssuer    Dimension = "issuer"
)

// IsTime reports whether d is a calendar bucket.
func (d Dimension) IsTime() bool {
	return d == DimYear || d == DimMonth || d == DimYearMonth
}

// Metric is a numeric quantity aggregated per group.
type Metric string

const (
	MetricCount         Metric = "count"
	MetricTotalScore    Metric = "total_score"
	MetricPillarAverage Metric = "pillar_average"
	MetricEnvironmental Metric = "environmental"
	MetricSocial        Metric = "social"
	MetricGovernance    Metric = "governance"
	MetricRatingRank    Metric = "rating_rank"
	MetricRatingDelta   Metric = "rating_delta"
)

// Dimensions lists every dimension.
var Dimensions = []Dimension{DimYear, DimMonth, DimYearMonth, DimIndustry, DimCountry, DimRating, DimIssuer}

// Metrics lists every metric.
var Metrics = []Metric{
	MetricCount,
	MetricTotalScore,
	MetricPillarAverage,
	MetricEnvironmental,
	MetricSocial,
	MetricGovernance,
	MetricRatingRank,
	MetricRatingDelta,
}

// IsKnownDimension reports whether d is a supported dimension.
func IsKnownDimension(d Dimension) bool {
	for _, known := range Dimensions {
		if known == d {
			return true
		}
	}
	return false
}

// IsKnownMetric reports whether m is a supported metric.
func IsKnownMetric(m Metric) bool {
	for _, known := range Metrics {
		if known == m {
			return true
		}
	}
	return false
}

// PillarMetric maps a pillar to its metric.
func PillarMetric(p Pillar) Metric {
	return Metric(p)
}

// Order controls how a result set is sorted.
type Order string

const (
	// OrderChronological sorts ascending by group key. Used when the first
	// dimension is a calendar bucket.
	OrderChronological Order = "chronological"
	// OrderKey sorts ascending by group key for categorical groupings such
	// as crosstabs.
	OrderKey Order = "key"
	// OrderLeaderboard sorts descending by the primary metric, ties broken by
	// ascending group key.
	OrderLeaderboard Order = "leaderboard"
)

// Grouping is a requested aggregation.
type Grouping struct {
	Name       string      `json:"name" yaml:"name"`
	Dimensions []Dimension `json:"dimensions" yaml:"dimensions"`
	Metrics    []Metric    `json:"metrics" yaml:"metrics"`
	Primary    Metric      `json:"primary" yaml:"primary"`
	Order      Order       `json:"order" yaml:"order"`
	// Limit is the top-N projection applied for presentation; zero keeps all.
	Limit int `json:"limit,omitempty" yaml:"limit"`
}

// DefaultOrder is chronological when the first dimension is a calendar
// bucket and leaderboard otherwise.
func (g Grouping) DefaultOrder() Order {
	if g.Order != "" {
		return g.Order
	}
	if len(g.Dimensions) > 0 && g.Dimensions[0].IsTime() {
		return OrderChronological
	}
	return OrderLeaderboard
}

// ValidateGrouping checks that g names known dimensions, metrics and order.
func ValidateGrouping(g Grouping) error {
	if strings.TrimSpace(g.Name) == "" {
		return fmt.Errorf("grouping has no name")
	}
	if len(g.Dimensions) == 0 {
		return fmt.Errorf("grouping %q has no dimensions", g.Name)
	}
	for _, d := range g.Dimensions {
		if !IsKnownDimension(d) {
			return fmt.Errorf("grouping %q: unknown dimension %q", g.Name, d)
		}
	}
	for _, m := range g.Metrics {
		if !IsKnownMetric(m) {
			return fmt.Errorf("grouping %q: unknown metric %q", g.Name, m)
		}
	}
	if g.Primary != "" && !IsKnownMetric(g.Primary) {
		return fmt.Errorf("grouping %q: unknown primary metric %q", g.Name, g.Primary)
	}
	switch g.Order {
	case "", OrderChronological, OrderKey, OrderLeaderboard:
	default:
		return fmt.Errorf("grouping %q: unknown order %q", g.Name, g.Order)
	}
	if g.Limit < 0 {
		return fmt.Errorf("grouping %q: negative limit", g.Name)
	}
	return nil
}

// GroupKey holds one value per grouping dimension.
type GroupKey []string

// String joins the key values for display
func (k GroupKey) String() string {
	return strings.Join(k, " / ")
}

// Compare orders keys lexically, element by element.
func (k GroupKey) Compare(other GroupKey) int {
	for i := 0; i < len(k) && i < len(other); i++ {
		if c := strings.Compare(k[i], other[i]); c != 0 {
			return c
		}
	}
	switch {
	case len(k) < len(other):
		return -1
	case len(k) > len(other):
		return 1
	}
	return 0
}

// Stats summarises one metric over one group.
type Stats struct {
	N    int     `json:"n"`
	Mean float64 `json:"mean"`
	// Std is the sample standard deviation, absent below two observations.
	Std Number  `json:"std"`
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// AggregationResult is one group of a grouping.
type AggregationResult struct {
	Key   GroupKey `json:"key"`
	Count int      `json:"count"`
	// Share is Count over the records qualifying for the whole grouping.
	Share float64 `json:"share"`
	// ParentShare is Count over the records sharing the first key value.
	// It equals Share for single-dimension groupings.
	ParentShare float64           `json:"parent_share"`
	Metrics     map[Metric]*Stats `json:"metrics"`
}

// Stat returns the stats for m, nil when no record in the group had a value.
func (r AggregationResult) Stat(m Metric) *Stats {
	if r.Metrics == nil {
		return nil
	}
	return r.Metrics[m]
}

// PrimaryValue returns the value a leaderboard sorts by.
func (r AggregationResult) PrimaryValue(m Metric) (float64, bool) {
	if m == MetricCount || m == "" {
		return float64(r.Count), true
	}
	if s := r.Stat(m); s != nil {
		return s.Mean, true
	}
	return 0, false
}

// ResultSet is the ordered output of one grouping.
type ResultSet struct {
	Grouping Grouping `json:"grouping"`
	// Total is the number of records with a defined key for the grouping.
	Total int `json:"total"`
	// Excluded counts records whose key dimension was absent or invalid.
	Excluded int                 `json:"excluded"`
	Results  []AggregationResult `json:"results"`
}

// Top returns a new set holding the first n results. Totals and shares
// were computed before truncation and are carried over unchanged.
func (s *ResultSet) Top(n int) *ResultSet {
	out := &ResultSet{
		Grouping: s.Grouping,
		Total:    s.Total,
		Excluded: s.Excluded,
	}
	if n <= 0 || n > len(s.Results) {
		n = len(s.Results)
	}
	out.Results = make([]AggregationResult, n)
	copy(out.Results, s.Results[:n])
	return out
}

// Find returns the result for key.
func (s *ResultSet) Find(key ...string) (AggregationResult, bool) {
	for _, r := range s.Results {
		if r.Key.Compare(key) == 0 {
			return r, true
		}
	}
	return AggregationResult{}, false
}

// CountSum adds the per-group counts
func (s *ResultSet) CountSum() int {
	total := 0
	for _, r := range s.Results {
		total += r.Count
	}
	return total
}
