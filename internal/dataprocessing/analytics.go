package dataprocessing

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"esgcli/internal/config"
	apperrors "esgcli/internal/errors"
	"esgcli/internal/infrastructure"
	"esgcli/pkg/contracts/domain"
)

// Names of the standard analyses.
const (
	GroupingRatingDistribution   = "rating_distribution"
	GroupingRatingTrend          = "rating_trend"
	GroupingMonthlyScores        = "monthly_scores"
	GroupingYearlyScores         = "yearly_scores"
	GroupingIndustryScores       = "industry_scores"
	GroupingCountryScores        = "country_scores"
	GroupingIndustryRatingMatrix = "industry_rating_matrix"
	GroupingCompanyRatingChanges = "company_rating_changes"
)

var scoreMetrics = []domain.Metric{
	domain.MetricTotalScore,
	domain.MetricPillarAverage,
	domain.MetricEnvironmental,
	domain.MetricSocial,
	domain.MetricGovernance,
}

// StandardGroupings returns the built-in analyses followed by any custom
// groupings from cfg. Top-N limits come from cfg.
func StandardGroupings(cfg config.AnalysisConfig) []domain.Grouping {
	groupings := []domain.Grouping{
		{
			Name:       GroupingRatingDistribution,
			Dimensions: []domain.Dimension{domain.DimRating},
			Metrics:    []domain.Metric{domain.MetricCount},
			Primary:    domain.MetricCount,
			Order:      domain.OrderLeaderboard,
		},
		{
			Name:       GroupingRatingTrend,
			Dimensions: []domain.Dimension{domain.DimYearMonth, domain.DimRating},
			Metrics:    []domain.Metric{domain.MetricCount},
			Primary:    domain.MetricCount,
			Order:      domain.OrderChronological,
		},
		{
			Name:       GroupingMonthlyScores,
			Dimensions: []domain.Dimension{domain.DimYearMonth},
			Metrics:    scoreMetrics,
			Primary:    domain.MetricTotalScore,
			Order:      domain.OrderChronological,
		},
		{
			Name:       GroupingYearlyScores,
			Dimensions: []domain.Dimension{domain.DimYear},
			Metrics:    scoreMetrics,
			Primary:    domain.MetricTotalScore,
			Order:      domain.OrderChronological,
		},
		{
			Name:       GroupingIndustryScores,
			Dimensions: []domain.Dimension{domain.DimIndustry},
			Metrics:    scoreMetrics,
			Primary:    domain.MetricTotalScore,
			Order:      domain.OrderLeaderboard,
			Limit:      cfg.TopIndustries,
		},
		{
			Name:       GroupingCountryScores,
			Dimensions: []domain.Dimension{domain.DimCountry},
			Metrics:    scoreMetrics,
			Primary:    domain.MetricTotalScore,
			Order:      domain.OrderLeaderboard,
			Limit:      cfg.TopCountries,
		},
		{
			Name:       GroupingIndustryRatingMatrix,
			Dimensions: []domain.Dimension{domain.DimIndustry, domain.DimRating},
			Metrics:    []domain.Metric{domain.MetricCount},
			Primary:    domain.MetricCount,
			Order:      domain.OrderKey,
		},
		{
			Name:       GroupingCompanyRatingChanges,
			Dimensions: []domain.Dimension{domain.DimIssuer},
			Metrics:    []domain.Metric{domain.MetricRatingDelta, domain.MetricTotalScore},
			Primary:    domain.MetricRatingDelta,
			Order:      domain.OrderLeaderboard,
			Limit:      cfg.TopCompanies,
		},
	}
	return append(groupings, cfg.Groupings...)
}

// Engine groups enriched records and computes per-group statistics.
type Engine struct {
	logger *slog.Logger
	tracer trace.Tracer
}

// NewEngine creates an aggregation engine.
func NewEngine(logger *slog.Logger) *Engine {
	return &Engine{
		logger: infrastructure.WithComponent(logger, "aggregation"),
		tracer: otel.Tracer(infrastructure.MeterName),
	}
}

// AggregateAll runs every grouping concurrently over records, which must
// not be modified while it runs. Results come back in request order.
func (e *Engine) AggregateAll(ctx context.Context, records []domain.Record, groupings []domain.Grouping) ([]*domain.ResultSet, error) {
	for _, g := range groupings {
		if err := validGrouping(g); err != nil {
			return nil, err
		}
	}

	results := make([]*domain.ResultSet, len(groupings))
	eg, ctx := errgroup.WithContext(ctx)
	for i, g := range groupings {
		eg.Go(func() error {
			_, span := e.tracer.Start(ctx, "aggregate."+g.Name,
				trace.WithAttributes(
					attribute.String("grouping", g.Name),
					attribute.Int("records", len(records)),
				))
			defer span.End()

			if err := ctx.Err(); err != nil {
				return err
			}
			rs, err := e.Aggregate(records, g)
			if err != nil {
				span.RecordError(err)
				return err
			}
			span.SetAttributes(attribute.Int("groups", len(rs.Results)))
			results[i] = rs
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, fmt.Errorf("aggregation failed: %w", err)
	}
	return results, nil
}

func validGrouping(g domain.Grouping) error {
	if err := domain.ValidateGrouping(g); err != nil {
		return apperrors.NewAppValidationError("invalid grouping", err).WithContext("grouping", g.Name)
	}
	return nil
}

type bucket struct {
	key    domain.GroupKey
	count  int
	values map[domain.Metric][]float64
}

// Aggregate groups records by g's dimensions. Records whose key is not
// fully defined are counted in Excluded and join no group.
func (e *Engine) Aggregate(records []domain.Record, g domain.Grouping) (*domain.ResultSet, error) {
	if err := validGrouping(g); err != nil {
		return nil, err
	}
	g = normalizeGrouping(g)

	buckets := make(map[string]*bucket)
	parents := make(map[string]int)
	var order []string
	rs := &domain.ResultSet{Grouping: g}

	for i := range records {
		key, ok := groupKey(&records[i], g.Dimensions)
		if !ok {
			rs.Excluded++
			continue
		}
		rs.Total++
		id := strings.Join(key, "\x1f")
		b, exists := buckets[id]
		if !exists {
			b = &bucket{key: key, values: make(map[domain.Metric][]float64)}
			buckets[id] = b
			order = append(order, id)
		}
		b.count++
		parents[key[0]]++
		for _, m := range g.Metrics {
			if v, ok := MetricValue(&records[i], m); ok {
				b.values[m] = append(b.values[m], v)
			}
		}
	}

	rs.Results = make([]domain.AggregationResult, 0, len(buckets))
	for _, id := range order {
		b := buckets[id]
		res := domain.AggregationResult{
			Key:         b.key,
			Count:       b.count,
			Share:       float64(b.count) / float64(rs.Total),
			ParentShare: float64(b.count) / float64(parents[b.key[0]]),
			Metrics:     make(map[domain.Metric]*domain.Stats),
		}
		for _, m := range g.Metrics {
			if s := ComputeStats(b.values[m]); s != nil {
				res.Metrics[m] = s
			}
		}
		rs.Results = append(rs.Results, res)
	}

	sortResults(rs.Results, g)

	e.logger.Debug("Grouping aggregated",
		slog.String("grouping", g.Name),
		slog.Int("groups", len(rs.Results)),
		slog.Int("total", rs.Total),
		slog.Int("excluded", rs.Excluded))
	return rs, nil
}

// normalizeGrouping fills the order and primary metric a grouping left
// empty. Count is always aggregated.
func normalizeGrouping(g domain.Grouping) domain.Grouping {
	g.Order = g.DefaultOrder()
	var metrics []domain.Metric
	for _, m := range g.Metrics {
		if m != domain.MetricCount && !slices.Contains(metrics, m) {
			metrics = append(metrics, m)
		}
	}
	g.Metrics = metrics
	if g.Primary == "" {
		g.Primary = domain.MetricCount
		if len(metrics) > 0 {
			g.Primary = metrics[0]
		}
	}
	if g.Primary != domain.MetricCount && !slices.Contains(g.Metrics, g.Primary) {
		g.Metrics = append(g.Metrics, g.Primary)
	}
	return g
}

func sortResults(results []domain.AggregationResult, g domain.Grouping) {
	if g.Order == domain.OrderChronological || g.Order == domain.OrderKey {
		slices.SortStableFunc(results, func(a, b domain.AggregationResult) int {
			return a.Key.Compare(b.Key)
		})
		return
	}
	slices.SortStableFunc(results, func(a, b domain.AggregationResult) int {
		av, aok := a.PrimaryValue(g.Primary)
		bv, bok := b.PrimaryValue(g.Primary)
		switch {
		case aok && !bok:
			return -1
		case !aok && bok:
			return 1
		case aok && bok && av != bv:
			if av > bv {
				return -1
			}
			return 1
		}
		return a.Key.Compare(b.Key)
	})
}

// ComputeStats summarises values. It returns nil for an empty slice.
func ComputeStats(values []float64) *domain.Stats {
	if len(values) == 0 {
		return nil
	}
	s := &domain.Stats{
		N:    len(values),
		Mean: stat.Mean(values, nil),
		Min:  floats.Min(values),
		Max:  floats.Max(values),
	}
	if len(values) >= 2 {
		s.Std = domain.NumberOf(stat.StdDev(values, nil))
	}
	return s
}

func groupKey(r *domain.Record, dims []domain.Dimension) (domain.GroupKey, bool) {
	key := make(domain.GroupKey, len(dims))
	for i, d := range dims {
		v, ok := DimensionValue(r, d)
		if !ok {
			return nil, false
		}
		key[i] = v
	}
	return key, true
}

// DimensionValue returns the key value of r along d.
func DimensionValue(r *domain.Record, d domain.Dimension) (string, bool) {
	switch d {
	case domain.DimYear:
		return r.AsOf.Year()
	case domain.DimMonth:
		return r.AsOf.Month()
	case domain.DimYearMonth:
		return r.AsOf.YearMonth()
	case domain.DimIndustry:
		return labelValue(r.Industry)
	case domain.DimCountry:
		return labelValue(r.Country)
	case domain.DimRating:
		return labelValue(r.Rating)
	case domain.DimIssuer:
		return labelValue(r.Issuer)
	}
	return "", false
}

func labelValue(l domain.Label) (string, bool) {
	if !l.IsPresent() || l.Value == "" {
		return "", false
	}
	return l.Value, true
}

// MetricValue returns the value of m for r. Count has no per-record value.
func MetricValue(r *domain.Record, m domain.Metric) (float64, bool) {
	switch m {
	case domain.MetricTotalScore:
		return r.TotalScore.Get()
	case domain.MetricPillarAverage:
		return r.PillarAverage.Get()
	case domain.MetricEnvironmental:
		return r.Pillar(domain.PillarEnvironmental).Get()
	case domain.MetricSocial:
		return r.Pillar(domain.PillarSocial).Get()
	case domain.MetricGovernance:
		return r.Pillar(domain.PillarGovernance).Get()
	case domain.MetricRatingRank:
		return r.RatingRank.Get()
	case domain.MetricRatingDelta:
		return r.RatingDelta.Get()
	}
	return 0, false
}

// ProgressEntry is one issuer's score change between its earliest and
// latest observation.
type ProgressEntry struct {
	Issuer     string  `json:"issuer"`
	FirstDate  string  `json:"first_date"`
	LastDate   string  `json:"last_date"`
	FirstScore float64 `json:"first_score"`
	LastScore  float64 `json:"last_score"`
	Change     float64 `json:"change"`
}

// ScoreProgress ranks issuers by total score change from their earliest to
// their latest dated observation. Issuers with fewer than two dated,
// scored observations are skipped. n <= 0 keeps every issuer.
func ScoreProgress(records []domain.Record, n int) []ProgressEntry {
	type span struct {
		first, last *domain.Record
		obs         int
	}
	spans := make(map[string]*span)
	var issuers []string

	for i := range records {
		r := &records[i]
		issuer, ok := labelValue(r.Issuer)
		if !ok || !r.AsOf.IsPresent() || !r.TotalScore.IsPresent() {
			continue
		}
		s, exists := spans[issuer]
		if !exists {
			s = &span{first: r, last: r}
			spans[issuer] = s
			issuers = append(issuers, issuer)
		}
		s.obs++
		if r.AsOf.Value.Before(s.first.AsOf.Value) {
			s.first = r
		}
		if !r.AsOf.Value.Before(s.last.AsOf.Value) {
			s.last = r
		}
	}

	var out []ProgressEntry
	for _, issuer := range issuers {
		s := spans[issuer]
		if s.obs < 2 {
			continue
		}
		out = append(out, ProgressEntry{
			Issuer:     issuer,
			FirstDate:  s.first.AsOf.Value.Format("2006-01-02"),
			LastDate:   s.last.AsOf.Value.Format("2006-01-02"),
			FirstScore: s.first.TotalScore.Value,
			LastScore:  s.last.TotalScore.Value,
			Change:     s.last.TotalScore.Value - s.first.TotalScore.Value,
		})
	}

	slices.SortFunc(out, func(a, b ProgressEntry) int {
		switch {
		case a.Change > b.Change:
			return -1
		case a.Change < b.Change:
			return 1
		}
		return strings.Compare(a.Issuer, b.Issuer)
	})
	if n > 0 && n < len(out) {
		out = out[:n]
	}
	return out
}

// LatestMetrics are the metrics ranked over each issuer's latest
// observation.
var LatestMetrics = []domain.Metric{
	domain.MetricTotalScore,
	domain.MetricEnvironmental,
	domain.MetricSocial,
	domain.MetricGovernance,
}

// LatestScore is one issuer's value on its latest dated observation.
type LatestScore struct {
	Issuer string  `json:"issuer"`
	Date   string  `json:"date"`
	Value  float64 `json:"value"`
}

// LatestRanking ranks issuers by one metric of their latest observation.
type LatestRanking struct {
	Metric  domain.Metric `json:"metric"`
	Entries []LatestScore `json:"entries"`
}

// LatestScores keeps each issuer's latest dated record, a later row winning
// a tie on date, and ranks issuers by every metric in LatestMetrics,
// descending with ties by issuer. Issuers whose latest record lacks the
// metric are left out of that ranking. n <= 0 keeps every issuer.
func LatestScores(records []domain.Record, n int) []LatestRanking {
	latest := make(map[string]*domain.Record)
	var issuers []string
	for i := range records {
		r := &records[i]
		issuer, ok := labelValue(r.Issuer)
		if !ok || !r.AsOf.IsPresent() {
			continue
		}
		cur, exists := latest[issuer]
		if !exists {
			issuers = append(issuers, issuer)
		}
		if !exists || !r.AsOf.Value.Before(cur.AsOf.Value) {
			latest[issuer] = r
		}
	}

	out := make([]LatestRanking, 0, len(LatestMetrics))
	for _, m := range LatestMetrics {
		ranking := LatestRanking{Metric: m}
		for _, issuer := range issuers {
			r := latest[issuer]
			if v, ok := MetricValue(r, m); ok {
				ranking.Entries = append(ranking.Entries, LatestScore{
					Issuer: issuer,
					Date:   r.AsOf.Value.Format("2006-01-02"),
					Value:  v,
				})
			}
		}
		slices.SortFunc(ranking.Entries, func(a, b LatestScore) int {
			switch {
			case a.Value > b.Value:
				return -1
			case a.Value < b.Value:
				return 1
			}
			return strings.Compare(a.Issuer, b.Issuer)
		})
		if n > 0 && n < len(ranking.Entries) {
			ranking.Entries = ranking.Entries[:n]
		}
		out = append(out, ranking)
	}
	return out
}

// DeltaBucket counts records sharing one rating delta.
type DeltaBucket struct {
	Delta int `json:"delta"`
	Count int `json:"count"`
}

// DeltaDistribution counts records per defined rating delta, ascending by
// delta.
func DeltaDistribution(records []domain.Record) []DeltaBucket {
	counts := make(map[int]int)
	for i := range records {
		if d, ok := records[i].RatingDelta.Get(); ok {
			counts[int(d)]++
		}
	}
	out := make([]DeltaBucket, 0, len(counts))
	for d, c := range counts {
		out = append(out, DeltaBucket{Delta: d, Count: c})
	}
	slices.SortFunc(out, func(a, b DeltaBucket) int { return a.Delta - b.Delta })
	return out
}
