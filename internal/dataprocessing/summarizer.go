package dataprocessing

import (
	"context"
	"log/slog"
	"math"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"
	"gonum.org/v1/gonum/stat"

	"esgcli/internal/infrastructure"
	"esgcli/pkg/contracts/domain"
)

// Summary report keys, in report order.
const (
	KeyRecordCount          = "record_count"
	KeyDroppedRecords       = "dropped_records"
	KeyInvalidValues        = "invalid_values"
	KeyUnresolvedFields     = "unresolved_fields"
	KeyUnresolvedFieldCount = "unresolved_field_count"
	KeyDataPeriod           = "data_period"
	KeyCompanyCount         = "company_count"
	KeyIndustryCount        = "industry_count"
	KeyCountryCount         = "country_count"
	KeyAverageTotalScore    = "average_total_score"
	KeyMostCommonRating     = "most_common_rating"
	KeyImprovingCount       = "improving_count"
	KeyDecliningCount       = "declining_count"
	KeyStableCount          = "stable_count"
	KeyRatingChangeUnknown  = "rating_change_unknown"
	KeyImprovingPct         = "improving_pct"
	KeyDecliningPct         = "declining_pct"
	KeyStablePct            = "stable_pct"
	KeyOverallTrendScore    = "overall_trend_score"
	KeyOverallTrend         = "overall_trend"
	KeyBestIndustry         = "best_industry"
	KeyBestIndustryScore    = "best_industry_score"
	KeyWorstIndustry        = "worst_industry"
	KeyWorstIndustryScore   = "worst_industry_score"
	KeyBestCountry          = "best_country"
	KeyBestCountryScore     = "best_country_score"
	KeyWorstCountry         = "worst_country"
	KeyWorstCountryScore    = "worst_country_score"
	KeyBestPillar           = "best_pillar"
	KeyBestPillarScore      = "best_pillar_score"
	KeyWorstPillar          = "worst_pillar"
	KeyWorstPillarScore     = "worst_pillar_score"
)

// NotAvailable is reported for values that cannot be computed.
const NotAvailable = "n/a"

// SummarizerConfig holds configuration options for the Summarizer.
type SummarizerConfig struct {
	DateFormat string // Format for the data period bounds
	Now        func() time.Time
}

// DefaultSummarizerConfig returns the default configuration
func DefaultSummarizerConfig() SummarizerConfig {
	return SummarizerConfig{
		DateFormat: "2006-01-02",
		Now:        time.Now,
	}
}

// SummaryMeta carries the run facts the records alone cannot tell.
type SummaryMeta struct {
	Dropped       int
	InvalidValues int
	Unresolved    []domain.Field
	GeneratedAt   time.Time
}

// Summarizer reduces records and aggregation results into a flat report.
type Summarizer struct {
	logger *slog.Logger
	config SummarizerConfig
}

// NewSummarizer creates a summarizer.
func NewSummarizer(logger *slog.Logger, config SummarizerConfig) *Summarizer {
	if config.DateFormat == "" {
		config.DateFormat = "2006-01-02"
	}
	if config.Now == nil {
		config.Now = time.Now
	}
	return &Summarizer{
		logger: infrastructure.WithComponent(logger, "summarizer"),
		config: config,
	}
}

// Summarize builds the summary report. Best and worst groups are taken
// from the complete, untruncated results.
func (s *Summarizer) Summarize(ctx context.Context, records []domain.Record, results []*domain.ResultSet, meta SummaryMeta) *domain.SummaryReport {
	var lines []domain.ReportLine
	add := func(key, value string) {
		lines = append(lines, domain.ReportLine{Key: key, Value: value})
	}

	add(KeyRecordCount, strconv.Itoa(len(records)))
	add(KeyDroppedRecords, strconv.Itoa(meta.Dropped))
	add(KeyInvalidValues, strconv.Itoa(meta.InvalidValues))
	add(KeyUnresolvedFields, joinFields(meta.Unresolved))
	add(KeyUnresolvedFieldCount, strconv.Itoa(len(meta.Unresolved)))
	add(KeyDataPeriod, s.dataPeriod(records))

	add(KeyCompanyCount, strconv.Itoa(distinctLabels(records, func(r domain.Record) domain.Label { return r.Issuer })))
	add(KeyIndustryCount, strconv.Itoa(distinctLabels(records, func(r domain.Record) domain.Label { return r.Industry })))
	add(KeyCountryCount, strconv.Itoa(distinctLabels(records, func(r domain.Record) domain.Label { return r.Country })))

	scores := lo.FilterMap(records, func(r domain.Record, _ int) (float64, bool) { return r.TotalScore.Get() })
	add(KeyAverageTotalScore, formatMean(scores))
	add(KeyMostCommonRating, mostCommonRating(records))

	trend := PartitionTrend(records)
	add(KeyImprovingCount, strconv.Itoa(trend.Improving))
	add(KeyDecliningCount, strconv.Itoa(trend.Declining))
	add(KeyStableCount, strconv.Itoa(trend.Stable))
	add(KeyRatingChangeUnknown, strconv.Itoa(trend.Unknown))
	add(KeyImprovingPct, FormatPercent(trend.Improving, trend.Defined()))
	add(KeyDecliningPct, FormatPercent(trend.Declining, trend.Defined()))
	add(KeyStablePct, FormatPercent(trend.Stable, trend.Defined()))
	add(KeyOverallTrendScore, formatMean(trend.deltas))
	add(KeyOverallTrend, trend.Label())

	industry := bestAndWorst(findResultSet(results, GroupingIndustryScores))
	add(KeyBestIndustry, industry.best)
	add(KeyBestIndustryScore, industry.bestScore)
	add(KeyWorstIndustry, industry.worst)
	add(KeyWorstIndustryScore, industry.worstScore)

	country := bestAndWorst(findResultSet(results, GroupingCountryScores))
	add(KeyBestCountry, country.best)
	add(KeyBestCountryScore, country.bestScore)
	add(KeyWorstCountry, country.worst)
	add(KeyWorstCountryScore, country.worstScore)

	pillar := pillarExtremes(records)
	add(KeyBestPillar, pillar.best)
	add(KeyBestPillarScore, pillar.bestScore)
	add(KeyWorstPillar, pillar.worst)
	add(KeyWorstPillarScore, pillar.worstScore)

	generatedAt := meta.GeneratedAt
	if generatedAt.IsZero() {
		generatedAt = s.config.Now()
	}
	report := domain.NewSummaryReport(generatedAt, lines)

	s.logger.InfoContext(ctx, "Summary report built",
		slog.Int("lines", report.Len()),
		slog.Int("record_count", len(records)),
		slog.String("overall_trend", trend.Label()))
	return report
}

// TrendPartition splits records by the sign of their rating delta.
type TrendPartition struct {
	Improving int
	Declining int
	Stable    int
	Unknown   int
	deltas    []float64
}

// PartitionTrend classifies every record. Records without a defined delta
// are Unknown and in none of the other three.
func PartitionTrend(records []domain.Record) TrendPartition {
	var t TrendPartition
	for i := range records {
		switch records[i].Direction() {
		case domain.DeltaImproving:
			t.Improving++
		case domain.DeltaDeclining:
			t.Declining++
		case domain.DeltaStable:
			t.Stable++
		default:
			t.Unknown++
			continue
		}
		t.deltas = append(t.deltas, records[i].RatingDelta.Value)
	}
	return t
}

// Defined is the number of records with a defined delta
func (t TrendPartition) Defined() int {
	return t.Improving + t.Declining + t.Stable
}

// Label names the direction of the mean delta.
func (t TrendPartition) Label() string {
	if len(t.deltas) == 0 {
		return NotAvailable
	}
	switch mean := stat.Mean(t.deltas, nil); {
	case mean > 0:
		return string(domain.DeltaImproving)
	case mean < 0:
		return string(domain.DeltaDeclining)
	default:
		return string(domain.DeltaStable)
	}
}

// FormatScore renders v with two decimals, rounding half away from zero.
// A non-finite v yields n/a.
func FormatScore(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return NotAvailable
	}
	return decimal.NewFromFloat(v).StringFixed(2)
}

// FormatPercent renders part/whole as a one-decimal percentage. A zero
// denominator yields n/a.
func FormatPercent(part, whole int) string {
	if whole == 0 {
		return NotAvailable
	}
	pct := decimal.NewFromInt(int64(part)).Mul(decimal.NewFromInt(100)).Div(decimal.NewFromInt(int64(whole)))
	return pct.StringFixed(1) + "%"
}

func formatMean(vals []float64) string {
	if len(vals) == 0 {
		return NotAvailable
	}
	return FormatScore(stat.Mean(vals, nil))
}

func joinFields(fields []domain.Field) string {
	if len(fields) == 0 {
		return "none"
	}
	return strings.Join(lo.Map(fields, func(f domain.Field, _ int) string { return string(f) }), ",")
}

func (s *Summarizer) dataPeriod(records []domain.Record) string {
	dates := lo.FilterMap(records, func(r domain.Record, _ int) (time.Time, bool) {
		return r.AsOf.Value, r.AsOf.IsPresent()
	})
	if len(dates) == 0 {
		return NotAvailable
	}
	first := lo.MinBy(dates, func(a, b time.Time) bool { return a.Before(b) })
	last := lo.MaxBy(dates, func(a, b time.Time) bool { return a.After(b) })
	return first.Format(s.config.DateFormat) + " to " + last.Format(s.config.DateFormat)
}

func distinctLabels(records []domain.Record, get func(domain.Record) domain.Label) int {
	values := lo.FilterMap(records, func(r domain.Record, _ int) (string, bool) {
		return labelValue(get(r))
	})
	return len(lo.Uniq(values))
}

// mostCommonRating picks the most frequent rating, ties alphabetical.
func mostCommonRating(records []domain.Record) string {
	ratings := lo.FilterMap(records, func(r domain.Record, _ int) (string, bool) {
		return labelValue(r.Rating)
	})
	if len(ratings) == 0 {
		return NotAvailable
	}
	counts := lo.CountValues(ratings)
	labels := lo.Keys(counts)
	slices.Sort(labels)

	best := labels[0]
	for _, l := range labels[1:] {
		if counts[l] > counts[best] {
			best = l
		}
	}
	return best
}

type extremes struct {
	best, bestScore, worst, worstScore string
}

func unavailable() extremes {
	return extremes{NotAvailable, NotAvailable, NotAvailable, NotAvailable}
}

type scored struct {
	name  string
	value float64
}

// pickExtremes returns max and min by value, ties by name ascending.
func pickExtremes(items []scored) extremes {
	if len(items) == 0 {
		return unavailable()
	}
	slices.SortFunc(items, func(a, b scored) int { return strings.Compare(a.name, b.name) })
	best, worst := items[0], items[0]
	for _, it := range items[1:] {
		if it.value > best.value {
			best = it
		}
		if it.value < worst.value {
			worst = it
		}
	}
	return extremes{
		best:       best.name,
		bestScore:  FormatScore(best.value),
		worst:      worst.name,
		worstScore: FormatScore(worst.value),
	}
}

// bestAndWorst ranks groups by mean total score, falling back to the
// pillar average when no group has a total score.
func bestAndWorst(rs *domain.ResultSet) extremes {
	if rs == nil {
		return unavailable()
	}
	for _, m := range []domain.Metric{domain.MetricTotalScore, domain.MetricPillarAverage} {
		var items []scored
		for _, r := range rs.Results {
			if st := r.Stat(m); st != nil {
				items = append(items, scored{name: r.Key.String(), value: st.Mean})
			}
		}
		if len(items) > 0 {
			return pickExtremes(items)
		}
	}
	return unavailable()
}

func pillarExtremes(records []domain.Record) extremes {
	var items []scored
	for _, p := range domain.Pillars {
		vals := lo.FilterMap(records, func(r domain.Record, _ int) (float64, bool) {
			return r.Pillar(p).Get()
		})
		if len(vals) > 0 {
			items = append(items, scored{name: string(p), value: stat.Mean(vals, nil)})
		}
	}
	return pickExtremes(items)
}

func findResultSet(results []*domain.ResultSet, name string) *domain.ResultSet {
	rs, ok := lo.Find(results, func(rs *domain.ResultSet) bool {
		return rs != nil && rs.Grouping.Name == name
	})
	if !ok {
		return nil
	}
	return rs
}
