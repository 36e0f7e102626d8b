package exporter

import (
	"strings"
	"time"

	"esgcli/internal/dataprocessing"
	"esgcli/pkg/contracts/domain"
)

// Report is everything a run hands to the export sinks.
type Report struct {
	RunID         string
	Source        string
	GeneratedAt   time.Time
	Scale         string
	SchemaVersion string
	Bindings      []domain.FieldBinding
	Gaps          []domain.Field

	Summary     *domain.SummaryReport
	Results     []*domain.ResultSet
	Progress    []dataprocessing.ProgressEntry
	Latest      []dataprocessing.LatestRanking
	Deltas      []dataprocessing.DeltaBucket
	Profile     []dataprocessing.ColumnProfile
	Correlation *dataprocessing.CorrelationMatrix

	// Records is only filled when enriched records are exported.
	Records []domain.Record
}

// Presented returns every result set cut to its grouping limit.
func (r *Report) Presented() []*domain.ResultSet {
	out := make([]*domain.ResultSet, 0, len(r.Results))
	for _, rs := range r.Results {
		if rs == nil {
			continue
		}
		out = append(out, rs.Top(rs.Grouping.Limit))
	}
	return out
}

// ratio marks a cell holding a share rather than a score.
type ratio float64

// table is a format-neutral sheet. Cells hold string, int, float64, ratio
// or nil for a missing value.
type table struct {
	name   string
	header []string
	rows   [][]any
}

func summaryTable(s *domain.SummaryReport) table {
	t := table{name: "summary", header: []string{"key", "value"}}
	if s == nil {
		return t
	}
	for _, l := range s.Lines() {
		t.rows = append(t.rows, []any{l.Key, l.Value})
	}
	return t
}

// groupingTable lays out one result set: key columns, count and shares,
// then n/mean/std/min/max for every aggregated metric.
func groupingTable(rs *domain.ResultSet) table {
	g := rs.Grouping
	t := table{name: g.Name}
	for _, d := range g.Dimensions {
		t.header = append(t.header, string(d))
	}
	t.header = append(t.header, "count", "share", "parent_share")
	for _, m := range g.Metrics {
		p := string(m)
		t.header = append(t.header, p+"_n", p+"_mean", p+"_std", p+"_min", p+"_max")
	}

	for _, res := range rs.Results {
		row := make([]any, 0, len(t.header))
		for _, k := range res.Key {
			row = append(row, k)
		}
		row = append(row, res.Count, ratio(res.Share), ratio(res.ParentShare))
		for _, m := range g.Metrics {
			st := res.Stat(m)
			if st == nil {
				row = append(row, 0, nil, nil, nil, nil)
				continue
			}
			row = append(row, st.N, st.Mean, numberCell(st.Std), st.Min, st.Max)
		}
		t.rows = append(t.rows, row)
	}
	return t
}

func progressTable(entries []dataprocessing.ProgressEntry) table {
	t := table{
		name:   "score_progress",
		header: []string{"issuer", "first_date", "last_date", "first_score", "last_score", "change"},
	}
	for _, e := range entries {
		t.rows = append(t.rows, []any{e.Issuer, e.FirstDate, e.LastDate, e.FirstScore, e.LastScore, e.Change})
	}
	return t
}

// latestTables lays out one table per latest-score ranking.
func latestTables(rankings []dataprocessing.LatestRanking) []table {
	out := make([]table, 0, len(rankings))
	for _, rk := range rankings {
		t := table{
			name:   "latest_" + string(rk.Metric),
			header: []string{"rank", "issuer", "date", string(rk.Metric)},
		}
		for i, e := range rk.Entries {
			t.rows = append(t.rows, []any{i + 1, e.Issuer, e.Date, e.Value})
		}
		out = append(out, t)
	}
	return out
}

func deltaTable(buckets []dataprocessing.DeltaBucket) table {
	t := table{name: "rating_changes", header: []string{"rating_delta", "count"}}
	for _, b := range buckets {
		t.rows = append(t.rows, []any{b.Delta, b.Count})
	}
	return t
}

func profileTable(profile []dataprocessing.ColumnProfile) table {
	t := table{
		name:   "column_profile",
		header: []string{"column", "count", "mean", "median", "std", "min", "25%", "50%", "75%", "max"},
	}
	for _, p := range profile {
		t.rows = append(t.rows, []any{p.Column, p.Count, p.Mean, p.Median, numberCell(p.Std), p.Min, p.Q25, p.Q50, p.Q75, p.Max})
	}
	return t
}

func correlationTable(m *dataprocessing.CorrelationMatrix) table {
	t := table{name: "pillar_correlation", header: []string{"pillar"}}
	if m == nil {
		return t
	}
	for _, p := range m.Pillars {
		t.header = append(t.header, string(p))
	}
	for i, p := range m.Pillars {
		row := []any{string(p)}
		for j := range m.Pillars {
			row = append(row, numberCell(m.Values[i][j]))
		}
		t.rows = append(t.rows, row)
	}
	return t
}

func recordsTable(records []domain.Record) table {
	t := table{
		name: "records",
		header: []string{
			"row", "issuer", "as_of_date", "rating", "previous_rating", "industry", "country",
			"environmental", "social", "governance", "total_score",
			"rating_rank", "previous_rank", "rating_delta", "pillar_average",
		},
	}
	for i := range records {
		r := &records[i]
		date := any(nil)
		if r.AsOf.IsPresent() {
			date = r.AsOf.Value.Format("2006-01-02")
		}
		t.rows = append(t.rows, []any{
			r.Row, labelCell(r.Issuer), date, labelCell(r.Rating), labelCell(r.PreviousRating),
			labelCell(r.Industry), labelCell(r.Country),
			numberCell(r.Pillar(domain.PillarEnvironmental)),
			numberCell(r.Pillar(domain.PillarSocial)),
			numberCell(r.Pillar(domain.PillarGovernance)),
			numberCell(r.TotalScore),
			numberCell(r.RatingRank), numberCell(r.PreviousRank),
			numberCell(r.RatingDelta), numberCell(r.PillarAverage),
		})
	}
	return t
}

// tables lists every sheet of the report in write order.
func (r *Report) tables() []table {
	out := []table{summaryTable(r.Summary)}
	for _, rs := range r.Presented() {
		out = append(out, groupingTable(rs))
	}
	out = append(out, progressTable(r.Progress))
	out = append(out, latestTables(r.Latest)...)
	out = append(out,
		deltaTable(r.Deltas),
		profileTable(r.Profile),
		correlationTable(r.Correlation),
	)
	if len(r.Records) > 0 {
		out = append(out, recordsTable(r.Records))
	}
	return out
}

func numberCell(n domain.Number) any {
	if v, ok := n.Get(); ok {
		return v
	}
	return nil
}

func labelCell(l domain.Label) any {
	if l.IsPresent() {
		return l.Value
	}
	return nil
}

// safeName turns a grouping name into something usable as a file or sheet
// name.
func safeName(name string) string {
	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_', r == '-':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	if b.Len() == 0 {
		return "grouping"
	}
	return b.String()
}
