package domain

import "time"

// ReportLine is one key/value entry of a summary report.
type ReportLine struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// SummaryReport is the flat, ordered terminal artifact of a run.
type SummaryReport struct {
	generatedAt time.Time
	lines       []ReportLine
	index       map[string]int
}

// NewSummaryReport freezes lines into a report. Later duplicates of a key
// replace the earlier value in place.
func NewSummaryReport(generatedAt time.Time, lines []ReportLine) *SummaryReport {
	r := &SummaryReport{
		generatedAt: generatedAt,
		lines:       make([]ReportLine, 0, len(lines)),
		index:       make(map[string]int, len(lines)),
	}
	for _, l := range lines {
		if i, ok := r.index[l.Key]; ok {
			r.lines[i].Value = l.Value
			continue
		}
		r.index[l.Key] = len(r.lines)
		r.lines = append(r.lines, l)
	}
	return r
}

// GeneratedAt returns the report timestamp
func (r *SummaryReport) GeneratedAt() time.Time {
	return r.generatedAt
}

// Get returns the value for key.
func (r *SummaryReport) Get(key string) (string, bool) {
	i, ok := r.index[key]
	if !ok {
		return "", false
	}
	return r.lines[i].Value, true
}

// Lines returns a copy of the report lines in order.
func (r *SummaryReport) Lines() []ReportLine {
	out := make([]ReportLine, len(r.lines))
	copy(out, r.lines)
	return out
}

// Map returns the report as a plain map.
func (r *SummaryReport) Map() map[string]string {
	out := make(map[string]string, len(r.lines))
	for _, l := range r.lines {
		out[l.Key] = l.Value
	}
	return out
}

// Len returns the number of lines
func (r *SummaryReport) Len() int {
	return len(r.lines)
}
