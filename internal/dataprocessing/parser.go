package dataprocessing

import (
	"log/slog"
	"math"
	"strconv"
	"strings"
	"time"

	"esgcli/internal/infrastructure"
	"esgcli/pkg/contracts/domain"
)

// dateLayouts are tried in order until one parses.
var dateLayouts = []string{
	"2006-01-02",
	"2006/01/02",
	"2006-01-02 15:04:05",
	time.RFC3339,
	"01/02/2006",
	"1/2/2006",
	"2006/1/2",
	"20060102",
	"2006-01",
}

// missingTokens are cell values treated as an empty cell.
var missingTokens = map[string]struct{}{
	"":     {},
	"na":   {},
	"n/a":  {},
	"nan":  {},
	"null": {},
	"-":    {},
}

// ParseStats describes what the parser kept and what it rejected.
type ParseStats struct {
	Rows          int                  `json:"rows"`
	Records       int                  `json:"records"`
	Dropped       int                  `json:"dropped_records"`
	InvalidValues int                  `json:"invalid_values"`
	InvalidFields map[domain.Field]int `json:"invalid_by_field,omitempty"`
}

func (s *ParseStats) invalid(f domain.Field) {
	s.InvalidValues++
	if s.InvalidFields == nil {
		s.InvalidFields = make(map[domain.Field]int)
	}
	s.InvalidFields[f]++
}

// Parser coerces table cells into typed records. It performs no cleaning
// beyond type coercion.
type Parser struct {
	scale  *domain.RatingScale
	logger *slog.Logger
}

// NewParser creates a parser for the given rating scale. A nil scale uses
// the default MSCI scale.
func NewParser(scale *domain.RatingScale, logger *slog.Logger) *Parser {
	if scale == nil {
		scale = domain.DefaultRatingScale()
	}
	return &Parser{
		scale:  scale,
		logger: infrastructure.WithComponent(logger, "parser"),
	}
}

// Parse converts every row of table into a Record using fm. Rows with
// neither a present date nor a present rating are dropped and counted.
func (p *Parser) Parse(table *domain.Table, fm *domain.FieldMap) ([]domain.Record, ParseStats) {
	stats := ParseStats{Rows: table.Len()}
	records := make([]domain.Record, 0, table.Len())

	for i, row := range table.Rows {
		rec := p.parseRow(i+1, row, fm, &stats)
		if !rec.HasDateOrRating() {
			stats.Dropped++
			p.logger.Debug("Dropping record without date or rating", slog.Int("row", rec.Row))
			continue
		}
		records = append(records, rec)
	}
	stats.Records = len(records)

	if stats.Dropped > 0 {
		p.logger.Warn("Records dropped: no date and no rating",
			slog.Int("dropped_records", stats.Dropped),
			slog.Int("rows", stats.Rows))
	}
	if stats.InvalidValues > 0 {
		p.logger.Warn("Cells could not be coerced",
			slog.Int("invalid_values", stats.InvalidValues))
	}
	p.logger.Info("Records parsed",
		slog.Int("rows", stats.Rows),
		slog.Int("records", stats.Records),
		slog.Int("dropped_records", stats.Dropped))

	return records, stats
}

func (p *Parser) parseRow(rowNum int, row map[string]string, fm *domain.FieldMap, stats *ParseStats) domain.Record {
	cell := func(f domain.Field) (string, bool) {
		col, ok := fm.Column(f)
		if !ok {
			return "", false
		}
		return row[col], true
	}

	rec := domain.Record{
		Row:     rowNum,
		Pillars: make(map[domain.Pillar]domain.Number, len(domain.Pillars)),
	}

	if raw, ok := cell(domain.FieldName); ok {
		rec.Issuer = ParseLabel(raw)
	}
	if raw, ok := cell(domain.FieldIndustry); ok {
		rec.Industry = ParseLabel(raw)
	}
	if raw, ok := cell(domain.FieldCountry); ok {
		rec.Country = ParseLabel(raw)
	}
	if raw, ok := cell(domain.FieldDate); ok {
		rec.AsOf = ParseDate(raw)
		if rec.AsOf.State == domain.Invalid {
			stats.invalid(domain.FieldDate)
		}
	}
	if raw, ok := cell(domain.FieldRating); ok {
		rec.Rating = p.parseRating(raw)
		if rec.Rating.State == domain.Invalid {
			stats.invalid(domain.FieldRating)
		}
	}
	if raw, ok := cell(domain.FieldPreviousRating); ok {
		rec.PreviousRating = p.parseRating(raw)
		if rec.PreviousRating.State == domain.Invalid {
			stats.invalid(domain.FieldPreviousRating)
		}
	}
	for _, pillar := range domain.Pillars {
		field := domain.PillarField(pillar)
		raw, ok := cell(field)
		if !ok {
			rec.Pillars[pillar] = domain.Number{}
			continue
		}
		n := ParseNumber(raw)
		if n.State == domain.Invalid {
			stats.invalid(field)
		}
		rec.Pillars[pillar] = n
	}
	if raw, ok := cell(domain.FieldTotalScore); ok {
		rec.TotalScore = ParseNumber(raw)
		if rec.TotalScore.State == domain.Invalid {
			stats.invalid(domain.FieldTotalScore)
		}
	}

	return rec
}

// parseRating normalises a rating label. Labels missing from the scale are
// kept, marked invalid.
func (p *Parser) parseRating(raw string) domain.Label {
	if isMissing(raw) {
		return domain.Label{}
	}
	label := domain.NormalizeRating(raw)
	if !p.scale.Contains(label) {
		return domain.Label{Value: label, State: domain.Invalid}
	}
	return domain.LabelOf(label)
}

// ParseNumber coerces a cell into a Number. Thousands separators are
// ignored and the usual missing-value tokens yield an absent number.
func ParseNumber(raw string) domain.Number {
	if isMissing(raw) {
		return domain.Number{}
	}
	s := strings.ReplaceAll(strings.TrimSpace(raw), ",", "")
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return domain.InvalidNumber()
	}
	return domain.NumberOf(v)
}

// ParseDate coerces a cell into a Date.
func ParseDate(raw string) domain.Date {
	if isMissing(raw) {
		return domain.Date{}
	}
	s := strings.TrimSpace(raw)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return domain.DateOf(t)
		}
	}
	return domain.Date{State: domain.Invalid}
}

// ParseLabel trims a free-text cell.
func ParseLabel(raw string) domain.Label {
	if isMissing(raw) {
		return domain.Label{}
	}
	return domain.LabelOf(strings.TrimSpace(raw))
}

func isMissing(raw string) bool {
	_, ok := missingTokens[strings.ToLower(strings.TrimSpace(raw))]
	return ok
}
