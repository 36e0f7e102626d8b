package testutil

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"
	"golang.org/x/text/encoding/simplifiedchinese"

	"esgcli/pkg/contracts/domain"
)

// RatingsHeader is a vendor-style header used across package tests.
var RatingsHeader = []string{
	"ISSUER_NAME",
	"AS_OF_DATE",
	"IVA_COMPANY_RATING",
	"IVA_PREVIOUS_RATING",
	"IVA_RATING_DATE",
	"GICS_SUB_IND",
	"ISSUER_CNTRY_DOMICILE",
	"ENVIRONMENTAL_PILLAR_SCORE",
	"SOCIAL_PILLAR_SCORE",
	"GOVERNANCE_PILLAR_SCORE",
	"WEIGHTED_AVERAGE_SCORE",
}

// RatingsRows is a small export in RatingsHeader layout.
var RatingsRows = [][]string{
	{"Acme Corp", "2023-01-31", "AA", "A", "2022-12-01", "Banks", "US", "6.0", "8.0", "5.5", "6.5"},
	{"Acme Corp", "2023-06-30", "AAA", "AA", "2023-05-01", "Banks", "US", "7.0", "8.5", "6.0", "7.2"},
	{"Borealis AG", "2023-01-31", "BBB", "BBB", "2022-11-15", "Utilities", "DE", "4.0", "5.0", "", "4.4"},
	{"Borealis AG", "2023-06-30", "BB", "BBB", "2023-04-20", "Utilities", "DE", "3.5", "n/a", "4.5", "4.0"},
	{"Cathay Ltd", "2023-06-30", "A", "", "", "Banks", "CN", "5.0", "6.0", "7.0", "6.0"},
	{"", "", "", "", "", "Banks", "CN", "1.0", "1.0", "1.0", "1.0"},
}

// WriteCSV writes header and rows as a UTF-8 CSV file in dir.
func WriteCSV(t *testing.T, dir, name string, header []string, rows [][]string) string {
	t.Helper()

	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create %s: %v", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		t.Fatalf("write header: %v", err)
	}
	if err := w.WriteAll(rows); err != nil {
		t.Fatalf("write rows: %v", err)
	}
	return path
}

// WriteGBKCSV writes text encoded as GBK.
func WriteGBKCSV(t *testing.T, dir, name, text string) string {
	t.Helper()

	encoded, err := simplifiedchinese.GBK.NewEncoder().String(text)
	if err != nil {
		t.Fatalf("encode gbk: %v", err)
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(encoded), 0644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}

// WriteXLSX writes header and rows to the named sheet of a new workbook.
// Any sheet other than Sheet1 leaves the default empty Sheet1 first, which
// exercises sheet discovery.
func WriteXLSX(t *testing.T, dir, name, sheet string, header []string, rows [][]string) string {
	t.Helper()

	f := excelize.NewFile()
	defer f.Close()

	if _, err := f.NewSheet(sheet); err != nil {
		t.Fatalf("new sheet: %v", err)
	}
	all := append([][]string{header}, rows...)
	for i, row := range all {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			t.Fatalf("cell name: %v", err)
		}
		values := make([]interface{}, len(row))
		for j, v := range row {
			values[j] = v
		}
		if err := f.SetSheetRow(sheet, cell, &values); err != nil {
			t.Fatalf("set row: %v", err)
		}
	}

	path := filepath.Join(dir, name)
	if err := f.SaveAs(path); err != nil {
		t.Fatalf("save %s: %v", path, err)
	}
	return path
}

// NewTable builds an in-memory table in the loader's output shape.
func NewTable(header []string, rows [][]string) *domain.Table {
	table := &domain.Table{
		Source:   "memory.csv",
		Encoding: "utf-8",
		Columns:  append([]string(nil), header...),
	}
	for _, rec := range rows {
		row := make(map[string]string, len(header))
		for i, col := range header {
			if i < len(rec) {
				row[col] = rec[i]
			}
		}
		table.Rows = append(table.Rows, row)
	}
	return table
}

// RecordBuilder builds enriched-looking records for aggregation tests.
type RecordBuilder struct {
	rec domain.Record
}

// NewRecord starts a record for issuer.
func NewRecord(issuer string) *RecordBuilder {
	b := &RecordBuilder{rec: domain.Record{Pillars: map[domain.Pillar]domain.Number{}}}
	if issuer != "" {
		b.rec.Issuer = domain.LabelOf(issuer)
	}
	return b
}

// On sets the as-of date from a 2006-01-02 string.
func (b *RecordBuilder) On(date string) *RecordBuilder {
	d, err := time.Parse("2006-01-02", date)
	if err != nil {
		panic(err)
	}
	b.rec.AsOf = domain.DateOf(d)
	return b
}

// Rated sets the current and previous ratings; an empty label stays absent.
func (b *RecordBuilder) Rated(rating, previous string) *RecordBuilder {
	if rating != "" {
		b.rec.Rating = domain.LabelOf(strings.ToUpper(rating))
	}
	if previous != "" {
		b.rec.PreviousRating = domain.LabelOf(strings.ToUpper(previous))
	}
	return b
}

// In sets industry and country; empty values stay absent.
func (b *RecordBuilder) In(industry, country string) *RecordBuilder {
	if industry != "" {
		b.rec.Industry = domain.LabelOf(industry)
	}
	if country != "" {
		b.rec.Country = domain.LabelOf(country)
	}
	return b
}

// Pillar sets one pillar score.
func (b *RecordBuilder) Pillar(p domain.Pillar, v float64) *RecordBuilder {
	b.rec.Pillars[p] = domain.NumberOf(v)
	return b
}

// Score sets the total score.
func (b *RecordBuilder) Score(v float64) *RecordBuilder {
	b.rec.TotalScore = domain.NumberOf(v)
	return b
}

// Delta sets the rating delta directly.
func (b *RecordBuilder) Delta(v float64) *RecordBuilder {
	b.rec.RatingDelta = domain.NumberOf(v)
	return b
}

// Build returns the record.
func (b *RecordBuilder) Build() domain.Record {
	return b.rec
}
