package exporter

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/xuri/excelize/v2"

	"esgcli/internal/config"
)

const maxSheetName = 31

// XLSXExporter writes the report as one workbook, one sheet per table.
type XLSXExporter struct {
	paths  *config.Paths
	logger *slog.Logger
}

// NewXLSXExporter creates an Excel exporter
func NewXLSXExporter(paths *config.Paths, logger *slog.Logger) *XLSXExporter {
	if logger == nil {
		logger = slog.Default()
	}
	return &XLSXExporter{paths: paths, logger: logger}
}

// Format implements Exporter
func (e *XLSXExporter) Format() string {
	return config.FormatXLSX
}

// Export implements Exporter
func (e *XLSXExporter) Export(ctx context.Context, report *Report) ([]string, error) {
	f := excelize.NewFile()
	defer f.Close()

	header, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, fmt.Errorf("failed to create header style: %w", err)
	}

	used := make(map[string]bool)
	for i, t := range report.tables() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		sheet := sheetName(t.name, used)
		if i == 0 {
			if err := f.SetSheetName(f.GetSheetName(0), sheet); err != nil {
				return nil, fmt.Errorf("failed to rename sheet: %w", err)
			}
		} else if _, err := f.NewSheet(sheet); err != nil {
			return nil, fmt.Errorf("failed to create sheet %s: %w", sheet, err)
		}

		if err := writeSheet(f, sheet, t); err != nil {
			return nil, fmt.Errorf("failed to write sheet %s: %w", sheet, err)
		}
		if err := f.SetRowStyle(sheet, 1, 1, header); err != nil {
			return nil, err
		}
	}
	f.SetActiveSheet(0)

	path := e.paths.GetOutputPath(config.ReportXLSXFile)
	_ = os.Remove(path)
	if err := f.SaveAs(path); err != nil {
		return nil, fmt.Errorf("failed to save workbook: %w", err)
	}

	e.logger.InfoContext(ctx, "Excel export completed",
		slog.String("path", path),
		slog.Int("sheets", len(f.GetSheetList())))
	return []string{path}, nil
}

func writeSheet(f *excelize.File, sheet string, t table) error {
	head := make([]interface{}, len(t.header))
	for i, h := range t.header {
		head[i] = h
	}
	if err := f.SetSheetRow(sheet, "A1", &head); err != nil {
		return err
	}

	for i, r := range t.rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		row := make([]interface{}, len(r))
		for j, v := range r {
			if x, ok := v.(ratio); ok {
				v = float64(x)
			}
			row[j] = v
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return err
		}
	}
	return nil
}

// sheetName makes name a legal, unique worksheet name.
func sheetName(name string, used map[string]bool) string {
	base := strings.Map(func(r rune) rune {
		if strings.ContainsRune(`[]:*?/\`, r) {
			return '_'
		}
		return r
	}, name)
	if base == "" {
		base = "sheet"
	}
	if len(base) > maxSheetName {
		base = base[:maxSheetName]
	}

	candidate := base
	for n := 2; used[strings.ToLower(candidate)]; n++ {
		suffix := fmt.Sprintf("_%d", n)
		cut := base
		if len(cut)+len(suffix) > maxSheetName {
			cut = cut[:maxSheetName-len(suffix)]
		}
		candidate = cut + suffix
	}
	used[strings.ToLower(candidate)] = true
	return candidate
}
