package loader

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	apperrors "esgcli/internal/errors"
	"esgcli/internal/infrastructure"
	"esgcli/pkg/contracts/domain"
)

// Encodings reported on a loaded table
const (
	EncodingUTF8 = "utf-8"
	EncodingGBK  = "gbk"
	EncodingXLSX = "xlsx"
)

// Loader reads one tabular export file into memory.
type Loader struct {
	logger *slog.Logger
}

// NewLoader creates a loader. A nil logger uses the default logger.
func NewLoader(logger *slog.Logger) *Loader {
	return &Loader{logger: infrastructure.WithComponent(logger, "loader")}
}

// IsSpreadsheet reports whether path is read as an Excel workbook.
func IsSpreadsheet(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xlsm":
		return true
	}
	return false
}

// Load reads path into a Table. Every failure is a data load error; the
// source file is never modified.
func (l *Loader) Load(ctx context.Context, path string) (*domain.Table, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, apperrors.NewDataLoadError("input file not found", err).WithContext("path", path)
		}
		return nil, apperrors.NewDataLoadError("cannot stat input file", err).WithContext("path", path)
	}
	if info.IsDir() {
		return nil, apperrors.NewDataLoadError("input path is a directory", nil).WithContext("path", path)
	}

	var (
		records  [][]string
		encoding string
	)
	if IsSpreadsheet(path) {
		records, err = readWorkbook(path)
		encoding = EncodingXLSX
	} else {
		records, encoding, err = l.readDelimited(ctx, path)
	}
	if err != nil {
		return nil, apperrors.NewDataLoadError("failed to read input file", err).WithContext("path", path)
	}

	table, truncated, err := buildTable(path, encoding, records)
	if err != nil {
		return nil, apperrors.NewDataLoadError("input has no usable header", err).WithContext("path", path)
	}
	if truncated > 0 {
		l.logger.WarnContext(ctx, "Rows longer than the header were truncated",
			slog.String("file", filepath.Base(path)),
			slog.Int("rows", truncated))
	}

	l.logger.InfoContext(ctx, "Input file loaded",
		slog.String("file", filepath.Base(path)),
		slog.String("encoding", table.Encoding),
		slog.Int("columns", len(table.Columns)),
		slog.Int("rows", table.Len()))

	return table, nil
}

// buildTable turns raw records into a Table, padding short rows and
// truncating long ones. It returns the number of truncated rows.
func buildTable(path, encoding string, records [][]string) (*domain.Table, int, error) {
	start := -1
	for i, rec := range records {
		if !isBlankRow(rec) {
			start = i
			break
		}
	}
	if start < 0 {
		return nil, 0, apperrors.ErrEmptyInput
	}

	columns := NormalizeHeader(records[start])
	table := &domain.Table{
		Source:   path,
		Encoding: encoding,
		Columns:  columns,
		Rows:     make([]map[string]string, 0, len(records)-start-1),
	}

	truncated := 0
	for _, rec := range records[start+1:] {
		if len(rec) > len(columns) {
			truncated++
		}
		row := make(map[string]string, len(columns))
		for i, col := range columns {
			if i < len(rec) {
				row[col] = rec[i]
			} else {
				row[col] = ""
			}
		}
		table.Rows = append(table.Rows, row)
	}

	return table, truncated, nil
}

func isBlankRow(rec []string) bool {
	for _, cell := range rec {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

// NormalizeHeader trims column names, names blank columns column_<n>
// (1-based) and suffixes duplicates _2, _3 and so on.
func NormalizeHeader(raw []string) []string {
	out := make([]string, len(raw))
	seen := make(map[string]bool, len(raw))
	for i, name := range raw {
		name = strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))
		if name == "" {
			name = fmt.Sprintf("column_%d", i+1)
		}
		candidate := name
		for n := 2; seen[candidate]; n++ {
			candidate = fmt.Sprintf("%s_%d", name, n)
		}
		seen[candidate] = true
		out[i] = candidate
	}
	return out
}
