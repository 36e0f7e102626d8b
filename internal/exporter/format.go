package exporter

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"esgcli/internal/config"
	apperrors "esgcli/internal/errors"
)

// Exporter writes a report in one format and returns the files it wrote.
type Exporter interface {
	Format() string
	Export(ctx context.Context, report *Report) ([]string, error)
}

// NewExporters builds one exporter per requested format, in request order.
func NewExporters(formats []string, paths *config.Paths, logger *slog.Logger) ([]Exporter, error) {
	out := make([]Exporter, 0, len(formats))
	seen := make(map[string]bool, len(formats))
	for _, f := range formats {
		if seen[f] {
			continue
		}
		seen[f] = true
		switch f {
		case config.FormatCSV:
			out = append(out, NewCSVExporter(paths, logger))
		case config.FormatJSON:
			out = append(out, NewJSONExporter(paths, logger))
		case config.FormatXLSX:
			out = append(out, NewXLSXExporter(paths, logger))
		case config.FormatSQLite:
			out = append(out, NewSQLiteExporter(paths, logger))
		default:
			return nil, apperrors.NewConfigError(fmt.Sprintf("unsupported export format %q", f), apperrors.ErrUnknownFormat).
				WithContext("format", f)
		}
	}
	return out, nil
}

// formatFloat formats a float64 value for CSV output with exactly 2 decimal places
func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', 2, 64)
}

// formatRatio keeps four decimals so small shares survive
func formatRatio(f float64) string {
	return strconv.FormatFloat(f, 'f', 4, 64)
}

// formatInt formats an int value for CSV output
func formatInt(i int) string {
	return strconv.Itoa(i)
}

// cellString renders a table cell for text formats. Missing values are
// empty.
func cellString(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case int:
		return formatInt(x)
	case float64:
		return formatFloat(x)
	case ratio:
		return formatRatio(float64(x))
	default:
		return fmt.Sprint(x)
	}
}

func rowStrings(row []any) []string {
	out := make([]string, len(row))
	for i, v := range row {
		out[i] = cellString(v)
	}
	return out
}
