package exporter

import (
	"context"
	"encoding/csv"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"esgcli/internal/config"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// CSVWriter provides CSV export functionality
type CSVWriter struct {
	paths  *config.Paths
	logger *slog.Logger
}

// NewCSVWriter creates a new CSV writer instance
func NewCSVWriter(paths *config.Paths, logger *slog.Logger) *CSVWriter {
	if logger == nil {
		logger = slog.Default()
	}
	return &CSVWriter{paths: paths, logger: logger}
}

// WriteOptions configures CSV writing behavior
type WriteOptions struct {
	Headers   []string
	Records   [][]string
	BOMPrefix bool // Add UTF-8 BOM for Excel compatibility
}

// WriteCSV writes data to a CSV file, replacing any previous file, and
// returns the full path written.
func (w *CSVWriter) WriteCSV(filePath string, options WriteOptions) (string, error) {
	fullPath := w.resolvePath(filePath)

	w.logger.Debug("Writing CSV file",
		slog.String("file_path", filePath),
		slog.String("full_path", fullPath),
		slog.Int("record_count", len(options.Records)))

	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		return "", fmt.Errorf("failed to create directory: %w", err)
	}

	file, err := os.Create(fullPath)
	if err != nil {
		return "", fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	if options.BOMPrefix {
		if _, err := file.Write(utf8BOM); err != nil {
			return "", fmt.Errorf("failed to write BOM: %w", err)
		}
	}

	writer := csv.NewWriter(file)
	if len(options.Headers) > 0 {
		if err := writer.Write(options.Headers); err != nil {
			return "", fmt.Errorf("failed to write headers: %w", err)
		}
	}
	for i, record := range options.Records {
		if err := writer.Write(record); err != nil {
			return "", fmt.Errorf("failed to write record %d: %w", i, err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return "", err
	}
	return fullPath, file.Close()
}

// StreamWriter provides streaming CSV writing for large datasets
type StreamWriter struct {
	path   string
	file   *os.File
	writer *csv.Writer
}

// CreateStreamWriter creates a new streaming CSV writer with a BOM and the
// header row already written.
func (w *CSVWriter) CreateStreamWriter(filePath string, headers []string) (*StreamWriter, error) {
	fullPath := w.resolvePath(filePath)

	w.logger.Debug("Creating CSV stream writer",
		slog.String("full_path", fullPath),
		slog.Int("header_count", len(headers)))

	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	file, err := os.Create(fullPath)
	if err != nil {
		return nil, fmt.Errorf("failed to create file: %w", err)
	}
	if _, err := file.Write(utf8BOM); err != nil {
		file.Close()
		return nil, fmt.Errorf("failed to write BOM: %w", err)
	}

	writer := csv.NewWriter(file)
	if len(headers) > 0 {
		if err := writer.Write(headers); err != nil {
			file.Close()
			return nil, fmt.Errorf("failed to write headers: %w", err)
		}
	}

	return &StreamWriter{path: fullPath, file: file, writer: writer}, nil
}

// WriteRecord writes a single record to the stream
func (s *StreamWriter) WriteRecord(record []string) error {
	return s.writer.Write(record)
}

// Path returns the file the stream writes to
func (s *StreamWriter) Path() string {
	return s.path
}

// Close flushes and closes the stream writer
func (s *StreamWriter) Close() error {
	s.writer.Flush()
	if err := s.writer.Error(); err != nil {
		s.file.Close()
		return err
	}
	return s.file.Close()
}

// resolvePath places relative names in the output directory
func (w *CSVWriter) resolvePath(filePath string) string {
	if filepath.IsAbs(filePath) || w.paths == nil {
		return filePath
	}
	return w.paths.GetOutputPath(filePath)
}

// CSVExporter writes the report as one CSV file per table.
type CSVExporter struct {
	writer *CSVWriter
	logger *slog.Logger
}

// NewCSVExporter creates a CSV exporter writing under paths.OutputDir
func NewCSVExporter(paths *config.Paths, logger *slog.Logger) *CSVExporter {
	if logger == nil {
		logger = slog.Default()
	}
	return &CSVExporter{writer: NewCSVWriter(paths, logger), logger: logger}
}

// Format implements Exporter
func (e *CSVExporter) Format() string {
	return config.FormatCSV
}

// Export implements Exporter. The summary goes to summary.csv, every other
// table to <name>.csv. Records are streamed.
func (e *CSVExporter) Export(ctx context.Context, report *Report) ([]string, error) {
	var written []string
	for _, t := range report.tables() {
		if err := ctx.Err(); err != nil {
			return written, err
		}

		name := safeName(t.name) + ".csv"
		if t.name == "summary" {
			name = config.SummaryCSVFile
		}

		var (
			path string
			err  error
		)
		if t.name == "records" {
			path, err = e.streamTable(name, t)
		} else {
			rows := make([][]string, len(t.rows))
			for i, r := range t.rows {
				rows[i] = rowStrings(r)
			}
			path, err = e.writer.WriteCSV(name, WriteOptions{Headers: t.header, Records: rows, BOMPrefix: true})
		}
		if err != nil {
			return written, fmt.Errorf("export %s: %w", name, err)
		}
		written = append(written, path)
	}

	e.logger.InfoContext(ctx, "CSV export completed", slog.Int("files", len(written)))
	return written, nil
}

func (e *CSVExporter) streamTable(name string, t table) (string, error) {
	sw, err := e.writer.CreateStreamWriter(name, t.header)
	if err != nil {
		return "", err
	}
	for _, r := range t.rows {
		if err := sw.WriteRecord(rowStrings(r)); err != nil {
			sw.Close()
			return "", err
		}
	}
	return sw.Path(), sw.Close()
}
