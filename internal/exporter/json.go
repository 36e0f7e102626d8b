package exporter

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"time"

	"esgcli/internal/config"
	"esgcli/internal/dataprocessing"
	"esgcli/pkg/contracts/domain"
)

// jsonReport is the document written to report.json
type jsonReport struct {
	RunID         string                `json:"run_id"`
	Source        string                `json:"source"`
	GeneratedAt   time.Time             `json:"generated_at"`
	Scale         string                `json:"scale"`
	SchemaVersion string                `json:"schema_version"`
	Bindings      []domain.FieldBinding `json:"bindings"`
	Gaps          []domain.Field        `json:"unresolved_fields"`

	Summary     []domain.ReportLine              `json:"summary"`
	Groupings   []*domain.ResultSet              `json:"groupings"`
	Progress    []dataprocessing.ProgressEntry   `json:"score_progress"`
	Latest      []dataprocessing.LatestRanking   `json:"latest_scores"`
	Deltas      []dataprocessing.DeltaBucket     `json:"rating_changes"`
	Profile     []dataprocessing.ColumnProfile   `json:"column_profile"`
	Correlation *dataprocessing.CorrelationMatrix `json:"pillar_correlation,omitempty"`
	Records     []domain.Record                  `json:"records,omitempty"`
}

// JSONExporter writes the whole report as one indented JSON document.
type JSONExporter struct {
	paths  *config.Paths
	logger *slog.Logger
}

// NewJSONExporter creates a JSON exporter
func NewJSONExporter(paths *config.Paths, logger *slog.Logger) *JSONExporter {
	if logger == nil {
		logger = slog.Default()
	}
	return &JSONExporter{paths: paths, logger: logger}
}

// Format implements Exporter
func (e *JSONExporter) Format() string {
	return config.FormatJSON
}

// Export implements Exporter
func (e *JSONExporter) Export(ctx context.Context, report *Report) ([]string, error) {
	doc := jsonReport{
		RunID:         report.RunID,
		Source:        report.Source,
		GeneratedAt:   report.GeneratedAt,
		Scale:         report.Scale,
		SchemaVersion: report.SchemaVersion,
		Bindings:      report.Bindings,
		Gaps:          report.Gaps,
		Groupings:     report.Presented(),
		Progress:      report.Progress,
		Latest:        report.Latest,
		Deltas:        report.Deltas,
		Profile:       report.Profile,
		Correlation:   report.Correlation,
		Records:       report.Records,
	}
	if report.Summary != nil {
		doc.Summary = report.Summary.Lines()
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal report: %w", err)
	}

	path := e.paths.GetOutputPath(config.ReportJSONFile)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return nil, fmt.Errorf("failed to write %s: %w", path, err)
	}

	e.logger.InfoContext(ctx, "JSON export completed",
		slog.String("path", path),
		slog.Int("bytes", len(data)))
	return []string{path}, nil
}
