package infrastructure

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// PipelineMetrics holds the instruments recorded by an analysis run
type PipelineMetrics struct {
	RunsTotal        metric.Int64Counter
	RunDuration      metric.Float64Histogram
	StepsTotal       metric.Int64Counter
	StepDuration     metric.Float64Histogram
	RecordsLoaded    metric.Int64Counter
	RecordsDropped   metric.Int64Counter
	InvalidValues    metric.Int64Counter
	UnresolvedFields metric.Int64Counter
	GroupsProduced   metric.Int64Counter
	ExportFilesTotal metric.Int64Counter
}

// CreatePipelineMetrics creates the analysis metrics on meter
func CreatePipelineMetrics(meter metric.Meter) (*PipelineMetrics, error) {
	runsTotal, err := meter.Int64Counter(
		"esg_runs_total",
		metric.WithDescription("Total number of analysis runs"),
	)
	if err != nil {
		return nil, err
	}

	runDuration, err := meter.Float64Histogram(
		"esg_run_duration_seconds",
		metric.WithDescription("Analysis run duration in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	stepsTotal, err := meter.Int64Counter(
		"esg_steps_total",
		metric.WithDescription("Total number of pipeline steps executed"),
	)
	if err != nil {
		return nil, err
	}

	stepDuration, err := meter.Float64Histogram(
		"esg_step_duration_seconds",
		metric.WithDescription("Pipeline step duration in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	recordsLoaded, err := meter.Int64Counter(
		"esg_records_loaded_total",
		metric.WithDescription("Rows read from input files"),
	)
	if err != nil {
		return nil, err
	}

	recordsDropped, err := meter.Int64Counter(
		"esg_records_dropped_total",
		metric.WithDescription("Rows dropped for lacking both a date and a rating"),
	)
	if err != nil {
		return nil, err
	}

	invalidValues, err := meter.Int64Counter(
		"esg_invalid_values_total",
		metric.WithDescription("Cells that could not be coerced"),
	)
	if err != nil {
		return nil, err
	}

	unresolvedFields, err := meter.Int64Counter(
		"esg_unresolved_fields_total",
		metric.WithDescription("Canonical fields with no source column"),
	)
	if err != nil {
		return nil, err
	}

	groupsProduced, err := meter.Int64Counter(
		"esg_groups_total",
		metric.WithDescription("Aggregation groups produced"),
	)
	if err != nil {
		return nil, err
	}

	exportFiles, err := meter.Int64Counter(
		"esg_export_files_total",
		metric.WithDescription("Export files written"),
	)
	if err != nil {
		return nil, err
	}

	return &PipelineMetrics{
		RunsTotal:        runsTotal,
		RunDuration:      runDuration,
		StepsTotal:       stepsTotal,
		StepDuration:     stepDuration,
		RecordsLoaded:    recordsLoaded,
		RecordsDropped:   recordsDropped,
		InvalidValues:    invalidValues,
		UnresolvedFields: unresolvedFields,
		GroupsProduced:   groupsProduced,
		ExportFilesTotal: exportFiles,
	}, nil
}

func statusAttr(success bool) attribute.KeyValue {
	if success {
		return attribute.String("status", "success")
	}
	return attribute.String("status", "failure")
}

// RecordRun records one finished run
func (m *PipelineMetrics) RecordRun(ctx context.Context, duration time.Duration, success bool) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(statusAttr(success))
	m.RunsTotal.Add(ctx, 1, attrs)
	m.RunDuration.Record(ctx, duration.Seconds(), attrs)
}

// RecordStep records one finished step
func (m *PipelineMetrics) RecordStep(ctx context.Context, stepID string, duration time.Duration, success bool) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(attribute.String("step", stepID), statusAttr(success))
	m.StepsTotal.Add(ctx, 1, attrs)
	m.StepDuration.Record(ctx, duration.Seconds(), attrs)
}

// RecordLoad records the outcome of loading and parsing
func (m *PipelineMetrics) RecordLoad(ctx context.Context, loaded, dropped, invalid int) {
	if m == nil {
		return
	}
	m.RecordsLoaded.Add(ctx, int64(loaded))
	m.RecordsDropped.Add(ctx, int64(dropped))
	m.InvalidValues.Add(ctx, int64(invalid))
}

// RecordUnresolved records schema gaps
func (m *PipelineMetrics) RecordUnresolved(ctx context.Context, gaps int) {
	if m == nil {
		return
	}
	m.UnresolvedFields.Add(ctx, int64(gaps))
}

// RecordGroups records the groups of one grouping
func (m *PipelineMetrics) RecordGroups(ctx context.Context, grouping string, groups int) {
	if m == nil {
		return
	}
	m.GroupsProduced.Add(ctx, int64(groups), metric.WithAttributes(attribute.String("grouping", grouping)))
}

// RecordExport records files written by one sink
func (m *PipelineMetrics) RecordExport(ctx context.Context, format string, files int) {
	if m == nil {
		return
	}
	m.ExportFilesTotal.Add(ctx, int64(files), metric.WithAttributes(attribute.String("format", format)))
}
