package operations

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"esgcli/internal/dataprocessing"
	"esgcli/internal/exporter"
	"esgcli/internal/infrastructure"
	"esgcli/internal/loader"
	"esgcli/internal/schema"
	"esgcli/pkg/contracts/domain"
)

func stageLogger(logger *slog.Logger, id string) *slog.Logger {
	if logger == nil {
		logger = slog.Default()
	}
	return logger.With(slog.String("step", id))
}

func recordData(state *OperationState, dataType, createdBy string, count int, files ...string) {
	state.Manifest.AddData(dataType, &DataInfo{
		Type:      dataType,
		Count:     count,
		Files:     files,
		CreatedAt: time.Now(),
		CreatedBy: createdBy,
	})
}

func setStepMetadata(state *OperationState, id, key string, value interface{}) {
	if ss := state.GetStage(id); ss != nil {
		ss.SetMetadata(key, value)
	}
}

// LoadStage reads the input file into a table and profiles its numeric
// columns.
type LoadStage struct {
	BaseStage
	loader *loader.Loader
	logger *slog.Logger
}

// NewLoadStage creates the load step
func NewLoadStage(l *loader.Loader, logger *slog.Logger) *LoadStage {
	return &LoadStage{
		BaseStage: NewBaseStage(StageIDLoad, StageNameLoad, nil).
			WithData(nil, DataTypeTable),
		loader: l,
		logger: stageLogger(logger, StageIDLoad),
	}
}

// Validate requires an input path
func (s *LoadStage) Validate(state *OperationState) error {
	if state.Input == "" {
		return fmt.Errorf("no input file given")
	}
	return nil
}

// Execute loads the table. A load failure is fatal for the run.
func (s *LoadStage) Execute(ctx context.Context, state *OperationState) error {
	table, err := s.loader.Load(ctx, state.Input)
	if err != nil {
		return err
	}
	state.Artifacts.Table = table

	profile, err := dataprocessing.Describe(table)
	if err != nil {
		s.logger.WarnContext(ctx, "Column profile unavailable", slog.String("error", err.Error()))
	}
	state.Artifacts.Profile = profile

	state.SetContext(ContextKeyRows, table.Len())
	state.SetContext(ContextKeyEncoding, table.Encoding)
	setStepMetadata(state, s.ID(), "rows", table.Len())
	setStepMetadata(state, s.ID(), "columns", len(table.Columns))
	setStepMetadata(state, s.ID(), "encoding", table.Encoding)
	recordData(state, DataTypeTable, s.ID(), table.Len(), state.Input)

	infrastructure.AddSpanEvent(ctx, "table.loaded", map[string]interface{}{
		"rows":     table.Len(),
		"columns":  len(table.Columns),
		"encoding": table.Encoding,
	})
	return nil
}

// ResolveStage maps the table columns onto the canonical fields.
type ResolveStage struct {
	BaseStage
	resolver *schema.Resolver
	metrics  *infrastructure.PipelineMetrics
	logger   *slog.Logger
}

// NewResolveStage creates the schema resolution step
func NewResolveStage(r *schema.Resolver, metrics *infrastructure.PipelineMetrics, logger *slog.Logger) *ResolveStage {
	return &ResolveStage{
		BaseStage: NewBaseStage(StageIDResolve, StageNameResolve, []string{StageIDLoad}).
			WithData([]string{DataTypeTable}, DataTypeFieldMap),
		resolver: r,
		metrics:  metrics,
		logger:   stageLogger(logger, StageIDResolve),
	}
}

// Validate requires a loaded table
func (s *ResolveStage) Validate(state *OperationState) error {
	if state.Artifacts.Table == nil {
		return fmt.Errorf("no table loaded")
	}
	return nil
}

// Execute checks the declared mapping and resolves the rest. Missing
// fields are reported, not raised.
func (s *ResolveStage) Execute(ctx context.Context, state *OperationState) error {
	columns := state.Artifacts.Table.Columns
	if err := s.resolver.ValidateMapping(columns); err != nil {
		return err
	}

	fm := s.resolver.Resolve(columns)
	state.Artifacts.FieldMap = fm

	gaps := fm.Gaps()
	for _, g := range gaps {
		s.logger.WarnContext(ctx, "Field not resolved", slog.String("field", string(g)))
	}
	if pending := fm.PendingSuggestions(); len(pending) > 0 {
		s.logger.InfoContext(ctx, "Unconfirmed column suggestions", slog.Int("count", len(pending)))
	}
	s.metrics.RecordUnresolved(ctx, len(gaps))

	state.SetContext(ContextKeyGaps, len(gaps))
	setStepMetadata(state, s.ID(), "bound", len(fm.Bindings()))
	setStepMetadata(state, s.ID(), "unresolved", len(gaps))
	setStepMetadata(state, s.ID(), "schema_version", fm.Version())
	recordData(state, DataTypeFieldMap, s.ID(), len(fm.Bindings()))
	return nil
}

// ParseStage coerces table rows into typed records.
type ParseStage struct {
	BaseStage
	parser  *dataprocessing.Parser
	metrics *infrastructure.PipelineMetrics
	logger  *slog.Logger
}

// NewParseStage creates the parse step
func NewParseStage(p *dataprocessing.Parser, metrics *infrastructure.PipelineMetrics, logger *slog.Logger) *ParseStage {
	return &ParseStage{
		BaseStage: NewBaseStage(StageIDParse, StageNameParse, []string{StageIDResolve}).
			WithData([]string{DataTypeTable, DataTypeFieldMap}, DataTypeRecords),
		parser:  p,
		metrics: metrics,
		logger:  stageLogger(logger, StageIDParse),
	}
}

// Validate requires the table and its field map
func (s *ParseStage) Validate(state *OperationState) error {
	if state.Artifacts.Table == nil || state.Artifacts.FieldMap == nil {
		return fmt.Errorf("table and field map are required")
	}
	return nil
}

// Execute parses the table
func (s *ParseStage) Execute(ctx context.Context, state *OperationState) error {
	records, stats := s.parser.Parse(state.Artifacts.Table, state.Artifacts.FieldMap)
	state.Artifacts.Records = records
	state.Artifacts.ParseStats = stats

	s.metrics.RecordLoad(ctx, stats.Records, stats.Dropped, stats.InvalidValues)
	if stats.Dropped > 0 {
		s.logger.WarnContext(ctx, "Rows dropped", slog.Int("dropped", stats.Dropped))
	}

	state.SetContext(ContextKeyRecords, stats.Records)
	state.SetContext(ContextKeyDropped, stats.Dropped)
	state.SetContext(ContextKeyInvalidValues, stats.InvalidValues)
	setStepMetadata(state, s.ID(), "records", stats.Records)
	setStepMetadata(state, s.ID(), "dropped", stats.Dropped)
	setStepMetadata(state, s.ID(), "invalid_values", stats.InvalidValues)
	recordData(state, DataTypeRecords, s.ID(), len(records))

	infrastructure.SetSpanAttributes(ctx, map[string]interface{}{
		"records.loaded":  stats.Records,
		"records.dropped": stats.Dropped,
		"values.invalid":  stats.InvalidValues,
	})
	return nil
}

// EnrichStage computes the derived per-record metrics.
type EnrichStage struct {
	BaseStage
	processor *dataprocessing.Processor
	logger    *slog.Logger
}

// NewEnrichStage creates the metric calculation step
func NewEnrichStage(p *dataprocessing.Processor, logger *slog.Logger) *EnrichStage {
	return &EnrichStage{
		BaseStage: NewBaseStage(StageIDEnrich, StageNameEnrich, []string{StageIDParse}).
			WithData([]string{DataTypeRecords}, DataTypeEnriched),
		processor: p,
		logger:    stageLogger(logger, StageIDEnrich),
	}
}

// Execute enriches the parsed records
func (s *EnrichStage) Execute(ctx context.Context, state *OperationState) error {
	enriched := s.processor.Enrich(state.Artifacts.Records)
	state.Artifacts.Enriched = enriched

	setStepMetadata(state, s.ID(), "records", len(enriched))
	setStepMetadata(state, s.ID(), "scale", s.processor.Scale().Name())
	recordData(state, DataTypeEnriched, s.ID(), len(enriched))
	return nil
}

// AggregateStage runs every grouping plus the side analyses.
type AggregateStage struct {
	BaseStage
	engine      *dataprocessing.Engine
	groupings   []domain.Grouping
	topProgress int
	topLatest   int
	metrics     *infrastructure.PipelineMetrics
	logger      *slog.Logger
}

// NewAggregateStage creates the aggregation step
func NewAggregateStage(e *dataprocessing.Engine, groupings []domain.Grouping, topProgress, topLatest int, metrics *infrastructure.PipelineMetrics, logger *slog.Logger) *AggregateStage {
	return &AggregateStage{
		BaseStage: NewBaseStage(StageIDAggregate, StageNameAggregate, []string{StageIDEnrich}).
			WithData([]string{DataTypeEnriched}, DataTypeResults),
		engine:      e,
		groupings:   groupings,
		topProgress: topProgress,
		topLatest:   topLatest,
		metrics:     metrics,
		logger:      stageLogger(logger, StageIDAggregate),
	}
}

// Validate requires at least one grouping
func (s *AggregateStage) Validate(state *OperationState) error {
	if len(s.groupings) == 0 {
		return fmt.Errorf("no groupings configured")
	}
	return nil
}

// Execute aggregates the enriched records
func (s *AggregateStage) Execute(ctx context.Context, state *OperationState) error {
	records := state.Artifacts.Enriched

	results, err := s.engine.AggregateAll(ctx, records, s.groupings)
	if err != nil {
		return err
	}
	state.Artifacts.Results = results
	state.Artifacts.Correlation = dataprocessing.PillarCorrelation(records)
	state.Artifacts.Progress = dataprocessing.ScoreProgress(records, s.topProgress)
	state.Artifacts.Latest = dataprocessing.LatestScores(records, s.topLatest)
	state.Artifacts.Deltas = dataprocessing.DeltaDistribution(records)

	for _, rs := range results {
		s.metrics.RecordGroups(ctx, rs.Grouping.Name, len(rs.Results))
		s.logger.DebugContext(ctx, "Grouping aggregated",
			slog.String("grouping", rs.Grouping.Name),
			slog.Int("groups", len(rs.Results)),
			slog.Int("excluded", rs.Excluded))
	}

	state.SetContext(ContextKeyGroupings, len(results))
	setStepMetadata(state, s.ID(), "groupings", len(results))
	recordData(state, DataTypeResults, s.ID(), len(results))
	return nil
}

// SummarizeStage builds the flat summary report.
type SummarizeStage struct {
	BaseStage
	summarizer *dataprocessing.Summarizer
}

// NewSummarizeStage creates the summary step
func NewSummarizeStage(s *dataprocessing.Summarizer) *SummarizeStage {
	return &SummarizeStage{
		BaseStage: NewBaseStage(StageIDSummarize, StageNameSummarize, []string{StageIDAggregate}).
			WithData([]string{DataTypeEnriched, DataTypeResults}, DataTypeSummary),
		summarizer: s,
	}
}

// Execute summarises the run
func (s *SummarizeStage) Execute(ctx context.Context, state *OperationState) error {
	a := state.Artifacts
	var gaps []domain.Field
	if a.FieldMap != nil {
		gaps = a.FieldMap.Gaps()
	}

	a.Summary = s.summarizer.Summarize(ctx, a.Enriched, a.Results, dataprocessing.SummaryMeta{
		Dropped:       a.ParseStats.Dropped,
		InvalidValues: a.ParseStats.InvalidValues,
		Unresolved:    gaps,
	})

	setStepMetadata(state, s.ID(), "lines", a.Summary.Len())
	recordData(state, DataTypeSummary, s.ID(), a.Summary.Len())
	return nil
}

// ExportStage hands the finished artifacts to every configured sink.
type ExportStage struct {
	BaseStage
	exporters      []exporter.Exporter
	scale          string
	includeRecords bool
	metrics        *infrastructure.PipelineMetrics
	logger         *slog.Logger
}

// NewExportStage creates the export step
func NewExportStage(exporters []exporter.Exporter, scale string, includeRecords bool, metrics *infrastructure.PipelineMetrics, logger *slog.Logger) *ExportStage {
	return &ExportStage{
		BaseStage: NewBaseStage(StageIDExport, StageNameExport, []string{StageIDSummarize}).
			WithData([]string{DataTypeSummary}, DataTypeExportFiles),
		exporters:      exporters,
		scale:          scale,
		includeRecords: includeRecords,
		metrics:        metrics,
		logger:         stageLogger(logger, StageIDExport),
	}
}

// Validate requires at least one sink
func (s *ExportStage) Validate(state *OperationState) error {
	if len(s.exporters) == 0 {
		return fmt.Errorf("no export formats configured")
	}
	return nil
}

// Execute writes every format in turn. The first failing sink stops the
// step; files already written stay on disk.
func (s *ExportStage) Execute(ctx context.Context, state *OperationState) error {
	report := BuildReport(state, s.scale, s.includeRecords)

	var all []string
	for _, e := range s.exporters {
		if err := ctx.Err(); err != nil {
			return err
		}
		files, err := e.Export(ctx, report)
		if err != nil {
			return fmt.Errorf("%s export failed: %w", e.Format(), err)
		}
		state.Artifacts.Files[e.Format()] = files
		s.metrics.RecordExport(ctx, e.Format(), len(files))
		all = append(all, files...)
	}

	state.SetContext(ContextKeyFilesWritten, len(all))
	setStepMetadata(state, s.ID(), "files", len(all))
	recordData(state, DataTypeExportFiles, s.ID(), len(all), all...)
	return nil
}

// BuildReport collects the artifacts of state into an export report
func BuildReport(state *OperationState, scale string, includeRecords bool) *exporter.Report {
	a := state.Artifacts
	report := &exporter.Report{
		RunID:       state.ID,
		Source:      state.Input,
		GeneratedAt: time.Now(),
		Scale:       scale,
		Summary:     a.Summary,
		Results:     a.Results,
		Progress:    a.Progress,
		Latest:      a.Latest,
		Deltas:      a.Deltas,
		Profile:     a.Profile,
		Correlation: a.Correlation,
	}
	if a.Summary != nil {
		report.GeneratedAt = a.Summary.GeneratedAt()
	}
	if a.FieldMap != nil {
		report.SchemaVersion = a.FieldMap.Version()
		report.Bindings = a.FieldMap.Bindings()
		report.Gaps = a.FieldMap.Gaps()
	}
	if includeRecords {
		report.Records = a.Enriched
	}
	return report
}
