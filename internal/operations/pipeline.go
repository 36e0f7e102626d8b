package operations

import (
	"fmt"
	"log/slog"

	"esgcli/internal/config"
	"esgcli/internal/dataprocessing"
	"esgcli/internal/exporter"
	"esgcli/internal/loader"
	"esgcli/internal/schema"
	"esgcli/pkg/contracts/domain"
)

// StageOptions contains the collaborators shared by the pipeline steps
type StageOptions struct {
	Config *config.Config
	Paths  *config.Paths
	// Scale overrides the scale selected by Config.Analysis.Scale.
	Scale *domain.RatingScale
	// Formats overrides Config.Export.Formats.
	Formats []string
	Logger  *slog.Logger
}

// NewPipeline builds a manager with the full analysis pipeline registered:
// load, resolve, parse, enrich, aggregate, summarize and export.
func NewPipeline(opts StageOptions, opConfig *Config, tracer *OperationTracer) (*Manager, error) {
	if opts.Config == nil {
		return nil, fmt.Errorf("pipeline requires a configuration")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	cfg := opts.Config

	scale := opts.Scale
	if scale == nil {
		s, err := cfg.RatingScale("")
		if err != nil {
			return nil, err
		}
		scale = s
	}

	resolver, err := schema.NewResolverFromConfig(cfg.Schema, logger)
	if err != nil {
		return nil, err
	}

	formats := opts.Formats
	if len(formats) == 0 {
		formats = cfg.Export.Formats
	}
	exporters, err := exporter.NewExporters(formats, opts.Paths, logger)
	if err != nil {
		return nil, err
	}

	metrics := tracer.Metrics()
	manager := NewManager(nil, opConfig, tracer, logger)

	steps := []Step{
		NewLoadStage(loader.NewLoader(logger), logger),
		NewResolveStage(resolver, metrics, logger),
		NewParseStage(dataprocessing.NewParser(scale, logger), metrics, logger),
		NewEnrichStage(dataprocessing.NewProcessor(scale, logger), logger),
		NewAggregateStage(dataprocessing.NewEngine(logger), dataprocessing.StandardGroupings(cfg.Analysis),
			cfg.Analysis.TopProgress, cfg.Analysis.TopLatest, metrics, logger),
		NewSummarizeStage(dataprocessing.NewSummarizer(logger, dataprocessing.DefaultSummarizerConfig())),
		NewExportStage(exporters, scale.Name(), cfg.Export.IncludeRecords, metrics, logger),
	}
	for _, step := range steps {
		if err := manager.RegisterStage(step); err != nil {
			return nil, err
		}
	}
	return manager, nil
}
