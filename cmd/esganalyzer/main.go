package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"
	"syscall"

	"github.com/samber/lo"

	"esgcli/internal/config"
	apperrors "esgcli/internal/errors"
	"esgcli/internal/files"
	"esgcli/internal/infrastructure"
	"esgcli/internal/loader"
	"esgcli/internal/operations"
	"esgcli/internal/schema"
	"esgcli/internal/validation"
	"esgcli/pkg/contracts"
)

// Exit codes
const (
	exitOK        = 0
	exitFatal     = 1
	exitUsage     = 2
	exitCancelled = 130
)

const usage = `Usage:
  esganalyzer analyze -input <file|dir> [-config cfg.yaml] [-out dir] [-formats csv,json,xlsx,sqlite]
                      [-scale msci] [-top 15] [-records]
  esganalyzer schema  -input <file|dir> [-config cfg.yaml]
  esganalyzer version
`

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		fmt.Fprint(stderr, usage)
		return exitUsage
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	switch args[0] {
	case "analyze":
		return runAnalyze(ctx, args[1:], stdout, stderr)
	case "schema":
		return runSchema(ctx, args[1:], stdout, stderr)
	case "version":
		fmt.Fprintln(stdout, contracts.GetFullVersionString())
		return exitOK
	case "-h", "-help", "--help", "help":
		fmt.Fprint(stdout, usage)
		return exitOK
	default:
		fmt.Fprintf(stderr, "unknown command %q\n\n%s", args[0], usage)
		return exitUsage
	}
}

type analyzeFlags struct {
	input   string
	config  string
	out     string
	formats string
	scale   string
	top     int
	records bool
}

func parseAnalyzeFlags(args []string, stderr io.Writer) (*analyzeFlags, error) {
	f := &analyzeFlags{}
	fs := flag.NewFlagSet("analyze", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&f.input, "input", "", "input export file, or a directory to take the newest export from")
	fs.StringVar(&f.config, "config", "", "config file (defaults to esg.yaml or configs/esg.yaml when present)")
	fs.StringVar(&f.out, "out", "", "output directory (overrides paths.output_dir)")
	fs.StringVar(&f.formats, "formats", "", "comma-separated export formats: csv, json, xlsx, sqlite")
	fs.StringVar(&f.scale, "scale", "", "rating scale name (overrides analysis.scale)")
	fs.IntVar(&f.top, "top", -1, "leaderboard size for industries, countries and companies")
	fs.BoolVar(&f.records, "records", false, "also export the enriched records")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if f.input == "" {
		return nil, fmt.Errorf("-input is required")
	}
	return f, nil
}

// applyOverrides copies command line flags onto cfg and revalidates it
func applyOverrides(cfg *config.Config, f *analyzeFlags) error {
	if f.out != "" {
		cfg.Paths.OutputDir = f.out
	}
	if f.scale != "" {
		cfg.Analysis.Scale = f.scale
	}
	if f.top >= 0 {
		cfg.Analysis.TopIndustries = f.top
		cfg.Analysis.TopCountries = f.top
		cfg.Analysis.TopCompanies = f.top
	}
	if f.formats != "" {
		var formats []string
		for _, s := range strings.Split(f.formats, ",") {
			if s = strings.ToLower(strings.TrimSpace(s)); s != "" {
				formats = append(formats, s)
			}
		}
		cfg.Export.Formats = formats
	}
	if f.records {
		cfg.Export.IncludeRecords = true
	}
	return cfg.Validate()
}

func runAnalyze(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	flags, err := parseAnalyzeFlags(args, stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return exitOK
		}
		fmt.Fprintf(stderr, "%v\n\n%s", err, usage)
		return exitUsage
	}

	cfg, err := config.Load(flags.config)
	if err != nil {
		return reportError(stderr, err)
	}
	if err := applyOverrides(cfg, flags); err != nil {
		return reportError(stderr, err)
	}

	paths, err := cfg.ResolvePaths()
	if err != nil {
		return reportError(stderr, apperrors.NewConfigError("failed to resolve paths", err))
	}
	if err := paths.EnsureDirectories(); err != nil {
		return reportError(stderr, apperrors.NewConfigError("failed to create directories", err))
	}

	cfg.Logging.FilePath = paths.LogFile
	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		fmt.Fprintf(stderr, "warning: logger init failed, using default: %v\n", err)
		logger = slog.Default()
	}
	defer func() { _ = infrastructure.CloseLogFile() }()
	paths.LogPathResolution(logger)

	validator := validation.NewFileValidator(logger)
	if err := validator.ValidateOutputDirectory(paths.OutputDir); err != nil {
		return reportError(stderr, err)
	}

	input, err := files.NewDiscovery(paths.BaseDir).ResolveInput(flags.input)
	if err != nil {
		return reportError(stderr, apperrors.NewDataLoadError("cannot resolve input", err))
	}
	if err := validator.ValidateInputFile(input); err != nil {
		return reportError(stderr, err)
	}

	providers, err := infrastructure.InitializeOTel(infrastructure.NewOTelConfig(cfg.Telemetry), logger)
	if err != nil {
		return reportError(stderr, apperrors.NewConfigError("failed to initialize telemetry", err))
	}
	defer func() {
		if err := providers.Shutdown(context.Background()); err != nil {
			logger.Warn("Telemetry shutdown failed", slog.String("error", err.Error()))
		}
	}()

	tracer, err := operations.NewOperationTracer(providers)
	if err != nil {
		return reportError(stderr, apperrors.NewConfigError("failed to initialize pipeline metrics", err))
	}

	manager, err := operations.NewPipeline(operations.StageOptions{
		Config: cfg,
		Paths:  paths,
		Logger: logger,
	}, &operations.Config{ManifestDir: paths.OutputDir}, tracer)
	if err != nil {
		return reportError(stderr, err)
	}

	ctx, runID := infrastructure.RunContext(ctx, "")

	logger.InfoContext(ctx, "Starting ESG analysis",
		slog.String("input", input),
		slog.String("output_dir", paths.OutputDir),
		slog.String("scale", cfg.Analysis.Scale),
		slog.String("formats", strings.Join(cfg.Export.Formats, ",")))

	state, runErr := manager.Execute(ctx, operations.OperationRequest{ID: runID, Input: input})

	if path := metricsPath(cfg, paths); path != "" {
		if err := providers.WriteMetrics(path); err != nil {
			logger.WarnContext(ctx, "Metrics dump failed", slog.String("error", err.Error()))
		}
	}

	printSummary(stdout, state)
	printGaps(stderr, state)

	if runErr != nil {
		if operations.GetErrorType(runErr) == operations.ErrorTypeCancellation {
			fmt.Fprintln(stderr, "analysis cancelled")
			return exitCancelled
		}
		return reportError(stderr, runErr)
	}

	for _, format := range cfg.Export.Formats {
		for _, f := range state.Artifacts.Files[format] {
			fmt.Fprintf(stdout, "wrote %s\n", f)
		}
	}
	return exitOK
}

func metricsPath(cfg *config.Config, paths *config.Paths) string {
	p := cfg.Telemetry.MetricsFile
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return paths.GetOutputPath(p)
}

func printSummary(w io.Writer, state *operations.OperationState) {
	if state == nil || state.Artifacts.Summary == nil {
		return
	}
	for _, line := range state.Artifacts.Summary.Lines() {
		fmt.Fprintf(w, "%-28s %s\n", line.Key, line.Value)
	}
}

func printGaps(w io.Writer, state *operations.OperationState) {
	if state == nil || state.Artifacts.FieldMap == nil {
		return
	}
	gaps := state.Artifacts.FieldMap.Gaps()
	if len(gaps) == 0 {
		return
	}
	names := make([]string, len(gaps))
	for i, g := range gaps {
		names[i] = string(g)
	}
	fmt.Fprintf(w, "warning: %d field(s) unresolved: %s\n", len(gaps), strings.Join(names, ", "))
}

// reportError prints err and maps it to an exit code. Only input and
// configuration errors fail the process.
func reportError(w io.Writer, err error) int {
	fmt.Fprintf(w, "error: %v\n", err)
	details := apperrors.ContextOf(err)
	keys := lo.Keys(details)
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(w, "  %s: %v\n", k, details[k])
	}
	if apperrors.IsFatal(err) {
		return exitFatal
	}
	return exitOK
}

func runSchema(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("schema", flag.ContinueOnError)
	fs.SetOutput(stderr)
	inputFlag := fs.String("input", "", "input export file or directory")
	configFlag := fs.String("config", "", "config file with keyword overrides")
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return exitOK
		}
		return exitUsage
	}
	if *inputFlag == "" {
		fmt.Fprintf(stderr, "-input is required\n\n%s", usage)
		return exitUsage
	}

	cfg, err := config.Load(*configFlag)
	if err != nil {
		return reportError(stderr, err)
	}

	input, err := files.NewDiscovery("").ResolveInput(*inputFlag)
	if err != nil {
		return reportError(stderr, apperrors.NewDataLoadError("cannot resolve input", err))
	}

	logger := infrastructure.NewJSONLogger(stderr, &slog.HandlerOptions{Level: slog.LevelWarn})
	table, err := loader.NewLoader(logger).Load(ctx, input)
	if err != nil {
		return reportError(stderr, err)
	}

	resolver, err := schema.NewResolverFromConfig(cfg.Schema, logger)
	if err != nil {
		return reportError(stderr, err)
	}
	out, err := resolver.Suggest(table.Columns)
	if err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return exitFatal
	}
	fmt.Fprintf(stdout, "# suggested mapping for %s\n", filepath.Base(input))
	stdout.Write(out)
	return exitOK
}
