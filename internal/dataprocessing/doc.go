// Package dataprocessing turns a loaded rating export into metrics,
// aggregations and a summary report.
//
// # Architecture
//
// The package is organised into four components, used in this order:
//
//  1. Parser: coerces table cells into typed records using a resolved field map
//  2. Processor: fills rating ranks, rating deltas and pillar averages
//  3. Engine: groups records along dimensions and computes per-group statistics
//  4. Summarizer: reduces records and results into a flat, ordered report
//
// # Usage
//
//	fm := resolver.Resolve(table.Columns)
//	records, stats := dataprocessing.NewParser(scale, logger).Parse(table, fm)
//	records = dataprocessing.NewProcessor(scale, logger).Enrich(records)
//
//	engine := dataprocessing.NewEngine(logger)
//	results, err := engine.AggregateAll(ctx, records, dataprocessing.StandardGroupings(cfg.Analysis))
//
//	report := dataprocessing.NewSummarizer(logger, dataprocessing.DefaultSummarizerConfig()).
//	    Summarize(ctx, records, results, dataprocessing.SummaryMeta{Dropped: stats.Dropped})
//
// # Missing values
//
// Every optional value carries a domain.ValueState. A metric is left out of
// a computation only when that metric itself is absent or invalid for the
// record: a record with a total score but no pillars still counts towards
// total-score statistics.
//
// Records are never modified once enriched, so AggregateAll can run every
// grouping in its own goroutine.
package dataprocessing
