// Package exporter writes the results of an analysis run to disk.
//
// Every sink implements Exporter and receives the same Report:
//
// CSVExporter: summary.csv plus one file per grouping and auxiliary table,
// with a UTF-8 BOM for Excel compatibility.
//
// JSONExporter: a single indented report.json.
//
// XLSXExporter: one workbook, one sheet per table.
//
// SQLiteExporter: a fresh database with runs, summary, aggregations,
// field_bindings and records tables.
//
// Groupings are cut to their Limit before writing. Shares are always
// relative to the full grouping.
//
// Example usage:
//
//	exporters, err := exporter.NewExporters(cfg.Export.Formats, paths, logger)
//	for _, e := range exporters {
//		files, err := e.Export(ctx, report)
//	}
package exporter
