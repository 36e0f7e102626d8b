package exporter

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"time"

	_ "modernc.org/sqlite"

	"esgcli/internal/config"
	"esgcli/pkg/contracts/domain"
)

var sqliteSchema = []string{
	`DROP TABLE IF EXISTS runs`,
	`DROP TABLE IF EXISTS field_bindings`,
	`DROP TABLE IF EXISTS summary`,
	`DROP TABLE IF EXISTS aggregations`,
	`DROP TABLE IF EXISTS records`,
	`DROP TABLE IF EXISTS latest_scores`,
	`CREATE TABLE runs (
		run_id TEXT PRIMARY KEY,
		source TEXT,
		generated_at TEXT,
		scale TEXT,
		schema_version TEXT
	)`,
	`CREATE TABLE field_bindings (
		run_id TEXT,
		field TEXT,
		column_name TEXT,
		origin TEXT
	)`,
	`CREATE TABLE summary (
		run_id TEXT,
		position INTEGER,
		key TEXT,
		value TEXT
	)`,
	`CREATE TABLE aggregations (
		run_id TEXT,
		grouping TEXT,
		position INTEGER,
		group_key TEXT,
		count INTEGER,
		share REAL,
		parent_share REAL,
		metric TEXT,
		n INTEGER,
		mean REAL,
		std REAL,
		min REAL,
		max REAL
	)`,
	`CREATE TABLE latest_scores (
		run_id TEXT,
		metric TEXT,
		rank INTEGER,
		issuer TEXT,
		as_of_date TEXT,
		value REAL
	)`,
	`CREATE TABLE records (
		run_id TEXT,
		row INTEGER,
		issuer TEXT,
		as_of_date TEXT,
		rating TEXT,
		previous_rating TEXT,
		industry TEXT,
		country TEXT,
		total_score REAL,
		rating_delta REAL,
		pillar_average REAL
	)`,
}

// SQLiteExporter writes the report into a fresh SQLite database.
type SQLiteExporter struct {
	paths  *config.Paths
	logger *slog.Logger
}

// NewSQLiteExporter creates a SQLite exporter
func NewSQLiteExporter(paths *config.Paths, logger *slog.Logger) *SQLiteExporter {
	if logger == nil {
		logger = slog.Default()
	}
	return &SQLiteExporter{paths: paths, logger: logger}
}

// Format implements Exporter
func (e *SQLiteExporter) Format() string {
	return config.FormatSQLite
}

// Export implements Exporter. Aggregations are stored long: one row per
// group and metric, with a NULL metric row carrying count-only groups.
func (e *SQLiteExporter) Export(ctx context.Context, report *Report) ([]string, error) {
	path := e.paths.GetOutputPath(config.ReportDBFile)
	_ = os.Remove(path)

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	for _, stmt := range sqliteSchema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return nil, fmt.Errorf("failed to create schema: %w", err)
		}
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	if err := writeReportRows(ctx, tx, report); err != nil {
		_ = tx.Rollback()
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit: %w", err)
	}

	e.logger.InfoContext(ctx, "SQLite export completed", slog.String("path", path))
	return []string{path}, nil
}

func writeReportRows(ctx context.Context, tx *sql.Tx, report *Report) error {
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO runs (run_id, source, generated_at, scale, schema_version) VALUES (?, ?, ?, ?, ?)`,
		report.RunID, report.Source, report.GeneratedAt.UTC().Format(time.RFC3339), report.Scale, report.SchemaVersion,
	); err != nil {
		return fmt.Errorf("failed to insert run: %w", err)
	}

	bind, err := tx.PrepareContext(ctx, `INSERT INTO field_bindings (run_id, field, column_name, origin) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer bind.Close()
	for _, b := range report.Bindings {
		if _, err := bind.ExecContext(ctx, report.RunID, string(b.Field), b.Column, string(b.Origin)); err != nil {
			return fmt.Errorf("failed to insert binding: %w", err)
		}
	}

	if report.Summary != nil {
		sum, err := tx.PrepareContext(ctx, `INSERT INTO summary (run_id, position, key, value) VALUES (?, ?, ?, ?)`)
		if err != nil {
			return err
		}
		defer sum.Close()
		for i, l := range report.Summary.Lines() {
			if _, err := sum.ExecContext(ctx, report.RunID, i, l.Key, l.Value); err != nil {
				return fmt.Errorf("failed to insert summary line: %w", err)
			}
		}
	}

	agg, err := tx.PrepareContext(ctx, `INSERT INTO aggregations
		(run_id, grouping, position, group_key, count, share, parent_share, metric, n, mean, std, min, max)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer agg.Close()
	for _, rs := range report.Presented() {
		for pos, res := range rs.Results {
			key := res.Key.String()
			inserted := false
			for _, m := range rs.Grouping.Metrics {
				st := res.Stat(m)
				if st == nil {
					continue
				}
				if _, err := agg.ExecContext(ctx, report.RunID, rs.Grouping.Name, pos, key,
					res.Count, res.Share, res.ParentShare,
					string(m), st.N, st.Mean, nullNumber(st.Std), st.Min, st.Max,
				); err != nil {
					return fmt.Errorf("failed to insert aggregation: %w", err)
				}
				inserted = true
			}
			if !inserted {
				if _, err := agg.ExecContext(ctx, report.RunID, rs.Grouping.Name, pos, key,
					res.Count, res.Share, res.ParentShare,
					nil, nil, nil, nil, nil, nil,
				); err != nil {
					return fmt.Errorf("failed to insert aggregation: %w", err)
				}
			}
		}
	}

	latest, err := tx.PrepareContext(ctx, `INSERT INTO latest_scores (run_id, metric, rank, issuer, as_of_date, value) VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer latest.Close()
	for _, rk := range report.Latest {
		for i, e := range rk.Entries {
			if _, err := latest.ExecContext(ctx, report.RunID, string(rk.Metric), i+1, e.Issuer, e.Date, e.Value); err != nil {
				return fmt.Errorf("failed to insert latest score: %w", err)
			}
		}
	}

	if len(report.Records) == 0 {
		return nil
	}
	rec, err := tx.PrepareContext(ctx, `INSERT INTO records
		(run_id, row, issuer, as_of_date, rating, previous_rating, industry, country, total_score, rating_delta, pillar_average)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer rec.Close()
	for i := range report.Records {
		r := &report.Records[i]
		var date sql.NullString
		if r.AsOf.IsPresent() {
			date = sql.NullString{String: r.AsOf.Value.Format("2006-01-02"), Valid: true}
		}
		if _, err := rec.ExecContext(ctx, report.RunID, r.Row,
			nullLabel(r.Issuer), date, nullLabel(r.Rating), nullLabel(r.PreviousRating),
			nullLabel(r.Industry), nullLabel(r.Country),
			nullNumber(r.TotalScore), nullNumber(r.RatingDelta), nullNumber(r.PillarAverage),
		); err != nil {
			return fmt.Errorf("failed to insert record %d: %w", r.Row, err)
		}
	}
	return nil
}

func nullNumber(n domain.Number) sql.NullFloat64 {
	v, ok := n.Get()
	return sql.NullFloat64{Float64: v, Valid: ok}
}

func nullLabel(l domain.Label) sql.NullString {
	return sql.NullString{String: l.Value, Valid: l.IsPresent()}
}
