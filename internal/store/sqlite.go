// Package store persists analysis reports in SQLite so past sessions
// can be listed, fetched, and mined for recurring problems.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	_ "modernc.org/sqlite"

	"github.com/tracelens/trace-diag/internal/models"
)

// ErrNotFound signals that no report exists for the requested ID.
var ErrNotFound = errors.New("report not found")

// Store is the SQLite-backed report history.
type Store struct {
	db *sql.DB
}

// New opens (or creates) the database at path and prepares the schema.
func New(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL; PRAGMA synchronous=NORMAL;"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable WAL mode: %w", err)
	}

	s := &Store{db: db}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("initialize schema: %w", err)
	}
	return s, nil
}

func (s *Store) initSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS reports (
			id TEXT PRIMARY KEY,
			created_at TIMESTAMP NOT NULL,
			trace_digest TEXT NOT NULL,
			entry_count INTEGER NOT NULL,
			finding_count INTEGER NOT NULL,
			critical_count INTEGER NOT NULL,
			findings TEXT NOT NULL,
			warnings TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_reports_created ON reports(created_at)`,
		`CREATE INDEX IF NOT EXISTS idx_reports_digest ON reports(trace_digest)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// SaveReport persists one report. Findings and warnings are stored as
// JSON documents; the summary columns exist for cheap listing.
func (s *Store) SaveReport(ctx context.Context, report models.Report) error {
	findings, err := json.Marshal(report.Findings)
	if err != nil {
		return fmt.Errorf("encode findings: %w", err)
	}
	warnings, err := json.Marshal(report.Warnings)
	if err != nil {
		return fmt.Errorf("encode warnings: %w", err)
	}

	criticals := 0
	for _, f := range report.Findings {
		if f.Severity == models.SeverityCritical {
			criticals++
		}
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO reports (id, created_at, trace_digest, entry_count, finding_count, critical_count, findings, warnings)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		report.ReportID, report.CreatedAt, report.TraceDigest,
		report.EntryCount, len(report.Findings), criticals,
		string(findings), string(warnings),
	)
	if err != nil {
		return fmt.Errorf("insert report: %w", err)
	}
	return nil
}

// GetReport fetches one report by ID.
func (s *Store) GetReport(ctx context.Context, id string) (models.Report, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, created_at, trace_digest, entry_count, findings, warnings
		 FROM reports WHERE id = ?`, id)

	var report models.Report
	var findings, warnings string
	err := row.Scan(&report.ReportID, &report.CreatedAt, &report.TraceDigest,
		&report.EntryCount, &findings, &warnings)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Report{}, ErrNotFound
	}
	if err != nil {
		return models.Report{}, fmt.Errorf("scan report: %w", err)
	}

	if err := json.Unmarshal([]byte(findings), &report.Findings); err != nil {
		return models.Report{}, fmt.Errorf("decode findings: %w", err)
	}
	if err := json.Unmarshal([]byte(warnings), &report.Warnings); err != nil {
		return models.Report{}, fmt.Errorf("decode warnings: %w", err)
	}
	return report, nil
}

// ListReports returns summaries of the most recent reports.
func (s *Store) ListReports(ctx context.Context, limit int) ([]models.ReportSummary, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, created_at, entry_count, finding_count, critical_count
		 FROM reports ORDER BY created_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list reports: %w", err)
	}
	defer rows.Close()

	summaries := make([]models.ReportSummary, 0)
	for rows.Next() {
		var s models.ReportSummary
		if err := rows.Scan(&s.ReportID, &s.CreatedAt, &s.EntryCount, &s.FindingCount, &s.Criticals); err != nil {
			return nil, fmt.Errorf("scan summary: %w", err)
		}
		summaries = append(summaries, s)
	}
	return summaries, rows.Err()
}

// RecentReports returns the most recent full reports, newest first,
// for pattern mining.
func (s *Store) RecentReports(ctx context.Context, limit int) ([]models.Report, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, created_at, trace_digest, entry_count, findings, warnings
		 FROM reports ORDER BY created_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query reports: %w", err)
	}
	defer rows.Close()

	reports := make([]models.Report, 0)
	for rows.Next() {
		var report models.Report
		var findings, warnings string
		if err := rows.Scan(&report.ReportID, &report.CreatedAt, &report.TraceDigest,
			&report.EntryCount, &findings, &warnings); err != nil {
			return nil, fmt.Errorf("scan report: %w", err)
		}
		if err := json.Unmarshal([]byte(findings), &report.Findings); err != nil {
			return nil, fmt.Errorf("decode findings: %w", err)
		}
		if err := json.Unmarshal([]byte(warnings), &report.Warnings); err != nil {
			return nil, fmt.Errorf("decode warnings: %w", err)
		}
		reports = append(reports, report)
	}
	return reports, rows.Err()
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}
