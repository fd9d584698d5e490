package repository

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

//go:embed schema/schema.sql
var schemaSQL string

// DefaultListLimit caps ListBySource when no limit is given
const DefaultListLimit = 50

// sqliteReportRepository implements ReportRepository on SQLite
type sqliteReportRepository struct {
	conn *sql.DB
}

// NewSQLiteReportRepository opens (creating if needed) the report database
// at filename and applies the schema.
func NewSQLiteReportRepository(filename string) (ReportRepository, error) {
	dsn := fmt.Sprintf("file:%s?cache=shared&_busy_timeout=5000", filename)
	conn, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open report database: %w", err)
	}
	// SQLite allows a single writer at a time
	conn.SetMaxOpenConns(1)

	if _, err := conn.Exec(schemaSQL); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}
	return &sqliteReportRepository{conn: conn}, nil
}

func (r *sqliteReportRepository) Save(ctx context.Context, report *Report) error {
	if report == nil || report.ID == "" || report.CreatedAt.IsZero() {
		return ErrInvalidReport
	}

	result := string(report.Result)
	if result == "" {
		result = "null"
	}

	_, err := r.conn.ExecContext(ctx,
		`INSERT INTO reports (id, kind, source, verdict, created_at, duration_ns, result, markdown)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		report.ID, string(report.Kind), report.Source, report.Verdict,
		report.CreatedAt.UnixNano(), int64(report.Duration), result, report.Markdown,
	)
	if err != nil {
		return fmt.Errorf("failed to save report %s: %w", report.ID, err)
	}
	return nil
}

func (r *sqliteReportRepository) Get(ctx context.Context, id string) (*Report, error) {
	row := r.conn.QueryRowContext(ctx,
		`SELECT id, kind, source, verdict, created_at, duration_ns, result, markdown
		 FROM reports WHERE id = ?`, id)

	report, err := scanReport(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrReportNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load report %s: %w", id, err)
	}
	return report, nil
}

func (r *sqliteReportRepository) ListBySource(ctx context.Context, source string, limit int) ([]*Report, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}

	var (
		rows *sql.Rows
		err  error
	)
	if source == "" {
		rows, err = r.conn.QueryContext(ctx,
			`SELECT id, kind, source, verdict, created_at, duration_ns, result, markdown
			 FROM reports ORDER BY created_at DESC, id LIMIT ?`, limit)
	} else {
		rows, err = r.conn.QueryContext(ctx,
			`SELECT id, kind, source, verdict, created_at, duration_ns, result, markdown
			 FROM reports WHERE source = ? ORDER BY created_at DESC, id LIMIT ?`, source, limit)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list reports: %w", err)
	}
	defer rows.Close()

	var reports []*Report
	for rows.Next() {
		report, err := scanReport(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to read report: %w", err)
		}
		reports = append(reports, report)
	}
	return reports, rows.Err()
}

func (r *sqliteReportRepository) Close() error {
	return r.conn.Close()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanReport(s scanner) (*Report, error) {
	var (
		report    Report
		kind      string
		createdAt int64
		duration  int64
		result    string
	)
	if err := s.Scan(&report.ID, &kind, &report.Source, &report.Verdict,
		&createdAt, &duration, &result, &report.Markdown); err != nil {
		return nil, err
	}
	report.Kind = ReportKind(kind)
	report.CreatedAt = time.Unix(0, createdAt).UTC()
	report.Duration = time.Duration(duration)
	report.Result = []byte(result)
	return &report, nil
}
