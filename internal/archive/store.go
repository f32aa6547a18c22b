package archive

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrations embed.FS

// #region store-struct

// Store archives ended sessions, evidence snapshots and the audit trail in SQLite.
type Store struct {
	db *sql.DB
}

// #endregion store-struct

// #region constructor

// Open opens a SQLite database and applies pending migrations. Use ":memory:" for tests.
func Open(ctx context.Context, dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if dbPath == ":memory:" {
		// every pooled connection would otherwise see its own empty database
		db.SetMaxOpenConns(1)
	}
	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("pragma: %w", err)
	}
	if _, err := db.ExecContext(ctx, "PRAGMA busy_timeout=5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("pragma busy_timeout: %w", err)
	}
	if err := migrate(ctx, db); err != nil {
		db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

// OpenReadOnly opens an existing archive for inspection. It applies no
// migrations and leaves the journal mode untouched; writes fail.
func OpenReadOnly(ctx context.Context, dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", "file:"+dbPath+"?mode=ro&_pragma=busy_timeout(5000)&_pragma=query_only(1)")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("open db %s: %w", dbPath, err)
	}
	return &Store{db: db}, nil
}

func migrate(ctx context.Context, db *sql.DB) error {
	fsys, err := fs.Sub(migrations, "migrations")
	if err != nil {
		return fmt.Errorf("migrations fs: %w", err)
	}
	p, err := goose.NewProvider(goose.DialectSQLite3, db, fsys)
	if err != nil {
		return fmt.Errorf("goose provider: %w", err)
	}
	if _, err := p.Up(ctx); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// DB returns the underlying *sql.DB for the audit log.
func (s *Store) DB() *sql.DB {
	return s.db
}

// #endregion constructor

// #region reports

// SaveReport inserts or replaces the archived report for a session.
func (s *Store) SaveReport(ctx context.Context, rec ReportRecord) error {
	candidate, err := json.Marshal(rec.Candidate)
	if err != nil {
		return fmt.Errorf("marshal candidate: %w", err)
	}
	report, err := json.Marshal(rec.Report)
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}
	transcript, _ := json.Marshal(rec.Transcript)
	monitorW, _ := json.Marshal(rec.MonitorWarnings)
	externalW, _ := json.Marshal(rec.ExternalWarnings)

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO session_reports (session_id, join_code, candidate_json, verdict, final_score, integrity_score,
			degraded, report_json, transcript_json, monitor_warnings_json, external_warnings_json, created_at, ended_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(session_id) DO UPDATE SET
			verdict = excluded.verdict,
			final_score = excluded.final_score,
			integrity_score = excluded.integrity_score,
			degraded = excluded.degraded,
			report_json = excluded.report_json,
			transcript_json = excluded.transcript_json,
			monitor_warnings_json = excluded.monitor_warnings_json,
			external_warnings_json = excluded.external_warnings_json,
			ended_at = excluded.ended_at`,
		rec.SessionID, rec.JoinCode, string(candidate), string(rec.Report.Verdict), rec.Report.FinalScore,
		rec.Report.IntegrityScore, boolInt(rec.Report.Degraded), string(report), string(transcript),
		string(monitorW), string(externalW),
		rec.CreatedAt.UTC().Format(time.RFC3339Nano), rec.EndedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("save report: %w", err)
	}
	return nil
}

// GetReport loads one archived session.
func (s *Store) GetReport(ctx context.Context, sessionID string) (ReportRecord, error) {
	var (
		rec                             ReportRecord
		candidate, report               string
		transcript, monitorW, externalW sql.NullString
		createdAt, endedAt              string
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT session_id, join_code, candidate_json, report_json, transcript_json,
			monitor_warnings_json, external_warnings_json, created_at, ended_at
		 FROM session_reports WHERE session_id = ?`, sessionID,
	).Scan(&rec.SessionID, &rec.JoinCode, &candidate, &report, &transcript, &monitorW, &externalW, &createdAt, &endedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return ReportRecord{}, fmt.Errorf("%w: %s", ErrNotFound, sessionID)
	}
	if err != nil {
		return ReportRecord{}, fmt.Errorf("get report: %w", err)
	}

	if err := json.Unmarshal([]byte(candidate), &rec.Candidate); err != nil {
		return ReportRecord{}, fmt.Errorf("unmarshal candidate: %w", err)
	}
	if err := json.Unmarshal([]byte(report), &rec.Report); err != nil {
		return ReportRecord{}, fmt.Errorf("unmarshal report: %w", err)
	}
	if err := unmarshalNullable(transcript, &rec.Transcript); err != nil {
		return ReportRecord{}, err
	}
	if err := unmarshalNullable(monitorW, &rec.MonitorWarnings); err != nil {
		return ReportRecord{}, err
	}
	if err := unmarshalNullable(externalW, &rec.ExternalWarnings); err != nil {
		return ReportRecord{}, err
	}
	rec.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
	rec.EndedAt, _ = time.Parse(time.RFC3339Nano, endedAt)
	return rec, nil
}

// ListReports returns the most recently ended sessions first. limit <= 0 means no limit.
func (s *Store) ListReports(ctx context.Context, limit int) ([]ReportSummary, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT session_id, candidate_json, verdict, final_score, integrity_score, ended_at
		 FROM session_reports ORDER BY ended_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list reports: %w", err)
	}
	defer rows.Close()

	var out []ReportSummary
	for rows.Next() {
		var (
			sum       ReportSummary
			candidate string
			endedAt   string
		)
		if err := rows.Scan(&sum.SessionID, &candidate, &sum.Verdict, &sum.FinalScore, &sum.IntegrityScore, &endedAt); err != nil {
			return nil, fmt.Errorf("scan report: %w", err)
		}
		var c struct {
			Name string `json:"name"`
		}
		_ = json.Unmarshal([]byte(candidate), &c)
		sum.CandidateName = c.Name
		sum.EndedAt, _ = time.Parse(time.RFC3339Nano, endedAt)
		out = append(out, sum)
	}
	return out, rows.Err()
}

// #endregion reports

// #region evidence

// RecordEvidence indexes a stored evidence snapshot.
func (s *Store) RecordEvidence(ctx context.Context, sessionID, path string, capturedAt time.Time) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO evidence (session_id, path, captured_at) VALUES (?, ?, ?)`,
		sessionID, path, capturedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("record evidence: %w", err)
	}
	return nil
}

// ListEvidence returns a session's snapshots in capture order.
func (s *Store) ListEvidence(ctx context.Context, sessionID string) ([]Evidence, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, session_id, path, captured_at FROM evidence WHERE session_id = ? ORDER BY id`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("list evidence: %w", err)
	}
	defer rows.Close()

	var out []Evidence
	for rows.Next() {
		var (
			e  Evidence
			ts string
		)
		if err := rows.Scan(&e.ID, &e.SessionID, &e.Path, &ts); err != nil {
			return nil, fmt.Errorf("scan evidence: %w", err)
		}
		e.CapturedAt, _ = time.Parse(time.RFC3339Nano, ts)
		out = append(out, e)
	}
	return out, rows.Err()
}

// #endregion evidence

// #region helpers

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func unmarshalNullable(ns sql.NullString, v any) error {
	if !ns.Valid || ns.String == "" {
		return nil
	}
	if err := json.Unmarshal([]byte(ns.String), v); err != nil {
		return fmt.Errorf("unmarshal column: %w", err)
	}
	return nil
}

// #endregion helpers
