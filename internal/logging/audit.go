package logging

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"
)

// #region log-decision

// LogDecision writes one row to the audit_log table.
func LogDecision(ctx context.Context, db *sql.DB, entry AuditEntry) error {
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}

	_, err := db.ExecContext(ctx,
		`INSERT INTO audit_log (session_id, event, detail_json, reason, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		entry.SessionID,
		entry.Event,
		nullIfEmpty(entry.DetailJSON),
		nullIfEmpty(entry.Reason),
		entry.CreatedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("log decision: %w", err)
	}
	return nil
}

// #endregion log-decision

// #region audit-log

// AuditLog records orchestration decisions for one database.
type AuditLog struct {
	db *sql.DB
}

func NewAuditLog(db *sql.DB) *AuditLog {
	return &AuditLog{db: db}
}

// Record marshals detail to JSON and writes an audit row.
func (a *AuditLog) Record(ctx context.Context, sessionID, event string, detail any, reason string) error {
	var detailJSON string
	if detail != nil {
		b, err := json.Marshal(detail)
		if err != nil {
			return fmt.Errorf("marshal audit detail: %w", err)
		}
		detailJSON = string(b)
	}
	return LogDecision(ctx, a.db, AuditEntry{
		SessionID:  sessionID,
		Event:      event,
		DetailJSON: detailJSON,
		Reason:     reason,
	})
}

// Entries returns a session's audit rows oldest first.
func (a *AuditLog) Entries(ctx context.Context, sessionID string) ([]AuditEntry, error) {
	rows, err := a.db.QueryContext(ctx,
		`SELECT id, session_id, event, detail_json, reason, created_at
		 FROM audit_log WHERE session_id = ? ORDER BY id`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("query audit log: %w", err)
	}
	defer rows.Close()

	var out []AuditEntry
	for rows.Next() {
		var (
			e              AuditEntry
			detail, reason sql.NullString
			ts             string
		)
		if err := rows.Scan(&e.ID, &e.SessionID, &e.Event, &detail, &reason, &ts); err != nil {
			return nil, fmt.Errorf("scan audit row: %w", err)
		}
		e.DetailJSON = detail.String
		e.Reason = reason.String
		e.CreatedAt, _ = time.Parse(time.RFC3339Nano, ts)
		out = append(out, e)
	}
	return out, rows.Err()
}

// #endregion audit-log

// #region helpers
func nullIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

// #endregion helpers
