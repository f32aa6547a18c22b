package logging

import "time"

// #region audit-events

// Audit event names.
const (
	EventSessionCreated  = "session_created"
	EventEvaluatorResult = "evaluator_result"
	EventExternalWarning = "external_warning"
	EventSessionEnded    = "session_ended"
)

// #endregion audit-events

// #region audit-entry

// AuditEntry is a single row in the audit_log table.
type AuditEntry struct {
	ID         int64     `json:"id" yaml:"id"`
	SessionID  string    `json:"session_id" yaml:"session_id"`
	Event      string    `json:"event" yaml:"event"`
	DetailJSON string    `json:"detail,omitempty" yaml:"detail,omitempty"`
	Reason     string    `json:"reason,omitempty" yaml:"reason,omitempty"`
	CreatedAt  time.Time `json:"created_at" yaml:"created_at"`
}

// #endregion audit-entry

// #region evaluator-record

// EvaluatorRecord is the detail payload of an evaluator_result row.
type EvaluatorRecord struct {
	Kind     string `json:"kind"`
	Seq      uint64 `json:"seq"`
	Merged   bool   `json:"merged"`
	Degraded bool   `json:"degraded"`
}

// EndRecord is the detail payload of a session_ended row.
type EndRecord struct {
	Verdict          string  `json:"verdict"`
	FinalScore       float64 `json:"final_score"`
	IntegrityScore   int     `json:"integrity_score"`
	MonitorWarnings  int     `json:"monitor_warnings"`
	ExternalWarnings int     `json:"external_warnings"`
	Degraded         bool    `json:"degraded"`
	TasksTimedOut    bool    `json:"tasks_timed_out,omitempty"`
}

// #endregion evaluator-record
