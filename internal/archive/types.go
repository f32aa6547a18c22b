package archive

import (
	"errors"
	"time"

	"github.com/danielpatrickdp/interview-controller/internal/evaluator"
)

// ErrNotFound means no archived report exists for the session.
var ErrNotFound = errors.New("report not found")

// #region records

// ReportRecord is one archived, ended session.
type ReportRecord struct {
	SessionID        string                      `json:"session_id" yaml:"session_id"`
	JoinCode         string                      `json:"join_code" yaml:"join_code"`
	Candidate        evaluator.Profile           `json:"candidate" yaml:"candidate"`
	Report           evaluator.Report            `json:"report" yaml:"report"`
	Transcript       []string                    `json:"transcript" yaml:"transcript"`
	MonitorWarnings  []string                    `json:"monitor_warnings" yaml:"monitor_warnings"`
	ExternalWarnings []evaluator.ExternalWarning `json:"external_warnings" yaml:"external_warnings"`
	CreatedAt        time.Time                   `json:"created_at" yaml:"created_at"`
	EndedAt          time.Time                   `json:"ended_at" yaml:"ended_at"`
}

// ReportSummary is a listing row.
type ReportSummary struct {
	SessionID      string    `json:"session_id" yaml:"session_id"`
	CandidateName  string    `json:"candidate_name" yaml:"candidate_name"`
	Verdict        string    `json:"verdict" yaml:"verdict"`
	FinalScore     float64   `json:"final_score" yaml:"final_score"`
	IntegrityScore int       `json:"integrity_score" yaml:"integrity_score"`
	EndedAt        time.Time `json:"ended_at" yaml:"ended_at"`
}

// Evidence is an indexed snapshot file.
type Evidence struct {
	ID         int64     `json:"id" yaml:"id"`
	SessionID  string    `json:"session_id" yaml:"session_id"`
	Path       string    `json:"path" yaml:"path"`
	CapturedAt time.Time `json:"captured_at" yaml:"captured_at"`
}

// #endregion records
