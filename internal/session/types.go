package session

// #region imports
import (
	"context"
	"errors"

	"github.com/danielpatrickdp/interview-controller/internal/evaluator"
	"github.com/danielpatrickdp/interview-controller/internal/monitor"
)

// #endregion

// #region errors

// ErrNotFound means no live session has the requested id or join code.
var ErrNotFound = errors.New("session not found")

// #endregion

// #region phase

// Interview phases. The phase is advisory: any string is accepted.
const (
	PhaseWarmup           = "warmup"
	PhaseProblemStatement = "problem_statement"
	PhaseClarification    = "clarification"
	PhaseCoding           = "coding"
	PhaseExplanation      = "explanation"
	PhaseFollowup         = "followup"
	PhaseHR               = "hr"
	PhaseEvaluation       = "evaluation"
	PhaseEnd              = "end"
)

// #endregion

// #region monitor

// Monitor is the behavioral monitor a session owns. *monitor.Loop satisfies it.
type Monitor interface {
	Start(ctx context.Context)
	Stop()
	Active() bool
	Warnings() []monitor.Warning
	WarningMessages() []string
	LatestFrame() []byte
}

// #endregion

// #region snapshots

// LiveState is a read-only view for observers joining by code.
type LiveState struct {
	SessionID        string                      `json:"session_id"`
	JoinCode         string                      `json:"join_code"`
	Candidate        evaluator.Profile           `json:"candidate"`
	Phase            string                      `json:"phase"`
	Code             string                      `json:"code"`
	Language         string                      `json:"language"`
	Transcript       []string                    `json:"transcript"`
	MonitorWarnings  []string                    `json:"cheat_warnings"`
	ExternalWarnings []evaluator.ExternalWarning `json:"browser_warnings"`
	MonitorActive    bool                        `json:"is_monitoring_active"`
	Terminated       bool                        `json:"terminated"`
	Ended            bool                        `json:"ended"`
}

// CandidateEvent is what HandleCandidateEvent captured under the session lock.
type CandidateEvent struct {
	Transcript       []string
	Code             string
	Phase            string
	CommunicationSeq uint64
	ReasoningSeq     uint64
	ExternalWarnings []evaluator.ExternalWarning
	TestResults      *evaluator.TestResults // from the latest submission, if any
}

// #endregion
