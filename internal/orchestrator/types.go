package orchestrator

// #region imports
import (
	"context"
	"errors"
	"time"

	"github.com/danielpatrickdp/interview-controller/internal/archive"
	"github.com/danielpatrickdp/interview-controller/internal/evaluator"
	"github.com/danielpatrickdp/interview-controller/internal/session"
)

// #endregion

// #region errors

// ErrSessionEnded means the session no longer accepts candidate input.
var ErrSessionEnded = errors.New("session already ended")

// #endregion

// #region dependencies

// Evaluators is the capability set the orchestrator dispatches to. *evaluator.Pool satisfies it.
type Evaluators interface {
	JudgeCode(ctx context.Context, in evaluator.CodeJudgeInput) evaluator.CodeJudgeResult
	EvaluateCommunication(ctx context.Context, in evaluator.CommunicationInput) evaluator.CommunicationResult
	AnalyzeReasoning(ctx context.Context, in evaluator.ReasoningInput) evaluator.ReasoningResult
	NextTurn(ctx context.Context, in evaluator.TurnInput) (evaluator.TurnResult, error)
	Aggregate(ctx context.Context, in evaluator.AggregateInput) evaluator.Report
	AnalyzeStuck(ctx context.Context, in evaluator.StuckInput) evaluator.StuckResult
	GenerateProblem(ctx context.Context, topic, background string) (evaluator.Problem, error)
}

// MonitorFactory builds the monitor for a new session. Returning nil disables monitoring.
type MonitorFactory func(sessionID string) session.Monitor

// Archiver persists ended sessions. *archive.Store satisfies it.
type Archiver interface {
	SaveReport(ctx context.Context, rec archive.ReportRecord) error
}

// Auditor records orchestration decisions. *logging.AuditLog satisfies it.
type Auditor interface {
	Record(ctx context.Context, sessionID, event string, detail any, reason string) error
}

// #endregion

// #region config

// Config tunes session lifecycle behavior.
type Config struct {
	AwaitEvaluators bool          // EndSession waits for outstanding evaluator tasks
	EndTimeout      time.Duration // upper bound on that wait
	IdleTTL         time.Duration // 0 disables eviction
	SweepInterval   time.Duration
	StuckIdle       time.Duration // minimum editor idle time before asking the stuck analyzer
	ContextTurns    int           // transcript lines passed as conversation context
}

// DefaultConfig returns a 2h idle TTL and a 30s bound on awaiting evaluators.
func DefaultConfig() Config {
	return Config{
		AwaitEvaluators: true,
		EndTimeout:      30 * time.Second,
		IdleTTL:         2 * time.Hour,
		SweepInterval:   time.Minute,
		StuckIdle:       60 * time.Second,
		ContextTurns:    6,
	}
}

// #endregion
