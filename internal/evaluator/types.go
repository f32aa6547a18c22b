package evaluator

// #region imports
import (
	"errors"
	"time"

	"github.com/danielpatrickdp/interview-controller/internal/scoring"
)

// #endregion

// #region errors

// ErrMalformedResponse means the model returned text that is not the expected JSON object.
var ErrMalformedResponse = errors.New("malformed model response")

// #endregion

// #region kind

// Kind identifies an evaluator capability whose result is kept on the session.
type Kind string

const (
	KindCodeJudge     Kind = "code_judge"
	KindCommunication Kind = "communication"
	KindReasoning     Kind = "reasoning"
	KindTurn          Kind = "turn"
)

// Result is any typed evaluator output.
type Result interface {
	Kind() Kind
	IsDegraded() bool
}

// #endregion

// #region actions

// Interviewer actions returned by NextTurn.
const (
	ActionAskQuestion = "ask_question"
	ActionGiveHint    = "give_hint"
	ActionRequestCode = "request_code"
	ActionAnalyze     = "analyze"
	ActionEndSession  = "end_session"
)

var validActions = map[string]bool{
	ActionAskQuestion: true,
	ActionGiveHint:    true,
	ActionRequestCode: true,
	ActionAnalyze:     true,
	ActionEndSession:  true,
}

// #endregion

// #region inputs

// Profile describes the candidate and the interview being run.
type Profile struct {
	Name            string   `json:"name"`
	Role            string   `json:"role"`
	ExperienceYears int      `json:"experience_years"`
	Languages       []string `json:"languages"`
	Topic           string   `json:"interview_topic"`
	Difficulty      string   `json:"difficulty_level"`
}

// TestResults summarizes a test run over submitted code.
type TestResults struct {
	Passed      int      `json:"passed"`
	Total       int      `json:"total"`
	FailedCases []string `json:"failed_cases"`
	RuntimeMS   int      `json:"runtime_ms,omitempty"`
}

// Submission is a code submission with the context the judge grades it against.
// Constraints and TestResults are optional.
type Submission struct {
	Code        string       `json:"code"`
	Language    string       `json:"language"`
	Constraints string       `json:"constraints,omitempty"`
	TestResults *TestResults `json:"test_results,omitempty"`
}

// ExternalWarning is an integrity signal reported by the client (tab switch, paste, fullscreen exit).
type ExternalWarning struct {
	Type      string    `json:"type"`
	Message   string    `json:"message"`
	Terminal  bool      `json:"is_terminal"`
	Timestamp time.Time `json:"timestamp"`
}

// CodeJudgeInput is a submission plus the problem it answers.
type CodeJudgeInput struct {
	Code        string      `json:"code"`
	Language    string      `json:"language"`
	Problem     string      `json:"problem"`
	Constraints string      `json:"constraints"`
	TestResults TestResults `json:"test_results"`
}

// CommunicationInput carries the newest transcript chunk.
type CommunicationInput struct {
	Transcript string `json:"transcript"`
}

// ReasoningInput pairs the candidate's explanation with the steps so far.
type ReasoningInput struct {
	Explanation string `json:"approach_explanation"`
	Problem     string `json:"problem"`
	Steps       string `json:"candidate_steps"`
}

// TurnInput is everything the interviewer sees before speaking.
type TurnInput struct {
	Profile     Profile      `json:"candidate"`
	Resume      string       `json:"resume_text"`
	Phase       string       `json:"phase"`
	Transcript  string       `json:"transcript"`
	Code        string       `json:"code_submission"`
	TestResults *TestResults `json:"test_results,omitempty"`
	Warnings    []string     `json:"cheat_warnings"`
	Context     string       `json:"context_summary"`
}

// AggregateInput collects the latest result of each evaluator. Nil means never populated.
type AggregateInput struct {
	CodeJudge        *CodeJudgeResult     `json:"code_judge"`
	Communication    *CommunicationResult `json:"communication_eval"`
	Reasoning        *ReasoningResult     `json:"reasoning_eval"`
	Turn             *TurnResult          `json:"last_turn,omitempty"`
	MonitorWarnings  []string             `json:"proctor_warnings"`
	ExternalWarnings []ExternalWarning    `json:"browser_warnings"`
	Summary          string               `json:"session_summary"`
}

// StuckInput describes an idle candidate.
type StuckInput struct {
	Code       string        `json:"code"`
	Problem    string        `json:"problem"`
	Transcript string        `json:"recent_transcript"`
	Idle       time.Duration `json:"-"`
}

// #endregion

// #region results

// CodeJudgeResult scores a submission on a 0-10 scale.
type CodeJudgeResult struct {
	TechnicalCorrectness float64  `json:"technical_correctness"`
	CodeQuality          float64  `json:"code_quality"`
	Efficiency           float64  `json:"efficiency_rating"`
	EdgeCaseHandling     float64  `json:"edge_case_handling"`
	Issues               []string `json:"issues_detected"`
	Suggestions          []string `json:"optimization_suggestions"`
	Degraded             bool     `json:"degraded,omitempty"`
}

func (r CodeJudgeResult) Kind() Kind       { return KindCodeJudge }
func (r CodeJudgeResult) IsDegraded() bool { return r.Degraded }

// CommunicationResult rates how the candidate explains themselves.
type CommunicationResult struct {
	Communication   float64  `json:"communication_score"`
	Clarity         float64  `json:"clarity_score"`
	Structure       float64  `json:"structure_score"`
	Confidence      float64  `json:"confidence_score"`
	Issues          []string `json:"issues_detected"`
	PositiveSignals []string `json:"positive_signals"`
	Degraded        bool     `json:"degraded,omitempty"`
}

func (r CommunicationResult) Kind() Kind       { return KindCommunication }
func (r CommunicationResult) IsDegraded() bool { return r.Degraded }

// ReasoningResult rates the candidate's problem-solving approach.
type ReasoningResult struct {
	ProblemSolving      float64  `json:"problem_solving_score"`
	Reasoning           float64  `json:"reasoning_score"`
	ComplexityAwareness float64  `json:"complexity_awareness"`
	Debugging           float64  `json:"debugging_skill"`
	Notes               []string `json:"analysis_notes"`
	Degraded            bool     `json:"degraded,omitempty"`
}

func (r ReasoningResult) Kind() Kind       { return KindReasoning }
func (r ReasoningResult) IsDegraded() bool { return r.Degraded }

// TurnResult is the interviewer's next utterance.
type TurnResult struct {
	Utterance string `json:"utterance"`
	Tone      string `json:"tone"`
	Action    string `json:"action"`
	Degraded  bool   `json:"degraded,omitempty"`
}

func (r TurnResult) Kind() Kind       { return KindTurn }
func (r TurnResult) IsDegraded() bool { return r.Degraded }

// StuckResult says whether an idle candidate needs a nudge.
type StuckResult struct {
	IsStuck    bool   `json:"is_stuck"`
	Suggestion string `json:"suggestion"`
	Degraded   bool   `json:"degraded,omitempty"`
}

// Problem is a generated coding exercise.
type Problem struct {
	Title        string `json:"title"`
	Description  string `json:"description"`
	StartingCode string `json:"starting_code"`
	Language     string `json:"language"`
}

// Report is the aggregated end-of-session evaluation.
type Report struct {
	Summary         string            `json:"summary" yaml:"summary"`
	Scores          scoring.Scores    `json:"scores" yaml:"scores"`
	IntegrityScore  int               `json:"integrity_score" yaml:"integrity_score"`
	FinalScore      float64           `json:"final_score_percent" yaml:"final_score_percent"`
	Justifications  map[string]string `json:"justifications" yaml:"justifications"`
	Recommendations []string          `json:"actionable_recommendations" yaml:"actionable_recommendations"`
	Verdict         scoring.Verdict   `json:"performance_level" yaml:"performance_level"`
	IntegrityBreach bool              `json:"integrity_breach" yaml:"integrity_breach"`
	Degraded        bool              `json:"degraded,omitempty" yaml:"degraded,omitempty"`
	GeneratedAt     time.Time         `json:"generated_at" yaml:"generated_at"`
}

// #endregion

// #region sentinels

func degradedCodeJudge() CodeJudgeResult {
	return CodeJudgeResult{
		Issues:      []string{"Judge evaluation failed"},
		Suggestions: []string{},
		Degraded:    true,
	}
}

func degradedCommunication() CommunicationResult {
	return CommunicationResult{
		Communication:   5,
		Clarity:         5,
		Structure:       5,
		Confidence:      5,
		Issues:          []string{"Evaluation failed"},
		PositiveSignals: []string{},
		Degraded:        true,
	}
}

func degradedReasoning() ReasoningResult {
	return ReasoningResult{
		ProblemSolving:      5,
		Reasoning:           5,
		ComplexityAwareness: 5,
		Debugging:           5,
		Notes:               []string{"Evaluation failed"},
		Degraded:            true,
	}
}

// DegradedTurn is the reply used when the interviewer model is unavailable.
func DegradedTurn() TurnResult {
	return TurnResult{
		Utterance: "Could you repeat that? I didn't quite catch it.",
		Tone:      "neutral",
		Action:    ActionAskQuestion,
		Degraded:  true,
	}
}

// #endregion
