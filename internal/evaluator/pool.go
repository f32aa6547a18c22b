package evaluator

// #region imports
import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/danielpatrickdp/interview-controller/internal/provider"
	"github.com/danielpatrickdp/interview-controller/internal/scoring"
)

// #endregion

// #region pool

// Generator produces model text. *provider.Chain satisfies it.
type Generator interface {
	Generate(ctx context.Context, prompt string, structured bool) (string, error)
}

// Pool exposes the interview evaluators over one Generator. Every capability
// degrades to a fixed sentinel result instead of failing.
type Pool struct {
	gen    Generator
	scorer *scoring.Scorer
	log    *logrus.Entry
	now    func() time.Time
}

// NewPool creates an evaluator pool. A nil scorer uses the default rubric.
func NewPool(gen Generator, scorer *scoring.Scorer, log *logrus.Entry) *Pool {
	if scorer == nil {
		scorer = scoring.NewScorer(scoring.DefaultConfig())
	}
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Pool{
		gen:    gen,
		scorer: scorer,
		log:    log.WithField("component", "eval"),
		now:    time.Now,
	}
}

// #endregion

// #region generate

// ask runs one structured request and decodes it into v.
func (p *Pool) ask(ctx context.Context, name, prompt string, v any) error {
	text, err := p.gen.Generate(ctx, prompt, true)
	if err != nil {
		if !errors.Is(err, provider.ErrProviderFailure) {
			err = fmt.Errorf("%w: %w", provider.ErrProviderFailure, err)
		}
		return fmt.Errorf("%s: %w", name, err)
	}
	if err := decodeObject(text, v); err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	return nil
}

// #endregion

// #region capabilities

// JudgeCode scores a code submission.
func (p *Pool) JudgeCode(ctx context.Context, in CodeJudgeInput) CodeJudgeResult {
	var out CodeJudgeResult
	if err := p.ask(ctx, "code judge", buildPrompt(judgeHeader, in), &out); err != nil {
		p.log.WithError(err).Warn("code judge degraded")
		return degradedCodeJudge()
	}
	out.normalize()
	return out
}

// EvaluateCommunication rates the transcript.
func (p *Pool) EvaluateCommunication(ctx context.Context, in CommunicationInput) CommunicationResult {
	var out CommunicationResult
	if err := p.ask(ctx, "communication", buildPrompt(communicationHeader, in), &out); err != nil {
		p.log.WithError(err).Warn("communication evaluator degraded")
		return degradedCommunication()
	}
	out.normalize()
	return out
}

// AnalyzeReasoning rates the candidate's explanation.
func (p *Pool) AnalyzeReasoning(ctx context.Context, in ReasoningInput) ReasoningResult {
	var out ReasoningResult
	if err := p.ask(ctx, "reasoning", buildPrompt(reasoningHeader, in), &out); err != nil {
		p.log.WithError(err).Warn("reasoning evaluator degraded")
		return degradedReasoning()
	}
	out.normalize()
	return out
}

// NextTurn produces the interviewer's next utterance. The degraded reply is
// always returned on failure; the error is non-nil only when no provider answered.
func (p *Pool) NextTurn(ctx context.Context, in TurnInput) (TurnResult, error) {
	var out TurnResult
	err := p.ask(ctx, "next turn", buildPrompt(turnHeader, in), &out)
	if err == nil {
		err = out.normalize()
	}
	if err != nil {
		p.log.WithError(err).Warn("interviewer turn degraded")
		if errors.Is(err, provider.ErrProviderFailure) {
			return DegradedTurn(), err
		}
		return DegradedTurn(), nil
	}
	return out, nil
}

// #endregion

// #region aggregate

type aggregateReply struct {
	Summary         string            `json:"summary"`
	Scores          scoring.Scores    `json:"scores"`
	Justifications  map[string]string `json:"justifications"`
	Recommendations []string          `json:"actionable_recommendations"`
	Verdict         string            `json:"performance_level"`
}

// Aggregate builds the final report. Integrity, final score and the
// integrity override are always computed locally.
func (p *Pool) Aggregate(ctx context.Context, in AggregateInput) Report {
	var reply aggregateReply
	degraded := false
	if err := p.ask(ctx, "aggregate", buildPrompt(aggregateHeader, in), &reply); err != nil {
		p.log.WithError(err).Warn("aggregator degraded")
		degraded = true
		reply = aggregateReply{
			Summary: "Evaluation failed due to an error.",
			Verdict: string(scoring.NoHire),
		}
	}

	scored := p.scorer.Run(reply.Scores, reply.Verdict, len(in.MonitorWarnings), len(in.ExternalWarnings))

	rep := Report{
		Summary:         reply.Summary,
		Scores:          clampScores(reply.Scores),
		IntegrityScore:  scored.Integrity,
		FinalScore:      scored.FinalScore,
		Justifications:  reply.Justifications,
		Recommendations: nonNil(reply.Recommendations),
		Verdict:         scored.Verdict,
		IntegrityBreach: scored.IntegrityBreach,
		Degraded:        degraded,
		GeneratedAt:     p.now().UTC(),
	}
	if rep.Justifications == nil {
		rep.Justifications = map[string]string{}
	}
	if scored.IntegrityBreach {
		rep.Justifications["integrity"] = fmt.Sprintf(
			"Integrity score %d is below %d after %d monitor and %d external warnings; verdict forced to No Hire.",
			scored.Integrity, p.scorer.Config().IntegrityThreshold, len(in.MonitorWarnings), len(in.ExternalWarnings))
	}
	return rep
}

func clampScores(s scoring.Scores) scoring.Scores {
	return scoring.Scores{
		TechnicalCorrectness: score10(s.TechnicalCorrectness),
		ProblemSolving:       score10(s.ProblemSolving),
		Reasoning:            score10(s.Reasoning),
		CodeQuality:          score10(s.CodeQuality),
		Communication:        score10(s.Communication),
		InterviewReadiness:   score10(s.InterviewReadiness),
	}
}

// #endregion

// #region extras

// AnalyzeStuck asks whether an idle candidate needs a nudge. Failure means not stuck.
func (p *Pool) AnalyzeStuck(ctx context.Context, in StuckInput) StuckResult {
	var out StuckResult
	header := fmt.Sprintf(stuckHeader, in.Idle.Round(time.Second))
	if err := p.ask(ctx, "stuck analysis", buildPrompt(header, in), &out); err != nil {
		p.log.WithError(err).Warn("stuck analysis degraded")
		return StuckResult{Degraded: true}
	}
	out.Suggestion = strings.TrimSpace(out.Suggestion)
	if out.Suggestion == "" {
		out.IsStuck = false
	}
	return out
}

// GenerateProblem writes a coding problem. Unlike the evaluators it fails loudly.
func (p *Pool) GenerateProblem(ctx context.Context, topic, background string) (Problem, error) {
	var out Problem
	prompt := fmt.Sprintf(problemHeader, topic, background)
	if err := p.ask(ctx, "generate problem", prompt, &out); err != nil {
		return Problem{}, err
	}
	if strings.TrimSpace(out.Title) == "" || strings.TrimSpace(out.Description) == "" {
		return Problem{}, fmt.Errorf("generate problem: %w: missing title or description", ErrMalformedResponse)
	}
	switch strings.ToLower(out.Language) {
	case "python", "javascript":
		out.Language = strings.ToLower(out.Language)
	default:
		out.Language = "python"
	}
	return out, nil
}

// #endregion
