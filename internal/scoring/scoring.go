package scoring

import (
	"fmt"
	"math"
	"strings"
)

// #region scorer

// Scorer computes integrity, weighted final score and verdict.
type Scorer struct {
	config Config
}

// NewScorer creates a scorer with the given rubric.
func NewScorer(config Config) *Scorer {
	return &Scorer{config: config}
}

// Config returns the rubric in use.
func (s *Scorer) Config() Config {
	return s.config
}

// Run scores a session. modelVerdict is used when it names a valid verdict;
// otherwise the verdict is derived from the final score. An integrity score
// below the threshold always forces No Hire.
func (s *Scorer) Run(scores Scores, modelVerdict string, monitorWarnings, externalWarnings int) Result {
	metrics := s.metrics(scores)

	var final float64
	for _, m := range metrics {
		final += m.Weight * clamp(m.Score, 0, 10) * 10
	}
	final = math.Round(clamp(final, 0, 100)*10) / 10

	integrity := s.Integrity(monitorWarnings, externalWarnings)

	verdict, ok := ParseVerdict(modelVerdict)
	if !ok {
		verdict = s.DeriveVerdict(final)
	}

	res := Result{
		Integrity:  integrity,
		FinalScore: final,
		Verdict:    verdict,
		Metrics:    metrics,
		Reason:     fmt.Sprintf("final %.1f, integrity %d", final, integrity),
	}

	if integrity < s.config.IntegrityThreshold {
		res.Verdict = NoHire
		res.IntegrityBreach = true
		res.Reason = fmt.Sprintf("integrity %d below %d: %d monitor and %d external warnings",
			integrity, s.config.IntegrityThreshold, monitorWarnings, externalWarnings)
	}
	return res
}

// #endregion scorer

// #region integrity

// Integrity returns 100 minus the warning penalties, floored at 0.
func (s *Scorer) Integrity(monitorWarnings, externalWarnings int) int {
	v := 100 - s.config.MonitorPenalty*monitorWarnings - s.config.ExternalPenalty*externalWarnings
	if v < 0 {
		return 0
	}
	return v
}

// #endregion integrity

// #region verdict

// DeriveVerdict maps a 0-100 final score onto a verdict.
func (s *Scorer) DeriveVerdict(final float64) Verdict {
	switch {
	case final >= s.config.StrongHireAt:
		return StrongHire
	case final >= s.config.HireAt:
		return Hire
	case final >= s.config.BorderlineAt:
		return Borderline
	default:
		return NoHire
	}
}

// ParseVerdict normalizes a free-form verdict string.
func ParseVerdict(v string) (Verdict, bool) {
	switch strings.ToLower(strings.Join(strings.Fields(v), " ")) {
	case "strong hire":
		return StrongHire, true
	case "hire":
		return Hire, true
	case "borderline":
		return Borderline, true
	case "no hire":
		return NoHire, true
	}
	return "", false
}

// #endregion verdict

// #region helpers

func (s *Scorer) metrics(sc Scores) []Metric {
	w := s.config.Weights
	return []Metric{
		{Name: "technical_correctness", Score: sc.TechnicalCorrectness, Weight: w.TechnicalCorrectness},
		{Name: "problem_solving", Score: sc.ProblemSolving, Weight: w.ProblemSolving},
		{Name: "reasoning", Score: sc.Reasoning, Weight: w.Reasoning},
		{Name: "code_quality", Score: sc.CodeQuality, Weight: w.CodeQuality},
		{Name: "communication", Score: sc.Communication, Weight: w.Communication},
		{Name: "interview_readiness", Score: sc.InterviewReadiness, Weight: w.InterviewReadiness},
	}
}

// Clamp bounds v to [lo, hi]. NaN maps to lo.
func Clamp(v, lo, hi float64) float64 {
	return clamp(v, lo, hi)
}

func clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) || v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// #endregion helpers
