package evaluator

// #region imports
import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/danielpatrickdp/interview-controller/internal/scoring"
)

// #endregion

// #region decode

// decodeObject extracts the first JSON object from model text, tolerating
// markdown fences and leading prose.
func decodeObject(text string, v any) error {
	s := strings.TrimSpace(text)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```")
		s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	}
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start < 0 || end < start {
		return fmt.Errorf("%w: no JSON object", ErrMalformedResponse)
	}
	if err := json.Unmarshal([]byte(s[start:end+1]), v); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	return nil
}

// #endregion

// #region normalize

func score10(v float64) float64 {
	return scoring.Clamp(v, 0, 10)
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func (r *CodeJudgeResult) normalize() {
	r.TechnicalCorrectness = score10(r.TechnicalCorrectness)
	r.CodeQuality = score10(r.CodeQuality)
	r.Efficiency = score10(r.Efficiency)
	r.EdgeCaseHandling = score10(r.EdgeCaseHandling)
	r.Issues = nonNil(r.Issues)
	r.Suggestions = nonNil(r.Suggestions)
	r.Degraded = false
}

func (r *CommunicationResult) normalize() {
	r.Communication = score10(r.Communication)
	r.Clarity = score10(r.Clarity)
	r.Structure = score10(r.Structure)
	r.Confidence = score10(r.Confidence)
	r.Issues = nonNil(r.Issues)
	r.PositiveSignals = nonNil(r.PositiveSignals)
	r.Degraded = false
}

func (r *ReasoningResult) normalize() {
	r.ProblemSolving = score10(r.ProblemSolving)
	r.Reasoning = score10(r.Reasoning)
	r.ComplexityAwareness = score10(r.ComplexityAwareness)
	r.Debugging = score10(r.Debugging)
	r.Notes = nonNil(r.Notes)
	r.Degraded = false
}

// normalize fails on an empty utterance; unknown actions become ask_question.
func (r *TurnResult) normalize() error {
	r.Utterance = strings.TrimSpace(r.Utterance)
	if r.Utterance == "" {
		return fmt.Errorf("%w: empty utterance", ErrMalformedResponse)
	}
	r.Action = strings.ToLower(strings.TrimSpace(r.Action))
	if !validActions[r.Action] {
		r.Action = ActionAskQuestion
	}
	switch r.Tone {
	case "friendly", "neutral", "firm":
	default:
		r.Tone = "neutral"
	}
	r.Degraded = false
	return nil
}

// #endregion
