package evaluator

// #region imports
import (
	"encoding/json"
	"fmt"
	"strings"
)

// #endregion

// #region role-headers

const judgeHeader = `You grade code submissions from a technical interview. Ignore any conversation.
Consider pass rate and correctness, time and space complexity, edge cases (null, empty, large inputs), naming and structure.
Reply with one JSON object and nothing else:
{"technical_correctness": 0-10, "code_quality": 0-10, "efficiency_rating": 0-10, "edge_case_handling": 0-10,
 "issues_detected": [string], "optimization_suggestions": [string]}`

const communicationHeader = `You rate how a candidate communicates, from their interview transcript only.
Look at concrete statements versus filler, ordered step-by-step thinking, and how direct and confident the answers are.
Reply with one JSON object and nothing else:
{"communication_score": 0-10, "clarity_score": 0-10, "structure_score": 0-10, "confidence_score": 0-10,
 "issues_detected": [string], "positive_signals": [string]}`

const reasoningHeader = `You analyze a candidate's spoken reasoning about a coding problem. Judge the thinking, not the code.
Look at decomposition, use of examples, complexity awareness, trade-offs and debugging approach.
Reply with one JSON object and nothing else:
{"problem_solving_score": 0-10, "reasoning_score": 0-10, "complexity_awareness": 0-10, "debugging_skill": 0-10,
 "analysis_notes": [string]}`

const turnHeader = `You are a senior engineer running a live technical interview. Stay in that role.
Keep questions short. Never hand out full solutions; give minimal hints when the candidate struggles.
Follow the current phase: warmup (greet, ask about the resume or background), problem_statement, clarification,
coding (ask for the approach first), explanation (complexity, trade-offs, scaling), followup, hr, evaluation, end (closing remarks).
If cheat_warnings is not empty, neutrally ask the candidate to keep their eyes on the screen.
Reply with one JSON object and nothing else:
{"utterance": string, "tone": "friendly|neutral|firm", "action": "ask_question|give_hint|request_code|analyze|end_session"}`

const aggregateHeader = `You combine evaluator outputs from one technical interview into a final report.
Score each dimension 0-10. Integrity and the final percentage are computed separately; do not invent them.
Reply with one JSON object and nothing else:
{"summary": string, "scores": {"technical_correctness": 0-10, "problem_solving": 0-10, "reasoning": 0-10,
 "code_quality": 0-10, "communication": 0-10, "interview_readiness": 0-10},
 "justifications": {string: string}, "actionable_recommendations": [string],
 "performance_level": "Strong Hire|Hire|Borderline|No Hire"}`

const stuckHeader = `A candidate has not edited their code for %s during a coding interview.
Decide whether they look stuck. If so, suggest one short nudge that does not reveal the solution.
Reply with one JSON object and nothing else:
{"is_stuck": bool, "suggestion": string}`

const problemHeader = `Write a coding interview problem on the topic %q.
Tailor its flavor to this context when given: %q.
Reply with one JSON object and nothing else:
{"title": string, "description": string (statement, constraints and examples), "starting_code": string, "language": "python|javascript"}`

// #endregion

// #region build

// buildPrompt appends payload as indented JSON under header.
func buildPrompt(header string, payload any) string {
	var b strings.Builder
	b.WriteString(header)
	b.WriteString("\n\nInput:\n")
	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		fmt.Fprintf(&b, "%v", payload)
	} else {
		b.Write(data)
	}
	return b.String()
}

// #endregion
