package orchestrator

// #region imports
import (
	"strings"
	"unicode"
)

// #endregion

// #region assistant-patterns

var assistantPatterns = []string{
	"how can i help",
	"how can i assist",
	"what can i do for you",
	"i'd be happy to help",
	"let me know how i can",
	"is there anything else",
	"feel free to ask",
	"as an ai",
	"as a language model",
	"i'm just an ai",
}

// #endregion

// #region reply-failure

// ReplyFailure names why an interviewer reply was rejected.
type ReplyFailure string

const (
	ReplyOK           ReplyFailure = "none"
	ReplyEmpty        ReplyFailure = "empty"
	ReplyPersonaBreak ReplyFailure = "persona_break"
	ReplySolutionLeak ReplyFailure = "solution_leak"
	ReplyRepetition   ReplyFailure = "repetition"
)

// guardedUtterance replaces a rejected reply.
const guardedUtterance = "Let's keep going. Walk me through how you're approaching it right now."

// #endregion

// #region check

// CheckReply screens an interviewer utterance with string analysis. No model call.
func CheckReply(utterance string) ReplyFailure {
	trimmed := strings.TrimSpace(utterance)
	if len(strings.TrimFunc(trimmed, unicode.IsSpace)) == 0 {
		return ReplyEmpty
	}
	lower := strings.ToLower(trimmed)

	for _, p := range assistantPatterns {
		if strings.Contains(lower, p) {
			return ReplyPersonaBreak
		}
	}

	if leaksSolution(trimmed) {
		return ReplySolutionLeak
	}

	if hasRepetition(lower) {
		return ReplyRepetition
	}
	return ReplyOK
}

// #endregion

// #region solution-leak

// leaksSolution flags replies that carry a code block of more than a few lines.
func leaksSolution(s string) bool {
	if strings.Count(s, "```") >= 2 {
		start := strings.Index(s, "```")
		end := strings.LastIndex(s, "```")
		if strings.Count(s[start:end], "\n") > 3 {
			return true
		}
	}
	codeLines := 0
	for _, line := range strings.Split(s, "\n") {
		l := strings.TrimSpace(line)
		if strings.HasPrefix(l, "def ") || strings.HasPrefix(l, "function ") ||
			strings.HasPrefix(l, "return ") || strings.HasPrefix(l, "for ") ||
			strings.HasSuffix(l, "{") || (strings.HasSuffix(l, ":") && strings.HasPrefix(line, "    ")) {
			codeLines++
		}
	}
	return codeLines >= 3
}

// #endregion

// #region repetition-check

func hasRepetition(lower string) bool {
	// 3+ identical sentences
	sentences := strings.FieldsFunc(lower, func(r rune) bool {
		return r == '.' || r == '!' || r == '?'
	})
	if len(sentences) < 3 {
		return false
	}
	counts := make(map[string]int)
	for _, s := range sentences {
		trimmed := strings.TrimSpace(s)
		if len(trimmed) > 10 {
			counts[trimmed]++
		}
	}
	for _, c := range counts {
		if c >= 3 {
			return true
		}
	}
	return false
}

// #endregion
