package orchestrator

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCheckReply(t *testing.T) {
	tests := []struct {
		name  string
		reply string
		want  ReplyFailure
	}{
		{"empty", "   ", ReplyEmpty},
		{"assistant-mode", "Great question! How can I help you further?", ReplyPersonaBreak},
		{"ai-disclosure", "As an AI, I think your approach works.", ReplyPersonaBreak},
		{"fenced-solution", "Here:\n```python\ndef two_sum(nums, t):\n    seen = {}\n    for i, n in enumerate(nums):\n        return i\n```", ReplySolutionLeak},
		{"bare-solution", "def f(x):\n    for i in x:\n        return i", ReplySolutionLeak},
		{"repetition", "Tell me more about that. Tell me more about that. Tell me more about that.", ReplyRepetition},
		{"good", "Okay, interesting approach. What happens if the input array is empty?", ReplyOK},
		{"short-inline-code", "What does `seen[n]` hold after the first pass?", ReplyOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CheckReply(tt.reply))
		})
	}
}
