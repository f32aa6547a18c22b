package monitor

// #region imports
import (
	"fmt"
	"sync"
	"time"

	"github.com/danielpatrickdp/interview-controller/internal/behavior"
)

// #endregion

// #region message

// warningTimeLayout renders timestamps at second resolution.
const warningTimeLayout = "2006-01-02_15-04-05"

// FormatWarning renders the warning text for a sustained label at ts.
func FormatWarning(label behavior.Label, ts time.Time) string {
	return fmt.Sprintf("Candidate exhibited sustained '%s' at %s.", label, ts.Format(warningTimeLayout))
}

// #endregion

// #region warning-log

// WarningLog is an append-only warning list keyed by rendered text.
type WarningLog struct {
	mu       sync.RWMutex
	warnings []Warning
	seen     map[string]struct{}
}

// NewWarningLog creates an empty log.
func NewWarningLog() *WarningLog {
	return &WarningLog{seen: make(map[string]struct{})}
}

// Append records w unless a warning with the same message already exists.
// Returns whether w was recorded.
func (l *WarningLog) Append(w Warning) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, dup := l.seen[w.Message]; dup {
		return false
	}
	l.seen[w.Message] = struct{}{}
	l.warnings = append(l.warnings, w)
	return true
}

// List returns a copy of the recorded warnings in insertion order.
func (l *WarningLog) List() []Warning {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]Warning, len(l.warnings))
	copy(out, l.warnings)
	return out
}

// Messages returns the rendered texts in insertion order.
func (l *WarningLog) Messages() []string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]string, len(l.warnings))
	for i, w := range l.warnings {
		out[i] = w.Message
	}
	return out
}

// Len returns the number of recorded warnings.
func (l *WarningLog) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.warnings)
}

// #endregion
