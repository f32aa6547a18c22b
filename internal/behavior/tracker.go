package behavior

// #region imports
import (
	"sync"
	"time"
)

// #endregion

// #region tracker-struct

// Tracker times how long each subject has held its current label.
type Tracker struct {
	mu     sync.Mutex
	states map[string]TrackedState
	config TrackerConfig
	now    func() time.Time
}

// NewTracker creates a tracker using the wall clock.
func NewTracker(config TrackerConfig) *Tracker {
	return NewTrackerWithClock(config, time.Now)
}

// NewTrackerWithClock creates a tracker with an injected clock.
// Used by replay and tests to drive time deterministically.
func NewTrackerWithClock(config TrackerConfig, now func() time.Time) *Tracker {
	if config.Threshold <= 0 {
		config.Threshold = DefaultTrackerConfig().Threshold
	}
	return &Tracker{
		states: make(map[string]TrackedState),
		config: config,
		now:    now,
	}
}

// #endregion

// #region track

// Track records label for subject and returns how long the subject has held it.
// First sighting and label changes start a new run at zero elapsed.
func (t *Tracker) Track(subject string, label Label) time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, elapsed := t.advance(subject, label)
	return elapsed
}

// #endregion

// #region observe

// Observe is Track plus the reporting decision. Report fires once per run, when a
// suspicious label has been held longer than the threshold.
func (t *Tracker) Observe(subject string, label Label) Reading {
	t.mu.Lock()
	defer t.mu.Unlock()

	st, elapsed := t.advance(subject, label)
	reading := Reading{Label: label, Elapsed: elapsed}

	if label.Suspicious() && elapsed > t.config.Threshold && !st.Reported {
		st.Reported = true
		t.states[subject] = st
		reading.Report = true
	}
	return reading
}

// #endregion

// #region state

// State returns the current run for subject, if any.
func (t *Tracker) State(subject string) (TrackedState, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	st, ok := t.states[subject]
	return st, ok
}

// Reset forgets every subject.
func (t *Tracker) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.states = make(map[string]TrackedState)
}

// Threshold returns the configured sustained-occurrence threshold.
func (t *Tracker) Threshold() time.Duration {
	return t.config.Threshold
}

// #endregion

// #region advance

// advance applies one transition. Caller holds t.mu.
func (t *Tracker) advance(subject string, label Label) (TrackedState, time.Duration) {
	now := t.now()
	st, ok := t.states[subject]
	if !ok || st.Label != label {
		st = TrackedState{Label: label, Since: now}
		t.states[subject] = st
		return st, 0
	}
	return st, now.Sub(st.Since)
}

// #endregion
