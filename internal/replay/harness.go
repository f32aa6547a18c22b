// Package replay drives recorded detector output through the behavior tracker
// on a synthetic clock, so threshold and classifier changes can be checked
// against known sessions without a camera.
package replay

import (
	"time"

	"github.com/danielpatrickdp/interview-controller/internal/behavior"
	"github.com/danielpatrickdp/interview-controller/internal/monitor"
)

// #region types

// Frame is one recorded monitor cycle.
type Frame struct {
	At         time.Time
	Detections []monitor.Detection
}

// Config holds the knobs a replay run uses.
type Config struct {
	MinConfidence float64
	Tracker       behavior.TrackerConfig
}

// DefaultConfig mirrors the live monitor defaults.
func DefaultConfig() Config {
	mc := monitor.DefaultConfig()
	return Config{MinConfidence: mc.MinConfidence, Tracker: mc.Tracker}
}

// SubjectReading is the tracker output for one subject in one frame.
type SubjectReading struct {
	SubjectID string
	Label     behavior.Label
	Elapsed   time.Duration
	Report    bool
}

// Result captures the outcome of replaying one frame.
type Result struct {
	Index    int
	At       time.Time
	Readings []SubjectReading
	Warnings []monitor.Warning // newly recorded by this frame
}

// Summary provides aggregate stats from a replay run.
type Summary struct {
	TotalFrames  int
	Observations int
	Reports      int
	LabelCounts  map[behavior.Label]int
	Warnings     []monitor.Warning
}

// #endregion types

// #region replay

// Replay feeds frames through a tracker whose clock is pinned to each frame's
// timestamp. Warnings go through the same dedup log the live monitor uses.
func Replay(sessionID string, frames []Frame, config Config) []Result {
	var now time.Time
	tracker := behavior.NewTrackerWithClock(config.Tracker, func() time.Time { return now })
	log := monitor.NewWarningLog()

	results := make([]Result, 0, len(frames))
	for i, fr := range frames {
		now = fr.At
		res := Result{Index: i, At: fr.At}

		for _, obs := range monitor.Observations(sessionID, fr.Detections, config.MinConfidence) {
			label := behavior.ClassifyObservation(obs)
			reading := tracker.Observe(obs.SubjectID, label)
			res.Readings = append(res.Readings, SubjectReading{
				SubjectID: obs.SubjectID,
				Label:     reading.Label,
				Elapsed:   reading.Elapsed,
				Report:    reading.Report,
			})
			if !reading.Report {
				continue
			}
			w := monitor.Warning{Label: label, Timestamp: fr.At, Message: monitor.FormatWarning(label, fr.At)}
			if log.Append(w) {
				res.Warnings = append(res.Warnings, w)
			}
		}
		results = append(results, res)
	}
	return results
}

// Summarize computes aggregate stats from replay results.
func Summarize(results []Result) Summary {
	s := Summary{
		TotalFrames: len(results),
		LabelCounts: make(map[behavior.Label]int),
	}
	for _, r := range results {
		s.Observations += len(r.Readings)
		for _, rd := range r.Readings {
			s.LabelCounts[rd.Label]++
			if rd.Report {
				s.Reports++
			}
		}
		s.Warnings = append(s.Warnings, r.Warnings...)
	}
	return s
}

// #endregion replay

// #region check

// Mismatch describes a divergence between a replay and its expectations.
type Mismatch struct {
	OffsetMS int
	Expected string
	Actual   string
}

// Check compares the warnings a replay raised against the fixture's
// expected_warnings, in order.
func Check(f *Fixture, results []Result) []Mismatch {
	var got []ExpectedWarning
	for _, r := range results {
		off := int(r.At.Sub(f.Start) / time.Millisecond)
		for _, w := range r.Warnings {
			got = append(got, ExpectedWarning{OffsetMS: off, Label: string(w.Label)})
		}
	}

	var out []Mismatch
	n := max(len(got), len(f.ExpectedWarnings))
	for i := 0; i < n; i++ {
		var exp, act ExpectedWarning
		if i < len(f.ExpectedWarnings) {
			exp = f.ExpectedWarnings[i]
		}
		if i < len(got) {
			act = got[i]
		}
		if exp != act {
			out = append(out, Mismatch{
				OffsetMS: max(exp.OffsetMS, act.OffsetMS),
				Expected: exp.Label,
				Actual:   act.Label,
			})
		}
	}
	return out
}

// #endregion check
