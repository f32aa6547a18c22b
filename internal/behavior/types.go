package behavior

// #region imports
import (
	"time"
)

// #endregion

// #region label

// Label names the posture a tracked subject currently exhibits.
type Label string

const (
	LabelNormal        Label = "Normal"
	LabelLeaning       Label = "Leaning"
	LabelLookingAround Label = "Looking Around"
)

// Suspicious reports whether a sustained occurrence of the label is worth a warning.
func (l Label) Suspicious() bool {
	return l != LabelNormal
}

// #endregion

// #region region

// Region is an axis-aligned bounding box in frame pixel coordinates.
type Region struct {
	X1, Y1, X2, Y2 float64
}

// Width returns X2 - X1.
func (r Region) Width() float64 { return r.X2 - r.X1 }

// Height returns Y2 - Y1.
func (r Region) Height() float64 { return r.Y2 - r.Y1 }

// #endregion

// #region observation

// Observation is one detected subject in one monitored frame.
type Observation struct {
	SubjectID string
	Region    Region
}

// #endregion

// #region tracked-state

// TrackedState is the per-subject run currently being timed.
type TrackedState struct {
	Label    Label
	Since    time.Time
	Reported bool // a warning was already raised for this run
}

// #endregion

// #region reading

// Reading is the tracker's verdict for a single observation.
type Reading struct {
	Label   Label
	Elapsed time.Duration
	Report  bool // true once per run, the first time the run crosses the threshold
}

// #endregion

// #region config

// TrackerConfig holds tuning knobs for sustained-behavior detection.
type TrackerConfig struct {
	Threshold time.Duration // run length after which a suspicious label is reported
}

// DefaultTrackerConfig returns the 3 second threshold.
func DefaultTrackerConfig() TrackerConfig {
	return TrackerConfig{Threshold: 3 * time.Second}
}

// #endregion
