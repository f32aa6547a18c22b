package replay

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/danielpatrickdp/interview-controller/internal/behavior"
	"github.com/danielpatrickdp/interview-controller/internal/monitor"
)

// #region fixture-types

// Fixture is a recorded monitoring session: detector output per frame plus the
// warnings the tracker is expected to raise. YAML and JSON files both decode.
type Fixture struct {
	Description      string            `yaml:"description" json:"description"`
	SessionID        string            `yaml:"session_id" json:"session_id"`
	StartAt          string            `yaml:"start" json:"start"` // RFC3339
	Start            time.Time         `yaml:"-" json:"-"`
	ThresholdMS      int               `yaml:"threshold_ms" json:"threshold_ms"`
	MinConfidence    float64           `yaml:"min_confidence" json:"min_confidence"`
	Frames           []FixtureFrame    `yaml:"frames" json:"frames"`
	ExpectedWarnings []ExpectedWarning `yaml:"expected_warnings" json:"expected_warnings"`
}

// FixtureFrame is one monitor cycle, offset from Fixture.Start.
type FixtureFrame struct {
	OffsetMS   int                `yaml:"offset_ms" json:"offset_ms"`
	Detections []FixtureDetection `yaml:"detections" json:"detections"`
}

// FixtureDetection mirrors the detector wire shape.
type FixtureDetection struct {
	Class      string     `yaml:"class" json:"class"`
	Confidence float64    `yaml:"confidence" json:"confidence"`
	Box        [4]float64 `yaml:"box" json:"box"`
	TrackID    string     `yaml:"track_id" json:"track_id"`
}

// ExpectedWarning pins a warning to the frame that should raise it.
type ExpectedWarning struct {
	OffsetMS int    `yaml:"offset_ms" json:"offset_ms"`
	Label    string `yaml:"label" json:"label"`
}

// #endregion fixture-types

// #region fixture-loader

// LoadFixture reads and parses a fixture file.
func LoadFixture(path string) (*Fixture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read fixture %s: %w", path, err)
	}
	f, err := ParseFixture(data)
	if err != nil {
		return nil, fmt.Errorf("parse fixture %s: %w", path, err)
	}
	return f, nil
}

// ParseFixture decodes fixture bytes and fills defaults.
func ParseFixture(data []byte) (*Fixture, error) {
	var f Fixture
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, err
	}
	if f.SessionID == "" {
		f.SessionID = "replay"
	}
	f.Start = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	if f.StartAt != "" {
		t, err := time.Parse(time.RFC3339, f.StartAt)
		if err != nil {
			return nil, fmt.Errorf("start: %w", err)
		}
		f.Start = t
	}
	for i := 1; i < len(f.Frames); i++ {
		if f.Frames[i].OffsetMS < f.Frames[i-1].OffsetMS {
			return nil, fmt.Errorf("frame %d: offset %dms goes backwards", i, f.Frames[i].OffsetMS)
		}
	}
	return &f, nil
}

// Config converts the fixture's tuning fields, falling back to monitor defaults.
func (f *Fixture) Config() Config {
	c := DefaultConfig()
	if f.ThresholdMS > 0 {
		c.Tracker.Threshold = time.Duration(f.ThresholdMS) * time.Millisecond
	}
	if f.MinConfidence > 0 {
		c.MinConfidence = f.MinConfidence
	}
	return c
}

// ToFrame converts a fixture frame to a timestamped replay frame.
func (f *Fixture) ToFrame(ff FixtureFrame) Frame {
	dets := make([]monitor.Detection, len(ff.Detections))
	for i, d := range ff.Detections {
		dets[i] = monitor.Detection{
			Class:      d.Class,
			Confidence: d.Confidence,
			Region:     behavior.Region{X1: d.Box[0], Y1: d.Box[1], X2: d.Box[2], Y2: d.Box[3]},
			TrackID:    d.TrackID,
		}
	}
	return Frame{
		At:         f.Start.Add(time.Duration(ff.OffsetMS) * time.Millisecond),
		Detections: dets,
	}
}

// ToFrames converts every frame in order.
func (f *Fixture) ToFrames() []Frame {
	out := make([]Frame, len(f.Frames))
	for i, ff := range f.Frames {
		out[i] = f.ToFrame(ff)
	}
	return out
}

// #endregion fixture-loader
