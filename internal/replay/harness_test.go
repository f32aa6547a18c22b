package replay

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danielpatrickdp/interview-controller/internal/behavior"
	"github.com/danielpatrickdp/interview-controller/internal/monitor"
)

// #region helpers

var t0 = time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

func person(id string, b behavior.Region) monitor.Detection {
	return monitor.Detection{Class: monitor.PersonClass, Confidence: 0.9, Region: b, TrackID: id}
}

var (
	upright = behavior.Region{X2: 100, Y2: 120}
	leaning = behavior.Region{X2: 100, Y2: 100}
)

func framesEvery(step time.Duration, dets ...[]monitor.Detection) []Frame {
	out := make([]Frame, len(dets))
	for i, d := range dets {
		out[i] = Frame{At: t0.Add(time.Duration(i) * step), Detections: d}
	}
	return out
}

// #endregion

// #region fixture-tests

// TestFixture_LeaningThenLooking is the regression baseline: if the classifier
// ratios or the threshold change, the expected warnings drift.
func TestFixture_LeaningThenLooking(t *testing.T) {
	f, err := LoadFixture(filepath.Join("testdata", "leaning_then_looking.yaml"))
	require.NoError(t, err)
	assert.Equal(t, t0, f.Start)

	results := Replay(f.SessionID, f.ToFrames(), f.Config())
	require.Len(t, results, len(f.Frames))
	assert.Empty(t, Check(f, results))

	sum := Summarize(results)
	assert.Equal(t, 19, sum.TotalFrames)
	assert.Equal(t, 19, sum.Observations, "cup and low-confidence person are filtered")
	assert.Equal(t, 2, sum.Reports)
	assert.Equal(t, 2, sum.LabelCounts[behavior.LabelNormal])
	assert.Equal(t, 9, sum.LabelCounts[behavior.LabelLeaning])
	assert.Equal(t, 8, sum.LabelCounts[behavior.LabelLookingAround])
	require.Len(t, sum.Warnings, 2)
	assert.Equal(t, "Candidate exhibited sustained 'Leaning' at 2024-05-01_10-00-04.", sum.Warnings[0].Message)
}

func TestParseFixture_JSON(t *testing.T) {
	f, err := ParseFixture([]byte(`{"start":"2024-05-01T10:00:00Z","threshold_ms":1000,"frames":[{"offset_ms":0,"detections":[{"class":"person","confidence":0.9,"box":[0,0,100,100]}]}]}`))
	require.NoError(t, err)
	assert.Equal(t, "replay", f.SessionID)
	assert.Equal(t, time.Second, f.Config().Tracker.Threshold)
	assert.InDelta(t, 0.4, f.Config().MinConfidence, 1e-9)

	fr := f.ToFrames()
	require.Len(t, fr, 1)
	assert.Equal(t, t0, fr[0].At)
	assert.Equal(t, leaning, fr[0].Detections[0].Region)
}

func TestParseFixture_Rejects(t *testing.T) {
	_, err := ParseFixture([]byte("start: yesterday\n"))
	assert.Error(t, err)

	_, err = ParseFixture([]byte("frames:\n  - offset_ms: 500\n  - offset_ms: 100\n"))
	assert.ErrorContains(t, err, "backwards")
}

func TestCheck_ReportsMismatch(t *testing.T) {
	f := &Fixture{Start: t0, ExpectedWarnings: []ExpectedWarning{{OffsetMS: 1000, Label: "Leaning"}}}
	mm := Check(f, nil)
	require.Len(t, mm, 1)
	assert.Equal(t, "Leaning", mm[0].Expected)
	assert.Empty(t, mm[0].Actual)
}

// #endregion

// #region replay-tests

func TestReplay_OneWarningPerRun(t *testing.T) {
	lean := []monitor.Detection{person("a", leaning)}
	frames := framesEvery(time.Second, lean, lean, lean, lean, lean, lean)

	results := Replay("s", frames, DefaultConfig())
	var reported []int
	for _, r := range results {
		if len(r.Warnings) > 0 {
			reported = append(reported, r.Index)
		}
	}
	// elapsed must exceed 3s, so the fifth frame (4s) is the first report
	assert.Equal(t, []int{4}, reported)
}

func TestReplay_LabelChangeRestartsRun(t *testing.T) {
	lean := []monitor.Detection{person("a", leaning)}
	up := []monitor.Detection{person("a", upright)}
	frames := framesEvery(time.Second, lean, lean, lean, up, lean, lean, lean)

	sum := Summarize(Replay("s", frames, DefaultConfig()))
	assert.Zero(t, sum.Reports)
	assert.Equal(t, 6, sum.LabelCounts[behavior.LabelLeaning])
}

func TestReplay_SubjectsTrackedIndependently(t *testing.T) {
	both := []monitor.Detection{person("a", leaning), person("b", upright)}
	frames := framesEvery(2*time.Second, both, both, both)

	results := Replay("s", frames, DefaultConfig())
	last := results[2]
	require.Len(t, last.Readings, 2)
	assert.True(t, last.Readings[0].Report)
	assert.Equal(t, 4*time.Second, last.Readings[0].Elapsed)
	assert.False(t, last.Readings[1].Report)
}

func TestReplay_UntrackedFallsBackToSession(t *testing.T) {
	frames := framesEvery(time.Second, []monitor.Detection{{Class: monitor.PersonClass, Confidence: 0.9, Region: leaning}})
	results := Replay("sess-1", frames, DefaultConfig())
	require.Len(t, results[0].Readings, 1)
	assert.Equal(t, "sess-1", results[0].Readings[0].SubjectID)
}

// #endregion
