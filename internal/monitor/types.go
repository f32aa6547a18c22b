package monitor

// #region imports
import (
	"context"
	"errors"
	"image"
	"time"

	"github.com/danielpatrickdp/interview-controller/internal/behavior"
)

// #endregion

// #region errors

// ErrCaptureUnavailable means no frame source could be opened. Monitoring is disabled, not failed.
var ErrCaptureUnavailable = errors.New("capture source unavailable")

// #endregion

// #region interfaces

// CaptureSource yields raw frames from a camera-like device.
type CaptureSource interface {
	Open(ctx context.Context) error
	Read(ctx context.Context) (image.Image, error)
	Close() error
}

// Detector runs object detection on a frame.
type Detector interface {
	Detect(ctx context.Context, frame image.Image) ([]Detection, error)
}

// EvidenceSink persists a snapshot of a frame that triggered a warning.
type EvidenceSink interface {
	Store(ctx context.Context, sessionID string, ts time.Time, frame image.Image) (string, error)
}

// #endregion

// #region detection

// PersonClass is the only detector class the monitor acts on.
const PersonClass = "person"

// Detection is one detector hit.
type Detection struct {
	Class      string          `json:"class"`
	Confidence float64         `json:"confidence"`
	Region     behavior.Region `json:"region"`
	TrackID    string          `json:"track_id,omitempty"`
}

// #endregion

// #region warning

// Warning is a deduplicated integrity warning raised by the monitor.
type Warning struct {
	Label        behavior.Label `json:"label"`
	Timestamp    time.Time      `json:"timestamp"`
	Message      string         `json:"message"`
	EvidencePath string         `json:"evidence_path,omitempty"`
}

// #endregion

// #region config

// Config holds tuning knobs for the monitor loop.
type Config struct {
	Interval      time.Duration // pause between cycles
	MinConfidence float64       // detections below this are ignored
	JPEGQuality   int           // quality of the published frame
	Tracker       behavior.TrackerConfig
}

// DefaultConfig returns the 100ms cadence, 0.4 confidence floor and 3s threshold.
func DefaultConfig() Config {
	return Config{
		Interval:      100 * time.Millisecond,
		MinConfidence: 0.4,
		JPEGQuality:   70,
		Tracker:       behavior.DefaultTrackerConfig(),
	}
}

// #endregion
