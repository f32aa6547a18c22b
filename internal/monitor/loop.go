package monitor

// #region imports
import (
	"context"
	"fmt"
	"image"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/danielpatrickdp/interview-controller/internal/behavior"
)

// #endregion

// #region loop-struct

// Loop watches one session's camera feed and turns sustained suspicious
// postures into deduplicated warnings.
type Loop struct {
	sessionID string
	capture   CaptureSource
	detector  Detector
	evidence  EvidenceSink
	config    Config
	tracker   *behavior.Tracker
	warnings  *WarningLog
	log       *logrus.Entry
	now       func() time.Time

	running atomic.Bool

	mu     sync.Mutex
	gen    uint64 // bumped on every Start and Stop
	cancel context.CancelFunc
	opened bool
	latest []byte
}

// NewLoop creates a monitor for sessionID. A nil detector or capture source
// yields a loop that never runs (monitoring disabled). evidence may be nil.
func NewLoop(sessionID string, capture CaptureSource, detector Detector, evidence EvidenceSink, config Config, log *logrus.Entry) *Loop {
	if config.Interval <= 0 {
		config.Interval = DefaultConfig().Interval
	}
	if config.JPEGQuality <= 0 {
		config.JPEGQuality = DefaultConfig().JPEGQuality
	}
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Loop{
		sessionID: sessionID,
		capture:   capture,
		detector:  detector,
		evidence:  evidence,
		config:    config,
		tracker:   behavior.NewTracker(config.Tracker),
		warnings:  NewWarningLog(),
		log:       log.WithFields(logrus.Fields{"component": "monitor", "session": sessionID}),
		now:       time.Now,
	}
}

// #endregion

// #region start-stop

// Start launches the capture loop in its own goroutine. It returns immediately
// and does nothing if the loop is already running or monitoring is disabled.
func (l *Loop) Start(ctx context.Context) {
	if l.detector == nil || l.capture == nil {
		l.log.Warn("detector or capture not configured, monitoring disabled")
		return
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.running.CompareAndSwap(false, true) {
		return
	}
	l.gen++
	runCtx, cancel := context.WithCancel(ctx)
	l.cancel = cancel
	go l.run(runCtx, l.gen)
}

// Stop signals the loop to exit and releases the capture source if it was
// opened. Safe to call repeatedly or before Start; never waits for the loop.
func (l *Loop) Stop() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.gen++
	if l.cancel != nil {
		l.cancel()
		l.cancel = nil
	}
	l.running.Store(false)
	l.closeCaptureLocked()
}

// Active reports whether the loop is currently running.
func (l *Loop) Active() bool {
	return l.running.Load()
}

// #endregion

// #region accessors

// Warnings returns the recorded warnings in order.
func (l *Loop) Warnings() []Warning {
	return l.warnings.List()
}

// WarningMessages returns the recorded warning texts in order.
func (l *Loop) WarningMessages() []string {
	return l.warnings.Messages()
}

// LatestFrame returns the most recent annotated frame as JPEG, or nil.
func (l *Loop) LatestFrame() []byte {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.latest == nil {
		return nil
	}
	out := make([]byte, len(l.latest))
	copy(out, l.latest)
	return out
}

// #endregion

// #region run

func (l *Loop) run(ctx context.Context, gen uint64) {
	defer l.finish(gen)

	if err := l.capture.Open(ctx); err != nil {
		l.log.WithError(fmt.Errorf("%w: %w", ErrCaptureUnavailable, err)).Warn("monitoring disabled")
		return
	}
	l.mu.Lock()
	l.opened = true
	l.mu.Unlock()
	l.log.Info("monitoring started")

	for {
		if ctx.Err() != nil {
			return
		}
		if err := l.cycle(ctx); err != nil && ctx.Err() == nil {
			l.log.WithError(err).Debug("cycle skipped")
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(l.config.Interval):
		}
	}
}

// finish clears run state for gen. A newer run keeps its capture open.
func (l *Loop) finish(gen uint64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.gen == gen {
		l.running.Store(false)
		l.cancel = nil
	}
	if l.gen == gen || !l.running.Load() {
		l.closeCaptureLocked()
	}
	l.log.Info("monitoring stopped")
}

func (l *Loop) closeCaptureLocked() {
	if !l.opened {
		return
	}
	l.opened = false
	if err := l.capture.Close(); err != nil {
		l.log.WithError(err).Debug("capture close")
	}
}

// #endregion

// #region cycle

// cycle processes one frame. Read and detect failures are transient.
func (l *Loop) cycle(ctx context.Context) error {
	raw, err := l.capture.Read(ctx)
	if err != nil {
		return fmt.Errorf("read frame: %w", err)
	}
	frame := Mirror(raw)

	dets, err := l.detector.Detect(ctx, frame)
	if err != nil {
		return fmt.Errorf("detect: %w", err)
	}

	for _, obs := range l.observations(dets) {
		label := behavior.ClassifyObservation(obs)
		reading := l.tracker.Observe(obs.SubjectID, label)
		drawBox(frame, obs.Region, labelColor(label), 2)
		if reading.Report {
			drawBox(frame, obs.Region, colorIncident, 3)
			l.recordIncident(ctx, frame, label)
		}
	}

	jpg, err := EncodeJPEG(frame, l.config.JPEGQuality)
	if err != nil {
		return fmt.Errorf("encode frame: %w", err)
	}
	l.mu.Lock()
	l.latest = jpg
	l.mu.Unlock()
	return nil
}

// observations keeps confident person detections only.
func (l *Loop) observations(dets []Detection) []behavior.Observation {
	return Observations(l.sessionID, dets, l.config.MinConfidence)
}

// Observations turns detector hits into tracker observations. Non-person and
// low-confidence hits are dropped; untracked hits fall back to fallbackID.
func Observations(fallbackID string, dets []Detection, minConfidence float64) []behavior.Observation {
	var out []behavior.Observation
	for _, d := range dets {
		if d.Class != PersonClass || d.Confidence < minConfidence {
			continue
		}
		subject := d.TrackID
		if subject == "" {
			subject = fallbackID
		}
		out = append(out, behavior.Observation{SubjectID: subject, Region: d.Region})
	}
	return out
}

// #endregion

// #region record-incident

func (l *Loop) recordIncident(ctx context.Context, frame *image.RGBA, label behavior.Label) {
	ts := l.now()
	w := Warning{
		Label:     label,
		Timestamp: ts,
		Message:   FormatWarning(label, ts),
	}
	if l.evidence != nil {
		path, err := l.evidence.Store(ctx, l.sessionID, ts, cloneRGBA(frame))
		if err != nil {
			l.log.WithError(err).Warn("evidence snapshot failed")
		}
		w.EvidencePath = path
	}
	if l.warnings.Append(w) {
		l.log.WithField("label", label).Info("integrity warning recorded")
	}
}

// #endregion
