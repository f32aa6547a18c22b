package monitor

// #region imports
import (
	"context"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"time"
)

// #endregion

// #region index

// EvidenceIndex records where snapshots were written.
type EvidenceIndex interface {
	RecordEvidence(ctx context.Context, sessionID, path string, capturedAt time.Time) error
}

// #endregion

// #region file-sink

// FileSink writes evidence snapshots as JPEG files under a directory.
type FileSink struct {
	dir     string
	quality int
	index   EvidenceIndex
}

// NewFileSink creates dir if needed. index may be nil.
func NewFileSink(dir string, index EvidenceIndex) (*FileSink, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create evidence dir: %w", err)
	}
	return &FileSink{dir: dir, quality: 85, index: index}, nil
}

// Store writes <session>_<timestamp>.jpg and indexes it.
func (s *FileSink) Store(ctx context.Context, sessionID string, ts time.Time, frame image.Image) (string, error) {
	jpg, err := EncodeJPEG(frame, s.quality)
	if err != nil {
		return "", fmt.Errorf("encode evidence: %w", err)
	}
	path := filepath.Join(s.dir, fmt.Sprintf("%s_%s.jpg", sessionID, ts.Format(warningTimeLayout)))
	if err := os.WriteFile(path, jpg, 0o644); err != nil {
		return "", fmt.Errorf("write evidence: %w", err)
	}
	if s.index != nil {
		if err := s.index.RecordEvidence(ctx, sessionID, path, ts); err != nil {
			return path, fmt.Errorf("index evidence: %w", err)
		}
	}
	return path, nil
}

// #endregion
