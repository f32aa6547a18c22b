package vision

// #region imports
import (
	"context"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"net/http"
	"sync/atomic"

	"github.com/danielpatrickdp/interview-controller/internal/monitor"
)

// #endregion

// #region snapshot-capture

// SnapshotCapture reads frames by polling a camera's still-image endpoint.
type SnapshotCapture struct {
	h      *HTTP
	url    string
	closed atomic.Bool
}

// NewSnapshotCapture creates a capture source for a URL that returns one JPEG or PNG per GET.
func NewSnapshotCapture(h *HTTP, url string) *SnapshotCapture {
	return &SnapshotCapture{h: h, url: url}
}

// Open verifies the camera answers with a decodable frame.
func (s *SnapshotCapture) Open(ctx context.Context) error {
	if s.url == "" {
		return fmt.Errorf("%w: no snapshot url", monitor.ErrCaptureUnavailable)
	}
	if _, err := s.fetch(ctx); err != nil {
		return fmt.Errorf("%w: %v", monitor.ErrCaptureUnavailable, err)
	}
	s.closed.Store(false)
	return nil
}

// Read fetches the current frame.
func (s *SnapshotCapture) Read(ctx context.Context) (image.Image, error) {
	if s.closed.Load() {
		return nil, fmt.Errorf("snapshot capture closed")
	}
	return s.fetch(ctx)
}

// Close marks the source closed. There is no connection to release.
func (s *SnapshotCapture) Close() error {
	s.closed.Store(true)
	return nil
}

func (s *SnapshotCapture) fetch(ctx context.Context) (image.Image, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := s.h.c.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("snapshot %s: %s", resp.Status, string(body))
	}
	img, _, err := image.Decode(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("snapshot decode: %w", err)
	}
	return img, nil
}

// #endregion
