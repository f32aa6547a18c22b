package vision

// #region imports
import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image"
	"image/jpeg"
	"io"
	"net/http"

	"github.com/danielpatrickdp/interview-controller/internal/behavior"
	"github.com/danielpatrickdp/interview-controller/internal/monitor"
)

// #endregion

// #region wire-types

type detectBox struct {
	Class      string     `json:"class"`
	Confidence float64    `json:"confidence"`
	Box        [4]float64 `json:"box"` // x1, y1, x2, y2 in pixels
	TrackID    string     `json:"track_id,omitempty"`
}

type detectResp struct {
	Detections []detectBox `json:"detections"`
}

// #endregion

// #region detector

// HTTPDetector posts JPEG frames to a detection service's /detect endpoint.
type HTTPDetector struct {
	h       *HTTP
	url     string
	quality int
}

// NewHTTPDetector creates a detector for the service at baseURL.
func NewHTTPDetector(h *HTTP, baseURL string) *HTTPDetector {
	return &HTTPDetector{h: h, url: trimURL(baseURL), quality: 80}
}

// Detect returns every detection the service reports. Class filtering is the caller's job.
func (d *HTTPDetector) Detect(ctx context.Context, frame image.Image) ([]monitor.Detection, error) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, frame, &jpeg.Options{Quality: d.quality}); err != nil {
		return nil, fmt.Errorf("detect encode: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.url+"/detect", &buf)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "image/jpeg")

	resp, err := d.h.c.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("detect %s: %s", resp.Status, string(body))
	}

	var out detectResp
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("detect decode: %w", err)
	}

	dets := make([]monitor.Detection, len(out.Detections))
	for i, b := range out.Detections {
		dets[i] = monitor.Detection{
			Class:      b.Class,
			Confidence: b.Confidence,
			Region:     behavior.Region{X1: b.Box[0], Y1: b.Box[1], X2: b.Box[2], Y2: b.Box[3]},
			TrackID:    b.TrackID,
		}
	}
	return dets, nil
}

// #endregion
