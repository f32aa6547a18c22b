// Package vision adapts external camera and object-detection services to the
// monitor's CaptureSource and Detector interfaces.
package vision

// #region imports
import (
	"errors"
	"net/http"
	"strings"
	"time"
)

// #endregion

// ErrDetectorUnavailable means the detection service did not report healthy.
var ErrDetectorUnavailable = errors.New("detector unavailable")

// HTTP is the shared client for the camera and detector services.
type HTTP struct{ c *http.Client }

// NewHTTP creates a client with a per-request timeout, 10s when unset.
func NewHTTP(timeout time.Duration) *HTTP {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &HTTP{c: &http.Client{Timeout: timeout}}
}

func trimURL(u string) string { return strings.TrimRight(u, "/") }
