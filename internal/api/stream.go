package api

// #region imports
import (
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/danielpatrickdp/interview-controller/internal/monitor"
)

// #endregion

// #region mjpeg

const mjpegBoundary = "frame"

// handleVideoFeed streams the latest annotated frame as multipart JPEG until
// the client disconnects. A placeholder frame is sent while monitoring is inactive.
func (s *Server) handleVideoFeed(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("session_id")
	if _, _, err := s.svc.LatestFrame(id); err != nil {
		s.fail(w, r, err)
		return
	}

	flusher, _ := w.(http.Flusher)
	w.Header().Set("Content-Type", "multipart/x-mixed-replace; boundary="+mjpegBoundary)
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(http.StatusOK)

	t := time.NewTicker(s.config.FrameInterval)
	defer t.Stop()
	for {
		frame, active, err := s.svc.LatestFrame(id)
		if err != nil {
			// session evicted mid-stream
			return
		}
		if !active || len(frame) == 0 {
			frame = monitor.PlaceholderJPEG
		}
		if _, err := fmt.Fprintf(w, "--%s\r\nContent-Type: image/jpeg\r\nContent-Length: %d\r\n\r\n", mjpegBoundary, len(frame)); err != nil {
			return
		}
		if _, err := w.Write(frame); err != nil {
			return
		}
		if _, err := w.Write([]byte("\r\n")); err != nil {
			return
		}
		if flusher != nil {
			flusher.Flush()
		}

		select {
		case <-r.Context().Done():
			return
		case <-t.C:
		}
	}
}

// #endregion

// #region live

// handleLive pushes the live session state over a websocket once per
// LiveInterval until the client goes away or the session ends.
func (s *Server) handleLive(w http.ResponseWriter, r *http.Request) {
	code := r.PathValue("join_code")
	if _, err := s.svc.GetLiveState(code); err != nil {
		s.fail(w, r, err)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	// drain client frames so close and ping control messages are processed
	gone := make(chan struct{})
	go func() {
		defer close(gone)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	t := time.NewTicker(s.config.LiveInterval)
	defer t.Stop()
	for {
		st, err := s.svc.GetLiveState(code)
		if err != nil {
			s.closeWS(conn, websocket.CloseGoingAway, "session closed")
			return
		}
		_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
		if err := conn.WriteJSON(st); err != nil {
			return
		}
		if st.Ended {
			s.closeWS(conn, websocket.CloseNormalClosure, "session ended")
			return
		}

		select {
		case <-gone:
			return
		case <-r.Context().Done():
			return
		case <-t.C:
		}
	}
}

func (s *Server) closeWS(conn *websocket.Conn, code int, reason string) {
	deadline := time.Now().Add(time.Second)
	_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(code, reason), deadline)
}

// #endregion
