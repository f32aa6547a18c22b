// Package api exposes the interview orchestrator over HTTP: JSON endpoints,
// an MJPEG stream of the annotated monitor feed and a websocket live view.
package api

// #region imports
import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/danielpatrickdp/interview-controller/internal/evaluator"
	"github.com/danielpatrickdp/interview-controller/internal/orchestrator"
	"github.com/danielpatrickdp/interview-controller/internal/provider"
	"github.com/danielpatrickdp/interview-controller/internal/session"
)

// #endregion

// #region service

// Service is the orchestrator surface the HTTP layer needs.
type Service interface {
	CreateSession(ctx context.Context, profile evaluator.Profile, resume string) (*session.Session, string, error)
	HandleCandidateEvent(ctx context.Context, id, chunk, code string) (evaluator.TurnResult, error)
	SubmitCode(ctx context.Context, id string, sub evaluator.Submission) error
	SyncCode(id, code string) error
	SetPhase(id, phase string) error
	RecordExternalWarning(ctx context.Context, id, kind, message string, terminal bool) error
	AnalyzeStuck(ctx context.Context, id string) (evaluator.StuckResult, error)
	GenerateProblem(ctx context.Context, topic, background string) (evaluator.Problem, error)
	EndSession(ctx context.Context, id string) (evaluator.Report, error)
	GetLiveState(joinCode string) (session.LiveState, error)
	LatestFrame(id string) ([]byte, bool, error)
}

// #endregion

// #region server

// Config tunes streaming endpoints.
type Config struct {
	FrameInterval time.Duration // MJPEG frame pacing
	LiveInterval  time.Duration // websocket live-state push pacing
}

// DefaultConfig paces the video feed at 10 fps and live state at 1 Hz.
func DefaultConfig() Config {
	return Config{
		FrameInterval: 100 * time.Millisecond,
		LiveInterval:  time.Second,
	}
}

// Server routes HTTP requests to a Service.
type Server struct {
	svc      Service
	config   Config
	log      *logrus.Entry
	upgrader websocket.Upgrader
	mux      *http.ServeMux
}

// NewServer builds the route table.
func NewServer(svc Service, config Config, log *logrus.Entry) *Server {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	s := &Server{
		svc:    svc,
		config: config,
		log:    log.WithField("component", "api"),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(*http.Request) bool { return true },
		},
		mux: http.NewServeMux(),
	}

	s.mux.HandleFunc("GET /healthz", s.handleHealth)
	s.mux.HandleFunc("POST /api/start-session", s.handleStartSession)
	s.mux.HandleFunc("POST /api/chat", s.handleChat)
	s.mux.HandleFunc("POST /api/submit-code", s.handleSubmitCode)
	s.mux.HandleFunc("POST /api/sync-code", s.handleSyncCode)
	s.mux.HandleFunc("POST /api/phase", s.handlePhase)
	s.mux.HandleFunc("POST /api/report-cheat", s.handleReportCheat)
	s.mux.HandleFunc("POST /api/analyze-stuck", s.handleAnalyzeStuck)
	s.mux.HandleFunc("POST /api/generate-problem", s.handleGenerateProblem)
	s.mux.HandleFunc("POST /api/end-session", s.handleEndSession)
	s.mux.HandleFunc("GET /api/session/{join_code}", s.handleSessionState)
	s.mux.HandleFunc("GET /api/session/{join_code}/live", s.handleLive)
	s.mux.HandleFunc("GET /api/video-feed/{session_id}", s.handleVideoFeed)
	return s
}

// ServeHTTP implements http.Handler with CORS for browser clients.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
	w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	s.mux.ServeHTTP(w, r)
}

// #endregion

// #region helpers

type errorBody struct {
	Detail string `json:"detail"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Detail: "invalid request body: " + err.Error()})
		return false
	}
	return true
}

// statusFor maps domain errors to HTTP statuses.
func statusFor(err error) int {
	switch {
	case errors.Is(err, session.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, orchestrator.ErrSessionEnded):
		return http.StatusConflict
	case errors.Is(err, provider.ErrProviderFailure):
		return http.StatusServiceUnavailable
	case errors.Is(err, evaluator.ErrMalformedResponse):
		return http.StatusBadGateway
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	entry := s.log.WithError(err).WithFields(logrus.Fields{"path": r.URL.Path, "status": status})
	detail := err.Error()
	switch status {
	case http.StatusNotFound:
		detail = "Session not found"
		entry.Debug("request failed")
	case http.StatusInternalServerError:
		detail = "internal error"
		entry.Error("request failed")
	default:
		entry.Warn("request failed")
	}
	writeJSON(w, status, errorBody{Detail: detail})
}

// #endregion
