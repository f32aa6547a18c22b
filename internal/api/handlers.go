package api

// #region imports
import (
	"errors"
	"net/http"
	"strings"

	"github.com/danielpatrickdp/interview-controller/internal/evaluator"
	"github.com/danielpatrickdp/interview-controller/internal/provider"
)

// #endregion

// #region wire-types

type startSessionRequest struct {
	CandidateName   string   `json:"candidate_name"`
	Role            string   `json:"role"`
	ExperienceYears int      `json:"experience_years"`
	Languages       []string `json:"languages"`
	ProblemTitle    string   `json:"problem_title"`
	Difficulty      string   `json:"difficulty_level"`
	ResumeText      string   `json:"resume_text"`
}

type startSessionResponse struct {
	SessionID string `json:"session_id"`
	JoinCode  string `json:"join_code"`
	Message   string `json:"message"`
}

type chatRequest struct {
	SessionID string `json:"session_id"`
	Message   string `json:"message"`
	Code      string `json:"code"`
}

type chatResponse struct {
	Reply  string `json:"reply"`
	Tone   string `json:"tone,omitempty"`
	Action string `json:"action,omitempty"`
}

type submitCodeRequest struct {
	SessionID   string                 `json:"session_id"`
	Code        string                 `json:"code"`
	Language    string                 `json:"language"`
	Constraints string                 `json:"constraints"`
	TestResults *evaluator.TestResults `json:"test_results"`
}

type statusResponse struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

type syncCodeRequest struct {
	SessionID string `json:"session_id"`
	Code      string `json:"code"`
}

type phaseRequest struct {
	SessionID string `json:"session_id"`
	Phase     string `json:"phase"`
}

type reportCheatRequest struct {
	SessionID  string `json:"session_id"`
	Type       string `json:"warning_type"`
	Message    string `json:"message"`
	IsTerminal bool   `json:"is_terminal"`
}

type sessionRequest struct {
	SessionID string `json:"session_id"`
}

type generateProblemRequest struct {
	Topic   string `json:"topic"`
	Context string `json:"context"`
}

type endSessionResponse struct {
	Report evaluator.Report `json:"report"`
}

// chatFallback is the reply body sent with a 503 when no provider answered.
const chatFallback = "Let's keep going."

// #endregion

// #region handlers

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, statusResponse{Status: "ok"})
}

func (s *Server) handleStartSession(w http.ResponseWriter, r *http.Request) {
	var req startSessionRequest
	if !decode(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.CandidateName) == "" {
		writeJSON(w, http.StatusBadRequest, errorBody{Detail: "candidate_name is required"})
		return
	}

	sess, greeting, err := s.svc.CreateSession(r.Context(), evaluator.Profile{
		Name:            req.CandidateName,
		Role:            req.Role,
		ExperienceYears: req.ExperienceYears,
		Languages:       req.Languages,
		Topic:           req.ProblemTitle,
		Difficulty:      req.Difficulty,
	}, req.ResumeText)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, startSessionResponse{SessionID: sess.ID, JoinCode: sess.JoinCode, Message: greeting})
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if !decode(w, r, &req) {
		return
	}
	turn, err := s.svc.HandleCandidateEvent(r.Context(), req.SessionID, req.Message, req.Code)
	if err != nil {
		if errors.Is(err, provider.ErrProviderFailure) {
			s.log.WithError(err).WithField("session", req.SessionID).Warn("chat degraded")
			writeJSON(w, http.StatusServiceUnavailable, chatResponse{Reply: chatFallback})
			return
		}
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, chatResponse{Reply: turn.Utterance, Tone: turn.Tone, Action: turn.Action})
}

func (s *Server) handleSubmitCode(w http.ResponseWriter, r *http.Request) {
	var req submitCodeRequest
	if !decode(w, r, &req) {
		return
	}
	sub := evaluator.Submission{
		Code:        req.Code,
		Language:    req.Language,
		Constraints: req.Constraints,
		TestResults: req.TestResults,
	}
	if err := s.svc.SubmitCode(r.Context(), req.SessionID, sub); err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, statusResponse{Status: "success", Message: "Code submitted for evaluation."})
}

func (s *Server) handleSyncCode(w http.ResponseWriter, r *http.Request) {
	var req syncCodeRequest
	if !decode(w, r, &req) {
		return
	}
	if err := s.svc.SyncCode(req.SessionID, req.Code); err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, statusResponse{Status: "synced"})
}

func (s *Server) handlePhase(w http.ResponseWriter, r *http.Request) {
	var req phaseRequest
	if !decode(w, r, &req) {
		return
	}
	if err := s.svc.SetPhase(req.SessionID, req.Phase); err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, statusResponse{Status: "ok"})
}

func (s *Server) handleReportCheat(w http.ResponseWriter, r *http.Request) {
	var req reportCheatRequest
	if !decode(w, r, &req) {
		return
	}
	if err := s.svc.RecordExternalWarning(r.Context(), req.SessionID, req.Type, req.Message, req.IsTerminal); err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, statusResponse{Status: "recorded"})
}

func (s *Server) handleAnalyzeStuck(w http.ResponseWriter, r *http.Request) {
	var req sessionRequest
	if !decode(w, r, &req) {
		return
	}
	res, err := s.svc.AnalyzeStuck(r.Context(), req.SessionID)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleGenerateProblem(w http.ResponseWriter, r *http.Request) {
	var req generateProblemRequest
	if !decode(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Topic) == "" {
		writeJSON(w, http.StatusBadRequest, errorBody{Detail: "topic is required"})
		return
	}
	p, err := s.svc.GenerateProblem(r.Context(), req.Topic, req.Context)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) handleEndSession(w http.ResponseWriter, r *http.Request) {
	var req sessionRequest
	if !decode(w, r, &req) {
		return
	}
	rep, err := s.svc.EndSession(r.Context(), req.SessionID)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, endSessionResponse{Report: rep})
}

func (s *Server) handleSessionState(w http.ResponseWriter, r *http.Request) {
	st, err := s.svc.GetLiveState(r.PathValue("join_code"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

// #endregion
