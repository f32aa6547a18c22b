package api

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danielpatrickdp/interview-controller/internal/evaluator"
	"github.com/danielpatrickdp/interview-controller/internal/orchestrator"
	"github.com/danielpatrickdp/interview-controller/internal/provider"
	"github.com/danielpatrickdp/interview-controller/internal/scoring"
	"github.com/danielpatrickdp/interview-controller/internal/session"
)

// #region fake-service

type fakeService struct {
	mu       sync.Mutex
	sessions map[string]*session.Session
	byCode   map[string]*session.Session
	ended    map[string]bool
	subs     []evaluator.Submission
	turnErr  error
	warnings []string
	frame    []byte
	active   bool
}

func newFakeService() *fakeService {
	return &fakeService{
		sessions: map[string]*session.Session{},
		byCode:   map[string]*session.Session{},
		ended:    map[string]bool{},
	}
}

func (f *fakeService) get(id string) (*session.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.sessions[id]
	if !ok {
		return nil, session.ErrNotFound
	}
	return s, nil
}

func (f *fakeService) CreateSession(_ context.Context, p evaluator.Profile, resume string) (*session.Session, string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	id := fmt.Sprintf("s-%d", len(f.sessions)+1)
	code := fmt.Sprintf("%06d", 100000+len(f.sessions))
	s := session.New(id, code, p, resume, time.Now())
	f.sessions[id] = s
	f.byCode[code] = s
	return s, "Hello " + p.Name, nil
}

func (f *fakeService) HandleCandidateEvent(_ context.Context, id, chunk, _ string) (evaluator.TurnResult, error) {
	if _, err := f.get(id); err != nil {
		return evaluator.TurnResult{}, err
	}
	f.mu.Lock()
	ended := f.ended[id]
	f.mu.Unlock()
	if ended {
		return evaluator.TurnResult{}, orchestrator.ErrSessionEnded
	}
	if f.turnErr != nil {
		return evaluator.DegradedTurn(), f.turnErr
	}
	return evaluator.TurnResult{Utterance: "You said: " + chunk, Tone: "neutral", Action: "ask_question"}, nil
}

func (f *fakeService) SubmitCode(_ context.Context, id string, sub evaluator.Submission) error {
	if _, err := f.get(id); err != nil {
		return err
	}
	f.mu.Lock()
	f.subs = append(f.subs, sub)
	f.mu.Unlock()
	return nil
}

func (f *fakeService) SyncCode(id, code string) error {
	s, err := f.get(id)
	if err != nil {
		return err
	}
	s.SyncCode(code, time.Now())
	return nil
}

func (f *fakeService) SetPhase(id, phase string) error {
	s, err := f.get(id)
	if err != nil {
		return err
	}
	s.SetPhase(phase, time.Now())
	return nil
}

func (f *fakeService) RecordExternalWarning(_ context.Context, id, kind, message string, _ bool) error {
	if _, err := f.get(id); err != nil {
		return err
	}
	f.mu.Lock()
	f.warnings = append(f.warnings, kind+":"+message)
	f.mu.Unlock()
	return nil
}

func (f *fakeService) AnalyzeStuck(_ context.Context, id string) (evaluator.StuckResult, error) {
	if _, err := f.get(id); err != nil {
		return evaluator.StuckResult{}, err
	}
	return evaluator.StuckResult{IsStuck: true, Suggestion: "Try a hash map."}, nil
}

func (f *fakeService) GenerateProblem(_ context.Context, topic, _ string) (evaluator.Problem, error) {
	if topic == "fail" {
		return evaluator.Problem{}, fmt.Errorf("%w: all down", provider.ErrProviderFailure)
	}
	return evaluator.Problem{Title: "Two Sum", Description: topic, Language: "python"}, nil
}

func (f *fakeService) EndSession(_ context.Context, id string) (evaluator.Report, error) {
	if _, err := f.get(id); err != nil {
		return evaluator.Report{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ended[id] = true
	return evaluator.Report{Summary: "done", FinalScore: 72.5, Verdict: scoring.Hire}, nil
}

func (f *fakeService) GetLiveState(joinCode string) (session.LiveState, error) {
	f.mu.Lock()
	s, ok := f.byCode[joinCode]
	f.mu.Unlock()
	if !ok {
		return session.LiveState{}, session.ErrNotFound
	}
	return s.Live(), nil
}

func (f *fakeService) LatestFrame(id string) ([]byte, bool, error) {
	if _, err := f.get(id); err != nil {
		return nil, false, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.frame, f.active, nil
}

// #endregion

// #region helpers

func newTestServer(t *testing.T) (*fakeService, *httptest.Server) {
	t.Helper()
	svc := newFakeService()
	log := logrus.New()
	log.SetOutput(bytes.NewBuffer(nil))
	srv := httptest.NewServer(NewServer(svc, Config{FrameInterval: 10 * time.Millisecond, LiveInterval: 20 * time.Millisecond}, logrus.NewEntry(log)))
	t.Cleanup(srv.Close)
	return svc, srv
}

func postJSON(t *testing.T, url string, body any, out any) int {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)
	resp, err := http.Post(url, "application/json", bytes.NewReader(raw))
	require.NoError(t, err)
	defer resp.Body.Close()
	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

func startSession(t *testing.T, srv *httptest.Server) startSessionResponse {
	t.Helper()
	var out startSessionResponse
	code := postJSON(t, srv.URL+"/api/start-session", map[string]any{
		"candidate_name":   "Ada",
		"role":             "backend",
		"experience_years": 4,
		"languages":        []string{"go"},
		"problem_title":    "arrays",
		"difficulty_level": "medium",
	}, &out)
	require.Equal(t, http.StatusOK, code)
	return out
}

// #endregion

// #region tests

func TestHealth(t *testing.T) {
	_, srv := newTestServer(t)
	resp, err := http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
}

func TestStartSessionAndChat(t *testing.T) {
	_, srv := newTestServer(t)
	started := startSession(t, srv)
	assert.NotEmpty(t, started.SessionID)
	assert.Len(t, started.JoinCode, 6)
	assert.Equal(t, "Hello Ada", started.Message)

	var reply chatResponse
	code := postJSON(t, srv.URL+"/api/chat", chatRequest{SessionID: started.SessionID, Message: "I'd sort first"}, &reply)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "You said: I'd sort first", reply.Reply)
}

func TestStartSessionRequiresName(t *testing.T) {
	_, srv := newTestServer(t)
	var body errorBody
	code := postJSON(t, srv.URL+"/api/start-session", map[string]any{"role": "x"}, &body)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Contains(t, body.Detail, "candidate_name")
}

func TestMalformedBody(t *testing.T) {
	_, srv := newTestServer(t)
	resp, err := http.Post(srv.URL+"/api/chat", "application/json", strings.NewReader("{not json"))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestUnknownSessionIs404(t *testing.T) {
	_, srv := newTestServer(t)
	var body errorBody
	code := postJSON(t, srv.URL+"/api/chat", chatRequest{SessionID: "nope", Message: "hi"}, &body)
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, "Session not found", body.Detail)

	resp, err := http.Get(srv.URL + "/api/session/000000")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestChatProviderFailureDegrades(t *testing.T) {
	svc, srv := newTestServer(t)
	started := startSession(t, srv)
	svc.turnErr = fmt.Errorf("%w: timeout", provider.ErrProviderFailure)

	var reply chatResponse
	code := postJSON(t, srv.URL+"/api/chat", chatRequest{SessionID: started.SessionID, Message: "hello"}, &reply)
	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.Equal(t, chatFallback, reply.Reply)
}

func TestCodeAndPhaseEndpoints(t *testing.T) {
	svc, srv := newTestServer(t)
	started := startSession(t, srv)

	var st statusResponse
	assert.Equal(t, http.StatusOK, postJSON(t, srv.URL+"/api/submit-code", submitCodeRequest{SessionID: started.SessionID, Code: "x = 1", Language: "python"}, &st))
	assert.Equal(t, "success", st.Status)

	withResults := submitCodeRequest{
		SessionID:   started.SessionID,
		Code:        "def f(): pass",
		Language:    "python",
		Constraints: "O(N) time complexity",
		TestResults: &evaluator.TestResults{Passed: 3, Total: 5, FailedCases: []string{"empty input"}},
	}
	assert.Equal(t, http.StatusOK, postJSON(t, srv.URL+"/api/submit-code", withResults, &st))
	require.Len(t, svc.subs, 2)
	assert.Empty(t, svc.subs[0].Constraints)
	assert.Nil(t, svc.subs[0].TestResults)
	assert.Equal(t, "O(N) time complexity", svc.subs[1].Constraints)
	require.NotNil(t, svc.subs[1].TestResults)
	assert.Equal(t, 3, svc.subs[1].TestResults.Passed)
	assert.Equal(t, []string{"empty input"}, svc.subs[1].TestResults.FailedCases)

	assert.Equal(t, http.StatusOK, postJSON(t, srv.URL+"/api/sync-code", syncCodeRequest{SessionID: started.SessionID, Code: "y = 2"}, &st))
	assert.Equal(t, "synced", st.Status)

	assert.Equal(t, http.StatusOK, postJSON(t, srv.URL+"/api/phase", phaseRequest{SessionID: started.SessionID, Phase: session.PhaseCoding}, &st))

	live, err := svc.GetLiveState(started.JoinCode)
	require.NoError(t, err)
	assert.Equal(t, "y = 2", live.Code)
	assert.Equal(t, session.PhaseCoding, live.Phase)
}

func TestReportCheat(t *testing.T) {
	svc, srv := newTestServer(t)
	started := startSession(t, srv)

	var st statusResponse
	code := postJSON(t, srv.URL+"/api/report-cheat", reportCheatRequest{SessionID: started.SessionID, Type: "tab_switch", Message: "left tab"}, &st)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "recorded", st.Status)
	assert.Equal(t, []string{"tab_switch:left tab"}, svc.warnings)
}

func TestAnalyzeStuckAndGenerateProblem(t *testing.T) {
	_, srv := newTestServer(t)
	started := startSession(t, srv)

	var stuck evaluator.StuckResult
	assert.Equal(t, http.StatusOK, postJSON(t, srv.URL+"/api/analyze-stuck", sessionRequest{SessionID: started.SessionID}, &stuck))
	assert.True(t, stuck.IsStuck)

	var p evaluator.Problem
	assert.Equal(t, http.StatusOK, postJSON(t, srv.URL+"/api/generate-problem", generateProblemRequest{Topic: "graphs"}, &p))
	assert.Equal(t, "Two Sum", p.Title)

	var body errorBody
	assert.Equal(t, http.StatusServiceUnavailable, postJSON(t, srv.URL+"/api/generate-problem", generateProblemRequest{Topic: "fail"}, &body))
	assert.Equal(t, http.StatusBadRequest, postJSON(t, srv.URL+"/api/generate-problem", generateProblemRequest{}, &body))
}

func TestEndSession(t *testing.T) {
	_, srv := newTestServer(t)
	started := startSession(t, srv)

	var out endSessionResponse
	assert.Equal(t, http.StatusOK, postJSON(t, srv.URL+"/api/end-session", sessionRequest{SessionID: started.SessionID}, &out))
	assert.Equal(t, scoring.Hire, out.Report.Verdict)
	assert.InDelta(t, 72.5, out.Report.FinalScore, 0.001)

	var again endSessionResponse
	assert.Equal(t, http.StatusOK, postJSON(t, srv.URL+"/api/end-session", sessionRequest{SessionID: started.SessionID}, &again))
	assert.Equal(t, out.Report, again.Report)

	var body errorBody
	assert.Equal(t, http.StatusConflict, postJSON(t, srv.URL+"/api/chat", chatRequest{SessionID: started.SessionID, Message: "one more"}, &body))
}

func TestSessionState(t *testing.T) {
	_, srv := newTestServer(t)
	started := startSession(t, srv)

	resp, err := http.Get(srv.URL + "/api/session/" + started.JoinCode)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var live session.LiveState
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&live))
	assert.Equal(t, started.SessionID, live.SessionID)
	assert.Equal(t, "Ada", live.Candidate.Name)
}

func TestVideoFeedStreamsPlaceholder(t *testing.T) {
	_, srv := newTestServer(t)
	started := startSession(t, srv)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/api/video-feed/"+started.SessionID, nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Contains(t, resp.Header.Get("Content-Type"), "multipart/x-mixed-replace")
	rd := bufio.NewReader(resp.Body)
	line, err := rd.ReadString('\n')
	require.NoError(t, err)
	assert.Equal(t, "--frame\r\n", line)
	line, err = rd.ReadString('\n')
	require.NoError(t, err)
	assert.Equal(t, "Content-Type: image/jpeg\r\n", line)
}

func TestVideoFeedUnknownSession(t *testing.T) {
	_, srv := newTestServer(t)
	resp, err := http.Get(srv.URL + "/api/video-feed/missing")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestLiveWebsocketPushesState(t *testing.T) {
	svc, srv := newTestServer(t)
	started := startSession(t, srv)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/session/" + started.JoinCode + "/live"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	var first session.LiveState
	require.NoError(t, conn.ReadJSON(&first))
	assert.Equal(t, started.SessionID, first.SessionID)

	require.NoError(t, svc.SyncCode(started.SessionID, "print(1)"))
	require.Eventually(t, func() bool {
		var next session.LiveState
		if err := conn.ReadJSON(&next); err != nil {
			return false
		}
		return next.Code == "print(1)"
	}, 2*time.Second, 10*time.Millisecond)
}

// #endregion
