package session

// #region imports
import (
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/danielpatrickdp/interview-controller/internal/evaluator"
)

// #endregion

// #region session

type resultSlot struct {
	seq    uint64
	result evaluator.Result
}

// Session is one live interview. All mutable fields are guarded by mu.
type Session struct {
	ID        string
	JoinCode  string
	Profile   evaluator.Profile
	Resume    string
	CreatedAt time.Time

	mu           sync.RWMutex
	phase        string
	transcript   []string
	code         string
	language     string
	constraints  string
	testResults  *evaluator.TestResults
	results      map[evaluator.Kind]resultSlot
	dispatched   map[evaluator.Kind]uint64
	external     []evaluator.ExternalWarning
	monitor      Monitor
	lastActivity time.Time
	lastCodeEdit time.Time
	ended        bool
	endDone      chan struct{}
	report       *evaluator.Report
	tasks        *errgroup.Group
}

// New creates a session in the warmup phase.
func New(id, joinCode string, profile evaluator.Profile, resume string, now time.Time) *Session {
	return &Session{
		ID:           id,
		JoinCode:     joinCode,
		Profile:      profile,
		Resume:       resume,
		CreatedAt:    now,
		phase:        PhaseWarmup,
		results:      make(map[evaluator.Kind]resultSlot),
		dispatched:   make(map[evaluator.Kind]uint64),
		lastActivity: now,
		lastCodeEdit: now,
		endDone:      make(chan struct{}),
		tasks:        new(errgroup.Group),
	}
}

// #endregion

// #region candidate-input

// ApplyCandidateEvent appends chunk to the transcript, overwrites the code
// and reserves dispatch numbers for the communication and reasoning evaluators.
func (s *Session) ApplyCandidateEvent(chunk, code string, now time.Time) CandidateEvent {
	s.mu.Lock()
	defer s.mu.Unlock()

	if chunk != "" {
		s.transcript = append(s.transcript, chunk)
	}
	if code != s.code {
		s.code = code
		s.lastCodeEdit = now
	}
	s.lastActivity = now

	return CandidateEvent{
		Transcript:       append([]string(nil), s.transcript...),
		Code:             s.code,
		Phase:            s.phase,
		CommunicationSeq: s.nextSeqLocked(evaluator.KindCommunication),
		ReasoningSeq:     s.nextSeqLocked(evaluator.KindReasoning),
		ExternalWarnings: append([]evaluator.ExternalWarning(nil), s.external...),
		TestResults:      copyTestResults(s.testResults),
	}
}

// SubmitCode records a code submission and reserves a code judge dispatch
// number. Constraints and test results left empty keep their previous values;
// the returned submission carries the effective ones.
func (s *Session) SubmitCode(sub evaluator.Submission, now time.Time) (uint64, evaluator.Submission) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.code = sub.Code
	if sub.Language != "" {
		s.language = sub.Language
	}
	if sub.Constraints != "" {
		s.constraints = sub.Constraints
	}
	if sub.TestResults != nil {
		s.testResults = copyTestResults(sub.TestResults)
	}
	s.lastCodeEdit = now
	s.lastActivity = now

	eff := evaluator.Submission{
		Code:        s.code,
		Language:    s.language,
		Constraints: s.constraints,
		TestResults: copyTestResults(s.testResults),
	}
	return s.nextSeqLocked(evaluator.KindCodeJudge), eff
}

func copyTestResults(tr *evaluator.TestResults) *evaluator.TestResults {
	if tr == nil {
		return nil
	}
	c := *tr
	c.FailedCases = append([]string(nil), tr.FailedCases...)
	return &c
}

// SyncCode mirrors the live editor without triggering evaluation.
func (s *Session) SyncCode(code string, now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if code != s.code {
		s.code = code
		s.lastCodeEdit = now
	}
	s.lastActivity = now
}

// Code returns the latest code and language.
func (s *Session) Code() (string, string) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.code, s.language
}

// Transcript returns a copy of the transcript.
func (s *Session) Transcript() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]string(nil), s.transcript...)
}

// TranscriptText joins the transcript into one string.
func (s *Session) TranscriptText() string {
	return strings.Join(s.Transcript(), "\n")
}

// #endregion

// #region phase

// SetPhase moves the advisory phase. Any value is accepted.
func (s *Session) SetPhase(phase string, now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.phase = phase
	s.lastActivity = now
}

// Phase returns the current phase.
func (s *Session) Phase() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.phase
}

// #endregion

// #region results

// ReserveTurn reserves a dispatch number for the interviewer turn.
func (s *Session) ReserveTurn() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.nextSeqLocked(evaluator.KindTurn)
}

func (s *Session) nextSeqLocked(kind evaluator.Kind) uint64 {
	s.dispatched[kind]++
	return s.dispatched[kind]
}

// Merge stores r unless a result from a later dispatch of the same kind is
// already present. It reports whether r was stored.
func (s *Session) Merge(seq uint64, r evaluator.Result) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.results[r.Kind()]
	if ok && cur.seq > seq {
		return false
	}
	s.results[r.Kind()] = resultSlot{seq: seq, result: r}
	return true
}

// Result returns the latest stored result of kind.
func (s *Session) Result(kind evaluator.Kind) (evaluator.Result, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	slot, ok := s.results[kind]
	return slot.result, ok
}

// #endregion

// #region warnings

// AddExternalWarning appends a client-reported warning. Duplicates are kept.
func (s *Session) AddExternalWarning(w evaluator.ExternalWarning) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.external = append(s.external, w)
	s.lastActivity = w.Timestamp
	return len(s.external)
}

// ExternalWarnings returns a copy of the client-reported warnings.
func (s *Session) ExternalWarnings() []evaluator.ExternalWarning {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]evaluator.ExternalWarning(nil), s.external...)
}

// MonitorWarnings returns the owned monitor's warning messages, or nil.
func (s *Session) MonitorWarnings() []string {
	if m := s.Monitor(); m != nil {
		return m.WarningMessages()
	}
	return nil
}

// AllWarnings is the union of monitor and external warning messages.
func (s *Session) AllWarnings() []string {
	out := s.MonitorWarnings()
	for _, w := range s.ExternalWarnings() {
		out = append(out, w.Message)
	}
	return out
}

// #endregion

// #region monitor

// SetMonitor attaches the session's behavior monitor.
func (s *Session) SetMonitor(m Monitor) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.monitor = m
}

// Monitor returns the attached monitor, or nil.
func (s *Session) Monitor() Monitor {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.monitor
}

// #endregion

// #region tasks

// Go runs fn on the session's current task group. It refuses, returning false,
// once the session has ended. The lock is held across tasks.Go so a dispatch never
// lands on a group that DrainTasks already handed to a waiter.
func (s *Session) Go(fn func() error) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ended {
		return false
	}
	s.tasks.Go(fn)
	return true
}

// DrainTasks swaps in a fresh task group and returns the previous one, so a
// caller can Wait on it while new dispatches land on the new group.
func (s *Session) DrainTasks() *errgroup.Group {
	s.mu.Lock()
	defer s.mu.Unlock()
	old := s.tasks
	s.tasks = new(errgroup.Group)
	return old
}

// #endregion

// #region lifecycle

// Touch records activity at now.
func (s *Session) Touch(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastActivity = now
}

// LastActivity is the time of the most recent candidate or client input.
func (s *Session) LastActivity() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastActivity
}

// LastCodeEdit is when the code last changed.
func (s *Session) LastCodeEdit() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastCodeEdit
}

// BeginEnd marks the session ended. Only the first caller gets true; later
// callers wait on EndDone before aggregating again.
func (s *Session) BeginEnd() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ended {
		return false
	}
	s.ended = true
	s.phase = PhaseEnd
	return true
}

// EndDone is closed once the final report is stored.
func (s *Session) EndDone() <-chan struct{} {
	return s.endDone
}

// SetReport stores the final report and releases EndDone waiters.
func (s *Session) SetReport(r evaluator.Report) {
	s.mu.Lock()
	defer s.mu.Unlock()
	first := s.report == nil
	s.report = &r
	if first {
		close(s.endDone)
	}
}

// Report returns the final report, if one has been produced.
func (s *Session) Report() (evaluator.Report, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.report == nil {
		return evaluator.Report{}, false
	}
	return *s.report, true
}

// Ended reports whether EndSession has begun.
func (s *Session) Ended() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ended
}

// #endregion

// #region live-state

// Live returns a snapshot of the session for observers.
func (s *Session) Live() LiveState {
	s.mu.RLock()
	st := LiveState{
		SessionID:        s.ID,
		JoinCode:         s.JoinCode,
		Candidate:        s.Profile,
		Phase:            s.phase,
		Code:             s.code,
		Language:         s.language,
		Transcript:       append([]string{}, s.transcript...),
		ExternalWarnings: append([]evaluator.ExternalWarning{}, s.external...),
		Ended:            s.ended,
	}
	m := s.monitor
	s.mu.RUnlock()

	for _, w := range st.ExternalWarnings {
		if w.Terminal {
			st.Terminated = true
			break
		}
	}
	st.MonitorWarnings = []string{}
	if m != nil {
		st.MonitorWarnings = append(st.MonitorWarnings, m.WarningMessages()...)
		st.MonitorActive = m.Active()
	}
	return st
}

// #endregion
