package orchestrator

// #region imports
import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/danielpatrickdp/interview-controller/internal/archive"
	"github.com/danielpatrickdp/interview-controller/internal/evaluator"
	"github.com/danielpatrickdp/interview-controller/internal/logging"
	"github.com/danielpatrickdp/interview-controller/internal/session"
)

// #endregion

// #region orchestrator-struct

// Orchestrator owns live interview sessions. It fans candidate events out to
// evaluators, merges their asynchronous results into the session record and
// produces the final report.
type Orchestrator struct {
	registry   *session.Registry
	evals      Evaluators
	newMonitor MonitorFactory
	archive    Archiver
	audit      Auditor
	config     Config
	log        *logrus.Entry
	now        func() time.Time
}

// Option customizes an Orchestrator.
type Option func(*Orchestrator)

func WithArchive(a Archiver) Option        { return func(o *Orchestrator) { o.archive = a } }
func WithAuditor(a Auditor) Option         { return func(o *Orchestrator) { o.audit = a } }
func WithMonitors(f MonitorFactory) Option { return func(o *Orchestrator) { o.newMonitor = f } }
func WithRegistry(r *session.Registry) Option {
	return func(o *Orchestrator) { o.registry = r }
}
func WithClock(now func() time.Time) Option { return func(o *Orchestrator) { o.now = now } }

// #endregion

// #region constructor

// New creates an orchestrator. Archive, audit and monitoring are optional.
func New(evals Evaluators, config Config, log *logrus.Entry, opts ...Option) *Orchestrator {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	o := &Orchestrator{
		registry: session.NewRegistry(),
		evals:    evals,
		config:   config,
		log:      log.WithField("component", "orch"),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Registry exposes the live session registry.
func (o *Orchestrator) Registry() *session.Registry {
	return o.registry
}

// #endregion

// #region create

// CreateSession registers a session, starts its monitor and produces the
// opening greeting. A provider failure falls back to a fixed greeting.
func (o *Orchestrator) CreateSession(ctx context.Context, profile evaluator.Profile, resume string) (*session.Session, string, error) {
	s, err := o.registry.Create(profile, resume, o.now())
	if err != nil {
		return nil, "", fmt.Errorf("create session: %w", err)
	}
	log := o.log.WithField("session", s.ID)

	if o.newMonitor != nil {
		if m := o.newMonitor(s.ID); m != nil {
			s.SetMonitor(m)
			m.Start(context.WithoutCancel(ctx))
		}
	}
	o.record(ctx, s.ID, logging.EventSessionCreated, profile, "")

	seq := s.ReserveTurn()
	turn, err := o.evals.NextTurn(ctx, evaluator.TurnInput{
		Profile: profile,
		Resume:  resume,
		Phase:   session.PhaseWarmup,
		Context: "The interview is starting. Greet the candidate.",
	})
	greeting := turn.Utterance
	if err != nil || turn.Degraded || CheckReply(greeting) != ReplyOK {
		log.WithError(err).Warn("greeting unavailable, using fallback")
		greeting = fmt.Sprintf("Hello %s, let's begin your interview.", strings.TrimSpace(profile.Name))
		turn = evaluator.TurnResult{Utterance: greeting, Tone: "friendly", Action: evaluator.ActionAskQuestion, Degraded: true}
	}
	s.Merge(seq, turn)

	log.WithField("join_code", s.JoinCode).Info("session created")
	return s, greeting, nil
}

// #endregion

// #region candidate-event

// HandleCandidateEvent records a transcript chunk and the current code,
// dispatches the communication and reasoning evaluators in the background and
// returns the interviewer's reply. When no provider answers, the degraded reply
// is returned together with an error wrapping provider.ErrProviderFailure.
func (o *Orchestrator) HandleCandidateEvent(ctx context.Context, id, chunk, code string) (evaluator.TurnResult, error) {
	s, err := o.registry.Get(id)
	if err != nil {
		return evaluator.TurnResult{}, err
	}
	if s.Ended() {
		return evaluator.TurnResult{}, fmt.Errorf("%w: %s", ErrSessionEnded, id)
	}

	ev := s.ApplyCandidateEvent(chunk, code, o.now())
	bg := context.WithoutCancel(ctx)
	transcript := strings.Join(ev.Transcript, "\n")

	dispatched := s.Go(func() error {
		r := o.evals.EvaluateCommunication(bg, evaluator.CommunicationInput{Transcript: chunk})
		o.merge(bg, s, ev.CommunicationSeq, r)
		return nil
	})
	dispatched = s.Go(func() error {
		r := o.evals.AnalyzeReasoning(bg, evaluator.ReasoningInput{
			Explanation: chunk,
			Problem:     s.Profile.Topic,
			Steps:       transcript,
		})
		o.merge(bg, s, ev.ReasoningSeq, r)
		return nil
	}) && dispatched
	if !dispatched {
		// EndSession started between the ended check and dispatch
		return evaluator.TurnResult{}, fmt.Errorf("%w: %s", ErrSessionEnded, id)
	}

	seq := s.ReserveTurn()
	turn, err := o.evals.NextTurn(ctx, evaluator.TurnInput{
		Profile:     s.Profile,
		Resume:      s.Resume,
		Phase:       ev.Phase,
		Transcript:  chunk,
		Code:        ev.Code,
		TestResults: ev.TestResults,
		Warnings:    o.warningsAt(s, ev),
		Context:     o.contextSummary(ev.Transcript),
	})
	if err != nil {
		o.merge(ctx, s, seq, turn)
		return turn, fmt.Errorf("candidate event %s: %w", id, err)
	}

	if failure := CheckReply(turn.Utterance); failure != ReplyOK {
		o.log.WithFields(logrus.Fields{"session": id, "failure": failure}).Warn("interviewer reply rejected")
		o.record(ctx, id, logging.EventEvaluatorResult, logging.EvaluatorRecord{Kind: string(evaluator.KindTurn), Seq: seq}, string(failure))
		turn = evaluator.TurnResult{Utterance: guardedUtterance, Tone: "neutral", Action: evaluator.ActionAskQuestion}
	}
	o.merge(ctx, s, seq, turn)
	return turn, nil
}

// warningsAt is the union of monitor and external warnings as of dispatch.
func (o *Orchestrator) warningsAt(s *session.Session, ev session.CandidateEvent) []string {
	out := s.MonitorWarnings()
	for _, w := range ev.ExternalWarnings {
		out = append(out, w.Message)
	}
	return out
}

func (o *Orchestrator) contextSummary(transcript []string) string {
	n := o.config.ContextTurns
	if n <= 0 || len(transcript) <= 1 {
		return ""
	}
	prior := transcript[:len(transcript)-1]
	if len(prior) > n {
		prior = prior[len(prior)-n:]
	}
	return "Earlier candidate remarks:\n" + strings.Join(prior, "\n")
}

// #endregion

// #region code

// SubmitCode records a submission and judges it in the background against
// the latest constraints and test results.
func (o *Orchestrator) SubmitCode(ctx context.Context, id string, sub evaluator.Submission) error {
	s, err := o.registry.Get(id)
	if err != nil {
		return err
	}
	if s.Ended() {
		return fmt.Errorf("%w: %s", ErrSessionEnded, id)
	}

	seq, eff := s.SubmitCode(sub, o.now())
	in := evaluator.CodeJudgeInput{
		Code:        eff.Code,
		Language:    eff.Language,
		Problem:     s.Profile.Topic,
		Constraints: eff.Constraints,
	}
	if eff.TestResults != nil {
		in.TestResults = *eff.TestResults
	}
	bg := context.WithoutCancel(ctx)
	if !s.Go(func() error {
		o.merge(bg, s, seq, o.evals.JudgeCode(bg, in))
		return nil
	}) {
		return fmt.Errorf("%w: %s", ErrSessionEnded, id)
	}
	return nil
}

// SyncCode mirrors the live editor content.
func (o *Orchestrator) SyncCode(id, code string) error {
	s, err := o.registry.Get(id)
	if err != nil {
		return err
	}
	s.SyncCode(code, o.now())
	return nil
}

// SetPhase moves the advisory interview phase.
func (o *Orchestrator) SetPhase(id, phase string) error {
	s, err := o.registry.Get(id)
	if err != nil {
		return err
	}
	s.SetPhase(phase, o.now())
	return nil
}

// #endregion

// #region warnings

// RecordExternalWarning appends a client-reported integrity warning.
func (o *Orchestrator) RecordExternalWarning(ctx context.Context, id, kind, message string, terminal bool) error {
	s, err := o.registry.Get(id)
	if err != nil {
		return err
	}
	w := evaluator.ExternalWarning{Type: kind, Message: message, Terminal: terminal, Timestamp: o.now()}
	n := s.AddExternalWarning(w)

	o.log.WithFields(logrus.Fields{"session": id, "type": kind, "terminal": terminal, "count": n}).Warn("external warning")
	o.record(ctx, id, logging.EventExternalWarning, w, kind)
	return nil
}

// #endregion

// #region assist

// AnalyzeStuck decides whether an idle candidate needs a nudge. Candidates
// who edited their code recently are never considered stuck.
func (o *Orchestrator) AnalyzeStuck(ctx context.Context, id string) (evaluator.StuckResult, error) {
	s, err := o.registry.Get(id)
	if err != nil {
		return evaluator.StuckResult{}, err
	}
	idle := o.now().Sub(s.LastCodeEdit())
	if idle < o.config.StuckIdle {
		return evaluator.StuckResult{}, nil
	}

	code, _ := s.Code()
	transcript := s.Transcript()
	if len(transcript) > 3 {
		transcript = transcript[len(transcript)-3:]
	}
	return o.evals.AnalyzeStuck(ctx, evaluator.StuckInput{
		Code:       code,
		Problem:    s.Profile.Topic,
		Transcript: strings.Join(transcript, "\n"),
		Idle:       idle,
	}), nil
}

// GenerateProblem writes a coding problem for topic.
func (o *Orchestrator) GenerateProblem(ctx context.Context, topic, background string) (evaluator.Problem, error) {
	return o.evals.GenerateProblem(ctx, topic, background)
}

// #endregion

// #region end

// EndSession stops monitoring, optionally waits for outstanding evaluator
// tasks and aggregates the final report. The monitor stop and the task wait
// happen once; every call aggregates again from the state that remains, so
// warnings recorded after the first call are reflected. Callers that arrive
// while the first call is running wait for it before aggregating.
func (o *Orchestrator) EndSession(ctx context.Context, id string) (evaluator.Report, error) {
	s, err := o.registry.Get(id)
	if err != nil {
		return evaluator.Report{}, err
	}
	log := o.log.WithField("session", id)

	first := s.BeginEnd()
	timedOut := false
	if first {
		if m := s.Monitor(); m != nil {
			m.Stop()
		}
		if o.config.AwaitEvaluators {
			timedOut = !o.awaitTasks(ctx, s)
			if timedOut {
				log.Warn("evaluators still running at end of session")
			}
		}
	} else {
		select {
		case <-s.EndDone():
		case <-ctx.Done():
			return evaluator.Report{}, ctx.Err()
		}
	}

	rep := o.finalize(ctx, s, timedOut)
	log.WithFields(logrus.Fields{
		"verdict":   rep.Verdict,
		"final":     rep.FinalScore,
		"integrity": rep.IntegrityScore,
		"repeat":    !first,
	}).Info("session ended")
	return rep, nil
}

// finalize aggregates the session's current results and warnings, stores the
// report on the session and persists it.
func (o *Orchestrator) finalize(ctx context.Context, s *session.Session, timedOut bool) evaluator.Report {
	log := o.log.WithField("session", s.ID)

	monitorWarnings := s.MonitorWarnings()
	external := s.ExternalWarnings()
	in := evaluator.AggregateInput{
		MonitorWarnings:  monitorWarnings,
		ExternalWarnings: external,
		Summary:          o.sessionSummary(s),
	}
	if r, ok := s.Result(evaluator.KindCodeJudge); ok {
		v := r.(evaluator.CodeJudgeResult)
		in.CodeJudge = &v
	}
	if r, ok := s.Result(evaluator.KindCommunication); ok {
		v := r.(evaluator.CommunicationResult)
		in.Communication = &v
	}
	if r, ok := s.Result(evaluator.KindReasoning); ok {
		v := r.(evaluator.ReasoningResult)
		in.Reasoning = &v
	}
	if r, ok := s.Result(evaluator.KindTurn); ok {
		v := r.(evaluator.TurnResult)
		in.Turn = &v
	}

	bg := context.WithoutCancel(ctx)
	rep := o.evals.Aggregate(bg, in)
	s.SetReport(rep)

	if o.archive != nil {
		err := o.archive.SaveReport(bg, archive.ReportRecord{
			SessionID:        s.ID,
			JoinCode:         s.JoinCode,
			Candidate:        s.Profile,
			Report:           rep,
			Transcript:       s.Transcript(),
			MonitorWarnings:  monitorWarnings,
			ExternalWarnings: external,
			CreatedAt:        s.CreatedAt,
			EndedAt:          o.now(),
		})
		if err != nil {
			log.WithError(err).Error("archive report failed")
		}
	}
	o.record(bg, s.ID, logging.EventSessionEnded, logging.EndRecord{
		Verdict:          string(rep.Verdict),
		FinalScore:       rep.FinalScore,
		IntegrityScore:   rep.IntegrityScore,
		MonitorWarnings:  len(monitorWarnings),
		ExternalWarnings: len(external),
		Degraded:         rep.Degraded,
		TasksTimedOut:    timedOut,
	}, "")
	return rep
}

// awaitTasks waits for the tasks dispatched so far. It returns false when the
// wait was cut short by ctx or the end timeout.
func (o *Orchestrator) awaitTasks(ctx context.Context, s *session.Session) bool {
	g := s.DrainTasks()
	done := make(chan struct{})
	go func() {
		_ = g.Wait()
		close(done)
	}()

	waitCtx := ctx
	if o.config.EndTimeout > 0 {
		var cancel context.CancelFunc
		waitCtx, cancel = context.WithTimeout(ctx, o.config.EndTimeout)
		defer cancel()
	}
	select {
	case <-done:
		return true
	case <-waitCtx.Done():
		return false
	}
}

func (o *Orchestrator) sessionSummary(s *session.Session) string {
	code, lang := s.Code()
	transcript := s.Transcript()
	var b strings.Builder
	fmt.Fprintf(&b, "Candidate %s interviewing for %s on %s (%s).", s.Profile.Name, s.Profile.Role, s.Profile.Topic, s.Profile.Difficulty)
	fmt.Fprintf(&b, " %d transcript turns; final code is %d characters", len(transcript), len(code))
	if lang != "" {
		fmt.Fprintf(&b, " of %s", lang)
	}
	b.WriteString(".")
	if len(transcript) > 0 {
		b.WriteString("\nTranscript:\n")
		b.WriteString(strings.Join(transcript, "\n"))
	}
	return b.String()
}

// #endregion

// #region live

// GetLiveState returns an observer snapshot by join code.
func (o *Orchestrator) GetLiveState(joinCode string) (session.LiveState, error) {
	s, err := o.registry.GetByJoinCode(joinCode)
	if err != nil {
		return session.LiveState{}, err
	}
	return s.Live(), nil
}

// LatestFrame returns the session's last annotated frame and whether monitoring is active.
func (o *Orchestrator) LatestFrame(id string) ([]byte, bool, error) {
	s, err := o.registry.Get(id)
	if err != nil {
		return nil, false, err
	}
	m := s.Monitor()
	if m == nil {
		return nil, false, nil
	}
	return m.LatestFrame(), m.Active(), nil
}

// #endregion

// #region merge

func (o *Orchestrator) merge(ctx context.Context, s *session.Session, seq uint64, r evaluator.Result) {
	merged := s.Merge(seq, r)
	o.log.WithFields(logrus.Fields{
		"session":  s.ID,
		"kind":     r.Kind(),
		"seq":      seq,
		"merged":   merged,
		"degraded": r.IsDegraded(),
	}).Debug("evaluator result")
	if r.Kind() == evaluator.KindTurn {
		return
	}
	o.record(ctx, s.ID, logging.EventEvaluatorResult, logging.EvaluatorRecord{
		Kind:     string(r.Kind()),
		Seq:      seq,
		Merged:   merged,
		Degraded: r.IsDegraded(),
	}, "")
}

func (o *Orchestrator) record(ctx context.Context, id, event string, detail any, reason string) {
	if o.audit == nil {
		return
	}
	if err := o.audit.Record(ctx, id, event, detail, reason); err != nil {
		o.log.WithError(err).WithField("event", event).Warn("audit write failed")
	}
}

// #endregion

// #region lifecycle

// Sweep evicts sessions idle longer than IdleTTL and stops their monitors.
func (o *Orchestrator) Sweep() int {
	if o.config.IdleTTL <= 0 {
		return 0
	}
	evicted := o.registry.Evict(o.now().Add(-o.config.IdleTTL))
	for _, s := range evicted {
		if m := s.Monitor(); m != nil {
			m.Stop()
		}
		o.log.WithFields(logrus.Fields{"session": s.ID, "ended": s.Ended()}).Info("session evicted")
	}
	return len(evicted)
}

// RunJanitor sweeps idle sessions until ctx is cancelled.
func (o *Orchestrator) RunJanitor(ctx context.Context) {
	interval := o.config.SweepInterval
	if interval <= 0 {
		interval = time.Minute
	}
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			o.Sweep()
		}
	}
}

// Shutdown stops every monitor. Sessions stay registered.
func (o *Orchestrator) Shutdown() {
	for _, s := range o.registry.All() {
		if m := s.Monitor(); m != nil {
			m.Stop()
		}
	}
}

// IsNotFound reports whether err means an unknown session.
func IsNotFound(err error) bool {
	return errors.Is(err, session.ErrNotFound)
}

// #endregion
