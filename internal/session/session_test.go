package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danielpatrickdp/interview-controller/internal/evaluator"
	"github.com/danielpatrickdp/interview-controller/internal/monitor"
)

var t0 = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

type fakeMonitor struct {
	active bool
	msgs   []string
}

func (m *fakeMonitor) Start(context.Context)       {}
func (m *fakeMonitor) Stop()                       {}
func (m *fakeMonitor) Active() bool                { return m.active }
func (m *fakeMonitor) Warnings() []monitor.Warning { return nil }
func (m *fakeMonitor) WarningMessages() []string   { return append([]string(nil), m.msgs...) }
func (m *fakeMonitor) LatestFrame() []byte         { return nil }

// #region session-tests

func TestApplyCandidateEvent(t *testing.T) {
	s := New("id", "123456", evaluator.Profile{Name: "Ada"}, "", t0)

	ev := s.ApplyCandidateEvent("hello", "print(1)", t0.Add(time.Second))
	assert.Equal(t, []string{"hello"}, ev.Transcript)
	assert.Equal(t, "print(1)", ev.Code)
	assert.Equal(t, PhaseWarmup, ev.Phase)
	assert.Equal(t, uint64(1), ev.CommunicationSeq)
	assert.Equal(t, uint64(1), ev.ReasoningSeq)
	assert.Equal(t, t0.Add(time.Second), s.LastCodeEdit())

	ev = s.ApplyCandidateEvent("", "print(1)", t0.Add(5*time.Second))
	assert.Equal(t, uint64(2), ev.CommunicationSeq)
	assert.Len(t, ev.Transcript, 1, "empty chunk is not appended")
	assert.Equal(t, t0.Add(time.Second), s.LastCodeEdit(), "unchanged code keeps the edit time")
	assert.Equal(t, t0.Add(5*time.Second), s.LastActivity())
}

func TestMerge_NewerDispatchWins(t *testing.T) {
	s := New("id", "123456", evaluator.Profile{}, "", t0)
	first, _ := s.SubmitCode(evaluator.Submission{Code: "a", Language: "python"}, t0)
	second, _ := s.SubmitCode(evaluator.Submission{Code: "b", Language: "python"}, t0)

	require.True(t, s.Merge(second, evaluator.CodeJudgeResult{TechnicalCorrectness: 9}))
	assert.False(t, s.Merge(first, evaluator.CodeJudgeResult{TechnicalCorrectness: 1}), "stale result dropped")

	r, ok := s.Result(evaluator.KindCodeJudge)
	require.True(t, ok)
	assert.Equal(t, 9.0, r.(evaluator.CodeJudgeResult).TechnicalCorrectness)

	_, ok = s.Result(evaluator.KindReasoning)
	assert.False(t, ok, "absent until populated")
}

func TestExternalWarningsNotDeduplicated(t *testing.T) {
	s := New("id", "123456", evaluator.Profile{}, "", t0)
	w := evaluator.ExternalWarning{Type: "TAB_SWITCH", Message: "Switched tab", Timestamp: t0}
	s.AddExternalWarning(w)
	s.AddExternalWarning(w)

	assert.Len(t, s.ExternalWarnings(), 2)
	assert.Equal(t, []string{"Switched tab", "Switched tab"}, s.AllWarnings())
	assert.False(t, s.Live().Terminated)

	s.AddExternalWarning(evaluator.ExternalWarning{Type: "FULLSCREEN_EXIT", Terminal: true, Timestamp: t0})
	assert.True(t, s.Live().Terminated)
}

func TestBeginEnd_Once(t *testing.T) {
	s := New("id", "123456", evaluator.Profile{}, "", t0)

	assert.True(t, s.BeginEnd())
	assert.False(t, s.BeginEnd())
	assert.Equal(t, PhaseEnd, s.Phase())

	select {
	case <-s.EndDone():
		t.Fatal("EndDone closed before a report was stored")
	default:
	}

	s.SetReport(evaluator.Report{Summary: "done"})
	s.SetReport(evaluator.Report{Summary: "again"})
	<-s.EndDone()

	rep, ok := s.Report()
	require.True(t, ok)
	assert.Equal(t, "again", rep.Summary)
	assert.True(t, s.Ended())
}

func TestDrainTasks_SwapsGroup(t *testing.T) {
	s := New("id", "123456", evaluator.Profile{}, "", t0)
	release := make(chan struct{})
	done := make(chan struct{})
	s.Go(func() error {
		<-release
		close(done)
		return nil
	})

	old := s.DrainTasks()
	s.Go(func() error { return errors.New("late") })

	close(release)
	require.NoError(t, old.Wait())
	<-done
	assert.Error(t, s.DrainTasks().Wait(), "late task landed on the new group")
}

func TestGo_ConcurrentWithDrain(t *testing.T) {
	s := New("id", "123456", evaluator.Profile{}, "", t0)
	var ran sync.WaitGroup
	var mu sync.Mutex
	count, executed := 0, 0

	ran.Add(2)
	go func() {
		defer ran.Done()
		for i := 0; i < 500; i++ {
			if s.Go(func() error {
				mu.Lock()
				executed++
				mu.Unlock()
				return nil
			}) {
				mu.Lock()
				count++
				mu.Unlock()
			}
		}
	}()
	go func() {
		defer ran.Done()
		for i := 0; i < 500; i++ {
			_ = s.DrainTasks().Wait()
		}
	}()
	ran.Wait()
	require.NoError(t, s.DrainTasks().Wait())

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 500, count)
	assert.Equal(t, count, executed)
}

func TestGo_RefusedAfterEnd(t *testing.T) {
	s := New("id", "123456", evaluator.Profile{}, "", t0)
	require.True(t, s.Go(func() error { return nil }))
	require.True(t, s.BeginEnd())

	assert.False(t, s.Go(func() error { return errors.New("after end") }))
	assert.NoError(t, s.DrainTasks().Wait())
}

func TestSubmitCode_KeepsConstraintsAndTestResults(t *testing.T) {
	s := New("id", "123456", evaluator.Profile{}, "", t0)
	_, eff := s.SubmitCode(evaluator.Submission{
		Code:        "a",
		Language:    "python",
		Constraints: "O(1) extra space",
		TestResults: &evaluator.TestResults{Passed: 1, Total: 4},
	}, t0)
	assert.Equal(t, "O(1) extra space", eff.Constraints)

	_, eff = s.SubmitCode(evaluator.Submission{Code: "b", Language: "python"}, t0.Add(time.Second))
	assert.Equal(t, "b", eff.Code)
	assert.Equal(t, "O(1) extra space", eff.Constraints)
	require.NotNil(t, eff.TestResults)
	assert.Equal(t, 1, eff.TestResults.Passed)

	ev := s.ApplyCandidateEvent("hi", "", t0.Add(2*time.Second))
	require.NotNil(t, ev.TestResults)
	assert.Equal(t, 4, ev.TestResults.Total)
}

func TestLive_WithMonitor(t *testing.T) {
	s := New("id", "123456", evaluator.Profile{Name: "Ada"}, "", t0)
	s.SetMonitor(&fakeMonitor{active: true, msgs: []string{"m1"}})
	s.ApplyCandidateEvent("hi", "x", t0)

	live := s.Live()
	assert.Equal(t, "Ada", live.Candidate.Name)
	assert.True(t, live.MonitorActive)
	assert.Equal(t, []string{"m1"}, live.MonitorWarnings)
	assert.Equal(t, []string{"hi"}, live.Transcript)
	assert.NotNil(t, live.ExternalWarnings)
}

func TestConcurrentSubmitAndEvent_LastWriterWins(t *testing.T) {
	s := New("id", "123456", evaluator.Profile{}, "", t0)
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			s.SubmitCode(evaluator.Submission{Code: fmt.Sprintf("submit-%d", i), Language: "go"}, t0)
		}(i)
		go func(i int) {
			defer wg.Done()
			s.ApplyCandidateEvent("chunk", fmt.Sprintf("event-%d", i), t0)
		}(i)
	}
	wg.Wait()

	s.SubmitCode(evaluator.Submission{Code: "final", Language: "go"}, t0)
	code, lang := s.Code()
	assert.Equal(t, "final", code)
	assert.Equal(t, "go", lang)
	assert.Len(t, s.Transcript(), 50)
}

// #endregion

// #region registry-tests

func TestRegistry_CreateGetRemove(t *testing.T) {
	r := NewRegistry()
	s, err := r.Create(evaluator.Profile{Name: "Ada"}, "resume", t0)
	require.NoError(t, err)
	assert.Len(t, s.JoinCode, 6)

	got, err := r.Get(s.ID)
	require.NoError(t, err)
	assert.Same(t, s, got)

	got, err = r.GetByJoinCode(s.JoinCode)
	require.NoError(t, err)
	assert.Same(t, s, got)

	_, ok := r.Remove(s.ID)
	assert.True(t, ok)
	_, err = r.Get(s.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = r.GetByJoinCode(s.JoinCode)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRegistry_JoinCodeCollisionRetries(t *testing.T) {
	codes := []string{"111111", "111111", "222222"}
	ids := 0
	r := NewRegistryWithGenerators(
		func() string { ids++; return fmt.Sprintf("id-%d", ids) },
		func() string { c := codes[0]; codes = codes[1:]; return c },
	)

	a, err := r.Create(evaluator.Profile{}, "", t0)
	require.NoError(t, err)
	b, err := r.Create(evaluator.Profile{}, "", t0)
	require.NoError(t, err)
	assert.Equal(t, "111111", a.JoinCode)
	assert.Equal(t, "222222", b.JoinCode)
}

func TestRegistry_JoinCodeExhausted(t *testing.T) {
	r := NewRegistryWithGenerators(func() string { return "x" }, func() string { return "000000" })
	_, err := r.Create(evaluator.Profile{}, "", t0)
	require.NoError(t, err)
	_, err = r.Create(evaluator.Profile{}, "", t0)
	assert.Error(t, err)
}

func TestRegistry_Evict(t *testing.T) {
	r := NewRegistry()
	stale, _ := r.Create(evaluator.Profile{}, "", t0)
	fresh, _ := r.Create(evaluator.Profile{}, "", t0)
	fresh.Touch(t0.Add(time.Hour))

	evicted := r.Evict(t0.Add(30 * time.Minute))
	require.Len(t, evicted, 1)
	assert.Equal(t, stale.ID, evicted[0].ID)
	assert.Equal(t, 1, r.Len())
	assert.Len(t, r.All(), 1)
}

// #endregion
