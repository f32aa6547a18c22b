package archive

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danielpatrickdp/interview-controller/internal/evaluator"
	"github.com/danielpatrickdp/interview-controller/internal/scoring"
)

func tempStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func sampleRecord(id string, ended time.Time, verdict scoring.Verdict) ReportRecord {
	return ReportRecord{
		SessionID: id,
		JoinCode:  "424242",
		Candidate: evaluator.Profile{Name: "Ada", Role: "Backend Engineer", Languages: []string{"go"}},
		Report: evaluator.Report{
			Summary:        "Strong fundamentals.",
			Scores:         scoring.Scores{TechnicalCorrectness: 8},
			IntegrityScore: 90,
			FinalScore:     72.5,
			Verdict:        verdict,
		},
		Transcript:       []string{"hello", "I would use a map"},
		MonitorWarnings:  []string{"Candidate exhibited sustained 'Leaning' at 2026-03-01_09-00-05."},
		ExternalWarnings: []evaluator.ExternalWarning{{Type: "TAB_SWITCH", Message: "left tab"}},
		CreatedAt:        ended.Add(-time.Hour),
		EndedAt:          ended,
	}
}

func TestOpen_FileBacked(t *testing.T) {
	path := filepath.Join(t.TempDir(), "archive.db")
	s, err := Open(context.Background(), path)
	require.NoError(t, err)
	require.NoError(t, s.Close())

	// reopening applies no migrations twice
	s, err = Open(context.Background(), path)
	require.NoError(t, err)
	require.NoError(t, s.Close())
}

func TestOpenReadOnly(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "archive.db")
	ended := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	rw, err := Open(ctx, path)
	require.NoError(t, err)
	require.NoError(t, rw.SaveReport(ctx, sampleRecord("s1", ended, scoring.Hire)))
	require.NoError(t, rw.Close())

	ro, err := OpenReadOnly(ctx, path)
	require.NoError(t, err)
	defer ro.Close()

	got, err := ro.GetReport(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, scoring.Hire, got.Report.Verdict)
	assert.Error(t, ro.SaveReport(ctx, sampleRecord("s2", ended, scoring.NoHire)))
}

func TestOpenReadOnly_MissingFile(t *testing.T) {
	_, err := OpenReadOnly(context.Background(), filepath.Join(t.TempDir(), "absent.db"))
	assert.Error(t, err)
}

func TestSaveAndGetReport(t *testing.T) {
	s := tempStore(t)
	ctx := context.Background()
	ended := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	require.NoError(t, s.SaveReport(ctx, sampleRecord("s1", ended, scoring.Hire)))

	got, err := s.GetReport(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "Ada", got.Candidate.Name)
	assert.Equal(t, scoring.Hire, got.Report.Verdict)
	assert.Equal(t, 90, got.Report.IntegrityScore)
	assert.Equal(t, []string{"hello", "I would use a map"}, got.Transcript)
	assert.Len(t, got.MonitorWarnings, 1)
	assert.Equal(t, "TAB_SWITCH", got.ExternalWarnings[0].Type)
	assert.True(t, got.EndedAt.Equal(ended))
}

func TestSaveReport_Upserts(t *testing.T) {
	s := tempStore(t)
	ctx := context.Background()
	ended := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	require.NoError(t, s.SaveReport(ctx, sampleRecord("s1", ended, scoring.Hire)))
	require.NoError(t, s.SaveReport(ctx, sampleRecord("s1", ended, scoring.NoHire)))

	got, err := s.GetReport(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, scoring.NoHire, got.Report.Verdict)

	list, err := s.ListReports(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestGetReport_NotFound(t *testing.T) {
	_, err := tempStore(t).GetReport(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListReports_NewestFirst(t *testing.T) {
	s := tempStore(t)
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	require.NoError(t, s.SaveReport(ctx, sampleRecord("old", base, scoring.Borderline)))
	require.NoError(t, s.SaveReport(ctx, sampleRecord("new", base.Add(time.Hour), scoring.StrongHire)))

	list, err := s.ListReports(ctx, 10)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "new", list[0].SessionID)
	assert.Equal(t, "Ada", list[0].CandidateName)
	assert.Equal(t, string(scoring.StrongHire), list[0].Verdict)

	list, err = s.ListReports(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestEvidenceIndex(t *testing.T) {
	s := tempStore(t)
	ctx := context.Background()
	ts := time.Date(2026, 3, 1, 9, 0, 5, 0, time.UTC)

	require.NoError(t, s.RecordEvidence(ctx, "s1", "/tmp/s1_a.jpg", ts))
	require.NoError(t, s.RecordEvidence(ctx, "s1", "/tmp/s1_b.jpg", ts.Add(time.Second)))
	require.NoError(t, s.RecordEvidence(ctx, "s2", "/tmp/s2_a.jpg", ts))

	ev, err := s.ListEvidence(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, ev, 2)
	assert.Equal(t, "/tmp/s1_a.jpg", ev[0].Path)
	assert.True(t, ev[1].CapturedAt.Equal(ts.Add(time.Second)))
}
