package schedule

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"annotation-stats/internal/annotations"
	"annotation-stats/internal/export"
	"annotation-stats/internal/members"
	"annotation-stats/internal/reports"
	"annotation-stats/internal/shared/telemetry"
)

const jobsYAML = `
jobs:
  - name: weekly-disagreement
    cron: "0 9 * * 1"
    project: 7
    report: disagreement
    format: xlsx
  - name: daily-history
    cron: "@daily"
    project: 7
    report: history
    filters:
      member: alice
      timeRange: 24h
`

type recordingExporter struct {
	mu    sync.Mutex
	files []export.File
	err   error
}

func (e *recordingExporter) Export(_ context.Context, format export.Format, file export.File) (export.Delivery, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.err != nil {
		return export.Delivery{}, e.err
	}
	e.files = append(e.files, file)
	return export.Delivery{Filename: file.Filename, MIMEType: file.MIMEType, SizeBytes: len(file.Content)}, nil
}

func (e *recordingExporter) count() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.files)
}

type failingBuilder struct{ err error }

func (b failingBuilder) Build(context.Context, reports.Kind, int64, reports.Filters) (reports.Built, error) {
	return nil, b.err
}

func newService() *reports.Service {
	anns := annotations.NewMemoryRepo()
	created := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	anns.Add(7,
		annotations.Annotation{ID: 1, Document: 1, Member: 10, Category: "A", Start: 0, End: 5, Text: "x", CreatedAt: created, UpdatedAt: created},
		annotations.Annotation{ID: 2, Document: 1, Member: 20, Category: "B", Start: 0, End: 5, Text: "y", CreatedAt: created, UpdatedAt: created},
	)
	ms := members.NewMemoryRepo()
	ms.Add(7, members.Member{ID: 10, Username: "alice"}, members.Member{ID: 20, Username: "bob"})
	return &reports.Service{Annotations: anns, Members: ms}
}

func silence(t *testing.T) {
	t.Helper()
	restore := telemetry.SetOutput(io.Discard)
	t.Cleanup(restore)
}

func TestParseJobs(t *testing.T) {
	jobs, err := Parse([]byte(jobsYAML))
	require.NoError(t, err)
	require.Len(t, jobs, 2)

	assert.Equal(t, reports.KindDisagreement, jobs[0].Kind())
	assert.Equal(t, export.FormatXLSX, jobs[0].ExportFormat())

	assert.Equal(t, reports.KindHistory, jobs[1].Kind())
	assert.Equal(t, export.FormatCSV, jobs[1].ExportFormat())
	f := jobs[1].ReportFilters()
	assert.Equal(t, reports.MemberUsername("alice"), f.Member)
	assert.Equal(t, reports.TimeRangeDay, f.TimeRange)
}

func TestParseRejectsInvalidJobs(t *testing.T) {
	tests := map[string]string{
		"missing name":   "jobs:\n  - cron: \"@daily\"\n    project: 1\n    report: history\n",
		"bad cron":       "jobs:\n  - name: a\n    cron: \"every day\"\n    project: 1\n    report: history\n",
		"bad project":    "jobs:\n  - name: a\n    cron: \"@daily\"\n    project: 0\n    report: history\n",
		"unknown report": "jobs:\n  - name: a\n    cron: \"@daily\"\n    project: 1\n    report: summary\n",
		"bad format":     "jobs:\n  - name: a\n    cron: \"@daily\"\n    project: 1\n    report: history\n    format: pdf\n",
		"bad time range": "jobs:\n  - name: a\n    cron: \"@daily\"\n    project: 1\n    report: history\n    filters:\n      timeRange: 1y\n",
		"duplicate":      "jobs:\n  - name: a\n    cron: \"@daily\"\n    project: 1\n    report: history\n  - name: a\n    cron: \"@daily\"\n    project: 1\n    report: history\n",
	}
	for name, doc := range tests {
		_, err := Parse([]byte(doc))
		assert.ErrorIs(t, err, ErrInvalidJob, name)
	}

	_, err := Parse([]byte("jobs:\n  - name: a\n    schedule: \"@daily\"\n"))
	assert.Error(t, err, "unknown keys are rejected")
}

func TestParseEmptyDocument(t *testing.T) {
	jobs, err := Parse(nil)
	require.NoError(t, err)
	assert.Empty(t, jobs)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "jobs.yaml")
	require.NoError(t, os.WriteFile(path, []byte(jobsYAML), 0o600))

	jobs, err := LoadFile(path)
	require.NoError(t, err)
	assert.Len(t, jobs, 2)

	_, err = LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestRunJobExportsNamedFile(t *testing.T) {
	silence(t)
	jobs, err := Parse([]byte(jobsYAML))
	require.NoError(t, err)

	exporter := &recordingExporter{}
	s, err := New(newService(), exporter, time.UTC, jobs)
	require.NoError(t, err)

	delivery, err := s.RunJob(context.Background(), jobs[0])
	require.NoError(t, err)
	assert.Equal(t, "weekly-disagreement.xlsx", delivery.Filename)
	require.Equal(t, 1, exporter.count())
	assert.NotEmpty(t, exporter.files[0].Content)
}

func TestRunJobReportsFailures(t *testing.T) {
	silence(t)
	jobs, err := Parse([]byte(jobsYAML))
	require.NoError(t, err)

	boom := errors.New("upstream down")
	s, err := New(failingBuilder{err: boom}, &recordingExporter{}, time.UTC, jobs)
	require.NoError(t, err)
	_, err = s.RunJob(context.Background(), jobs[0])
	assert.ErrorIs(t, err, boom)
	assert.True(t, strings.Contains(err.Error(), "build"))

	sinkErr := errors.New("bucket missing")
	s, err = New(newService(), &recordingExporter{err: sinkErr}, time.UTC, jobs)
	require.NoError(t, err)
	_, err = s.RunJob(context.Background(), jobs[1])
	assert.ErrorIs(t, err, sinkErr)
}

func TestNewRejectsUnparsedJobs(t *testing.T) {
	_, err := New(newService(), &recordingExporter{}, time.UTC, []Job{{Name: "raw", Cron: "@daily"}})
	assert.ErrorIs(t, err, ErrInvalidJob)
}

func TestSchedulerRunsAndStopsCleanly(t *testing.T) {
	defer goleak.VerifyNone(t)
	silence(t)

	jobs, err := Parse([]byte("jobs:\n  - name: tick\n    cron: \"@every 1s\"\n    project: 7\n    report: perspective\n    format: json\n"))
	require.NoError(t, err)

	loc := time.FixedZone("UTC+2", 2*60*60)
	exporter := &recordingExporter{}
	s, err := New(newService(), exporter, loc, jobs)
	require.NoError(t, err)

	s.Start()
	entries := s.Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, "tick", entries[0].Name)
	assert.False(t, entries[0].Next.IsZero())

	require.Eventually(t, func() bool { return exporter.count() > 0 }, 5*time.Second, 20*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, s.Stop(ctx))
}
