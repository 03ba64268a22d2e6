package schedule

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"annotation-stats/internal/export"
	"annotation-stats/internal/reports"
	"annotation-stats/internal/shared/telemetry"
)

const defaultRunTimeout = 2 * time.Minute

// Builder builds a report of the given kind.
type Builder interface {
	Build(ctx context.Context, kind reports.Kind, projectID int64, f reports.Filters) (reports.Built, error)
}

// Exporter delivers a rendered report.
type Exporter interface {
	Export(ctx context.Context, format export.Format, file export.File) (export.Delivery, error)
}

// Scheduler runs report exports on cron schedules. Runs of the same job never
// overlap; a run still in progress causes the next tick to be skipped.
type Scheduler struct {
	builder    Builder
	exporter   Exporter
	cron       *cron.Cron
	runTimeout time.Duration
	jobs       []Job

	mu      sync.Mutex
	entries map[string]cron.EntryID
	ctx     context.Context
	cancel  context.CancelFunc
}

// Entry is the next planned run of a job.
type Entry struct {
	Name string
	Next time.Time
}

// New registers jobs with a cron runner in loc. Jobs must come from Parse or LoadFile.
func New(builder Builder, exporter Exporter, loc *time.Location, jobs []Job) (*Scheduler, error) {
	if loc == nil {
		loc = time.UTC
	}
	logger := cronLogger{}
	ctx, cancel := context.WithCancel(context.Background())
	s := &Scheduler{
		builder:    builder,
		exporter:   exporter,
		runTimeout: defaultRunTimeout,
		jobs:       append([]Job(nil), jobs...),
		entries:    make(map[string]cron.EntryID, len(jobs)),
		ctx:        ctx,
		cancel:     cancel,
		cron: cron.New(
			cron.WithLocation(loc),
			cron.WithParser(cronParser),
			cron.WithLogger(logger),
			cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)),
		),
	}
	for _, job := range jobs {
		if job.scheduled == nil {
			cancel()
			return nil, fmt.Errorf("%w: %s: not parsed", ErrInvalidJob, job.Name)
		}
		id := s.cron.Schedule(job.scheduled, cron.FuncJob(func() {
			_, _ = s.RunJob(s.ctx, job)
		}))
		s.entries[job.Name] = id
	}
	return s, nil
}

// Start begins running jobs in the background.
func (s *Scheduler) Start() {
	s.cron.Start()
	for _, e := range s.Entries() {
		telemetry.Info("schedule.registered", map[string]any{
			"job":      e.Name,
			"next_run": e.Next.Format(time.RFC3339),
		})
	}
}

// Stop halts the cron runner, cancels in-flight runs and waits for them to
// return or for ctx to end.
func (s *Scheduler) Stop(ctx context.Context) error {
	done := s.cron.Stop()
	s.cancel()
	select {
	case <-done.Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Jobs returns the registered jobs in file order.
func (s *Scheduler) Jobs() []Job {
	return append([]Job(nil), s.jobs...)
}

// Entries lists registered jobs with their next run time. Next is zero until
// the scheduler is started.
func (s *Scheduler) Entries() []Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Entry, 0, len(s.entries))
	for name, id := range s.entries {
		out = append(out, Entry{Name: name, Next: s.cron.Entry(id).Next})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// RunJob builds, renders and exports one job. Failures are logged and returned.
func (s *Scheduler) RunJob(ctx context.Context, job Job) (export.Delivery, error) {
	ctx, cancel := context.WithTimeout(ctx, s.runTimeout)
	defer cancel()

	start := time.Now()
	fields := map[string]any{
		"job":        job.Name,
		"project_id": job.Project,
		"report":     string(job.kind),
		"format":     string(job.format),
	}
	built, err := s.builder.Build(ctx, job.kind, job.Project, job.filters)
	if err != nil {
		return export.Delivery{}, s.failed(fields, "build", err)
	}
	file, err := built.Render(job.format)
	if err != nil {
		return export.Delivery{}, s.failed(fields, "render", err)
	}
	file.Filename = job.format.Filename(job.Name)
	delivery, err := s.exporter.Export(ctx, job.format, file)
	if err != nil {
		return export.Delivery{}, s.failed(fields, "export", err)
	}
	fields["items"] = built.Count()
	fields["size_bytes"] = delivery.SizeBytes
	fields["duration_ms"] = time.Since(start).Milliseconds()
	telemetry.Info("schedule.run_complete", fields)
	return delivery, nil
}

func (s *Scheduler) failed(fields map[string]any, stage string, err error) error {
	fields["stage"] = stage
	fields["error"] = err
	telemetry.Error("schedule.run_failed", fields)
	return fmt.Errorf("job %v %s: %w", fields["job"], stage, err)
}

// cronLogger routes cron runner events to telemetry.
type cronLogger struct{}

func (cronLogger) Info(msg string, keysAndValues ...any) {
	telemetry.Info("cron."+msg, kvFields(keysAndValues))
}

func (cronLogger) Error(err error, msg string, keysAndValues ...any) {
	fields := kvFields(keysAndValues)
	fields["error"] = err
	telemetry.Error("cron."+msg, fields)
}

func kvFields(kv []any) map[string]any {
	fields := make(map[string]any, len(kv)/2+1)
	for i := 0; i+1 < len(kv); i += 2 {
		fields[fmt.Sprint(kv[i])] = kv[i+1]
	}
	return fields
}
