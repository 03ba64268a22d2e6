package schedule

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"

	"annotation-stats/internal/export"
	"annotation-stats/internal/reports"
)

// ErrInvalidJob is returned when a job definition cannot be scheduled.
var ErrInvalidJob = errors.New("invalid scheduled job")

// cronParser accepts standard 5-field expressions and descriptors such as @daily.
var cronParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

// JobFilters mirrors the report query filters in YAML form.
type JobFilters struct {
	Dataset     *int64 `yaml:"dataset"`
	Discussion  *int64 `yaml:"discussion"`
	Perspective *int64 `yaml:"perspective"`
	Member      string `yaml:"member"`
	TimeRange   string `yaml:"timeRange"`
}

// Job is one scheduled report export.
type Job struct {
	Name    string     `yaml:"name"`
	Cron    string     `yaml:"cron"`
	Project int64      `yaml:"project"`
	Report  string     `yaml:"report"`
	Format  string     `yaml:"format"`
	Filters JobFilters `yaml:"filters"`

	kind      reports.Kind
	format    export.Format
	filters   reports.Filters
	scheduled cron.Schedule
}

type file struct {
	Jobs []Job `yaml:"jobs"`
}

// LoadFile reads and validates a YAML job file.
func LoadFile(path string) ([]Job, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read schedule file: %w", err)
	}
	return Parse(data)
}

// Parse decodes and validates YAML job definitions. Unknown keys are rejected.
func Parse(data []byte) ([]Job, error) {
	var f file
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		if errors.Is(err, io.EOF) {
			return []Job{}, nil
		}
		return nil, fmt.Errorf("decode schedule file: %w", err)
	}
	seen := make(map[string]bool, len(f.Jobs))
	jobs := make([]Job, 0, len(f.Jobs))
	for i, job := range f.Jobs {
		if err := job.compile(); err != nil {
			return nil, fmt.Errorf("job %d: %w", i+1, err)
		}
		if seen[job.Name] {
			return nil, fmt.Errorf("%w: duplicate name %q", ErrInvalidJob, job.Name)
		}
		seen[job.Name] = true
		jobs = append(jobs, job)
	}
	return jobs, nil
}

func (j *Job) compile() error {
	j.Name = strings.TrimSpace(j.Name)
	if j.Name == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidJob)
	}
	if j.Project <= 0 {
		return fmt.Errorf("%w: %s: project must be a positive integer", ErrInvalidJob, j.Name)
	}
	sched, err := cronParser.Parse(strings.TrimSpace(j.Cron))
	if err != nil {
		return fmt.Errorf("%w: %s: cron %q: %v", ErrInvalidJob, j.Name, j.Cron, err)
	}
	kind, err := reports.ParseKind(j.Report)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrInvalidJob, j.Name, err)
	}
	format, err := export.ParseFormat(j.Format)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrInvalidJob, j.Name, err)
	}
	timeRange, err := reports.ParseTimeRange(j.Filters.TimeRange)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrInvalidJob, j.Name, err)
	}
	j.kind = kind
	j.format = format
	j.scheduled = sched
	j.filters = reports.Filters{
		Dataset:     j.Filters.Dataset,
		Discussion:  j.Filters.Discussion,
		Perspective: j.Filters.Perspective,
		Member:      reports.ParseMemberToken(j.Filters.Member),
		TimeRange:   timeRange,
	}
	return nil
}

// Kind returns the report kind of a parsed job.
func (j Job) Kind() reports.Kind { return j.kind }

// ExportFormat returns the export format of a parsed job.
func (j Job) ExportFormat() export.Format { return j.format }

// ReportFilters returns the report filters of a parsed job.
func (j Job) ReportFilters() reports.Filters { return j.filters }
