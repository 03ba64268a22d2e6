package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"annotation-stats/internal/bootstrap"
	"annotation-stats/internal/export"
	"annotation-stats/internal/reports"
)

// appBuilder wires the application. scheduleFile overrides SCHEDULE_FILE when set.
type appBuilder func(scheduleFile string) (*bootstrap.App, error)

func rootCommand(build appBuilder) *cobra.Command {
	root := &cobra.Command{
		Use:          "reportctl",
		Short:        "Annotation statistics reports",
		SilenceUsage: true,
	}
	root.AddCommand(reportCommand(build), scheduleCommand(build))
	return root
}

type reportFlags struct {
	project     int64
	member      string
	dataset     string
	discussion  string
	perspective string
	timeRange   string
	format      string
	out         string
	deliver     bool
}

func reportCommand(build appBuilder) *cobra.Command {
	var flags reportFlags
	cmd := &cobra.Command{
		Use:       "report <disagreement|perspective|annotators|history>",
		Short:     "Build a report and write it to a file or stdout",
		Args:      cobra.ExactArgs(1),
		ValidArgs: kindNames(),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := reports.ParseKind(args[0])
			if err != nil {
				return err
			}
			format, err := export.ParseFormat(flags.format)
			if err != nil {
				return err
			}
			filters, err := flags.filters()
			if err != nil {
				return err
			}
			app, err := build("")
			if err != nil {
				return err
			}

			built, err := app.Reports.Build(cmd.Context(), kind, flags.project, filters)
			if err != nil {
				return err
			}
			file, err := built.Render(format)
			if err != nil {
				return err
			}
			if flags.deliver {
				delivery, err := app.Exporter.Export(cmd.Context(), format, file)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.ErrOrStderr(), "delivered %s (%d bytes)\n", delivery.Filename, delivery.SizeBytes)
				return nil
			}
			return writeOutput(cmd.OutOrStdout(), flags.out, file.Content)
		},
	}
	cmd.Flags().Int64VarP(&flags.project, "project", "p", 0, "Project id (required)")
	cmd.Flags().StringVarP(&flags.member, "member", "m", "", "Member id or username")
	cmd.Flags().StringVar(&flags.dataset, "dataset", "", "Dataset (document) id")
	cmd.Flags().StringVar(&flags.discussion, "discussion", "", "Discussion id")
	cmd.Flags().StringVar(&flags.perspective, "perspective", "", "Perspective id")
	cmd.Flags().StringVar(&flags.timeRange, "time-range", "", "History window: 24h, 7d, 30d or all")
	cmd.Flags().StringVarP(&flags.format, "format", "f", "csv", "Output format: csv, json, xlsx")
	cmd.Flags().StringVarP(&flags.out, "out", "o", "", "Output file (default stdout)")
	cmd.Flags().BoolVar(&flags.deliver, "deliver", false, "Hand the file to the configured export sink instead of writing it")
	_ = cmd.MarkFlagRequired("project")
	return cmd
}

func (f reportFlags) filters() (reports.Filters, error) {
	var out reports.Filters
	var err error
	if out.Dataset, err = optionalID("dataset", f.dataset); err != nil {
		return reports.Filters{}, err
	}
	if out.Discussion, err = optionalID("discussion", f.discussion); err != nil {
		return reports.Filters{}, err
	}
	if out.Perspective, err = optionalID("perspective", f.perspective); err != nil {
		return reports.Filters{}, err
	}
	out.Member = reports.ParseMemberToken(f.member)
	if out.TimeRange, err = reports.ParseTimeRange(f.timeRange); err != nil {
		return reports.Filters{}, err
	}
	return out, nil
}

func scheduleCommand(build appBuilder) *cobra.Command {
	var (
		file string
		once bool
	)
	cmd := &cobra.Command{
		Use:   "schedule",
		Short: "Run scheduled report exports in the foreground",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := build(file)
			if err != nil {
				return err
			}
			if app.Scheduler == nil {
				return errors.New("no schedule file: pass --file or set SCHEDULE_FILE")
			}
			if once {
				return runOnce(cmd, app)
			}

			app.Scheduler.Start()
			for _, e := range app.Scheduler.Entries() {
				fmt.Fprintf(cmd.ErrOrStderr(), "%s next run %s\n", e.Name, e.Next.Format(time.RFC3339))
			}
			<-cmd.Context().Done()
			stopCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			return app.Scheduler.Stop(stopCtx)
		},
	}
	cmd.Flags().StringVar(&file, "file", "", "YAML job file (default SCHEDULE_FILE)")
	cmd.Flags().BoolVar(&once, "once", false, "Run every job once and exit")
	return cmd
}

func runOnce(cmd *cobra.Command, app *bootstrap.App) error {
	var failed []string
	for _, job := range app.Scheduler.Jobs() {
		delivery, err := app.Scheduler.RunJob(cmd.Context(), job)
		if err != nil {
			failed = append(failed, job.Name)
			continue
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "%s delivered %s (%d bytes)\n", job.Name, delivery.Filename, delivery.SizeBytes)
	}
	if len(failed) > 0 {
		return fmt.Errorf("jobs failed: %s", strings.Join(failed, ", "))
	}
	return nil
}

func writeOutput(stdout io.Writer, path string, content []byte) error {
	if path == "" || path == "-" {
		_, err := stdout.Write(content)
		return err
	}
	return os.WriteFile(path, content, 0o644)
}

func optionalID(name, raw string) (*int64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("--%s must be an integer", name)
	}
	return &id, nil
}

func kindNames() []string {
	out := make([]string, 0, len(reports.Kinds))
	for _, k := range reports.Kinds {
		out = append(out, string(k))
	}
	return out
}
