package main

// Build or schedule reports from the command line:
//   go run ./cmd/reportctl report disagreement --project 7 --format csv --out report.csv
//   go run ./cmd/reportctl schedule --file jobs.yaml

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"annotation-stats/internal/bootstrap"
	"annotation-stats/internal/shared/config"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cmd := rootCommand(func(scheduleFile string) (*bootstrap.App, error) {
		cfg := config.Load()
		if scheduleFile != "" {
			cfg.ScheduleFile = scheduleFile
		}
		return bootstrap.Build(cfg)
	})
	if err := cmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}
