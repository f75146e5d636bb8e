// Package scheduler triggers crawl runs on a cron schedule.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/robfig/cron/v3"
)

// DefaultSpec runs a crawl every six hours.
const DefaultSpec = "@every 6h"

// RunFunc is one scheduled crawl run.
type RunFunc func(ctx context.Context)

// Scheduler wraps robfig/cron. Overlapping runs are skipped.
type Scheduler struct {
	cron   *cron.Cron
	spec   string
	run    RunFunc
	logger *slog.Logger
}

// New creates a scheduler for the given cron spec ("@every 6h",
// "0 */4 * * *", ...).
func New(spec string, run RunFunc, logger *slog.Logger) *Scheduler {
	if spec == "" {
		spec = DefaultSpec
	}
	cl := cronLogger{logger: logger}
	return &Scheduler{
		cron:   cron.New(cron.WithLogger(cl), cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl))),
		spec:   spec,
		run:    run,
		logger: logger,
	}
}

// Run performs one immediate run, then fires on the schedule until ctx is
// cancelled. It returns nil on graceful shutdown after the in-flight run
// has finished.
func (s *Scheduler) Run(ctx context.Context) error {
	if _, err := s.cron.AddFunc(s.spec, func() { s.run(ctx) }); err != nil {
		return fmt.Errorf("schedule %q: %w", s.spec, err)
	}

	s.logger.Info("starting scheduler", "spec", s.spec)
	s.run(ctx)

	s.cron.Start()
	<-ctx.Done()

	s.logger.Info("shutting down scheduler")
	<-s.cron.Stop().Done()
	return nil
}

// cronLogger adapts slog to cron.Logger.
type cronLogger struct {
	logger *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.logger.Debug("cron: "+msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.logger.Error("cron: "+msg, append(keysAndValues, "error", err)...)
}
