package sync

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/robfig/cron/v3"
)

// Scheduler wraps robfig/cron and runs sync cycles on a fixed interval.
type Scheduler struct {
	cron   *cron.Cron
	syncer *Syncer
	logger *slog.Logger
	spec   string // cron spec, e.g. "@every 5m"
}

// NewScheduler creates a Scheduler firing on the given cron spec.
func NewScheduler(syncer *Syncer, spec string, logger *slog.Logger) *Scheduler {
	if spec == "" {
		spec = "@every 5m"
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{
		cron:   cron.New(),
		syncer: syncer,
		logger: logger,
		spec:   spec,
	}
}

// Start registers the job and starts the scheduler. Also runs one cycle
// immediately so a fresh deployment has data without waiting for the first
// tick.
func (s *Scheduler) Start(ctx context.Context) error {
	_, err := s.cron.AddFunc(s.spec, func() {
		s.runCycle(ctx)
	})
	if err != nil {
		return fmt.Errorf("cron.AddFunc: %w", err)
	}

	s.cron.Start()
	s.logger.Info("sync scheduler started", "spec", s.spec)

	go s.runCycle(ctx)
	return nil
}

// Stop gracefully shuts down the scheduler, waiting for a running cycle.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	s.logger.Info("sync scheduler stopped")
}

func (s *Scheduler) runCycle(ctx context.Context) {
	summary, err := s.syncer.RunCycle(ctx)
	switch {
	case errors.Is(err, ErrLeaseHeld):
		s.logger.Info("sync cycle skipped, lease held elsewhere")
	case err != nil:
		s.logger.Error("sync cycle failed", "error", err)
	default:
		s.logger.Info("sync cycle complete",
			"fetched", summary.Fetched, "created", summary.Created, "merged", summary.Merged,
			"skipped", summary.Skipped, "discarded", summary.Discarded,
			"degraded", summary.Degraded, "failed", summary.Failed)
	}
}
