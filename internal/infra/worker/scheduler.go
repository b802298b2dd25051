package worker

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// Runner is one scheduled unit of work.
type Runner interface {
	Run(ctx context.Context) (RunReport, error)
}

// Scheduler triggers a Runner on a cron schedule. Overlapping triggers are
// skipped while a run is in progress.
type Scheduler struct {
	cron    *cron.Cron
	runner  Runner
	timeout time.Duration
	logger  *slog.Logger
	health  *HealthServer

	mu      sync.Mutex
	running bool
}

// NewScheduler registers runner under cfg.CronSchedule in cfg.Timezone.
// An unknown timezone falls back to UTC. health may be nil.
func NewScheduler(cfg *WorkerConfig, runner Runner, logger *slog.Logger, health *HealthServer) (*Scheduler, error) {
	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		logger.Error("invalid timezone, using UTC", slog.String("timezone", cfg.Timezone), slog.Any("error", err))
		loc = time.UTC
	}

	s := &Scheduler{
		cron:    cron.New(cron.WithLocation(loc)),
		runner:  runner,
		timeout: cfg.RunTimeout,
		logger:  logger,
		health:  health,
	}
	if _, err := s.cron.AddFunc(cfg.CronSchedule, func() { s.Trigger(context.Background()) }); err != nil {
		return nil, fmt.Errorf("failed to add cron job: %w", err)
	}
	return s, nil
}

// Start starts the cron scheduler in the background.
func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop stops scheduling and waits for a running job to finish or ctx to end.
func (s *Scheduler) Stop(ctx context.Context) {
	done := s.cron.Stop().Done()
	select {
	case <-done:
	case <-ctx.Done():
		s.logger.Warn("scheduler stop timed out with a run in progress")
	}
}

// Trigger runs the job once with the configured timeout. It returns false
// when a run is already in progress.
func (s *Scheduler) Trigger(ctx context.Context) bool {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		s.logger.Warn("previous digest run still in progress, skipping trigger")
		return false
	}
	s.running = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.running = false
		s.mu.Unlock()
	}()

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	report, _ := s.runner.Run(ctx)
	if s.health != nil {
		s.health.SetLastRun(report)
	}
	return true
}
