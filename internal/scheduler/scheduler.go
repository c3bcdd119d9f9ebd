package scheduler

import (
	"context"
	"errors"
	"time"

	"github.com/go-co-op/gocron"
	"go.uber.org/zap"

	"github.com/i474232898/weather-dashboard/internal/weather"
)

var errInvalidInterval = errors.New("scheduler interval must be positive")

// Runner performs one pass over the configured cities.
type Runner interface {
	Run(ctx context.Context) *weather.RunReport
}

// Scheduler periodically runs the weather upload job.
type Scheduler struct {
	scheduler *gocron.Scheduler
	runner    Runner
	interval  time.Duration
	logger    *zap.Logger
}

// New creates a new Scheduler.
func New(interval time.Duration, runner Runner, logger *zap.Logger) *Scheduler {
	return &Scheduler{
		scheduler: gocron.NewScheduler(time.UTC),
		runner:    runner,
		interval:  interval,
		logger:    logger.Named("scheduler"),
	}
}

// Start schedules the job, runs it once right away and returns.
// Runs never overlap: a run still in progress when the next tick fires
// makes that tick a no-op.
func (s *Scheduler) Start(ctx context.Context) error {
	if s.interval <= 0 {
		return errInvalidInterval
	}

	_, err := s.scheduler.Every(s.interval).SingletonMode().Do(func() {
		s.logger.Info("running weather upload job")

		report := s.runner.Run(ctx)
		if err := report.Err(); err != nil {
			s.logger.Warn("weather upload job finished with errors",
				zap.String("run_id", report.ID),
				zap.Error(err),
			)
			return
		}
		s.logger.Info("completed weather upload job",
			zap.String("run_id", report.ID),
			zap.Int("uploaded", report.Uploaded()),
		)
	})
	if err != nil {
		return err
	}

	s.scheduler.StartAsync()
	s.logger.Info("scheduler started", zap.Duration("interval", s.interval))
	return nil
}

// Stop stops the scheduler and cancels any future jobs.
func (s *Scheduler) Stop() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
}
