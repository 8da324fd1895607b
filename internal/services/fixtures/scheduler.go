package fixtures

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/ternarybob/arbor"
)

// ResetFunc restores the fixture data
type ResetFunc func(ctx context.Context) error

// Scheduler resets the mock backend fixtures on a cron schedule
type Scheduler struct {
	reset  ResetFunc
	cron   *cron.Cron
	logger arbor.ILogger
}

// NewScheduler creates a new fixture reset scheduler
func NewScheduler(reset ResetFunc, logger arbor.ILogger) *Scheduler {
	return &Scheduler{
		reset:  reset,
		cron:   cron.New(),
		logger: logger,
	}
}

// Start begins the scheduled resets; an empty schedule leaves the scheduler idle
func (s *Scheduler) Start(schedule string) error {
	if schedule == "" {
		return nil
	}

	_, err := s.cron.AddFunc(schedule, func() {
		s.runReset()
	})
	if err != nil {
		return err
	}

	s.cron.Start()
	s.logger.Info().
		Str("schedule", schedule).
		Msg("Fixture reset scheduler started")

	return nil
}

// Stop stops the scheduler and waits for a running reset to finish
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	s.logger.Info().Msg("Fixture reset scheduler stopped")
}

// Entries returns the number of scheduled jobs
func (s *Scheduler) Entries() int {
	return len(s.cron.Entries())
}

// RunNow triggers an immediate reset
func (s *Scheduler) RunNow() {
	s.runReset()
}

func (s *Scheduler) runReset() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	start := time.Now()
	if err := s.reset(ctx); err != nil {
		s.logger.Error().
			Err(err).
			Msg("Scheduled fixture reset failed")
		return
	}

	s.logger.Info().
		Dur("duration", time.Since(start)).
		Msg("Scheduled fixture reset completed")
}
