package scheduler

import (
	"context"
	"fmt"
	"sync"

	"epl_standings/ingestion/internal/config"
	"epl_standings/ingestion/internal/pipeline"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
)

// Scheduler re-runs the synchronous ETL pipeline on a cron schedule.
// Runs never overlap; a tick that arrives while a run is in progress
// is skipped.
type Scheduler struct {
	cfg  *config.Config
	pipe *pipeline.Pipeline
	cron *cron.Cron

	mu      sync.Mutex
	running bool
}

// NewScheduler creates a new scheduler instance
func NewScheduler(cfg *config.Config, pipe *pipeline.Pipeline) *Scheduler {
	return &Scheduler{
		cfg:  cfg,
		pipe: pipe,
		cron: cron.New(),
	}
}

// Start registers the cron job and starts the scheduler
func (s *Scheduler) Start(ctx context.Context) error {
	if _, err := s.cron.AddFunc(s.cfg.RunSchedule, func() {
		s.runOnce(ctx)
	}); err != nil {
		return fmt.Errorf("failed to schedule ETL run: %w", err)
	}

	s.cron.Start()
	log.Info().
		Str("schedule", s.cfg.RunSchedule).
		Msg("ETL runs scheduled")

	return nil
}

// Stop stops the scheduler, waiting for an in-flight run is the caller's
// concern (the cron stop channel drains scheduled jobs)
func (s *Scheduler) Stop() {
	log.Info().Msg("Stopping scheduler...")
	s.cron.Stop()
	log.Info().Msg("Scheduler stopped")
}

// runOnce executes a single pipeline run, skipping if one is in flight
func (s *Scheduler) runOnce(ctx context.Context) {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		log.Warn().Msg("Previous ETL run still in progress, skipping tick")
		return
	}
	s.running = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.running = false
		s.mu.Unlock()
	}()

	if err := s.pipe.Run(ctx); err != nil {
		log.Error().Err(err).Msg("Scheduled ETL run failed")
	}
}
